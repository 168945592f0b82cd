package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// NormalizeRoomNumber upper-cases a room number and left-pads it with zeros to four characters.
func NormalizeRoomNumber(raw string) string {
	return models.PadRoomNumber(raw)
}

// NormalizeBuildingCode upper-cases and trims a building code.
func NormalizeBuildingCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func normalizeSizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func metadataKey(buildingCode, roomNumber string) string {
	return NormalizeBuildingCode(buildingCode) + "-" + NormalizeRoomNumber(roomNumber)
}

// BuildAvailabilityDataset merges a schedule snapshot with room metadata. It never fails:
// a missing schedule yields an empty dataset stamped with now.
func BuildAvailabilityDataset(schedule *models.ScheduleSnapshot, metadata *models.MetadataSnapshot, now time.Time) *models.AvailabilityDataset {
	if schedule == nil {
		return emptyDataset(now)
	}

	lookup := buildMetadataLookup(metadata)

	dataset := &models.AvailabilityDataset{
		FetchedAt: parseTimestamp(schedule.FetchedAt, now),
		Term:      schedule.Term.String(),
		Buildings: make([]*models.BuildingAvailability, 0, len(schedule.Buildings)),
	}

	seenSizes := make(map[string]struct{})
	for _, raw := range schedule.Buildings {
		building := buildBuilding(raw, lookup)
		for _, room := range building.Rooms {
			for size := range room.Availability {
				seenSizes[size] = struct{}{}
			}
		}
		dataset.Buildings = append(dataset.Buildings, building)
	}
	sortBuildings(dataset.Buildings)

	dataset.ClassSizes = normalizeClassSizes(schedule.ClassSizes, seenSizes)
	return dataset
}

func emptyDataset(now time.Time) *models.AvailabilityDataset {
	return &models.AvailabilityDataset{
		FetchedAt:  now.UTC(),
		ClassSizes: []string{},
		Buildings:  []*models.BuildingAvailability{},
	}
}

func buildMetadataLookup(metadata *models.MetadataSnapshot) map[string]*models.RoomMetadata {
	lookup := make(map[string]*models.RoomMetadata)
	if metadata == nil {
		return lookup
	}
	for _, record := range metadata.Rooms {
		code := record.BuildingCode.String()
		room := record.RoomNumber.String()
		if code == "" || room == "" {
			continue
		}
		if meta := toRoomMetadata(record); !meta.IsZero() {
			lookup[metadataKey(code, room)] = meta
		}
	}
	return lookup
}

func toRoomMetadata(record models.RoomMetadataRecord) *models.RoomMetadata {
	meta := &models.RoomMetadata{
		Photo:     strings.TrimSpace(record.Photo),
		DetailURL: strings.TrimSpace(record.DetailURL),
	}
	if capacity, ok := record.Capacity.Int(); ok {
		meta.Capacity = &capacity
	}
	if len(record.Gallery) > 0 {
		meta.Gallery = append([]string(nil), record.Gallery...)
	}
	if len(record.Features) > 0 {
		meta.Features = append([]string(nil), record.Features...)
	}
	if len(record.FeatureFlags) > 0 {
		meta.FeatureFlags = make(map[string]bool, len(record.FeatureFlags))
		for k, v := range record.FeatureFlags {
			meta.FeatureFlags[k] = v
		}
	}
	return meta
}

func buildBuilding(raw models.ScheduleBuilding, lookup map[string]*models.RoomMetadata) *models.BuildingAvailability {
	building := &models.BuildingAvailability{
		ID:       raw.ID.String(),
		Code:     NormalizeBuildingCode(raw.Code.String()),
		Name:     raw.Name.String(),
		CampusID: raw.CampusID.String(),
		Rooms:    []*models.RoomAvailability{},
	}
	if lat, ok := raw.Lat.Float(); ok {
		building.Lat = &lat
	}
	if lng, ok := raw.Lng.Float(); ok {
		building.Lng = &lng
	}

	// Buckets differing only in case are merged before grouping.
	bySize := make(map[string][]models.RawScheduleEntry, len(raw.Sizes))
	for size, entries := range raw.Sizes {
		key := normalizeSizeKey(size)
		if key == "" {
			continue
		}
		bySize[key] = append(bySize[key], entries...)
	}
	sizes := make([]string, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)

	rooms := make(map[string]*models.RoomAvailability)
	for _, size := range sizes {
		byRoom := make(map[string][]models.RawScheduleEntry)
		for _, entry := range bySize[size] {
			room := NormalizeRoomNumber(entry.Room.String())
			if room == "" {
				continue
			}
			byRoom[room] = append(byRoom[room], entry)
		}
		for roomNumber, entries := range byRoom {
			periods := NormalizeEntries(entries)
			if len(periods) == 0 {
				continue
			}
			room, ok := rooms[roomNumber]
			if !ok {
				room = &models.RoomAvailability{
					RoomNumber:   roomNumber,
					Availability: make(map[string]*models.SizeAvailability),
				}
				if building.Code != "" {
					room.Metadata = lookup[building.Code+"-"+roomNumber]
				}
				rooms[roomNumber] = room
			}
			room.Availability[size] = &models.SizeAvailability{Periods: periods}
		}
	}

	for _, room := range rooms {
		building.Rooms = append(building.Rooms, room)
	}
	sortRooms(building.Rooms)
	return building
}

func sortRooms(rooms []*models.RoomAvailability) {
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomNumber < rooms[j].RoomNumber
	})
}

// sortBuildings orders by code, code-less buildings last, ties broken by name then id.
func sortBuildings(buildings []*models.BuildingAvailability) {
	sort.SliceStable(buildings, func(i, j int) bool {
		a, b := buildings[i], buildings[j]
		aHas, bHas := a.Code != "", b.Code != ""
		if aHas != bHas {
			return aHas
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// normalizeClassSizes upper-cases and de-duplicates the declared buckets, keeping their
// order. With no declared buckets the ones seen in rooms are used.
func normalizeClassSizes(declared []string, seen map[string]struct{}) []string {
	result := make([]string, 0, len(declared))
	dedup := make(map[string]struct{}, len(declared))
	for _, raw := range declared {
		size := normalizeSizeKey(raw)
		if size == "" {
			continue
		}
		if _, ok := dedup[size]; ok {
			continue
		}
		dedup[size] = struct{}{}
		result = append(result, size)
	}
	if len(result) > 0 {
		return result
	}
	for size := range seen {
		result = append(result, size)
	}
	sortSizeBuckets(result)
	return result
}

// sortSizeBuckets orders numeric buckets by value, then the rest lexicographically.
func sortSizeBuckets(sizes []string) {
	sort.Slice(sizes, func(i, j int) bool {
		a, aErr := strconv.Atoi(sizes[i])
		b, bErr := strconv.Atoi(sizes[j])
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return sizes[i] < sizes[j]
	})
}

func parseTimestamp(raw models.FlexString, fallback time.Time) time.Time {
	if ts, ok := raw.Time(); ok {
		return ts
	}
	return fallback.UTC()
}
