package service

import (
	"strings"
	"time"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// NormalizeAvailabilityDataset reshapes a persisted or cached dataset into the canonical
// form produced by BuildAvailabilityDataset. Realtime status fields are dropped since they
// are only meaningful for the request that computed them.
func NormalizeAvailabilityDataset(dataset *models.AvailabilityDataset) *models.AvailabilityDataset {
	if dataset == nil {
		return emptyDataset(time.Now())
	}

	result := &models.AvailabilityDataset{
		FetchedAt: dataset.FetchedAt.UTC(),
		Term:      strings.TrimSpace(dataset.Term),
		Buildings: make([]*models.BuildingAvailability, 0, len(dataset.Buildings)),
	}

	seenSizes := make(map[string]struct{})
	for _, building := range dataset.Buildings {
		if building == nil {
			continue
		}
		normalized := normalizeBuilding(building)
		for _, room := range normalized.Rooms {
			for size := range room.Availability {
				seenSizes[size] = struct{}{}
			}
		}
		result.Buildings = append(result.Buildings, normalized)
	}
	sortBuildings(result.Buildings)
	result.ClassSizes = normalizeClassSizes(dataset.ClassSizes, seenSizes)
	return result
}

func normalizeBuilding(building *models.BuildingAvailability) *models.BuildingAvailability {
	normalized := &models.BuildingAvailability{
		ID:       strings.TrimSpace(building.ID),
		Code:     NormalizeBuildingCode(building.Code),
		Name:     strings.TrimSpace(building.Name),
		CampusID: strings.TrimSpace(building.CampusID),
		Lat:      copyFloat(building.Lat),
		Lng:      copyFloat(building.Lng),
		Rooms:    []*models.RoomAvailability{},
	}

	rooms := make(map[string]*models.RoomAvailability)
	order := make([]string, 0, len(building.Rooms))
	pending := make(map[string]map[string][]models.PeriodEntry)
	for _, room := range building.Rooms {
		if room == nil {
			continue
		}
		number := NormalizeRoomNumber(room.RoomNumber)
		if number == "" {
			continue
		}
		if _, ok := rooms[number]; !ok {
			rooms[number] = &models.RoomAvailability{
				RoomNumber:   number,
				Metadata:     presentMetadata(room.Metadata),
				Availability: make(map[string]*models.SizeAvailability),
			}
			pending[number] = make(map[string][]models.PeriodEntry)
			order = append(order, number)
		} else if rooms[number].Metadata == nil {
			rooms[number].Metadata = presentMetadata(room.Metadata)
		}
		for size, entry := range room.Availability {
			key := normalizeSizeKey(size)
			if key == "" || entry == nil {
				continue
			}
			pending[number][key] = append(pending[number][key], entry.Periods...)
		}
	}

	for _, number := range order {
		room := rooms[number]
		for size, periods := range pending[number] {
			normalizedPeriods := NormalizePeriodEntries(periods)
			if len(normalizedPeriods) == 0 {
				continue
			}
			room.Availability[size] = &models.SizeAvailability{Periods: normalizedPeriods}
		}
		if len(room.Availability) == 0 {
			continue
		}
		normalized.Rooms = append(normalized.Rooms, room)
	}
	sortRooms(normalized.Rooms)
	return normalized
}

func presentMetadata(meta *models.RoomMetadata) *models.RoomMetadata {
	if meta.IsZero() {
		return nil
	}
	return meta
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
