package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PeriodEntry is one open class period of a room for a given weekday.
type PeriodEntry struct {
	Day          string `json:"day"`
	Period       string `json:"period"`
	Start        string `json:"start"`
	End          string `json:"end"`
	StartMinutes int    `json:"startMinutes"`
	EndMinutes   int    `json:"endMinutes"`
}

type loosePeriodEntry struct {
	Day          FlexString `json:"day"`
	Period       FlexString `json:"period"`
	Start        FlexString `json:"start"`
	End          FlexString `json:"end"`
	StartMinutes FlexString `json:"startMinutes"`
	EndMinutes   FlexString `json:"endMinutes"`
}

// UnmarshalJSON accepts numeric or textual fields for persisted entries. A value other
// than an object yields a blank entry.
func (p *PeriodEntry) UnmarshalJSON(data []byte) error {
	*p = PeriodEntry{}
	if !isObject(data) {
		return nil
	}
	var loose loosePeriodEntry
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	start, _ := loose.StartMinutes.Int()
	end, _ := loose.EndMinutes.Int()
	*p = PeriodEntry{
		Day:          loose.Day.String(),
		Period:       loose.Period.String(),
		Start:        loose.Start.String(),
		End:          loose.End.String(),
		StartMinutes: start,
		EndMinutes:   end,
	}
	return nil
}

// PeriodList decodes a JSON array of period entries or an object keyed by position.
type PeriodList []PeriodEntry

// UnmarshalJSON implements json.Unmarshaler.
func (l *PeriodList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*l = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []PeriodEntry
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var keyed map[string]PeriodEntry
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return err
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]PeriodEntry, 0, len(keys))
		for _, k := range keys {
			items = append(items, keyed[k])
		}
		*l = items
	default:
		*l = nil
	}
	return nil
}

// SizeAvailability holds the open periods of one room for one size bucket.
// IsAvailableNow and NextAvailable are populated by the realtime status pass.
type SizeAvailability struct {
	Periods        []PeriodEntry
	IsAvailableNow *bool
	NextAvailable  *PeriodEntry
}

type sizeAvailabilityJSON struct {
	Periods        []PeriodEntry `json:"periods"`
	IsAvailableNow *bool         `json:"isAvailableNow,omitempty"`
	NextAvailable  *PeriodEntry  `json:"nextAvailable,omitempty"`
}

type annotatedSizeAvailabilityJSON struct {
	Periods        []PeriodEntry `json:"periods"`
	IsAvailableNow *bool         `json:"isAvailableNow"`
	NextAvailable  *PeriodEntry  `json:"nextAvailable"`
}

// Annotated reports whether realtime status has been applied.
func (s *SizeAvailability) Annotated() bool {
	return s != nil && s.IsAvailableNow != nil
}

// MarshalJSON emits nextAvailable as null once the entry has been annotated.
func (s SizeAvailability) MarshalJSON() ([]byte, error) {
	periods := s.Periods
	if periods == nil {
		periods = []PeriodEntry{}
	}
	if s.IsAvailableNow != nil {
		return json.Marshal(annotatedSizeAvailabilityJSON{Periods: periods, IsAvailableNow: s.IsAvailableNow, NextAvailable: s.NextAvailable})
	}
	return json.Marshal(sizeAvailabilityJSON{Periods: periods, NextAvailable: s.NextAvailable})
}

// UnmarshalJSON accepts a bare period array or the object form.
func (s *SizeAvailability) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = SizeAvailability{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var periods PeriodList
		if err := json.Unmarshal(trimmed, &periods); err != nil {
			return err
		}
		s.Periods = periods
		return nil
	}
	if trimmed[0] != '{' {
		return nil
	}
	var obj struct {
		Periods        PeriodList      `json:"periods"`
		IsAvailableNow json.RawMessage `json:"isAvailableNow"`
		NextAvailable  json.RawMessage `json:"nextAvailable"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	s.Periods = obj.Periods
	if flag, ok := parseFlag(obj.IsAvailableNow); ok {
		s.IsAvailableNow = &flag
	}
	if isObject(obj.NextAvailable) {
		var next PeriodEntry
		if err := json.Unmarshal(obj.NextAvailable, &next); err == nil {
			s.NextAvailable = &next
		}
	}
	return nil
}

// Clone returns a copy with its own periods slice.
func (s *SizeAvailability) Clone() *SizeAvailability {
	if s == nil {
		return nil
	}
	clone := &SizeAvailability{Periods: append([]PeriodEntry(nil), s.Periods...)}
	if s.IsAvailableNow != nil {
		v := *s.IsAvailableNow
		clone.IsAvailableNow = &v
	}
	if s.NextAvailable != nil {
		next := *s.NextAvailable
		clone.NextAvailable = &next
	}
	return clone
}

// RoomMetadata describes physical room details scraped from the campus map.
type RoomMetadata struct {
	Capacity     *int            `json:"capacity,omitempty"`
	Photo        string          `json:"photo,omitempty"`
	Gallery      []string        `json:"gallery,omitempty"`
	Features     []string        `json:"features,omitempty"`
	FeatureFlags map[string]bool `json:"featureFlags,omitempty"`
	DetailURL    string          `json:"detailUrl,omitempty"`
}

// UnmarshalJSON decodes persisted metadata field by field; a non-object yields empty metadata.
func (m *RoomMetadata) UnmarshalJSON(data []byte) error {
	*m = RoomMetadata{}
	if !isObject(data) {
		return nil
	}
	var loose looseRoomMetadata
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	*m = RoomMetadata{
		Photo:        loose.Photo.String(),
		Gallery:      loose.Gallery,
		Features:     loose.Features,
		FeatureFlags: loose.FeatureFlags,
		DetailURL:    loose.DetailURL.String(),
	}
	if capacity, ok := loose.Capacity.Int(); ok {
		m.Capacity = &capacity
	}
	return nil
}

// IsZero reports whether no metadata field is set.
func (m *RoomMetadata) IsZero() bool {
	return m == nil || m.Capacity == nil && m.Photo == "" && m.DetailURL == "" &&
		len(m.Gallery) == 0 && len(m.Features) == 0 && len(m.FeatureFlags) == 0
}

// RoomAvailability groups a room's open periods by size bucket.
type RoomAvailability struct {
	RoomNumber   string                       `json:"roomNumber"`
	Metadata     *RoomMetadata                `json:"metadata,omitempty"`
	Availability map[string]*SizeAvailability `json:"availability"`
}

// UnmarshalJSON tolerates numeric room numbers and a non-object availability map.
func (r *RoomAvailability) UnmarshalJSON(data []byte) error {
	*r = RoomAvailability{}
	if !isObject(data) {
		return nil
	}
	var loose struct {
		RoomNumber   FlexString      `json:"roomNumber"`
		Metadata     *RoomMetadata   `json:"metadata"`
		Availability json.RawMessage `json:"availability"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	r.RoomNumber = loose.RoomNumber.String()
	r.Metadata = loose.Metadata
	if isObject(loose.Availability) {
		var sizes map[string]*SizeAvailability
		if err := json.Unmarshal(loose.Availability, &sizes); err == nil {
			r.Availability = sizes
		}
	}
	return nil
}

// Clone returns a deep copy of the room's availability map.
func (r *RoomAvailability) Clone() *RoomAvailability {
	if r == nil {
		return nil
	}
	clone := &RoomAvailability{
		RoomNumber:   r.RoomNumber,
		Metadata:     r.Metadata,
		Availability: make(map[string]*SizeAvailability, len(r.Availability)),
	}
	for size, entry := range r.Availability {
		clone.Availability[size] = entry.Clone()
	}
	return clone
}

// BuildingAvailability is one campus building with its rooms.
type BuildingAvailability struct {
	ID       string              `json:"id"`
	Code     string              `json:"code"`
	Name     string              `json:"name"`
	CampusID string              `json:"campusId,omitempty"`
	Lat      *float64            `json:"lat,omitempty"`
	Lng      *float64            `json:"lng,omitempty"`
	Rooms    []*RoomAvailability `json:"rooms"`
}

// UnmarshalJSON coerces identifiers and coordinates from strings or numbers and skips
// room entries that are not objects.
func (b *BuildingAvailability) UnmarshalJSON(data []byte) error {
	*b = BuildingAvailability{}
	if !isObject(data) {
		return nil
	}
	var loose struct {
		ID       FlexString      `json:"id"`
		Code     FlexString      `json:"code"`
		Name     FlexString      `json:"name"`
		CampusID FlexString      `json:"campusId"`
		Lat      FlexString      `json:"lat"`
		Lng      FlexString      `json:"lng"`
		Rooms    json.RawMessage `json:"rooms"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	*b = BuildingAvailability{
		ID:       loose.ID.String(),
		Code:     loose.Code.String(),
		Name:     loose.Name.String(),
		CampusID: loose.CampusID.String(),
		Rooms:    []*RoomAvailability{},
	}
	if lat, ok := loose.Lat.Float(); ok {
		b.Lat = &lat
	}
	if lng, ok := loose.Lng.Float(); ok {
		b.Lng = &lng
	}
	if rooms, err := decodeObjects[*RoomAvailability](loose.Rooms); err == nil && rooms != nil {
		b.Rooms = rooms
	}
	return nil
}

// Clone returns a copy of the building without rooms when withRooms is false.
func (b *BuildingAvailability) Clone(withRooms bool) *BuildingAvailability {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Rooms = []*RoomAvailability{}
	if withRooms {
		clone.Rooms = make([]*RoomAvailability, 0, len(b.Rooms))
		for _, room := range b.Rooms {
			clone.Rooms = append(clone.Rooms, room.Clone())
		}
	}
	return &clone
}

// FindRoom returns the room with the given normalised number.
func (b *BuildingAvailability) FindRoom(roomNumber string) *RoomAvailability {
	if b == nil {
		return nil
	}
	for _, room := range b.Rooms {
		if room.RoomNumber == roomNumber {
			return room
		}
	}
	return nil
}

// AvailabilityDataset is the merged schedule and metadata view of every building.
type AvailabilityDataset struct {
	FetchedAt  time.Time               `json:"fetchedAt"`
	Term       string                  `json:"term"`
	ClassSizes []string                `json:"classSizes"`
	Buildings  []*BuildingAvailability `json:"buildings"`
}

// UnmarshalJSON decodes a persisted dataset through loose field types. Only a non-object
// payload or a non-array buildings field is rejected.
func (d *AvailabilityDataset) UnmarshalJSON(data []byte) error {
	var loose struct {
		FetchedAt  FlexString      `json:"fetchedAt"`
		Term       FlexString      `json:"term"`
		ClassSizes FlexStrings     `json:"classSizes"`
		Buildings  json.RawMessage `json:"buildings"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	buildings, err := decodeObjects[*BuildingAvailability](loose.Buildings)
	if err != nil {
		return fmt.Errorf("buildings: %w", err)
	}
	fetchedAt, _ := loose.FetchedAt.Time()
	*d = AvailabilityDataset{
		FetchedAt:  fetchedAt,
		Term:       loose.Term.String(),
		ClassSizes: loose.ClassSizes,
		Buildings:  buildings,
	}
	return nil
}

// Clone returns a deep copy of the dataset.
func (d *AvailabilityDataset) Clone() *AvailabilityDataset {
	if d == nil {
		return nil
	}
	clone := &AvailabilityDataset{
		FetchedAt:  d.FetchedAt,
		Term:       d.Term,
		ClassSizes: append([]string{}, d.ClassSizes...),
		Buildings:  make([]*BuildingAvailability, 0, len(d.Buildings)),
	}
	for _, building := range d.Buildings {
		clone.Buildings = append(clone.Buildings, building.Clone(true))
	}
	return clone
}

// FindBuilding returns the building with the given upper-cased code.
func (d *AvailabilityDataset) FindBuilding(code string) *BuildingAvailability {
	if d == nil || code == "" {
		return nil
	}
	for _, building := range d.Buildings {
		if building.Code == code {
			return building
		}
	}
	return nil
}

// RoomCount returns the number of rooms across all buildings.
func (d *AvailabilityDataset) RoomCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, building := range d.Buildings {
		total += len(building.Rooms)
	}
	return total
}
