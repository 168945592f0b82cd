package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Snapshot is a point-in-time payload captured by the external scraping process.
type Snapshot struct {
	Key       string          `db:"key" json:"key"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	FetchedAt time.Time       `db:"fetched_at" json:"fetched_at"`
}

// FlexString accepts JSON strings, numbers and booleans and keeps their textual form.
// null decodes to the empty string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		*f = ""
		return nil
	}
	*f = FlexString(trimmed)
	return nil
}

// String returns the trimmed textual value.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// Int parses the value as an integer, accepting float text such as "40.0".
func (f FlexString) Int() (int, bool) {
	raw := f.String()
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v), true
	}
	return 0, false
}

// Float parses the value as a float64.
func (f FlexString) Float() (float64, bool) {
	raw := f.String()
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool interprets the value as a yes/no flag. Besides strconv.ParseBool forms it accepts
// yes/no, y/n, available/unavailable and none.
func (f FlexString) Bool() (bool, bool) {
	raw := strings.ToLower(f.String())
	switch raw {
	case "yes", "y", "true", "available":
		return true, true
	case "no", "n", "false", "none", "unavailable":
		return false, true
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, true
	}
	return false, false
}

// Time parses RFC 3339, "2006-01-02 15:04:05", plain dates and unix seconds or milliseconds.
func (f FlexString) Time() (time.Time, bool) {
	raw := f.String()
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}

// FlexStrings decodes a list of strings or numbers. A lone scalar becomes a one-element
// list; blanks, nested arrays and objects are dropped.
type FlexStrings []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *FlexStrings) UnmarshalJSON(data []byte) error {
	*l = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '{' {
		return nil
	}
	var items []FlexString
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
	} else {
		var item FlexString
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil
		}
		items = append(items, item)
	}
	for _, item := range items {
		if v := item.String(); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

// FlexFlags decodes an object of feature flags whose values may be booleans, yes/no text
// or numbers (non-zero is true). Values that cannot be read as a flag are dropped.
type FlexFlags map[string]bool

// UnmarshalJSON implements json.Unmarshaler.
func (m *FlexFlags) UnmarshalJSON(data []byte) error {
	*m = nil
	if !isObject(data) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	flags := make(FlexFlags, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if flag, ok := parseFlag(value); ok {
			flags[key] = flag
		}
	}
	if len(flags) > 0 {
		*m = flags
	}
	return nil
}

func parseFlag(raw json.RawMessage) (bool, bool) {
	var value FlexString
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	if flag, ok := value.Bool(); ok {
		return flag, true
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] != '"' {
		if n, ok := value.Float(); ok {
			return n != 0, true
		}
	}
	return false, false
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

var errNotArray = errors.New("expected a JSON array")

// decodeObjects decodes a JSON array and skips elements that are not objects or fail to
// decode. null yields nil; any other non-array value is rejected.
func decodeObjects[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, errNotArray
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	items := make([]T, 0, len(raw))
	for _, element := range raw {
		if !isObject(element) {
			continue
		}
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// PadRoomNumber upper-cases a room number and left-pads it with zeros to four characters.
func PadRoomNumber(raw string) string {
	room := strings.ToUpper(strings.TrimSpace(raw))
	if room == "" {
		return ""
	}
	if len(room) < roomNumberWidth {
		room = strings.Repeat("0", roomNumberWidth-len(room)) + room
	}
	return room
}

const roomNumberWidth = 4

// RawScheduleEntry is a single scraped class meeting.
type RawScheduleEntry struct {
	Room   FlexString `json:"ROOM"`
	Day    FlexString `json:"DAY"`
	Period FlexString `json:"PERIOD"`
}

// UnmarshalJSON decodes an entry object; any other value yields a blank entry.
func (e *RawScheduleEntry) UnmarshalJSON(data []byte) error {
	*e = RawScheduleEntry{}
	if !isObject(data) {
		return nil
	}
	type plain RawScheduleEntry
	return json.Unmarshal(data, (*plain)(e))
}

// RawEntryList decodes either a JSON array of entries or an object whose values are entries.
type RawEntryList []RawScheduleEntry

// UnmarshalJSON implements json.Unmarshaler.
func (l *RawEntryList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []RawScheduleEntry
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var keyed map[string]RawScheduleEntry
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return err
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]RawScheduleEntry, 0, len(keys))
		for _, k := range keys {
			items = append(items, keyed[k])
		}
		*l = items
	default:
		*l = nil
	}
	return nil
}

// SizeEntryMap maps a size bucket to its entries. A value other than an object decodes
// to no buckets.
type SizeEntryMap map[string]RawEntryList

// UnmarshalJSON implements json.Unmarshaler.
func (m *SizeEntryMap) UnmarshalJSON(data []byte) error {
	*m = nil
	if !isObject(data) {
		return nil
	}
	var sizes map[string]RawEntryList
	if err := json.Unmarshal(data, &sizes); err != nil {
		return nil
	}
	*m = sizes
	return nil
}

// ScheduleBuilding is one building entry of a schedule snapshot.
type ScheduleBuilding struct {
	ID       FlexString   `json:"id"`
	Name     FlexString   `json:"name"`
	Code     FlexString   `json:"code,omitempty"`
	CampusID FlexString   `json:"campusId,omitempty"`
	Lat      FlexString   `json:"lat,omitempty"`
	Lng      FlexString   `json:"lng,omitempty"`
	Sizes    SizeEntryMap `json:"sizes"`
}

// ScheduleBuildingList skips array elements that are not building objects.
type ScheduleBuildingList []ScheduleBuilding

// UnmarshalJSON implements json.Unmarshaler.
func (l *ScheduleBuildingList) UnmarshalJSON(data []byte) error {
	items, err := decodeObjects[ScheduleBuilding](data)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

// ScheduleSnapshot is the scraped class schedule grouped by building and size bucket.
// Only a non-object payload or a non-array buildings field fails to decode.
type ScheduleSnapshot struct {
	FetchedAt  FlexString           `json:"fetchedAt"`
	Term       FlexString           `json:"term"`
	ClassSizes FlexStrings          `json:"classSizes"`
	Buildings  ScheduleBuildingList `json:"buildings"`
}

// RoomMetadataRecord is one scraped room detail record.
type RoomMetadataRecord struct {
	BuildingCode FlexString      `json:"buildingCode"`
	RoomNumber   FlexString      `json:"roomNumber"`
	Capacity     FlexString      `json:"capacity"`
	Photo        string          `json:"photo,omitempty"`
	Gallery      []string        `json:"gallery,omitempty"`
	Features     []string        `json:"features,omitempty"`
	FeatureFlags map[string]bool `json:"featureFlags,omitempty"`
	DetailURL    string          `json:"detailUrl,omitempty"`
}

type looseRoomMetadata struct {
	BuildingCode FlexString  `json:"buildingCode"`
	RoomNumber   FlexString  `json:"roomNumber"`
	Capacity     FlexString  `json:"capacity"`
	Photo        FlexString  `json:"photo"`
	Gallery      FlexStrings `json:"gallery"`
	Features     FlexStrings `json:"features"`
	FeatureFlags FlexFlags   `json:"featureFlags"`
	DetailURL    FlexString  `json:"detailUrl"`
}

// UnmarshalJSON coerces each field on its own so one mistyped value never discards the record.
func (r *RoomMetadataRecord) UnmarshalJSON(data []byte) error {
	*r = RoomMetadataRecord{}
	if !isObject(data) {
		return nil
	}
	var loose looseRoomMetadata
	if err := json.Unmarshal(data, &loose); err != nil {
		return err
	}
	*r = RoomMetadataRecord{
		BuildingCode: loose.BuildingCode,
		RoomNumber:   loose.RoomNumber,
		Capacity:     loose.Capacity,
		Photo:        loose.Photo.String(),
		Gallery:      loose.Gallery,
		Features:     loose.Features,
		FeatureFlags: loose.FeatureFlags,
		DetailURL:    loose.DetailURL.String(),
	}
	return nil
}

// RoomMetadataRecordList skips array elements that are not room objects.
type RoomMetadataRecordList []RoomMetadataRecord

// UnmarshalJSON implements json.Unmarshaler.
func (l *RoomMetadataRecordList) UnmarshalJSON(data []byte) error {
	items, err := decodeObjects[RoomMetadataRecord](data)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

// MetadataSnapshot is the scraped room metadata collection.
type MetadataSnapshot struct {
	FetchedAt FlexString             `json:"fetchedAt"`
	Source    FlexString             `json:"source"`
	Rooms     RoomMetadataRecordList `json:"rooms"`
}
