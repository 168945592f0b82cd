package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

func TestBuildAvailabilityDatasetWithoutSchedule(t *testing.T) {
	dataset := BuildAvailabilityDataset(nil, loadMetadataFixture(t), mondayMorning)

	require.NotNil(t, dataset)
	assert.Equal(t, mondayMorning, dataset.FetchedAt)
	assert.Empty(t, dataset.Buildings)
	assert.NotNil(t, dataset.Buildings)
	assert.Equal(t, []string{}, dataset.ClassSizes)
}

func TestBuildAvailabilityDatasetSortsBuildings(t *testing.T) {
	dataset := buildFixtureDataset(t)

	require.Len(t, dataset.Buildings, 3)
	assert.Equal(t, "AND", dataset.Buildings[0].Code)
	assert.Equal(t, "MAT", dataset.Buildings[1].Code)
	assert.Equal(t, "", dataset.Buildings[2].Code)
	assert.Equal(t, "Annex", dataset.Buildings[2].Name)
}

func TestBuildAvailabilityDatasetFields(t *testing.T) {
	dataset := buildFixtureDataset(t)

	assert.Equal(t, "Fall 2024", dataset.Term)
	assert.Equal(t, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), dataset.FetchedAt)
	assert.Equal(t, []string{"10", "25"}, dataset.ClassSizes)

	mat := dataset.FindBuilding("MAT")
	require.NotNil(t, mat)
	assert.Equal(t, "12", mat.ID)
	require.NotNil(t, mat.Lat)
	require.NotNil(t, mat.Lng)
	assert.InDelta(t, 29.6499, *mat.Lat, 1e-9)
	assert.InDelta(t, -82.3442, *mat.Lng, 1e-9)

	require.Len(t, mat.Rooms, 2)
	assert.Equal(t, "0005", mat.Rooms[0].RoomNumber)
	assert.Equal(t, "0101", mat.Rooms[1].RoomNumber)
	assert.Len(t, mat.Rooms[0].Availability["10"].Periods, 2)
	assert.Len(t, mat.Rooms[1].Availability["25"].Periods, 1)
}

func TestBuildAvailabilityDatasetAttachesMetadata(t *testing.T) {
	dataset := buildFixtureDataset(t)

	room := dataset.FindBuilding("MAT").FindRoom("0005")
	require.NotNil(t, room)
	require.NotNil(t, room.Metadata)
	require.NotNil(t, room.Metadata.Capacity)
	assert.Equal(t, 40, *room.Metadata.Capacity)
	assert.Equal(t, []string{"Projector"}, room.Metadata.Features)
	assert.True(t, room.Metadata.FeatureFlags["documentCamera"])

	assert.Nil(t, dataset.FindBuilding("MAT").FindRoom("0101").Metadata)
	assert.Nil(t, dataset.Buildings[2].Rooms[0].Metadata, "code-less buildings never match metadata")
}

func TestBuildAvailabilityDatasetEveryRoomHasPeriods(t *testing.T) {
	schedule := loadScheduleFixture(t)
	schedule.Buildings = append(schedule.Buildings, models.ScheduleBuilding{
		ID:   "empty",
		Code: "EMP",
		Sizes: map[string]models.RawEntryList{
			"10": {rawEntry("200", "", "")},
			"":   {rawEntry("201", "M", "1")},
		},
	})

	dataset := BuildAvailabilityDataset(schedule, nil, mondayMorning)

	empty := dataset.FindBuilding("EMP")
	require.NotNil(t, empty)
	assert.Empty(t, empty.Rooms)
	for _, building := range dataset.Buildings {
		for _, room := range building.Rooms {
			hasPeriods := false
			for _, entry := range room.Availability {
				if len(entry.Periods) > 0 {
					hasPeriods = true
				}
			}
			assert.True(t, hasPeriods, "room %s/%s", building.Code, room.RoomNumber)
		}
	}
}

func TestBuildAvailabilityDatasetMergesBucketCase(t *testing.T) {
	schedule := &models.ScheduleSnapshot{
		Buildings: []models.ScheduleBuilding{{
			ID:   "1",
			Code: "LIT",
			Sizes: map[string]models.RawEntryList{
				"xl": {rawEntry("10", "M", "1")},
				"XL": {rawEntry("10", "T", "1")},
			},
		}},
	}

	dataset := BuildAvailabilityDataset(schedule, nil, mondayMorning)

	room := dataset.FindBuilding("LIT").FindRoom("0010")
	require.NotNil(t, room)
	require.Len(t, room.Availability, 1)
	assert.Len(t, room.Availability["XL"].Periods, 2)
	assert.Equal(t, []string{"XL"}, dataset.ClassSizes)
	assert.Equal(t, mondayMorning, dataset.FetchedAt)
}

func TestNormalizeAvailabilityDatasetFixedPoint(t *testing.T) {
	built := buildFixtureDataset(t)

	normalized := NormalizeAvailabilityDataset(built)

	assert.Equal(t, built, normalized)
	assert.Equal(t, normalized, NormalizeAvailabilityDataset(normalized))
}

func TestNormalizeAvailabilityDatasetAfterJSONRoundTrip(t *testing.T) {
	built := buildFixtureDataset(t)
	ApplyStatusAt(built, &models.TimeContext{Day: "M", Minute: 520})

	payload, err := json.Marshal(built)
	require.NoError(t, err)
	var decoded models.AvailabilityDataset
	require.NoError(t, json.Unmarshal(payload, &decoded))

	normalized := NormalizeAvailabilityDataset(&decoded)

	assert.Equal(t, buildFixtureDataset(t), normalized)
}

func TestNormalizeAvailabilityDatasetMergesRooms(t *testing.T) {
	dataset := &models.AvailabilityDataset{
		ClassSizes: []string{"10"},
		Buildings: []*models.BuildingAvailability{{
			Code: "tur",
			Rooms: []*models.RoomAvailability{
				{RoomNumber: "7", Availability: map[string]*models.SizeAvailability{"10": {Periods: []models.PeriodEntry{{Day: "M", Period: "3"}}}}},
				{RoomNumber: "0007", Availability: map[string]*models.SizeAvailability{"10": {Periods: []models.PeriodEntry{{Day: "m", Period: "1"}}}}},
				{RoomNumber: "8", Availability: map[string]*models.SizeAvailability{"10": {}}},
			},
		}},
	}

	normalized := NormalizeAvailabilityDataset(dataset)

	building := normalized.FindBuilding("TUR")
	require.NotNil(t, building)
	require.Len(t, building.Rooms, 1)
	periods := building.Rooms[0].Availability["10"].Periods
	require.Len(t, periods, 2)
	assert.Equal(t, "1", periods[0].Period)
	assert.Equal(t, "3", periods[1].Period)
}

func TestNormalizeAvailabilityDatasetNil(t *testing.T) {
	normalized := NormalizeAvailabilityDataset(nil)
	require.NotNil(t, normalized)
	assert.Empty(t, normalized.Buildings)
}

func TestParseTimestampFormats(t *testing.T) {
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, want, parseTimestamp("2024-09-01T10:00:00Z", fallback))
	assert.Equal(t, want, parseTimestamp("2024-09-01 10:00:00", fallback))
	assert.Equal(t, want, parseTimestamp(models.FlexString("1725184800"), fallback))
	assert.Equal(t, want, parseTimestamp(models.FlexString("1725184800000"), fallback))
	assert.Equal(t, fallback, parseTimestamp("yesterday", fallback))
	assert.Equal(t, fallback, parseTimestamp("", fallback))
}

func TestSortSizeBuckets(t *testing.T) {
	sizes := []string{"XL", "100", "25", "10", "A"}
	sortSizeBuckets(sizes)
	assert.Equal(t, []string{"10", "25", "100", "A", "XL"}, sizes)
}

func TestNormalizeRoomNumber(t *testing.T) {
	assert.Equal(t, "0013", NormalizeRoomNumber(" 13 "))
	assert.Equal(t, "0A12", NormalizeRoomNumber("a12"))
	assert.Equal(t, "G001B", NormalizeRoomNumber("g001b"))
	assert.Equal(t, "", NormalizeRoomNumber("  "))
}

func TestBuildAvailabilityDatasetSkipsEmptyMetadata(t *testing.T) {
	metadata := &models.MetadataSnapshot{Rooms: []models.RoomMetadataRecord{
		{BuildingCode: "MAT", RoomNumber: "5"},
		{BuildingCode: "MAT", RoomNumber: "101", Capacity: "60"},
	}}

	dataset := BuildAvailabilityDataset(loadScheduleFixture(t), metadata, mondayMorning)

	mat := dataset.FindBuilding("MAT")
	assert.Nil(t, mat.FindRoom("0005").Metadata)
	require.NotNil(t, mat.FindRoom("0101").Metadata)
	assert.Equal(t, 60, *mat.FindRoom("0101").Metadata.Capacity)
}

func TestNormalizeAvailabilityDatasetDropsEmptyMetadata(t *testing.T) {
	capacity := 20
	dataset := &models.AvailabilityDataset{
		Buildings: []*models.BuildingAvailability{{
			Code: "TUR",
			Rooms: []*models.RoomAvailability{
				{RoomNumber: "7", Metadata: &models.RoomMetadata{}, Availability: map[string]*models.SizeAvailability{"10": {Periods: []models.PeriodEntry{{Day: "M", Period: "3"}}}}},
				{RoomNumber: "0007", Metadata: &models.RoomMetadata{Capacity: &capacity}, Availability: map[string]*models.SizeAvailability{"10": {Periods: []models.PeriodEntry{{Day: "M", Period: "1"}}}}},
			},
		}},
	}

	room := NormalizeAvailabilityDataset(dataset).FindBuilding("TUR").FindRoom("0007")

	require.NotNil(t, room)
	require.NotNil(t, room.Metadata)
	assert.Equal(t, 20, *room.Metadata.Capacity)
}
