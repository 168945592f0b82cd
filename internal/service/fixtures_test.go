package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// Monday 2024-09-02 08:20 in America/New_York (EDT, UTC-4).
var mondayMorning = time.Date(2024, 9, 2, 12, 20, 0, 0, time.UTC)

const scheduleFixture = `{
	"fetchedAt": "2024-09-01T10:00:00Z",
	"term": "Fall 2024",
	"classSizes": ["10", 25],
	"buildings": [
		{
			"id": 12, "name": "Matherly Hall", "code": "mat", "campusId": "main", "lat": "29.6499", "lng": -82.3442,
			"sizes": {
				"10": [
					{"ROOM": "5", "DAY": "M", "PERIOD": "2"},
					{"ROOM": "5", "DAY": "W", "PERIOD": "4"}
				],
				"25": {"a": {"ROOM": "0101", "DAY": "T", "PERIOD": "3"}}
			}
		},
		{
			"id": "7", "name": "Anderson Hall", "code": "AND", "campusId": "main",
			"sizes": {
				"10": [
					{"ROOM": "13", "DAY": "m", "PERIOD": "1"},
					{"ROOM": "0013", "DAY": "M", "PERIOD": 1}
				]
			}
		},
		{
			"id": "99", "name": "Annex",
			"sizes": {"10": [{"ROOM": "1", "DAY": "F", "PERIOD": "E1"}]}
		}
	]
}`

const metadataFixture = `{
	"fetchedAt": "2024-09-01T09:00:00Z",
	"source": "campusmap",
	"rooms": [
		{"buildingCode": "MAT", "roomNumber": "5", "capacity": "40", "features": ["Projector"], "featureFlags": {"documentCamera": true}},
		{"buildingCode": "", "roomNumber": "0001", "capacity": 10}
	]
}`

func loadScheduleFixture(t *testing.T) *models.ScheduleSnapshot {
	t.Helper()
	var schedule models.ScheduleSnapshot
	require.NoError(t, json.Unmarshal([]byte(scheduleFixture), &schedule))
	return &schedule
}

func loadMetadataFixture(t *testing.T) *models.MetadataSnapshot {
	t.Helper()
	var metadata models.MetadataSnapshot
	require.NoError(t, json.Unmarshal([]byte(metadataFixture), &metadata))
	return &metadata
}

func buildFixtureDataset(t *testing.T) *models.AvailabilityDataset {
	t.Helper()
	return BuildAvailabilityDataset(loadScheduleFixture(t), loadMetadataFixture(t), mondayMorning)
}
