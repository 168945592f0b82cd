package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
)

type fakeSnapshotStore struct {
	snapshots map[string]*models.Snapshot
	err       error
}

func (f *fakeSnapshotStore) Latest(_ context.Context, key string) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	snapshot, ok := f.snapshots[key]
	if !ok {
		return nil, appErrors.ErrSnapshotNotFound
	}
	return snapshot, nil
}

type stubCacheRepo struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{store: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, key)
	return nil
}

func fixtureStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: map[string]*models.Snapshot{
		"schedule":      {Key: "schedule", Payload: json.RawMessage(scheduleFixture)},
		"room-metadata": {Key: "room-metadata", Payload: json.RawMessage(metadataFixture)},
	}}
}

func newTestAvailabilityService(t *testing.T, store snapshotStore, cache *CacheService) *AvailabilityService {
	t.Helper()
	svc := NewAvailabilityService(AvailabilityServiceParams{
		Store:   store,
		Cache:   cache,
		Metrics: NewMetricsService(),
	})
	svc.now = func() time.Time { return mondayMorning }
	return svc
}

func newFakeSnapshotStore(schedule, metadata string) *fakeSnapshotStore {
	store := &fakeSnapshotStore{snapshots: map[string]*models.Snapshot{}}
	if schedule != "" {
		store.snapshots["schedule"] = &models.Snapshot{Key: "schedule", Payload: json.RawMessage(schedule)}
	}
	if metadata != "" {
		store.snapshots["room-metadata"] = &models.Snapshot{Key: "room-metadata", Payload: json.RawMessage(metadata)}
	}
	return store
}

func loadedService(t *testing.T) *AvailabilityService {
	t.Helper()
	svc := newTestAvailabilityService(t, fixtureStore(), nil)
	require.NoError(t, svc.Refresh(context.Background()))
	return svc
}

func boolPtr(v bool) *bool { return &v }

func buildingCodes(dataset *models.AvailabilityDataset) []string {
	codes := make([]string, 0, len(dataset.Buildings))
	for _, b := range dataset.Buildings {
		codes = append(codes, b.Code)
	}
	return codes
}

func TestAvailabilityServiceRefresh(t *testing.T) {
	svc := newTestAvailabilityService(t, fixtureStore(), nil)
	assert.False(t, svc.Loaded())
	assert.False(t, svc.Ready())

	require.NoError(t, svc.Refresh(context.Background()))

	assert.True(t, svc.Loaded())
	assert.True(t, svc.Ready())
	status := svc.Status()
	assert.Equal(t, "snapshot", status.Source)
	assert.Equal(t, 3, status.Buildings)
	assert.Equal(t, 4, status.Rooms)
	assert.Equal(t, "Fall 2024", status.Term)
	require.NotNil(t, status.FetchedAt)
	assert.Equal(t, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), *status.FetchedAt)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().Refreshes)
}

func TestAvailabilityServiceRefreshWithoutSchedule(t *testing.T) {
	svc := newTestAvailabilityService(t, &fakeSnapshotStore{}, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	assert.True(t, svc.Loaded())
	assert.False(t, svc.Ready())
	assert.Equal(t, "empty", svc.Status().Source)
	snapshot, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snapshot.Buildings)
	assert.Equal(t, mondayMorning, snapshot.FetchedAt)
}

func TestAvailabilityServiceRefreshWithoutMetadata(t *testing.T) {
	store := fixtureStore()
	delete(store.snapshots, "room-metadata")
	svc := newTestAvailabilityService(t, store, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	building, _, err := svc.Building(context.Background(), "MAT")
	require.NoError(t, err)
	assert.Nil(t, building.FindRoom("0005").Metadata)
}

func TestAvailabilityServiceRefreshFailureKeepsPreviousDataset(t *testing.T) {
	store := fixtureStore()
	svc := newTestAvailabilityService(t, store, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	store.err = errors.New("connection refused")
	err := svc.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.True(t, svc.Ready())
	status := svc.Status()
	assert.Equal(t, 3, status.Buildings)
	assert.Equal(t, "snapshot", status.Source)
	assert.Contains(t, status.LastError, "connection refused")
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().RefreshFailures)
}

func TestAvailabilityServiceRefreshFailureWithoutPreviousDataset(t *testing.T) {
	svc := newTestAvailabilityService(t, &fakeSnapshotStore{err: errors.New("boom")}, nil)

	require.Error(t, svc.Refresh(context.Background()))

	assert.True(t, svc.Loaded())
	assert.False(t, svc.Ready())
}

func TestAvailabilityServiceRefreshRejectsWrongScheduleShape(t *testing.T) {
	for _, payload := range []string{`{"buildings": "nope"}`, `{"buildings": {"MAT": {}}}`, `[]`, `"schedule"`} {
		svc := newTestAvailabilityService(t, newFakeSnapshotStore(payload, ""), nil)

		err := svc.Refresh(context.Background())

		require.Error(t, err, payload)
		assert.Contains(t, err.Error(), "decode schedule snapshot", payload)
	}
}

func TestAvailabilityServiceRefreshCoercesMistypedSchedule(t *testing.T) {
	const anderson = `{"id": "7", "name": "Anderson Hall", "code": "AND", "sizes": {"10": [{"ROOM": "13", "DAY": "M", "PERIOD": "1"}]}}`
	cases := []struct {
		name     string
		building string
		check    func(t *testing.T, dataset *models.AvailabilityDataset)
	}{
		{
			name:     "numeric name and room",
			building: `{"id": 12, "name": 42, "code": "MAT", "sizes": {"10": [{"ROOM": 5, "DAY": "W", "PERIOD": 4}]}}`,
			check: func(t *testing.T, dataset *models.AvailabilityDataset) {
				mat := dataset.FindBuilding("MAT")
				require.NotNil(t, mat)
				assert.Equal(t, "42", mat.Name)
				assert.Equal(t, "12", mat.ID)
				assert.NotNil(t, mat.FindRoom("0005"))
			},
		},
		{
			name:     "sizes not an object",
			building: `{"id": "2", "name": "Broken", "code": "BRK", "sizes": "none"}`,
			check: func(t *testing.T, dataset *models.AvailabilityDataset) {
				brk := dataset.FindBuilding("BRK")
				require.NotNil(t, brk)
				assert.Empty(t, brk.Rooms)
			},
		},
		{
			name:     "building not an object",
			building: `"MAT"`,
			check: func(t *testing.T, dataset *models.AvailabilityDataset) {
				assert.Len(t, dataset.Buildings, 1)
			},
		},
		{
			name:     "entry not an object",
			building: `{"name": "Matherly Hall", "code": "MAT", "sizes": {"10": ["W4", {"ROOM": "5", "DAY": "W", "PERIOD": "4"}]}}`,
			check: func(t *testing.T, dataset *models.AvailabilityDataset) {
				room := dataset.FindBuilding("MAT").FindRoom("0005")
				require.NotNil(t, room)
				assert.Len(t, room.Availability["10"].Periods, 1)
			},
		},
		{
			name:     "identifiers and coordinates as objects",
			building: `{"id": {"n": 1}, "name": "Matherly Hall", "code": "MAT", "lat": {"deg": 29}, "lng": [1], "sizes": {"10": [{"ROOM": "5", "DAY": "W", "PERIOD": "4"}]}}`,
			check: func(t *testing.T, dataset *models.AvailabilityDataset) {
				mat := dataset.FindBuilding("MAT")
				require.NotNil(t, mat)
				assert.Empty(t, mat.ID)
				assert.Nil(t, mat.Lat)
				assert.Nil(t, mat.Lng)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := `{"term": 2024, "classSizes": "10", "buildings": [` + anderson + `, ` + tc.building + `]}`
			svc := newTestAvailabilityService(t, newFakeSnapshotStore(payload, ""), nil)

			require.NoError(t, svc.Refresh(context.Background()))

			dataset, err := svc.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, "2024", dataset.Term)
			assert.Equal(t, []string{"10"}, dataset.ClassSizes)
			and := dataset.FindBuilding("AND")
			require.NotNil(t, and)
			assert.NotNil(t, and.FindRoom("0013"))
			tc.check(t, dataset)
		})
	}
}

func TestAvailabilityServiceRefreshCoercesMistypedMetadata(t *testing.T) {
	const schedule = `{"buildings": [
		{"id": "7", "name": "Anderson Hall", "code": "AND", "sizes": {"10": [{"ROOM": "13", "DAY": "M", "PERIOD": "1"}]}},
		{"id": "12", "name": "Matherly Hall", "code": "MAT", "sizes": {"10": [{"ROOM": "5", "DAY": "W", "PERIOD": "4"}]}}
	]}`
	const anderson = `{"buildingCode": "AND", "roomNumber": 13, "capacity": 40}`
	cases := []struct {
		name   string
		record string
		check  func(t *testing.T, meta *models.RoomMetadata)
	}{
		{
			name:   "feature flags as text and numbers",
			record: `{"buildingCode": "MAT", "roomNumber": 5, "featureFlags": {"projector": "yes", "wifi": 1, "camera": "n", "broken": {"x": 1}}}`,
			check: func(t *testing.T, meta *models.RoomMetadata) {
				require.NotNil(t, meta)
				assert.Equal(t, map[string]bool{"projector": true, "wifi": true, "camera": false}, meta.FeatureFlags)
			},
		},
		{
			name:   "features as a scalar",
			record: `{"buildingCode": "MAT", "roomNumber": "5", "features": "Projector", "gallery": [1, "b.jpg", null]}`,
			check: func(t *testing.T, meta *models.RoomMetadata) {
				require.NotNil(t, meta)
				assert.Equal(t, []string{"Projector"}, meta.Features)
				assert.Equal(t, []string{"1", "b.jpg"}, meta.Gallery)
			},
		},
		{
			name:   "text fields as numbers",
			record: `{"buildingCode": "MAT", "roomNumber": "5", "photo": 12, "detailUrl": true, "capacity": "forty"}`,
			check: func(t *testing.T, meta *models.RoomMetadata) {
				require.NotNil(t, meta)
				assert.Equal(t, "12", meta.Photo)
				assert.Equal(t, "true", meta.DetailURL)
				assert.Nil(t, meta.Capacity)
			},
		},
		{
			name:   "flags not an object",
			record: `{"buildingCode": "MAT", "roomNumber": "5", "capacity": 30, "featureFlags": ["projector"]}`,
			check: func(t *testing.T, meta *models.RoomMetadata) {
				require.NotNil(t, meta)
				require.NotNil(t, meta.Capacity)
				assert.Equal(t, 30, *meta.Capacity)
				assert.Nil(t, meta.FeatureFlags)
			},
		},
		{
			name:   "record not an object",
			record: `"MAT-0005"`,
			check: func(t *testing.T, meta *models.RoomMetadata) {
				assert.Nil(t, meta)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metadata := `{"source": "campusmap", "rooms": [` + anderson + `, ` + tc.record + `]}`
			svc := newTestAvailabilityService(t, newFakeSnapshotStore(schedule, metadata), nil)

			require.NoError(t, svc.Refresh(context.Background()))

			dataset, err := svc.Snapshot()
			require.NoError(t, err)
			and := dataset.FindBuilding("AND").FindRoom("0013")
			require.NotNil(t, and)
			require.NotNil(t, and.Metadata)
			require.NotNil(t, and.Metadata.Capacity)
			assert.Equal(t, 40, *and.Metadata.Capacity)
			tc.check(t, dataset.FindBuilding("MAT").FindRoom("0005").Metadata)
		})
	}
}

func TestAvailabilityServiceSnapshotNotReady(t *testing.T) {
	svc := newTestAvailabilityService(t, nil, nil)

	_, err := svc.Snapshot()

	assert.ErrorIs(t, err, appErrors.ErrNotReady)
}

func TestAvailabilityServiceQueryFilters(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		query dto.AvailabilityQuery
		want  []string
	}{
		{name: "no filters", query: dto.AvailabilityQuery{}, want: []string{"AND", "MAT", ""}},
		{name: "building code", query: dto.AvailabilityQuery{Building: "mat"}, want: []string{"MAT"}},
		{name: "min capacity", query: dto.AvailabilityQuery{MinCapacity: 30}, want: []string{"MAT"}},
		{name: "min capacity above all", query: dto.AvailabilityQuery{MinCapacity: 41}, want: []string{}},
		{name: "feature flag", query: dto.AvailabilityQuery{Feature: "documentcamera"}, want: []string{"MAT"}},
		{name: "feature list", query: dto.AvailabilityQuery{Feature: "PROJECTOR"}, want: []string{"MAT"}},
		{name: "size", query: dto.AvailabilityQuery{Size: "25"}, want: []string{"MAT"}},
		{name: "day", query: dto.AvailabilityQuery{Day: "f"}, want: []string{""}},
		{name: "single letter day", query: dto.AvailabilityQuery{Day: "R"}, want: []string{}},
		{name: "open now", query: dto.AvailabilityQuery{OpenNow: boolPtr(true)}, want: []string{}},
		{name: "closed now", query: dto.AvailabilityQuery{OpenNow: boolPtr(false)}, want: []string{"AND", "MAT", ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, _, err := svc.Query(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, buildingCodes(result))
		})
	}
}

func TestAvailabilityServiceQueryDayKeepsOnlyThatDay(t *testing.T) {
	svc := loadedService(t)

	result, _, err := svc.Query(context.Background(), dto.AvailabilityQuery{Day: "W"})

	require.NoError(t, err)
	require.Len(t, result.Buildings, 1)
	room := result.Buildings[0].FindRoom("0005")
	require.NotNil(t, room)
	periods := room.Availability["10"].Periods
	require.Len(t, periods, 1)
	assert.Equal(t, "4", periods[0].Period)
}

func TestAvailabilityServiceQueryOpenNowInsidePeriod(t *testing.T) {
	svc := loadedService(t)
	svc.now = func() time.Time { return time.Date(2024, 9, 2, 12, 40, 0, 0, time.UTC) }

	result, tc, err := svc.Query(context.Background(), dto.AvailabilityQuery{OpenNow: boolPtr(true)})

	require.NoError(t, err)
	assert.Equal(t, &models.TimeContext{Day: "M", Minute: 520}, tc)
	require.Equal(t, []string{"MAT"}, buildingCodes(result))
	require.Len(t, result.Buildings[0].Rooms, 1)
	entry := result.Buildings[0].Rooms[0].Availability["10"]
	assert.True(t, *entry.IsAvailableNow)
	assert.Len(t, entry.Periods, 2)
}

func TestAvailabilityServiceQueryWithoutTimeContextTreatsRoomsClosed(t *testing.T) {
	svc := loadedService(t)
	engine, _ := NewStatusEngine("Nowhere/Invalid")
	svc.engine = engine

	open, tc, err := svc.Query(context.Background(), dto.AvailabilityQuery{OpenNow: boolPtr(true)})
	require.NoError(t, err)
	assert.Nil(t, tc)
	assert.Empty(t, open.Buildings)

	closed, _, err := svc.Query(context.Background(), dto.AvailabilityQuery{OpenNow: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, closed.Buildings, 3)
	assert.False(t, closed.Buildings[0].Rooms[0].Availability["10"].Annotated())
}

func TestAvailabilityServiceQueryInvalidDay(t *testing.T) {
	svc := loadedService(t)

	_, _, err := svc.Query(context.Background(), dto.AvailabilityQuery{Day: "XX"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceQueryDoesNotMutateDataset(t *testing.T) {
	svc := loadedService(t)

	result, _, err := svc.Query(context.Background(), dto.AvailabilityQuery{})
	require.NoError(t, err)
	require.True(t, result.Buildings[0].Rooms[0].Availability["10"].Annotated())

	stored := svc.current()
	for _, building := range stored.Buildings {
		for _, room := range building.Rooms {
			for _, entry := range room.Availability {
				assert.False(t, entry.Annotated())
			}
		}
	}
}

func TestAvailabilityServiceQueryBeforeLoad(t *testing.T) {
	svc := newTestAvailabilityService(t, nil, nil)

	result, _, err := svc.Query(context.Background(), dto.AvailabilityQuery{})

	require.NoError(t, err)
	assert.Empty(t, result.Buildings)
}

func TestAvailabilityServiceBuilding(t *testing.T) {
	svc := loadedService(t)

	building, tc, err := svc.Building(context.Background(), " mat ")
	require.NoError(t, err)
	require.NotNil(t, tc)
	assert.Equal(t, "Matherly Hall", building.Name)
	entry := building.FindRoom("0005").Availability["10"]
	require.True(t, entry.Annotated())
	assert.Equal(t, "2", entry.NextAvailable.Period)

	_, _, err = svc.Building(context.Background(), "ZZZ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceRoom(t *testing.T) {
	svc := loadedService(t)

	result, _, err := svc.Room(context.Background(), "mat", "5")
	require.NoError(t, err)
	assert.Equal(t, "MAT", result.Building.Code)
	assert.Equal(t, 2, result.Building.RoomCount)
	assert.Equal(t, "0005", result.Room.RoomNumber)
	assert.True(t, result.Room.Availability["10"].Annotated())

	_, _, err = svc.Room(context.Background(), "MAT", "999")
	require.Error(t, err)
	assert.Equal(t, "room not found", appErrors.FromError(err).Message)

	_, _, err = svc.Room(context.Background(), "NOPE", "1")
	require.Error(t, err)
	assert.Equal(t, "building not found", appErrors.FromError(err).Message)
}

func TestAvailabilityServiceBuildingsPagination(t *testing.T) {
	svc := loadedService(t)

	summaries, pagination, err := svc.Buildings(context.Background(), dto.BuildingListQuery{Page: 2, PageSize: 2})

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Annex", summaries[0].Name)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, pagination)
	require.NotNil(t, summaries[0].OpenNowCount)
	assert.Equal(t, 0, *summaries[0].OpenNowCount)
}

func TestAvailabilityServiceBuildingsSearch(t *testing.T) {
	svc := loadedService(t)

	summaries, pagination, err := svc.Buildings(context.Background(), dto.BuildingListQuery{Search: "hall"})

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "AND", summaries[0].Code)
	assert.Equal(t, "MAT", summaries[1].Code)
	assert.Equal(t, 2, summaries[1].RoomCount)
	assert.Equal(t, 100, pagination.PageSize)

	summaries, _, err = svc.Buildings(context.Background(), dto.BuildingListQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestAvailabilityServiceBuildingsValidation(t *testing.T) {
	svc := loadedService(t)

	_, _, err := svc.Buildings(context.Background(), dto.BuildingListQuery{PageSize: 1000})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceWarmFromCache(t *testing.T) {
	repo := newStubCacheRepo()
	cache := NewCacheService(repo, nil, time.Hour, nil, true)

	writer := newTestAvailabilityService(t, fixtureStore(), cache)
	require.NoError(t, writer.Refresh(context.Background()))
	require.Contains(t, repo.store, datasetCacheKey)

	reader := newTestAvailabilityService(t, nil, cache)
	require.True(t, reader.WarmFromCache(context.Background()))

	assert.Equal(t, "cache", reader.Status().Source)
	assert.True(t, reader.Ready())
	assert.Equal(t, writer.current(), reader.current())

	assert.False(t, writer.WarmFromCache(context.Background()), "a loaded snapshot is never replaced by the cache")
}

func TestAvailabilityServiceWarmFromCacheMiss(t *testing.T) {
	cache := NewCacheService(newStubCacheRepo(), nil, time.Hour, nil, true)
	svc := newTestAvailabilityService(t, nil, cache)

	assert.False(t, svc.WarmFromCache(context.Background()))
	assert.False(t, svc.Loaded())
}

func TestAvailabilityServiceEmptyRefreshSkipsCache(t *testing.T) {
	repo := newStubCacheRepo()
	cache := NewCacheService(repo, nil, time.Hour, nil, true)
	svc := newTestAvailabilityService(t, &fakeSnapshotStore{}, cache)

	require.NoError(t, svc.Refresh(context.Background()))

	assert.NotContains(t, repo.store, datasetCacheKey)
}

func TestAvailabilityServiceWarmFromCacheCoercesMistypedDataset(t *testing.T) {
	repo := newStubCacheRepo()
	repo.store[datasetCacheKey] = []byte(`{
		"fetchedAt": 1725184800,
		"term": "Fall 2024",
		"classSizes": [10],
		"buildings": [
			{"id": 12, "code": "mat", "name": "Matherly Hall", "lat": "29.6499", "lng": "east", "rooms": [
				{"roomNumber": 5, "metadata": {"capacity": "40", "featureFlags": {"documentCamera": "yes"}},
				 "availability": {"10": {"periods": [{"day": "M", "period": 2}], "isAvailableNow": "yes", "nextAvailable": "soon"}}},
				{"roomNumber": "101", "metadata": "none", "availability": {"10": [{"day": "T", "period": "3"}]}},
				{"roomNumber": 7, "availability": "none"},
				"garbage"
			]},
			42
		]
	}`)
	cache := NewCacheService(repo, nil, time.Hour, nil, true)
	svc := newTestAvailabilityService(t, nil, cache)

	require.True(t, svc.WarmFromCache(context.Background()))

	dataset, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), dataset.FetchedAt)
	assert.Equal(t, []string{"10"}, dataset.ClassSizes)
	require.Len(t, dataset.Buildings, 1)
	mat := dataset.FindBuilding("MAT")
	require.NotNil(t, mat)
	assert.Equal(t, "12", mat.ID)
	assert.NotNil(t, mat.Lat)
	assert.Nil(t, mat.Lng)
	require.Len(t, mat.Rooms, 2)

	room := mat.FindRoom("0005")
	require.NotNil(t, room)
	require.NotNil(t, room.Metadata)
	require.NotNil(t, room.Metadata.Capacity)
	assert.Equal(t, 40, *room.Metadata.Capacity)
	assert.True(t, room.Metadata.FeatureFlags["documentCamera"])
	periods := room.Availability["10"].Periods
	require.Len(t, periods, 1)
	assert.Equal(t, "2", periods[0].Period)
	assert.Equal(t, 510, periods[0].StartMinutes)
	assert.False(t, room.Availability["10"].Annotated(), "cached status is recomputed per request")

	other := mat.FindRoom("0101")
	require.NotNil(t, other)
	assert.Nil(t, other.Metadata)
}

func TestAvailabilityServiceWarmFromCacheRejectsWrongShape(t *testing.T) {
	repo := newStubCacheRepo()
	repo.store[datasetCacheKey] = []byte(`{"buildings": "nope"}`)
	cache := NewCacheService(repo, nil, time.Hour, nil, true)
	svc := newTestAvailabilityService(t, nil, cache)

	assert.False(t, svc.WarmFromCache(context.Background()))
	assert.False(t, svc.Loaded())
}

func TestAvailabilityServiceEmptyRefreshEvictsCachedDataset(t *testing.T) {
	repo := newStubCacheRepo()
	repo.store[datasetCacheKey] = []byte(`{"buildings": []}`)
	cache := NewCacheService(repo, nil, time.Hour, nil, true)
	svc := newTestAvailabilityService(t, &fakeSnapshotStore{}, cache)

	require.NoError(t, svc.Refresh(context.Background()))

	assert.NotContains(t, repo.store, datasetCacheKey)
}

func TestAvailabilityServiceFailedRefreshEviction(t *testing.T) {
	t.Run("nothing loaded", func(t *testing.T) {
		repo := newStubCacheRepo()
		repo.store[datasetCacheKey] = []byte(`{"buildings": []}`)
		cache := NewCacheService(repo, nil, time.Hour, nil, true)
		svc := newTestAvailabilityService(t, &fakeSnapshotStore{err: errors.New("boom")}, cache)

		require.Error(t, svc.Refresh(context.Background()))

		assert.NotContains(t, repo.store, datasetCacheKey)
	})

	t.Run("previous dataset kept", func(t *testing.T) {
		repo := newStubCacheRepo()
		cache := NewCacheService(repo, nil, time.Hour, nil, true)
		store := fixtureStore()
		svc := newTestAvailabilityService(t, store, cache)
		require.NoError(t, svc.Refresh(context.Background()))

		store.err = errors.New("boom")
		require.Error(t, svc.Refresh(context.Background()))

		assert.Contains(t, repo.store, datasetCacheKey)
	})
}

func TestAvailabilityServiceSizeBuckets(t *testing.T) {
	svc := loadedService(t)
	assert.Equal(t, []string{"10", "25"}, svc.SizeBuckets())

	empty := newTestAvailabilityService(t, nil, nil)
	assert.Nil(t, empty.SizeBuckets())
}
