package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
)

const datasetCacheKey = "availability:dataset"

const (
	sourceSnapshot = "snapshot"
	sourceCache    = "cache"
	sourceEmpty    = "empty"
)

type snapshotStore interface {
	Latest(ctx context.Context, key string) (*models.Snapshot, error)
}

// AvailabilityServiceConfig tunes snapshot keys and cache behaviour.
type AvailabilityServiceConfig struct {
	ScheduleKey string
	MetadataKey string
	CacheTTL    time.Duration
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Store     snapshotStore
	Cache     *CacheService
	Metrics   *MetricsService
	Engine    *StatusEngine
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AvailabilityServiceConfig
}

// AvailabilityService holds the current availability dataset and answers queries against it.
// The dataset is replaced wholesale on refresh; readers always work on clones.
type AvailabilityService struct {
	store     snapshotStore
	cache     *CacheService
	metrics   *MetricsService
	engine    *StatusEngine
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AvailabilityServiceConfig
	now       func() time.Time

	mu      sync.RWMutex
	dataset *models.AvailabilityDataset
	status  models.RefreshStatus
}

// NewAvailabilityService constructs an AvailabilityService with sane defaults.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	cfg := params.Config
	if cfg.ScheduleKey == "" {
		cfg.ScheduleKey = "schedule"
	}
	if cfg.MetadataKey == "" {
		cfg.MetadataKey = "room-metadata"
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	engine := params.Engine
	if engine == nil {
		engine = defaultStatusEngine
	}
	return &AvailabilityService{
		store:     params.Store,
		cache:     params.Cache,
		metrics:   params.Metrics,
		engine:    engine,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		status:    models.RefreshStatus{Source: sourceEmpty},
	}
}

// Refresh rebuilds the dataset from the latest snapshots. On failure the previous dataset
// keeps being served; with no previous dataset an empty one is installed.
func (s *AvailabilityService) Refresh(ctx context.Context) error {
	started := s.now()

	schedule, err := s.loadSchedule(ctx)
	if err != nil {
		s.metrics.RecordRefresh(err, nil, started)
		s.mu.Lock()
		installedEmpty := s.dataset == nil
		if installedEmpty {
			s.dataset = emptyDataset(started)
		}
		s.status.LastError = err.Error()
		s.mu.Unlock()
		if installedEmpty {
			s.evictCachedDataset(ctx)
		}
		s.logger.Error("availability refresh failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh availability")
	}

	metadata := s.loadMetadata(ctx)
	dataset := BuildAvailabilityDataset(schedule, metadata, started)
	source := sourceSnapshot
	if schedule == nil {
		source = sourceEmpty
	}
	s.install(dataset, source, started)
	s.metrics.RecordRefresh(nil, dataset, started)

	if schedule != nil {
		_ = s.cache.Set(ctx, datasetCacheKey, dataset, s.cfg.CacheTTL)
	} else {
		s.evictCachedDataset(ctx)
	}

	s.logger.Info("availability dataset refreshed",
		zap.String("term", dataset.Term),
		zap.Int("buildings", len(dataset.Buildings)),
		zap.Int("rooms", dataset.RoomCount()),
		zap.Bool("metadata", metadata != nil),
		zap.Duration("took", s.now().Sub(started)),
	)
	return nil
}

// WarmFromCache installs a cached dataset when nothing has been loaded yet.
func (s *AvailabilityService) WarmFromCache(ctx context.Context) bool {
	if !s.cache.Enabled() {
		return false
	}
	var cached models.AvailabilityDataset
	hit, err := s.cache.Get(ctx, datasetCacheKey, &cached)
	if err != nil || !hit {
		return false
	}
	dataset := NormalizeAvailabilityDataset(&cached)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset != nil && s.status.Source != sourceEmpty {
		return false
	}
	s.setLocked(dataset, sourceCache, s.now())
	s.logger.Info("availability dataset restored from cache", zap.Int("buildings", len(dataset.Buildings)))
	return true
}

// evictCachedDataset drops the cached dataset so a restart never resurrects data the
// store no longer has.
func (s *AvailabilityService) evictCachedDataset(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, datasetCacheKey); err == nil && s.cache.Enabled() {
		s.logger.Info("cached availability dataset evicted")
	}
}

func (s *AvailabilityService) loadSchedule(ctx context.Context) (*models.ScheduleSnapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	snapshot, err := s.latest(ctx, s.cfg.ScheduleKey)
	if err != nil {
		if errors.Is(err, appErrors.ErrSnapshotNotFound) {
			s.logger.Warn("schedule snapshot not found", zap.String("key", s.cfg.ScheduleKey))
			return nil, nil
		}
		return nil, err
	}
	var schedule models.ScheduleSnapshot
	if err := json.Unmarshal(snapshot.Payload, &schedule); err != nil {
		return nil, fmt.Errorf("decode schedule snapshot: %w", err)
	}
	if schedule.FetchedAt.String() == "" && !snapshot.FetchedAt.IsZero() {
		schedule.FetchedAt = models.FlexString(snapshot.FetchedAt.UTC().Format(time.RFC3339Nano))
	}
	return &schedule, nil
}

// loadMetadata never fails the refresh; rooms are simply served without metadata.
func (s *AvailabilityService) loadMetadata(ctx context.Context) *models.MetadataSnapshot {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.latest(ctx, s.cfg.MetadataKey)
	if err != nil {
		if !errors.Is(err, appErrors.ErrSnapshotNotFound) {
			s.logger.Warn("room metadata unavailable", zap.Error(err))
		}
		return nil
	}
	var metadata models.MetadataSnapshot
	if err := json.Unmarshal(snapshot.Payload, &metadata); err != nil {
		s.logger.Warn("room metadata undecodable", zap.Error(err))
		return nil
	}
	return &metadata
}

func (s *AvailabilityService) latest(ctx context.Context, key string) (*models.Snapshot, error) {
	start := time.Now()
	snapshot, err := s.store.Latest(ctx, key)
	s.metrics.ObserveSnapshotLoad(key, time.Since(start))
	return snapshot, err
}

func (s *AvailabilityService) install(dataset *models.AvailabilityDataset, source string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(dataset, source, at)
}

func (s *AvailabilityService) setLocked(dataset *models.AvailabilityDataset, source string, at time.Time) {
	s.dataset = dataset
	fetchedAt := dataset.FetchedAt
	refreshedAt := at.UTC()
	s.status = models.RefreshStatus{
		Source:        source,
		FetchedAt:     &fetchedAt,
		LastRefreshAt: &refreshedAt,
		Buildings:     len(dataset.Buildings),
		Rooms:         dataset.RoomCount(),
		Term:          dataset.Term,
	}
}

func (s *AvailabilityService) current() *models.AvailabilityDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Ready reports whether a non-empty dataset is being served.
func (s *AvailabilityService) Ready() bool {
	dataset := s.current()
	return dataset != nil && len(dataset.Buildings) > 0
}

// Loaded reports whether any dataset, even an empty one, has been installed.
func (s *AvailabilityService) Loaded() bool {
	return s.current() != nil
}

// Location returns the campus time zone, or nil when it could not be resolved.
func (s *AvailabilityService) Location() *time.Location {
	return s.engine.Location()
}

// Status reports the source and size of the served dataset.
func (s *AvailabilityService) Status() models.RefreshStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// TimeContext returns the current campus weekday and minute, if known.
func (s *AvailabilityService) TimeContext() (*models.TimeContext, bool) {
	return s.engine.Context(s.now())
}

// Snapshot returns an unannotated copy of the served dataset.
func (s *AvailabilityService) Snapshot() (*models.AvailabilityDataset, error) {
	dataset := s.current()
	if dataset == nil {
		return nil, appErrors.ErrNotReady
	}
	return dataset.Clone(), nil
}

// Query filters the dataset and annotates the result with realtime status.
func (s *AvailabilityService) Query(_ context.Context, query dto.AvailabilityQuery) (*models.AvailabilityDataset, *models.TimeContext, error) {
	query.Building = NormalizeBuildingCode(query.Building)
	query.Size = normalizeSizeKey(query.Size)
	query.Day = strings.ToUpper(strings.TrimSpace(query.Day))
	query.Campus = strings.TrimSpace(query.Campus)
	query.Feature = strings.TrimSpace(query.Feature)
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability filter")
	}

	dataset := s.current()
	if dataset == nil {
		dataset = emptyDataset(s.now())
	}
	tc, _ := s.TimeContext()

	result := &models.AvailabilityDataset{
		FetchedAt:  dataset.FetchedAt,
		Term:       dataset.Term,
		ClassSizes: append([]string{}, dataset.ClassSizes...),
		Buildings:  []*models.BuildingAvailability{},
	}
	for _, building := range dataset.Buildings {
		if !matchesBuilding(building, query) {
			continue
		}
		filtered := filterBuilding(building, query, tc)
		if query.HasRoomFilters() && len(filtered.Rooms) == 0 {
			continue
		}
		result.Buildings = append(result.Buildings, filtered)
	}
	return result, tc, nil
}

// Building returns one annotated building by code.
func (s *AvailabilityService) Building(_ context.Context, code string) (*models.BuildingAvailability, *models.TimeContext, error) {
	building := s.current().FindBuilding(NormalizeBuildingCode(code))
	if building == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
	}
	clone := building.Clone(true)
	tc, _ := s.TimeContext()
	annotateBuilding(clone, tc)
	return clone, tc, nil
}

// Room returns one annotated room of a building.
func (s *AvailabilityService) Room(_ context.Context, code, roomNumber string) (*dto.RoomResponse, *models.TimeContext, error) {
	building := s.current().FindBuilding(NormalizeBuildingCode(code))
	if building == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
	}
	room := building.FindRoom(NormalizeRoomNumber(roomNumber))
	if room == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	clone := room.Clone()
	tc, _ := s.TimeContext()
	for _, entry := range clone.Availability {
		if tc != nil {
			annotateSize(entry, tc)
		}
	}
	return &dto.RoomResponse{Building: summarizeBuilding(building, nil), Room: clone}, tc, nil
}

// Buildings lists building summaries with open-now counts when time is known.
func (s *AvailabilityService) Buildings(_ context.Context, query dto.BuildingListQuery) ([]dto.BuildingSummary, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid building filter")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 100
	}

	dataset := s.current()
	tc, _ := s.TimeContext()
	search := strings.ToLower(strings.TrimSpace(query.Search))

	summaries := make([]dto.BuildingSummary, 0)
	if dataset != nil {
		for _, building := range dataset.Buildings {
			if query.Campus != "" && !strings.EqualFold(building.CampusID, query.Campus) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(building.Name), search) && !strings.Contains(strings.ToLower(building.Code), search) {
				continue
			}
			summaries = append(summaries, summarizeBuilding(building, tc))
		}
	}

	total := len(summaries)
	from := (page - 1) * size
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}
	return summaries[from:to], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func summarizeBuilding(building *models.BuildingAvailability, tc *models.TimeContext) dto.BuildingSummary {
	summary := dto.BuildingSummary{
		ID:        building.ID,
		Code:      building.Code,
		Name:      building.Name,
		CampusID:  building.CampusID,
		Lat:       building.Lat,
		Lng:       building.Lng,
		RoomCount: len(building.Rooms),
	}
	if tc != nil {
		open := 0
		for _, room := range building.Rooms {
			for _, entry := range room.Availability {
				if IsAvailableNow(entry.Periods, tc) {
					open++
					break
				}
			}
		}
		summary.OpenNowCount = &open
	}
	return summary
}

func matchesBuilding(building *models.BuildingAvailability, query dto.AvailabilityQuery) bool {
	if query.Building != "" && building.Code != query.Building && !strings.EqualFold(building.ID, query.Building) {
		return false
	}
	if query.Campus != "" && !strings.EqualFold(building.CampusID, query.Campus) {
		return false
	}
	return true
}

// filterBuilding copies the rooms matching the query, annotates them and then applies the
// day and open-now filters so status reflects the whole week.
func filterBuilding(building *models.BuildingAvailability, query dto.AvailabilityQuery, tc *models.TimeContext) *models.BuildingAvailability {
	result := building.Clone(false)
	day := ""
	if query.Day != "" {
		day = canonicalDay(query.Day)
	}
	for _, room := range building.Rooms {
		if !matchesRoom(room, query) {
			continue
		}
		clone := &models.RoomAvailability{
			RoomNumber:   room.RoomNumber,
			Metadata:     room.Metadata,
			Availability: make(map[string]*models.SizeAvailability),
		}
		for size, entry := range room.Availability {
			if query.Size != "" && size != query.Size {
				continue
			}
			copied := entry.Clone()
			if tc != nil {
				annotateSize(copied, tc)
			}
			if day != "" {
				copied.Periods = periodsOnDay(copied.Periods, day)
				if len(copied.Periods) == 0 {
					continue
				}
			}
			if query.OpenNow != nil && (copied.IsAvailableNow != nil && *copied.IsAvailableNow) != *query.OpenNow {
				continue
			}
			clone.Availability[size] = copied
		}
		if len(clone.Availability) == 0 {
			continue
		}
		result.Rooms = append(result.Rooms, clone)
	}
	return result
}

func annotateBuilding(building *models.BuildingAvailability, tc *models.TimeContext) {
	if tc == nil {
		return
	}
	for _, room := range building.Rooms {
		for _, entry := range room.Availability {
			annotateSize(entry, tc)
		}
	}
}

func matchesRoom(room *models.RoomAvailability, query dto.AvailabilityQuery) bool {
	if query.MinCapacity > 0 {
		if room.Metadata == nil || room.Metadata.Capacity == nil || *room.Metadata.Capacity < query.MinCapacity {
			return false
		}
	}
	if query.Feature != "" {
		if room.Metadata == nil || !hasFeature(room.Metadata, query.Feature) {
			return false
		}
	}
	return true
}

func hasFeature(meta *models.RoomMetadata, feature string) bool {
	for flag, enabled := range meta.FeatureFlags {
		if enabled && strings.EqualFold(flag, feature) {
			return true
		}
	}
	for _, f := range meta.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

func periodsOnDay(periods []models.PeriodEntry, day string) []models.PeriodEntry {
	result := make([]models.PeriodEntry, 0, len(periods))
	for _, p := range periods {
		if canonicalDay(p.Day) == day {
			result = append(result, p)
		}
	}
	return result
}

// SizeBuckets returns the served buckets, smallest first.
func (s *AvailabilityService) SizeBuckets() []string {
	dataset := s.current()
	if dataset == nil {
		return nil
	}
	sizes := append([]string(nil), dataset.ClassSizes...)
	sortSizeBuckets(sizes)
	return sizes
}

// SortedSizes returns the keys of a room's availability map, smallest bucket first.
func SortedSizes(room *models.RoomAvailability) []string {
	sizes := make([]string, 0, len(room.Availability))
	for size := range room.Availability {
		sizes = append(sizes, size)
	}
	sortSizeBuckets(sizes)
	return sizes
}
