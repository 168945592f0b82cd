package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	internalmiddleware "github.com/noah-isme/uf-rooms-api/internal/middleware"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/jobs"
)

type fakeAvailabilityService struct {
	lastQuery     dto.AvailabilityQuery
	lastBuildings dto.BuildingListQuery
	dataset       *models.AvailabilityDataset
	building      *models.BuildingAvailability
	room          *dto.RoomResponse
	summaries     []dto.BuildingSummary
	pagination    *models.Pagination
	status        models.RefreshStatus
	tc            *models.TimeContext
	err           error
}

func (f *fakeAvailabilityService) Query(_ context.Context, query dto.AvailabilityQuery) (*models.AvailabilityDataset, *models.TimeContext, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.dataset, f.tc, nil
}

func (f *fakeAvailabilityService) Buildings(_ context.Context, query dto.BuildingListQuery) ([]dto.BuildingSummary, *models.Pagination, error) {
	f.lastBuildings = query
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.summaries, f.pagination, nil
}

func (f *fakeAvailabilityService) Building(_ context.Context, code string) (*models.BuildingAvailability, *models.TimeContext, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.building == nil || f.building.Code != code {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "building not found")
	}
	return f.building, f.tc, nil
}

func (f *fakeAvailabilityService) Room(_ context.Context, code, roomNumber string) (*dto.RoomResponse, *models.TimeContext, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.room == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return f.room, f.tc, nil
}

func (f *fakeAvailabilityService) Status() models.RefreshStatus {
	return f.status
}

type fakeExportService struct {
	file      *service.ExportFile
	err       error
	lastCode  string
	lastRoom  string
	lastSize  string
	lastQuery dto.AvailabilityQuery
}

func (f *fakeExportService) AvailabilityCSV(_ context.Context, query dto.AvailabilityQuery) (*service.ExportFile, error) {
	f.lastQuery = query
	return f.file, f.err
}

func (f *fakeExportService) BuildingSchedulePDF(_ context.Context, code string) (*service.ExportFile, error) {
	f.lastCode = code
	return f.file, f.err
}

func (f *fakeExportService) RoomCalendar(_ context.Context, code, roomNumber, size string) (*service.ExportFile, error) {
	f.lastCode, f.lastRoom, f.lastSize = code, roomNumber, size
	return f.file, f.err
}

type fakeRefreshQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeRefreshQueue) TryEnqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	return router
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func fetchedAt() *time.Time {
	ts := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	return &ts
}
