package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/uf-rooms-api/internal/models"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/jobs"
	"github.com/noah-isme/uf-rooms-api/pkg/response"
)

type refreshQueue interface {
	TryEnqueue(job jobs.Job) error
}

type refreshStatusProvider interface {
	Status() models.RefreshStatus
}

// AdminHandler triggers snapshot refreshes and reports dataset status.
type AdminHandler struct {
	queue   refreshQueue
	status  refreshStatusProvider
	metrics *service.MetricsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(queue refreshQueue, status refreshStatusProvider, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{queue: queue, status: status, metrics: metrics}
}

// Refresh godoc
// @Summary Enqueue a snapshot refresh
// @Tags Admin
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	if h.queue == nil {
		response.Error(c, appErrors.ErrQueueFull)
		return
	}
	jobID := uuid.NewString()
	if err := h.queue.TryEnqueue(jobs.Job{ID: jobID, Type: service.RefreshJobType}); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, appErrors.ErrQueueFull.Message))
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID, "status": "queued"})
}

// Status godoc
// @Summary Dataset and process status
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/status [get]
func (h *AdminHandler) Status(c *gin.Context) {
	payload := gin.H{"metrics": h.metrics.Snapshot()}
	if h.status != nil {
		payload["dataset"] = h.status.Status()
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
