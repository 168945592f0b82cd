package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uf-rooms-api/internal/service"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/response"
)

type readinessChecker interface {
	Ready() bool
}

// MetricsHandler exposes probes and the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics   *service.MetricsService
	readiness readinessChecker
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, readiness readinessChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, readiness: readiness}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready succeeds once a dataset with at least one building is served.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.readiness == nil || !h.readiness.Ready() {
		response.Error(c, appErrors.ErrNotReady)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
