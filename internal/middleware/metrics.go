package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uf-rooms-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes request counts and latency per route template. Scrapes of /metrics
// are not recorded, and unknown paths share one label to keep cardinality bounded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "/metrics" {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
