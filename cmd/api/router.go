package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uf-rooms-api/internal/handler"
	"github.com/noah-isme/uf-rooms-api/internal/middleware"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	"github.com/noah-isme/uf-rooms-api/pkg/config"
	"github.com/noah-isme/uf-rooms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uf-rooms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uf-rooms-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	availability *handler.AvailabilityHandler
	exports      *handler.ExportHandler
	admin        *handler.AdminHandler
	probes       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.probes.Health)
	r.GET("/ready", h.probes.Ready)
	r.GET("/metrics", h.probes.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.GET("/periods", h.availability.Periods)
	api.GET("/availability", h.availability.Availability)
	api.GET("/buildings", h.availability.Buildings)
	api.GET("/buildings/:code", h.availability.Building)
	api.GET("/buildings/:code/rooms/:room", h.availability.Room)
	api.GET("/buildings/:code/rooms/:room/calendar.ics", h.exports.RoomCalendar)
	api.GET("/buildings/:code/schedule.pdf", h.exports.BuildingSchedulePDF)
	api.GET("/exports/availability.csv", h.exports.AvailabilityCSV)

	admin := api.Group("/admin")
	admin.POST("/refresh", h.admin.Refresh)
	admin.GET("/status", h.admin.Status)

	return r
}
