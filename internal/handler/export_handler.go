package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	"github.com/noah-isme/uf-rooms-api/pkg/response"
)

type exportService interface {
	AvailabilityCSV(ctx context.Context, query dto.AvailabilityQuery) (*service.ExportFile, error)
	BuildingSchedulePDF(ctx context.Context, code string) (*service.ExportFile, error)
	RoomCalendar(ctx context.Context, code, roomNumber, size string) (*service.ExportFile, error)
}

// ExportHandler serves downloadable renditions of the availability data.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// AvailabilityCSV godoc
// @Summary Download availability as CSV
// @Tags Exports
// @Produce text/csv
// @Param building query string false "Building code"
// @Param size query string false "Class size bucket"
// @Param day query string false "Day code"
// @Success 200 {file} file
// @Failure 503 {object} response.Envelope
// @Router /exports/availability.csv [get]
func (h *ExportHandler) AvailabilityCSV(c *gin.Context) {
	query, err := parseAvailabilityQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.AvailabilityCSV(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// BuildingSchedulePDF godoc
// @Summary Download a building's weekly open periods as PDF
// @Tags Exports
// @Produce application/pdf
// @Param code path string true "Building code"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /buildings/{code}/schedule.pdf [get]
func (h *ExportHandler) BuildingSchedulePDF(c *gin.Context) {
	file, err := h.service.BuildingSchedulePDF(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// RoomCalendar godoc
// @Summary Subscribe to a room's open periods
// @Tags Exports
// @Produce text/calendar
// @Param code path string true "Building code"
// @Param room path string true "Room number"
// @Param size query string false "Class size bucket, defaults to the smallest"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /buildings/{code}/rooms/{room}/calendar.ics [get]
func (h *ExportHandler) RoomCalendar(c *gin.Context) {
	file, err := h.service.RoomCalendar(c.Request.Context(), c.Param("code"), c.Param("room"), c.Query("size"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
