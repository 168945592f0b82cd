package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	"github.com/noah-isme/uf-rooms-api/internal/middleware"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/response"
)

type availabilityService interface {
	Query(ctx context.Context, query dto.AvailabilityQuery) (*models.AvailabilityDataset, *models.TimeContext, error)
	Buildings(ctx context.Context, query dto.BuildingListQuery) ([]dto.BuildingSummary, *models.Pagination, error)
	Building(ctx context.Context, code string) (*models.BuildingAvailability, *models.TimeContext, error)
	Room(ctx context.Context, code, roomNumber string) (*dto.RoomResponse, *models.TimeContext, error)
	Status() models.RefreshStatus
}

// AvailabilityHandler serves the room availability read API.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Periods godoc
// @Summary Class period table
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *AvailabilityHandler) Periods(c *gin.Context) {
	response.JSON(c, http.StatusOK, service.PeriodDisplays(), nil)
}

// Availability godoc
// @Summary Filtered room availability
// @Tags Availability
// @Produce json
// @Param building query string false "Building code"
// @Param campus query string false "Campus ID"
// @Param size query string false "Class size bucket"
// @Param day query string false "Day code (M, T, W, TH, F, S, SU)"
// @Param openNow query bool false "Only rooms open (or closed) right now"
// @Param minCapacity query int false "Minimum seating capacity"
// @Param feature query string false "Required room feature"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Availability(c *gin.Context) {
	query, err := parseAvailabilityQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset, tc, err := h.service.Query(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dataset, nil, h.meta(c, tc))
}

// Buildings godoc
// @Summary List buildings
// @Tags Availability
// @Produce json
// @Param campus query string false "Campus ID"
// @Param search query string false "Name or code contains"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /buildings [get]
func (h *AvailabilityHandler) Buildings(c *gin.Context) {
	page, err := optionalInt(c, "page")
	if err != nil {
		response.Error(c, err)
		return
	}
	pageSize, err := optionalInt(c, "pageSize")
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.BuildingListQuery{
		Campus:   strings.TrimSpace(c.Query("campus")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: pageSize,
	}
	summaries, pagination, err := h.service.Buildings(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination, h.meta(c, nil))
}

// Building godoc
// @Summary Building availability
// @Tags Availability
// @Produce json
// @Param code path string true "Building code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /buildings/{code} [get]
func (h *AvailabilityHandler) Building(c *gin.Context) {
	building, tc, err := h.service.Building(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, building, nil, h.meta(c, tc))
}

// Room godoc
// @Summary Room availability
// @Tags Availability
// @Produce json
// @Param code path string true "Building code"
// @Param room path string true "Room number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /buildings/{code}/rooms/{room} [get]
func (h *AvailabilityHandler) Room(c *gin.Context) {
	room, tc, err := h.service.Room(c.Request.Context(), c.Param("code"), c.Param("room"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil, h.meta(c, tc))
}

func (h *AvailabilityHandler) meta(c *gin.Context, tc *models.TimeContext) map[string]interface{} {
	status := h.service.Status()
	middleware.SetCacheHit(c, status.Source == "cache")
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["source"] = status.Source
	if status.FetchedAt != nil {
		meta["fetched_at"] = status.FetchedAt
	}
	if tc != nil {
		meta["now"] = tc
	}
	return meta
}

func parseAvailabilityQuery(c *gin.Context) (dto.AvailabilityQuery, error) {
	query := dto.AvailabilityQuery{
		Building: c.Query("building"),
		Campus:   c.Query("campus"),
		Size:     c.Query("size"),
		Day:      c.Query("day"),
		Feature:  c.Query("feature"),
	}
	if raw := strings.TrimSpace(c.Query("openNow")); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "openNow must be true or false")
		}
		query.OpenNow = &open
	}
	capacity, err := optionalInt(c, "minCapacity")
	if err != nil {
		return query, err
	}
	query.MinCapacity = capacity
	return query, nil
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return value, nil
}
