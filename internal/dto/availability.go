package dto

import "github.com/noah-isme/uf-rooms-api/internal/models"

// AvailabilityQuery filters the availability dataset.
type AvailabilityQuery struct {
	Building    string `json:"building" validate:"omitempty,max=32"`
	Campus      string `json:"campus" validate:"omitempty,max=32"`
	Size        string `json:"size" validate:"omitempty,max=16"`
	Day         string `json:"day" validate:"omitempty,oneof=M T W TH R F S SU U"`
	OpenNow     *bool  `json:"openNow"`
	MinCapacity int    `json:"minCapacity" validate:"gte=0"`
	Feature     string `json:"feature" validate:"omitempty,max=64"`
}

// HasRoomFilters reports whether any filter narrows rooms rather than buildings.
func (q AvailabilityQuery) HasRoomFilters() bool {
	return q.Size != "" || q.Day != "" || q.OpenNow != nil || q.MinCapacity > 0 || q.Feature != ""
}

// BuildingListQuery pages through building summaries.
type BuildingListQuery struct {
	Campus   string `json:"campus" validate:"omitempty,max=32"`
	Search   string `json:"search" validate:"omitempty,max=64"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"pageSize" validate:"gte=0,lte=500"`
}

// BuildingSummary is the list view of a building.
type BuildingSummary struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	CampusID     string   `json:"campusId,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	RoomCount    int      `json:"roomCount"`
	OpenNowCount *int     `json:"openNowCount,omitempty"`
}

// RoomResponse pairs a room with the building it belongs to.
type RoomResponse struct {
	Building BuildingSummary          `json:"building"`
	Room     *models.RoomAvailability `json:"room"`
}
