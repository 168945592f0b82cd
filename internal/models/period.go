package models

// PeriodDefinition maps a class period code to its clock range in minutes since midnight.
type PeriodDefinition struct {
	Code  string `json:"code"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// PeriodDisplay is the 12-hour rendering of a period definition.
type PeriodDisplay struct {
	Code  string `json:"code"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeContext is the current weekday code and minute of day in the campus time zone.
type TimeContext struct {
	Day    string `json:"day"`
	Minute int    `json:"minute"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
