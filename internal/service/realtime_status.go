package service

import (
	"fmt"
	"time"

	// Embedded zone database so the campus zone resolves on minimal images.
	_ "time/tzdata"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// DefaultCampusTimezone is the civil time zone class periods are defined in.
const DefaultCampusTimezone = "America/New_York"

var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "M",
	time.Tuesday:   "T",
	time.Wednesday: "W",
	time.Thursday:  "TH",
	time.Friday:    "F",
	time.Saturday:  "S",
	time.Sunday:    "SU",
}

// StatusEngine annotates datasets with open-now and next-opening projections.
type StatusEngine struct {
	location *time.Location
}

// NewStatusEngine resolves the campus zone. When the zone cannot be loaded the engine is
// still returned but produces no time context, so datasets pass through unannotated.
func NewStatusEngine(timezone string) (*StatusEngine, error) {
	if timezone == "" {
		timezone = DefaultCampusTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return &StatusEngine{}, fmt.Errorf("load campus timezone %s: %w", timezone, err)
	}
	return &StatusEngine{location: loc}, nil
}

// Location returns the configured zone, or nil when unavailable.
func (e *StatusEngine) Location() *time.Location {
	if e == nil {
		return nil
	}
	return e.location
}

// Context maps a moment to the campus weekday code and minute of day.
func (e *StatusEngine) Context(now time.Time) (*models.TimeContext, bool) {
	if e == nil || e.location == nil || now.IsZero() {
		return nil, false
	}
	local := now.In(e.location)
	day, ok := weekdayCodes[local.Weekday()]
	if !ok {
		return nil, false
	}
	return &models.TimeContext{Day: day, Minute: local.Hour()*60 + local.Minute()}, true
}

// Apply annotates the dataset in place for the given moment and returns it.
func (e *StatusEngine) Apply(dataset *models.AvailabilityDataset, now time.Time) *models.AvailabilityDataset {
	tc, ok := e.Context(now)
	if !ok {
		return dataset
	}
	return ApplyStatusAt(dataset, tc)
}

var defaultStatusEngine, _ = NewStatusEngine(DefaultCampusTimezone)

// ApplyRealtimeStatus annotates the dataset using the default campus zone.
func ApplyRealtimeStatus(dataset *models.AvailabilityDataset, now time.Time) *models.AvailabilityDataset {
	return defaultStatusEngine.Apply(dataset, now)
}

// ApplyStatusAt sets isAvailableNow and nextAvailable on every size entry for the given
// time context. A nil context leaves the dataset untouched.
func ApplyStatusAt(dataset *models.AvailabilityDataset, tc *models.TimeContext) *models.AvailabilityDataset {
	if dataset == nil || tc == nil {
		return dataset
	}
	for _, building := range dataset.Buildings {
		if building == nil {
			continue
		}
		for _, room := range building.Rooms {
			if room == nil {
				continue
			}
			for _, entry := range room.Availability {
				annotateSize(entry, tc)
			}
		}
	}
	return dataset
}

func annotateSize(entry *models.SizeAvailability, tc *models.TimeContext) {
	if entry == nil {
		return
	}
	periods := append([]models.PeriodEntry(nil), entry.Periods...)
	entry.Periods = periods

	open := IsAvailableNow(periods, tc)
	entry.IsAvailableNow = &open
	entry.NextAvailable = nil
	if next, ok := NextAvailable(periods, tc); ok {
		entry.NextAvailable = &next
	}
}

// IsAvailableNow reports whether any period covers the context's day and minute.
func IsAvailableNow(periods []models.PeriodEntry, tc *models.TimeContext) bool {
	if tc == nil {
		return false
	}
	today := dayIndex(tc.Day)
	if today == unknownDayIndex {
		return false
	}
	for _, p := range periods {
		if dayIndex(p.Day) != today {
			continue
		}
		if p.StartMinutes <= tc.Minute && tc.Minute < p.EndMinutes {
			return true
		}
	}
	return false
}

// NextAvailable finds the next period starting after the context: later today first,
// then the first period of the next day in the weekly cycle that has any.
func NextAvailable(periods []models.PeriodEntry, tc *models.TimeContext) (models.PeriodEntry, bool) {
	if len(periods) == 0 || tc == nil {
		return models.PeriodEntry{}, false
	}
	today := dayIndex(tc.Day)
	if today == unknownDayIndex {
		return periods[0], true
	}

	if next, ok := earliestOnDay(periods, today, tc.Minute); ok {
		return next, true
	}
	// Offsets 1..6 cover the rest of the week; offset 7 is today one week later.
	for offset := 1; offset <= len(weekSequence); offset++ {
		if next, ok := earliestOnDay(periods, dayAtOffset(today, offset), -1); ok {
			return next, true
		}
	}
	return periods[0], true
}

// dayAtOffset returns the weekSequence index offset days after start.
func dayAtOffset(start, offset int) int {
	return (start + offset) % len(weekSequence)
}

func earliestOnDay(periods []models.PeriodEntry, day, after int) (models.PeriodEntry, bool) {
	var best models.PeriodEntry
	found := false
	for _, p := range periods {
		if dayIndex(p.Day) != day || p.StartMinutes <= after {
			continue
		}
		if !found || p.StartMinutes < best.StartMinutes {
			best = p
			found = true
		}
	}
	return best, found
}
