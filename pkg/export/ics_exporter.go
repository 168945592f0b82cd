package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const icsLocalLayout = "20060102T150405"

// CalendarEvent is one weekly recurring block in a calendar export.
type CalendarEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	// Weekday is the RFC 5545 BYDAY code (MO, TU, ...). Empty means a single occurrence.
	Weekday string
}

// CalendarExporter renders recurring events as an iCalendar document.
type CalendarExporter struct {
	ProductID string
	now       func() time.Time
}

// NewCalendarExporter constructs a calendar exporter.
func NewCalendarExporter(productID string) *CalendarExporter {
	if productID == "" {
		productID = "-//ufrooms//availability//EN"
	}
	return &CalendarExporter{ProductID: productID, now: time.Now}
}

// Render writes the events with local times anchored to loc through TZID parameters. The
// calendar carries a VTIMEZONE for loc so clients do not fall back to floating time.
func (e *CalendarExporter) Render(name string, loc *time.Location, events []CalendarEvent) ([]byte, error) {
	if loc == nil {
		return nil, fmt.Errorf("calendar requires a location")
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(loc.String())

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}
	stamp := e.now().UTC()
	year := stamp.In(loc).Year()
	for i, ev := range events {
		if y := ev.Start.In(loc).Year(); i == 0 || y < year {
			year = y
		}
	}
	cal.AddVTimezone(timezoneComponent(loc, year))
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("calendar event %q has no uid", ev.Summary)
		}
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("calendar event %q ends before it starts", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, ev.Start.In(loc).Format(icsLocalLayout), tzid)
		event.SetProperty(ics.ComponentPropertyDtEnd, ev.End.In(loc).Format(icsLocalLayout), tzid)
		event.SetSummary(ev.Summary)
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.Weekday != "" {
			event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+strings.ToUpper(ev.Weekday))
		}
	}
	return []byte(cal.Serialize()), nil
}
