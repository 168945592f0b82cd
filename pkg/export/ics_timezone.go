package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

var icsWeekdays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

type zoneTransition struct {
	at   time.Time
	from int
	to   int
	name string
}

// timezoneComponent describes loc as a VTIMEZONE. Offset changes found in year become
// yearly STANDARD/DAYLIGHT observances; a zone without changes gets one STANDARD block.
func timezoneComponent(loc *time.Location, year int) *ics.VTimezone {
	tz := ics.NewTimezone(loc.String())
	transitions := zoneTransitions(loc, year)
	if len(transitions) == 0 {
		name, offset := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Zone()
		base := observance("19700101T000000", offset, offset, name, "")
		tz.Components = append(tz.Components, &ics.Standard{ComponentBase: base})
		return tz
	}
	for _, tr := range transitions {
		local := tr.at.UTC().Add(time.Duration(tr.from) * time.Second)
		base := observance(local.Format(icsLocalLayout), tr.from, tr.to, tr.name, yearlyRule(local))
		if tr.to > tr.from {
			tz.Components = append(tz.Components, &ics.Daylight{ComponentBase: base})
		} else {
			tz.Components = append(tz.Components, &ics.Standard{ComponentBase: base})
		}
	}
	return tz
}

func observance(start string, from, to int, name, rule string) ics.ComponentBase {
	var base ics.ComponentBase
	base.AddProperty(ics.ComponentPropertyDtStart, start)
	base.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatOffset(from))
	base.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatOffset(to))
	if name != "" {
		base.AddProperty(ics.ComponentProperty(ics.PropertyTzname), name)
	}
	if rule != "" {
		base.AddProperty(ics.ComponentPropertyRrule, rule)
	}
	return base
}

// zoneTransitions scans year day by day and narrows each offset change to the minute.
func zoneTransitions(loc *time.Location, year int) []zoneTransition {
	var out []zoneTransition
	day := time.Date(year, time.January, 1, 12, 0, 0, 0, loc)
	_, prev := day.Zone()
	for {
		next := day.AddDate(0, 0, 1)
		if next.Year() != year {
			return out
		}
		if _, offset := next.Zone(); offset != prev {
			at := narrowTransition(day, next)
			name, _ := at.Zone()
			out = append(out, zoneTransition{at: at, from: prev, to: offset, name: name})
			prev = offset
		}
		day = next
	}
}

func narrowTransition(lo, hi time.Time) time.Time {
	_, before := lo.Zone()
	for hi.Sub(lo) > time.Minute {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, offset := mid.Zone(); offset == before {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi.Truncate(time.Minute)
}

// yearlyRule turns the 2nd Sunday of March into BYDAY=2SU and a last-week change into -1.
func yearlyRule(local time.Time) string {
	ordinal := (local.Day()-1)/7 + 1
	daysInMonth := time.Date(local.Year(), local.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if local.Day()+7 > daysInMonth {
		ordinal = -1
	}
	return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%d%s", int(local.Month()), ordinal, icsWeekdays[local.Weekday()])
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}
