package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// weekSequence is the campus weekly order. Positions are used as fixed offsets (0..6).
var weekSequence = [7]string{"M", "T", "W", "TH", "F", "S", "SU"}

// sortSlots places single-letter codes next to the day they usually abbreviate.
// Only ordering uses them; the code itself is kept and never matches TH or SU.
var sortSlots = map[string]string{
	"R": "TH",
	"U": "SU",
}

const unknownDayIndex = len(weekSequence)

// canonicalDay upper-cases and trims a day code.
func canonicalDay(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// dayIndex returns the position of a day code in weekSequence, or unknownDayIndex.
func dayIndex(code string) int {
	day := canonicalDay(code)
	for i, d := range weekSequence {
		if d == day {
			return i
		}
	}
	return unknownDayIndex
}

func daySortSlot(code string) int {
	day := canonicalDay(code)
	if slot, ok := sortSlots[day]; ok {
		return dayIndex(slot)
	}
	return dayIndex(day)
}

type dayPeriod struct {
	day    string
	period string
}

// NormalizeEntries converts raw schedule entries of one room into an ordered,
// de-duplicated list of period entries.
func NormalizeEntries(entries []models.RawScheduleEntry) []models.PeriodEntry {
	pairs := make([]dayPeriod, 0, len(entries))
	for _, entry := range entries {
		pairs = append(pairs, dayPeriod{day: entry.Day.String(), period: entry.Period.String()})
	}
	return normalizeDayPeriods(pairs)
}

// NormalizePeriodEntries re-derives and re-orders already built period entries.
func NormalizePeriodEntries(entries []models.PeriodEntry) []models.PeriodEntry {
	pairs := make([]dayPeriod, 0, len(entries))
	for _, entry := range entries {
		pairs = append(pairs, dayPeriod{day: entry.Day, period: entry.Period})
	}
	return normalizeDayPeriods(pairs)
}

func normalizeDayPeriods(pairs []dayPeriod) []models.PeriodEntry {
	byDay := make(map[string]map[string]struct{})
	for _, pair := range pairs {
		day := canonicalDay(pair.day)
		period := normalizePeriodCode(pair.period)
		if day == "" || period == "" {
			continue
		}
		periods, ok := byDay[day]
		if !ok {
			periods = make(map[string]struct{})
			byDay[day] = periods
		}
		periods[period] = struct{}{}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sortDays(days)

	result := make([]models.PeriodEntry, 0, len(pairs))
	for _, day := range days {
		codes := make([]string, 0, len(byDay[day]))
		for code := range byDay[day] {
			codes = append(codes, code)
		}
		sortPeriodCodes(codes)
		for _, code := range codes {
			result = append(result, newPeriodEntry(day, code))
		}
	}
	return result
}

func newPeriodEntry(day, code string) models.PeriodEntry {
	def, _ := LookupPeriod(code)
	return models.PeriodEntry{
		Day:          day,
		Period:       code,
		Start:        FormatMinutes(def.Start),
		End:          FormatMinutes(def.End),
		StartMinutes: def.Start,
		EndMinutes:   def.End,
	}
}

func sortDays(days []string) {
	sort.Slice(days, func(i, j int) bool {
		ai, bi := daySortSlot(days[i]), daySortSlot(days[j])
		if ai != bi {
			return ai < bi
		}
		return days[i] < days[j]
	})
}

// sortPeriodCodes orders known periods by start time, then unknown codes lexicographically.
func sortPeriodCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool {
		a, aKnown := LookupPeriod(codes[i])
		b, bKnown := LookupPeriod(codes[j])
		if aKnown != bKnown {
			return aKnown
		}
		if aKnown && a.Start != b.Start {
			return a.Start < b.Start
		}
		return codes[i] < codes[j]
	})
}
