package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// placeholderPeriod is returned for codes outside the campus table (midnight to 1am).
var placeholderPeriod = models.PeriodDefinition{Start: 0, End: 60}

var periodCodes = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "E1", "E2", "E3"}

var periodTable = map[string]models.PeriodDefinition{
	"1":  {Code: "1", Start: clock(7, 25), End: clock(8, 15)},
	"2":  {Code: "2", Start: clock(8, 30), End: clock(9, 20)},
	"3":  {Code: "3", Start: clock(9, 35), End: clock(10, 25)},
	"4":  {Code: "4", Start: clock(10, 40), End: clock(11, 30)},
	"5":  {Code: "5", Start: clock(11, 45), End: clock(12, 35)},
	"6":  {Code: "6", Start: clock(12, 50), End: clock(13, 40)},
	"7":  {Code: "7", Start: clock(13, 55), End: clock(14, 45)},
	"8":  {Code: "8", Start: clock(15, 0), End: clock(15, 50)},
	"9":  {Code: "9", Start: clock(16, 5), End: clock(16, 55)},
	"10": {Code: "10", Start: clock(17, 10), End: clock(18, 0)},
	"11": {Code: "11", Start: clock(18, 15), End: clock(19, 5)},
	"E1": {Code: "E1", Start: clock(19, 20), End: clock(20, 10)},
	"E2": {Code: "E2", Start: clock(20, 20), End: clock(21, 10)},
	"E3": {Code: "E3", Start: clock(21, 20), End: clock(22, 10)},
}

func clock(hour, minute int) int {
	return hour*60 + minute
}

func normalizePeriodCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupPeriod returns the clock range for a period code. Unknown codes yield the
// midnight placeholder range and false.
func LookupPeriod(code string) (models.PeriodDefinition, bool) {
	normalized := normalizePeriodCode(code)
	if def, ok := periodTable[normalized]; ok {
		return def, true
	}
	placeholder := placeholderPeriod
	placeholder.Code = normalized
	return placeholder, false
}

// PeriodCodes lists every known period code in chronological order.
func PeriodCodes() []string {
	return append([]string(nil), periodCodes...)
}

// FormatMinutes renders a minute-of-day value as a 12-hour clock string.
func FormatMinutes(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	hour := minutes / 60
	minute := minutes % 60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, suffix)
}

// PeriodDisplayTable maps each known period code to its 12-hour start time.
func PeriodDisplayTable() map[string]string {
	table := make(map[string]string, len(periodTable))
	for code, def := range periodTable {
		table[code] = FormatMinutes(def.Start)
	}
	return table
}

// PeriodDisplays returns the full display ranges in chronological order.
func PeriodDisplays() []models.PeriodDisplay {
	displays := make([]models.PeriodDisplay, 0, len(periodCodes))
	for _, code := range periodCodes {
		def := periodTable[code]
		displays = append(displays, models.PeriodDisplay{
			Code:  code,
			Start: FormatMinutes(def.Start),
			End:   FormatMinutes(def.End),
		})
	}
	return displays
}
