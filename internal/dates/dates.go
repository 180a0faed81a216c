// Package dates parses spreadsheet sale dates and checks them against
// campaign windows. All parsed dates are normalized to midnight UTC, so every
// comparison in the engine happens at day granularity.
package dates

import (
	"strconv"
	"strings"
	"time"
)

// Format selects the component order of a sale date cell. The separator is
// auto-detected from the cell itself, so the three day-first formats parse the
// same way regardless of which separator variant was configured.
type Format string

const (
	FormatDMY     Format = "DMY"
	FormatMDY     Format = "MDY"
	FormatISO     Format = "ISO"
	FormatDMYDot  Format = "DMY_DOT"
	FormatDMYDash Format = "DMY_DASH"
)

// DefaultFormat is the Brazilian day-first interpretation, applied when a
// batch request does not name a format.
const DefaultFormat = FormatDMY

// Formats lists every accepted format value, for request validation.
func Formats() []string {
	return []string{
		string(FormatDMY),
		string(FormatMDY),
		string(FormatISO),
		string(FormatDMYDot),
		string(FormatDMYDash),
	}
}

var separators = []string{"/", ".", "-"}

// Parse parses raw under the given format. It returns the zero time and false
// on any failure: unknown separator, non-numeric parts, out-of-range
// components, or an impossible calendar date such as day 31 of a 30-day month.
func Parse(raw string, format Format) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	var sep string
	for _, s := range separators {
		if strings.Contains(raw, s) {
			sep = s
			break
		}
	}
	if sep == "" {
		return time.Time{}, false
	}

	parts := strings.Split(raw, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var day, month, year int
	switch format {
	case FormatISO:
		year, month, day = nums[0], nums[1], nums[2]
	case FormatMDY:
		month, day, year = nums[0], nums[1], nums[2]
	default: // FormatDMY and its separator variants
		day, month, year = nums[0], nums[1], nums[2]
	}

	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 || year > 2100 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. April 31 becomes May 1), so a
	// mismatch here means the components were not a real calendar date.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// InWindow reports whether sale falls inside [start, end] at day granularity.
// The campaign end is treated as end-of-day, so a sale dated exactly on the
// end date passes.
func InWindow(sale, start, end time.Time) bool {
	return !BeforeStart(sale, start) && !AfterEnd(sale, end)
}

// BeforeStart reports whether sale precedes the campaign start day.
func BeforeStart(sale, start time.Time) bool {
	return dayOf(sale).Before(dayOf(start))
}

// AfterEnd reports whether sale follows the campaign end day.
func AfterEnd(sale, end time.Time) bool {
	return dayOf(sale).After(dayOf(end))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
