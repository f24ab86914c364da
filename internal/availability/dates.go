package availability

import (
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar-day format used on the wire.
	DateLayout = "2006-01-02"
	// DisplayDateLayout is the format used in result messages.
	DisplayDateLayout = "02-Jan-2006"
)

const daysPerYear = 365

// ParseDate parses an ISO calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// day truncates t to its calendar day in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// daysInclusive counts the calendar days in [start, end]; zero when end precedes start.
func daysInclusive(start, end time.Time) int {
	start, end = day(start), day(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// endOfStay returns the last day of a stay of units days starting at start.
func endOfStay(start time.Time, units int) time.Time {
	return addDays(start, units-1)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func displayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// clockTime reduces an upstream timestamp to 24-hour HH:MM in its own offset.
// Values that cannot be parsed are returned trimmed and unchanged.
func clockTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "15:04:05", "15:04", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04")
		}
	}
	return raw
}
