package reconciliation

import (
	"time"

	"stayledger/internal/core/apperror"
)

const monthLayout = "2006-01"

// ParseMonth parses a "YYYY-MM" month string into the first day of that
// month, UTC.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("month must be formatted YYYY-MM").
			WithDetail("value", s)
	}
	return t.UTC(), nil
}

// FirstOfMonth truncates t to the first day of its calendar month, UTC.
func FirstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last day of the month containing t,
// both at midnight UTC. The window is endpoint-inclusive at the date level.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = FirstOfMonth(t)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// DaysInMonth returns the length (28-31) of the calendar month containing t.
func DaysInMonth(t time.Time) int {
	start := FirstOfMonth(t)
	return start.AddDate(0, 1, -1).Day()
}

// truncateToDay drops the time-of-day component, keeping the UTC date.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetweenInclusive counts calendar days from a through b, both
// endpoints included. Returns 0 or negative when b precedes a.
func daysBetweenInclusive(a, b time.Time) int {
	a = truncateToDay(a)
	b = truncateToDay(b)
	return int(b.Sub(a).Hours()/24) + 1
}
