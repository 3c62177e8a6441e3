package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire and registry key format for calendar dates
const DateLayout = "2006-01-02"

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// CivilDate builds a date from year, 1-based month and day.
// Out-of-range values roll over the same way time.Date does.
func CivilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats the civil components of date as YYYY-MM-DD.
// The components are read as-is, no conversion to another zone happens.
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", date.Year(), int(date.Month()), date.Day())
}

// ParseDate parses a YYYY-MM-DD string into a civil date
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", dateStr)
	}
	return t, nil
}

// IsValidDate reports whether dateStr is a real calendar date in YYYY-MM-DD form
func IsValidDate(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}

// YearOf returns the year of a YYYY-MM-DD string, or 0 if it does not parse
func YearOf(dateStr string) int {
	t, err := ParseDate(dateStr)
	if err != nil {
		return 0
	}
	return t.Year()
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
