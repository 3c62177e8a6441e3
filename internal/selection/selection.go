package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/username/holiday-console/internal/calendar"
	"github.com/username/holiday-console/internal/holiday"
)

// Selection is an ordered, de-duplicated set of dates targeted by one bulk action
type Selection struct {
	Dates []string
	Label string
}

// Empty reports whether the selection targets no dates
func (s Selection) Empty() bool {
	return len(s.Dates) == 0
}

// Registry is the read side of the holiday registry the engine filters against
type Registry interface {
	Lookup(date string) (holiday.Record, bool)
	Dates() []string
}

// Engine turns bulk intents into concrete date lists
type Engine struct {
	registry Registry
}

// NewEngine creates an engine reading from registry
func NewEngine(registry Registry) *Engine {
	return &Engine{registry: registry}
}

// SelectByWeekday selects every date of year falling on weekday (0=Sunday),
// regardless of whether it is already a holiday
func (e *Engine) SelectByWeekday(year, weekday int, label string) Selection {
	if label == "" {
		label = WeekdayLabel(year, weekday)
	}
	return Selection{
		Dates: calendar.DatesOfYearMatchingWeekday(year, weekday),
		Label: label,
	}
}

// SelectExistingWeekendHolidays returns the Saturdays and Sundays of year
// that currently have a holiday record, ascending
func (e *Engine) SelectExistingWeekendHolidays(year int) []string {
	candidates := append(
		calendar.DatesOfYearMatchingWeekday(year, int(time.Saturday)),
		calendar.DatesOfYearMatchingWeekday(year, int(time.Sunday))...,
	)
	sort.Strings(candidates)

	existing := make([]string, 0)
	for _, date := range candidates {
		if _, ok := e.registry.Lookup(date); ok {
			existing = append(existing, date)
		}
	}
	return existing
}

// SelectAllExistingHolidays returns every date held by the registry, ascending
func (e *Engine) SelectAllExistingHolidays() []string {
	return e.registry.Dates()
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts a weekday name, its three-letter abbreviation
// or its index (0=Sunday..6=Saturday)
func ParseWeekday(s string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(s))

	if wd, ok := weekdayNames[key]; ok {
		return int(wd), nil
	}

	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("invalid weekday %q: use a name like sat or an index 0-6", s)
	}
	return n, nil
}

// WeekdayLabel builds the display label of a weekday selection,
// e.g. "All Saturdays (2025)"
func WeekdayLabel(year, weekday int) string {
	if weekday < 0 || weekday > 6 {
		return fmt.Sprintf("Weekday %d (%d)", weekday, year)
	}
	return fmt.Sprintf("All %ss (%d)", time.Weekday(weekday), year)
}
