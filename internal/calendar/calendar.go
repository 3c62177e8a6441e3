package calendar

import (
	"time"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
)

// DaysInMonth returns the number of days in the month (monthIndex is 0-based).
// Day 0 of the following month rolls back to the last day of this one,
// which also takes care of leap years.
func DaysInMonth(year, monthIndex int) int {
	return dateutil.CivilDate(year, time.Month(monthIndex+2), 0).Day()
}

// FirstWeekdayOfMonth returns the weekday (0=Sunday..6=Saturday) of day 1
func FirstWeekdayOfMonth(year, monthIndex int) int {
	return int(dateutil.CivilDate(year, time.Month(monthIndex+1), 1).Weekday())
}

// DatesOfYearMatchingWeekday walks every day of the year in order and
// returns the YYYY-MM-DD strings of the days falling on weekday (0=Sunday).
// A valid weekday always yields 52 or 53 dates.
func DatesOfYearMatchingWeekday(year, weekday int) []string {
	dates := make([]string, 0, 53)

	for d := dateutil.CivilDate(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if int(d.Weekday()) == weekday {
			dates = append(dates, dateutil.FormatDate(d))
		}
	}

	return dates
}

// Lookup resolves a date to its holiday, if any
type Lookup func(date string) (holiday.Record, bool)

// DayInfo represents one day cell of a month grid
type DayInfo struct {
	Date    string
	Day     int
	Weekday time.Weekday
	Holiday *holiday.Record
}

// IsHoliday reports whether the day carries a holiday record
func (d DayInfo) IsHoliday() bool {
	return d.Holiday != nil
}

// MonthInfo represents a month laid out on a 7-column grid (Sunday first)
type MonthInfo struct {
	Year         int
	Month        time.Month
	LeadingBlank int // empty cells before day 1
	Holidays     int
	Weekends     int
	Days         []DayInfo
}

// Weeks splits the month into grid rows. Blank cells are nil.
func (m *MonthInfo) Weeks() [][]*DayInfo {
	cells := make([]*DayInfo, m.LeadingBlank, m.LeadingBlank+len(m.Days)+6)
	for i := range m.Days {
		cells = append(cells, &m.Days[i])
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*DayInfo, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// MonthGrid builds the grid for a month (monthIndex is 0-based).
// lookup may be nil, in which case no day is marked as a holiday.
func MonthGrid(year, monthIndex int, lookup Lookup) *MonthInfo {
	days := DaysInMonth(year, monthIndex)
	month := &MonthInfo{
		Year:         year,
		Month:        time.Month(monthIndex + 1),
		LeadingBlank: FirstWeekdayOfMonth(year, monthIndex),
		Days:         make([]DayInfo, 0, days),
	}

	for day := 1; day <= days; day++ {
		date := dateutil.CivilDate(year, month.Month, day)
		info := DayInfo{
			Date:    dateutil.FormatDate(date),
			Day:     day,
			Weekday: date.Weekday(),
		}

		if dateutil.IsWeekend(date) {
			month.Weekends++
		}

		if lookup != nil {
			if rec, ok := lookup(info.Date); ok {
				info.Holiday = &rec
				month.Holidays++
			}
		}

		month.Days = append(month.Days, info)
	}

	return month
}

// YearSummary counts holidays per reason type over a set of records
type YearSummary struct {
	Year     int
	Total    int
	ByReason map[holiday.ReasonType]int
}

// Summarize builds a YearSummary for the records dated in year
func Summarize(year int, records []holiday.Record) YearSummary {
	summary := YearSummary{
		Year:     year,
		ByReason: make(map[holiday.ReasonType]int, len(holiday.ReasonTypes)),
	}

	for _, rec := range records {
		if dateutil.YearOf(rec.Date) != year {
			continue
		}
		summary.Total++
		summary.ByReason[rec.ReasonType]++
	}

	return summary
}
