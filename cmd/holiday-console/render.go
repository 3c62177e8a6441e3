package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/username/holiday-console/internal/calendar"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
)

const gridWidth = 28 // 7 cells of 4 columns

// renderMonth prints a Sunday-first month grid. Holidays carry a '*' and
// are listed under the grid.
func renderMonth(w io.Writer, m *calendar.MonthInfo) {
	title := fmt.Sprintf("%s %d", m.Month, m.Year)
	pad := (gridWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), title)
	fmt.Fprintln(w, "  Su  Mo  Tu  We  Th  Fr  Sa")

	for _, week := range m.Weeks() {
		var line strings.Builder
		for _, day := range week {
			switch {
			case day == nil:
				line.WriteString("    ")
			case day.IsHoliday():
				fmt.Fprintf(&line, " %2d*", day.Day)
			default:
				fmt.Fprintf(&line, " %2d ", day.Day)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}

	for _, day := range m.Days {
		if !day.IsHoliday() {
			continue
		}
		fmt.Fprintf(w, "  * %02d %s  %-8s %s\n",
			day.Day, day.Weekday.String()[:3], day.Holiday.ReasonType, day.Holiday.ReasonText)
	}
}

// renderList prints holidays as an aligned table followed by a count per reason
func renderList(w io.Writer, year int, records []holiday.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No holidays.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tTYPE\tREASON\tID")
	for _, rec := range records {
		day := ""
		if t, err := dateutil.ParseDate(rec.Date); err == nil {
			day = t.Weekday().String()[:3]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.Date, day, rec.ReasonType, rec.ReasonText, rec.ID)
	}
	tw.Flush()

	summary := calendar.Summarize(year, records)
	parts := make([]string, 0, len(holiday.ReasonTypes))
	for _, rt := range holiday.ReasonTypes {
		if n := summary.ByReason[rt]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", rt, n))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d (%s)\n", summary.Total, strings.Join(parts, ", "))
}

// parseMonth accepts 1-12 or an English month name or abbreviation
func parseMonth(s string) (time.Month, error) {
	key := strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month must be between 1 and 12, got %d", n)
		}
		return time.Month(n), nil
	}

	if len(key) >= 3 {
		for m := time.January; m <= time.December; m++ {
			if strings.HasPrefix(strings.ToLower(m.String()), key) {
				return m, nil
			}
		}
	}

	return 0, fmt.Errorf("unknown month %q", s)
}
