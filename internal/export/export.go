package export

import (
	"fmt"
	"io"

	"github.com/username/holiday-console/internal/calendar"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
	"github.com/xuri/excelize/v2"
)

const (
	HolidaySheet = "Holidays"
	SummarySheet = "Summary"
)

var holidayHeader = []interface{}{"Date", "Weekday", "Reason Type", "Reason Text"}

// Workbook describes what goes into an export
type Workbook struct {
	BranchID string
	Year     int
	Records  []holiday.Record // ordered by date
}

// Write renders the workbook as .xlsx into w
func Write(w io.Writer, wb Workbook) error {
	f, err := build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save renders the workbook to path
func Save(path string, wb Workbook) error {
	f, err := build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func build(wb Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", HolidaySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeHolidays(f, wb.Records, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, wb, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeHolidays(f *excelize.File, records []holiday.Record, headerStyle int) error {
	if err := f.SetSheetRow(HolidaySheet, "A1", &holidayHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(HolidaySheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, rec := range records {
		weekday := ""
		if t, err := dateutil.ParseDate(rec.Date); err == nil {
			weekday = t.Weekday().String()
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Date, weekday, rec.ReasonType.String(), rec.ReasonText}
		if err := f.SetSheetRow(HolidaySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s: %w", rec.Date, err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 12, "C": 14, "D": 40}
	for col, width := range widths {
		if err := f.SetColWidth(HolidaySheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return f.SetPanes(HolidaySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, wb Workbook, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summary := calendar.Summarize(wb.Year, wb.Records)

	rows := [][]interface{}{
		{"Branch", wb.BranchID},
		{"Year", wb.Year},
		{},
		{"Reason Type", "Count"},
	}
	for _, rt := range holiday.ReasonTypes {
		rows = append(rows, []interface{}{rt.String(), summary.ByReason[rt]})
	}
	rows = append(rows, []interface{}{"Total", summary.Total})

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.SetCellStyle(SummarySheet, "A4", "B4", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 14)
}
