// Package export renders attendance records as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout      = "2006-01-02 15:04:05"
	// Excel rejects longer sheet names
	maxSheetName = 31
)

var _ attendanceapp.ReportRenderer = (*XLSXWriter)(nil)

var xlsxHeader = []any{"Date", "Username", "Full Name", "Check In", "Check Out", "Worked (HH:MM)", "Worked Hours", "Status"}

// XLSXWriter renders one sheet with a bold frozen header row.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (w *XLSXWriter) ContentType() string   { return xlsxContentType }
func (w *XLSXWriter) FileExtension() string { return ".xlsx" }

// Render writes a workbook with one row per record to out.
func (w *XLSXWriter) Render(out io.Writer, title string, records []attendanceapp.RecordView) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := w.writeHeader(f, sheet); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{
			r.Date.Format("2006-01-02"),
			ownerField(r, func(o *attendanceapp.OwnerView) string { return o.Username }),
			ownerField(r, func(o *attendanceapp.OwnerView) string { return o.FullName }),
			formatTime(r.CheckInTime),
			formatTime(r.CheckOutTime),
			r.WorkedHours,
			hours(r),
			string(r.Status),
		}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "E", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "F", "H", 15); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) writeHeader(f *excelize.File, sheet string) error {
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func sheetName(title string) string {
	if title == "" {
		return "Attendance"
	}
	if r := []rune(title); len(r) > maxSheetName {
		return string(r[:maxSheetName])
	}
	return title
}

func ownerField(r attendanceapp.RecordView, get func(*attendanceapp.OwnerView) string) string {
	if r.Owner == nil {
		return ""
	}
	return get(r.Owner)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func hours(r attendanceapp.RecordView) float64 {
	h, _ := attendance.HoursDecimal(r.Worked).Float64()
	return h
}
