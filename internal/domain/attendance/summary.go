package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Summary aggregates a user's records.
type Summary struct {
	TotalWorked time.Duration
	PresentDays int64
	AbsentDays  int64
}

// Summarize counts present and absent days and sums worked time over
// PRESENT records only.
func Summarize(records []*Attendance) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.PresentDays++
			s.TotalWorked += r.WorkedDuration
		case StatusAbsent:
			s.AbsentDays++
		}
	}
	return s
}

// TotalWorkedHours renders the total as HH:MM.
func (s Summary) TotalWorkedHours() string {
	return FormatDuration(s.TotalWorked)
}

// WorkedHoursDecimal is the total in hours, truncated to two decimal places.
func (s Summary) WorkedHoursDecimal() decimal.Decimal {
	return HoursDecimal(s.TotalWorked)
}

// FormatDuration renders d as zero-padded "HH:MM" using whole minutes.
// Hours are not capped at 24 and partial minutes are dropped.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	totalMinutes := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

// HoursDecimal converts d to hours truncated to two decimal places.
func HoursDecimal(d time.Duration) decimal.Decimal {
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Truncate(2)
}
