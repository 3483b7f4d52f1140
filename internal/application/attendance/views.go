package attendance

import (
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerView identifies the user a record belongs to in admin listings
type OwnerView struct {
	UserID   uuid.UUID
	Username string
	FullName string
}

// RecordView is one attendance record as shown to clients. Times are in the
// service's location; Date is the calendar date at midnight UTC.
type RecordView struct {
	ID           uuid.UUID
	Owner        *OwnerView
	Date         time.Time
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Worked       time.Duration
	WorkedHours  string
	Status       attendance.Status
}

// SummaryView aggregates a user's records
type SummaryView struct {
	PresentDays        int64
	AbsentDays         int64
	TotalWorked        time.Duration
	TotalWorkedHours   string
	WorkedHoursDecimal decimal.Decimal
}

// BackfillResult reports one MarkAbsentForDate run
type BackfillResult struct {
	Date         time.Time
	WorkingDay   bool
	UsersScanned int
	Created      int
	Skipped      int
	Failed       int
}

// ScheduleStatus describes the daily absence backfill and its last run
type ScheduleStatus struct {
	Enabled    bool
	Running    bool
	Hour       int
	Minute     int
	LastRunAt  *time.Time
	LastResult *BackfillResult
	LastError  string
	NextRunAt  *time.Time
}

// ExportFile is a rendered report ready to download
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func toView(a *attendance.Attendance, loc *time.Location, includeOwner bool) RecordView {
	v := RecordView{
		ID:           a.ID,
		Date:         a.Date,
		CheckInTime:  inLocation(a.CheckInTime, loc),
		CheckOutTime: inLocation(a.CheckOutTime, loc),
		Worked:       a.WorkedDuration,
		WorkedHours:  attendance.FormatDuration(a.WorkedDuration),
		Status:       a.Status,
	}
	if includeOwner {
		v.Owner = &OwnerView{UserID: a.UserID}
		if a.Owner != nil {
			v.Owner.Username = a.Owner.Username
			v.Owner.FullName = a.Owner.FullName
		}
	}
	return v
}

func toViews(records []*attendance.Attendance, loc *time.Location, includeOwner bool) []RecordView {
	out := make([]RecordView, len(records))
	for i, r := range records {
		out[i] = toView(r, loc, includeOwner)
	}
	return out
}

func toSummaryView(s attendance.Summary) *SummaryView {
	return &SummaryView{
		PresentDays:        s.PresentDays,
		AbsentDays:         s.AbsentDays,
		TotalWorked:        s.TotalWorked,
		TotalWorkedHours:   s.TotalWorkedHours(),
		WorkedHoursDecimal: s.WorkedHoursDecimal(),
	}
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(loc)
	return &local
}
