package handler

import (
	"fmt"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/google/uuid"
)

// RecordResponse is one attendance record. Owner fields are only set in
// admin listings.
// @name RecordResponse
type RecordResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	Username     string     `json:"username,omitempty" example:"alice"`
	FullName     string     `json:"fullName,omitempty" example:"Alice Smith"`
	Date         string     `json:"date" example:"2025-03-03"`
	CheckInTime  *string    `json:"checkInTime" example:"09:00:00"`
	CheckOutTime *string    `json:"checkOutTime" example:"17:30:00"`
	WorkedHours  string     `json:"workedHours" example:"08:30"`
	Status       string     `json:"status" example:"PRESENT"`
}

// SummaryResponse aggregates the caller's records
// @name SummaryResponse
type SummaryResponse struct {
	PresentDays        int64  `json:"presentDays" example:"12"`
	AbsentDays         int64  `json:"absentDays" example:"1"`
	TotalWorkedHours   string `json:"totalWorkedHours" example:"98:15"`
	WorkedHoursDecimal string `json:"workedHoursDecimal" example:"98.25"`
}

// BackfillRequest optionally names the day to backfill. Yesterday is used
// when the body is empty.
type BackfillRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2025-03-03"`
}

// BackfillResponse reports one absence backfill run
// @name BackfillResponse
type BackfillResponse struct {
	Date         string `json:"date" example:"2025-03-03"`
	WorkingDay   bool   `json:"workingDay" example:"true"`
	UsersScanned int    `json:"usersScanned" example:"20"`
	Created      int    `json:"created" example:"3"`
	Skipped      int    `json:"skipped" example:"17"`
	Failed       int    `json:"failed" example:"0"`
}

// ScheduleStatusResponse reports the daily absence backfill
// @name ScheduleStatusResponse
type ScheduleStatusResponse struct {
	Enabled    bool              `json:"enabled" example:"true"`
	Running    bool              `json:"running" example:"true"`
	RunsAt     string            `json:"runsAt" example:"00:05"`
	LastRunAt  *time.Time        `json:"lastRunAt,omitempty"`
	LastResult *BackfillResponse `json:"lastResult,omitempty"`
	LastError  string            `json:"lastError,omitempty"`
	NextRunAt  *time.Time        `json:"nextRunAt,omitempty"`
}

func clockTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.TimeOnly)
	return &s
}

func toRecordResponse(v attendanceapp.RecordView) RecordResponse {
	resp := RecordResponse{
		ID:           v.ID,
		Date:         v.Date.Format(time.DateOnly),
		CheckInTime:  clockTime(v.CheckInTime),
		CheckOutTime: clockTime(v.CheckOutTime),
		WorkedHours:  v.WorkedHours,
		Status:       string(v.Status),
	}
	if v.Owner != nil {
		id := v.Owner.UserID
		resp.UserID = &id
		resp.Username = v.Owner.Username
		resp.FullName = v.Owner.FullName
	}
	return resp
}

func toRecordResponses(views []attendanceapp.RecordView) []RecordResponse {
	out := make([]RecordResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toRecordResponse(v))
	}
	return out
}

func toSummaryResponse(v *attendanceapp.SummaryView) SummaryResponse {
	return SummaryResponse{
		PresentDays:        v.PresentDays,
		AbsentDays:         v.AbsentDays,
		TotalWorkedHours:   v.TotalWorkedHours,
		WorkedHoursDecimal: v.WorkedHoursDecimal.StringFixed(2),
	}
}

func toBackfillResponse(r *attendanceapp.BackfillResult) BackfillResponse {
	return BackfillResponse{
		Date:         r.Date.Format(time.DateOnly),
		WorkingDay:   r.WorkingDay,
		UsersScanned: r.UsersScanned,
		Created:      r.Created,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
	}
}

func toScheduleStatusResponse(st attendanceapp.ScheduleStatus) ScheduleStatusResponse {
	resp := ScheduleStatusResponse{
		Enabled:   st.Enabled,
		Running:   st.Running,
		RunsAt:    fmt.Sprintf("%02d:%02d", st.Hour, st.Minute),
		LastRunAt: st.LastRunAt,
		LastError: st.LastError,
		NextRunAt: st.NextRunAt,
	}
	if st.LastResult != nil {
		last := toBackfillResponse(st.LastResult)
		resp.LastResult = &last
	}
	return resp
}
