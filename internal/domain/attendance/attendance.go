package attendance

import (
	"time"

	"github.com/atency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status of a day's attendance
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
)

func (s Status) IsValid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Rejection messages returned to clients
const (
	MsgAlreadyCheckedIn     = "You have already checked in today"
	MsgCheckInRequired      = "Check-in is required before check-out"
	MsgAlreadyCheckedOut    = "You have already checked out today"
	MsgCheckOutBeforeIn     = "Check-out time must be after check-in time"
	MsgCheckInNonWorkingDay = "Check-in is allowed only on working days"
	MsgCheckOutNonWorkDay   = "Check-out is allowed only on working days"
)

// Owner carries the identity fields of the user an attendance belongs to.
// It is only populated by queries that join users.
type Owner struct {
	ID       uuid.UUID
	Username string
	FullName string
}

// Attendance is one user's record for one calendar date.
//
// An ABSENT record never has check-in/out times and has zero worked duration.
// CheckOutTime, when set, is never before CheckInTime.
type Attendance struct {
	shared.BaseEntity
	UserID         uuid.UUID
	Date           time.Time
	CheckInTime    *time.Time
	CheckOutTime   *time.Time
	WorkedDuration time.Duration
	Status         Status
	Owner          *Owner
}

// NewAttendance starts a PRESENT record with no times for userID on date.
func NewAttendance(userID uuid.UUID, date time.Time, now time.Time) *Attendance {
	return &Attendance{
		BaseEntity: shared.NewBaseEntity(now),
		UserID:     userID,
		Date:       DateOf(date),
		Status:     StatusPresent,
	}
}

// NewAbsence creates an ABSENT record for a working day nobody attended.
func NewAbsence(userID uuid.UUID, date time.Time, now time.Time) *Attendance {
	return &Attendance{
		BaseEntity: shared.NewBaseEntity(now),
		UserID:     userID,
		Date:       DateOf(date),
		Status:     StatusAbsent,
	}
}

// CheckIn stamps the arrival time.
func (a *Attendance) CheckIn(now time.Time) error {
	if a.CheckInTime != nil {
		return shared.NewBadRequestError(MsgAlreadyCheckedIn)
	}
	at := now
	a.CheckInTime = &at
	a.Status = StatusPresent
	a.Touch(now)
	return nil
}

// CheckOut stamps the departure time and records the worked duration.
func (a *Attendance) CheckOut(now time.Time) error {
	if a.CheckInTime == nil {
		return shared.NewBadRequestError(MsgCheckInRequired)
	}
	if a.CheckOutTime != nil {
		return shared.NewBadRequestError(MsgAlreadyCheckedOut)
	}
	if now.Before(*a.CheckInTime) {
		return shared.NewBadRequestError(MsgCheckOutBeforeIn)
	}
	at := now
	a.CheckOutTime = &at
	a.WorkedDuration = now.Sub(*a.CheckInTime)
	a.Status = StatusPresent
	a.Touch(now)
	return nil
}

// IsPresent reports whether the record counts as a present day
func (a *Attendance) IsPresent() bool {
	return a.Status == StatusPresent
}

// DateOf truncates t to its calendar date, expressed as midnight UTC so it
// compares equal to values read back from a DATE column.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
