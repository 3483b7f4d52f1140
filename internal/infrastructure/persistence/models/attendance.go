package models

import (
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/google/uuid"
)

// AttendanceModel is the persistence model for attendance.Attendance.
// (user_id, date) is unique.
type AttendanceModel struct {
	BaseModel
	UserID        uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uk_attendances_user_date,priority:1"`
	Date          time.Time  `gorm:"type:date;not null;uniqueIndex:uk_attendances_user_date,priority:2;index:idx_attendances_date"`
	CheckInTime   *time.Time `gorm:"column:check_in_time"`
	CheckOutTime  *time.Time `gorm:"column:check_out_time"`
	WorkedSeconds int64      `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null"`
	User          *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AttendanceModel) TableName() string {
	return "attendances"
}

// ToDomain converts the model to a domain record. Owner is set only when
// the User association was loaded.
func (m *AttendanceModel) ToDomain() *attendance.Attendance {
	a := &attendance.Attendance{
		BaseEntity:     m.BaseModel.ToDomain(),
		UserID:         m.UserID,
		Date:           attendance.DateOf(m.Date),
		CheckInTime:    m.CheckInTime,
		CheckOutTime:   m.CheckOutTime,
		WorkedDuration: time.Duration(m.WorkedSeconds) * time.Second,
		Status:         attendance.Status(m.Status),
	}
	if m.User != nil {
		a.Owner = &attendance.Owner{
			ID:       m.User.ID,
			Username: m.User.Username,
			FullName: m.User.FullName,
		}
	}
	return a
}

// AttendanceModelFromDomain creates a persistence model from a domain record.
// Worked time is stored in whole seconds.
func AttendanceModelFromDomain(a *attendance.Attendance) *AttendanceModel {
	m := &AttendanceModel{
		UserID:        a.UserID,
		Date:          attendance.DateOf(a.Date),
		CheckInTime:   a.CheckInTime,
		CheckOutTime:  a.CheckOutTime,
		WorkedSeconds: int64(a.WorkedDuration / time.Second),
		Status:        string(a.Status),
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
