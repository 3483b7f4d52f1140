package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgAttendanceNotFound = "Attendance record not found"
	msgAttendanceExists   = "Attendance already recorded for this date"
	orderNewestFirst      = "date DESC, created_at DESC"
)

// GormAttendanceRepository implements attendance.Repository using GORM
type GormAttendanceRepository struct {
	db *gorm.DB
}

// NewGormAttendanceRepository creates a new GormAttendanceRepository
func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*attendance.Attendance, error) {
	var model models.AttendanceModel
	err := conn(ctx, r.db).
		Where("user_id = ? AND date = ?", userID, attendance.DateOf(date)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(msgAttendanceNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormAttendanceRepository) ExistsByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.AttendanceModel{}).
		Where("user_id = ? AND date = ?", userID, attendance.DateOf(date)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAttendanceRepository) FindAllByUserOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*attendance.Attendance, error) {
	var rows []models.AttendanceModel
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order(orderNewestFirst).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *GormAttendanceRepository) FindAllByUserIDOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*attendance.Attendance, error) {
	var rows []models.AttendanceModel
	err := conn(ctx, r.db).
		Preload("User").
		Where("user_id = ?", userID).
		Order(orderNewestFirst).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *GormAttendanceRepository) FindAllOrderByDateDesc(ctx context.Context) ([]*attendance.Attendance, error) {
	var rows []models.AttendanceModel
	err := conn(ctx, r.db).
		Preload("User").
		Order(orderNewestFirst).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *GormAttendanceRepository) FindAllByDate(ctx context.Context, date time.Time) ([]*attendance.Attendance, error) {
	var rows []models.AttendanceModel
	err := conn(ctx, r.db).
		Preload("User").
		Where("date = ?", attendance.DateOf(date)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// Create inserts a record; the (user_id, date) unique index turns a
// concurrent duplicate into a CONFLICT error.
func (r *GormAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	model := models.AttendanceModelFromDomain(a)
	return translateWriteError(conn(ctx, r.db).Omit("User").Create(model).Error, msgAttendanceExists)
}

// Update writes the mutable columns of an existing record.
func (r *GormAttendanceRepository) Update(ctx context.Context, a *attendance.Attendance) error {
	model := models.AttendanceModelFromDomain(a)
	result := conn(ctx, r.db).Model(&models.AttendanceModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"check_in_time":  model.CheckInTime,
			"check_out_time": model.CheckOutTime,
			"worked_seconds": model.WorkedSeconds,
			"status":         model.Status,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(msgAttendanceNotFound)
	}
	return nil
}

func toDomainList(rows []models.AttendanceModel) []*attendance.Attendance {
	out := make([]*attendance.Attendance, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormAttendanceRepository implements the interface
var _ attendance.Repository = (*GormAttendanceRepository)(nil)
