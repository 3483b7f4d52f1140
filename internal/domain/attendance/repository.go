package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records. Lists are ordered by date,
// newest first. FindByUserAndDate returns a NOT_FOUND DomainError when
// there is no record.
type Repository interface {
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*Attendance, error)
	ExistsByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error)

	// FindAllByUserOrderByDateDesc lists one user's records without owner details
	FindAllByUserOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*Attendance, error)

	// FindAllByUserIDOrderByDateDesc lists one user's records with Owner populated
	FindAllByUserIDOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*Attendance, error)

	// FindAllOrderByDateDesc lists every record with Owner populated
	FindAllOrderByDateDesc(ctx context.Context) ([]*Attendance, error)

	// FindAllByDate lists every record of one date with Owner populated
	FindAllByDate(ctx context.Context, date time.Time) ([]*Attendance, error)

	// Create inserts a record. A second record for the same (user, date)
	// fails with a CONFLICT DomainError.
	Create(ctx context.Context, a *Attendance) error

	Update(ctx context.Context, a *Attendance) error
}
