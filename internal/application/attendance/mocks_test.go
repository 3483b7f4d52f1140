package attendance

import (
	"context"
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*attendance.Attendance, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendance.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) ExistsByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error) {
	args := m.Called(ctx, userID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceRepository) list(args mock.Arguments) ([]*attendance.Attendance, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*attendance.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) FindAllByUserOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*attendance.Attendance, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *MockAttendanceRepository) FindAllByUserIDOrderByDateDesc(ctx context.Context, userID uuid.UUID) ([]*attendance.Attendance, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *MockAttendanceRepository) FindAllOrderByDateDesc(ctx context.Context) ([]*attendance.Attendance, error) {
	return m.list(m.Called(ctx))
}

func (m *MockAttendanceRepository) FindAllByDate(ctx context.Context, date time.Time) ([]*attendance.Attendance, error) {
	return m.list(m.Called(ctx, date))
}

func (m *MockAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAttendanceRepository) Update(ctx context.Context, a *attendance.Attendance) error {
	return m.Called(ctx, a).Error(0)
}

// passthroughTx runs fn directly with the caller's context
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
