package attendance

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	// Monday, a working day
	monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	// Friday, a weekend day
	friday = time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	users   *MockUserRepository
	records *MockAttendanceRepository
	svc     *Service
}

func newFixture(t *testing.T, now time.Time, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{users: new(MockUserRepository), records: new(MockAttendanceRepository)}
	f.svc = NewService(f.users, f.records, passthroughTx{}, attendance.DefaultWorkingDayPolicy(),
		shared.FixedClock{At: now}, zap.NewNop(), opts...)
	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.records.AssertExpectations(t)
	})
	return f
}

func testUser(username string) *identity.User {
	return &identity.User{
		BaseEntity: shared.NewBaseEntity(monday),
		Username:   username,
		FullName:   strings.ToUpper(username[:1]) + username[1:],
		Role:       identity.RoleEmployee,
	}
}

func TestService_CheckIn(t *testing.T) {
	t.Run("creates today's record", func(t *testing.T) {
		f := newFixture(t, monday)
		alice := testUser("alice")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, monday).
			Return(nil, shared.NewNotFoundError("Attendance not found"))
		f.records.On("Create", mock.Anything, mock.MatchedBy(func(a *attendance.Attendance) bool {
			return a.UserID == alice.ID && a.CheckInTime != nil && a.Status == attendance.StatusPresent
		})).Return(nil)

		view, err := f.svc.CheckIn(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, attendance.DateOf(monday), view.Date)
		require.NotNil(t, view.CheckInTime)
		assert.True(t, monday.Equal(*view.CheckInTime))
		assert.Nil(t, view.Owner)
	})

	t.Run("logs with the request logger", func(t *testing.T) {
		f := newFixture(t, monday)
		alice := testUser("alice")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, monday).
			Return(nil, shared.NewNotFoundError("Attendance not found"))
		f.records.On("Create", mock.Anything, mock.Anything).Return(nil)

		core, recorded := observer.New(zapcore.InfoLevel)
		ctx, _ := logger.WithRequestID(context.Background(), zap.New(core), "req-42")

		_, err := f.svc.CheckIn(ctx, "alice")
		require.NoError(t, err)

		entries := recorded.FilterMessage("Checked in").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "alice", entries[0].ContextMap()["username"])
	})

	t.Run("fills in an existing record", func(t *testing.T) {
		f := newFixture(t, monday)
		alice := testUser("alice")
		existing := attendance.NewAttendance(alice.ID, monday, monday)
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, monday).Return(existing, nil)
		f.records.On("Update", mock.Anything, existing).Return(nil)

		_, err := f.svc.CheckIn(context.Background(), "alice")
		require.NoError(t, err)
	})

	t.Run("twice on the same day", func(t *testing.T) {
		f := newFixture(t, monday)
		alice := testUser("alice")
		existing := attendance.NewAttendance(alice.ID, monday, monday)
		require.NoError(t, existing.CheckIn(monday.Add(-time.Hour)))
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, monday).Return(existing, nil)

		_, err := f.svc.CheckIn(context.Background(), "alice")
		assert.True(t, errors.Is(err, shared.ErrBadRequest))
		assert.EqualError(t, err, attendance.MsgAlreadyCheckedIn)
	})

	t.Run("non-working day", func(t *testing.T) {
		f := newFixture(t, friday)
		f.users.On("FindByUsername", mock.Anything, "alice").Return(testUser("alice"), nil)

		_, err := f.svc.CheckIn(context.Background(), "alice")
		assert.EqualError(t, err, attendance.MsgCheckInNonWorkingDay)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t, monday)
		f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.NewNotFoundError("User not found"))

		_, err := f.svc.CheckIn(context.Background(), "ghost")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("lost insert race", func(t *testing.T) {
		f := newFixture(t, monday)
		alice := testUser("alice")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, monday).
			Return(nil, shared.NewNotFoundError("Attendance not found"))
		f.records.On("Create", mock.Anything, mock.Anything).Return(shared.NewConflictError("duplicate"))

		_, err := f.svc.CheckIn(context.Background(), "alice")
		assert.True(t, errors.Is(err, shared.ErrConflict))
	})
}

func TestService_CheckOut(t *testing.T) {
	evening := monday.Add(8*time.Hour + 20*time.Minute)

	t.Run("records worked time", func(t *testing.T) {
		f := newFixture(t, evening)
		alice := testUser("alice")
		existing := attendance.NewAttendance(alice.ID, monday, monday)
		require.NoError(t, existing.CheckIn(monday))
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, evening).Return(existing, nil)
		f.records.On("Update", mock.Anything, existing).Return(nil)

		view, err := f.svc.CheckOut(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "08:20", view.WorkedHours)
		assert.Equal(t, 8*time.Hour+20*time.Minute, view.Worked)
	})

	t.Run("without a record", func(t *testing.T) {
		f := newFixture(t, evening)
		alice := testUser("alice")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, evening).
			Return(nil, shared.NewNotFoundError("Attendance not found"))

		_, err := f.svc.CheckOut(context.Background(), "alice")
		assert.True(t, errors.Is(err, shared.ErrBadRequest))
		assert.EqualError(t, err, attendance.MsgCheckInRequired)
	})

	t.Run("on an absence", func(t *testing.T) {
		f := newFixture(t, evening)
		alice := testUser("alice")
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, evening).
			Return(attendance.NewAbsence(alice.ID, monday, monday), nil)

		_, err := f.svc.CheckOut(context.Background(), "alice")
		assert.EqualError(t, err, attendance.MsgCheckInRequired)
	})

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t, evening)
		alice := testUser("alice")
		existing := attendance.NewAttendance(alice.ID, monday, monday)
		require.NoError(t, existing.CheckIn(monday))
		require.NoError(t, existing.CheckOut(monday.Add(time.Hour)))
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindByUserAndDate", mock.Anything, alice.ID, evening).Return(existing, nil)

		_, err := f.svc.CheckOut(context.Background(), "alice")
		assert.EqualError(t, err, attendance.MsgAlreadyCheckedOut)
	})

	t.Run("non-working day", func(t *testing.T) {
		f := newFixture(t, friday)
		f.users.On("FindByUsername", mock.Anything, "alice").Return(testUser("alice"), nil)

		_, err := f.svc.CheckOut(context.Background(), "alice")
		assert.EqualError(t, err, attendance.MsgCheckOutNonWorkDay)
	})
}

func TestService_Queries(t *testing.T) {
	alice := testUser("alice")
	worked := attendance.NewAttendance(alice.ID, monday, monday)
	require.NoError(t, worked.CheckIn(monday))
	require.NoError(t, worked.CheckOut(monday.Add(7*time.Hour+30*time.Minute)))
	absent := attendance.NewAbsence(alice.ID, monday.AddDate(0, 0, -1), monday)
	own := []*attendance.Attendance{worked, absent}

	t.Run("my records", func(t *testing.T) {
		f := newFixture(t, monday)
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindAllByUserOrderByDateDesc", mock.Anything, alice.ID).Return(own, nil)

		views, err := f.svc.GetMyRecords(context.Background(), "alice")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "07:30", views[0].WorkedHours)
		assert.Equal(t, attendance.StatusAbsent, views[1].Status)
		assert.Nil(t, views[1].CheckInTime)
	})

	t.Run("my summary", func(t *testing.T) {
		f := newFixture(t, monday)
		f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
		f.records.On("FindAllByUserOrderByDateDesc", mock.Anything, alice.ID).Return(own, nil)

		s, err := f.svc.GetMySummary(context.Background(), "alice")
		require.NoError(t, err)
		assert.EqualValues(t, 1, s.PresentDays)
		assert.EqualValues(t, 1, s.AbsentDays)
		assert.Equal(t, "07:30", s.TotalWorkedHours)
		assert.Equal(t, "7.50", s.WorkedHoursDecimal.StringFixed(2))
	})

	t.Run("summary of nobody", func(t *testing.T) {
		f := newFixture(t, monday)
		f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.NewNotFoundError("User not found"))

		_, err := f.svc.GetMySummary(context.Background(), "ghost")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("all records carry owner", func(t *testing.T) {
		f := newFixture(t, monday)
		withOwner := attendance.NewAbsence(alice.ID, monday, monday)
		withOwner.Owner = &attendance.Owner{ID: alice.ID, Username: "alice", FullName: "Alice"}
		f.records.On("FindAllOrderByDateDesc", mock.Anything).Return([]*attendance.Attendance{withOwner}, nil)

		views, err := f.svc.GetAllRecords(context.Background())
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.NotNil(t, views[0].Owner)
		assert.Equal(t, "alice", views[0].Owner.Username)
		assert.Equal(t, alice.ID, views[0].Owner.UserID)
	})

	t.Run("records of unknown user", func(t *testing.T) {
		f := newFixture(t, monday)
		id := uuid.New()
		f.users.On("FindByID", mock.Anything, id).Return(nil, shared.NewNotFoundError("User not found"))

		_, err := f.svc.GetRecordsByUserID(context.Background(), id)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("records by user id", func(t *testing.T) {
		f := newFixture(t, monday)
		f.users.On("FindByID", mock.Anything, alice.ID).Return(alice, nil)
		f.records.On("FindAllByUserIDOrderByDateDesc", mock.Anything, alice.ID).Return(own, nil)

		views, err := f.svc.GetRecordsByUserID(context.Background(), alice.ID)
		require.NoError(t, err)
		assert.Len(t, views, 2)
		assert.NotNil(t, views[0].Owner)
	})
}

func TestService_TimesUseClockLocation(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	now := monday.In(tehran)
	f := newFixture(t, now)
	alice := testUser("alice")
	rec := attendance.NewAttendance(alice.ID, monday, monday)
	require.NoError(t, rec.CheckIn(monday.UTC()))
	f.users.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
	f.records.On("FindAllByUserOrderByDateDesc", mock.Anything, alice.ID).Return([]*attendance.Attendance{rec}, nil)

	views, err := f.svc.GetMyRecords(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, tehran, views[0].CheckInTime.Location())
}

type stubRenderer struct {
	titles []string
	rows   int
	err    error
}

func (r *stubRenderer) Render(w io.Writer, title string, records []RecordView) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.rows += len(records)
	_, err := io.WriteString(w, "report")
	return err
}

func (r *stubRenderer) ContentType() string   { return "text/plain" }
func (r *stubRenderer) FileExtension() string { return ".txt" }

func TestService_ExportRecords(t *testing.T) {
	alice := testUser("alice")
	list := []*attendance.Attendance{attendance.NewAbsence(alice.ID, monday, monday)}

	t.Run("all records", func(t *testing.T) {
		r := &stubRenderer{}
		f := newFixture(t, monday, WithReportRenderer(r))
		f.records.On("FindAllOrderByDateDesc", mock.Anything).Return(list, nil)

		file, err := f.svc.ExportRecords(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "attendance-all.txt", file.Filename)
		assert.Equal(t, "text/plain", file.ContentType)
		assert.Equal(t, "report", string(file.Data))
		assert.Equal(t, 1, r.rows)
	})

	t.Run("one user", func(t *testing.T) {
		f := newFixture(t, monday, WithReportRenderer(&stubRenderer{}))
		f.users.On("FindByID", mock.Anything, alice.ID).Return(alice, nil)
		f.records.On("FindAllByUserIDOrderByDateDesc", mock.Anything, alice.ID).Return(list, nil)

		file, err := f.svc.ExportRecords(context.Background(), &alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "attendance-"+alice.ID.String()+".txt", file.Filename)
	})

	t.Run("renderer failure", func(t *testing.T) {
		f := newFixture(t, monday, WithReportRenderer(&stubRenderer{err: errors.New("disk full")}))
		f.records.On("FindAllOrderByDateDesc", mock.Anything).Return(list, nil)

		_, err := f.svc.ExportRecords(context.Background(), nil)
		assert.Equal(t, shared.CodeInternal, shared.ErrorCode(err))
	})

	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, monday)
		_, err := f.svc.ExportRecords(context.Background(), nil)
		assert.Error(t, err)
	})
}
