package attendance

import (
	"context"
	"errors"
	"io"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBackfillWorkers = 4

// ReportRenderer turns record views into a downloadable document
type ReportRenderer interface {
	Render(w io.Writer, title string, records []RecordView) error
	ContentType() string
	FileExtension() string
}

// ReportArchive stores rendered reports
type ReportArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Service implements check-in, check-out, history and the absence backfill.
type Service struct {
	users    identity.UserRepository
	records  attendance.Repository
	tx       shared.TransactionManager
	policy   attendance.WorkingDayPolicy
	clock    shared.Clock
	logger   *zap.Logger
	metrics  *telemetry.AttendanceMetrics
	renderer ReportRenderer
	archive  ReportArchive
	workers  int
}

// Option configures optional collaborators of a Service
type Option func(*Service)

func WithMetrics(m *telemetry.AttendanceMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithReportRenderer(r ReportRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithReportArchive archives a report of every backfilled working day.
// It needs a renderer as well.
func WithReportArchive(a ReportArchive) Option {
	return func(s *Service) { s.archive = a }
}

// WithBackfillWorkers bounds the concurrent inserts of MarkAbsentForDate
func WithBackfillWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService creates the attendance service
func NewService(
	users identity.UserRepository,
	records attendance.Repository,
	tx shared.TransactionManager,
	policy attendance.WorkingDayPolicy,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:   users,
		records: records,
		tx:      tx,
		policy:  policy,
		clock:   clock,
		logger:  logger,
		workers: defaultBackfillWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn records the caller's arrival for today, creating the day's record
// when needed.
func (s *Service) CheckIn(ctx context.Context, username string) (view *RecordView, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AttendanceService", "CheckIn")
	defer func() {
		s.metrics.RecordOperation(ctx, "check_in", outcomeOf(err))
		telemetry.EndSpan(span, err)
	}()

	now := s.clock.Now()
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsWorkingDay(now) {
		return nil, shared.NewBadRequestError(attendance.MsgCheckInNonWorkingDay)
	}

	var record *attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.records.FindByUserAndDate(ctx, user.ID, now)
		isNew := false
		switch {
		case err == nil:
			record = existing
		case errors.Is(err, shared.ErrNotFound):
			record = attendance.NewAttendance(user.ID, now, now)
			isNew = true
		default:
			return err
		}

		if err := record.CheckIn(now); err != nil {
			return err
		}
		if isNew {
			return s.records.Create(ctx, record)
		}
		return s.records.Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Checked in",
		zap.String("username", user.Username),
		zap.String("date", record.Date.Format("2006-01-02")))
	v := toView(record, now.Location(), false)
	return &v, nil
}

// CheckOut records the caller's departure for today and the time worked.
func (s *Service) CheckOut(ctx context.Context, username string) (view *RecordView, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AttendanceService", "CheckOut")
	defer func() {
		s.metrics.RecordOperation(ctx, "check_out", outcomeOf(err))
		telemetry.EndSpan(span, err)
	}()

	now := s.clock.Now()
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsWorkingDay(now) {
		return nil, shared.NewBadRequestError(attendance.MsgCheckOutNonWorkDay)
	}

	var record *attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.records.FindByUserAndDate(ctx, user.ID, now)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewBadRequestError(attendance.MsgCheckInRequired)
		}
		if err != nil {
			return err
		}
		if err := existing.CheckOut(now); err != nil {
			return err
		}
		record = existing
		return s.records.Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Checked out",
		zap.String("username", user.Username),
		zap.Duration("worked", record.WorkedDuration))
	v := toView(record, now.Location(), false)
	return &v, nil
}

// GetMyRecords lists the caller's records, newest first
func (s *Service) GetMyRecords(ctx context.Context, username string) ([]RecordView, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindAllByUserOrderByDateDesc(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toViews(records, s.clock.Now().Location(), false), nil
}

// GetMySummary counts the caller's present and absent days and totals the
// time worked on present days.
func (s *Service) GetMySummary(ctx context.Context, username string) (*SummaryView, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindAllByUserOrderByDateDesc(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toSummaryView(attendance.Summarize(records)), nil
}

// GetAllRecords lists every user's records with owner details, newest first
func (s *Service) GetAllRecords(ctx context.Context) ([]RecordView, error) {
	records, err := s.records.FindAllOrderByDateDesc(ctx)
	if err != nil {
		return nil, err
	}
	return toViews(records, s.clock.Now().Location(), true), nil
}

// GetRecordsByUserID lists one user's records with owner details
func (s *Service) GetRecordsByUserID(ctx context.Context, userID uuid.UUID) ([]RecordView, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.records.FindAllByUserIDOrderByDateDesc(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toViews(records, s.clock.Now().Location(), true), nil
}

// outcomeOf classifies an operation result for metrics
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, shared.ErrBadRequest), errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrNotFound):
		return telemetry.OutcomeRejected
	default:
		return telemetry.OutcomeError
	}
}
