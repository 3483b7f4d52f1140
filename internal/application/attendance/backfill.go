package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atency/backend/internal/domain/attendance"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type markOutcome int

const (
	markCreated markOutcome = iota
	markSkipped
)

// MarkAbsentForDate creates an ABSENT record for every user without a
// record on date. Non-working days are a no-op. Running it twice for the
// same date creates nothing the second time.
func (s *Service) MarkAbsentForDate(ctx context.Context, date time.Time) (result *BackfillResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AttendanceService", "MarkAbsentForDate")
	started := time.Now()
	defer func() {
		if result != nil {
			span.SetAttributes(
				attribute.String("attendance.date", result.Date.Format("2006-01-02")),
				attribute.Int("attendance.created", result.Created),
			)
			s.metrics.RecordBackfill(ctx, result.Created, time.Since(started), err != nil)
		}
		telemetry.EndSpan(span, err)
	}()

	day := attendance.DateOf(date)
	result = &BackfillResult{Date: day, WorkingDay: s.policy.IsWorkingDay(day)}
	if !result.WorkingDay {
		logger.For(ctx, s.logger).Info("Absence backfill skipped, not a working day", zap.String("date", day.Format("2006-01-02")))
		return result, nil
	}

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return result, err
	}
	result.UsersScanned = len(users)

	now := s.clock.Now()
	if err := s.markAll(ctx, users, day, now, result); err != nil {
		return result, err
	}

	s.archiveDay(ctx, day)
	return result, nil
}

// markAll fans the per-user inserts out over at most s.workers goroutines.
func (s *Service) markAll(ctx context.Context, users []*identity.User, day, now time.Time, result *BackfillResult) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		sem  = make(chan struct{}, s.workers)
	)

	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(u *identity.User) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := s.markAbsent(ctx, u, day, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
				errs = append(errs, fmt.Errorf("user %s: %w", u.Username, err))
			case outcome == markCreated:
				result.Created++
			default:
				result.Skipped++
			}
		}(u)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		logger.For(ctx, s.logger).Error("Absence backfill finished with errors",
			zap.String("date", day.Format("2006-01-02")),
			zap.Int("failed", result.Failed),
			zap.Error(errors.Join(errs...)))
	}
	return errors.Join(errs...)
}

// markAbsent runs in its own transaction so one user's failure does not undo
// the others. Losing an insert race to a concurrent writer counts as skipped.
func (s *Service) markAbsent(ctx context.Context, u *identity.User, day, now time.Time) (markOutcome, error) {
	outcome := markSkipped
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.records.ExistsByUserAndDate(ctx, u.ID, day)
		if err != nil || exists {
			return err
		}
		if err := s.records.Create(ctx, attendance.NewAbsence(u.ID, day, now)); err != nil {
			return err
		}
		outcome = markCreated
		return nil
	})
	if errors.Is(err, shared.ErrConflict) {
		return markSkipped, nil
	}
	return outcome, err
}

// archiveDay stores a report of day when an archive is configured. Failures
// are logged; the backfill itself already succeeded.
func (s *Service) archiveDay(ctx context.Context, day time.Time) {
	if s.archive == nil || s.renderer == nil {
		return
	}
	log := logger.For(ctx, s.logger).With(zap.String("date", day.Format("2006-01-02")))

	records, err := s.records.FindAllByDate(ctx, day)
	if err != nil {
		log.Warn("Failed to load records for archive", zap.Error(err))
		return
	}
	file, err := s.render("attendance-"+day.Format("2006-01-02"), toViews(records, s.clock.Now().Location(), true))
	if err != nil {
		log.Warn("Failed to render archive report", zap.Error(err))
		return
	}
	key := fmt.Sprintf("attendance/%s/%s", day.Format("2006/01"), file.Filename)
	if err := s.archive.Put(ctx, key, file.Data, file.ContentType); err != nil {
		log.Warn("Failed to archive report", zap.String("key", key), zap.Error(err))
		return
	}
	log.Info("Archived attendance report", zap.String("key", key))
}
