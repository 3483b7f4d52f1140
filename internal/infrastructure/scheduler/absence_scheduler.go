package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/cache"
	"github.com/atency/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = 30 * time.Second
	absenceLockKey      = "absence-backfill"
)

// AbsenceMarker is the backfill the scheduler drives
type AbsenceMarker interface {
	MarkAbsentForDate(ctx context.Context, date time.Time) (*attendanceapp.BackfillResult, error)
}

// AbsenceSchedulerConfig holds the parsed schedule
type AbsenceSchedulerConfig struct {
	Enabled    bool
	CronHour   int
	CronMinute int
	JobTimeout time.Duration
	LockTTL    time.Duration
}

// NewAbsenceSchedulerConfig parses cfg.AbsenceCron and fills zero durations.
func NewAbsenceSchedulerConfig(cfg config.SchedulerConfig) (AbsenceSchedulerConfig, error) {
	hour, minute, err := ParseCronSchedule(cfg.AbsenceCron)
	if err != nil {
		return AbsenceSchedulerConfig{}, err
	}
	out := AbsenceSchedulerConfig{
		Enabled:    cfg.AbsenceEnabled,
		CronHour:   hour,
		CronMinute: minute,
		JobTimeout: cfg.JobTimeout,
		LockTTL:    cfg.LockTTL,
	}
	if out.JobTimeout <= 0 {
		out.JobTimeout = 10 * time.Minute
	}
	if out.LockTTL <= 0 {
		out.LockTTL = out.JobTimeout
	}
	return out, nil
}

// AbsenceScheduler marks yesterday's absences once a day. The clock's
// location decides both when "hour:minute" is and which date is yesterday.
type AbsenceScheduler struct {
	config AbsenceSchedulerConfig
	marker AbsenceMarker
	lock   cache.JobLock
	clock  shared.Clock
	logger *zap.Logger
	tick   time.Duration

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunDate string
	lastRunAt   *time.Time
	lastResult  *attendanceapp.BackfillResult
	lastError   string
	nextRunAt   *time.Time
}

// NewAbsenceScheduler creates a stopped scheduler
func NewAbsenceScheduler(
	config AbsenceSchedulerConfig,
	marker AbsenceMarker,
	lock cache.JobLock,
	clock shared.Clock,
	logger *zap.Logger,
) *AbsenceScheduler {
	return &AbsenceScheduler{
		config: config,
		marker: marker,
		lock:   lock,
		clock:  clock,
		logger: logger.Named("absence_scheduler"),
		tick:   defaultTickInterval,
	}
}

// Start launches the cron loop. Disabled schedulers start as a no-op.
func (s *AbsenceScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Absence scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	next := NextRun(s.clock.Now(), s.config.CronHour, s.config.CronMinute)
	s.nextRunAt = &next
	s.mu.Unlock()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Absence scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Time("next_run_at", next),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx.
func (s *AbsenceScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Absence scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Absence scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *AbsenceScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now()
			if !s.shouldRun(now) {
				continue
			}
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrJobLocked) {
				s.logger.Error("Scheduled absence backfill failed", zap.Error(err))
			}
		}
	}
}

// shouldRun is true once per calendar day, at or after hour:minute. A process
// started after the due time catches up on its first tick.
func (s *AbsenceScheduler) shouldRun(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Format(time.DateOnly) == s.lastRunDate {
		return false
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	return !now.Before(due)
}

// RunOnce backfills yesterday under the job lock. It returns ErrJobLocked when
// another instance is already running it.
func (s *AbsenceScheduler) RunOnce(ctx context.Context) (*attendanceapp.BackfillResult, error) {
	now := s.clock.Now()
	target := now.AddDate(0, 0, -1)

	s.mu.Lock()
	s.lastRunDate = now.Format(time.DateOnly)
	next := NextRun(now, s.config.CronHour, s.config.CronMinute)
	s.nextRunAt = &next
	s.mu.Unlock()

	acquired, err := s.lock.Acquire(ctx, absenceLockKey, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire absence lock: %w", err)
	}
	if !acquired {
		s.logger.Info("Absence backfill skipped, lock held elsewhere",
			zap.String("date", target.Format(time.DateOnly)))
		return nil, ErrJobLocked
	}
	defer func() {
		// the run context may already be cancelled during shutdown
		if err := s.lock.Release(context.WithoutCancel(ctx), absenceLockKey); err != nil {
			s.logger.Warn("Failed to release absence lock", zap.Error(err))
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	s.logger.Info("Starting absence backfill", zap.String("date", target.Format(time.DateOnly)))
	result, err := s.marker.MarkAbsentForDate(jobCtx, target)

	s.mu.Lock()
	s.lastRunAt = &now
	s.lastResult = result
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		return result, err
	}
	s.logger.Info("Absence backfill finished",
		zap.String("date", target.Format(time.DateOnly)),
		zap.Bool("working_day", result.WorkingDay),
		zap.Int("users_scanned", result.UsersScanned),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Status reports the schedule and the outcome of the last run
func (s *AbsenceScheduler) Status() attendanceapp.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return attendanceapp.ScheduleStatus{
		Enabled:    s.config.Enabled,
		Running:    s.isRunning,
		Hour:       s.config.CronHour,
		Minute:     s.config.CronMinute,
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
		LastError:  s.lastError,
		NextRunAt:  s.nextRunAt,
	}
}
