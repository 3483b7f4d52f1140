package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/infrastructure/cache"
	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/atency/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stubClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recordingMarker struct {
	mu    sync.Mutex
	dates []time.Time
	err   error
}

func (m *recordingMarker) MarkAbsentForDate(_ context.Context, date time.Time) (*attendanceapp.BackfillResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates = append(m.dates, date)
	if m.err != nil {
		return nil, m.err
	}
	return &attendanceapp.BackfillResult{Date: date, WorkingDay: true, UsersScanned: 2, Created: 1, Skipped: 1}, nil
}

func (m *recordingMarker) calls() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.dates...)
}

func testConfig() AbsenceSchedulerConfig {
	return AbsenceSchedulerConfig{
		Enabled:    true,
		CronHour:   0,
		CronMinute: 5,
		JobTimeout: time.Minute,
		LockTTL:    time.Minute,
	}
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		expr       string
		hour, min  int
		shouldFail bool
	}{
		{expr: "5 0 * * *", hour: 0, min: 5},
		{expr: "30 3 * * *", hour: 3, min: 30},
		{expr: "  15   4   *   *   *  ", hour: 4, min: 15},
		{expr: "0 23 * * *", hour: 23},
		{expr: "", shouldFail: true},
		{expr: "0 2", shouldFail: true},
		{expr: "60 2 * * *", shouldFail: true},
		{expr: "0 24 * * *", shouldFail: true},
		{expr: "*/5 2 * * *", shouldFail: true},
		{expr: "0 2 * * 1", shouldFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.expr)
			if tt.shouldFail {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.min, minute)
		})
	}
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	before := time.Date(2025, 3, 4, 0, 1, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 5, 0, 0, loc), NextRun(before, 0, 5))

	exactly := time.Date(2025, 3, 4, 0, 5, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 5, 0, 0, loc), NextRun(exactly, 0, 5))
}

func TestNewAbsenceSchedulerConfig(t *testing.T) {
	cfg, err := NewAbsenceSchedulerConfig(config.SchedulerConfig{AbsenceEnabled: true, AbsenceCron: "5 0 * * *"})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.CronHour)
	assert.Equal(t, 5, cfg.CronMinute)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
	assert.Equal(t, cfg.JobTimeout, cfg.LockTTL)

	_, err = NewAbsenceSchedulerConfig(config.SchedulerConfig{AbsenceCron: "bad"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestShouldRun_OncePerDay(t *testing.T) {
	s := NewAbsenceScheduler(testConfig(), &recordingMarker{}, cache.NewInMemoryJobLock(), &stubClock{}, zap.NewNop())

	assert.False(t, s.shouldRun(time.Date(2025, 3, 4, 0, 4, 59, 0, time.UTC)))
	assert.True(t, s.shouldRun(time.Date(2025, 3, 4, 0, 5, 0, 0, time.UTC)))
	assert.True(t, s.shouldRun(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)), "late start catches up")

	s.lastRunDate = "2025-03-04"
	assert.False(t, s.shouldRun(time.Date(2025, 3, 4, 0, 6, 0, 0, time.UTC)))
	assert.True(t, s.shouldRun(time.Date(2025, 3, 5, 0, 5, 0, 0, time.UTC)))
}

func TestRunOnce_TargetsYesterday(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	clock := &stubClock{t: time.Date(2025, 3, 4, 0, 5, 0, 0, loc)}
	marker := &recordingMarker{}
	s := NewAbsenceScheduler(testConfig(), marker, cache.NewInMemoryJobLock(), clock, zap.NewNop())

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	calls := marker.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2025-03-03", calls[0].Format(time.DateOnly))

	status := s.Status()
	assert.Empty(t, status.LastError)
	require.NotNil(t, status.LastRunAt)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, 1, status.LastResult.Created)
	require.NotNil(t, status.NextRunAt)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 5, 0, 0, loc), *status.NextRunAt)
}

func TestRunOnce_LockHeldElsewhere(t *testing.T) {
	lock := cache.NewInMemoryJobLock()
	ok, err := lock.Acquire(context.Background(), absenceLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	marker := &recordingMarker{}
	s := NewAbsenceScheduler(testConfig(), marker, lock, &stubClock{t: time.Now()}, zap.NewNop())

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrJobLocked)
	assert.Empty(t, marker.calls())
}

func TestRunOnce_ReleasesLockOnFailure(t *testing.T) {
	lock := cache.NewInMemoryJobLock()
	marker := &recordingMarker{err: errors.New("database gone")}
	s := NewAbsenceScheduler(testConfig(), marker, lock, &stubClock{t: time.Now()}, zap.NewNop())

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, "database gone", s.Status().LastError)

	ok, err := lock.Acquire(context.Background(), absenceLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock released after failed run")
}

func TestStartStop(t *testing.T) {
	clock := &stubClock{t: time.Date(2025, 3, 4, 0, 4, 0, 0, time.UTC)}
	marker := &recordingMarker{}
	s := NewAbsenceScheduler(testConfig(), marker, cache.NewInMemoryJobLock(), clock, zap.NewNop())
	s.tick = 5 * time.Millisecond

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	assert.True(t, s.Status().Running)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, marker.calls(), "not due yet")

	clock.set(time.Date(2025, 3, 4, 0, 5, 0, 0, time.UTC))
	testutil.RequireEventually(t, func() bool { return len(marker.calls()) == 1 }, time.Second, 5*time.Millisecond,
		"backfill runs once due")

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, marker.calls(), 1, "runs once per day")

	require.NoError(t, s.Stop(testutil.ContextWithTimeout(t, time.Second)))
	assert.False(t, s.Status().Running)
}

func TestStart_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	s := NewAbsenceScheduler(cfg, &recordingMarker{}, cache.NewInMemoryJobLock(), &stubClock{}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Status().Running)
	require.NoError(t, s.Stop(context.Background()))
}
