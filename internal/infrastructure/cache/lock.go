package cache

import (
	"context"
	"sync"
	"time"
)

// JobLock guards a job so that only one process runs it at a time.
// Acquire returns false when another holder owns key.
type JobLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// InMemoryJobLock is a process-local JobLock for single-instance deployments and tests
type InMemoryJobLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewInMemoryJobLock creates an empty lock table
func NewInMemoryJobLock() *InMemoryJobLock {
	return &InMemoryJobLock{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *InMemoryJobLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

func (l *InMemoryJobLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.locks, key)
	l.mu.Unlock()
	return nil
}

var _ JobLock = (*InMemoryJobLock)(nil)
