package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "atency:ratelimit:"

// RateLimitStore counts hits per key in fixed windows. Hit returns the count
// including this hit and the time left until the window resets.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type window struct {
	count   int64
	resetAt time.Time
}

// InMemoryRateLimitStore keeps counters in a map swept in the background.
type InMemoryRateLimitStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	stop      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryRateLimitStore starts a sweeper that runs every sweepEvery
func NewInMemoryRateLimitStore(sweepEvery time.Duration) *InMemoryRateLimitStore {
	s := &InMemoryRateLimitStore{
		windows: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go s.sweepLoop(sweepEvery)
	}
	return s
}

func (s *InMemoryRateLimitStore) Hit(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (s *InMemoryRateLimitStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryRateLimitStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

// Close stops the sweeper
func (s *InMemoryRateLimitStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// RedisRateLimitStore shares counters across instances with INCR and PEXPIRE.
type RedisRateLimitStore struct {
	client redis.UniversalClient
}

func NewRedisRateLimitStore(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	fullKey := rateLimitKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	// NX keeps the first hit's expiry so the window does not slide
	pipe.ExpireNX(ctx, fullKey, d)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to record hit for %s: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = d
	}
	return incr.Val(), remaining, nil
}

var (
	_ RateLimitStore = (*InMemoryRateLimitStore)(nil)
	_ RateLimitStore = (*RedisRateLimitStore)(nil)
)
