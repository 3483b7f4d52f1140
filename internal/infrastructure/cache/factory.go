package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRedisDisabled is returned by Connect when no Redis host is configured
var ErrRedisDisabled = errors.New("redis disabled")

// Connect opens a Redis client and pings it within 5 seconds.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrRedisDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Backends holds the shared-state implementations picked at startup.
type Backends struct {
	JobLock        JobLock
	RateLimitStore RateLimitStore
	Distributed    bool
	closers        []func() error
}

// Close releases the Redis client or stops the in-memory sweeper
func (b *Backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewBackends uses Redis when it is configured and reachable. Otherwise it
// falls back to process-local state, which is only safe for a single instance.
func NewBackends(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Backends {
	client, err := Connect(ctx, cfg)
	if err == nil {
		logger.Info("Using Redis for job locks and rate limiting", zap.String("addr", cfg.Addr()))
		return &Backends{
			JobLock:        NewRedisJobLock(client),
			RateLimitStore: NewRedisRateLimitStore(client),
			Distributed:    true,
			closers:        []func() error{client.Close},
		}
	}

	if errors.Is(err, ErrRedisDisabled) {
		logger.Info("Redis not configured, using in-memory job locks and rate limiting")
	} else {
		logger.Warn("Redis unavailable, falling back to in-memory job locks and rate limiting. "+
			"Multiple instances may each run the absence backfill.",
			zap.Error(err),
		)
	}

	store := NewInMemoryRateLimitStore(time.Minute)
	return &Backends{
		JobLock:        NewInMemoryJobLock(),
		RateLimitStore: store,
		closers:        []func() error{store.Close},
	}
}
