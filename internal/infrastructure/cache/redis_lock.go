package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "atency:lock:"

// releaseScript deletes the key only while it still carries our token, so a
// holder whose TTL expired cannot free a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobLock implements JobLock with SET NX PX, shared by every instance
// pointing at the same Redis.
type RedisJobLock struct {
	client redis.UniversalClient
	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisJobLock wraps an existing client
func NewRedisJobLock(client redis.UniversalClient) *RedisJobLock {
	return &RedisJobLock{client: client, tokens: make(map[string]string)}
}

func (l *RedisJobLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if ok {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *RedisJobLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

var _ JobLock = (*RedisJobLock)(nil)
