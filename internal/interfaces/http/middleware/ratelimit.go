package middleware

import (
	"strconv"
	"time"

	"github.com/atency/backend/internal/infrastructure/cache"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for the rate limiting middleware
type RateLimitConfig struct {
	Store  cache.RateLimitStore
	Limit  int
	Window time.Duration
	// Scope namespaces keys so several limiters can share one store
	Scope   string
	KeyFunc func(*gin.Context) string
	Logger  *zap.Logger
}

// RateLimit allows Limit requests per Window and key. When the store fails
// the request is let through and the failure logged.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		key := cfg.Scope + ":" + keyFunc(c)
		count, ttl, err := cfg.Store.Hit(c.Request.Context(), key, cfg.Window)
		if err != nil {
			log.Warn("Rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			retryAfter := int(ttl.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
