package logger

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys shared with the HTTP middleware.
const (
	GinRequestIDKey = "request_id"
	GinUsernameKey  = "username"
	ginLoggerKey    = "logger"

	anonymousUser = "anonymous"
	redacted      = "REDACTED"
)

var sensitiveParams = map[string]struct{}{
	"password":      {},
	"pass":          {},
	"pwd":           {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
	"auth":          {},
	"secret":        {},
	"jwt":           {},
	"apikey":        {},
	"api_key":       {},
	"api-key":       {},
}

// GinMiddleware logs one line per request. Sensitive query parameters are
// masked, and the authenticated username (set later in the chain by the JWT
// middleware) is read back after the handler has run.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetString(GinRequestIDKey)

		reqLogger := logger.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)

		c.Set(ginLoggerKey, reqLogger)
		ctx := c.Request.Context()
		if requestID != "" {
			ctx, _ = WithRequestID(ctx, logger, requestID)
		}
		c.Request = c.Request.WithContext(WithContext(ctx, reqLogger))

		c.Next()

		status := c.Writer.Status()
		user := c.GetString(GinUsernameKey)
		if user == "" {
			user = anonymousUser
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("user", user),
			zap.Time("start_time", start),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}

		if params := RedactQuery(c.Request.URL.Query()); params != "" {
			fields = append(fields, zap.String("params", params))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		msg := "HTTP Request"
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn(msg, fields...)
		default:
			reqLogger.Info(msg, fields...)
		}
	}
}

// RedactQuery renders query parameters as "k=v&k2=v2" with sensitive keys masked.
func RedactQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	masked := make(url.Values, len(values))
	for key, vals := range values {
		if IsSensitiveParam(key) {
			masked[key] = []string{redacted}
			continue
		}
		masked[key] = vals
	}
	// Encode sorts by key, so output is stable
	out, err := url.QueryUnescape(masked.Encode())
	if err != nil {
		return masked.Encode()
	}
	return out
}

// IsSensitiveParam reports whether a parameter name must never be logged.
func IsSensitiveParam(name string) bool {
	_, ok := sensitiveParams[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Recovery recovers from panics, logs them, and answers with the internal error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString(GinRequestIDKey)

				logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":       "ERR_INTERNAL",
						"message":    "An unexpected error occurred. Please contact support with the request id.",
						"request_id": requestID,
					},
				})
			}
		}()
		c.Next()
	}
}

// GetGinLogger retrieves the request-scoped logger from gin context
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ginLoggerKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return zap.NewNop()
}
