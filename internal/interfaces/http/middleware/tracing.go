package middleware

import (
	"net/http"

	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin. Span names
// follow "METHOD /route/pattern".
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanEnricher must run after Tracing. It tags the server span with the
// request id and, once the chain has run, the authenticated caller. Server
// errors and auth failures mark the span failed.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Next()

		if user := c.GetString(logger.GinUsernameKey); user != "" {
			span.SetAttributes(attribute.String("enduser.id", user))
		}
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, "Internal Server Error")
		case status == http.StatusUnauthorized:
			span.SetStatus(codes.Error, "Unauthorized")
		case status == http.StatusForbidden:
			span.SetStatus(codes.Error, "Forbidden")
		}
	}
}
