package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling labels
const (
	ProfilingLabelRoute  = "route"
	ProfilingLabelMethod = "method"
)

// Profiling tags CPU samples taken while serving a request with its route
// pattern and method so profiles can be filtered per endpoint. Requests that
// match no route are not labeled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := pyroscope.Labels(ProfilingLabelRoute, route, ProfilingLabelMethod, c.Request.Method)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
