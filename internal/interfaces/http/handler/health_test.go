package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		ping    pingFunc
		status  int
		success bool
		state   string
	}{
		{"up", func(context.Context) error { return nil }, http.StatusOK, true, StatusUp},
		{"database down", func(context.Context) error { return errors.New("refused") }, http.StatusServiceUnavailable, false, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.ping, "1.2.3")
			r := gin.New()
			r.GET("/health", h.Health)

			w := do(r, http.MethodGet, "/health", nil)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.success, env.Success)
			require.NotEmpty(t, env.Data)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tt.state, resp.Status)
			assert.Equal(t, tt.state, resp.Database)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.NotEmpty(t, resp.GoVersion)
		})
	}
}

func TestHealthHandler_PingHasDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler(pingFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}), "dev")
	r := gin.New()
	r.GET("/health", h.Health)

	do(r, http.MethodGet, "/health", nil)
	assert.True(t, hasDeadline)
}
