package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health states
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

const defaultPingTimeout = 2 * time.Second

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	BaseHandler
	db        Pinger
	version   string
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   version,
		timeout:   defaultPingTimeout,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
// @name HealthResponse
type HealthResponse struct {
	Status    string `json:"status" example:"UP"`
	Database  string `json:"database" example:"UP"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"goVersion" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Returns 503 when the database cannot be reached
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    StatusUp,
		Database:  StatusUp,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = StatusDown
		resp.Database = StatusDown
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}

	h.Success(c, resp)
}
