package handler

import (
	"context"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AttendanceService is what employees can do with their own records
type AttendanceService interface {
	CheckIn(ctx context.Context, username string) (*attendanceapp.RecordView, error)
	CheckOut(ctx context.Context, username string) (*attendanceapp.RecordView, error)
	GetMyRecords(ctx context.Context, username string) ([]attendanceapp.RecordView, error)
	GetMySummary(ctx context.Context, username string) (*attendanceapp.SummaryView, error)
}

// AttendanceHandler serves the caller's own attendance
type AttendanceHandler struct {
	BaseHandler
	service AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// caller returns the authenticated username or answers 401.
func (h *AttendanceHandler) caller(c *gin.Context) (string, bool) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		h.Unauthorized(c, "Authentication required")
		return "", false
	}
	return p.Username, true
}

// CheckIn godoc
// @ID           checkIn
// @Summary      Check in for today
// @Description  Records the check-in time for the current working day
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} APIResponse[RecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	username, ok := h.caller(c)
	if !ok {
		return
	}
	view, err := h.service.CheckIn(c.Request.Context(), username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRecordResponse(*view))
}

// CheckOut godoc
// @ID           checkOut
// @Summary      Check out for today
// @Description  Records the check-out time and the worked duration
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[RecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /attendance/check-out [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	username, ok := h.caller(c)
	if !ok {
		return
	}
	view, err := h.service.CheckOut(c.Request.Context(), username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(*view))
}

// GetMyRecords godoc
// @ID           getMyRecords
// @Summary      List my records
// @Description  Returns the caller's records, newest first
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]RecordResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /attendance/my-records [get]
func (h *AttendanceHandler) GetMyRecords(c *gin.Context) {
	username, ok := h.caller(c)
	if !ok {
		return
	}
	views, err := h.service.GetMyRecords(c.Request.Context(), username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponses(views))
}

// GetMySummary godoc
// @ID           getMySummary
// @Summary      Summarize my attendance
// @Description  Present and absent day counts and total worked time
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[SummaryResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /attendance/my-summary [get]
func (h *AttendanceHandler) GetMySummary(c *gin.Context) {
	username, ok := h.caller(c)
	if !ok {
		return
	}
	summary, err := h.service.GetMySummary(c.Request.Context(), username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSummaryResponse(summary))
}
