package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminAttendanceService is what administrators can do with all records
type AdminAttendanceService interface {
	GetAllRecords(ctx context.Context) ([]attendanceapp.RecordView, error)
	GetRecordsByUserID(ctx context.Context, userID uuid.UUID) ([]attendanceapp.RecordView, error)
	ExportRecords(ctx context.Context, userID *uuid.UUID) (*attendanceapp.ExportFile, error)
	MarkAbsentForDate(ctx context.Context, date time.Time) (*attendanceapp.BackfillResult, error)
}

// BackfillSchedule reports the state of the daily absence backfill
type BackfillSchedule interface {
	Status() attendanceapp.ScheduleStatus
}

// AdminAttendanceHandler serves the ADMIN-only attendance endpoints
type AdminAttendanceHandler struct {
	BaseHandler
	service  AdminAttendanceService
	clock    shared.Clock
	schedule BackfillSchedule
}

// NewAdminAttendanceHandler creates a new admin handler. The clock decides
// which day "yesterday" is for a backfill without a date.
func NewAdminAttendanceHandler(service AdminAttendanceService, clock shared.Clock) *AdminAttendanceHandler {
	return &AdminAttendanceHandler{service: service, clock: clock}
}

// WithSchedule attaches the scheduler reported by ScheduleStatus
func (h *AdminAttendanceHandler) WithSchedule(schedule BackfillSchedule) *AdminAttendanceHandler {
	h.schedule = schedule
	return h
}

// GetAllRecords godoc
// @ID           getAllRecords
// @Summary      List all records
// @Description  Returns every user's records with owner details, newest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]RecordResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/attendance/all [get]
func (h *AdminAttendanceHandler) GetAllRecords(c *gin.Context) {
	views, err := h.service.GetAllRecords(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponses(views))
}

// GetRecordsByUser godoc
// @ID           getRecordsByUser
// @Summary      List one user's records
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[[]RecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/attendance/{userId} [get]
func (h *AdminAttendanceHandler) GetRecordsByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}
	views, err := h.service.GetRecordsByUserID(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponses(views))
}

// ExportRecords godoc
// @ID           exportRecords
// @Summary      Download records as a spreadsheet
// @Description  All records, or one user's when userId is given
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        userId query string false "User ID" format(uuid)
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/attendance/export [get]
func (h *AdminAttendanceHandler) ExportRecords(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid user ID format")
			return
		}
		userID = &id
	}

	file, err := h.service.ExportRecords(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Backfill godoc
// @ID           backfillAbsences
// @Summary      Mark absences for a day
// @Description  Creates ABSENT records for users without a record on the date. Defaults to yesterday.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BackfillRequest false "Day to backfill"
// @Success      200 {object} APIResponse[BackfillResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/attendance/backfill [post]
func (h *AdminAttendanceHandler) Backfill(c *gin.Context) {
	var req BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.HandleBindError(c, err)
		return
	}

	date := h.clock.Now().AddDate(0, 0, -1)
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.service.MarkAbsentForDate(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBackfillResponse(result))
}

// ScheduleStatus godoc
// @ID           backfillScheduleStatus
// @Summary      Absence backfill schedule
// @Description  When the daily backfill runs and how its last run went
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[ScheduleStatusResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /admin/attendance/schedule [get]
func (h *AdminAttendanceHandler) ScheduleStatus(c *gin.Context) {
	var status attendanceapp.ScheduleStatus
	if h.schedule != nil {
		status = h.schedule.Status()
	}
	h.Success(c, toScheduleStatusResponse(status))
}
