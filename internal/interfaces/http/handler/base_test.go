package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/atency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorRouter(err error) *gin.Engine {
	h := &BaseHandler{}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { h.HandleError(c, err) })
	return r
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.NewNotFoundError("User"), http.StatusNotFound, dto.ErrCodeNotFound, ""},
		{"bad request", shared.NewBadRequestError("Already checked in today"), http.StatusBadRequest, dto.ErrCodeBadRequest, "Already checked in today"},
		{"unauthorized", shared.NewUnauthorizedError("Invalid username or password"), http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid username or password"},
		{"forbidden", shared.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrCodeForbidden, "nope"},
		{"conflict", shared.NewConflictError("dup"), http.StatusConflict, dto.ErrCodeConflict, "dup"},
		{"wrapped domain error", fmt.Errorf("ctx: %w", shared.NewBadRequestError("wrapped")), http.StatusBadRequest, dto.ErrCodeBadRequest, "wrapped"},
		{"internal domain error hides message", shared.NewInternalError("db exploded", errors.New("boom")), http.StatusInternalServerError, dto.ErrCodeInternal, MsgUnexpectedError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, MsgUnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			errorRouter(tt.err).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, "req-1", env.Error.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	err := shared.NewValidationError("Invalid input", map[string]string{"username": "taken", "date": "bad"})
	w := do(errorRouter(err), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	require.Len(t, env.Error.Details, 2)
	assert.Equal(t, "date", env.Error.Details[0].Field)
	assert.Equal(t, "username", env.Error.Details[1].Field)
}

func TestHandleBindError(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/limited", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindError(c, err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		w := do(r, http.MethodPost, "/", strings.NewReader("{not json"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w).Error.Code)
	})

	t.Run("field details", func(t *testing.T) {
		w := do(r, http.MethodPost, "/", jsonBody(t, map[string]string{"username": "x y", "password": "12"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		fields := map[string]bool{}
		for _, d := range env.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["username"])
		assert.True(t, fields["password"])
		assert.True(t, fields["fullName"])
	})

	t.Run("body too large", func(t *testing.T) {
		w := do(r, http.MethodPost, "/limited", jsonBody(t, map[string]string{"username": "alice-with-a-long-name"}))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decode(t, w).Error.Code)
	})

	t.Run("valid body", func(t *testing.T) {
		w := do(r, http.MethodPost, "/", jsonBody(t, map[string]string{"username": "alice", "password": "secret1", "fullName": "Alice"}))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
