package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	attendanceapp "github.com/atency/backend/internal/application/attendance"
	identityapp "github.com/atency/backend/internal/application/identity"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/atency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func do(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// asUser stands in for the Authenticate middleware
func asUser(username string, role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, &identityapp.Principal{
			UserID:   uuid.New(),
			Username: username,
			Role:     role,
		})
		c.Next()
	}
}

var monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input identityapp.RegisterInput) (*identityapp.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input identityapp.LoginInput) (*identityapp.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResult), args.Error(1)
}

type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) CheckIn(ctx context.Context, username string) (*attendanceapp.RecordView, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendanceapp.RecordView), args.Error(1)
}

func (m *MockAttendanceService) CheckOut(ctx context.Context, username string) (*attendanceapp.RecordView, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendanceapp.RecordView), args.Error(1)
}

func (m *MockAttendanceService) GetMyRecords(ctx context.Context, username string) ([]attendanceapp.RecordView, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attendanceapp.RecordView), args.Error(1)
}

func (m *MockAttendanceService) GetMySummary(ctx context.Context, username string) (*attendanceapp.SummaryView, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendanceapp.SummaryView), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) GetAllRecords(ctx context.Context) ([]attendanceapp.RecordView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attendanceapp.RecordView), args.Error(1)
}

func (m *MockAdminService) GetRecordsByUserID(ctx context.Context, userID uuid.UUID) ([]attendanceapp.RecordView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attendanceapp.RecordView), args.Error(1)
}

func (m *MockAdminService) ExportRecords(ctx context.Context, userID *uuid.UUID) (*attendanceapp.ExportFile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendanceapp.ExportFile), args.Error(1)
}

func (m *MockAdminService) MarkAbsentForDate(ctx context.Context, date time.Time) (*attendanceapp.BackfillResult, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendanceapp.BackfillResult), args.Error(1)
}
