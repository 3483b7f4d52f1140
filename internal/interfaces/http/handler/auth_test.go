package handler

import (
	"net/http"
	"testing"
	"time"

	identityapp "github.com/atency/backend/internal/application/identity"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func authRouter(svc *MockAuthService) *gin.Engine {
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func authResult(username string, role identity.Role) *identityapp.AuthResult {
	return &identityapp.AuthResult{
		Token:     "signed.jwt.token",
		TokenType: identityapp.TokenTypeBearer,
		ExpiresAt: monday.Add(24 * time.Hour),
		Username:  username,
		Role:      role,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, identityapp.RegisterInput{
			Username: "alice", Password: "secret1", FullName: "Alice Smith",
		}).Return(authResult("alice", identity.RoleEmployee), nil)

		w := do(authRouter(svc), http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
			"username": "alice", "password": "secret1", "fullName": "Alice Smith",
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeData[AuthResponse](t, w)
		assert.Equal(t, "signed.jwt.token", resp.AccessToken)
		assert.Equal(t, "signed.jwt.token", decodeData[map[string]any](t, w)["accessToken"])
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, "EMPLOYEE", resp.Role)
		assert.True(t, monday.Add(24*time.Hour).Equal(resp.ExpiresAt))
		svc.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, mock.Anything).
			Return(nil, shared.NewBadRequestError(identityapp.MsgUsernameTaken))

		w := do(authRouter(svc), http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
			"username": "alice", "password": "secret1", "fullName": "Alice Smith",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
		assert.Equal(t, identityapp.MsgUsernameTaken, env.Error.Message)
	})

	t.Run("invalid body never reaches the service", func(t *testing.T) {
		svc := new(MockAuthService)
		w := do(authRouter(svc), http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
			"username": "al", "password": "1234",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, identityapp.LoginInput{Username: "admin", Password: "12345"}).
			Return(authResult("admin", identity.RoleAdmin), nil)

		w := do(authRouter(svc), http.MethodPost, "/auth/login", jsonBody(t, map[string]string{
			"username": "admin", "password": "12345",
		}))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeData[AuthResponse](t, w)
		assert.Equal(t, "ADMIN", resp.Role)
		svc.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).
			Return(nil, shared.NewUnauthorizedError(identityapp.MsgInvalidCredentials))

		w := do(authRouter(svc), http.MethodPost, "/auth/login", jsonBody(t, map[string]string{
			"username": "admin", "password": "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
		assert.Equal(t, identityapp.MsgInvalidCredentials, env.Error.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := do(authRouter(new(MockAuthService)), http.MethodPost, "/auth/login", jsonBody(t, map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, decode(t, w).Error.Details, 2)
	})
}
