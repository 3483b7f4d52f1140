package handler

import (
	"time"

	identityapp "github.com/atency/backend/internal/application/identity"
)

// RegisterRequest represents the request body for self-registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required,username" example:"alice"`
	Password string `json:"password" binding:"required,min=5,max=72" example:"secret1"`
	FullName string `json:"fullName" binding:"required,max=100" example:"Alice Smith"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"alice"`
	Password string `json:"password" binding:"required,max=72" example:"secret1"`
}

// AuthResponse is returned by register and login
// @name AuthResponse
type AuthResponse struct {
	AccessToken string    `json:"accessToken" example:"eyJhbGciOiJIUzI1NiJ9..."`
	TokenType   string    `json:"tokenType" example:"Bearer"`
	ExpiresAt   time.Time `json:"expiresAt" example:"2025-03-04T09:00:00Z"`
	Username    string    `json:"username" example:"alice"`
	Role        string    `json:"role" example:"EMPLOYEE"`
}

func toAuthResponse(r *identityapp.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken: r.Token,
		TokenType:   r.TokenType,
		ExpiresAt:   r.ExpiresAt.UTC(),
		Username:    r.Username,
		Role:        string(r.Role),
	}
}
