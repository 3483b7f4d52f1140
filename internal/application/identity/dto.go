package identity

import (
	"time"

	"github.com/atency/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// TokenTypeBearer is the only token type issued
const TokenTypeBearer = "Bearer"

// RegisterInput contains the input for self-registration
type RegisterInput struct {
	Username string
	Password string
	FullName string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	Username  string
	Role      identity.Role
}

// Principal is the authenticated caller as resolved from storage
type Principal struct {
	UserID   uuid.UUID
	Username string
	FullName string
	Role     identity.Role
}

// IsAdmin reports whether the principal holds the ADMIN role
func (p *Principal) IsAdmin() bool {
	return p.Role == identity.RoleAdmin
}

func principalOf(u *identity.User) *Principal {
	return &Principal{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}
