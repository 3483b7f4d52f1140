package middleware

import (
	"context"
	"errors"
	"strings"

	identityapp "github.com/atency/backend/internal/application/identity"
	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/auth"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth context keys
const (
	PrincipalKey  = "principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// PrincipalLoader resolves a token subject to the stored user
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, username string) (*identityapp.Principal, error)
}

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	Tokens     *auth.TokenService
	Principals PrincipalLoader
	Logger     *zap.Logger
}

// Authenticate verifies the bearer token and loads the caller. The role is
// taken from storage, so a demoted user loses access before the token expires.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortWithError(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing token")
			return
		}

		claims, err := cfg.Tokens.ParseClaims(token)
		if err != nil {
			log.Debug("Token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			if errors.Is(err, auth.ErrExpiredToken) {
				abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		principal, err := cfg.Principals.LoadPrincipal(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
				return
			}
			log.Error("Failed to load principal", zap.String("username", claims.Subject), zap.Error(err))
			abortWithError(c, dto.ErrCodeInternal, "An unexpected error occurred. Please contact support with the request id.")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(logger.GinUsernameKey, principal.Username)
		ctx, _ := logger.WithUsername(c.Request.Context(), logger.FromContext(c.Request.Context()), principal.Username)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, dto.ErrCodeForbidden, "Access denied")
	}
}

// GetPrincipal returns the authenticated caller, or nil
func GetPrincipal(c *gin.Context) *identityapp.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identityapp.Principal); ok {
			return p
		}
	}
	return nil
}
