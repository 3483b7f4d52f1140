package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrMissingSecret    = errors.New("jwt secret is not configured")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
)

// Claims are the JWT claims issued to authenticated users. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Principal is the identity a token is issued for
type Principal struct {
	Username string
	Role     string
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// Option configures a TokenService
type Option func(*TokenService)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService derives key material once. A missing secret is an error
// so the server can refuse to start.
func NewTokenService(cfg config.JWTConfig, opts ...Option) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	s := &TokenService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.Expiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for p. It returns the token and its expiry.
func (s *TokenService) Issue(p Principal) (string, time.Time, error) {
	if p.Username == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	now := s.now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: p.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseClaims verifies signature, algorithm, issuer and expiry and returns the claims.
func (s *TokenService) ParseClaims(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// ExtractUsername returns the token subject. Parse failures are returned as is.
func (s *TokenService) ExtractUsername(tokenString string) (string, error) {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Validate reports whether the token is well formed, was issued for
// expectedUsername and has not expired. It never returns an error; any
// failure means false.
func (s *TokenService) Validate(tokenString, expectedUsername string) bool {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return false
	}
	if claims.Subject != expectedUsername {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.After(s.now())
}

// Expiration returns the configured token lifetime
func (s *TokenService) Expiration() time.Duration {
	return s.expiration
}
