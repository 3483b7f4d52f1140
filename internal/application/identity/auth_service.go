package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/auth"
	"github.com/atency/backend/internal/infrastructure/logger"
	"github.com/atency/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Client-facing messages
const (
	MsgUsernameTaken      = "Username already exists"
	MsgInvalidCredentials = "Invalid username or password"
)

// AuthService registers users, logs them in and resolves token subjects.
type AuthService struct {
	userRepo identity.UserRepository
	tokens   *auth.TokenService
	clock    shared.Clock
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tokens *auth.TokenService,
	clock shared.Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		clock:    clock,
		logger:   logger,
	}
}

// Register creates an EMPLOYEE account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "Register")
	defer func() { telemetry.EndSpan(span, err) }()

	username := identity.NormalizeUsername(input.Username)
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.For(ctx, s.logger).Info("Registration rejected, username taken", zap.String("username", username))
		return nil, shared.NewBadRequestError(MsgUsernameTaken)
	}

	user, err := identity.NewUser(username, input.Password, input.FullName, identity.RoleEmployee, s.clock.Now())
	if err != nil {
		return nil, err
	}
	// a concurrent registration of the same name surfaces here as CONFLICT
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("User registered",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login verifies credentials. Unknown users and wrong passwords get the same
// answer so usernames cannot be probed.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "Login")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if errors.Is(err, shared.ErrNotFound) {
		// spend the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(input.Password))
		logger.For(ctx, s.logger).Warn("Login failed, unknown user", zap.String("username", identity.NormalizeUsername(input.Username)))
		return nil, shared.NewUnauthorizedError(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		logger.For(ctx, s.logger).Warn("Login failed, wrong password", zap.String("username", user.Username))
		return nil, shared.NewUnauthorizedError(MsgInvalidCredentials)
	}

	span.SetAttributes(attribute.String("user.role", user.Role.String()))
	logger.For(ctx, s.logger).Info("User logged in", zap.String("username", user.Username))
	return s.issue(user)
}

// LoadPrincipal resolves a token subject to the stored user. The role comes
// from storage, never from the token.
func (s *AuthService) LoadPrincipal(ctx context.Context, username string) (*Principal, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return principalOf(user), nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(auth.Principal{
		Username: user.Username,
		Role:     user.Role.String(),
	})
	if err != nil {
		return nil, shared.NewInternalError("Failed to generate authentication token", err)
	}
	return &AuthResult{
		Token:     token,
		TokenType: TokenTypeBearer,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue []byte
)

func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), identity.BcryptCost)
	})
	return dummyHashValue
}
