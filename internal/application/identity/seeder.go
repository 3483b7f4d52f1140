package identity

import (
	"context"
	"errors"

	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Seeder makes sure the bootstrap admin account exists.
type Seeder struct {
	userRepo identity.UserRepository
	config   config.SeedConfig
	clock    shared.Clock
	logger   *zap.Logger
}

func NewSeeder(userRepo identity.UserRepository, cfg config.SeedConfig, clock shared.Clock, logger *zap.Logger) *Seeder {
	return &Seeder{userRepo: userRepo, config: cfg, clock: clock, logger: logger}
}

// SeedAdmin creates the configured admin unless a user with that name
// already exists. An existing user is left untouched, whatever its role.
// It reports whether a user was created.
func (s *Seeder) SeedAdmin(ctx context.Context) (bool, error) {
	if !s.config.Enabled {
		return false, nil
	}

	username := identity.NormalizeUsername(s.config.AdminUsername)
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug("Admin user already present", zap.String("username", username))
		return false, nil
	}

	admin, err := identity.NewUser(username, s.config.AdminPassword, s.config.AdminFullName, identity.RoleAdmin, s.clock.Now())
	if err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// another replica seeded it first
		if errors.Is(err, shared.ErrConflict) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("Seeded admin user", zap.String("username", admin.Username))
	return true, nil
}
