package persistence

import (
	"context"
	"errors"

	"github.com/atency/backend/internal/domain/identity"
	"github.com/atency/backend/internal/domain/shared"
	"github.com/atency/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MsgUserNotFound is the NOT_FOUND message for missing users
const MsgUserNotFound = "User not found"

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a user. A taken username becomes a CONFLICT error.
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	err := conn(ctx, r.db).Create(models.UserModelFromDomain(user)).Error
	return translateWriteError(err, "Username already exists")
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(MsgUserNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsername finds a user by normalized username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := conn(ctx, r.db).
		Where("username = ?", identity.NormalizeUsername(username)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(MsgUserNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByUsername checks if a username is taken
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("username = ?", identity.NormalizeUsername(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll returns every user ordered by username
func (r *GormUserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := conn(ctx, r.db).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, nil
}

// Ensure GormUserRepository implements the interface
var _ identity.UserRepository = (*GormUserRepository)(nil)
