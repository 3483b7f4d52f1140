package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence for users. Find methods return a
// NOT_FOUND DomainError when no user matches.
type UserRepository interface {
	// Create inserts a new user. A duplicate username yields a CONFLICT DomainError.
	Create(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername looks up by the normalized username
	FindByUsername(ctx context.Context, username string) (*User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// FindAll returns every user ordered by username
	FindAll(ctx context.Context) ([]*User, error)
}
