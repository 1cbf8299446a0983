package repositories

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
)

// UserRepository persists user records.
type UserRepository interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by id.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsername retrieves a user by username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateUser updates mutable user fields.
	UpdateUser(ctx context.Context, user domain.User) error

	// DeactivateUser marks a user inactive (soft delete).
	DeactivateUser(ctx context.Context, userID string) error
}
