package ports

import (
	"context"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// UserRepository is the credential store. Implementations must enforce
// username and email uniqueness themselves so that concurrent Create calls
// for the same username cannot both succeed.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no record matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Create persists a new user and assigns its ID. Returns domain.ErrUserExists
	// or domain.ErrEmailExists on a uniqueness violation.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRoles(ctx context.Context, username string, roles []string) error
	SetEnabled(ctx context.Context, username string, enabled bool) error
}
