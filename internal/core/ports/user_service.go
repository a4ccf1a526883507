package ports

import (
	"context"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// PrincipalCache holds the authorization-relevant state of a user for a short
// time. A miss is reported as (nil, nil). After Invalidate, a Set computed
// from a store read that predates the change must not resurrect the entry.
type PrincipalCache interface {
	Get(ctx context.Context, username string) (*domain.PrincipalState, error)
	Set(ctx context.Context, username string, state domain.PrincipalState) error
	Invalidate(ctx context.Context, username string) error
}

type UserService interface {
	// ResolvePrincipal re-reads the caller's roles and enabled flag. Unknown or
	// disabled users yield domain.ErrUnauthorized.
	ResolvePrincipal(ctx context.Context, username string) (*domain.Principal, error)
	Profile(ctx context.Context, username string) (*domain.User, error)
	UpdateRoles(ctx context.Context, username string, roles []string) error
	SetEnabled(ctx context.Context, username string, enabled bool) error
}
