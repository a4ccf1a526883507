package ports

import (
	"context"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// AuthEventRepository persists the authentication audit trail.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService records a single auth event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}
