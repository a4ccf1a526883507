package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuditService returns the AuditService the dispatcher workers call.
func NewAuditService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists one auth event.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}
	s.log.Debug().
		Str("type", string(event.Type)).
		Str("username", event.Username).
		Bool("success", event.Success).
		Msg("auth event recorded")
	return nil
}
