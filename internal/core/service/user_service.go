package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// UserService covers profile lookups, role management and the per-request
// principal re-resolution used by the authorization filter.
type UserService struct {
	repo  ports.UserRepository
	cache ports.PrincipalCache
	log   zerolog.Logger
}

// NewUserService returns a UserService. cache may be nil.
func NewUserService(repo ports.UserRepository, cache ports.PrincipalCache, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, cache: cache, log: log}
}

// ResolvePrincipal returns the caller's current roles. The store is
// authoritative: a missing or disabled account is rejected even when its
// token is still within its validity window.
func (s *UserService) ResolvePrincipal(ctx context.Context, username string) (*domain.Principal, error) {
	state, err := s.principalState(ctx, username)
	if err != nil {
		return nil, err
	}
	if !state.Enabled {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	return &domain.Principal{Username: username, Roles: state.Roles}, nil
}

func (s *UserService) principalState(ctx context.Context, username string) (*domain.PrincipalState, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("principal cache read failed, using store")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	state := domain.PrincipalState{Roles: domain.NormalizeRoles(user.Roles), Enabled: user.Enabled}
	if s.cache != nil {
		if err := s.cache.Set(ctx, username, state); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("principal cache write failed")
		}
	}
	return &state, nil
}

func (s *UserService) Profile(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// UpdateRoles replaces the role set of username. The set must stay non-empty.
func (s *UserService) UpdateRoles(ctx context.Context, username string, roles []string) error {
	roles = domain.NormalizeRoles(roles)
	if strings.TrimSpace(username) == "" || len(roles) == 0 {
		return domain.ErrInvalidInput
	}
	if err := s.repo.UpdateRoles(ctx, username, roles); err != nil {
		return err
	}
	s.invalidate(ctx, username)
	s.log.Info().Str("username", username).Strs("roles", roles).Msg("roles updated")
	return nil
}

// SetEnabled soft-enables or disables an account.
func (s *UserService) SetEnabled(ctx context.Context, username string, enabled bool) error {
	if strings.TrimSpace(username) == "" {
		return domain.ErrInvalidInput
	}
	if err := s.repo.SetEnabled(ctx, username, enabled); err != nil {
		return err
	}
	s.invalidate(ctx, username)
	s.log.Info().Str("username", username).Bool("enabled", enabled).Msg("account status changed")
	return nil
}

func (s *UserService) invalidate(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("principal cache invalidation failed")
	}
}
