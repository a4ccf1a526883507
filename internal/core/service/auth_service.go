package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

const TokenTypeBearer = "Bearer"

// dummyPassword is hashed once at construction and compared against when the
// username is unknown, so both login failure paths pay for one hash check.
const dummyPassword = "haitebooks-timing-equaliser"

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	audit     ports.AuditSink
	log       zerolog.Logger
	now       func() time.Time
	dummyHash string
}

// NewAuthService wires the authenticator. audit may be nil.
func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	audit ports.AuditSink,
	log zerolog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Encode(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare dummy hash: %w", err)
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		audit:     audit,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates a USER account. The username must not exist yet; the
// store's unique index settles races between concurrent registrations.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || in.Password == "" || email == "" {
		return nil, domain.ErrInvalidInput
	}
	if n := utf8.RuneCountInString(username); n < domain.MinUsernameLength || n > domain.MaxUsernameLength {
		return nil, fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidInput, domain.MinUsernameLength, domain.MaxUsernameLength)
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, domain.MaxPasswordBytes)
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if exists {
		s.record(domain.AuthEventRegister, username, in.RemoteIP, false, "username taken")
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Encode(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Address:      strings.TrimSpace(in.Address),
		Enabled:      true,
		Roles:        domain.DefaultRoles(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			s.record(domain.AuthEventRegister, username, in.RemoteIP, false, "username taken")
			return nil, domain.ErrUserExists
		case errors.Is(err, domain.ErrEmailExists):
			s.record(domain.AuthEventRegister, username, in.RemoteIP, false, "email taken")
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	s.record(domain.AuthEventRegister, username, in.RemoteIP, true, "")
	return created, nil
}

// Login verifies the credentials and issues a bearer token. Unknown user,
// wrong password and disabled account all return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password, remoteIP string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Matches(password, s.dummyHash)
			s.reject(username, remoteIP, "user not found")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: find user: %w", err)
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		s.reject(username, remoteIP, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		s.reject(username, remoteIP, "account disabled")
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("login succeeded")
	s.record(domain.AuthEventLogin, user.Username, remoteIP, true, "")
	return &ports.LoginResult{
		Token:     token,
		TokenType: TokenTypeBearer,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) reject(username, remoteIP, reason string) {
	s.log.Warn().Str("username", username).Str("reason", reason).Msg("login rejected")
	s.record(domain.AuthEventLogin, username, remoteIP, false, reason)
}

func (s *AuthService) record(typ domain.AuthEventType, username, remoteIP string, success bool, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.AuthEvent{
		Type:       typ,
		Username:   username,
		Success:    success,
		Reason:     reason,
		RemoteIP:   remoteIP,
		OccurredAt: s.now().UTC(),
	})
}
