package ports

import (
	"context"
	"time"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName string
	Address  string
	RemoteIP string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password, remoteIP string) (*LoginResult, error)
}

// PasswordHasher is a one-way adaptive hash.
type PasswordHasher interface {
	Encode(plaintext string) (string, error)
	// Matches compares in constant time.
	Matches(plaintext, hash string) bool
}

// TokenIssuer issues and validates signed bearer tokens.
type TokenIssuer interface {
	Issue(subject string, roles []string) (token string, expiresAt time.Time, err error)
	// Validate returns domain.ErrTokenExpired or domain.ErrTokenMalformed on failure.
	Validate(token string) (*domain.Principal, error)
}

// AuditSink receives auth events for asynchronous persistence.
type AuditSink interface {
	Enqueue(event domain.AuthEvent)
}
