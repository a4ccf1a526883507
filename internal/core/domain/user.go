package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account field limits. Username bounds count characters; the password bound
// counts bytes because bcrypt refuses anything longer.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxPasswordBytes  = 72
)

// DefaultRoles is the role set assigned at registration.
func DefaultRoles() []string {
	return []string{RoleUser}
}

// User models a registered bookstore account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	Address      string    `json:"address,omitempty"`
	Enabled      bool      `json:"enabled"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeRoles upper-cases, trims and de-duplicates roles, dropping blanks.
// Order of first appearance is kept.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
