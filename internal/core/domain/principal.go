package domain

import "strings"

// Principal is the identity established for a single request.
type Principal struct {
	Username string
	Roles    []string
}

// HasRole reports whether role is in the principal's role set.
func (p Principal) HasRole(role string) bool {
	role = strings.ToUpper(strings.TrimSpace(role))
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// PrincipalState is the cached, non-sensitive part of a user record that
// authorization depends on.
type PrincipalState struct {
	Roles   []string `json:"roles"`
	Enabled bool     `json:"enabled"`
}
