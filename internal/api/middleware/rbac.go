package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// RequireRole enforces role-based access control. The principal needs at least
// one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if !p.HasAnyRole(roles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
