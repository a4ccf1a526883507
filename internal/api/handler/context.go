package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/api/middleware"
	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// ctxPrincipal returns the principal established by the request filter. Its
// absence on a protected route means the route was registered without
// RequireAuthenticated, so the request is treated as anonymous.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return *p, nil
}
