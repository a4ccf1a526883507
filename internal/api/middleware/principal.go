package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

const principalKey = "principal"

type principalCtxKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal set by the filter, if any.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// SetPrincipal attaches p to both the echo context and the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
	req := c.Request()
	c.SetRequest(req.WithContext(ContextWithPrincipal(req.Context(), p)))
}

// PrincipalFrom returns the principal stored on the echo context.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}
