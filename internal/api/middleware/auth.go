package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/api/metrics"
	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// RouteRule marks a path pattern as bypassing the filter. A pattern ending in
// "/**" matches the prefix itself and everything below it; any other pattern
// must match the path exactly.
type RouteRule struct {
	Pattern string
	Bypass  bool
}

// DefaultRules is the public surface of the API.
var DefaultRules = []RouteRule{
	{Pattern: "/api/auth/**", Bypass: true},
	{Pattern: "/swagger/**", Bypass: true},
	{Pattern: "/swagger-ui/**", Bypass: true},
	{Pattern: "/swagger-ui.html", Bypass: true},
	{Pattern: "/v3/api-docs/**", Bypass: true},
	{Pattern: "/api/ai/**", Bypass: true},
	{Pattern: "/health", Bypass: true},
	{Pattern: "/health/**", Bypass: true},
	{Pattern: "/metrics", Bypass: true},
}

// TokenValidator checks a bearer token and returns the principal it encodes.
type TokenValidator interface {
	Validate(token string) (*domain.Principal, error)
}

// PrincipalResolver re-reads a subject's current roles from the user store.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, username string) (*domain.Principal, error)
}

// Authenticator establishes the request principal from the Authorization header.
type Authenticator struct {
	tokens   TokenValidator
	resolver PrincipalResolver
	rules    []RouteRule
	log      zerolog.Logger
}

// NewAuthenticator builds the filter. A nil resolver trusts the roles embedded
// in the token; nil rules select DefaultRules.
func NewAuthenticator(tokens TokenValidator, resolver PrincipalResolver, rules []RouteRule, log zerolog.Logger) *Authenticator {
	if rules == nil {
		rules = DefaultRules
	}
	return &Authenticator{tokens: tokens, resolver: resolver, rules: rules, log: log}
}

// Filter runs once per request. Requests without a bearer token continue
// anonymously; an invalid token ends the request with 401.
func (a *Authenticator) Filter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if a.bypassed(req.URL.Path) {
				return next(c)
			}

			token, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			p, err := a.tokens.Validate(token)
			if err != nil {
				result := "malformed"
				if errors.Is(err, domain.ErrTokenExpired) {
					result = "expired"
				}
				metrics.TokenValidationsTotal.WithLabelValues(result).Inc()
				a.log.Debug().Err(err).Str("path", req.URL.Path).Msg("bearer token rejected")
				return err
			}

			if a.resolver != nil {
				resolved, err := a.resolver.ResolvePrincipal(req.Context(), p.Username)
				if err != nil {
					if errors.Is(err, domain.ErrUnauthorized) {
						metrics.TokenValidationsTotal.WithLabelValues("rejected").Inc()
						a.log.Warn().Err(err).Str("username", p.Username).Msg("token subject rejected")
					}
					return err
				}
				p = resolved
			}

			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFrom(c); !ok {
				return domain.ErrUnauthorized
			}
			return next(c)
		}
	}
}

func (a *Authenticator) bypassed(path string) bool {
	for _, r := range a.rules {
		if matchPattern(r.Pattern, path) {
			return r.Bypass
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
