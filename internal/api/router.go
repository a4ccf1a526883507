package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/haitebooks/bookstore-api/internal/api/handler"
	"github.com/haitebooks/bookstore-api/internal/api/middleware"
	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Reviews     ports.ReviewService
	Suggestions ports.SuggestionService
	Tokens      middleware.TokenValidator

	// HealthChecks back GET /health/ready, keyed by dependency name.
	HealthChecks map[string]handler.HealthCheck
	// AllowOrigins configures CORS. Empty allows any origin.
	AllowOrigins []string
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// Store roles are authoritative when a user service is wired.
	var resolver middleware.PrincipalResolver
	if deps.Users != nil {
		resolver = deps.Users
	}
	authenticator := middleware.NewAuthenticator(deps.Tokens, resolver, nil, deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(corsConfig(deps.AllowOrigins)))
	e.Use(middleware.RequestMetrics())
	e.Use(authenticator.Filter())

	// --- Health probes, metrics and docs (bypassed by the filter) ---
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Public routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	suggestionHandler := handler.NewSuggestionHandler(deps.Suggestions)
	api.GET("/ai/suggestions", suggestionHandler.Suggest)

	// --- Everything else under /api needs a principal ---
	protected := api.Group("", middleware.RequireAuthenticated())

	userHandler := handler.NewUserHandler(deps.Users)
	protected.GET("/users/me", userHandler.Me)

	admin := protected.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.PUT("/users/:username/roles", userHandler.UpdateRoles)
	admin.PUT("/users/:username/enabled", userHandler.SetEnabled)

	reviewHandler := handler.NewReviewHandler(deps.Reviews)
	reviews := protected.Group("/reviews")
	reviews.GET("", reviewHandler.List)
	reviews.GET("/user/:userId", reviewHandler.ListByUser)
	reviews.GET("/book/:bookId", reviewHandler.ListByBook)
	reviews.POST("", reviewHandler.Create)
	reviews.PUT("/:id", reviewHandler.Update)
	reviews.DELETE("/:id", reviewHandler.Delete)

	// Unknown routes outside /api are protected too: anonymous callers get
	// 401, authenticated ones the usual 404.
	e.RouteNotFound("/*", func(echo.Context) error { return echo.ErrNotFound }, middleware.RequireAuthenticated())

	return e
}

func corsConfig(origins []string) echomiddleware.CORSConfig {
	cfg := echomiddleware.DefaultCORSConfig
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	return cfg
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
