// Package main runs the HaiTeBooks bookstore API.
//
//	@title			HaiTeBooks Bookstore API
//	@version		1.0
//	@description	Accounts, authentication, reviews and book suggestions for the HaiTeBooks store.
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the token returned by /api/auth/login.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/haitebooks/bookstore-api/docs"
	"github.com/haitebooks/bookstore-api/internal/api"
	"github.com/haitebooks/bookstore-api/internal/api/handler"
	"github.com/haitebooks/bookstore-api/internal/core/service"
	mongodb "github.com/haitebooks/bookstore-api/internal/infrastructure/db/mongo"
	redisdb "github.com/haitebooks/bookstore-api/internal/infrastructure/db/redis"
	"github.com/haitebooks/bookstore-api/internal/infrastructure/queue"
	"github.com/haitebooks/bookstore-api/internal/pkg/config"
	"github.com/haitebooks/bookstore-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "bookstore-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "bookstore-api",
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(client, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	books := mongodb.NewBookRepository(db)
	reviews := mongodb.NewReviewRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":   users.EnsureIndexes,
		"books":   books.EnsureIndexes,
		"reviews": reviews.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	// --- Audit trail ---
	// Workers are not tied to the signal context: the deferred Stop runs after
	// the HTTP server has shut down and before the Mongo client disconnects,
	// so events from the last requests are still written.
	auditLog := logger.For("audit")
	dispatcher := queue.NewDispatcher(cfg.Auth.AuditWorkers, service.NewAuditService(mongodb.NewAuthEventRepository(db), auditLog), auditLog)
	dispatcher.Start(context.Background())
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Stop(drainCtx); err != nil {
			log.Warn().Err(err).Msg("audit queue drain")
		}
	}()

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL, service.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(users, service.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, dispatcher, logger.For("auth"))
	if err != nil {
		return err
	}
	userService := service.NewUserService(users, redisdb.NewPrincipalCache(rdb, cfg.Auth.PrincipalCacheTTL), logger.For("users"))

	e := api.NewRouter(api.Dependencies{
		Auth:        authService,
		Users:       userService,
		Reviews:     service.NewReviewService(reviews, books, users, logger.For("reviews")),
		Suggestions: service.NewSuggestionService(books),
		Tokens:      tokens,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": mongodb.Ping(db),
			"redis":   redisdb.Ping(rdb),
		},
		AllowOrigins: cfg.CORSAllowedOrigins,
		Log:          logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
