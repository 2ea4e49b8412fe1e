// @title                       3D Marketplace Auth API
// @version                     1.0
// @description                 Account, session and profile endpoints for the 3D Marketplace storefront.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
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

	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/3d-marketplace/auth-api/internal/api"
	"github.com/3d-marketplace/auth-api/internal/api/handler"
	"github.com/3d-marketplace/auth-api/internal/api/middleware"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
	"github.com/3d-marketplace/auth-api/internal/core/service"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/jsonfile"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/mongo"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/redis"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/queue"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/seed"
	"github.com/3d-marketplace/auth-api/internal/pkg/config"
	"github.com/3d-marketplace/auth-api/pkg/logger"
)

const (
	serviceName     = "marketplace-auth-api"
	shutdownTimeout = 10 * time.Second
	connectTimeout  = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
	})

	readiness := map[string]handler.Pinger{}

	store, closeStore, err := openStore(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *goredis.Client
	if cfg.UsesRedis() {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		readiness["redis"] = redis.Pinger{Client: rdb}
	}

	var demo map[string]string
	if cfg.DemoAccountsEnabled {
		demo = seed.DemoPasswords()
	}
	passwords := service.NewPasswordVerifier(cfg.BcryptCost, demo)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.Dependencies{
		Auth:             service.NewAuthService(store, passwords, tokens, logger.Component("auth")),
		Accounts:         service.NewAccountService(store, logger.Component("account")),
		Tokens:           tokens,
		LoginLimiter:     loginLimiter(cfg, rdb),
		LoginWindow:      cfg.RateLimit.Window,
		Readiness:        readiness,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Log:              logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("store_driver", cfg.Store.Driver).
		Str("rate_limit_backend", cfg.RateLimit.Backend).
		Bool("demo_accounts", passwords.DemoEnabled()).
		Msg("starting server")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects the configured document store and registers its
// readiness check.
func openStore(ctx context.Context, cfg *config.Config, readiness map[string]handler.Pinger) (ports.DocumentStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  connectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		store := mongo.NewDocumentStore(db, logger.Component("store"))
		readiness["mongodb"] = mongo.Pinger{Client: client}
		readiness["store"] = handler.StorePinger{Store: store}

		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return store, closeFn, nil

	default:
		// The serializer outlives ctx so in-flight writes finish during
		// graceful shutdown.
		qctx, cancel := context.WithCancel(context.Background())
		q := queue.NewSerializer(0, logger.Component("queue"))
		q.Start(qctx)

		store := jsonfile.NewStore(cfg.Store.Path, q, logger.Component("store"))
		if err := store.EnsureExists(ctx); err != nil {
			cancel()
			return nil, nil, err
		}
		readiness["store"] = handler.StorePinger{Store: store}
		return store, cancel, nil
	}
}

func loginLimiter(cfg *config.Config, rdb *goredis.Client) echomiddleware.RateLimiterStore {
	if rdb != nil {
		return redis.NewFixedWindowLimiter(rdb, "ratelimit:login", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	return middleware.NewMemoryWindowStore(cfg.RateLimit.Limit, cfg.RateLimit.Window)
}
