// seed writes the demo accounts to the configured store.
// It refuses to replace existing users unless -force is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/ports"
	"github.com/3d-marketplace/auth-api/internal/core/service"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/jsonfile"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/mongo"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/queue"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/seed"
	"github.com/3d-marketplace/auth-api/internal/pkg/config"
	"github.com/3d-marketplace/auth-api/pkg/logger"
)

func main() {
	force := flag.Bool("force", false, "replace existing users and sessions")
	flag.Parse()

	if err := run(*force); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "marketplace-seed"})

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := seed.Apply(ctx, store, service.NewPasswordVerifier(cfg.BcryptCost, nil), force, time.Now().UTC())
	if errors.Is(err, seed.ErrNotEmpty) {
		log.Warn().Msg("store already has users; rerun with -force to replace them")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Int("users", n).Str("store_driver", cfg.Store.Driver).Msg("demo accounts written")
	for _, a := range seed.DemoAccounts() {
		log.Info().Str("username", a.Username).Str("role", a.Role).Msg("demo account")
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.DocumentStore, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMongo {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		return mongo.NewDocumentStore(db, log), func() { _ = client.Disconnect(context.Background()) }, nil
	}

	qctx, cancel := context.WithCancel(context.Background())
	q := queue.NewSerializer(1, log)
	q.Start(qctx)

	store := jsonfile.NewStore(cfg.Store.Path, q, log)
	if err := store.EnsureExists(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	return store, cancel, nil
}
