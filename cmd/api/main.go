package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/api"
	"github.com/dtapi/user-service/internal/core/ports"
	"github.com/dtapi/user-service/internal/core/service"
	"github.com/dtapi/user-service/internal/infrastructure/config"
	"github.com/dtapi/user-service/internal/infrastructure/crypto"
	mongostore "github.com/dtapi/user-service/internal/infrastructure/db/mongo"
	pgstore "github.com/dtapi/user-service/internal/infrastructure/db/postgres"
	redisstore "github.com/dtapi/user-service/internal/infrastructure/db/redis"
	httpserver "github.com/dtapi/user-service/internal/infrastructure/http"
	"github.com/dtapi/user-service/internal/infrastructure/http/handlers"
	"github.com/dtapi/user-service/internal/infrastructure/queue"
	"github.com/dtapi/user-service/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "user-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-service",
	})

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	userService := service.NewUserService(
		store,
		crypto.NewBcryptHasher(cfg.BcryptCost),
		redisstore.NewUserLock(rdb, cfg.Redis.LockTTL, cfg.Redis.LockWait, log),
		cfg.RoleSet(),
		log,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher := queue.NewDispatcher(cfg.Batch.Workers, userService, log)
	dispatcher.Start(workerCtx)

	e := httpserver.NewRouter(log, map[string]handlers.Pinger{
		cfg.StoreDriver: store,
		"redis":         handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	})
	api.RegisterRoutes(e, api.Deps{
		Service:   userService,
		Batch:     dispatcher,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("user-service listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// Drain queued upserts, or abandon them once the shutdown budget is spent.
	drained := make(chan struct{})
	go func() {
		dispatcher.Stop()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		log.Warn().Msg("batch queue not drained before shutdown timeout")
		cancelWorkers()
	}

	log.Info().Msg("user-service stopped")
	return nil
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return mongostore.NewStore(db, log), closeFn, nil

	default:
		db, err := pgstore.Open(ctx, pgstore.Config{DSN: cfg.Postgres.DSN, MaxOpenConns: cfg.Postgres.MaxOpenConns})
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(db); err != nil {
			_ = pgstore.Close(db)
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		closeFn := func() { _ = pgstore.Close(db) }
		return pgstore.NewStore(db, log), closeFn, nil
	}
}
