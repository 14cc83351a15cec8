// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api runs the FPTSphere access API.
//
// # Startup Sequence
//
//  1. Structured logger.
//  2. Configuration from the environment.
//  3. PostgreSQL pool and schema migrations.
//  4. Redis client for session snapshots.
//  5. Token verifier, console catalog, account service.
//  6. HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fptsphere/fptsphere/data/migrations"
	"github.com/fptsphere/fptsphere/internal/api"
	"github.com/fptsphere/fptsphere/internal/console"
	"github.com/fptsphere/fptsphere/internal/platform/config"
	"github.com/fptsphere/fptsphere/internal/platform/constants"
	"github.com/fptsphere/fptsphere/internal/platform/metrics"
	"github.com/fptsphere/fptsphere/internal/platform/migration"
	pgstore "github.com/fptsphere/fptsphere/internal/platform/postgres"
	redisstore "github.com/fptsphere/fptsphere/internal/platform/redis"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
	"github.com/fptsphere/fptsphere/internal/users/account"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName), slog.String("version", constants.AppVersion))
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}
	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Duration("snapshot_ttl", cfg.SnapshotTTL),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	var schema fs.FS = migrations.FS
	if cfg.MigrationPath != "" {
		schema = os.DirFS(cfg.MigrationPath)
	}
	must(log, migration.RunUp(cfg.DatabaseURL, schema, log), "run migrations")

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, cfg.JWTIssuer)
	must(log, err, "load token keys")

	catalog, err := console.LoadCatalog()
	must(log, err, "load console catalog")

	m := metrics.New()
	accounts := account.NewService(
		account.NewPostgresRepository(pool),
		account.NewRedisSnapshotCache(rdb),
		cfg.SnapshotTTL,
		m,
		log,
	)

	health := api.NewHealth(log).
		With("postgres", func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }).
		With("redis", func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) })

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()

	server := api.NewServer(serverCtx, api.Dependencies{
		Config:   cfg,
		Logger:   log,
		Verifier: tokens,
		Sessions: accounts,
		Metrics:  m,
		Health:   health,
		Console:  console.NewHandler(catalog, m),
		Accounts: account.NewHandler(accounts, m),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_failed", slog.Any("error", err))
	}

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server_stopped")
}

// must aborts startup on err. Only used during wiring.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failed", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
