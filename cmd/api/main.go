// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Arena authentication API.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Build the token service and enabled OAuth providers.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/arena/internal/api"
	"github.com/taibuivan/arena/internal/platform/config"
	"github.com/taibuivan/arena/internal/platform/constants"
	"github.com/taibuivan/arena/internal/platform/middleware"
	"github.com/taibuivan/arena/internal/platform/migration"
	pgstore "github.com/taibuivan/arena/internal/platform/postgres"
	redisstore "github.com/taibuivan/arena/internal/platform/redis"
	"github.com/taibuivan/arena/internal/platform/sec"
	"github.com/taibuivan/arena/internal/users/account"
	"github.com/taibuivan/arena/internal/users/auth"
	"github.com/taibuivan/arena/internal/users/auth/provider"
	"github.com/taibuivan/arena/internal/users/profile"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context cancelled on shutdown, used by background sweepers.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL & Redis ─────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Security & Providers ───────────────────────────────────────────
	tokens, err := sec.NewTokenService(
		sec.TokenSettings{Secret: cfg.JWT.Secret, TTL: cfg.JWT.ExpiresIn},
		sec.TokenSettings{Secret: cfg.JWT.RefreshSecret, TTL: cfg.JWT.RefreshExpiresIn},
		constants.AuthIssuer,
	)
	must(log, err, "initialize token service")

	registry := provider.NewRegistry(enabledAdapters(cfg)...)
	log.Info("oauth_providers_enabled", slog.Any("providers", registry.Enabled()))

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	store := account.NewPostgresStore(pool)
	guard := middleware.NewGuard(tokens, store)

	authService := auth.NewService(auth.NewResolver(store, nil), store, tokens)
	authHandler := auth.NewHandler(authService, registry, provider.NewRedisStateStore(rdb), cfg.FrontendURL)
	profileHandler := profile.NewHandler(profile.NewService(store, nil))

	liveness, readiness := api.NewHealthHandlers(log,
		api.Probe{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		api.Probe{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, guard, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Profile:   profileHandler,
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
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

// newLogger builds the JSON logger tagged with the application name and sets it
// as the process default.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

// enabledAdapters builds an adapter for every provider with client credentials.
func enabledAdapters(cfg *config.Config) []provider.Adapter {
	configured := map[account.Provider]config.ProviderConfig{
		account.ProviderGoogle:  cfg.Google,
		account.ProviderDiscord: cfg.Discord,
		account.ProviderTwitch:  cfg.Twitch,
	}

	adapters := make([]provider.Adapter, 0, len(configured))
	for _, name := range account.Providers() {
		settings := configured[name]
		if !settings.Enabled() {
			continue
		}

		spec, ok := provider.SpecFor(name)
		if !ok {
			continue
		}

		adapters = append(adapters, provider.NewOAuth2Adapter(spec, provider.Credentials{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			CallbackURL:  settings.CallbackURL,
		}))
	}
	return adapters
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Limited to startup wiring. After startup, errors are returned and handled.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
