package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/platform/cache"
	"github.com/p-n-ai/pai-path/internal/platform/config"
	"github.com/p-n-ai/pai-path/internal/platform/database"
	"github.com/p-n-ai/pai-path/internal/progress"
	"github.com/p-n-ai/pai-path/internal/server"
	"github.com/p-n-ai/pai-path/internal/subscription"
)

const defaultJWTSecret = "change-me-in-production"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg, os.Stdout))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == defaultJWTSecret {
		slog.Warn("using the default JWT secret; set LEARN_AUTH_JWT_SECRET")
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, cleanup, err := setup(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// setup wires the catalog, stores and server. Without a database, progress
// and subscriptions are kept in memory and every learner is on the free plan.
// The returned cleanup closes whatever was opened.
func setup(ctx context.Context, cfg *config.Config) (*server.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	catalog, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		return nil, cleanup, err
	}

	checks := map[string]server.HealthCheck{}
	var (
		store  progress.Store       = progress.NewMemoryStore()
		events progress.EventLogger = progress.NopEventLogger{}
		subs   subscription.Checker = subscription.NewMemoryStore()
	)

	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, db.Close)

		if err := db.Migrate(ctx); err != nil {
			cleanup()
			return nil, func() {}, err
		}

		pgStore, err := progress.NewPostgresStore(db.Pool)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		pgSubs, err := subscription.NewPostgresStore(db.Pool)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		store, subs = pgStore, pgSubs
		events = progress.NewPostgresEventLogger(db.Pool)
		checks["database"] = db.HealthCheck
		slog.Info("database connected")
	} else {
		slog.Info("database disabled, progress is kept in memory")
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { c.Close() })

		subs = subscription.NewCachedStore(subs, c, time.Duration(cfg.Cache.SubscriptionTTL)*time.Second)
		checks["cache"] = c.HealthCheck
		slog.Info("cache connected")
	}

	auth := server.NewAuth(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute,
		cfg.Auth.AdminEmail,
		cfg.Auth.AdminPasswordHash,
	)
	if !cfg.HasAdmin() {
		slog.Info("admin login disabled")
	}

	return server.New(server.Deps{
		Catalog:       catalog,
		Tracker:       progress.NewTracker(store, events),
		Subscriptions: subs,
		Auth:          auth,
		Checks:        checks,
	}), cleanup, nil
}
