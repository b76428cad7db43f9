package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/server"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	plugins := server.Plugins()
	if err := database.Migrate(db, server.Models(plugins)...); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log sink (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLogHandler)))

	logging.StartCleanup(ctx, db, cfg.LogRetention)

	slog.Info("seeding remote config defaults")
	if err := services.NewRemoteConfigService(db).SeedDefaults(ctx, server.ConfigDefaults(cfg, plugins)); err != nil {
		slog.Error("remote config seeding failed", "error", err)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	opts := server.Options{HTTPLog: true}
	if cfg.SentryDSN != "" {
		opts.Middleware = append(opts.Middleware, sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	srv, err := server.New(ctx, cfg, db, opts)
	if err != nil {
		slog.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.App.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server...")

	if err := srv.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
