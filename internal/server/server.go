// Package server assembles the services, plugins and HTTP stack.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/activity"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/ads"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps/dream"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps/fortune"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plugins returns the feature modules mounted under /api/p.
func Plugins() []apps.Plugin {
	return []apps.Plugin{
		fortune.New(),
		dream.New(),
	}
}

// Models lists every table: shared, karma, activity and plugin models.
func Models(plugins []apps.Plugin) []interface{} {
	out := database.SharedModels()
	out = append(out, &karma.Transaction{}, &activity.Marker{})
	for _, p := range plugins {
		out = append(out, p.Models()...)
	}
	return out
}

// ConfigDefaults lists the remote config keys seeded at startup.
func ConfigDefaults(cfg *config.Config, plugins []apps.Plugin) []models.RemoteConfig {
	out := services.DefaultConfig(cfg.AppName)
	for _, p := range plugins {
		if cp, ok := p.(apps.ConfigPlugin); ok {
			out = append(out, cp.ConfigDefaults()...)
		}
	}
	return out
}

// Options override collaborators, mainly for tests.
type Options struct {
	Objects storage.ObjectStore
	Mailer  services.Mailer
	Now     func() time.Time
	Sleeper ads.Sleeper
	Routes  *routes.Options
	// HTTPLog enables the per-request access log.
	HTTPLog bool
	// Middleware runs ahead of everything else, e.g. error tracking.
	Middleware []fiber.Handler
}

// Server is the assembled application.
type Server struct {
	App     *fiber.App
	Deps    *apps.Deps
	Auth    *services.AuthService
	Plugins []apps.Plugin
}

// New wires the services on db and builds the fiber app. The schema must
// already be migrated.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) (*Server, error) {
	defaultLoc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load default timezone: %w", err)
	}

	objects := opts.Objects
	uploadsDir := ""
	if objects == nil {
		if objects, err = storage.New(ctx, cfg); err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
	}
	if local, ok := objects.(*storage.LocalStore); ok {
		uploadsDir = local.Root()
	}

	ledger := karma.NewLedger(db, opts.Now)
	checkIns := activity.NewCheckIns(db, ledger, cfg.DailyLoginBonus, opts.Now)
	rewarded := ads.NewRewarded(ledger, ads.Options{
		WatchDuration: cfg.AdWatchDuration,
		Reward:        cfg.AdRewardKarma,
		DailyCap:      cfg.AdRewardDailyCap,
		Sleeper:       opts.Sleeper,
		Now:           opts.Now,
	})
	moderation := services.NewModerationService(db)
	configs := services.NewRemoteConfigService(db)
	validator := validation.New()

	plugins := Plugins()
	auth := services.NewAuthService(db, cfg, services.AuthDeps{
		Logins:  checkIns,
		Mailer:  opts.Mailer,
		Objects: objects,
		Now:     opts.Now,
	})
	auth.AddCleaners(
		services.CleanerFunc(func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
			return nil, ledger.DeleteAllTx(ctx, tx, userID)
		}),
		services.CleanerFunc(func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
			return nil, checkIns.DeleteAllTx(ctx, tx, userID)
		}),
	)
	auth.AddCleaners(apps.Cleaners(plugins)...)

	deps := &apps.Deps{
		DB:         db,
		Config:     cfg,
		Ledger:     ledger,
		Objects:    objects,
		Moderation: moderation,
		Configs:    configs,
		Validator:  validator,
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
		ErrorHandler: ErrorHandler,
	})
	for _, m := range opts.Middleware {
		app.Use(m)
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.HTTPLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routeOpts := routes.DefaultOptions()
	if opts.Routes != nil {
		routeOpts = *opts.Routes
	}
	routeOpts.UploadsDir = uploadsDir

	routes.Setup(app, deps, routes.Handlers{
		Auth:       handlers.NewAuthHandler(auth, validator, defaultLoc),
		Health:     handlers.NewHealthHandler(db, len(plugins)),
		Profile:    handlers.NewProfileHandler(auth, checkIns, validator, defaultLoc),
		Karma:      handlers.NewKarmaHandler(ledger, rewarded, validator),
		Moderation: handlers.NewModerationHandler(moderation, validator),
		Legal:      handlers.NewLegalHandler(cfg.AppName),
		Config:     handlers.NewRemoteConfigHandler(configs),
	}, plugins, routeOpts)

	slog.Info("server assembled", "plugins", len(plugins), "storage", cfg.StorageDriver)
	return &Server{App: app, Deps: deps, Auth: auth, Plugins: plugins}, nil
}

// ErrorHandler renders errors that escape the handlers. Details are only
// exposed for client errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
