package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers bundles the core HTTP handlers.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Profile    *handlers.ProfileHandler
	Karma      *handlers.KarmaHandler
	Moderation *handlers.ModerationHandler
	Legal      *handlers.LegalHandler
	Config     *handlers.RemoteConfigHandler
}

// Options tune route setup. Zero limits disable the matching limiter.
type Options struct {
	// UploadsDir is served at /uploads when photos are stored on local disk.
	UploadsDir string

	APILimit  int
	AuthLimit int
}

func DefaultOptions() Options {
	return Options{APILimit: 60, AuthLimit: 10}
}

func ipLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(app *fiber.App, deps *apps.Deps, h Handlers, plugins []apps.Plugin, opts Options) {
	cfg := deps.Config
	jwt := middleware.JWTProtected(cfg)

	if opts.UploadsDir != "" {
		app.Static(storage.URLPrefix, opts.UploadsDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	if opts.APILimit > 0 {
		api.Use(ipLimiter(opts.APILimit))
	}

	// Public
	api.Get("/health", h.Health.Check)
	api.Get("/config", h.Config.GetConfig)
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)
	api.Get("/zodiac/:sign?", handlers.Zodiac)

	// Auth, with a stricter per-IP limit
	auth := api.Group("/auth")
	if opts.AuthLimit > 0 {
		auth.Use(ipLimiter(opts.AuthLimit))
	}
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/anonymous", h.Auth.LoginAnonymously)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Post("/reset-password", h.Auth.ResetPassword)

	// JWT is applied per route so it never leaks onto the public routes above.
	api.Post("/auth/logout", jwt, h.Auth.Logout)
	api.Post("/auth/link", jwt, h.Auth.LinkEmail)
	api.Delete("/auth/account", jwt, h.Auth.DeleteAccount)

	api.Get("/me", jwt, h.Profile.Me)
	api.Patch("/me", jwt, h.Profile.Update)
	api.Get("/me/activity", jwt, h.Profile.Activity)
	api.Post("/me/check-in", jwt, h.Profile.CheckIn)

	api.Get("/karma", jwt, h.Karma.Balance)
	api.Get("/karma/history", jwt, h.Karma.History)
	api.Get("/karma/ad", jwt, h.Karma.AdStatus)
	api.Post("/karma/ad", jwt, h.Karma.WatchAd)

	api.Post("/reports", jwt, h.Moderation.CreateReport)
	api.Post("/blocks", jwt, h.Moderation.BlockUser)
	api.Delete("/blocks/:id", jwt, h.Moderation.UnblockUser)

	// Admin
	admin := api.Group("/admin", jwt, middleware.AdminRequired(deps.DB, cfg))
	admin.Get("/moderation/reports", h.Moderation.ListReports)
	admin.Put("/moderation/reports/:id", h.Moderation.ActionReport)
	admin.Put("/config/:key", h.Config.SetConfigKey)
	admin.Delete("/config/:key", h.Config.DeleteConfigKey)
	admin.Post("/karma", h.Karma.Adjust)

	// Plugins: /api/p/<id> behind JWT, /api/open/<id> without a session.
	protected := api.Group("/p", jwt)
	public := api.Group("/open")
	for _, p := range plugins {
		p.RegisterRoutes(protected.Group("/"+p.ID()), deps)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin.Group("/"+p.ID()), deps)
		}
		if pp, ok := p.(apps.PublicPlugin); ok {
			pp.RegisterPublicRoutes(public.Group("/"+p.ID()), deps)
		}
	}
}
