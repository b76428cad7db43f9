package apps

import (
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the shared services handed to every plugin.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Ledger     *karma.Ledger
	Objects    storage.ObjectStore
	Moderation *services.ModerationService
	Configs    *services.RemoteConfigService
	Validator  *validation.Validator
}

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the unique plugin identifier; it is also the route prefix.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts plugin routes on the given Fiber group.
	// The group is already prefixed with /api/p/<id> and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, deps *Deps)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router, deps *Deps)
}

// PublicPlugin mounts routes that need no session, such as shared links.
type PublicPlugin interface {
	Plugin

	RegisterPublicRoutes(router fiber.Router, deps *Deps)
}

// ConfigPlugin contributes remote config keys seeded at startup.
type ConfigPlugin interface {
	Plugin

	ConfigDefaults() []models.RemoteConfig
}

// Cleaners returns the plugins that keep per-account data, for account
// deletion.
func Cleaners(plugins []Plugin) []services.AccountCleaner {
	var out []services.AccountCleaner
	for _, p := range plugins {
		if c, ok := p.(services.AccountCleaner); ok {
			out = append(out, c)
		}
	}
	return out
}
