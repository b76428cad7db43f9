package fortune

import (
	"context"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FortunePlugin struct{}

func New() *FortunePlugin {
	return &FortunePlugin{}
}

func (p *FortunePlugin) ID() string { return "fortune" }

func (p *FortunePlugin) Models() []interface{} {
	return []interface{}{
		&Fortune{},
		&Like{},
	}
}

func newService(deps *apps.Deps) *FortuneService {
	return NewFortuneService(deps.DB, ServiceDeps{
		Ledger:  deps.Ledger,
		Objects: deps.Objects,
		Costs:   deps.Configs,
		Filter:  deps.Moderation,
	})
}

func (p *FortunePlugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	h := NewFortuneHandler(newService(deps), deps.Validator, deps.Config.MaxUploadBytes)

	router.Get("/costs", h.Costs)

	router.Post("/readings", h.Create)
	router.Get("/readings", h.List)
	router.Get("/readings/:id", h.Get)
	router.Patch("/readings/:id", h.Update)
	router.Delete("/readings/:id", h.Delete)
	router.Post("/readings/:id/favorite", h.ToggleFavorite)
	router.Post("/readings/:id/share", h.Share)
	router.Delete("/readings/:id/share", h.Unshare)

	router.Get("/feed", h.Feed)
	router.Post("/feed/:id/like", h.Like)
}

// RegisterPublicRoutes serves shared links to anyone holding the code.
func (p *FortunePlugin) RegisterPublicRoutes(router fiber.Router, deps *apps.Deps) {
	h := NewFortuneHandler(newService(deps), deps.Validator, 0)
	router.Get("/shared/:code", h.Shared)
}

func (p *FortunePlugin) ConfigDefaults() []models.RemoteConfig {
	out := make([]models.RemoteConfig, 0, len(Types))
	for _, t := range Types {
		out = append(out, models.RemoteConfig{
			Key:   "fortune_cost_" + t,
			Value: strconv.FormatInt(DefaultCosts[t], 10),
			Type:  models.ConfigInt,
		})
	}
	return out
}

func (p *FortunePlugin) PurgeAccountTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	return NewFortuneService(tx, ServiceDeps{}).PurgeAccountTx(ctx, tx, userID)
}
