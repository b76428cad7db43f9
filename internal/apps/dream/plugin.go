package dream

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DreamPlugin struct{}

func New() *DreamPlugin {
	return &DreamPlugin{}
}

func (p *DreamPlugin) ID() string { return "dream" }

func (p *DreamPlugin) Models() []interface{} {
	return []interface{}{&Draw{}}
}

func (p *DreamPlugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	svc := NewDreamService(deps.DB, deps.Ledger, deps.Configs, nil)
	h := NewDreamHandler(svc, deps.Validator)

	router.Get("/symbols", h.Symbols)
	router.Post("/draws", h.Interpret)
	router.Get("/draws", h.List)
	router.Get("/draws/:id", h.Get)
	router.Delete("/draws/:id", h.Delete)
}

// PurgeAccountTx removes the account's dreams during account deletion.
func (p *DreamPlugin) PurgeAccountTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	return nil, NewDreamService(tx, nil, nil, nil).draws.DeleteAllTx(ctx, tx, userID)
}
