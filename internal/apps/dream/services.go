package dream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/records"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrDrawNotFound = apperr.NotFound("dream not found")

// Dream interpretations share their price with the dream fortune type.
const (
	costKey     = "fortune_cost_dream"
	defaultCost = 5
)

// CostSource reads integer settings; *services.RemoteConfigService satisfies it.
type CostSource interface {
	Int(ctx context.Context, key string, fallback int64) int64
}

type DreamService struct {
	draws  *records.Store[Draw, *Draw]
	ledger apps.Adjuster
	costs  CostSource
}

func NewDreamService(db *gorm.DB, ledger apps.Adjuster, costs CostSource, now func() time.Time) *DreamService {
	opts := []records.Option{}
	if now != nil {
		opts = append(opts, records.WithClock(now))
	}
	return &DreamService{
		draws:  records.New[Draw](db, opts...),
		ledger: ledger,
		costs:  costs,
	}
}

func (s *DreamService) cost(ctx context.Context) int64 {
	if s.costs == nil {
		return defaultCost
	}
	if n := s.costs.Int(ctx, costKey, defaultCost); n > 0 {
		return n
	}
	return 0
}

// Interpret charges for and stores the interpretation of a dream. An unknown
// account fails at the charge, or at the insert for a free interpretation.
func (s *DreamService) Interpret(ctx context.Context, userID uuid.UUID, req *InterpretRequest) (*Draw, error) {
	cost := s.cost(ctx)
	refund, err := apps.Charge(ctx, s.ledger, userID, cost, "dream")
	if err != nil {
		return nil, err
	}

	symbols := Extract(req.Text)
	raw, err := json.Marshal(symbols)
	if err != nil {
		refund()
		return nil, fmt.Errorf("encode symbols: %w", err)
	}
	d := &Draw{
		Text:           strings.TrimSpace(req.Text),
		Mood:           req.Mood,
		Symbols:        datatypes.JSON(raw),
		Interpretation: Interpret(symbols, req.Mood),
		Cost:           cost,
	}
	if _, err := s.draws.Create(ctx, userID, d); err != nil {
		refund()
		return nil, err
	}

	slog.Info("dream interpreted", "user_id", userID.String(), "draw_id", d.ID.String(), "symbols", len(symbols))
	return d, nil
}

func (s *DreamService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Draw, int64, error) {
	items, err := s.draws.Page(ctx, userID, "created_at", true, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.draws.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *DreamService) Get(ctx context.Context, userID, id uuid.UUID) (*Draw, error) {
	d, found, err := s.draws.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDrawNotFound
	}
	return d, nil
}

func (s *DreamService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.draws.Delete(ctx, userID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrDrawNotFound
	}
	return err
}
