package dream

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticCosts map[string]int64

func (s staticCosts) Int(_ context.Context, key string, fallback int64) int64 {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

func setup(t *testing.T, costs CostSource) (*DreamService, *karma.Ledger, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &models.User{}, &karma.Transaction{}, &Draw{})
	ledger := karma.NewLedger(db, nil)
	return NewDreamService(db, ledger, costs, nil), ledger, db
}

func newUser(t *testing.T, db *gorm.DB, balance int64) uuid.UUID {
	t.Helper()
	u := models.User{DisplayName: "Dreamer", KarmaBalance: balance}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func TestExtract(t *testing.T) {
	got := Extract("I was FLYING over the ocean, then I fell... my teeth! Flying again over water.")
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"flying", "water", "falling", "teeth"}, names)

	assert.Empty(t, Extract("Nothing remarkable happened at all"))
	assert.Empty(t, Extract("waterfall"), "whole words only")

	many := Extract("water fall fly teeth chase house snake death baby exam")
	assert.Len(t, many, maxSymbols)
}

func TestInterpret(t *testing.T) {
	text := Interpret([]Symbol{{"water", "emotions"}, {"fire", "passion"}, {"car", "direction"}}, "calm")
	assert.Equal(t, "Your dream speaks through water (emotions), fire (passion) and car (direction). "+moodNotes["calm"], text)

	assert.Contains(t, Interpret(nil, ""), "no classic symbols")
}

func TestInterpret_ChargesAndStores(t *testing.T) {
	svc, ledger, db := setup(t, nil)
	ctx := context.Background()
	userID := newUser(t, db, 12)

	d, err := svc.Interpret(ctx, userID, &InterpretRequest{Text: "A snake chased me through my old house", Mood: "scared"})
	require.NoError(t, err)
	assert.Equal(t, int64(defaultCost), d.Cost)
	assert.Len(t, d.SymbolList(), 3)
	assert.Contains(t, d.Interpretation, "snake")

	bal, err := ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal)

	got, err := svc.Get(ctx, userID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.SymbolList(), got.SymbolList())
}

func TestInterpret_NotEnoughKarma(t *testing.T) {
	svc, ledger, db := setup(t, staticCosts{costKey: 50})
	ctx := context.Background()
	userID := newUser(t, db, 12)

	_, err := svc.Interpret(ctx, userID, &InterpretRequest{Text: "I lost my wallet at school"})
	require.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	bal, err := ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), bal)
	_, total, err := svc.List(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestInterpret_FreeStillNeedsAccount(t *testing.T) {
	svc, _, _ := setup(t, staticCosts{costKey: 0})
	_, err := svc.Interpret(context.Background(), uuid.New(), &InterpretRequest{Text: "flying over a quiet town"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInterpret_RefundsWhenPersistFails(t *testing.T) {
	svc, ledger, db := setup(t, nil)
	ctx := context.Background()
	userID := newUser(t, db, 10)
	require.NoError(t, db.Migrator().DropTable(&Draw{}))

	_, err := svc.Interpret(ctx, userID, &InterpretRequest{Text: "rain on the river all night"})
	require.Error(t, err)

	bal, err := ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)
}

func TestListDeleteAndPurge(t *testing.T) {
	svc, _, db := setup(t, staticCosts{costKey: 0})
	ctx := context.Background()
	userID := newUser(t, db, 0)
	other := newUser(t, db, 0)

	d, err := svc.Interpret(ctx, userID, &InterpretRequest{Text: "a wedding by the sea"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = svc.Interpret(ctx, userID, &InterpretRequest{Text: "a lion in the kitchen"})
	require.NoError(t, err)
	_, err = svc.Interpret(ctx, other, &InterpretRequest{Text: "driving a red car fast"})
	require.NoError(t, err)

	items, total, err := svc.List(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, d.ID, items[1].ID)

	assert.ErrorIs(t, svc.Delete(ctx, other, d.ID), ErrDrawNotFound)
	require.NoError(t, svc.Delete(ctx, userID, d.ID))
	_, err = svc.Get(ctx, userID, d.ID)
	assert.ErrorIs(t, err, ErrDrawNotFound)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		paths, err := New().PurgeAccountTx(ctx, tx, userID)
		assert.Empty(t, paths)
		return err
	}))
	_, total, err = svc.List(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = svc.List(ctx, other, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
