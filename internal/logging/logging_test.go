package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBHandler_PersistsErrorsOnly(t *testing.T) {
	db := dbtest.Open(t, &models.SystemLog{})
	h := NewDBHandler(db)
	t.Cleanup(h.Stop)

	log := slog.New(h).With("request_id", "req-1")
	log.Info("ignored")
	log.Error("charge failed",
		"user_id", "u-42",
		"action", "reading",
		"error", errors.New("db down"),
		"latency_ms", 12.6,
		"kind", "tarot",
	)
	log.WithGroup("ad").Error("reward failed", "attempt", 2)
	h.Flush()

	var rows []models.SystemLog
	require.NoError(t, db.Order("message").Find(&rows).Error)
	require.Len(t, rows, 2)

	got := rows[0]
	assert.Equal(t, "charge failed", got.Message)
	assert.Equal(t, "ERROR", got.Level)
	assert.Equal(t, "req-1", got.RequestID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u-42", *got.UserID)
	assert.Equal(t, "reading", got.Action)
	assert.Equal(t, "db down", got.Error)
	assert.Equal(t, 13, got.LatencyMs)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(got.Extra, &extra))
	assert.Equal(t, "tarot", extra["kind"])

	require.NoError(t, json.Unmarshal(rows[1].Extra, &extra))
	assert.Equal(t, float64(2), extra["ad.attempt"])
	assert.Equal(t, "req-1", rows[1].RequestID)
}

func TestDBHandler_StopFlushes(t *testing.T) {
	db := dbtest.Open(t, &models.SystemLog{})
	h := NewDBHandler(db)

	slog.New(h).Error("last words")
	h.Stop()
	h.Stop()

	var n int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPrune(t *testing.T) {
	db := dbtest.Open(t, &models.SystemLog{})
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	h := NewDBHandler(db)
	t.Cleanup(h.Stop)

	for _, age := range []time.Duration{0, 24 * time.Hour, 40 * 24 * time.Hour} {
		r := slog.NewRecord(now.Add(-age), slog.LevelError, "entry", 0)
		require.NoError(t, h.Handle(context.Background(), r))
	}
	h.Flush()

	deleted, err := Prune(context.Background(), db, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var n int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("broken") }

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	ha := slog.NewJSONHandler(&a, nil)
	hb := slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError})
	m := NewMultiHandler(failingHandler{ha}, ha, hb)

	log := slog.New(m).With("app", "fortune")
	log.Info("hello")
	log.Error("boom")

	assert.Contains(t, a.String(), `"msg":"hello"`)
	assert.Contains(t, a.String(), `"app":"fortune"`)
	assert.NotContains(t, b.String(), "hello")
	assert.Contains(t, b.String(), `"msg":"boom"`)

	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "x", 0))
	assert.EqualError(t, err, "broken")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
