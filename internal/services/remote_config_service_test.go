package services_test

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteConfig(t *testing.T) {
	db := dbtest.Open(t, &models.RemoteConfig{})
	rc := services.NewRemoteConfigService(db)
	ctx := context.Background()

	require.NoError(t, rc.SeedDefaults(ctx, services.DefaultConfig("Fortune")))
	require.NoError(t, rc.SeedDefaults(ctx, []models.RemoteConfig{
		{Key: "app_name", Value: "Ignored", Type: models.ConfigString},
		{Key: "fortune_cost_tarot", Value: "10", Type: models.ConfigInt},
	}))

	all, err := rc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fortune", all["app_name"], "seeding keeps existing keys")
	assert.Equal(t, false, all["maintenance_mode"])
	assert.Equal(t, int64(10), all["fortune_cost_tarot"])

	assert.Equal(t, int64(10), rc.Int(ctx, "fortune_cost_tarot", 99))
	assert.Equal(t, int64(99), rc.Int(ctx, "missing", 99))
	assert.Equal(t, int64(7), rc.Int(ctx, "app_name", 7))

	_, err = rc.Set(ctx, "fortune_cost_tarot", "12", models.ConfigInt)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rc.Int(ctx, "fortune_cost_tarot", 99))

	_, err = rc.Set(ctx, "fortune_cost_tarot", "twelve", models.ConfigInt)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = rc.Set(ctx, "theme", `{"accent":"gold"}`, models.ConfigJSON)
	require.NoError(t, err)
	all, err = rc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"accent": "gold"}, all["theme"])

	require.NoError(t, rc.Delete(ctx, "theme"))
	assert.ErrorIs(t, rc.Delete(ctx, "theme"), services.ErrConfigNotFound)
}
