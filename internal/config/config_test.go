package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DAILY_LOGIN_BONUS", "")

	cfg := Load()
	assert.Equal(t, "fortune_db", cfg.DBName)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, int64(5), cfg.DailyLoginBonus)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("AD_REWARD_KARMA", "25")
	t.Setenv("AD_WATCH_DURATION", "not-a-duration")
	t.Setenv("MAX_UPLOAD_BYTES", "oops")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, int64(25), cfg.AdRewardKarma)
	assert.Equal(t, 3*time.Second, cfg.AdWatchDuration, "falls back on a bad duration")
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.JWTSecret = ""
	cfg.DBPassword = ""
	cfg.StorageDriver = "ftp"
	cfg.DefaultTimezone = "Mars/Olympus"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "DEFAULT_TIMEZONE")

	cfg.JWTSecret = "secret"
	cfg.DBPassword = "pw"
	cfg.StorageDriver = "s3"
	cfg.DefaultTimezone = "UTC"
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
