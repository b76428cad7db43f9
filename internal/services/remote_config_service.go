package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrConfigNotFound = apperr.NotFound("config not found")

// RemoteConfigService reads and writes the key/value settings the app
// fetches at launch. Values are read fresh on every call so admin edits take
// effect immediately.
type RemoteConfigService struct {
	db *gorm.DB
}

func NewRemoteConfigService(db *gorm.DB) *RemoteConfigService {
	return &RemoteConfigService{db: db}
}

// All returns every key with its value decoded according to its type.
func (s *RemoteConfigService) All(ctx context.Context) (map[string]interface{}, error) {
	var configs []models.RemoteConfig
	if err := s.db.WithContext(ctx).Find(&configs).Error; err != nil {
		return nil, apperr.Transport(err)
	}

	result := make(map[string]interface{}, len(configs))
	for _, cfg := range configs {
		result[cfg.Key] = decodeValue(cfg)
	}
	return result, nil
}

// Int returns the integer value of key, or fallback when the key is missing,
// unreadable or not an integer.
func (s *RemoteConfigService) Int(ctx context.Context, key string, fallback int64) int64 {
	var cfg models.RemoteConfig
	if err := s.db.WithContext(ctx).Where("key = ?", key).Take(&cfg).Error; err != nil {
		return fallback
	}
	n, err := strconv.ParseInt(cfg.Value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// Set creates or replaces key.
func (s *RemoteConfigService) Set(ctx context.Context, key, value, typ string) (*models.RemoteConfig, error) {
	if typ == "" {
		typ = models.ConfigString
	}
	if err := validateValue(value, typ); err != nil {
		return nil, err
	}

	cfg := models.RemoteConfig{Key: key, Value: value, Type: typ}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
		}).
		Create(&cfg).Error
	if err != nil {
		return nil, apperr.Transport(err)
	}
	return &cfg, nil
}

func (s *RemoteConfigService) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.RemoteConfig{})
	if result.Error != nil {
		return apperr.Transport(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// SeedDefaults inserts the given entries, leaving keys that already exist
// untouched.
func (s *RemoteConfigService) SeedDefaults(ctx context.Context, defaults []models.RemoteConfig) error {
	for _, d := range defaults {
		cfg := d
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
			Create(&cfg).Error
		if err != nil {
			return apperr.Transport(err)
		}
	}
	return nil
}

// DefaultConfig lists the settings every deployment starts with.
func DefaultConfig(appName string) []models.RemoteConfig {
	return []models.RemoteConfig{
		{Key: "app_name", Value: appName, Type: models.ConfigString},
		{Key: "default_language", Value: "en", Type: models.ConfigString},
		{Key: "supported_languages", Value: "en,tr,de,fr,es,it,pt,ru,ar,zh", Type: models.ConfigString},
		{Key: "maintenance_mode", Value: "false", Type: models.ConfigBool},
		{Key: "announcement_title", Value: "", Type: models.ConfigString},
		{Key: "announcement_message", Value: "", Type: models.ConfigString},
	}
}

func decodeValue(cfg models.RemoteConfig) interface{} {
	switch cfg.Type {
	case models.ConfigBool:
		v, _ := strconv.ParseBool(cfg.Value)
		return v
	case models.ConfigInt:
		v, _ := strconv.ParseInt(cfg.Value, 10, 64)
		return v
	case models.ConfigJSON:
		var v interface{}
		_ = json.Unmarshal([]byte(cfg.Value), &v)
		return v
	}
	return cfg.Value
}

func validateValue(value, typ string) error {
	switch typ {
	case models.ConfigString:
		return nil
	case models.ConfigBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperr.Validation("value is not a bool")
		}
	case models.ConfigInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return apperr.Validation("value is not an int")
		}
	case models.ConfigJSON:
		if !json.Valid([]byte(value)) {
			return apperr.Validation("value is not valid JSON")
		}
	default:
		return apperr.Validation("type must be string, bool, int or json")
	}
	return nil
}
