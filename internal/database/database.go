package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres pool. The returned handle is passed to every
// service explicitly; there is no package-level connection.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return db, nil
}

// SharedModels lists the tables every deployment needs regardless of which
// app plugins are mounted.
func SharedModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordReset{},
		&models.Report{},
		&models.Block{},
		&models.RemoteConfig{},
		&models.SystemLog{},
	}
}

// PostMigrator is implemented by models that need schema objects AutoMigrate
// cannot derive from struct tags, such as an index over an embedded column.
type PostMigrator interface {
	PostMigrate(db *gorm.DB) error
}

// Migrate runs AutoMigrate for the given models, then their PostMigrate hooks.
func Migrate(db *gorm.DB, modelList ...interface{}) error {
	if len(modelList) == 0 {
		return nil
	}
	if err := db.AutoMigrate(modelList...); err != nil {
		return err
	}
	for _, m := range modelList {
		if pm, ok := m.(PostMigrator); ok {
			if err := pm.PostMigrate(db); err != nil {
				return fmt.Errorf("post-migrate %T: %w", m, err)
			}
		}
	}
	return nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
