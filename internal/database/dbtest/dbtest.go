// Package dbtest opens throwaway GORM databases for package tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory SQLite database with the given models migrated.
//
// The pool is pinned to one connection: every in-memory connection would
// otherwise see its own empty database, and a single connection also makes
// concurrent transactions queue instead of failing with SQLITE_BUSY.
func Open(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
