// Package dbtest opens isolated in-memory SQLite databases for package tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
)

// Open returns a fresh database with every model migrated. name only makes
// the DSN easier to recognise in failures.
func Open(t testing.TB, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate models: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		// one connection serialises transactions the way row locks would
		sqlDB.SetMaxOpenConns(1)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
