package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// OpenSQLite opens a file-backed or in-memory (":memory:") database for local runs and tests.
func OpenSQLite(logg *logger.Logger, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	// In-memory databases exist per connection.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if logg != nil {
		logg.Info("Opened SQLite database", "path", path)
	}
	return db, nil
}
