// Package db opens GORM connections for the SQL-backed key-value store.
package db

import (
	"fmt"

	"github.com/zulandar/fleetbot/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens (or creates) a SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	return db, nil
}

// OpenMySQL opens a MySQL-compatible database from a DSN.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open mysql: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the key-value table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
