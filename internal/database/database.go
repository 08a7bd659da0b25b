package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"imagepress/internal/common"
	"imagepress/internal/models"
)

// Database handles database operations
type Database struct {
	db *gorm.DB
}

// NewDatabase opens the sqlite database at dbPath and migrates the schema.
// ":memory:" keeps everything in process.
func NewDatabase(dbPath string, log *slog.Logger) (*Database, error) {
	if log == nil {
		log = slog.Default()
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), common.DefaultFilePermissions); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer, and every ":memory:" connection is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate the schema
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Debug("Database ready", "path", dbPath)
	return &Database{db: db}, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.UserPreferences{}, &models.ConversionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DB returns the underlying gorm handle
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Close releases the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
