// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"context"
	"fmt"
	"time"

	gormstore "github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Options configures SetupDatabase
type Options struct {
	LogLevel      string
	SlowThreshold time.Duration
	AutoMigrate   bool
}

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, opts Options, log *zap.Logger) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = MemoryPath
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormstore.NewLogger(log, gormstore.ParseLogLevel(opts.LogLevel), opts.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// every connection to :memory: is a separate database
	if dbPath == MemoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	if opts.AutoMigrate {
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	log.Info("SQLite database ready", zap.String("path", dbPath), zap.Bool("migrated", opts.AutoMigrate))
	return db, nil
}

// SeedDatabase populates the database with initial data
func SeedDatabase(ctx context.Context, db *gorm.DB) error {
	return gormstore.Seed(ctx, db)
}
