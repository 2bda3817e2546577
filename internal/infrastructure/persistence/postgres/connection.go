// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	gormstore "github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectionConfig holds connection pool configuration
type ConnectionConfig struct {
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	LogLevel           string
	PingTimeout        time.Duration
}

// DefaultConnectionConfig returns the default pool configuration
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxOpenConns:       25,
		MaxIdleConns:       5,
		ConnMaxLifetime:    time.Hour,
		ConnMaxIdleTime:    10 * time.Minute,
		SlowQueryThreshold: 200 * time.Millisecond,
		LogLevel:           "warn",
		PingTimeout:        10 * time.Second,
	}
}

// ConnectionConfigFrom overrides the defaults with configured values
func ConnectionConfigFrom(cfg config.DatabaseConfig) *ConnectionConfig {
	connConfig := DefaultConnectionConfig()

	if cfg.MaxOpenConns > 0 {
		connConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		connConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime > 0 {
		connConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		connConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.SlowQuery > 0 {
		connConfig.SlowQueryThreshold = cfg.SlowQuery
	}
	if cfg.LogLevel != "" {
		connConfig.LogLevel = cfg.LogLevel
	}
	return connConfig
}

// ConnectionManager manages the PostgreSQL connection pool
type ConnectionManager struct {
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
}

// NewConnectionManager opens the database described by cfg and verifies it
func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	connConfig := ConnectionConfigFrom(cfg.Database)

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:                 gormstore.NewLogger(log, gormstore.ParseLogLevel(connConfig.LogLevel), connConfig.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(connConfig.MaxOpenConns)
	sqlDB.SetMaxIdleConns(connConfig.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(connConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connConfig.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connConfig.PingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := gormstore.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info("Database connection manager initialized",
		zap.Int("max_open_conns", connConfig.MaxOpenConns),
		zap.Int("max_idle_conns", connConfig.MaxIdleConns),
		zap.Duration("conn_max_lifetime", connConfig.ConnMaxLifetime),
		zap.Duration("slow_query_threshold", connConfig.SlowQueryThreshold),
	)

	return &ConnectionManager{logger: log, db: db, sqlDB: sqlDB}, nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// HealthCheck performs a health check on the database connection
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (cm *ConnectionManager) Close() error {
	if err := cm.sqlDB.Close(); err != nil {
		cm.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	return nil
}
