package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/content_optimizer/internal/database/migration"
)

// DatabaseClient wraps the GORM DB connection
type DatabaseClient struct {
	*gorm.DB
}

// InitPostgreSQL opens the PostgreSQL connection and applies pending migrations
func InitPostgreSQL(ctx context.Context, dsn string, debug bool, log *zap.Logger) (*DatabaseClient, error) {
	client, err := OpenPostgreSQL(dsn, debug)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, client.DB, log); err != nil {
		client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return client, nil
}

// OpenPostgreSQL opens the PostgreSQL connection without touching the schema
func OpenPostgreSQL(dsn string, debug bool) (*DatabaseClient, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Set connection pool parameters
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DatabaseClient{DB: db}, nil
}

// Close closes the database connection
func (d *DatabaseClient) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// runMigrations applies pending schema migrations
func runMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	migrator, err := migration.NewMigrator(db, log)
	if err != nil {
		return err
	}
	applied, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) > 0 && log != nil {
		log.Info("Database migrations applied", zap.Strings("migrations", applied))
	}
	return nil
}
