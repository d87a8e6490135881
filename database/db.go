package database

import (
	"context"
	"fmt"
	"time"

	"servicehub/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the postgres pool, retrying with exponential backoff up to
// cfg.ConnectRetries times. Failure here is fatal for the process.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	op := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			log.Warn("database connection attempt failed", zap.Error(err))
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		sqlDB.SetMaxOpenConns(cfg.PostgresPoolSize)
		sqlDB.SetMaxIdleConns(cfg.PostgresPoolSize)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		return sqlDB.PingContext(ctx)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(cfg.ConnectRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return db, nil
}

// Ping checks the pool is still usable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
