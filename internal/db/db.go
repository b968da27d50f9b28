package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"telemetry-service/internal/config"
)

// Ping batches arrive in bursts when a gateway flushes its queue, so the
// pool keeps a few idle connections warm even on a quiet fleet.
const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	slowQueryThreshold  = 500 * time.Millisecond
)

// New opens the Postgres connection, tunes the pool and applies pending
// migrations. Every query goes through gorm with SQL logging routed into
// zerolog.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: gormlogger.New(
			sqlLogWriter{log: log},
			gormlogger.Config{
				SlowThreshold:             slowQueryThreshold,
				Colorful:                  false,
				IgnoreRecordNotFoundError: true,
				LogLevel:                  logLevelFor(cfg.Environment),
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.DB.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.DB.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func HealthCheck(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("SELECT 1").Error
}

func logLevelFor(env string) gormlogger.LogLevel {
	if env == "development" {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

type sqlLogWriter struct {
	log zerolog.Logger
}

func (w sqlLogWriter) Printf(msg string, args ...interface{}) {
	w.log.Debug().Msgf(msg, args...)
}
