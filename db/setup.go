package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sphere-social/sphere/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Connect opens the database, retrying with a doubling backoff while the
// server is not reachable yet.
func Connect(ctx context.Context, driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	dial, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	gormLog := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	backoff := 500 * time.Millisecond

	for attempt := 1; ; attempt++ {
		conn, err := gorm.Open(dial, &gorm.Config{Logger: gormLog, TranslateError: true})
		if err == nil {
			if sqlDB, pingErr := conn.DB(); pingErr != nil {
				err = pingErr
			} else if err = sqlDB.PingContext(ctx); err == nil {
				if driver == "sqlite" {
					// sqlite allows a single writer.
					sqlDB.SetMaxOpenConns(1)
				}
				return conn, nil
			}
		}

		if attempt == connectAttempts {
			return nil, fmt.Errorf("connecting to %s after %d attempts: %w", driver, attempt, err)
		}

		log.Warn("database not ready, retrying", "driver", driver, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func Migrate(conn *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Post{},
		&models.PostLike{},
		&models.Follow{},
		&models.Message{},
		&models.Notification{},
	}

	if err := conn.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	return nil
}
