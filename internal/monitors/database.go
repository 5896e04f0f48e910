package monitors

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type databaseCheck struct {
	db *gorm.DB
}

// Database pings the primary data store.
func Database(db *gorm.DB) Check {
	return databaseCheck{db: db}
}

func (c databaseCheck) Name() string { return "database" }

func (c databaseCheck) Check(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
