package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
)

// Partial indexes AutoMigrate cannot express from struct tags.
var partialIndexes = []struct {
	name string
	sql  string
}{
	// deliveries a provider may retry
	{"idx_webhook_events_unfinished", `CREATE INDEX IF NOT EXISTS idx_webhook_events_unfinished ON webhook_events (created_at) WHERE status IN ('processing', 'failed')`},
	// admin list of orders still waiting on a provider
	{"idx_orders_pending", `CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders (created_at DESC) WHERE status = 'pending'`},
}

// Migrate creates or updates the order store schema.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running order store migrations")

	if err := db.AutoMigrate(
		&model.Order{},
		&model.SocialMedia{},
		&model.Payment{},
		&model.WebhookEvent{},
	); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	for _, idx := range partialIndexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			logger.Error("Failed to create index", zap.String("index", idx.name), zap.Error(err))
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	logger.Info("Order store migrations completed", zap.Int("partial_indexes", len(partialIndexes)))
	return nil
}
