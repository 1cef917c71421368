package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2sipping0/pixelnextdigital/internal/adapter/repository"
	"github.com/2sipping0/pixelnextdigital/internal/config"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
)

// Repositories holds the store selected by store.driver
type Repositories struct {
	Driver        string
	Orders        domainRepo.OrderRepository
	WebhookEvents domainRepo.WebhookEventRepository

	db *gorm.DB
}

// NewRepositories builds the configured store. Missing persistence settings
// yield a store that fails every call with ErrConfigMissing instead of an
// error, so the rest of the service can still start.
func NewRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Repositories, error) {
	driver := cfg.Store.Driver

	switch driver {
	case config.StoreDriverPostgres:
		db, err := NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db, logger); err != nil {
			_ = Close(db, logger)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &Repositories{
			Driver:        driver,
			Orders:        repository.NewOrderRepository(db, logger),
			WebhookEvents: repository.NewWebhookEventRepository(db, logger),
			db:            db,
		}, nil

	case config.StoreDriverSupabase:
		if !cfg.Supabase.Configured() {
			logger.Warn("Supabase store selected but not configured; persistence is disabled")
			return unconfigured(driver, "supabase.url/supabase.anon_key"), nil
		}
		return &Repositories{
			Driver:        driver,
			Orders:        repository.NewSupabaseOrderRepository(cfg.Supabase.URL, cfg.Supabase.AnonKey, logger),
			WebhookEvents: repository.NewSupabaseWebhookEventRepository(cfg.Supabase.URL, cfg.Supabase.AnonKey, logger),
		}, nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return &Repositories{
			Driver:        driver,
			Orders:        repository.NewMemoryOrderRepository(),
			WebhookEvents: repository.NewMemoryWebhookEventRepository(),
		}, nil

	default:
		logger.Warn("No store driver configured; persistence is disabled",
			zap.String("driver", driver))
		return unconfigured(driver, "store.driver"), nil
	}
}

func unconfigured(driver, setting string) *Repositories {
	store := repository.NewUnconfiguredOrderRepository("order store", setting)
	return &Repositories{
		Driver:        driver,
		Orders:        store,
		WebhookEvents: store,
	}
}

// Close releases the database connection, if any
func (r *Repositories) Close(logger *zap.Logger) error {
	if r.db == nil {
		return nil
	}
	return Close(r.db, logger)
}
