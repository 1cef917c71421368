package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a gorm-backed webhook event log
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// Claim inserts the event, or reports whether an existing row may be reprocessed
func (r *webhookEventRepository) Claim(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	if event.Status == "" {
		event.Status = model.WebhookStatusProcessing
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, storeError("insert webhook event", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var existing model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", event.Provider, event.EventID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, storeError("get webhook event", err)
	}

	r.logger.Info("Webhook event already received",
		zap.String("provider", string(event.Provider)),
		zap.String("event_id", event.EventID),
		zap.String("status", string(existing.Status)))

	return reprocessable(existing.Status), nil
}

// Finish records the processing outcome
func (r *webhookEventRepository) Finish(ctx context.Context, provider model.WebhookProvider, eventID string, status model.WebhookStatus, cause error) error {
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now(),
	}
	if cause != nil {
		msg := cause.Error()
		updates["last_error"] = &msg
	}

	err := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Updates(updates).Error
	if err != nil {
		return storeError("update webhook event", err)
	}
	return nil
}

func reprocessable(status model.WebhookStatus) bool {
	return !status.Finished()
}

// MemoryWebhookEventRepository keeps the webhook log in process memory
type MemoryWebhookEventRepository struct {
	mu     sync.Mutex
	events map[string]*model.WebhookEvent
}

func NewMemoryWebhookEventRepository() *MemoryWebhookEventRepository {
	return &MemoryWebhookEventRepository{events: make(map[string]*model.WebhookEvent)}
}

func webhookKey(provider model.WebhookProvider, eventID string) string {
	return string(provider) + ":" + eventID
}

func (r *MemoryWebhookEventRepository) Claim(_ context.Context, event *model.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := webhookKey(event.Provider, event.EventID)
	if existing, ok := r.events[key]; ok {
		return reprocessable(existing.Status), nil
	}

	stored := *event
	stored.Status = model.WebhookStatusProcessing
	stored.CreatedAt = time.Now()
	r.events[key] = &stored
	return true, nil
}

func (r *MemoryWebhookEventRepository) Finish(_ context.Context, provider model.WebhookProvider, eventID string, status model.WebhookStatus, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[webhookKey(provider, eventID)]
	if !ok {
		return nil
	}
	now := time.Now()
	existing.Status = status
	existing.ProcessedAt = &now
	if cause != nil {
		msg := cause.Error()
		existing.LastError = &msg
	}
	return nil
}

// Get returns a copy of the logged event, for inspection.
func (r *MemoryWebhookEventRepository) Get(provider model.WebhookProvider, eventID string) (model.WebhookEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[webhookKey(provider, eventID)]
	if !ok {
		return model.WebhookEvent{}, false
	}
	return *existing, true
}
