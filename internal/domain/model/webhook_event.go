package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// WebhookStatus represents the processing status of a webhook
type WebhookStatus string

const (
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusCompleted  WebhookStatus = "completed"
	WebhookStatusFailed     WebhookStatus = "failed"
	WebhookStatusIgnored    WebhookStatus = "ignored"
)

// Finished reports whether the delivery needs no further processing.
// Failed deliveries may be claimed again by a redelivery.
func (w WebhookStatus) Finished() bool {
	return w == WebhookStatusCompleted || w == WebhookStatusIgnored
}

func (w *WebhookStatus) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*w = WebhookStatusProcessing
		return nil
	default:
		return fmt.Errorf("webhook status: unsupported type %T", src)
	}

	switch status := WebhookStatus(s); status {
	case WebhookStatusProcessing, WebhookStatusCompleted, WebhookStatusFailed, WebhookStatusIgnored:
		*w = status
		return nil
	}
	return fmt.Errorf("webhook status: unknown value %q", s)
}

func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// WebhookProvider names the sender of a webhook
type WebhookProvider string

const (
	WebhookProviderStripe   WebhookProvider = "stripe"
	WebhookProviderCoinbase WebhookProvider = "coinbase"
)

// WebhookEvent is a verified delivery, keyed by the provider's event id
type WebhookEvent struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider    WebhookProvider `gorm:"size:16;not null;uniqueIndex:idx_webhook_events_provider_event" json:"provider"`
	EventID     string          `gorm:"size:255;not null;uniqueIndex:idx_webhook_events_provider_event" json:"event_id"`
	EventType   string          `gorm:"size:100;not null;index" json:"event_type"`
	OrderID     string          `gorm:"size:32;index" json:"order_id,omitempty"`
	Status      WebhookStatus   `gorm:"size:16;not null;default:'processing'" json:"status"`
	LastError   *string         `json:"last_error,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
