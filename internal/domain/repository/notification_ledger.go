package repository

import (
	"context"
	"time"
)

// NotificationLedger deduplicates side effects by key.
type NotificationLedger interface {
	// Acquire returns true for the first caller of key within ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so a failed send can be retried.
	Release(ctx context.Context, key string) error
}
