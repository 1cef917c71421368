package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisSetter is the subset of the redis client the ledger uses.
type redisSetter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisNotificationLedger deduplicates notifications across processes with SETNX
type RedisNotificationLedger struct {
	client redisSetter
	prefix string
}

func NewRedisNotificationLedger(client redisSetter, prefix string) *RedisNotificationLedger {
	return &RedisNotificationLedger{client: client, prefix: prefix}
}

func (l *RedisNotificationLedger) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire notification key %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisNotificationLedger) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release notification key %s: %w", key, err)
	}
	return nil
}

// MemoryNotificationLedger is a single-process ledger
type MemoryNotificationLedger struct {
	mu   sync.Mutex
	now  func() time.Time
	keys map[string]time.Time
}

func NewMemoryNotificationLedger() *MemoryNotificationLedger {
	return &MemoryNotificationLedger{now: time.Now, keys: make(map[string]time.Time)}
}

func (l *MemoryNotificationLedger) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	l.keys[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryNotificationLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.keys, key)
	return nil
}
