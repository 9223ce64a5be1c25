package eventlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards a provider event id while one worker processes it, so a
// concurrent redelivery is answered with a retryable status instead of
// running handlers twice.
type Locker interface {
	Acquire(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// SiteKeyPrefix namespaces per-project site transition locks.
const SiteKeyPrefix = "site:project:"

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, prefix: "stripe:event:"}
}

// NewRedisLockerFromURL parses a redis:// URL.
func NewRedisLockerFromURL(rawURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisLocker(redis.NewClient(opts), ttl), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire event lock: %w", err)
	}
	return ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, eventID string) error {
	if err := l.client.Del(ctx, l.prefix+eventID).Err(); err != nil {
		return fmt.Errorf("release event lock: %w", err)
	}
	return nil
}

// WithPrefix returns a locker over the same connection whose keys live under
// prefix. Closing either locker closes the shared client.
func (l *RedisLocker) WithPrefix(prefix string) *RedisLocker {
	return &RedisLocker{client: l.client, ttl: l.ttl, prefix: prefix}
}

func (l *RedisLocker) Close() error { return l.client.Close() }

// NoopLocker always grants the lock. Used when redis is not configured; the
// webhook event ledger still prevents re-running a completed event.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NoopLocker) Release(context.Context, string) error         { return nil }
