package store

import (
	"context"
	"log"
	"time"
)

// KeyStore is the source of truth for room existence. Keys carry a TTL and are
// treated as absent once it lapses.
type KeyStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

const probeTimeout = 5 * time.Second

// New selects the backing store. A reachable redis at redisURL wins; anything
// else falls back to the process-local in-memory store so the server can still
// mint and relay rooms.
func New(ctx context.Context, redisURL string, logger *log.Logger) KeyStore {
	if redisURL == "" {
		logger.Println("no redis url configured, using in-memory store")
		return NewMemoryStore()
	}

	rs, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		logger.Printf("redis unavailable, using in-memory store: %v", err)
		return NewMemoryStore()
	}

	logger.Printf("connected to redis at %s", redisURL)
	return rs
}
