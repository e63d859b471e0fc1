package store

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is the process-local KeyStore fallback. Expiry is evaluated
// lazily on every read path; the background sweeper only reclaims memory and
// correctness never depends on it running.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go ms.sweep()
	return ms
}

func (ms *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	ms.mu.Lock()
	ms.entries[key] = e
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(time.Now()) {
		delete(ms.entries, key)
		return "", false, nil
	}

	return e.value, true, nil
}

func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := ms.Get(ctx, key)
	return ok, err
}

func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	delete(ms.entries, key)
	ms.mu.Unlock()
	return nil
}

// Refresh resets the TTL of a live key. It reports false if the key is absent
// or already expired.
func (ms *MemoryStore) Refresh(_ context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	if !ok {
		return false, nil
	}
	if e.expired(time.Now()) {
		delete(ms.entries, key)
		return false, nil
	}

	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	ms.entries[key] = e
	return true, nil
}

func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.stop) })
	return nil
}

// sweep drops expired entries so abandoned rooms don't pin memory until the
// next read touches them.
func (ms *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			ms.mu.Lock()
			for key, e := range ms.entries {
				if e.expired(now) {
					delete(ms.entries, key)
				}
			}
			ms.mu.Unlock()
		case <-ms.stop:
			return
		}
	}
}
