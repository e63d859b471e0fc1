package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	ms := NewMemoryStore()
	t.Cleanup(func() {
		if err := ms.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return ms
}

func TestMemoryStore_SetGet(t *testing.T) {
	ms := newTestMemoryStore(t)
	ctx := context.Background()

	err := ms.Set(ctx, "key1", "value1", time.Minute)
	assert.NoError(t, err, "expected no error setting key")

	val, ok, err := ms.Get(ctx, "key1")
	assert.NoError(t, err, "expected no error getting key")
	assert.True(t, ok, "expected key to exist")
	assert.Equal(t, "value1", val, "expected stored value to match")

	_, ok, err = ms.Get(ctx, "missing")
	assert.NoError(t, err, "expected no error getting missing key")
	assert.False(t, ok, "expected missing key to be absent")
}

func TestMemoryStore_LazyExpiry(t *testing.T) {
	ms := newTestMemoryStore(t)
	ctx := context.Background()

	err := ms.Set(ctx, "key1", "value1", 10*time.Millisecond)
	assert.NoError(t, err, "expected no error setting key")

	time.Sleep(20 * time.Millisecond)

	_, ok, err := ms.Get(ctx, "key1")
	assert.NoError(t, err, "expected no error getting expired key")
	assert.False(t, ok, "expected expired key to be absent")

	// the read path should have physically evicted the entry
	ms.mu.Lock()
	_, present := ms.entries["key1"]
	ms.mu.Unlock()
	assert.False(t, present, "expected expired entry to be evicted on read")
}

func TestMemoryStore_NoTTL(t *testing.T) {
	ms := newTestMemoryStore(t)
	ctx := context.Background()

	err := ms.Set(ctx, "key1", "value1", 0)
	assert.NoError(t, err, "expected no error setting key without ttl")

	time.Sleep(20 * time.Millisecond)

	ok, err := ms.Exists(ctx, "key1")
	assert.NoError(t, err, "expected no error checking key")
	assert.True(t, ok, "expected key without ttl to persist")
}

func TestMemoryStore_Exists(t *testing.T) {
	ms := newTestMemoryStore(t)
	ctx := context.Background()

	ok, err := ms.Exists(ctx, "key1")
	assert.NoError(t, err, "expected no error checking missing key")
	assert.False(t, ok, "expected missing key to not exist")

	err = ms.Set(ctx, "key1", "value1", time.Minute)
	assert.NoError(t, err, "expected no error setting key")

	ok, err = ms.Exists(ctx, "key1")
	assert.NoError(t, err, "expected no error checking key")
	assert.True(t, ok, "expected key to exist")

	err = ms.Set(ctx, "key2", "value2", 10*time.Millisecond)
	assert.NoError(t, err, "expected no error setting key")

	time.Sleep(20 * time.Millisecond)

	ok, err = ms.Exists(ctx, "key2")
	assert.NoError(t, err, "expected no error checking expired key")
	assert.False(t, ok, "expected expired key to not exist")
}

func TestMemoryStore_Delete(t *testing.T) {
	ms := newTestMemoryStore(t)
	ctx := context.Background()

	err := ms.Set(ctx, "key1", "value1", time.Minute)
	assert.NoError(t, err, "expected no error setting key")

	err = ms.Delete(ctx, "key1")
	assert.NoError(t, err, "expected no error deleting key")

	ok, err := ms.Exists(ctx, "key1")
	assert.NoError(t, err, "expected no error checking deleted key")
	assert.False(t, ok, "expected deleted key to not exist")

	// deleting an absent key is a no-op
	err = ms.Delete(ctx, "key1")
	assert.NoError(t, err, "expected no error deleting absent key")
}

func TestMemoryStore_Refresh(t *testing.T) {
	t.Run("refresh extends live key", func(t *testing.T) {
		ms := newTestMemoryStore(t)
		ctx := context.Background()

		err := ms.Set(ctx, "key1", "value1", 20*time.Millisecond)
		assert.NoError(t, err, "expected no error setting key")

		ok, err := ms.Refresh(ctx, "key1", time.Minute)
		assert.NoError(t, err, "expected no error refreshing key")
		assert.True(t, ok, "expected refresh of live key to succeed")

		time.Sleep(30 * time.Millisecond)

		ok, err = ms.Exists(ctx, "key1")
		assert.NoError(t, err, "expected no error checking refreshed key")
		assert.True(t, ok, "expected refreshed key to outlive its original ttl")
	})

	t.Run("refresh of absent key", func(t *testing.T) {
		ms := newTestMemoryStore(t)

		ok, err := ms.Refresh(context.Background(), "missing", time.Minute)
		assert.NoError(t, err, "expected no error refreshing missing key")
		assert.False(t, ok, "expected refresh of missing key to report false")
	})

	t.Run("refresh of expired key", func(t *testing.T) {
		ms := newTestMemoryStore(t)
		ctx := context.Background()

		err := ms.Set(ctx, "key1", "value1", 10*time.Millisecond)
		assert.NoError(t, err, "expected no error setting key")

		time.Sleep(20 * time.Millisecond)

		ok, err := ms.Refresh(ctx, "key1", time.Minute)
		assert.NoError(t, err, "expected no error refreshing expired key")
		assert.False(t, ok, "expected refresh of expired key to report false")
	})
}
