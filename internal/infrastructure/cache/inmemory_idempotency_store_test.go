package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "dispatch:K1:52", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "dispatch:K1:52", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "a live key is not marked twice")

	other, err := store.MarkProcessed(ctx, "dispatch:K1:53", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	clock.Advance(time.Minute)
	expired, err := store.MarkProcessed(ctx, "dispatch:K1:52", time.Minute)
	require.NoError(t, err)
	assert.True(t, expired, "an expired key can be reused")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	ok, err := store.IsProcessed(ctx, "reserve:L-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _ = store.MarkProcessed(ctx, "reserve:L-1", 30*time.Second)
	ok, _ = store.IsProcessed(ctx, "reserve:L-1")
	assert.True(t, ok)

	clock.Advance(30 * time.Second)
	ok, _ = store.IsProcessed(ctx, "reserve:L-1")
	assert.False(t, ok)
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "deliver:C-9:4", time.Hour)
	require.NoError(t, store.Forget(ctx, "deliver:C-9:4"))

	marked, err := store.MarkProcessed(ctx, "deliver:C-9:4", time.Hour)
	require.NoError(t, err)
	assert.True(t, marked, "a forgotten key can be retried")

	assert.NoError(t, store.Forget(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Len())

	clock.Advance(time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Len())

	ok, _ := store.IsProcessed(ctx, "long")
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_SweeperRuns(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now), WithSweepInterval(5*time.Millisecond))
	defer store.Close()

	_, _ = store.MarkProcessed(context.Background(), "short", time.Second)
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_OneWinnerPerKey(t *testing.T) {
	store, _ := newTestStore(t)

	var (
		winners int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "dispatch:K7:12", time.Minute)
			if assert.NoError(t, err) && ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}

func TestInMemoryIdempotencyStore_WithRunOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	calls := 0
	apply := func() error { calls++; return nil }

	require.NoError(t, shared.RunOnce(ctx, store, "reserve", "L-3", time.Minute, apply))
	err := shared.RunOnce(ctx, store, "reserve", "L-3", time.Minute, apply)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	assert.Equal(t, 1, calls)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	t.Run("disabled returns no store", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Enabled: false}).CreateStore()
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("memory backend", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Enabled: true, Backend: "memory"}).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis backend without a client", func(t *testing.T) {
		cfg := config.IdempotencyConfig{Enabled: true, Backend: "redis"}

		_, err := NewIdempotencyStoreFactory(cfg).CreateStore()
		assert.Error(t, err)

		store, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(true)).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Enabled: true, Backend: "etcd"}).CreateStore()
		assert.Error(t, err)
	})
}
