package shared

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu      sync.Mutex
	keys    map[string]bool
	markErr error
}

func newMapStore() *mapStore {
	return &mapStore{keys: make(map[string]bool)}
}

func (s *mapStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return false, s.markErr
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *mapStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *mapStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *mapStore) Close() error { return nil }

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("runs once per key", func(t *testing.T) {
		store := newMapStore()
		calls := 0
		fn := func() error { calls++; return nil }

		require.NoError(t, RunOnce(ctx, store, "reserve", "k-1", time.Minute, fn))
		err := RunOnce(ctx, store, "reserve", " k-1 ", time.Minute, fn)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		assert.Equal(t, 1, calls)
	})

	t.Run("failed run forgets the key", func(t *testing.T) {
		store := newMapStore()
		boom := errors.New("boom")

		err := RunOnce(ctx, store, "reserve", "k-2", time.Minute, func() error { return boom })
		assert.ErrorIs(t, err, boom)
		processed, _ := store.IsProcessed(ctx, OperationKey("reserve", "k-2"))
		assert.False(t, processed)

		assert.NoError(t, RunOnce(ctx, store, "reserve", "k-2", time.Minute, func() error { return nil }))
	})

	t.Run("no store or no key always runs", func(t *testing.T) {
		calls := 0
		fn := func() error { calls++; return nil }
		require.NoError(t, RunOnce(ctx, nil, "reserve", "k-3", time.Minute, fn))
		require.NoError(t, RunOnce(ctx, nil, "reserve", "k-3", time.Minute, fn))
		require.NoError(t, RunOnce(ctx, newMapStore(), "reserve", "", time.Minute, fn))
		assert.Equal(t, 3, calls)
	})

	t.Run("keys are scoped to the operation", func(t *testing.T) {
		store := newMapStore()
		calls := 0
		fn := func() error { calls++; return nil }

		require.NoError(t, RunOnce(ctx, store, "reserve", "k-5", time.Minute, fn))
		require.NoError(t, RunOnce(ctx, store, "dispatch", "k-5", time.Minute, fn))
		assert.ErrorIs(t, RunOnce(ctx, store, "dispatch", "k-5", time.Minute, fn), ErrDuplicateRequest)
		assert.Equal(t, 2, calls)
	})

	t.Run("store failure is upstream unavailable", func(t *testing.T) {
		store := newMapStore()
		store.markErr = errors.New("connection refused")
		called := false

		err := RunOnce(ctx, store, "reserve", "k-4", time.Minute, func() error { called = true; return nil })
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		assert.False(t, called)
	})
}
