// Package lock serializes writers that share an order line, cutting item or
// lot. LocalLocker covers a single process; RedisLocker covers every instance
// sharing one Redis.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
)

// keyLock is a one-slot semaphore shared by the waiters of a key
type keyLock struct {
	slot chan struct{}
	refs int
}

// LocalLocker implements shared.KeyedLocker with a semaphore per key.
// Keys nobody holds or waits for are dropped from the map.
type LocalLocker struct {
	mu      sync.Mutex
	keys    map[string]*keyLock
	timeout time.Duration
}

// NewLocalLocker creates a locker. A positive timeout bounds how long Acquire
// waits before reporting a concurrency conflict.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{keys: make(map[string]*keyLock), timeout: timeout}
}

// Acquire implements shared.KeyedLocker
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	kl := l.ref(key)

	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case kl.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	case <-timeout:
		l.unref(key)
		return nil, shared.NewConcurrencyConflictError(key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.slot
			l.unref(key)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{slot: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.keys[key]
	if !ok {
		return
	}
	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}

// size returns the number of keys held or waited for
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

var _ shared.KeyedLocker = (*LocalLocker)(nil)
