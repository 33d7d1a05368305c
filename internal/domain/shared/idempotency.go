package shared

import (
	"context"
	"strings"
	"time"
)

// IdempotencyStore remembers client request keys so a retried write is
// applied at most once
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so a request that failed can be retried with it
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// RunOnce runs fn at most once per operation and key. The same client key
// used for two different operations does not collide. A nil store or an empty
// key runs fn unconditionally. A key whose fn failed is forgotten so the
// client can retry.
func RunOnce(ctx context.Context, store IdempotencyStore, operation, key string, ttl time.Duration, fn func() error) error {
	key = strings.TrimSpace(key)
	if store == nil || key == "" {
		return fn()
	}
	scoped := OperationKey(operation, key)
	marked, err := store.MarkProcessed(ctx, scoped, ttl)
	if err != nil {
		return NewUpstreamUnavailableError("idempotency check", err)
	}
	if !marked {
		return NewDuplicateRequestError(key)
	}
	if err := fn(); err != nil {
		// the original error matters more than a failed cleanup
		_ = store.Forget(context.WithoutCancel(ctx), scoped)
		return err
	}
	return nil
}

// OperationKey is the store key of a client request key for one operation
func OperationKey(operation, key string) string {
	return operation + ":" + key
}
