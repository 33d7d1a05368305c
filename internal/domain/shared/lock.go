package shared

import "context"

// KeyedLocker serializes writers that share a key.
// Acquire blocks until the key is held or ctx is done; the returned release
// function must be called exactly once.
type KeyedLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AcquireAll acquires keys in the given order and returns a release function
// that frees them in reverse order. On failure, already held keys are released.
func AcquireAll(ctx context.Context, locker KeyedLocker, keys ...string) (func(), error) {
	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range keys {
		release, err := locker.Acquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
