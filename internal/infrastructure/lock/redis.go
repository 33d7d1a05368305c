package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces lock keys in Redis
const DefaultKeyPrefix = "lotledger:lock:"

// releaseTimeout bounds the release call, which runs after the request
// context may already be done
const releaseTimeout = 5 * time.Second

// RedisLocker implements shared.KeyedLocker with expiring Redis locks.
// A holder that outlives the TTL loses the lock.
type RedisLocker struct {
	client     *redislock.Client
	ttl        time.Duration
	retryDelay time.Duration
	retryLimit int
	prefix     string
	logger     *zap.Logger
}

// NewRedisLocker creates a locker on a shared Redis client
func NewRedisLocker(client *redis.Client, cfg config.LockConfig, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:     redislock.New(client),
		ttl:        cfg.TTL,
		retryDelay: cfg.RetryDelay,
		retryLimit: cfg.RetryLimit,
		prefix:     DefaultKeyPrefix,
		logger:     logger,
	}
}

// Acquire implements shared.KeyedLocker. Obtain is retried at a fixed delay
// up to the configured limit.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	retry := redislock.LimitRetry(redislock.LinearBackoff(l.retryDelay), l.retryLimit)
	lk, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, &redislock.Options{RetryStrategy: retry})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, shared.NewConcurrencyConflictError(key)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, shared.NewUpstreamUnavailableError(fmt.Sprintf("lock %s", key), err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		err := lk.Release(releaseCtx)
		switch {
		case errors.Is(err, redislock.ErrLockNotHeld):
			l.logger.Warn("Lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
		case err != nil:
			l.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

var _ shared.KeyedLocker = (*RedisLocker)(nil)
