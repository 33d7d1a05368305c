package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyKeyPrefix namespaces request keys in Redis
const DefaultIdempotencyKeyPrefix = "lotledger:idempotency:"

const redisDialTimeout = 5 * time.Second

// NewRedisClient connects and pings. The caller owns the client.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// RedisIdempotencyStore shares request keys between API instances. The
// value is the time the key was first seen.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisIdempotencyStore uses client without taking ownership of it
func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) key(k string) string {
	return s.prefix + k
}

// MarkProcessed sets the key with NX, so concurrent retries race on Redis
// and exactly one wins
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	seen := time.Now().UTC().Format(time.RFC3339Nano)
	ok, err := s.client.SetNX(ctx, s.key(key), seen, ttl).Result()
	if err != nil {
		return false, shared.NewUpstreamUnavailableError("mark request key", err)
	}
	return ok, nil
}

// IsProcessed reports whether key is live
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, shared.NewUpstreamUnavailableError("check request key", err)
	}
	return n == 1, nil
}

// Forget deletes key so a failed request can be retried
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return shared.NewUpstreamUnavailableError("forget request key", err)
	}
	return nil
}

// Close leaves the shared client open
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
