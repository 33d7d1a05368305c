package lock

import (
	"fmt"
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewLocker creates the configured locker. The redis backend needs a client.
func NewLocker(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) (shared.KeyedLocker, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalLocker(localTimeout(cfg)), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis lock backend requires a Redis client")
		}
		return NewRedisLocker(client, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

// localTimeout waits as long as the redis backend would keep retrying
func localTimeout(cfg config.LockConfig) time.Duration {
	if cfg.RetryDelay <= 0 || cfg.RetryLimit <= 0 {
		return 0
	}
	return cfg.RetryDelay * time.Duration(cfg.RetryLimit)
}
