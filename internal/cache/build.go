package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/config"
)

// FromConfig builds the router cache: an LRU, fronting Redis when the redis
// section is enabled. The returned close func releases the Redis client.
func FromConfig(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (Cache, func() error, error) {
	local, err := NewLRU(cfg.Size)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Redis.Enabled {
		return local, func() error { return nil }, nil
	}

	shared, err := DialRedis(ctx, cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return NewTiered(local, shared), shared.Close, nil
}
