package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/config"
)

// Redis is a shared second tier so several router processes can reuse each
// other's translations. Entries expire after TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func NewRedis(client redis.UniversalClient, ttl time.Duration, prefix string, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix, log: log}
}

// DialRedis connects using the cache section of the configuration and
// verifies the connection with a PING.
func DialRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedis(client, cfg.TTL, cfg.Prefix, log), nil
}

func (c *Redis) key(k Key) string {
	return c.prefix + k.String()
}

func (c *Redis) Get(ctx context.Context, key Key) (string, bool) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis cache get failed", zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *Redis) Put(ctx context.Context, key Key, value string) {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		c.log.Warn("redis cache set failed", zap.Error(err))
	}
}

// Len counts the keys under the prefix. It scans the keyspace and is meant
// for diagnostics only.
func (c *Redis) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("redis cache scan failed", zap.Error(err))
	}
	return n
}

func (c *Redis) Close() error {
	return c.client.Close()
}
