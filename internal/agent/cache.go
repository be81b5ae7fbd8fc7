package agent

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds rendered catalog responses. Catalog data is static reference
// material the agent fetches before every document creation, so even a
// short TTL removes most of the repeat traffic.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// RedisCache backs the catalog cache with Redis. Every failure degrades to
// a cache miss; the backend call proceeds either way.
type RedisCache struct {
	client *redis.Client
	logger *log.Logger
}

func NewRedisCache(client *redis.Client, logger *log.Logger) *RedisCache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Printf("cache get %s failed: %v", key, err)
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Printf("cache set %s failed: %v", key, err)
	}
}
