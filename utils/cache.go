// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"veridie/config"

	"github.com/go-redis/redis/v8"
)

// NewCacheClient builds the Redis client used for event-type caching and the
// booking confirmation guard. The client is constructed once in main and passed
// to the services that need it.
func NewCacheClient(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (cache): %w", err)
	}
	return client, nil
}
