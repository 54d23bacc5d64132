package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/didierkasongo/ndaku/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache connects the shared Redis client used for the statistics cache,
// view counters and activation locks. Sessions get their own store on DB 1,
// so CACHE_DB stays at 0 unless the instance is shared.
func SetupCache() {
	addr := fmt.Sprintf("%s:%s",
		env.GetEnv("CACHE_HOST", "localhost"),
		env.GetEnv("CACHE_PORT", "6379"))
	db, err := strconv.Atoi(env.GetEnv("CACHE_DB", "0"))
	if err != nil {
		db = 0
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis not reachable at %s: %v", addr, err)
		return
	}
	log.Infof("Connected to Redis at %s (db %d)", addr, db)
}

// GetClient returns the shared Redis client, connecting lazily when a caller
// runs before SetupCache.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Set stores a value under key with the given expiration.
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get returns the string value stored under key.
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes key from the cache.
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
