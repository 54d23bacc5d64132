package repository

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/didierkasongo/ndaku/internal/pkg/cache"
)

// scanCount is the per-iteration SCAN batch; purge deletes in the same size.
const scanCount = 500

// queueRepository backs the admin cache monitor. It is the only repository
// working against Redis instead of GORM.
type queueRepository struct {
	client *redis.Client
}

// NewQueueRepository wraps the shared cache client.
func NewQueueRepository() QueueRepository {
	return &queueRepository{client: cache.GetClient()}
}

// FindKeysByPatterns collects the keys matching any of the given patterns
// using SCAN, deduplicated and sorted for a stable monitor page.
func (r *queueRepository) FindKeysByPatterns(patterns []string) ([]string, error) {
	ctx := context.Background()
	uniqueKeys := make(map[string]struct{})

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		var cursor uint64
		for {
			keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, scanCount).Result()
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				uniqueKeys[key] = struct{}{}
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
	}

	keys := make([]string, 0, len(uniqueKeys))
	for key := range uniqueKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetTTL returns the remaining time-to-live of a key.
func (r *queueRepository) GetTTL(key string) (time.Duration, error) {
	return r.client.TTL(context.Background(), key).Result()
}

// DeleteKeys removes keys in batches and returns how many were deleted.
func (r *queueRepository) DeleteKeys(keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	ctx := context.Background()
	var totalDeleted int64
	for i := 0; i < len(keys); i += scanCount {
		end := i + scanCount
		if end > len(keys) {
			end = len(keys)
		}
		deleted, err := r.client.Del(ctx, keys[i:end]...).Result()
		if err != nil {
			return totalDeleted, err
		}
		totalDeleted += deleted
	}
	return totalDeleted, nil
}
