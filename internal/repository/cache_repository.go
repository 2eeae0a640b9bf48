package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

// cacheRecorder receives hit/miss counts for cache reads.
type cacheRecorder interface {
	RecordCacheOperation(hit bool)
}

// CacheRepository provides helpers around Redis for caching catalog listings.
// Only catalog data (units, routes, itineraries) is ever cached; daily
// availability resolutions are always recomputed from the assignment tables.
type CacheRepository struct {
	client  *redis.Client
	logger  *zap.Logger
	metrics cacheRecorder
}

// NewCacheRepository constructs a cache repository. A nil client degrades to
// a pass-through (miss on read, no-op on write). A nil recorder disables
// hit/miss counting.
func NewCacheRepository(client *redis.Client, logger *zap.Logger, metrics cacheRecorder) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger, metrics: metrics}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.record(false)
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	r.record(true)
	return nil
}

func (r *CacheRepository) record(hit bool) {
	if r.metrics != nil {
		r.metrics.RecordCacheOperation(hit)
	}
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// InvalidatePrefix deletes all keys under the given prefix.
func (r *CacheRepository) InvalidatePrefix(ctx context.Context, prefix string) {
	if r.client == nil {
		return
	}

	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Warn("cache invalidation failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
