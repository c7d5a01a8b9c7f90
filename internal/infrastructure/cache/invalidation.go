package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CacheInvalidator removes cached alert data after a write
type CacheInvalidator struct {
	cache  *RedisCache
	logger *zap.Logger
}

func NewCacheInvalidator(cache *RedisCache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		cache:  cache,
		logger: logger,
	}
}

// InvalidatePattern deletes every key matching pattern. Individual delete
// failures are logged and skipped.
func (ci *CacheInvalidator) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := ci.cache.Keys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to get keys for pattern %s: %w", pattern, err)
	}

	for _, key := range keys {
		if err := ci.cache.Del(ctx, key); err != nil {
			ci.logger.Error("Failed to delete cache key", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// InvalidateCustomer drops the snapshot and every entry cached for the customer
func (ci *CacheInvalidator) InvalidateCustomer(ctx context.Context, cif string) error {
	if err := ci.cache.Del(ctx, snapshotKey); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return ci.InvalidatePattern(ctx, fmt.Sprintf("customer:%s:*", cif))
}
