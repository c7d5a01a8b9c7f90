package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

const snapshotKey = "snapshot:v1"

func customerKey(cif string) string {
	return fmt.Sprintf("customer:%s:alerts", cif)
}

// SnapshotCache keeps JSON encoded alert sets in Redis
type SnapshotCache struct {
	cache       *RedisCache
	invalidator *CacheInvalidator
	ttl         time.Duration
	logger      *zap.Logger
}

func NewSnapshotCache(cache *RedisCache, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		cache:       cache,
		invalidator: NewCacheInvalidator(cache, logger),
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *SnapshotCache) GetSnapshot(ctx context.Context) ([]entities.Alert, bool, error) {
	return s.get(ctx, snapshotKey)
}

func (s *SnapshotCache) SetSnapshot(ctx context.Context, alerts []entities.Alert) error {
	return s.set(ctx, snapshotKey, alerts)
}

func (s *SnapshotCache) GetCustomer(ctx context.Context, cif string) ([]entities.Alert, bool, error) {
	return s.get(ctx, customerKey(cif))
}

func (s *SnapshotCache) SetCustomer(ctx context.Context, cif string, alerts []entities.Alert) error {
	return s.set(ctx, customerKey(cif), alerts)
}

func (s *SnapshotCache) InvalidateAlert(ctx context.Context, cif string) error {
	return s.invalidator.InvalidateCustomer(ctx, cif)
}

func (s *SnapshotCache) get(ctx context.Context, key string) ([]entities.Alert, bool, error) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if data == nil {
		return nil, false, nil
	}

	var alerts []entities.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		// a corrupt entry is treated as a miss and dropped
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Del(ctx, key)
		return nil, false, nil
	}
	return alerts, true, nil
}

func (s *SnapshotCache) set(ctx context.Context, key string, alerts []entities.Alert) error {
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
