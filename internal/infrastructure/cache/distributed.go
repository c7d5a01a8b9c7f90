package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/infrastructure/config"
	"github.com/fraud-desk/alert_service/pkg/metrics"
)

const keyPrefix = "alerts:"

// NewRedisClient connects to the configured Redis node
func NewRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCache is a prefixed key/value store over a single node or cluster client
type RedisCache struct {
	client     redis.UniversalClient
	logger     *zap.Logger
	prefix     string
	defaultTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, logger *zap.Logger, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisCache{
		client:     client,
		logger:     logger,
		prefix:     keyPrefix,
		defaultTTL: defaultTTL,
	}
}

// Get returns the stored bytes, or nil when the key is absent
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	defer observe("get", time.Now())
	val, err := rc.client.Get(ctx, rc.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer observe("set", time.Now())
	if ttl == 0 {
		ttl = rc.defaultTTL
	}
	return rc.client.Set(ctx, rc.prefix+key, value, ttl).Err()
}

func (rc *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	defer observe("del", time.Now())
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = rc.prefix + k
	}
	return rc.client.Del(ctx, full...).Err()
}

// Keys scans for keys matching pattern and returns them without the prefix
func (rc *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	defer observe("scan", time.Now())
	var keys []string

	scan := func(ctx context.Context, client *redis.Client) error {
		iter := client.Scan(ctx, 0, rc.prefix+pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val()[len(rc.prefix):])
		}
		return iter.Err()
	}

	var err error
	switch c := rc.client.(type) {
	case *redis.ClusterClient:
		err = c.ForEachMaster(ctx, scan)
	case *redis.Client:
		err = scan(ctx, c)
	default:
		err = fmt.Errorf("unsupported redis client %T", rc.client)
	}
	return keys, err
}

func observe(operation string, start time.Time) {
	metrics.RecordRedisOperation(operation, time.Since(start).Seconds())
}
