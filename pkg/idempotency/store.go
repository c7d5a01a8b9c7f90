package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store keeps idempotency records in Redis, namespaced per caller scope
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a store; ttl is normalized with ValidateTTL
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) (*Store, error) {
	ttl, err := ValidateTTL(ttl)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "idempotency"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *Store) key(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, scope, key)
}

// Get returns the stored record, or nil when the key is unknown
func (s *Store) Get(ctx context.Context, scope, key string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return &rec, nil
}

// Save records a response for the key
func (s *Store) Save(ctx context.Context, scope, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(scope, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write idempotency record: %w", err)
	}
	return nil
}
