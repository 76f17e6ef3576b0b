package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/explorer-world/explorer-api/internal/core/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore maps client supplied idempotency keys to the id of the
// resource they created.
// Key format: idem:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

const pendingMarker = "pending"

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key within scope with SET NX. A claimed key holds
// pendingMarker until Complete replaces it with the resource id.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string, ttl time.Duration) (string, bool, error) {
	k := s.key(scope, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}
		id, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET.
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if id == pendingMarker {
			return "", false, nil
		}
		return id, false, nil
	}
	return "", false, nil
}

// Complete records id for a reserved key.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, id string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(scope, key), id, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release forgets a reservation so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
