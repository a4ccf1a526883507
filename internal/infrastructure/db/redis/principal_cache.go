package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

const (
	defaultPrincipalTTL = 30 * time.Second
	// tombstoneTTL is how long an invalidated key refuses read-through writes.
	// A resolver that read the store before a change and writes after the
	// invalidation lands inside this window and is ignored.
	tombstoneTTL = 5 * time.Second
	tombstone    = "-"
)

// PrincipalCache keeps the roles and enabled flag of recently seen users so
// that the request filter does not hit Mongo on every call.
// Key format: principal:<username>
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache wraps client. A non-positive ttl selects the default.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = defaultPrincipalTTL
	}
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *PrincipalCache) Get(ctx context.Context, username string) (*domain.PrincipalState, error) {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("principal cache get: %w", err)
	}
	if string(raw) == tombstone {
		return nil, nil
	}

	var state domain.PrincipalState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("principal cache decode: %w", err)
	}
	return &state, nil
}

// Set only fills an empty key, so it never overwrites a tombstone.
func (c *PrincipalCache) Set(ctx context.Context, username string, state domain.PrincipalState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("principal cache encode: %w", err)
	}
	return c.client.SetNX(ctx, c.key(username), raw, c.ttl).Err()
}

// Invalidate replaces the entry with a short-lived tombstone.
func (c *PrincipalCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Set(ctx, c.key(username), tombstone, min(tombstoneTTL, c.ttl)).Err()
}

func (c *PrincipalCache) key(username string) string {
	return "principal:" + username
}
