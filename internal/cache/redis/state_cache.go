package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StateCache implements domain.StateCache with plain string keys.
//
// Key schema:
//
//	{prefix}:state:{kind}:{id} - serialized read, expires after ttl
type StateCache struct {
	c   *Client
	ttl time.Duration
}

// NewStateCache creates a StateCache. A zero ttl stores keys without expiry.
func NewStateCache(c *Client, ttl time.Duration) *StateCache {
	return &StateCache{c: c, ttl: ttl}
}

func (sc *StateCache) stateKey(k domain.CacheKey) string {
	return sc.c.key("state", string(k.Kind), k.ID)
}

// Get returns domain.ErrNotFound when the key does not exist.
func (sc *StateCache) Get(ctx context.Context, key domain.CacheKey) ([]byte, error) {
	data, err := sc.c.rdb.Get(ctx, sc.stateKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, nil
}

func (sc *StateCache) Set(ctx context.Context, key domain.CacheKey, value []byte) error {
	if err := sc.c.rdb.Set(ctx, sc.stateKey(key), value, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes exactly the given keys in one round trip.
func (sc *StateCache) Invalidate(ctx context.Context, keys ...domain.CacheKey) error {
	if len(keys) == 0 {
		return nil
	}
	wire := make([]string, len(keys))
	for i, k := range keys {
		wire[i] = sc.stateKey(k)
	}
	if err := sc.c.rdb.Del(ctx, wire...).Err(); err != nil {
		return fmt.Errorf("redis: invalidate %d keys: %w", len(keys), err)
	}
	return nil
}

var _ domain.StateCache = (*StateCache)(nil)
