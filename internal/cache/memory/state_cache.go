// Package memory implements the domain cache, lock and bus interfaces inside
// a single process. It backs the default deployment where one dropmarket
// instance serves all requests.
package memory

import (
	"context"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// StateCache is a size-bounded LRU of serialized ledger reads. Entries expire
// after ttl; a zero ttl keeps entries until evicted or invalidated.
type StateCache struct {
	lru *expirable.LRU[domain.CacheKey, []byte]
}

// NewStateCache creates a StateCache holding at most size entries.
func NewStateCache(size int, ttl time.Duration) *StateCache {
	if size <= 0 {
		size = 1024
	}
	return &StateCache{lru: expirable.NewLRU[domain.CacheKey, []byte](size, nil, ttl)}
}

// Get returns domain.ErrNotFound on a miss.
func (c *StateCache) Get(_ context.Context, key domain.CacheKey) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (c *StateCache) Set(_ context.Context, key domain.CacheKey, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	c.lru.Add(key, v)
	return nil
}

func (c *StateCache) Invalidate(_ context.Context, keys ...domain.CacheKey) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

// Len reports the number of live entries.
func (c *StateCache) Len() int {
	return c.lru.Len()
}

var _ domain.StateCache = (*StateCache)(nil)
