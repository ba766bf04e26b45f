package domain

import (
	"context"
	"time"
)

// CacheKind names the kind of ledger read stored under a cache key.
type CacheKind string

const (
	KindListing        CacheKind = "listing"
	KindBid            CacheKind = "bid"
	KindBidBuffer      CacheKind = "bid-buffer"
	KindWinner         CacheKind = "winner"
	KindClaimCondition CacheKind = "claim-condition"
	KindSnapshot       CacheKind = "snapshot"
)

// CacheKey addresses one cached read by (kind, id).
type CacheKey struct {
	Kind CacheKind
	ID   string
}

func (k CacheKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// ListingKeys returns every key that holds state for a listing.
func ListingKeys(id string) []CacheKey {
	return []CacheKey{
		{Kind: KindListing, ID: id},
		{Kind: KindBid, ID: id},
		{Kind: KindWinner, ID: id},
	}
}

// StateCache holds serialized ledger reads for the lifetime of the process.
type StateCache interface {
	// Get returns ErrNotFound on a miss.
	Get(ctx context.Context, key CacheKey) ([]byte, error)
	Set(ctx context.Context, key CacheKey, value []byte) error
	// Invalidate drops exactly the given keys.
	Invalidate(ctx context.Context, keys ...CacheKey) error
}

// LockManager provides mutual exclusion keyed by name.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub between the poller, services and websocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
