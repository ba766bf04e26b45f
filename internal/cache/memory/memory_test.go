package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCacheGetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewStateCache(16, 0)

	_, err := c.Get(ctx, domain.CacheKey{Kind: domain.KindListing, ID: "1"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	for _, k := range domain.ListingKeys("1") {
		require.NoError(t, c.Set(ctx, k, []byte(k.String())))
	}
	other := domain.CacheKey{Kind: domain.KindListing, ID: "2"}
	require.NoError(t, c.Set(ctx, other, []byte("two")))

	got, err := c.Get(ctx, domain.CacheKey{Kind: domain.KindBid, ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "bid:1", string(got))

	require.NoError(t, c.Invalidate(ctx, domain.CacheKey{Kind: domain.KindBid, ID: "1"}))
	_, err = c.Get(ctx, domain.CacheKey{Kind: domain.KindBid, ID: "1"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Get(ctx, domain.CacheKey{Kind: domain.KindListing, ID: "1"})
	require.NoError(t, err, "invalidation must only drop the named keys")
	_, err = c.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestStateCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewStateCache(4, 0)
	key := domain.CacheKey{Kind: domain.KindWinner, ID: "9"}

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, key, buf))
	buf[0] = 'x'

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestStateCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewStateCache(4, 20*time.Millisecond)
	key := domain.CacheKey{Kind: domain.KindClaimCondition, ID: "0xdrop"}
	require.NoError(t, c.Set(ctx, key, []byte("v")))

	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, key)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestLockManager(t *testing.T) {
	ctx := context.Background()
	lm := NewLockManager()
	now := time.Unix(1_000, 0)
	lm.nowFn = func() time.Time { return now }

	unlock, err := lm.Acquire(ctx, "bid:1", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, "bid:1", time.Minute)
	require.ErrorIs(t, err, domain.ErrLockHeld)

	_, err = lm.Acquire(ctx, "bid:2", time.Minute)
	require.NoError(t, err, "different keys are independent")

	unlock()
	unlock()
	unlock2, err := lm.Acquire(ctx, "bid:1", time.Minute)
	require.NoError(t, err)

	// The first holder's stale unlock must not release the new holder.
	unlock()
	_, err = lm.Acquire(ctx, "bid:1", time.Minute)
	require.ErrorIs(t, err, domain.ErrLockHeld)
	unlock2()
}

func TestLockManagerExpiry(t *testing.T) {
	ctx := context.Background()
	lm := NewLockManager()
	now := time.Unix(1_000, 0)
	lm.nowFn = func() time.Time { return now }

	_, err := lm.Acquire(ctx, "claim:0xdrop", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = lm.Acquire(ctx, "claim:0xdrop", time.Second)
	require.NoError(t, err)
}

func TestSignalBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus()

	exact, err := bus.Subscribe(ctx, domain.ChannelListings)
	require.NoError(t, err)
	wild, err := bus.Subscribe(ctx, "dm:*")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, domain.ChannelListings, []byte("l1")))
	require.NoError(t, bus.Publish(ctx, domain.ChannelDrops, []byte("d1")))

	assert.Equal(t, "l1", string(<-exact))
	assert.Equal(t, "l1", string(<-wild))
	assert.Equal(t, "d1", string(<-wild))

	select {
	case msg := <-exact:
		t.Fatalf("unexpected message %q", msg)
	default:
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-exact
		return !ok
	}, time.Second, 10*time.Millisecond)
}
