package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPrefix(t *testing.T) {
	c := &Client{prefix: "dm"}
	assert.Equal(t, "dm:lock:bid:1", c.key("lock", "bid:1"))

	bare := &Client{}
	assert.Equal(t, "state:listing:7", bare.key("state", "listing", "7"))

	sc := NewStateCache(c, 0)
	assert.Equal(t, "dm:state:claim-condition:0xdrop", sc.stateKey(domain.CacheKey{Kind: domain.KindClaimCondition, ID: "0xdrop"}))
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("dm:*"))
	assert.False(t, hasPattern(domain.ChannelListings))
}

// liveClient connects to the Redis named by DROPMARKET_TEST_REDIS_ADDR.
func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("DROPMARKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DROPMARKET_TEST_REDIS_ADDR not set")
	}
	c, err := New(context.Background(), ClientConfig{Addr: addr, KeyPrefix: "dmtest:" + t.Name()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStateCacheLive(t *testing.T) {
	c := liveClient(t)
	ctx := context.Background()
	sc := NewStateCache(c, time.Minute)

	keys := domain.ListingKeys("42")
	for _, k := range keys {
		require.NoError(t, sc.Set(ctx, k, []byte(k.String())))
	}
	got, err := sc.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, "listing:42", string(got))

	require.NoError(t, sc.Invalidate(ctx, keys[1]))
	_, err = sc.Get(ctx, keys[1])
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = sc.Get(ctx, keys[2])
	require.NoError(t, err)

	require.NoError(t, sc.Invalidate(ctx, keys...))
}

func TestLockManagerLive(t *testing.T) {
	c := liveClient(t)
	ctx := context.Background()
	lm := NewLockManager(c)

	unlock, err := lm.Acquire(ctx, "bid:1", time.Minute)
	require.NoError(t, err)
	_, err = lm.Acquire(ctx, "bid:1", time.Minute)
	require.ErrorIs(t, err, domain.ErrLockHeld)
	unlock()

	unlock, err = lm.Acquire(ctx, "bid:1", time.Minute)
	require.NoError(t, err)
	unlock()
}

func TestSignalBusLive(t *testing.T) {
	c := liveClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus(c)

	ch, err := bus.Subscribe(ctx, domain.ChannelDrops)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, domain.ChannelDrops, []byte("hello")))

	select {
	case msg := <-ch:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
