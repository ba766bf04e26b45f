package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/cache/memory"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSubscribed(t *testing.T) {
	c := &client{subs: map[string]bool{
		"dm:drop":            true,
		"dm:listing:7":       true,
		"dm:submission:0xa*": true,
	}}
	assert.True(t, c.isSubscribed("dm:drop", "dm:drop:0xabc"))
	assert.True(t, c.isSubscribed("dm:listing", "dm:listing:7"))
	assert.False(t, c.isSubscribed("dm:listing", "dm:listing:8"))
	assert.True(t, c.isSubscribed("dm:submission", "dm:submission:0xabc"))
	assert.False(t, c.isSubscribed("dm:submission", "dm:submission:0xbcd"))
}

func TestHubForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewSignalBus()
	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Mode: "serve", ChainID: 137})
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?topics=dm:listing:7"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(first), "service_status")
	assert.Contains(t, string(first), "137")

	other, err := json.Marshal(domain.Event{Type: domain.EventListingState, TargetID: "8"})
	require.NoError(t, err)
	wanted, err := json.Marshal(domain.Event{Type: domain.EventListingState, TargetID: "7"})
	require.NoError(t, err)

	// The hub subscribes to the bus asynchronously, so keep publishing until
	// the client has seen the event.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bus.Publish(ctx, domain.ChannelListings, other)
				_ = bus.Publish(ctx, domain.ChannelListings, wanted)
			}
		}
	}()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt domain.Event
	require.NoError(t, json.Unmarshal(msg, &evt))
	assert.Equal(t, "7", evt.TargetID)
	assert.Equal(t, domain.EventListingState, evt.Type)
}
