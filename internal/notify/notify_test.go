package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/cache/memory"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
	bodies []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return r.err
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func submissionEvent(t *testing.T, sub domain.SubmissionEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(sub)
	require.NoError(t, err)
	data, err := json.Marshal(domain.Event{
		Type:     domain.EventSubmission,
		TargetID: sub.TargetID,
		At:       time.Unix(1000, 0).UTC(),
		Payload:  payload,
	})
	require.NoError(t, err)
	return data
}

func TestNotifyFiltersEvents(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier([]Sender{rec}, []string{EventSubmissionFailed}, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventSubmissionOK, "ok", ""))
	assert.Equal(t, 0, rec.count())

	require.NoError(t, n.Notify(context.Background(), EventSubmissionFailed, "failed", ""))
	assert.Equal(t, 1, rec.count())
}

func TestNotifyCollectsSenderErrors(t *testing.T) {
	bad := &recordingSender{err: errors.New("boom")}
	good := &recordingSender{}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.Notify(context.Background(), EventSubmissionOK, "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, good.count(), "later senders still receive the message")
}

func TestHandleDescribesSubmission(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier([]Sender{rec}, nil, slog.Default())

	n.handle(context.Background(), submissionEvent(t, domain.SubmissionEvent{
		Kind:      domain.SubmissionBid,
		TargetID:  "42",
		Wallet:    "0xabc",
		Category:  "insufficient_funds",
		RequestID: "req-1",
	}))
	n.handle(context.Background(), []byte(`{"type":"listing_state","payload":{}}`))
	n.handle(context.Background(), []byte(`not json`))

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Failed bid on 42", rec.titles[0])
	assert.Equal(t, "wallet: 0xabc\ncategory: insufficient_funds\nrequest: req-1", rec.bodies[0])
}

func TestRunForwardsBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewSignalBus()
	rec := &recordingSender{}
	n := NewNotifier([]Sender{rec}, nil, slog.Default())

	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, bus) }()

	data := submissionEvent(t, domain.SubmissionEvent{Kind: domain.SubmissionClaim, TargetID: "0xdrop", OK: true})
	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, domain.ChannelSubmissions, data)
		return rec.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, "Submitted claim on 0xdrop", rec.titles[0])
}

func TestSenders(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		body  []map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]string
		_ = json.Unmarshal(raw, &m)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = append(body, m)
		mu.Unlock()
		if r.URL.Path == "/fail" {
			http.Error(w, "nope", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, NewTelegramSender(srv.URL, "tok", "chat").Send(ctx, "T", "M"))
	require.NoError(t, NewDiscordSender(srv.URL+"/hook").Send(ctx, "T", "M"))

	err := NewDiscordSender(srv.URL+"/fail").Send(ctx, "T", "M")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord: unexpected status 400")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/bottok/sendMessage", paths[0])
	assert.Equal(t, "chat", body[0]["chat_id"])
	assert.Equal(t, "*T*\nM", body[0]["text"])
	assert.Equal(t, "/hook", paths[1])
	assert.Equal(t, "**T**\nM", body[1]["content"])
}
