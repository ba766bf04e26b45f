package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/metrics"
)

// stateStore is the read-through cache shared by the services. Reads are
// keyed by (kind, id) and invalidated key by key, never wholesale.
type stateStore struct {
	cache       domain.StateCache
	readTimeout time.Duration
	logger      *slog.Logger
}

// codec converts a cached value to and from its stored form.
type codec[T any] struct {
	encode func(T) ([]byte, error)
	decode func([]byte) (T, error)
}

func jsonCodec[T any]() codec[T] {
	return codec[T]{
		encode: func(v T) ([]byte, error) { return json.Marshal(v) },
		decode: func(b []byte) (T, error) {
			var v T
			err := json.Unmarshal(b, &v)
			return v, err
		},
	}
}

var listingCodec = codec[domain.Listing]{
	encode: domain.MarshalListing,
	decode: domain.UnmarshalListing,
}

// readThrough returns the cached value for key or calls fetch and stores its
// result. A fetch that outlives the read timeout while the caller is still
// waiting yields domain.ErrPending. Errors are never cached.
func readThrough[T any](ctx context.Context, s stateStore, key domain.CacheKey, c codec[T], fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	kind := string(key.Kind)

	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		v, decErr := c.decode(data)
		if decErr == nil {
			metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return v, nil
		}
		s.logger.WarnContext(ctx, "service: cached value unreadable",
			slog.String("key", key.String()),
			slog.String("error", decErr.Error()),
		)
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	case errors.Is(err, domain.ErrNotFound):
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		s.logger.WarnContext(ctx, "service: cache get failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	}

	readCtx := ctx
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	v, err := fetch(readCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s: %w", key, domain.ErrPending)
		}
		return zero, err
	}

	data, err = c.encode(v)
	if err != nil {
		return zero, fmt.Errorf("service: encode %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.WarnContext(ctx, "service: cache set failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}

// invalidate drops exactly keys. Failures are logged; entries still expire.
func (s stateStore) invalidate(ctx context.Context, keys ...domain.CacheKey) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "service: cache invalidate failed",
			slog.Int("keys", len(keys)),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, k := range keys {
		metrics.CacheInvalidations.WithLabelValues(string(k.Kind)).Inc()
	}
}

// publish wraps payload in a domain.Event and sends it on channel.
func publish(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, typ domain.EventType, targetID string, at time.Time, payload any) {
	if bus == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "service: marshal event failed",
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
		return
	}
	evt, err := json.Marshal(domain.Event{Type: typ, TargetID: targetID, At: at.UTC(), Payload: body})
	if err != nil {
		return
	}
	if err := bus.Publish(ctx, channel, evt); err != nil {
		logger.WarnContext(ctx, "service: publish event failed",
			slog.String("channel", channel),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}
}
