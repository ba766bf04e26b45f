package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/metrics"
	"github.com/alanyoungcy/dropmarket/internal/outcome"
)

// SubmissionResult is what the caller sees after a bid, buyout, purchase or
// claim. A failed submission is a classified result, not an error.
type SubmissionResult struct {
	OK        bool                  `json:"ok"`
	Kind      domain.SubmissionKind `json:"kind"`
	Category  outcome.Category      `json:"category,omitempty"`
	Title     string                `json:"title,omitempty"`
	Message   string                `json:"message,omitempty"`
	Detail    string                `json:"detail,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
	TxHash    string                `json:"tx_hash,omitempty"`
}

// submission describes one mutating call and the state it makes stale.
type submission struct {
	kind     domain.SubmissionKind
	targetID string
	wallet   string
	stale    []domain.CacheKey
	send     func(context.Context) (domain.Receipt, error)
}

// Lock scopes. Every mutating submission on a listing shares one lock,
// whatever its kind, and likewise for a drop.
const (
	scopeListing = "listing"
	scopeDrop    = "drop"
)

func lockKey(scope, targetID string) string {
	return scope + ":" + targetID
}

// acquire takes the submission lock for targetID within scope.
func acquire(ctx context.Context, locks domain.LockManager, scope, targetID string, ttl time.Duration) (func(), error) {
	key := lockKey(scope, targetID)
	unlock, err := locks.Acquire(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return nil, fmt.Errorf("submission on %s %s already in flight: %w", scope, targetID, domain.ErrLockHeld)
		}
		return nil, fmt.Errorf("service: lock %s: %w", key, err)
	}
	return unlock, nil
}

// rejectLocally records a submission refused before it reached the relayer.
func rejectLocally(kind domain.SubmissionKind, err error) error {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrNoWallet):
		reason = "no_wallet"
	case errors.Is(err, domain.ErrBidTooLow):
		reason = "bid_too_low"
	case errors.Is(err, domain.ErrAuctionEnded):
		reason = "auction_ended"
	case errors.Is(err, domain.ErrInvalidQuantity):
		reason = "invalid_quantity"
	case errors.Is(err, domain.ErrNotEligible):
		reason = "not_eligible"
	case errors.Is(err, domain.ErrUnsupportedListing):
		reason = "unsupported"
	case errors.Is(err, amount.ErrInvalidAmount):
		reason = "invalid_amount"
	}
	metrics.SubmissionsRejectedLocally.WithLabelValues(string(kind), reason).Inc()
	return err
}

// submit relays sub, classifies any failure, invalidates the stale keys on
// success and publishes the result on the submissions channel.
func submit(ctx context.Context, store stateStore, bus domain.SignalBus, now time.Time, sub submission) SubmissionResult {
	logger := store.logger
	res := SubmissionResult{Kind: sub.kind}

	rcpt, err := sub.send(ctx)
	if err != nil {
		c := outcome.FromError(err)
		msg := outcome.Describe(sub.kind, c)
		res.Category = c.Category
		res.Title = msg.Title
		res.Message = msg.Description
		res.Detail = c.Detail

		var se *domain.SubmissionError
		if errors.As(err, &se) {
			res.RequestID = se.RequestID
		}

		metrics.SubmissionsTotal.WithLabelValues(string(sub.kind), string(c.Category)).Inc()
		logger.WarnContext(ctx, "service: submission failed",
			slog.String("kind", string(sub.kind)),
			slog.String("target_id", sub.targetID),
			slog.String("category", string(c.Category)),
			slog.String("rule", string(c.Rule)),
			slog.String("error", err.Error()),
		)
	} else {
		res.OK = true
		res.RequestID = rcpt.RequestID
		res.TxHash = rcpt.TxHash
		store.invalidate(ctx, sub.stale...)

		metrics.SubmissionsTotal.WithLabelValues(string(sub.kind), "ok").Inc()
		logger.InfoContext(ctx, "service: submission accepted",
			slog.String("kind", string(sub.kind)),
			slog.String("target_id", sub.targetID),
			slog.String("request_id", rcpt.RequestID),
			slog.String("tx_hash", rcpt.TxHash),
		)
	}

	publish(ctx, bus, logger, domain.ChannelSubmissions, domain.EventSubmission, sub.targetID, now, domain.SubmissionEvent{
		Kind:      sub.kind,
		TargetID:  sub.targetID,
		Wallet:    sub.wallet,
		OK:        res.OK,
		Category:  string(res.Category),
		RequestID: res.RequestID,
	})
	return res
}
