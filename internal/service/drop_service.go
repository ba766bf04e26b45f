package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/claim"
	"github.com/alanyoungcy/dropmarket/internal/countdown"
	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// DropView is the claim eligibility of one wallet on one drop.
type DropView struct {
	Contract  string                `json:"contract"`
	Condition domain.ClaimCondition `json:"condition"`
	Result    claim.Result          `json:"result"`
	// StartsIn is a countdown label, set only before the sale opens.
	StartsIn string `json:"starts_in,omitempty"`
}

// DropOptions configures a DropService.
type DropOptions struct {
	ReadTimeout time.Duration
	LockTTL     time.Duration
}

// DropService evaluates claim eligibility and relays claims.
type DropService struct {
	ledger    domain.ClaimConditionReader
	snapshots domain.SnapshotSource
	submitter domain.Submitter
	store     stateStore
	locks     domain.LockManager
	bus       domain.SignalBus
	lockTTL   time.Duration
	nowFn     func() time.Time
	logger    *slog.Logger
}

// NewDropService creates a DropService. snapshots may be nil when no drop
// uses an allowlist.
func NewDropService(
	ledger domain.ClaimConditionReader,
	snapshots domain.SnapshotSource,
	submitter domain.Submitter,
	cache domain.StateCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	opts DropOptions,
	logger *slog.Logger,
) *DropService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	return &DropService{
		ledger:    ledger,
		snapshots: snapshots,
		submitter: submitter,
		store:     stateStore{cache: cache, readTimeout: opts.ReadTimeout, logger: logger},
		locks:     locks,
		bus:       bus,
		lockTTL:   opts.LockTTL,
		nowFn:     time.Now,
		logger:    logger,
	}
}

func conditionKey(contract string) domain.CacheKey {
	return domain.CacheKey{Kind: domain.KindClaimCondition, ID: contract}
}

// condition reads the active claim condition and attaches its allowlist.
func (s *DropService) condition(ctx context.Context, contract string) (domain.ClaimCondition, error) {
	cond, err := readThrough(ctx, s.store, conditionKey(contract), jsonCodec[domain.ClaimCondition](), func(ctx context.Context) (domain.ClaimCondition, error) {
		return s.ledger.GetActiveClaimCondition(ctx, contract)
	})
	if err != nil {
		return domain.ClaimCondition{}, fmt.Errorf("drop_service: claim condition %s: %w", contract, err)
	}
	if cond.MerkleRoot == "" || s.snapshots == nil {
		cond.Snapshot = nil
		return cond, nil
	}

	key := domain.CacheKey{Kind: domain.KindSnapshot, ID: contract + ":" + cond.MerkleRoot}
	entries, err := readThrough(ctx, s.store, key, jsonCodec[[]domain.SnapshotEntry](), func(ctx context.Context) ([]domain.SnapshotEntry, error) {
		return s.snapshots.GetSnapshot(ctx, contract, cond.MerkleRoot)
	})
	switch {
	case err == nil:
		cond.Snapshot = entries
	case errors.Is(err, domain.ErrNotFound):
		// Unpublished allowlist: the contract still enforces its proofs.
		s.logger.WarnContext(ctx, "drop_service: allowlist not published",
			slog.String("contract", contract),
			slog.String("merkle_root", cond.MerkleRoot),
		)
		cond.Snapshot = nil
	default:
		return domain.ClaimCondition{}, fmt.Errorf("drop_service: allowlist %s: %w", contract, err)
	}
	return cond, nil
}

// Eligibility evaluates whether wallet may claim quantity units now.
func (s *DropService) Eligibility(ctx context.Context, contract, wallet string, quantity int64) (DropView, error) {
	cond, err := s.condition(ctx, contract)
	switch {
	case errors.Is(err, domain.ErrNoClaimCondition):
		return DropView{Contract: contract, Result: claim.Unconfigured(quantity)}, nil
	case err != nil:
		return DropView{}, err
	}

	now := s.nowFn().Unix()
	res, err := claim.Evaluate(cond, claim.Request{
		Wallet:          wallet,
		Quantity:        quantity,
		NowEpochSeconds: now,
	})
	if err != nil {
		return DropView{}, fmt.Errorf("drop_service: evaluate %s: %w", contract, err)
	}

	view := DropView{Contract: contract, Condition: cond, Result: res}
	if now < cond.StartTimeEpochSeconds {
		view.StartsIn = countdown.Format(countdown.Remaining(cond.StartTimeEpochSeconds, now))
	}
	return view, nil
}

// Refresh drops the cached claim condition and evaluates the drop again.
func (s *DropService) Refresh(ctx context.Context, contract, wallet string, quantity int64) (DropView, error) {
	s.store.invalidate(ctx, conditionKey(contract))
	view, err := s.Eligibility(ctx, contract, wallet, quantity)
	if err != nil {
		return DropView{}, err
	}
	publish(ctx, s.bus, s.logger, domain.ChannelDrops, domain.EventDropState, contract, s.nowFn(), view)
	return view, nil
}

// Claim relays a claim once the wallet is eligible for exactly quantity
// units. Ineligibility is returned as domain.ErrNotEligible carrying the
// primary reason's message.
func (s *DropService) Claim(ctx context.Context, contract, wallet string, quantity int64) (SubmissionResult, error) {
	kind := domain.SubmissionClaim
	if domain.IsZeroAddress(wallet) {
		return SubmissionResult{}, rejectLocally(kind, domain.ErrNoWallet)
	}

	unlock, err := acquire(ctx, s.locks, scopeDrop, contract, s.lockTTL)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer unlock()

	view, err := s.Eligibility(ctx, contract, wallet, quantity)
	if err != nil {
		return SubmissionResult{}, err
	}
	if !view.Result.Eligible {
		return SubmissionResult{}, rejectLocally(kind, &IneligibleError{Reason: view.Result.PrimaryReason, Message: view.Result.Message})
	}

	res := submit(ctx, s.store, s.bus, s.nowFn(), submission{
		kind:     kind,
		targetID: contract,
		wallet:   wallet,
		stale:    []domain.CacheKey{conditionKey(contract)},
		send: func(ctx context.Context) (domain.Receipt, error) {
			return s.submitter.SubmitClaim(ctx, contract, wallet, quantity)
		},
	})
	return res, nil
}

// IneligibleError reports why a claim was refused locally.
type IneligibleError struct {
	Reason  claim.Reason
	Message string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrNotEligible, e.Message)
}

func (e *IneligibleError) Unwrap() error { return domain.ErrNotEligible }
