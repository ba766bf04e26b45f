package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/countdown"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/listing"
	"golang.org/x/sync/errgroup"
)

// ListingView is the derived state of one listing for one caller.
type ListingView struct {
	Status  domain.ListingStatus `json:"status"`
	ID      string               `json:"id"`
	Listing domain.Listing       `json:"listing,omitempty"`
	State   *listing.State       `json:"state,omitempty"`
	// EndsAt labels an auction's end time relative to the server clock.
	EndsAt string `json:"ends_at,omitempty"`
}

// ListingOptions configures a ListingService.
type ListingOptions struct {
	ReadTimeout time.Duration
	LockTTL     time.Duration
}

// ListingService reads marketplace listings, derives their state and relays
// bids and buyouts.
type ListingService struct {
	ledger    domain.ListingReader
	submitter domain.Submitter
	store     stateStore
	locks     domain.LockManager
	bus       domain.SignalBus
	lockTTL   time.Duration
	nowFn     func() time.Time
	logger    *slog.Logger
}

// NewListingService creates a ListingService with all required dependencies.
func NewListingService(
	ledger domain.ListingReader,
	submitter domain.Submitter,
	cache domain.StateCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	opts ListingOptions,
	logger *slog.Logger,
) *ListingService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	return &ListingService{
		ledger:    ledger,
		submitter: submitter,
		store:     stateStore{cache: cache, readTimeout: opts.ReadTimeout, logger: logger},
		locks:     locks,
		bus:       bus,
		lockTTL:   opts.LockTTL,
		nowFn:     time.Now,
		logger:    logger,
	}
}

// State reads the listing and, for auctions, its winning bid and bid buffer
// concurrently, then derives the caller's view. A listing that does not exist
// or has not loaded yet is reported through Status, not as an error.
func (s *ListingService) State(ctx context.Context, id string, quantity int64, wallet string) (ListingView, error) {
	now := s.nowFn()
	view := ListingView{ID: id}

	var (
		l      domain.Listing
		bid    *domain.Bid
		bps    int64
		bidErr error
		bpsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l, err = readThrough(gctx, s.store, domain.CacheKey{Kind: domain.KindListing, ID: id}, listingCodec, func(ctx context.Context) (domain.Listing, error) {
			return s.ledger.GetListing(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		bid, bidErr = readThrough(gctx, s.store, domain.CacheKey{Kind: domain.KindBid, ID: id}, jsonCodec[*domain.Bid](), func(ctx context.Context) (*domain.Bid, error) {
			return s.ledger.GetWinningBid(ctx, id)
		})
		return nil
	})
	g.Go(func() error {
		bps, bpsErr = readThrough(gctx, s.store, domain.CacheKey{Kind: domain.KindBidBuffer, ID: id}, jsonCodec[int64](), func(ctx context.Context) (int64, error) {
			return s.ledger.GetBidBufferBps(ctx, id)
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			view.Status = domain.ListingNotFound
			return view, nil
		case errors.Is(err, domain.ErrPending):
			view.Status = domain.ListingPending
			return view, nil
		default:
			return ListingView{}, fmt.Errorf("listing_service: get listing %s: %w", id, err)
		}
	}

	in := listing.Input{
		RequestedQuantity: quantity,
		Wallet:            wallet,
		NowEpochSeconds:   now.Unix(),
	}

	if auction, ok := l.(domain.AuctionListing); ok {
		for _, err := range []error{bidErr, bpsErr} {
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrPending):
				view.Status = domain.ListingPending
				return view, nil
			default:
				return ListingView{}, fmt.Errorf("listing_service: auction reads %s: %w", id, err)
			}
		}
		auction.BidBufferBps = bps
		l = auction
		in.CurrentBid = bid

		if listing.ShouldQueryWinner(auction, in.NowEpochSeconds) {
			winner, err := readThrough(ctx, s.store, domain.CacheKey{Kind: domain.KindWinner, ID: id}, jsonCodec[string](), func(ctx context.Context) (string, error) {
				return s.ledger.GetAuctionWinner(ctx, id)
			})
			if err != nil {
				return ListingView{}, fmt.Errorf("listing_service: auction winner %s: %w", id, err)
			}
			in.Winner = winner
		}
		view.EndsAt = countdown.FormatEnd(time.Unix(auction.EndTimeEpochSeconds, 0).In(now.Location()), now)
	}

	st, err := listing.Derive(l, in)
	if err != nil {
		return ListingView{}, fmt.Errorf("listing_service: derive %s: %w", id, err)
	}

	view.Status = domain.ListingFound
	view.Listing = l
	view.State = &st
	return view, nil
}

// Refresh drops cached reads for the listing and derives it again.
func (s *ListingService) Refresh(ctx context.Context, id string, quantity int64, wallet string) (ListingView, error) {
	s.store.invalidate(ctx, domain.ListingKeys(id)...)
	view, err := s.State(ctx, id, quantity, wallet)
	if err != nil {
		return ListingView{}, err
	}
	publish(ctx, s.bus, s.logger, domain.ChannelListings, domain.EventListingState, id, s.nowFn(), view)
	return view, nil
}

// PlaceBid admits a bid of amountText (a decimal in the listing currency) on
// an auction and relays it. Local admission failures are returned as errors;
// relayer failures come back as a classified SubmissionResult.
func (s *ListingService) PlaceBid(ctx context.Context, id, wallet, amountText string) (SubmissionResult, error) {
	kind := domain.SubmissionBid
	if domain.IsZeroAddress(wallet) {
		return SubmissionResult{}, rejectLocally(kind, domain.ErrNoWallet)
	}

	unlock, err := acquire(ctx, s.locks, scopeListing, id, s.lockTTL)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer unlock()

	view, err := s.found(ctx, id, 1, wallet)
	if err != nil {
		return SubmissionResult{}, err
	}
	auction := view.State.Auction
	if auction == nil {
		return SubmissionResult{}, rejectLocally(kind, fmt.Errorf("listing %s is not an auction: %w", id, domain.ErrUnsupportedListing))
	}

	cur := view.Listing.Common().Currency
	bid, err := amount.Parse(amountText, cur.Decimals, cur.Symbol)
	if err != nil {
		return SubmissionResult{}, rejectLocally(kind, err)
	}
	if err := listing.CheckBid(*auction, bid); err != nil {
		return SubmissionResult{}, rejectLocally(kind, err)
	}

	res := submit(ctx, s.store, s.bus, s.nowFn(), submission{
		kind:     kind,
		targetID: id,
		wallet:   wallet,
		stale:    domain.ListingKeys(id),
		send: func(ctx context.Context) (domain.Receipt, error) {
			return s.submitter.SubmitBid(ctx, id, wallet, bid)
		},
	})
	return res, nil
}

// Buyout purchases from a direct listing, or buys out an auction at its
// buyout price. For direct listings quantity is clamped to what is available.
// Admission is decided on state read while holding the listing's lock.
func (s *ListingService) Buyout(ctx context.Context, id, wallet string, quantity int64) (SubmissionResult, error) {
	if domain.IsZeroAddress(wallet) {
		return SubmissionResult{}, rejectLocally(domain.SubmissionPurchase, domain.ErrNoWallet)
	}

	unlock, err := acquire(ctx, s.locks, scopeListing, id, s.lockTTL)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer unlock()

	view, err := s.found(ctx, id, quantity, wallet)
	if err != nil {
		return SubmissionResult{}, err
	}

	var (
		kind domain.SubmissionKind
		qty  int64
	)
	switch {
	case view.State.Direct != nil:
		kind = domain.SubmissionPurchase
		st := view.State.Direct
		if !st.CanPurchase {
			return SubmissionResult{}, rejectLocally(kind, fmt.Errorf("%w: cannot buy %d of %d", domain.ErrInvalidQuantity, quantity, st.QuantityAvailable))
		}
		qty = st.PurchaseQuantity
	case view.State.Auction != nil:
		kind = domain.SubmissionBuyout
		st := view.State.Auction
		if st.IsEnded {
			return SubmissionResult{}, rejectLocally(kind, domain.ErrAuctionEnded)
		}
		if !st.HasBuyout {
			return SubmissionResult{}, rejectLocally(kind, fmt.Errorf("listing %s has no buyout price: %w", id, domain.ErrUnsupportedListing))
		}
		qty = st.Quantity
	default:
		return SubmissionResult{}, fmt.Errorf("listing_service: listing %s: %w", id, domain.ErrUnsupportedListing)
	}

	res := submit(ctx, s.store, s.bus, s.nowFn(), submission{
		kind:     kind,
		targetID: id,
		wallet:   wallet,
		stale:    domain.ListingKeys(id),
		send: func(ctx context.Context) (domain.Receipt, error) {
			return s.submitter.SubmitBuyout(ctx, id, wallet, qty)
		},
	})
	return res, nil
}

// found derives the listing and requires it to exist and be loaded.
func (s *ListingService) found(ctx context.Context, id string, quantity int64, wallet string) (ListingView, error) {
	view, err := s.State(ctx, id, quantity, wallet)
	if err != nil {
		return ListingView{}, err
	}
	switch view.Status {
	case domain.ListingNotFound:
		return ListingView{}, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	case domain.ListingPending:
		return ListingView{}, fmt.Errorf("listing %s: %w", id, domain.ErrPending)
	}
	return view, nil
}
