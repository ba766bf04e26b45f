package listing

import (
	"fmt"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/countdown"
	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// AuctionInput carries the ledger reads and caller context for an auction.
// NowEpochSeconds is supplied by the caller; nothing here reads a clock.
type AuctionInput struct {
	CurrentBid      *domain.Bid
	NowEpochSeconds int64
	Wallet          string
	// Winner is only consulted once the auction has ended.
	Winner string
}

// AuctionState is the derived view of an auction listing.
type AuctionState struct {
	Quantity         int64         `json:"quantity"`
	MultiUnit        bool          `json:"multi_unit"`
	IsEnded          bool          `json:"is_ended"`
	RemainingSeconds int64         `json:"remaining_seconds"`
	Countdown        string        `json:"countdown"`
	CurrentBid       *domain.Bid   `json:"current_bid,omitempty"`
	IsHighestBidder  bool          `json:"is_highest_bidder"`
	ReserveTotal     amount.Amount `json:"reserve_total"`
	MinimumNextBid   amount.Amount `json:"minimum_next_bid"`
	HasBuyout        bool          `json:"has_buyout"`
	BuyoutTotal      amount.Amount `json:"buyout_total"`
	Winner           string        `json:"winner,omitempty"`
	IsWinner         bool          `json:"is_winner"`
}

// DeriveAuction computes the state of an auction listing.
func DeriveAuction(l domain.AuctionListing, in AuctionInput) (AuctionState, error) {
	qty := l.QuantityAvailable
	if qty < 0 {
		return AuctionState{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}

	reserveTotal, err := amount.MulInt(l.ReservePricePerUnit, qty)
	if err != nil {
		return AuctionState{}, fmt.Errorf("listing: reserve total: %w", err)
	}

	var current *amount.Amount
	if in.CurrentBid != nil {
		current = &in.CurrentBid.Amount
	}
	minBid, err := MinimumNextBid(current, reserveTotal, l.BidBufferBps)
	if err != nil {
		return AuctionState{}, err
	}

	remaining := countdown.Remaining(l.EndTimeEpochSeconds, in.NowEpochSeconds)
	st := AuctionState{
		Quantity:         qty,
		MultiUnit:        qty > 1,
		IsEnded:          l.EndTimeEpochSeconds <= in.NowEpochSeconds,
		RemainingSeconds: remaining,
		Countdown:        countdown.Format(remaining),
		CurrentBid:       in.CurrentBid,
		ReserveTotal:     reserveTotal,
		MinimumNextBid:   minBid,
		HasBuyout:        !l.BuyoutPricePerUnit.IsZero(),
	}

	if st.HasBuyout {
		if st.BuyoutTotal, err = amount.MulInt(l.BuyoutPricePerUnit, qty); err != nil {
			return AuctionState{}, fmt.Errorf("listing: buyout total: %w", err)
		}
	}

	if in.CurrentBid != nil {
		st.IsHighestBidder = domain.SameAddress(in.CurrentBid.BidderAddress, in.Wallet)
	}

	if st.IsEnded && !domain.IsZeroAddress(in.Winner) {
		st.Winner = in.Winner
		st.IsWinner = domain.SameAddress(in.Winner, in.Wallet)
	}
	return st, nil
}

// MinimumNextBid returns the smallest total a new bid must reach. The current
// bid raised by the buffer wins only when it is strictly greater than the
// reserve total; on a tie, or with no current bid, the reserve total applies.
// A first bid therefore only has to clear the reserve.
func MinimumNextBid(current *amount.Amount, reserveTotal amount.Amount, bufferBps int64) (amount.Amount, error) {
	buffered := reserveTotal.Currency().Zero()
	if current != nil {
		var err error
		if buffered, err = amount.ApplyBasisPoints(*current, bufferBps); err != nil {
			return amount.Amount{}, fmt.Errorf("listing: bid buffer: %w", err)
		}
	}

	c, err := amount.Cmp(buffered, reserveTotal)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("listing: minimum bid: %w", err)
	}
	if c > 0 {
		return buffered, nil
	}
	return reserveTotal, nil
}

// CheckBid is the local admission check run before a bid is submitted. The
// contract still performs its own validation.
func CheckBid(st AuctionState, bid amount.Amount) error {
	if st.IsEnded {
		return domain.ErrAuctionEnded
	}
	c, err := amount.Cmp(bid, st.MinimumNextBid)
	if err != nil {
		return fmt.Errorf("listing: check bid: %w", err)
	}
	if c < 0 {
		return fmt.Errorf("%w: %s is below %s", domain.ErrBidTooLow, bid, st.MinimumNextBid)
	}
	return nil
}

// ShouldQueryWinner reports whether the auction winner is defined yet.
func ShouldQueryWinner(l domain.AuctionListing, nowEpochSeconds int64) bool {
	return l.EndTimeEpochSeconds <= nowEpochSeconds
}
