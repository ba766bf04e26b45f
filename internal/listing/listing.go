// Package listing derives purchase and bidding state for marketplace
// listings from ledger reads. All functions are pure.
package listing

import (
	"fmt"

	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// Input is the union of the inputs needed by either listing variant.
type Input struct {
	RequestedQuantity int64
	Wallet            string
	NowEpochSeconds   int64
	CurrentBid        *domain.Bid
	Winner            string
}

// State holds exactly one of Direct or Auction, matching Type.
type State struct {
	Type    domain.ListingType `json:"type"`
	Direct  *DirectState       `json:"direct,omitempty"`
	Auction *AuctionState      `json:"auction,omitempty"`
}

// Derive dispatches on the listing variant.
func Derive(l domain.Listing, in Input) (State, error) {
	switch v := l.(type) {
	case domain.DirectListing:
		st, err := DeriveDirect(v, DirectInput{
			RequestedQuantity: in.RequestedQuantity,
			WalletConnected:   !domain.IsZeroAddress(in.Wallet),
		})
		if err != nil {
			return State{}, err
		}
		return State{Type: domain.ListingTypeDirect, Direct: &st}, nil
	case domain.AuctionListing:
		st, err := DeriveAuction(v, AuctionInput{
			CurrentBid:      in.CurrentBid,
			NowEpochSeconds: in.NowEpochSeconds,
			Wallet:          in.Wallet,
			Winner:          in.Winner,
		})
		if err != nil {
			return State{}, err
		}
		return State{Type: domain.ListingTypeAuction, Auction: &st}, nil
	default:
		return State{}, fmt.Errorf("%w: %T", domain.ErrUnsupportedListing, l)
	}
}
