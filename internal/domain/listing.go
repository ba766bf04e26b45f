package domain

import (
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/dropmarket/internal/amount"
)

// ListingType identifies the variant of a marketplace listing.
type ListingType string

const (
	ListingTypeDirect  ListingType = "direct"
	ListingTypeAuction ListingType = "auction"
)

// Listing is a closed union of DirectListing and AuctionListing. The
// unexported marker method keeps other packages from adding variants, so a
// type switch over the two concrete types is exhaustive.
type Listing interface {
	ListingID() string
	Type() ListingType
	Common() ListingCommon
	isListing()
}

// ListingCommon holds the fields shared by every listing variant.
type ListingCommon struct {
	ID                string          `json:"id"`
	AssetContract     string          `json:"asset_contract"`
	TokenID           string          `json:"token_id"`
	QuantityAvailable int64           `json:"quantity_available"`
	Currency          amount.Currency `json:"currency"`
	PricePerUnit      amount.Amount   `json:"price_per_unit"`
}

// DirectListing is a fixed-price sale.
type DirectListing struct {
	ListingCommon
}

func (l DirectListing) ListingID() string     { return l.ID }
func (l DirectListing) Type() ListingType     { return ListingTypeDirect }
func (l DirectListing) Common() ListingCommon { return l.ListingCommon }
func (DirectListing) isListing()              {}

// AuctionListing is an English auction with an optional buyout price. A zero
// BuyoutPricePerUnit means the auction has no buyout option.
type AuctionListing struct {
	ListingCommon
	EndTimeEpochSeconds int64         `json:"end_time"`
	ReservePricePerUnit amount.Amount `json:"reserve_price_per_unit"`
	BuyoutPricePerUnit  amount.Amount `json:"buyout_price_per_unit"`
	BidBufferBps        int64         `json:"bid_buffer_bps"`
}

func (l AuctionListing) ListingID() string     { return l.ID }
func (l AuctionListing) Type() ListingType     { return ListingTypeAuction }
func (l AuctionListing) Common() ListingCommon { return l.ListingCommon }
func (AuctionListing) isListing()              {}

// ListingStatus distinguishes a listing that is still loading from one that
// does not exist on the ledger.
type ListingStatus string

const (
	ListingPending  ListingStatus = "pending"
	ListingFound    ListingStatus = "found"
	ListingNotFound ListingStatus = "not_found"
)

// ListingResult is the outcome of a listing lookup. Listing is nil unless
// Status is ListingFound.
type ListingResult struct {
	Status  ListingStatus
	Listing Listing
}

// Bid is the current winning bid on an auction.
type Bid struct {
	BidderAddress string        `json:"bidder_address"`
	Amount        amount.Amount `json:"amount"`
}

type listingRecord struct {
	Type    ListingType     `json:"type"`
	Direct  *DirectListing  `json:"direct,omitempty"`
	Auction *AuctionListing `json:"auction,omitempty"`
}

// MarshalListing encodes a listing together with its variant tag.
func MarshalListing(l Listing) ([]byte, error) {
	rec := listingRecord{Type: l.Type()}
	switch v := l.(type) {
	case DirectListing:
		rec.Direct = &v
	case AuctionListing:
		rec.Auction = &v
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedListing, l)
	}
	return json.Marshal(rec)
}

// UnmarshalListing decodes the output of MarshalListing.
func UnmarshalListing(data []byte) (Listing, error) {
	var rec listingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	switch {
	case rec.Type == ListingTypeDirect && rec.Direct != nil:
		return *rec.Direct, nil
	case rec.Type == ListingTypeAuction && rec.Auction != nil:
		return *rec.Auction, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedListing, rec.Type)
	}
}
