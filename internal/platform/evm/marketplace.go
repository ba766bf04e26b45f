package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// GetListing reads a listing from the marketplace contract. Cancelled and
// never-created listings have a zero asset contract and map to
// domain.ErrNotFound.
func (c *Client) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	out, err := c.call(ctx, c.marketplace, marketplaceABI, "listings", n)
	if err != nil {
		return nil, fmt.Errorf("evm: get listing %s: %w", id, err)
	}

	var raw listingOutput
	if err := marketplaceABI.Methods["listings"].Outputs.Copy(&raw, out); err != nil {
		return nil, fmt.Errorf("evm: decode listing %s: %w", id, err)
	}
	if raw.AssetContract == (common.Address{}) {
		return nil, fmt.Errorf("evm: listing %s: %w", id, domain.ErrNotFound)
	}

	cur, err := c.currency(ctx, raw.Currency)
	if err != nil {
		return nil, fmt.Errorf("evm: listing %s: %w", id, err)
	}
	reserve, err := cur.FromRaw(raw.ReservePricePerToken)
	if err != nil {
		return nil, fmt.Errorf("evm: listing %s reserve: %w", id, err)
	}
	buyout, err := cur.FromRaw(raw.BuyoutPricePerToken)
	if err != nil {
		return nil, fmt.Errorf("evm: listing %s buyout: %w", id, err)
	}

	base := domain.ListingCommon{
		ID:                id,
		AssetContract:     raw.AssetContract.Hex(),
		TokenID:           raw.TokenId.String(),
		QuantityAvailable: clampInt64(raw.Quantity),
		Currency:          cur,
		PricePerUnit:      buyout,
	}

	switch raw.ListingType {
	case listingTypeDirect:
		return domain.DirectListing{ListingCommon: base}, nil
	case listingTypeAuction:
		return domain.AuctionListing{
			ListingCommon:       base,
			EndTimeEpochSeconds: clampInt64(raw.EndTime),
			ReservePricePerUnit: reserve,
			BuyoutPricePerUnit:  buyout,
		}, nil
	default:
		return nil, fmt.Errorf("evm: listing %s: %w: type %d", id, domain.ErrUnsupportedListing, raw.ListingType)
	}
}

// GetWinningBid returns the highest bid on an auction, or nil when there is
// none. The bid total is the per-token price times the quantity wanted.
func (c *Client) GetWinningBid(ctx context.Context, id string) (*domain.Bid, error) {
	offer, err := c.winningOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Offeror == (common.Address{}) {
		return nil, nil
	}

	cur, err := c.currency(ctx, offer.Currency)
	if err != nil {
		return nil, fmt.Errorf("evm: winning bid %s: %w", id, err)
	}
	qty := offer.QuantityWanted
	if qty == nil || qty.Sign() == 0 {
		qty = big.NewInt(1)
	}
	total, err := cur.FromRaw(new(big.Int).Mul(offer.PricePerToken, qty))
	if err != nil {
		return nil, fmt.Errorf("evm: winning bid %s: %w", id, err)
	}
	return &domain.Bid{BidderAddress: offer.Offeror.Hex(), Amount: total}, nil
}

// GetAuctionWinner returns the offeror of the winning bid. Callers only ask
// once the auction has closed, at which point that bid is final.
func (c *Client) GetAuctionWinner(ctx context.Context, id string) (string, error) {
	offer, err := c.winningOffer(ctx, id)
	if err != nil {
		return "", err
	}
	if offer.Offeror == (common.Address{}) {
		return "", nil
	}
	return offer.Offeror.Hex(), nil
}

// GetBidBufferBps reads the marketplace-wide bid buffer. The contract has a
// single buffer for every auction; id is accepted for interface symmetry.
func (c *Client) GetBidBufferBps(ctx context.Context, id string) (int64, error) {
	out, err := c.call(ctx, c.marketplace, marketplaceABI, "bidBufferBps")
	if err != nil {
		return 0, fmt.Errorf("evm: bid buffer for %s: %w", id, err)
	}
	bps := *abi.ConvertType(out[0], new(uint64)).(*uint64)
	if bps > amount.MaxBasisPoints {
		return 0, fmt.Errorf("evm: bid buffer %d exceeds %d bps", bps, amount.MaxBasisPoints)
	}
	return int64(bps), nil
}

func (c *Client) winningOffer(ctx context.Context, id string) (offerOutput, error) {
	n, err := parseID(id)
	if err != nil {
		return offerOutput{}, err
	}
	out, err := c.call(ctx, c.marketplace, marketplaceABI, "winningBid", n)
	if err != nil {
		return offerOutput{}, fmt.Errorf("evm: winning bid %s: %w", id, err)
	}
	var offer offerOutput
	if err := marketplaceABI.Methods["winningBid"].Outputs.Copy(&offer, out); err != nil {
		return offerOutput{}, fmt.Errorf("evm: decode winning bid %s: %w", id, err)
	}
	return offer, nil
}

func clampInt64(n *big.Int) int64 {
	if n == nil {
		return 0
	}
	if !n.IsInt64() {
		if n.Sign() < 0 {
			return 0
		}
		return 1<<63 - 1
	}
	return n.Int64()
}
