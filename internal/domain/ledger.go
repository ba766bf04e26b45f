package domain

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/dropmarket/internal/amount"
)

// ListingReader reads marketplace state from the ledger.
type ListingReader interface {
	// GetListing returns ErrNotFound for cancelled or non-existent listings.
	GetListing(ctx context.Context, id string) (Listing, error)
	// GetWinningBid returns nil when the auction has no bids yet.
	GetWinningBid(ctx context.Context, id string) (*Bid, error)
	// GetAuctionWinner returns "" when there is no winner. Only meaningful
	// once the auction has ended.
	GetAuctionWinner(ctx context.Context, id string) (string, error)
	GetBidBufferBps(ctx context.Context, id string) (int64, error)
}

// ClaimConditionReader reads drop state from the ledger.
type ClaimConditionReader interface {
	GetActiveClaimCondition(ctx context.Context, contract string) (ClaimCondition, error)
}

// SnapshotSource resolves the allowlist published for a claim condition.
// It returns a nil slice when the condition has no allowlist.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, contract, merkleRoot string) ([]SnapshotEntry, error)
}

// ChainInfo reports which network the ledger client is connected to.
type ChainInfo interface {
	ChainID(ctx context.Context) (int64, error)
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	RequestID string `json:"request_id"`
	TxHash    string `json:"tx_hash,omitempty"`
}

// Submitter relays mutating transactions. A rejected submission returns a
// *SubmissionError carrying the failure payload.
type Submitter interface {
	SubmitBid(ctx context.Context, listingID, bidder string, total amount.Amount) (Receipt, error)
	SubmitBuyout(ctx context.Context, listingID, buyer string, quantity int64) (Receipt, error)
	SubmitClaim(ctx context.Context, contract, to string, quantity int64) (Receipt, error)
}

// SubmissionError is the failure payload returned by the wallet or relayer
// when a submission is rejected.
type SubmissionError struct {
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
	DataMessage string `json:"data_message,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Code != "" && e.DataMessage != "":
		return fmt.Sprintf("submission failed [%s]: %s (%s)", e.Code, e.Message, e.DataMessage)
	case e.Code != "":
		return fmt.Sprintf("submission failed [%s]: %s", e.Code, e.Message)
	case e.DataMessage != "":
		return fmt.Sprintf("submission failed: %s (%s)", e.Message, e.DataMessage)
	default:
		return "submission failed: " + e.Message
	}
}
