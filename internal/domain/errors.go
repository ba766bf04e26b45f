package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPending            = errors.New("read still pending")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLockHeld           = errors.New("lock already held")
	ErrBidTooLow          = errors.New("bid below minimum next bid")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrNotEligible        = errors.New("wallet not eligible")
	ErrNoWallet           = errors.New("no wallet connected")
	ErrUnsupportedListing = errors.New("unsupported listing type")
)

// ErrNoClaimCondition marks a drop whose owner has not set any claim
// condition yet. It also matches ErrNotFound.
var ErrNoClaimCondition = fmt.Errorf("no claim condition set: %w", ErrNotFound)
