// Package claim evaluates whether a wallet may claim from a drop and how many
// units it may take in one transaction.
//
// Allowlist entries use "0" to mean an unlimited per-wallet cap. Existing
// allowlist data depends on that reading, so a "0" entry resolves to
// UnlimitedClaimable and never to zero.
package claim

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
)

const (
	// UnlimitedClaimable is the cap granted by an allowlist entry of "0".
	UnlimitedClaimable int64 = 1_000_000
	// DefaultPerTransaction replaces a missing or unparseable
	// per-transaction limit.
	DefaultPerTransaction int64 = 1_000_000
	// ClaimableCeiling bounds every cap so downstream arithmetic stays finite.
	ClaimableCeiling int64 = 1_000_000_000_000
)

var ceiling = big.NewInt(ClaimableCeiling)

// Request is the claimer's side of an evaluation.
type Request struct {
	Wallet          string
	Quantity        int64
	NowEpochSeconds int64
}

// Result is the outcome of Evaluate. Reasons is empty when the wallet may
// claim exactly Quantity units.
type Result struct {
	Reasons         []Reason      `json:"reasons"`
	Eligible        bool          `json:"eligible"`
	EffectiveCap    int64         `json:"effective_cap"`
	Quantity        int64         `json:"quantity"`
	DisplayQuantity int64         `json:"display_quantity"`
	IsSoldOut       bool          `json:"is_sold_out"`
	IsFree          bool          `json:"is_free"`
	TotalPrice      amount.Amount `json:"total_price"`
	ClaimedLabel    string        `json:"claimed_label"`
	PrimaryReason   Reason        `json:"primary_reason,omitempty"`
	Message         string        `json:"message,omitempty"`
	ButtonLabel     string        `json:"button_label"`
}

// Evaluate resolves the effective cap for req.Wallet under cond and lists
// every reason the requested claim cannot proceed.
func Evaluate(cond domain.ClaimCondition, req Request) (Result, error) {
	res := Result{Quantity: req.Quantity, Reasons: []Reason{}}

	noWallet := domain.IsZeroAddress(req.Wallet)
	excluded := false

	capacity := perTransactionCap(cond.QuantityLimitPerTransaction)
	if cond.HasSnapshot() {
		entry, found := lookup(cond.Snapshot, req.Wallet)
		switch {
		case noWallet || !found:
			capacity = 0
			excluded = !noWallet
		default:
			if n, ok := snapshotCap(entry.MaxClaimable); ok {
				capacity = n
			}
		}
	}

	available, availableFinite := parseCount(cond.AvailableSupply)
	if !availableFinite {
		available = ClaimableCeiling
	}
	res.EffectiveCap = min(capacity, available, ClaimableCeiling)

	maxQty, maxFinite := parseCount(cond.MaxQuantity)
	current, _ := parseCount(cond.CurrentMintSupply)
	saleEnded := maxFinite && current >= maxQty
	res.IsSoldOut = saleEnded || (availableFinite && available <= 0)

	if noWallet {
		res.Reasons = append(res.Reasons, ReasonNoWallet)
	}
	if excluded {
		res.Reasons = append(res.Reasons, ReasonNotInAllowlist)
	}
	if req.NowEpochSeconds < cond.StartTimeEpochSeconds {
		res.Reasons = append(res.Reasons, ReasonSaleNotStarted)
	}
	if saleEnded {
		res.Reasons = append(res.Reasons, ReasonSaleEnded)
	}
	if availableFinite && req.Quantity > available {
		res.Reasons = append(res.Reasons, ReasonInsufficientSupply)
	}
	if !noWallet && !excluded && req.Quantity > res.EffectiveCap {
		res.Reasons = append(res.Reasons, ReasonExceedsMaxClaimable)
	}
	if req.Quantity < 1 {
		res.Reasons = append(res.Reasons, ReasonInvalidQuantity)
	}

	res.Eligible = len(res.Reasons) == 0
	res.DisplayQuantity = min(max(req.Quantity, 1), max(res.EffectiveCap, 1))

	total, err := amount.MulInt(cond.PricePerUnit, res.DisplayQuantity)
	if err != nil {
		return Result{}, fmt.Errorf("claim: total price: %w", err)
	}
	res.TotalPrice = total
	res.IsFree = cond.PricePerUnit.IsZero()
	res.ClaimedLabel = ClaimedLabel(cond)

	if !res.Eligible {
		res.PrimaryReason = Primary(res.Reasons)
		res.Message = Message(res.PrimaryReason, res.EffectiveCap)
	}
	res.ButtonLabel = buttonLabel(res)
	return res, nil
}

// Unconfigured is the result for a drop that has no claim condition at all.
// Nothing can be claimed and no price or supply is known.
func Unconfigured(quantity int64) Result {
	res := Result{
		Quantity:        quantity,
		Reasons:         []Reason{ReasonNoClaimCondition},
		DisplayQuantity: max(quantity, 1),
		PrimaryReason:   ReasonNoClaimCondition,
		Message:         Message(ReasonNoClaimCondition, 0),
	}
	res.ButtonLabel = buttonLabel(res)
	return res
}

// ClaimedLabel renders supply progress, e.g. "12 / 100 claimed", omitting the
// maximum when it is unlimited.
func ClaimedLabel(cond domain.ClaimCondition) string {
	current := strings.TrimSpace(cond.CurrentMintSupply)
	if current == "" {
		current = "0"
	}
	maxQty := strings.TrimSpace(cond.MaxQuantity)
	if strings.EqualFold(maxQty, domain.Unlimited) {
		return current + " claimed"
	}
	if maxQty == "" {
		maxQty = "0"
	}
	return current + " / " + maxQty + " claimed"
}

func buttonLabel(res Result) string {
	switch {
	case res.IsSoldOut:
		return "Sold Out"
	case !res.Eligible:
		return res.Message
	case res.IsFree:
		return "Mint " + strconv.FormatInt(res.DisplayQuantity, 10) + " (Free)"
	default:
		return "Mint " + strconv.FormatInt(res.DisplayQuantity, 10) + " (" + res.TotalPrice.String() + ")"
	}
}

func lookup(snapshot []domain.SnapshotEntry, wallet string) (domain.SnapshotEntry, bool) {
	for _, e := range snapshot {
		if domain.SameAddress(e.Address, wallet) {
			return e, true
		}
	}
	return domain.SnapshotEntry{}, false
}

func perTransactionCap(raw string) int64 {
	if n, ok := parseCount(raw); ok {
		return n
	}
	return DefaultPerTransaction
}

// snapshotCap parses an allowlist cap. ok is false when the value cannot be
// read, in which case the caller keeps the per-transaction cap.
func snapshotCap(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "0" {
		return UnlimitedClaimable, true
	}
	return parseCount(raw)
}

// parseCount reads a non-negative integer quantity, clamping anything larger
// than ClaimableCeiling. "unlimited", blanks and malformed values report
// ok=false.
func parseCount(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, domain.Unlimited) {
		return 0, false
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || n.Sign() < 0 {
		return 0, false
	}
	if n.Cmp(ceiling) > 0 {
		return ClaimableCeiling, true
	}
	return n.Int64(), true
}
