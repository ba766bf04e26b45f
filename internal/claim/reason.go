package claim

import "fmt"

// Reason is a machine-readable cause of ineligibility.
type Reason string

const (
	ReasonNoClaimCondition    Reason = "no_claim_condition"
	ReasonNoWallet            Reason = "no_wallet"
	ReasonNotInAllowlist      Reason = "not_in_allowlist"
	ReasonSaleNotStarted      Reason = "sale_not_started"
	ReasonSaleEnded           Reason = "sale_ended"
	ReasonInsufficientSupply  Reason = "insufficient_supply"
	ReasonExceedsMaxClaimable Reason = "exceeds_max_claimable"
	ReasonInvalidQuantity     Reason = "invalid_quantity"
)

// priority ranks reasons for display. Lower wins.
var priority = map[Reason]int{
	ReasonNoClaimCondition:    0,
	ReasonNoWallet:            1,
	ReasonNotInAllowlist:      2,
	ReasonSaleNotStarted:      3,
	ReasonSaleEnded:           4,
	ReasonInsufficientSupply:  5,
	ReasonExceedsMaxClaimable: 6,
	ReasonInvalidQuantity:     7,
}

// Primary returns the single reason to show, or "" for an empty list.
func Primary(reasons []Reason) Reason {
	var best Reason
	bestRank := len(priority)
	for _, r := range reasons {
		rank, ok := priority[r]
		if !ok {
			rank = len(priority)
		}
		if best == "" || rank < bestRank {
			best, bestRank = r, rank
		}
	}
	return best
}

// Message renders a reason as user-facing text. effectiveCap is only used by
// ReasonExceedsMaxClaimable.
func Message(r Reason, effectiveCap int64) string {
	switch r {
	case ReasonNoClaimCondition:
		return "This drop is not ready to be minted yet. (No claim condition set)"
	case ReasonNoWallet:
		return "Connect your wallet to claim"
	case ReasonNotInAllowlist:
		return "You are not eligible to claim"
	case ReasonSaleNotStarted:
		return "This drop is not ready to be minted yet"
	case ReasonSaleEnded:
		return "This drop has ended"
	case ReasonInsufficientSupply:
		return "There is not enough supply to claim"
	case ReasonExceedsMaxClaimable:
		return fmt.Sprintf("You can only claim %d", effectiveCap)
	case ReasonInvalidQuantity:
		return "Quantity must be at least 1"
	case "":
		return ""
	default:
		return "Claiming not available"
	}
}
