package outcome

import "github.com/alanyoungcy/dropmarket/internal/domain"

// Message is what a user sees after a failed submission.
type Message struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var titles = map[domain.SubmissionKind]string{
	domain.SubmissionBid:      "Failed to place a bid on this auction",
	domain.SubmissionBuyout:   "Failed to buyout auction.",
	domain.SubmissionPurchase: "Failed to purchase from listing",
	domain.SubmissionClaim:    "Failed to claim drop.",
}

var fundsDataDescriptions = map[domain.SubmissionKind]string{
	domain.SubmissionBid:      "You don't have enough funds to make this bid.",
	domain.SubmissionBuyout:   "You don't have enough funds to buyout this auction.",
	domain.SubmissionPurchase: "You don't have enough funds to buy this listing.",
	domain.SubmissionClaim:    "You don't have enough funds to claim this drop.",
}

const genericDescription = "Something went wrong. Please try again."

// Describe renders c for the given action. Internal error text is never
// included; only the contract's invariant detail is passed through.
func Describe(kind domain.SubmissionKind, c Classification) Message {
	title, ok := titles[kind]
	if !ok {
		title = "Transaction failed"
	}

	var desc string
	switch c.Rule {
	case RuleFundsCode:
		desc = "Insufficient funds to purchase."
	case RuleUserDenied:
		desc = "You denied the transaction"
	case RuleInvariant:
		desc = c.Detail
	case RuleFundsData:
		desc = fundsDataDescriptions[kind]
	case RuleGasFunds:
		desc = "You don't have enough funds to pay for gas."
	}
	if desc == "" {
		desc = genericDescription
	}
	return Message{Title: title, Description: desc}
}
