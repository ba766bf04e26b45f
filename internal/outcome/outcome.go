// Package outcome classifies failed submissions into user-facing categories.
//
// Classification is a heuristic over error text produced by wallets and
// contract tooling outside this system. It never fails: anything it does
// not recognise is Unclassified.
//
// InsufficientFundsForGas is only reported from the top-level message.
// Wallets that nest "insufficient funds for gas" in the data message match
// the nested-funds rule first and are reported as InsufficientFunds.
package outcome

import (
	"errors"
	"strings"

	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// Category is a user-facing failure class.
type Category string

const (
	InsufficientFunds          Category = "insufficient_funds"
	UserRejected               Category = "user_rejected"
	ContractInvariantViolation Category = "contract_invariant_violation"
	InsufficientFundsForGas    Category = "insufficient_funds_for_gas"
	Unclassified               Category = "unclassified"
)

// Rule identifies which check matched. Two rules map to InsufficientFunds
// and their messages differ, so callers keep the rule alongside the category.
type Rule string

const (
	RuleFundsCode    Rule = "funds_code"
	RuleUserDenied   Rule = "user_denied"
	RuleInvariant    Rule = "invariant"
	RuleFundsData    Rule = "funds_data"
	RuleGasFunds     Rule = "gas_funds"
	RuleUnclassified Rule = "unclassified"
)

const (
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	markerUserDenied      = "User denied transaction signature"
	markerInvariant       = "Invariant failed:"
	markerFundsData       = "insufficient funds"
	markerGasFunds        = "insufficient funds for gas"
)

// Classification is the result of Classify.
type Classification struct {
	Category Category `json:"category"`
	Rule     Rule     `json:"rule"`
	// Detail is the contract's own explanation for invariant violations.
	Detail string `json:"detail,omitempty"`
}

// Classify maps a failure payload to a category. Checks run in order and the
// first match wins. A signature denial is reported as UserRejected whatever
// machine code accompanies it.
func Classify(p domain.SubmissionError) Classification {
	switch {
	case strings.Contains(p.Message, markerUserDenied):
		return Classification{Category: UserRejected, Rule: RuleUserDenied}
	case p.Code == codeInsufficientFunds:
		return Classification{Category: InsufficientFunds, Rule: RuleFundsCode}
	case strings.Contains(p.Message, markerInvariant):
		return Classification{
			Category: ContractInvariantViolation,
			Rule:     RuleInvariant,
			Detail:   strings.TrimSpace(strings.Replace(p.Message, markerInvariant, "", 1)),
		}
	case strings.Contains(p.DataMessage, markerFundsData):
		return Classification{Category: InsufficientFunds, Rule: RuleFundsData}
	case strings.Contains(p.Message, markerGasFunds):
		return Classification{Category: InsufficientFundsForGas, Rule: RuleGasFunds}
	default:
		return Classification{Category: Unclassified, Rule: RuleUnclassified}
	}
}

// FromError classifies err. Errors that do not carry a *domain.SubmissionError
// are classified on their text alone.
func FromError(err error) Classification {
	if err == nil {
		return Classification{Category: Unclassified, Rule: RuleUnclassified}
	}
	var se *domain.SubmissionError
	if errors.As(err, &se) && se != nil {
		return Classify(*se)
	}
	return Classify(domain.SubmissionError{Message: err.Error()})
}
