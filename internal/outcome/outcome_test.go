package outcome

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		payload  domain.SubmissionError
		category Category
		rule     Rule
		detail   string
	}{
		{
			name:     "funds code",
			payload:  domain.SubmissionError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds for intrinsic transaction cost", DataMessage: "insufficient funds"},
			category: InsufficientFunds,
			rule:     RuleFundsCode,
		},
		{
			name:     "user denied with funds code",
			payload:  domain.SubmissionError{Code: "INSUFFICIENT_FUNDS", Message: "User denied transaction signature"},
			category: UserRejected,
			rule:     RuleUserDenied,
		},
		{
			name:     "user denied beats data message",
			payload:  domain.SubmissionError{Code: "4001", Message: "MetaMask Tx Signature: User denied transaction signature.", DataMessage: "insufficient funds"},
			category: UserRejected,
			rule:     RuleUserDenied,
		},
		{
			name:     "invariant detail extracted",
			payload:  domain.SubmissionError{Message: "Invariant failed: cannot bid below buffer"},
			category: ContractInvariantViolation,
			rule:     RuleInvariant,
			detail:   "cannot bid below buffer",
		},
		{
			name:     "nested funds message",
			payload:  domain.SubmissionError{Message: "execution reverted", DataMessage: "err: insufficient funds for transfer"},
			category: InsufficientFunds,
			rule:     RuleFundsData,
		},
		{
			name:     "gas funds in top-level message",
			payload:  domain.SubmissionError{Message: "insufficient funds for gas * price + value"},
			category: InsufficientFundsForGas,
			rule:     RuleGasFunds,
		},
		{
			name:     "gas funds in data message stays plain funds",
			payload:  domain.SubmissionError{Message: "Internal JSON-RPC error.", DataMessage: "insufficient funds for gas * price + value"},
			category: InsufficientFunds,
			rule:     RuleFundsData,
		},
		{
			name:     "unknown",
			payload:  domain.SubmissionError{Message: "nonce too low"},
			category: Unclassified,
			rule:     RuleUnclassified,
		},
		{
			name:     "empty payload",
			payload:  domain.SubmissionError{},
			category: Unclassified,
			rule:     RuleUnclassified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.payload)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.detail, got.Detail)
		})
	}
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("relayer: submit bid: %w", &domain.SubmissionError{Message: "User denied transaction signature"})
	assert.Equal(t, UserRejected, FromError(wrapped).Category)

	assert.Equal(t, ContractInvariantViolation, FromError(errors.New("Invariant failed: sold out")).Category)
	assert.Equal(t, Unclassified, FromError(errors.New("dial tcp: connection refused")).Category)
	assert.Equal(t, Unclassified, FromError(nil).Category)

	var nilPayload *domain.SubmissionError
	assert.NotPanics(t, func() {
		assert.Equal(t, Unclassified, FromError(fmt.Errorf("x: %w", nilPayload)).Category)
	})
}

func TestDescribe(t *testing.T) {
	fundsData := Classification{Category: InsufficientFunds, Rule: RuleFundsData}

	msg := Describe(domain.SubmissionBid, fundsData)
	assert.Equal(t, "Failed to place a bid on this auction", msg.Title)
	assert.Equal(t, "You don't have enough funds to make this bid.", msg.Description)

	msg = Describe(domain.SubmissionBuyout, fundsData)
	assert.Equal(t, "You don't have enough funds to buyout this auction.", msg.Description)

	msg = Describe(domain.SubmissionPurchase, fundsData)
	assert.Equal(t, "You don't have enough funds to buy this listing.", msg.Description)

	msg = Describe(domain.SubmissionPurchase, Classification{Category: InsufficientFunds, Rule: RuleFundsCode})
	assert.Equal(t, "Insufficient funds to purchase.", msg.Description)

	msg = Describe(domain.SubmissionClaim, Classification{Category: UserRejected, Rule: RuleUserDenied})
	assert.Equal(t, "Failed to claim drop.", msg.Title)
	assert.Equal(t, "You denied the transaction", msg.Description)

	msg = Describe(domain.SubmissionBid, Classification{Category: ContractInvariantViolation, Rule: RuleInvariant, Detail: "auction closed"})
	assert.Equal(t, "auction closed", msg.Description)

	msg = Describe(domain.SubmissionBid, Classification{Category: Unclassified, Rule: RuleUnclassified})
	assert.Equal(t, genericDescription, msg.Description)
}
