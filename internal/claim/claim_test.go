package claim

import (
	"testing"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	walletA = "0x52908400098527886E0F7030069857D2E4169EE7"
	walletB = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

func condition() domain.ClaimCondition {
	return domain.ClaimCondition{
		StartTimeEpochSeconds:       100,
		Currency:                    amount.Currency{Decimals: 18, Symbol: "ETH"},
		PricePerUnit:                amount.FromUint64(1_000_000_000_000_000, 18, "ETH"),
		MaxQuantity:                 "100",
		QuantityLimitPerTransaction: "5",
		CurrentMintSupply:           "10",
		AvailableSupply:             "90",
	}
}

func TestEvaluateEligible(t *testing.T) {
	res, err := Evaluate(condition(), Request{Wallet: walletA, Quantity: 2, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Empty(t, res.Reasons)
	assert.NotNil(t, res.Reasons)
	assert.Equal(t, int64(5), res.EffectiveCap)
	assert.Equal(t, int64(2), res.DisplayQuantity)
	assert.Equal(t, "2000000000000000", res.TotalPrice.Raw().String())
	assert.Equal(t, "10 / 100 claimed", res.ClaimedLabel)
	assert.Equal(t, "Mint 2 (0.002 ETH)", res.ButtonLabel)
	assert.Empty(t, res.Message)
}

func TestSnapshotZeroMeansUnlimited(t *testing.T) {
	cond := condition()
	cond.MaxQuantity = domain.Unlimited
	cond.AvailableSupply = domain.Unlimited
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "0"}}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 50, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, UnlimitedClaimable, res.EffectiveCap)
	assert.NotZero(t, res.EffectiveCap)
	assert.True(t, res.Eligible, "reasons: %v", res.Reasons)
}

func TestSnapshotZeroStillBoundedBySupply(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "0"}}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(90), res.EffectiveCap)
}

func TestSnapshotAbsentWallet(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "3"}}

	res, err := Evaluate(cond, Request{Wallet: walletB, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Contains(t, res.Reasons, ReasonNotInAllowlist)
	assert.NotContains(t, res.Reasons, ReasonExceedsMaxClaimable)
	assert.Equal(t, int64(0), res.EffectiveCap)
	assert.Equal(t, int64(1), res.DisplayQuantity)
	assert.Equal(t, ReasonNotInAllowlist, res.PrimaryReason)
	assert.Equal(t, "You are not eligible to claim", res.ButtonLabel)
}

func TestEmptySnapshotExcludesEveryone(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, []Reason{ReasonNotInAllowlist}, res.Reasons)
}

func TestSnapshotCapReplacesPerTransaction(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "20"}}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 21, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.EffectiveCap)
	assert.Equal(t, []Reason{ReasonExceedsMaxClaimable}, res.Reasons)
	assert.Equal(t, int64(20), res.DisplayQuantity)
	assert.Equal(t, "You can only claim 20", res.Message)
}

func TestSnapshotMatchIgnoresChecksumCase(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: "0x52908400098527886e0f7030069857d2e4169ee7", MaxClaimable: "2"}}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 2, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Equal(t, int64(2), res.EffectiveCap)
}

func TestUnparseableSnapshotCapFallsBackToPerTransaction(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "lots"}}

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.EffectiveCap)
}

func TestUnparseablePerTransactionNeverMeansZero(t *testing.T) {
	for _, raw := range []string{"", "abc", "-4", domain.Unlimited} {
		cond := condition()
		cond.QuantityLimitPerTransaction = raw
		cond.AvailableSupply = domain.Unlimited
		cond.MaxQuantity = domain.Unlimited

		res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
		require.NoError(t, err)
		assert.Equal(t, DefaultPerTransaction, res.EffectiveCap, "limit %q", raw)
		assert.True(t, res.Eligible, "limit %q", raw)
	}
}

func TestHugeValuesClampToCeiling(t *testing.T) {
	cond := condition()
	cond.QuantityLimitPerTransaction = "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	cond.AvailableSupply = domain.Unlimited
	cond.MaxQuantity = domain.Unlimited

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, ClaimableCeiling, res.EffectiveCap)
	assert.Equal(t, "10 claimed", res.ClaimedLabel)
}

func TestReasonsAccumulate(t *testing.T) {
	cond := condition()
	cond.MaxQuantity = "10"
	cond.CurrentMintSupply = "10"
	cond.AvailableSupply = "0"
	cond.StartTimeEpochSeconds = 500

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, []Reason{
		ReasonSaleNotStarted,
		ReasonSaleEnded,
		ReasonInsufficientSupply,
		ReasonExceedsMaxClaimable,
	}, res.Reasons)
	assert.True(t, res.IsSoldOut)
	assert.Equal(t, ReasonSaleNotStarted, res.PrimaryReason)
	assert.Equal(t, "Sold Out", res.ButtonLabel)
}

func TestNoWallet(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "3"}}

	res, err := Evaluate(cond, Request{Wallet: "0x0000000000000000000000000000000000000000", Quantity: 1, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, []Reason{ReasonNoWallet}, res.Reasons)
	assert.Equal(t, "Connect your wallet to claim", res.Message)
}

func TestInvalidQuantityIsClampedForDisplay(t *testing.T) {
	res, err := Evaluate(condition(), Request{Wallet: walletA, Quantity: 0, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, []Reason{ReasonInvalidQuantity}, res.Reasons)
	assert.Equal(t, int64(1), res.DisplayQuantity)
}

func TestRequestAboveCapIsIneligibleButClamped(t *testing.T) {
	res, err := Evaluate(condition(), Request{Wallet: walletA, Quantity: 9, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.Equal(t, []Reason{ReasonExceedsMaxClaimable}, res.Reasons)
	assert.Equal(t, int64(5), res.DisplayQuantity)
}

func TestFreeClaim(t *testing.T) {
	cond := condition()
	cond.PricePerUnit = cond.Currency.Zero()

	res, err := Evaluate(cond, Request{Wallet: walletA, Quantity: 3, NowEpochSeconds: 200})
	require.NoError(t, err)
	assert.True(t, res.IsFree)
	assert.Equal(t, "Mint 3 (Free)", res.ButtonLabel)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	cond := condition()
	cond.Snapshot = []domain.SnapshotEntry{{Address: walletA, MaxClaimable: "0"}}
	req := Request{Wallet: walletA, Quantity: 4, NowEpochSeconds: 200}

	first, err := Evaluate(cond, req)
	require.NoError(t, err)
	second, err := Evaluate(cond, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrimary(t *testing.T) {
	assert.Equal(t, Reason(""), Primary(nil))
	assert.Equal(t, ReasonNotInAllowlist, Primary([]Reason{ReasonExceedsMaxClaimable, ReasonSaleEnded, ReasonNotInAllowlist}))
	assert.Equal(t, ReasonSaleNotStarted, Primary([]Reason{ReasonInsufficientSupply, ReasonSaleNotStarted}))
	assert.Equal(t, ReasonInsufficientSupply, Primary([]Reason{ReasonExceedsMaxClaimable, ReasonInsufficientSupply}))
}

func TestUnconfigured(t *testing.T) {
	res := Unconfigured(0)
	assert.False(t, res.Eligible)
	assert.Equal(t, []Reason{ReasonNoClaimCondition}, res.Reasons)
	assert.Equal(t, ReasonNoClaimCondition, res.PrimaryReason)
	assert.Equal(t, int64(1), res.DisplayQuantity)
	assert.Equal(t, "This drop is not ready to be minted yet. (No claim condition set)", res.ButtonLabel)
	assert.Equal(t, ReasonNoClaimCondition, Primary([]Reason{ReasonNoWallet, ReasonNoClaimCondition}))
}
