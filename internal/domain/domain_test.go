package domain

import (
	"errors"
	"testing"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingEncodingKeepsVariant(t *testing.T) {
	eth := amount.Currency{Decimals: 18, Symbol: "ETH"}
	auction := AuctionListing{
		ListingCommon: ListingCommon{
			ID:                "7",
			QuantityAvailable: 3,
			Currency:          eth,
			PricePerUnit:      amount.FromUint64(500, 18, "ETH"),
		},
		EndTimeEpochSeconds: 1_700_000_000,
		ReservePricePerUnit: amount.FromUint64(40, 18, "ETH"),
		BuyoutPricePerUnit:  amount.FromUint64(500, 18, "ETH"),
		BidBufferBps:        500,
	}

	data, err := MarshalListing(auction)
	require.NoError(t, err)

	got, err := UnmarshalListing(data)
	require.NoError(t, err)
	back, ok := got.(AuctionListing)
	require.True(t, ok, "expected AuctionListing, got %T", got)
	assert.Equal(t, "7", back.ListingID())
	assert.Equal(t, int64(500), back.BidBufferBps)
	assert.Equal(t, "40", back.ReservePricePerUnit.Raw().String())

	direct := DirectListing{ListingCommon: ListingCommon{ID: "8", Currency: eth}}
	data, err = MarshalListing(direct)
	require.NoError(t, err)
	got, err = UnmarshalListing(data)
	require.NoError(t, err)
	assert.Equal(t, ListingTypeDirect, got.Type())
}

func TestUnmarshalListingRejectsUnknownType(t *testing.T) {
	_, err := UnmarshalListing([]byte(`{"type":"offer"}`))
	require.ErrorIs(t, err, ErrUnsupportedListing)
}

func TestSubmissionErrorUnwrapsWithErrorsAs(t *testing.T) {
	var err error = &SubmissionError{Code: "INSUFFICIENT_FUNDS", Message: "not enough"}
	wrapped := errors.Join(errors.New("relay"), err)

	var se *SubmissionError
	require.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "INSUFFICIENT_FUNDS", se.Code)
	assert.Contains(t, err.Error(), "not enough")
}

func TestSameAddress(t *testing.T) {
	a := "0x52908400098527886E0F7030069857D2E4169EE7"
	b := "0x52908400098527886e0f7030069857d2e4169ee7"
	assert.True(t, SameAddress(a, b))
	assert.False(t, SameAddress(a, "0x8617E340B3D01FA5F11F306F4090FD50E238070D"))
	assert.False(t, SameAddress("", ""))
	assert.True(t, SameAddress("alice.eth", "ALICE.ETH"))
}

func TestIsZeroAddress(t *testing.T) {
	assert.True(t, IsZeroAddress(""))
	assert.True(t, IsZeroAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsZeroAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
}

func TestListingKeys(t *testing.T) {
	keys := ListingKeys("9")
	require.Len(t, keys, 3)
	assert.Equal(t, "listing:9", keys[0].String())
	assert.Equal(t, "bid:9", keys[1].String())
}
