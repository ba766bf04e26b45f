package listing

import (
	"testing"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x52908400098527886E0F7030069857D2E4169EE7"
	bob   = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

var eth = amount.Currency{Decimals: 18, Symbol: "ETH"}

func units(n uint64) amount.Amount {
	return amount.FromUint64(n, eth.Decimals, eth.Symbol)
}

func direct(avail int64, price uint64) domain.DirectListing {
	return domain.DirectListing{ListingCommon: domain.ListingCommon{
		ID:                "1",
		QuantityAvailable: avail,
		Currency:          eth,
		PricePerUnit:      units(price),
	}}
}

func auction(qty int64, reserve, buyout uint64, bps, end int64) domain.AuctionListing {
	return domain.AuctionListing{
		ListingCommon: domain.ListingCommon{
			ID:                "2",
			QuantityAvailable: qty,
			Currency:          eth,
			PricePerUnit:      units(buyout),
		},
		EndTimeEpochSeconds: end,
		ReservePricePerUnit: units(reserve),
		BuyoutPricePerUnit:  units(buyout),
		BidBufferBps:        bps,
	}
}

func TestDeriveDirect(t *testing.T) {
	tests := []struct {
		name        string
		avail       int64
		price       uint64
		in          DirectInput
		soldOut     bool
		canPurchase bool
		showQty     bool
		purchaseQty int64
		total       string
		label       string
	}{
		{
			name: "sold out without wallet", avail: 0, price: 10,
			in:      DirectInput{RequestedQuantity: 1},
			soldOut: true, total: "10", label: "Sold Out",
		},
		{
			name: "sold out with wallet", avail: 0, price: 10,
			in:      DirectInput{RequestedQuantity: 1, WalletConnected: true},
			soldOut: true, total: "10", label: "Sold Out",
		},
		{
			name: "no wallet", avail: 5, price: 10,
			in:    DirectInput{RequestedQuantity: 1},
			total: "10", purchaseQty: 1, label: "Purchase Unavailable",
		},
		{
			name: "single unit", avail: 1, price: 10,
			in:          DirectInput{RequestedQuantity: 1, WalletConnected: true},
			canPurchase: true, purchaseQty: 1, total: "10",
			label: "Buy (0.00000000000000001 ETH)",
		},
		{
			name: "multi unit shows quantity input", avail: 5, price: 10,
			in:          DirectInput{RequestedQuantity: 3, WalletConnected: true},
			canPurchase: true, showQty: true, purchaseQty: 3, total: "30",
			label: "Buy 3 (0.00000000000000003 ETH)",
		},
		{
			name: "request above availability", avail: 5, price: 10,
			in:      DirectInput{RequestedQuantity: 6, WalletConnected: true},
			showQty: true, purchaseQty: 5, total: "60",
			label: "Buy 6 (0.00000000000000006 ETH)",
		},
		{
			name: "zero requested", avail: 5, price: 10,
			in:      DirectInput{RequestedQuantity: 0, WalletConnected: true},
			showQty: true, total: "0", label: "Buy 0 (0.0 ETH)",
		},
		{
			name: "large supply hides input and caps request", avail: 5000, price: 1,
			in:          DirectInput{RequestedQuantity: 1001, WalletConnected: true},
			purchaseQty: 1001, total: "1001",
			label: "Buy (0.000000000000001001 ETH)",
		},
		{
			name: "free listing", avail: 2, price: 0,
			in:          DirectInput{RequestedQuantity: 2, WalletConnected: true},
			canPurchase: true, showQty: true, purchaseQty: 2, total: "0",
			label: "Buy 2 (Free)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := DeriveDirect(direct(tt.avail, tt.price), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.soldOut, st.IsSoldOut)
			assert.Equal(t, tt.canPurchase, st.CanPurchase)
			assert.Equal(t, tt.showQty, st.ShowQuantityInput)
			assert.Equal(t, tt.purchaseQty, st.PurchaseQuantity)
			assert.Equal(t, tt.total, st.BuyoutTotal.Raw().String())
			assert.Equal(t, tt.price == 0, st.IsFree)
			assert.Equal(t, tt.label, st.ButtonLabel)
		})
	}
}

func TestDeriveDirectRejectsNegativeQuantity(t *testing.T) {
	_, err := DeriveDirect(direct(5, 1), DirectInput{RequestedQuantity: -1})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestMinimumNextBid(t *testing.T) {
	t.Run("buffered bid below reserve uses reserve", func(t *testing.T) {
		bid := units(100)
		got, err := MinimumNextBid(&bid, units(120), 500)
		require.NoError(t, err)
		assert.Equal(t, "120", got.Raw().String())
	})
	t.Run("no bid uses reserve", func(t *testing.T) {
		got, err := MinimumNextBid(nil, units(50), 500)
		require.NoError(t, err)
		assert.Equal(t, "50", got.Raw().String())
	})
	t.Run("buffered bid above reserve wins", func(t *testing.T) {
		bid := units(200)
		got, err := MinimumNextBid(&bid, units(120), 500)
		require.NoError(t, err)
		assert.Equal(t, "210", got.Raw().String())
	})
	t.Run("tie favors reserve", func(t *testing.T) {
		bid := units(100)
		got, err := MinimumNextBid(&bid, units(105), 500)
		require.NoError(t, err)
		assert.Equal(t, "105", got.Raw().String())
	})
	t.Run("mixed decimals fail", func(t *testing.T) {
		bid := amount.FromUint64(100, 6, "USDC")
		_, err := MinimumNextBid(&bid, units(120), 500)
		require.ErrorIs(t, err, amount.ErrIncompatibleDecimals)
	})
}

func TestDeriveAuction(t *testing.T) {
	const now = int64(1_000_000)

	t.Run("reserve applies over small buffered bid", func(t *testing.T) {
		l := auction(3, 40, 0, 500, now+3661)
		st, err := DeriveAuction(l, AuctionInput{
			CurrentBid:      &domain.Bid{BidderAddress: alice, Amount: units(100)},
			NowEpochSeconds: now,
			Wallet:          alice,
		})
		require.NoError(t, err)
		assert.False(t, st.IsEnded)
		assert.Equal(t, "120", st.ReserveTotal.Raw().String())
		assert.Equal(t, "120", st.MinimumNextBid.Raw().String())
		assert.False(t, st.HasBuyout)
		assert.True(t, st.BuyoutTotal.IsZero())
		assert.True(t, st.IsHighestBidder)
		assert.True(t, st.MultiUnit)
		assert.Equal(t, "1h", st.Countdown)
		assert.Equal(t, int64(3661), st.RemainingSeconds)
	})

	t.Run("first bid only clears reserve", func(t *testing.T) {
		l := auction(5, 10, 0, 500, now+60)
		st, err := DeriveAuction(l, AuctionInput{NowEpochSeconds: now})
		require.NoError(t, err)
		assert.Equal(t, "50", st.MinimumNextBid.Raw().String())
		assert.False(t, st.IsHighestBidder)
	})

	t.Run("buyout surfaced when priced", func(t *testing.T) {
		l := auction(2, 10, 300, 0, now+60)
		st, err := DeriveAuction(l, AuctionInput{NowEpochSeconds: now})
		require.NoError(t, err)
		assert.True(t, st.HasBuyout)
		assert.Equal(t, "600", st.BuyoutTotal.Raw().String())
	})

	t.Run("ended at exactly end time", func(t *testing.T) {
		l := auction(1, 10, 0, 0, now)
		st, err := DeriveAuction(l, AuctionInput{NowEpochSeconds: now, Wallet: bob, Winner: bob})
		require.NoError(t, err)
		assert.True(t, st.IsEnded)
		assert.Equal(t, "ending now", st.Countdown)
		assert.Equal(t, bob, st.Winner)
		assert.True(t, st.IsWinner)
		assert.False(t, st.MultiUnit)
	})

	t.Run("winner ignored while running", func(t *testing.T) {
		l := auction(1, 10, 0, 0, now+10)
		st, err := DeriveAuction(l, AuctionInput{NowEpochSeconds: now, Wallet: bob, Winner: bob})
		require.NoError(t, err)
		assert.Empty(t, st.Winner)
		assert.False(t, st.IsWinner)
	})

	t.Run("invalid buffer fails derivation", func(t *testing.T) {
		l := auction(1, 10, 0, 20_000, now+10)
		_, err := DeriveAuction(l, AuctionInput{
			CurrentBid:      &domain.Bid{BidderAddress: alice, Amount: units(1)},
			NowEpochSeconds: now,
		})
		require.ErrorIs(t, err, amount.ErrInvalidBasisPoints)
	})
}

func TestDeriveIsIdempotent(t *testing.T) {
	l := auction(3, 40, 500, 500, 2000)
	in := Input{
		Wallet:          alice,
		NowEpochSeconds: 1000,
		CurrentBid:      &domain.Bid{BidderAddress: bob, Amount: units(100)},
	}
	first, err := Derive(l, in)
	require.NoError(t, err)
	second, err := Derive(l, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeriveDispatch(t *testing.T) {
	st, err := Derive(direct(3, 5), Input{RequestedQuantity: 2, Wallet: alice})
	require.NoError(t, err)
	require.NotNil(t, st.Direct)
	assert.Nil(t, st.Auction)
	assert.True(t, st.Direct.CanPurchase)

	st, err = Derive(direct(3, 5), Input{RequestedQuantity: 2, Wallet: "0x0000000000000000000000000000000000000000"})
	require.NoError(t, err)
	assert.False(t, st.Direct.CanPurchase)

	st, err = Derive(auction(1, 1, 0, 0, 10), Input{NowEpochSeconds: 5})
	require.NoError(t, err)
	require.NotNil(t, st.Auction)
	assert.Equal(t, domain.ListingTypeAuction, st.Type)
}

func TestCheckBid(t *testing.T) {
	st := AuctionState{MinimumNextBid: units(120)}
	require.NoError(t, CheckBid(st, units(120)))
	require.ErrorIs(t, CheckBid(st, units(119)), domain.ErrBidTooLow)

	st.IsEnded = true
	require.ErrorIs(t, CheckBid(st, units(500)), domain.ErrAuctionEnded)
}

func TestShouldQueryWinner(t *testing.T) {
	l := auction(1, 1, 0, 0, 100)
	assert.False(t, ShouldQueryWinner(l, 99))
	assert.True(t, ShouldQueryWinner(l, 100))
}
