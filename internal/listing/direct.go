package listing

import (
	"fmt"
	"strconv"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// MaxQuantityInput caps how many units a single purchase may request.
const MaxQuantityInput = 1000

// DirectInput carries the buyer-side inputs for a direct listing.
type DirectInput struct {
	RequestedQuantity int64
	WalletConnected   bool
}

// DirectState is everything needed to gate and label a direct purchase.
type DirectState struct {
	RequestedQuantity int64         `json:"requested_quantity"`
	PurchaseQuantity  int64         `json:"purchase_quantity"`
	QuantityAvailable int64         `json:"quantity_available"`
	BuyoutTotal       amount.Amount `json:"buyout_total"`
	IsSoldOut         bool          `json:"is_sold_out"`
	IsFree            bool          `json:"is_free"`
	CanPurchase       bool          `json:"can_purchase"`
	ShowQuantityInput bool          `json:"show_quantity_input"`
	ButtonLabel       string        `json:"button_label"`
}

// DeriveDirect computes the state of a fixed-price listing.
func DeriveDirect(l domain.DirectListing, in DirectInput) (DirectState, error) {
	if in.RequestedQuantity < 0 {
		return DirectState{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, in.RequestedQuantity)
	}

	total, err := amount.MulInt(l.PricePerUnit, in.RequestedQuantity)
	if err != nil {
		return DirectState{}, fmt.Errorf("listing: buyout total: %w", err)
	}

	avail := l.QuantityAvailable
	st := DirectState{
		RequestedQuantity: in.RequestedQuantity,
		PurchaseQuantity:  min(in.RequestedQuantity, avail),
		QuantityAvailable: avail,
		BuyoutTotal:       total,
		IsSoldOut:         avail <= 0,
		IsFree:            l.PricePerUnit.IsZero(),
	}

	purchasable := !st.IsSoldOut && in.WalletConnected
	limit := min(avail, MaxQuantityInput)
	st.CanPurchase = purchasable && in.RequestedQuantity >= 1 && in.RequestedQuantity <= limit
	st.ShowQuantityInput = purchasable && avail > 1 && avail <= MaxQuantityInput
	st.ButtonLabel = directLabel(st, purchasable)
	return st, nil
}

func directLabel(st DirectState, purchasable bool) string {
	if st.IsSoldOut {
		return "Sold Out"
	}
	if !purchasable {
		return "Purchase Unavailable"
	}
	label := "Buy"
	if st.ShowQuantityInput {
		label += " " + strconv.FormatInt(st.RequestedQuantity, 10)
	}
	if st.IsFree {
		return label + " (Free)"
	}
	return label + " (" + st.BuyoutTotal.String() + ")"
}
