package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/service"
)

// ListingService defines the methods that the listing handler requires from
// the service layer.
type ListingService interface {
	State(ctx context.Context, id string, quantity int64, wallet string) (service.ListingView, error)
	PlaceBid(ctx context.Context, id, wallet, amountText string) (service.SubmissionResult, error)
	Buyout(ctx context.Context, id, wallet string, quantity int64) (service.SubmissionResult, error)
}

// ListingHandler serves marketplace listing endpoints.
type ListingHandler struct {
	listings ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler with the given service and logger.
func NewListingHandler(listings ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// GetListing returns the derived state of a listing. Pending and missing
// listings are reported in the body's status field.
// GET /api/listings/{id}?quantity=1&wallet=0x...
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	qty, err := queryQuantity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.listings.State(r.Context(), id, qty, r.URL.Query().Get("wallet"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	switch view.Status {
	case domain.ListingNotFound:
		status = http.StatusNotFound
	case domain.ListingPending:
		w.Header().Set("Retry-After", "1")
		status = http.StatusAccepted
	}
	writeJSON(w, status, view)
}

type bidRequest struct {
	Wallet string `json:"wallet" validate:"required,eth_addr"`
	Amount string `json:"amount" validate:"required,numeric"`
}

// PlaceBid submits a bid on an auction listing.
// POST /api/listings/{id}/bids
func (h *ListingHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.listings.PlaceBid(r.Context(), pathParam(r, "id"), req.Wallet, req.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSubmission(w, res)
}

type buyoutRequest struct {
	Wallet   string `json:"wallet" validate:"required,eth_addr"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}

// Buyout purchases from a direct listing or buys out an auction.
// POST /api/listings/{id}/buyout
func (h *ListingHandler) Buyout(w http.ResponseWriter, r *http.Request) {
	var req buyoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.listings.Buyout(r.Context(), pathParam(r, "id"), req.Wallet, req.Quantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSubmission(w, res)
}
