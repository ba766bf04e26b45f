package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dropmarket/internal/service"
)

// DropService defines the methods that the drop handler requires from the
// service layer.
type DropService interface {
	Eligibility(ctx context.Context, contract, wallet string, quantity int64) (service.DropView, error)
	Claim(ctx context.Context, contract, wallet string, quantity int64) (service.SubmissionResult, error)
}

// DropHandler serves drop endpoints.
type DropHandler struct {
	drops  DropService
	logger *slog.Logger
}

// NewDropHandler creates a DropHandler with the given service and logger.
func NewDropHandler(drops DropService, logger *slog.Logger) *DropHandler {
	return &DropHandler{drops: drops, logger: logger}
}

// Eligibility evaluates a wallet against the drop's active claim condition.
// GET /api/drops/{contract}/eligibility?wallet=0x...&quantity=1
func (h *DropHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	qty, err := queryQuantity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.drops.Eligibility(r.Context(), pathParam(r, "contract"), r.URL.Query().Get("wallet"), qty)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type claimRequest struct {
	Wallet   string `json:"wallet" validate:"required,eth_addr"`
	Quantity int64  `json:"quantity" validate:"required,min=1"`
}

// Claim submits a claim on a drop.
// POST /api/drops/{contract}/claims
func (h *DropHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.drops.Claim(r.Context(), pathParam(r, "contract"), req.Wallet, req.Quantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSubmission(w, res)
}
