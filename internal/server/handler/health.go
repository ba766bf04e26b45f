package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	chain  domain.ChainInfo
	mode   string
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. chain may be nil.
func NewHealthHandler(chain domain.ChainInfo, mode string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{chain: chain, mode: mode, logger: logger}
}

// HealthCheck reports liveness and, when a ledger is attached, the chain it
// is connected to. A failing ledger degrades the status but still answers 200.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"mode":      h.mode,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.chain != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		id, err := h.chain.ChainID(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "handler: health chain id failed", slog.String("error", err.Error()))
			resp["status"] = "degraded"
		} else {
			resp["chain_id"] = id
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
