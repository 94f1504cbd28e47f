package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the lender analytics routes. The patterns are
// absolute so they can share the /api/simulations/{runID} subtree with the
// simulation handlers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/simulations/{runID}/lender-summary", h.HandleLenderSummary)
	r.Get("/api/simulations/{runID}/fund-performance", h.HandleFundPerformance)
}
