package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all simulation routes. The patterns are absolute
// because the lending handlers register lender analytics under the same
// /api/simulations/{runID} subtree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/simulations", h.HandleStartRun)
	r.Get("/api/simulations/{runID}", h.HandleGetRun)
	r.Get("/api/simulations/{runID}/results", h.HandleGetResults)
	r.Get("/api/simulations/{runID}/ws", h.HandleRunStream)
}
