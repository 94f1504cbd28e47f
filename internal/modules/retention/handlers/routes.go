package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all retention routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/retention", func(r chi.Router) {
		r.Get("/table", h.HandleGetTable)
		r.Get("/ndr-evolution", h.HandleGetNDREvolution)
	})
}
