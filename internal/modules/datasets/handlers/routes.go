package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all dataset routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/datasets", func(r chi.Router) {
		r.Post("/pnl", h.HandleImportPnL)
		r.Get("/pnl", h.HandleGetPnL)
		r.Post("/cohorts", h.HandleImportCohorts)
		r.Get("/cohorts", h.HandleGetCohorts)
		r.Post("/sm", h.HandleExtractSM)
		r.Get("/status", h.HandleGetStatus)
		r.Get("/gross-margin", h.HandleGetGrossMargin)
	})
}
