// Package handlers provides HTTP handlers for dataset import and inspection.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
)

// maxImportRows bounds a single import request
const maxImportRows = 10000

// Handler handles dataset HTTP requests
type Handler struct {
	service *datasets.Service
	log     zerolog.Logger
}

// NewHandler creates a new datasets handler
func NewHandler(service *datasets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "datasets").Logger(),
	}
}

// HandleImportPnL handles POST /api/datasets/pnl
func (h *Handler) HandleImportPnL(w http.ResponseWriter, r *http.Request) {
	var rows []datasets.PnLRowInput
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(rows) > maxImportRows {
		h.writeError(w, http.StatusBadRequest, "Too many rows (max 10000)")
		return
	}

	result, err := h.service.ImportPnL(rows)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Import failed: "+err.Error())
		return
	}

	h.log.Info().
		Int("imported", result.Imported).
		Int("warnings", len(result.Warnings)).
		Msg("P&L dataset imported")

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetPnL handles GET /api/datasets/pnl
func (h *Handler) HandleGetPnL(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PnLRows()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load P&L rows: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// HandleImportCohorts handles POST /api/datasets/cohorts
func (h *Handler) HandleImportCohorts(w http.ResponseWriter, r *http.Request) {
	var rows []datasets.CohortRowInput
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(rows) > maxImportRows {
		h.writeError(w, http.StatusBadRequest, "Too many rows (max 10000)")
		return
	}

	result, err := h.service.ImportCohorts(rows)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Import failed: "+err.Error())
		return
	}

	h.log.Info().
		Int("imported", result.Imported).
		Int("warnings", len(result.Warnings)).
		Msg("Cohort dataset imported")

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetCohorts handles GET /api/datasets/cohorts
func (h *Handler) HandleGetCohorts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CohortRows()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cohort rows: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// HandleExtractSM handles POST /api/datasets/sm.
// Extraction only: returns the usable S&M entries without storing anything.
func (h *Handler) HandleExtractSM(w http.ResponseWriter, r *http.Request) {
	var rows []datasets.PnLRowInput
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(rows) > maxImportRows {
		h.writeError(w, http.StatusBadRequest, "Too many rows (max 10000)")
		return
	}

	entries := h.service.ExtractSM(rows)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleGetStatus handles GET /api/datasets/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Status()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load dataset status: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": meta,
	})
}

// HandleGetGrossMargin handles GET /api/datasets/gross-margin
func (h *Handler) HandleGetGrossMargin(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.GrossMargin()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to compute gross margin: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, breakdown)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
