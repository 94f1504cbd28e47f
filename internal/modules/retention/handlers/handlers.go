// Package handlers provides HTTP handlers for retention diagnostics.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/retention"
)

// Handler handles retention HTTP requests
type Handler struct {
	datasets *datasets.Service
	log      zerolog.Logger
}

// NewHandler creates a new retention handler
func NewHandler(datasetsService *datasets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		datasets: datasetsService,
		log:      log.With().Str("handler", "retention").Logger(),
	}
}

// HandleGetTable handles GET /api/retention/table
func (h *Handler) HandleGetTable(w http.ResponseWriter, r *http.Request) {
	cohorts, names, err := h.cohortArrays()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cohorts: "+err.Error())
		return
	}

	table := retention.BuildTable(cohorts)
	if len(names) > len(table.Rows) {
		names = names[:len(table.Rows)]
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": table.Columns,
		"cohorts": names,
		"rows":    table.Rows,
	})
}

// HandleGetNDREvolution handles GET /api/retention/ndr-evolution
func (h *Handler) HandleGetNDREvolution(w http.ResponseWriter, r *http.Request) {
	cohorts, _, err := h.cohortArrays()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cohorts: "+err.Error())
		return
	}

	evolution := retention.NDREvolution(cohorts)
	floor := retention.CalculateNDRFloor(cohorts, h.log)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": evolution.Points,
		"stats":  evolution.Stats,
		"floor":  floor,
	})
}

// cohortArrays loads the stored cohorts as raw revenue arrays in import order
func (h *Handler) cohortArrays() ([][]float64, []string, error) {
	rows, err := h.datasets.CohortRows()
	if err != nil {
		return nil, nil, err
	}

	cohorts := make([][]float64, len(rows))
	names := make([]string, len(rows))
	for i, row := range rows {
		cohorts[i] = row.Revenue
		names[i] = row.Name
	}
	return cohorts, names, nil
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
