// Package handlers provides HTTP handlers serving the lender-side analytics
// of a completed simulation run: loss distribution, aggregated loan book and
// fund performance.
package handlers

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/simulation"
)

// Handler handles lending HTTP requests
type Handler struct {
	manager *simulation.RunManager
	log     zerolog.Logger
}

// NewHandler creates a new lending handler
func NewHandler(manager *simulation.RunManager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		log:     log.With().Str("handler", "lending").Logger(),
	}
}

// HandleLenderSummary handles GET /api/simulations/{runID}/lender-summary
func (h *Handler) HandleLenderSummary(w http.ResponseWriter, r *http.Request) {
	run, results, trajectories, ok := h.loadCompletedResults(w, chi.URLParam(r, "runID"))
	if !ok {
		return
	}

	// Seeding from the run keeps the sampled aggregation table stable across
	// requests for the same run.
	rng := rand.New(rand.NewSource(run.Seed))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":              run.ID,
		"trajectories":       trajectories,
		"analyzed":           len(results),
		"lossDistribution":   lending.LossDistribution(results),
		"positiveReturnRate": lending.PositiveReturnRate(results),
		"summary":            lending.Summarize(results),
		"aggregation":        lending.AggregationTable(results, rng),
	})
}

// HandleFundPerformance handles GET /api/simulations/{runID}/fund-performance
func (h *Handler) HandleFundPerformance(w http.ResponseWriter, r *http.Request) {
	run, results, trajectories, ok := h.loadCompletedResults(w, chi.URLParam(r, "runID"))
	if !ok {
		return
	}

	performance := lending.AnalyzeFund(results, run.Terms.TargetIRR, run.Terms.MaxYears)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":        run.ID,
		"trajectories": trajectories,
		"performance":  performance,
	})
}

// loadCompletedResults loads a completed run and reruns loan analysis over
// its stored trajectories with the run's own terms, so the lender view is
// available even for runs executed without per-draw loan analysis.
// Trajectories without an amortizable cash flow are skipped. On any failure
// the response has already been written and ok is false.
func (h *Handler) loadCompletedResults(w http.ResponseWriter, runID string) (*simulation.Run, []*lending.CapResult, int, bool) {
	run, err := h.manager.Run(runID)
	if errors.Is(err, simulation.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return nil, nil, 0, false
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load run: "+err.Error())
		return nil, nil, 0, false
	}
	if run.Status != simulation.StatusCompleted {
		h.writeError(w, http.StatusConflict, "Run is not completed: "+run.Status)
		return nil, nil, 0, false
	}

	records, err := h.manager.Records(runID, 0, 0)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load records: "+err.Error())
		return nil, nil, 0, false
	}

	results := make([]*lending.CapResult, 0, len(records))
	for _, record := range records {
		result, analyzeErr := lending.Analyze(record.CohortCashflow(), run.Terms)
		if analyzeErr != nil {
			continue
		}
		results = append(results, result)
	}
	return run, results, len(records), true
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
