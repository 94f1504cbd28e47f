// Package handlers provides HTTP handlers for starting simulation runs,
// paging their results and streaming run progress over WebSocket.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/modules/simulation"
)

// Result paging bounds for GET /api/simulations/{runID}/results
const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Handler handles simulation HTTP requests
type Handler struct {
	manager *simulation.RunManager
	events  *events.Manager
	log     zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(manager *simulation.RunManager, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		events:  eventManager,
		log:     log.With().Str("handler", "simulation").Logger(),
	}
}

// HandleStartRun handles POST /api/simulations. An empty body starts a run
// with configured defaults.
func (h *Handler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	var req simulation.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.manager.StartRun(r.Context(), &req)
	if errors.Is(err, simulation.ErrRunActive) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to start run: "+err.Error())
		return
	}

	h.log.Info().Str("run_id", run.ID).Int("draws", run.Draws).Msg("Run accepted")

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": simulation.StatusQueued,
	})
}

// HandleGetRun handles GET /api/simulations/{runID}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.manager.Run(chi.URLParam(r, "runID"))
	if errors.Is(err, simulation.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load run: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// HandleGetResults handles GET /api/simulations/{runID}/results
func (h *Handler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	records, err := h.manager.Records(runID, offset, limit)
	if errors.Is(err, simulation.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load records: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":   runID,
		"offset":  offset,
		"limit":   limit,
		"count":   len(records),
		"records": records,
	})
}

// HandleRunStream handles GET /api/simulations/{runID}/ws. It forwards the
// run's progress events as JSON text frames and closes after the terminal
// event. A run that already finished gets its terminal status replayed.
func (h *Handler) HandleRunStream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	// Subscribe before the status check so a run finishing in between still
	// delivers its terminal event.
	ch, unsubscribe := h.events.Subscribe(events.RunProgress, events.RunCompleted, events.RunFailed)
	defer unsubscribe()

	run, err := h.manager.Run(runID)
	if errors.Is(err, simulation.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load run: "+err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The tool runs locally; the API has no cross-origin restrictions
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", runID).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx := r.Context()

	if run.Status == simulation.StatusCompleted || run.Status == simulation.StatusFailed {
		if err := h.writeEvent(ctx, conn, terminalEvent(run)); err == nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, ok := event.Data.(*events.RunStatusData)
			if !ok || data.RunID != runID {
				continue
			}
			if err := h.writeEvent(ctx, conn, event); err != nil {
				return
			}
			if event.Type == events.RunCompleted || event.Type == events.RunFailed {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

func (h *Handler) writeEvent(ctx context.Context, conn *websocket.Conn, event events.EventWithData) error {
	payload, err := json.Marshal(&event)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

// terminalEvent rebuilds the terminal lifecycle event of a stored run
func terminalEvent(run *simulation.Run) events.EventWithData {
	status := "completed"
	eventType := events.RunCompleted
	if run.Status == simulation.StatusFailed {
		status = "failed"
		eventType = events.RunFailed
	}
	now := time.Now()
	return events.EventWithData{
		Type:      eventType,
		Timestamp: now,
		Module:    "simulation",
		Data: &events.RunStatusData{
			RunID:     run.ID,
			Status:    status,
			Draws:     run.Draws,
			Error:     run.Error,
			Duration:  run.Duration,
			Timestamp: now,
		},
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
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
