// Package server provides the HTTP server and routing for the underwriting API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fathomcap/underwriter/internal/database"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	datasetsDB  *database.DB
	resultsDB   *database.DB
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, datasetsDB, resultsDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		datasetsDB:  datasetsDB,
		resultsDB:   resultsDB,
	}
}

// HealthResponse reports liveness plus per-database health
type HealthResponse struct {
	Status    string            `json:"status"`    // "healthy" or "degraded"
	Databases map[string]string `json:"databases"` // name -> "ok" or the failure
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds float64  `json:"uptime_seconds"`
	Goroutines    int      `json:"goroutines"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	MemoryUsedMB  float64  `json:"memory_used_mb"`
	Databases     []DBInfo `json:"databases"`
}

// DBInfo represents size statistics for a single database
type DBInfo struct {
	Name      string  `json:"name"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// HandleHealth checks both databases and reports degraded with a 503 when
// either fails its integrity check
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Databases: make(map[string]string, 2),
	}

	for _, db := range []*database.DB{h.datasetsDB, h.resultsDB} {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			response.Status = "degraded"
			response.Databases[db.Name()] = err.Error()
			continue
		}
		response.Databases[db.Name()] = "ok"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// HandleSystemStatus returns uptime, goroutine count, CPU and memory usage,
// and per-database size statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memStat := h.getSystemStats()

	databases := make([]DBInfo, 0, 2)
	for _, db := range []*database.DB{h.datasetsDB, h.resultsDB} {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to collect database stats")
			continue
		}
		databases = append(databases, DBInfo{
			Name:      db.Name(),
			SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		})
	}

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		Databases:     databases,
	}
	if memStat != nil {
		response.MemoryPercent = memStat.UsedPercent
		response.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// getSystemStats calculates CPU and RAM usage
// Uses a short interval (100ms) so the endpoint answers quickly while still
// providing an accurate reading
func (h *SystemHandlers) getSystemStats() (float64, *mem.VirtualMemoryStat) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		memStat = nil
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat
}
