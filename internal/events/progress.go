package events

import (
	"sync"
	"time"
)

// Throttle interval for progress events (avoid flooding stream clients)
const progressThrottleInterval = 100 * time.Millisecond

// ProgressReporter allows a simulation run to report progress during execution.
// Reports are throttled to at most one per interval; completion always goes out.
type ProgressReporter struct {
	manager *Manager
	runID   string
	draws   int

	mu         sync.Mutex
	lastReport time.Time
}

// NewProgressReporter creates a new progress reporter for a run
func NewProgressReporter(manager *Manager, runID string, draws int) *ProgressReporter {
	return &ProgressReporter{
		manager: manager,
		runID:   runID,
		draws:   draws,
	}
}

// Report emits a progress event (throttled to prevent flooding).
// 100% completion always bypasses the throttle.
func (pr *ProgressReporter) Report(current, total int, message string) {
	pr.report(current, total, message, "", nil)
}

// ReportPhase emits a progress event carrying the current run phase and
// arbitrary phase metrics (throttled).
func (pr *ProgressReporter) ReportPhase(current, total int, message, phase string, details map[string]interface{}) {
	pr.report(current, total, message, phase, details)
}

func (pr *ProgressReporter) report(current, total int, message, phase string, details map[string]interface{}) {
	if pr == nil || pr.manager == nil {
		return
	}

	pr.mu.Lock()
	// Throttle: only report if enough time has passed OR if we're at 100%
	now := time.Now()
	if now.Sub(pr.lastReport) < progressThrottleInterval && current != total {
		pr.mu.Unlock()
		return
	}
	pr.lastReport = now
	pr.mu.Unlock()

	pr.manager.EmitTyped(RunProgress, "simulation", &RunStatusData{
		RunID:  pr.runID,
		Status: "progress",
		Draws:  pr.draws,
		Progress: &RunProgressInfo{
			Current: current,
			Total:   total,
			Message: message,
			Phase:   phase,
			Details: details,
		},
		Timestamp: now,
	})
}
