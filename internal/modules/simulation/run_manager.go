package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/config"
	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
	"github.com/fathomcap/underwriter/internal/modules/retention"
	"github.com/fathomcap/underwriter/internal/utils"
)

// ErrRunActive is returned when a new run is requested while another run is
// still executing. Runs are serialized to keep the worker pool honest.
var ErrRunActive = errors.New("a simulation run is already active")

// RunManager owns the run lifecycle: it freezes a dataset snapshot, persists
// the queued run, executes it on a background goroutine and emits lifecycle
// events along the way.
type RunManager struct {
	repo     *Repository
	datasets *datasets.Service
	events   *events.Manager
	cfg      *config.Config
	log      zerolog.Logger

	mu     sync.Mutex
	active *Run
}

// NewRunManager creates a new run manager
func NewRunManager(repo *Repository, datasetService *datasets.Service, eventManager *events.Manager, cfg *config.Config, log zerolog.Logger) *RunManager {
	return &RunManager{
		repo:     repo,
		datasets: datasetService,
		events:   eventManager,
		cfg:      cfg,
		log:      log.With().Str("module", "simulation").Logger(),
	}
}

// StartRun validates the request, snapshots the imported datasets and queues
// the run for background execution. The returned run is live: only its
// immutable fields (ID, Seed, Terms, Draws) are safe to read after return.
func (m *RunManager) StartRun(ctx context.Context, req *RunRequest) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrRunActive
	}

	mode, err := prediction.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	draws := req.Draws
	if draws <= 0 {
		draws = m.cfg.Simulation.Draws
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	includeLoan := true
	if req.IncludeLoan != nil {
		includeLoan = *req.IncludeLoan
	}

	terms := lending.Terms{
		LoanPercentage:     m.cfg.Lending.LoanPercentage,
		YearlyInterestRate: m.cfg.Lending.YearlyInterestRate,
		TargetIRR:          m.cfg.Lending.TargetIRR,
		MaxYears:           m.cfg.Lending.MaxYears,
	}
	if req.LoanPercentage > 0 {
		terms.LoanPercentage = req.LoanPercentage
	}
	if req.YearlyInterestRate > 0 {
		terms.YearlyInterestRate = req.YearlyInterestRate
	}
	if req.TargetIRR > 0 {
		terms.TargetIRR = req.TargetIRR
	}
	if req.MaxYears > 0 {
		terms.MaxYears = req.MaxYears
	}
	terms = terms.Normalized()

	snapshot, err := m.buildSnapshot(mode)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:          uuid.New().String(),
		Status:      StatusQueued,
		Mode:        mode,
		Draws:       draws,
		Seed:        seed,
		Workers:     m.cfg.Simulation.Workers,
		IncludeLoan: includeLoan,
		Terms:       terms,
		GrossMargin: snapshot.GrossMargin,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.repo.CreateRun(run); err != nil {
		return nil, err
	}

	m.active = run
	m.emitStatus(run, "queued", 0)
	m.log.Info().
		Str("run_id", run.ID).
		Str("mode", string(run.Mode)).
		Int("draws", run.Draws).
		Int64("seed", run.Seed).
		Bool("include_loan", run.IncludeLoan).
		Msg("Run queued")

	go m.execute(run, snapshot)

	return run, nil
}

// Run returns a stored run by ID.
func (m *RunManager) Run(runID string) (*Run, error) {
	return m.repo.Run(runID)
}

// Records returns a page of a run's trajectory records.
func (m *RunManager) Records(runID string, offset, limit int) ([]*TrajectoryRecord, error) {
	if _, err := m.repo.Run(runID); err != nil {
		return nil, err
	}
	return m.repo.Records(runID, offset, limit)
}

// buildSnapshot freezes everything a run reads from the datasets module. The
// snapshot is taken synchronously so a request against missing or unusable
// data fails before the caller gets a run ID.
func (m *RunManager) buildSnapshot(mode prediction.Mode) (Snapshot, error) {
	series, err := m.datasets.HistoricalSeries()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load historical series: %w", err)
	}

	model, err := prediction.BuildModel(series, mode)
	if err != nil {
		return Snapshot{}, err
	}

	cohortRows, err := m.datasets.CohortRows()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load cohort rows: %w", err)
	}
	if len(cohortRows) == 0 {
		return Snapshot{}, errors.New("no cohort data imported")
	}
	cohorts := make([][]float64, len(cohortRows))
	for i, row := range cohortRows {
		cohorts[i] = row.Revenue
	}

	floor := retention.CalculateNDRFloor(cohorts, m.log)
	margin, err := m.datasets.GrossMargin()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Model:       model,
		Table:       retention.BuildTable(cohorts),
		Floor:       floor.Floor,
		GrossMargin: margin.GrossMargin,
	}, nil
}

func (m *RunManager) execute(run *Run, snapshot Snapshot) {
	defer func() {
		m.mu.Lock()
		m.active = nil
		m.mu.Unlock()
	}()

	startedAt := time.Now().UTC()
	run.Status = StatusRunning
	run.StartedAt = &startedAt
	if err := m.repo.MarkRunning(run.ID, startedAt); err != nil {
		m.fail(run, err)
		return
	}
	m.emitStatus(run, "started", 0)

	reporter := events.NewProgressReporter(m.events, run.ID, run.Draws)
	engine := NewEngine(snapshot, run)

	timer := utils.NewTimer("run_batch", m.log)
	records := make([]*TrajectoryRecord, 0, run.Draws)
	failed, err := engine.RunBatch(context.Background(), run.Draws, run.Workers, reporter, func(record *TrajectoryRecord) {
		records = append(records, record)
	})
	timer.StopWithContext(map[string]interface{}{
		"run_id": run.ID,
		"draws":  run.Draws,
	})
	if err != nil {
		m.fail(run, err)
		return
	}

	var ratios []float64
	for _, record := range records {
		ratios = append(ratios, record.PredictedRatio...)
	}
	run.Stats = CalculateBatchStats(ratios)
	run.FailedDraws = failed

	reporter.ReportPhase(run.Draws, run.Draws, "saving results", "persisting", map[string]interface{}{
		"records": len(records),
	})
	if err := m.repo.SaveRecords(run.ID, records); err != nil {
		m.fail(run, err)
		return
	}

	completedAt := time.Now().UTC()
	run.Status = StatusCompleted
	run.CompletedAt = &completedAt
	run.Duration = completedAt.Sub(startedAt).Seconds()
	if err := m.repo.CompleteRun(run); err != nil {
		m.fail(run, err)
		return
	}
	m.emitStatus(run, "completed", run.Duration)
}

func (m *RunManager) fail(run *Run, cause error) {
	m.log.Error().Err(cause).Str("run_id", run.ID).Msg("Run failed")

	completedAt := time.Now().UTC()
	run.Status = StatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &completedAt
	if err := m.repo.FailRun(run.ID, run.Error, completedAt); err != nil {
		m.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist run failure")
	}

	m.events.EmitTyped(events.RunFailed, "simulation", &events.RunStatusData{
		RunID:     run.ID,
		Status:    "failed",
		Draws:     run.Draws,
		Error:     run.Error,
		Timestamp: time.Now(),
	})
}

func (m *RunManager) emitStatus(run *Run, status string, duration float64) {
	data := &events.RunStatusData{
		RunID:     run.ID,
		Status:    status,
		Draws:     run.Draws,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	m.events.EmitTyped(data.EventType(), "simulation", data)
}
