// Package simulation runs Monte Carlo batches over the prediction and
// retention samplers, projects each draw into a cohort trajectory, and
// persists per-trajectory results. Draws are independent and deterministic
// per (seed, index), so a batch produces identical records whether it runs
// serially or across workers.
package simulation

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
	"github.com/fathomcap/underwriter/internal/modules/retention"
	"github.com/fathomcap/underwriter/pkg/formulas"
)

// Snapshot pins every input a run draws from. A run never sees dataset edits
// made after its snapshot was taken.
type Snapshot struct {
	Model       *prediction.Model
	Table       *retention.Table
	Floor       float64
	GrossMargin float64
}

// Engine draws trajectories from an immutable snapshot.
type Engine struct {
	sampler     *prediction.Sampler
	curves      *retention.CurveSampler
	projector   *Projector
	terms       lending.Terms
	includeLoan bool
	baseSeed    int64
}

// NewEngine prepares the samplers for one run. The run's mode drives both
// the ratio sampler (already baked into the model) and the retention
// sampler's conservative dampening.
func NewEngine(snapshot Snapshot, run *Run) *Engine {
	conservative := run.Mode == prediction.ModeConservative
	return &Engine{
		sampler:     prediction.NewSampler(snapshot.Model),
		curves:      retention.NewCurveSampler(snapshot.Table, snapshot.Floor, conservative),
		projector:   NewProjector(snapshot.GrossMargin),
		terms:       run.Terms,
		includeLoan: run.IncludeLoan,
		baseSeed:    run.Seed,
	}
}

// Draw computes trajectory i. The per-draw RNG is seeded with baseSeed+i, so
// any single draw can be recomputed without replaying the ones before it.
func (e *Engine) Draw(i int) *TrajectoryRecord {
	seed := e.baseSeed + int64(i)
	rng := rand.New(rand.NewSource(seed))

	trajectory := e.sampler.Draw(rng)
	curve := e.curves.SampleCurve(rng)

	spend := trajectory.Spend[0]
	projection := e.projector.Project(spend, trajectory.Ratio[0], curve)
	cashflow := projection.Cashflow(spend)

	record := &TrajectoryRecord{
		DrawIndex:        i,
		Seed:             seed,
		Spend:            trajectory.Spend,
		PredictedRatio:   trajectory.Ratio,
		PredictedRevenue: trajectory.Revenue,
		GrossProfit:      projection.GrossProfit,
		LTVToCAC:         projection.LTVToCAC(spend),
		IRR:              formulas.IRR(cashflow),
	}

	if e.includeLoan {
		if analysis, err := lending.Analyze(cashflow, e.terms); err == nil {
			record.Loan = newLoanAnalysis(analysis, e.terms)
		}
	}
	return record
}

// RunBatch executes draws [0, draws) across the worker pool, invoking yield
// once per completed record. Yield calls are serialized but arrive in no
// particular order. Returns the number of failed draws; a context
// cancellation stops feeding new draws and returns ctx.Err after in-flight
// draws finish.
func (e *Engine) RunBatch(ctx context.Context, draws, workers int, progress *events.ProgressReporter, yield func(*TrajectoryRecord)) (int, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > draws {
		workers = draws
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	completed := 0
	failed := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				record := e.Draw(i)

				mu.Lock()
				if record.failed(e.includeLoan) {
					failed++
				}
				completed++
				current := completed
				if yield != nil {
					yield(record)
				}
				mu.Unlock()

				progress.Report(current, draws, "drawing trajectories")
			}
		}()
	}

feed:
	for i := 0; i < draws; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	return failed, ctx.Err()
}

// newLoanAnalysis translates a capped lending result into the per-trajectory
// record shape, adding the simple-return and target-return figures.
func newLoanAnalysis(result *lending.CapResult, terms lending.Terms) *LoanAnalysis {
	analysis := &LoanAnalysis{
		LenderCashflow: result.Cashflow,
		LoanAmount:     result.LoanAmount,
		TotalReceived:  result.TotalReceived,
		NetReturn:      result.NetReturn,
		FinalIRR:       result.MonthlyIRR,
		ActualIRR:      result.AnnualizedIRR,
		MonthsToTarget: result.MonthsToTarget,
		Capped:         result.Capped,
		HitHorizon:     result.HitHorizon,
	}
	if result.LoanAmount > 0 {
		analysis.ReturnPct = result.TotalReceived / result.LoanAmount
	}

	months := terms.Horizon()
	if result.MonthsToTarget != nil {
		months = *result.MonthsToTarget
	}
	analysis.TargetReturn = lending.TargetReturn(result.LoanAmount, terms.TargetIRR, months)
	return analysis
}
