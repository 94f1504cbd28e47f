package simulation

import (
	"time"

	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
)

// Run lifecycle states persisted in simulation_runs.status.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunRequest is the body of POST /api/simulations. Zero-valued fields fall
// back to configured defaults.
type RunRequest struct {
	Draws              int     `json:"draws"`
	Mode               string  `json:"mode"`
	LoanPercentage     float64 `json:"loanPercentage"`
	YearlyInterestRate float64 `json:"yearlyInterestRate"`
	TargetIRR          float64 `json:"targetIRR"`
	MaxYears           int     `json:"maxYears"`
	Seed               int64   `json:"seed"`
	IncludeLoan        *bool   `json:"includeLoan"`
}

// Run is one simulation batch and its lifecycle state.
type Run struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Mode        prediction.Mode `json:"mode"`
	Draws       int             `json:"draws"`
	Seed        int64           `json:"seed"`
	Workers     int             `json:"workers"`
	IncludeLoan bool            `json:"includeLoan"`
	Terms       lending.Terms   `json:"terms"`
	GrossMargin float64         `json:"grossMargin"`
	FailedDraws int             `json:"failedDraws"`
	Stats       *BatchStats     `json:"stats,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Duration    float64         `json:"durationSeconds,omitempty"`
}

// LoanAnalysis is the lender-side outcome of one trajectory.
type LoanAnalysis struct {
	LenderCashflow []float64 `json:"lenderCashflow"`
	LoanAmount     float64   `json:"loanAmount"`
	TotalReceived  float64   `json:"totalReceived"`
	NetReturn      float64   `json:"netReturn"`
	ReturnPct      float64   `json:"returnPct"`
	TargetReturn   float64   `json:"targetReturn"`
	FinalIRR       *float64  `json:"finalIRR"`
	ActualIRR      *float64  `json:"actualIRR"`
	MonthsToTarget *int      `json:"monthsToTarget"`
	Capped         bool      `json:"capped"`
	HitHorizon     bool      `json:"hitHorizon"`
}

// TrajectoryRecord is the full outcome of one Monte Carlo draw. Spend, ratio
// and revenue cover the 12 forecast months; gross profit tracks the month-one
// cohort over 60 months. Loan is nil when the run skips loan analysis or the
// draw produced no amortizable cash flow.
type TrajectoryRecord struct {
	DrawIndex        int           `json:"drawIndex"`
	Seed             int64         `json:"seed"`
	Spend            []float64     `json:"spend"`
	PredictedRatio   []float64     `json:"predictedRatio"`
	PredictedRevenue []float64     `json:"predictedRevenue"`
	GrossProfit      []float64     `json:"grossProfit"`
	LTVToCAC         *float64      `json:"ltvToCac"`
	IRR              *float64      `json:"irr"`
	Loan             *LoanAnalysis `json:"loan,omitempty"`
}

// CohortCashflow rebuilds the cohort cash-flow vector loan analysis runs on:
// the month-one spend as outlay, then 60 months of gross profit.
func (r *TrajectoryRecord) CohortCashflow() []float64 {
	cashflow := make([]float64, len(r.GrossProfit)+1)
	if len(r.Spend) > 0 {
		cashflow[0] = -r.Spend[0]
	}
	copy(cashflow[1:], r.GrossProfit)
	return cashflow
}

// failed reports whether the draw produced no usable economics: an undefined
// business IRR, or no amortizable cash flow on a loan-enabled run.
func (r *TrajectoryRecord) failed(includeLoan bool) bool {
	if r.IRR == nil {
		return true
	}
	return includeLoan && r.Loan == nil
}
