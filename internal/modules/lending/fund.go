package lending

import (
	"math"

	"github.com/fathomcap/underwriter/pkg/formulas"
)

// Distribution reports the mean and index percentiles of one batch metric.
type Distribution struct {
	Mean float64 `json:"mean"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
}

func newDistribution(values []float64) *Distribution {
	if len(values) == 0 {
		return nil
	}
	sorted := formulas.SortedCopy(values)
	return &Distribution{
		Mean: formulas.Mean(values),
		P25:  formulas.PercentileIndex(sorted, 0.25),
		P50:  formulas.PercentileIndex(sorted, 0.50),
		P75:  formulas.PercentileIndex(sorted, 0.75),
		P90:  formulas.PercentileIndex(sorted, 0.90),
		P95:  formulas.PercentileIndex(sorted, 0.95),
	}
}

// FundPerformance summarizes how the fund fares across a batch of capped
// trajectories. Shares are percents of the batch; the IRR distribution covers
// only trajectories whose IRR is defined.
type FundPerformance struct {
	Trajectories       int           `json:"trajectories"`
	TotalInvested      float64       `json:"totalInvested"`
	TotalReturned      float64       `json:"totalReturned"`
	OverallReturn      float64       `json:"overallReturn"`
	TargetReachedShare float64       `json:"targetReachedShare"`
	HitHorizonShare    float64       `json:"hitHorizonShare"`
	UndefinedIRRShare  float64       `json:"undefinedIRRShare"`
	MonthsToTarget     *Distribution `json:"monthsToTarget"`
	AnnualizedIRR      *Distribution `json:"annualizedIRR"`
	SimpleReturn       *Distribution `json:"simpleReturn"`
	// TargetReturnTotal is the return the whole batch would have produced
	// had every trajectory paid exactly the target IRR over its tracked
	// months.
	TargetReturnTotal float64 `json:"targetReturnTotal"`
}

// AnalyzeFund aggregates a batch of capped trajectories against the target.
func AnalyzeFund(results []*CapResult, targetIRR float64, maxYears int) *FundPerformance {
	perf := &FundPerformance{Trajectories: len(results)}
	if len(results) == 0 {
		return perf
	}

	horizon := maxYears * 12

	reached := 0
	hitHorizon := 0
	undefined := 0
	var monthsToTarget, annualized, simpleReturns []float64

	for _, r := range results {
		perf.TotalInvested += r.LoanAmount
		perf.TotalReturned += r.TotalReceived

		if r.Capped {
			reached++
		}
		if r.HitHorizon {
			hitHorizon++
		}
		if r.AnnualizedIRR == nil {
			undefined++
		} else {
			annualized = append(annualized, *r.AnnualizedIRR)
		}
		if r.MonthsToTarget != nil {
			monthsToTarget = append(monthsToTarget, float64(*r.MonthsToTarget))
		}
		if r.LoanAmount > 0 {
			simpleReturns = append(simpleReturns, r.TotalReceived/r.LoanAmount)
		}

		perf.TargetReturnTotal += TargetReturn(r.LoanAmount, targetIRR, trackedMonths(r, horizon))
	}

	total := float64(len(results))
	perf.TargetReachedShare = float64(reached) / total * 100
	perf.HitHorizonShare = float64(hitHorizon) / total * 100
	perf.UndefinedIRRShare = float64(undefined) / total * 100
	if perf.TotalInvested > 0 {
		perf.OverallReturn = perf.TotalReturned / perf.TotalInvested
	}

	perf.MonthsToTarget = newDistribution(monthsToTarget)
	perf.AnnualizedIRR = newDistribution(annualized)
	perf.SimpleReturn = newDistribution(simpleReturns)
	return perf
}

// trackedMonths is how long the fund tracked the trajectory: up to the
// capping month when the target was reached, the full horizon otherwise.
func trackedMonths(r *CapResult, horizon int) int {
	if r.MonthsToTarget != nil {
		return *r.MonthsToTarget
	}
	return horizon
}

// TargetReturn is the profit a loan would produce compounding at the target
// IRR over the given months.
func TargetReturn(loanAmount, targetIRR float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	monthly := formulas.MonthlyRate(targetIRR)
	return loanAmount*math.Pow(1+monthly, float64(months)) - loanAmount
}
