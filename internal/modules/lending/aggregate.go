package lending

import (
	"math/rand"

	"github.com/fathomcap/underwriter/pkg/formulas"
)

const (
	aggregationRows  = 1000
	aggregationPicks = 3
)

// BatchSummary describes the whole run as one pooled loan book.
type BatchSummary struct {
	Trajectories int `json:"trajectories"`
	// Cashflow is the element-wise sum of every trajectory's lender
	// vector. Its first entry is the total disbursed capital.
	Cashflow      []float64 `json:"cashflow"`
	TotalInvested float64   `json:"totalInvested"`
	TotalReturned float64   `json:"totalReturned"`
	NetReturn     float64   `json:"netReturn"`
	MonthlyIRR    *float64  `json:"monthlyIRR"`
	AnnualizedIRR *float64  `json:"annualizedIRR"`
	// CappedShare is the percent share of trajectories that reached the
	// target return and were capped.
	CappedShare float64 `json:"cappedShare"`
}

// Summarize pools a batch of capped trajectories into one portfolio view.
func Summarize(results []*CapResult) *BatchSummary {
	summary := &BatchSummary{
		Trajectories: len(results),
		Cashflow:     sumVectors(results),
	}

	capped := 0
	for _, r := range results {
		summary.TotalInvested += r.LoanAmount
		summary.TotalReturned += r.TotalReceived
		if r.Capped {
			capped++
		}
	}
	summary.NetReturn = summary.TotalReturned - summary.TotalInvested
	if len(results) > 0 {
		summary.CappedShare = float64(capped) / float64(len(results)) * 100
	}

	if monthly := formulas.IRR(summary.Cashflow); monthly != nil {
		annualized := formulas.AnnualizeMonthlyRate(*monthly)
		summary.MonthlyIRR = monthly
		summary.AnnualizedIRR = &annualized
	}
	return summary
}

// AggregatedRow is one synthetic portfolio of pooled trajectories.
type AggregatedRow struct {
	Cashflow      []float64 `json:"cashflow"`
	AnnualizedIRR *float64  `json:"annualizedIRR"`
}

// AggregationTable builds 1000 synthetic portfolio rows. Each row is the
// element-wise sum of 3 trajectories drawn uniformly with replacement, which
// shows how pooling a handful of cohorts smooths the return distribution.
func AggregationTable(results []*CapResult, rng *rand.Rand) []AggregatedRow {
	if len(results) == 0 {
		return nil
	}

	rows := make([]AggregatedRow, 0, aggregationRows)
	picks := make([]*CapResult, aggregationPicks)
	for i := 0; i < aggregationRows; i++ {
		for j := range picks {
			picks[j] = results[rng.Intn(len(results))]
		}

		row := AggregatedRow{Cashflow: sumVectors(picks)}
		if monthly := formulas.IRR(row.Cashflow); monthly != nil {
			annualized := formulas.AnnualizeMonthlyRate(*monthly)
			row.AnnualizedIRR = &annualized
		}
		rows = append(rows, row)
	}
	return rows
}

// sumVectors adds lender vectors element-wise, sized to the longest input.
func sumVectors(results []*CapResult) []float64 {
	length := 0
	for _, r := range results {
		if len(r.Cashflow) > length {
			length = len(r.Cashflow)
		}
	}

	sum := make([]float64, length)
	for _, r := range results {
		for i, v := range r.Cashflow {
			sum[i] += v
		}
	}
	return sum
}
