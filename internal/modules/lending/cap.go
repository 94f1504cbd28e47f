package lending

import "github.com/fathomcap/underwriter/pkg/formulas"

// CapResult is the lender's final view of one trajectory after return
// capping.
type CapResult struct {
	// Cashflow is the capped lender vector, same length as the input.
	Cashflow       []float64 `json:"cashflow"`
	LoanAmount     float64   `json:"loanAmount"`
	TotalReceived  float64   `json:"totalReceived"`
	NetReturn      float64   `json:"netReturn"`
	MonthlyIRR     *float64  `json:"monthlyIRR"`
	AnnualizedIRR  *float64  `json:"annualizedIRR"`
	MonthsToTarget *int      `json:"monthsToTarget"`
	Capped         bool      `json:"capped"`
	HitHorizon     bool      `json:"hitHorizon"`
}

// ApplyReturnCap finds the earliest month at which the lender vector's
// annualized IRR reaches targetIRR and zeroes every payment after it. The
// prefix search reuses one incremental solver, so each month costs a single
// warm-started root refinement instead of a full recomputation. Prefixes with
// undefined IRR count as not-yet-reached. When no prefix inside the
// maxYears*12 horizon reaches the target the vector is left untouched and
// HitHorizon is set.
//
// The input is a lender vector as produced by Amortize: a negative
// disbursement followed by monthly payments.
func ApplyReturnCap(cashflow []float64, targetIRR float64, maxYears int) *CapResult {
	series := make([]float64, len(cashflow))
	copy(series, cashflow)

	result := &CapResult{
		Cashflow:   series,
		HitHorizon: true,
	}
	if len(series) == 0 {
		return result
	}
	result.LoanAmount = -series[0]

	horizon := maxYears * 12
	if horizon > len(series)-1 {
		horizon = len(series) - 1
	}

	solver := formulas.NewIRRSolver(series[0])
	for m := 1; m <= horizon; m++ {
		solver.Append(series[m])
		monthly := solver.Solve()
		if monthly == nil {
			continue
		}
		if formulas.AnnualizeMonthlyRate(*monthly) >= targetIRR {
			month := m
			result.MonthsToTarget = &month
			result.Capped = true
			result.HitHorizon = false
			for i := m + 1; i < len(series); i++ {
				series[i] = 0
			}
			break
		}
	}

	for _, payment := range series[1:] {
		result.TotalReceived += payment
	}
	result.NetReturn = result.TotalReceived - result.LoanAmount

	if monthly := formulas.IRR(series); monthly != nil {
		annualized := formulas.AnnualizeMonthlyRate(*monthly)
		result.MonthlyIRR = monthly
		result.AnnualizedIRR = &annualized
	}
	return result
}

// Analyze runs amortization and return capping back to back for one cohort
// cash-flow vector.
func Analyze(cashflow []float64, terms Terms) (*CapResult, error) {
	loan, err := Amortize(cashflow, terms.LoanPercentage, terms.YearlyInterestRate)
	if err != nil {
		return nil, err
	}
	return ApplyReturnCap(loan.Cashflow, terms.TargetIRR, terms.MaxYears), nil
}
