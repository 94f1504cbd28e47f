// Package lending converts cohort cash-flow trajectories into lender cash
// flows. The amortizer tracks outstanding principal month by month, and the
// return-cap engine cuts payments off once the loan has earned its target
// annualized IRR. Everything here is pure computation over slices; batch
// endpoints live in the handlers subpackage.
package lending

import (
	"fmt"

	"github.com/fathomcap/underwriter/pkg/formulas"
)

// Amortization is the lender's view of one cohort trajectory before any
// return capping.
type Amortization struct {
	// Cashflow has the same length as the input vector. Entry 0 is the
	// disbursed loan (negative), every later entry the lender's payment
	// for that month.
	Cashflow         []float64 `json:"cashflow"`
	LoanAmount       float64   `json:"loanAmount"`
	TotalReceived    float64   `json:"totalReceived"`
	FinalOutstanding float64   `json:"finalOutstanding"`
	NetReturn        float64   `json:"netReturn"`
}

// Amortize converts a cohort cash-flow vector into lender cash flows. The
// loan advances loanPercentage of the month-zero outlay and each positive
// month pays the lender up to loanPercentage of that month's cash flow,
// interest first, the rest amortizing principal. Months with non-positive
// cash flow are grace months: no payment is collected and no interest
// accrues, so the outstanding balance simply holds flat.
func Amortize(cashflow []float64, loanPercentage, yearlyInterestRate float64) (*Amortization, error) {
	if len(cashflow) < 2 {
		return nil, fmt.Errorf("cash-flow vector needs at least 2 entries, got %d", len(cashflow))
	}
	if cashflow[0] >= 0 {
		return nil, fmt.Errorf("cash-flow vector must start with a negative outlay, got %g", cashflow[0])
	}

	monthlyRate := formulas.MonthlyRate(yearlyInterestRate)
	loanAmount := -cashflow[0] * loanPercentage
	outstanding := loanAmount

	lender := make([]float64, len(cashflow))
	lender[0] = -loanAmount

	totalReceived := 0.0
	for i, flow := range cashflow[1:] {
		if flow <= 0 {
			continue
		}

		maxPayment := flow * loanPercentage
		interest := outstanding * monthlyRate

		principal := maxPayment - interest
		if principal < 0 {
			principal = 0
		}
		if principal > outstanding {
			principal = outstanding
		}

		payment := interest + principal
		outstanding -= principal

		lender[i+1] = payment
		totalReceived += payment
	}

	return &Amortization{
		Cashflow:         lender,
		LoanAmount:       loanAmount,
		TotalReceived:    totalReceived,
		FinalOutstanding: outstanding,
		NetReturn:        totalReceived - loanAmount,
	}, nil
}
