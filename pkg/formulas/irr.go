// Package formulas provides the financial and statistical calculations shared
// by the prediction, simulation, and lending modules.
package formulas

import "math"

// Bisection parameters for the IRR root search. The lower rate bound stays a
// hair above -100% because NPV is undefined at rate = -1.
const (
	irrRateFloor    = -0.999999
	irrRateCeiling  = 1e6
	irrTolerance    = 1e-9
	irrMaxIteration = 200
)

// MonthlyRate converts a yearly compounding rate to its monthly equivalent.
//
// Formula: (1 + yearly)^(1/12) - 1
func MonthlyRate(yearly float64) float64 {
	return math.Pow(1+yearly, 1.0/12.0) - 1
}

// AnnualizeMonthlyRate converts a monthly rate to its yearly equivalent.
//
// Formula: (1 + monthly)^12 - 1
func AnnualizeMonthlyRate(monthly float64) float64 {
	return math.Pow(1+monthly, 12) - 1
}

// NPV calculates the net present value of a cash-flow series at the given
// per-period rate. Entry 0 is not discounted.
//
// Formula: NPV = sum(cashflows[t] / (1+rate)^t)
func NPV(rate float64, cashflows []float64) float64 {
	total := 0.0
	discount := 1.0
	for _, flow := range cashflows {
		total += flow / discount
		discount *= 1 + rate
	}
	return total
}

// IRR calculates the per-period internal rate of return of a cash-flow series
// via bisection. Returns nil when the series has no sign change, when no root
// exists inside the search domain, or when the search fails to converge. A nil
// result means "undefined" and must never be coerced to zero by callers.
func IRR(cashflows []float64) *float64 {
	if !hasSignChange(cashflows) {
		return nil
	}
	return bisectIRR(cashflows, irrRateFloor)
}

// IRRSolver solves IRR incrementally over growing prefixes of a payment
// series. Appending a non-negative payment can only move the root upward, so
// the previous root carries over as the lower bisection bound instead of
// restarting the search from the rate floor each time.
type IRRSolver struct {
	flows []float64
	lo    float64
}

// NewIRRSolver creates a solver seeded with the initial (negative) investment.
func NewIRRSolver(investment float64) *IRRSolver {
	return &IRRSolver{
		flows: []float64{investment},
		lo:    irrRateFloor,
	}
}

// Append adds the next period's payment to the series.
func (s *IRRSolver) Append(flow float64) {
	s.flows = append(s.flows, flow)
}

// Solve returns the per-period IRR of the series accumulated so far, or nil
// when it is undefined. A found root becomes the lower bound for the next call.
func (s *IRRSolver) Solve() *float64 {
	if !hasSignChange(s.flows) {
		return nil
	}

	root := bisectIRR(s.flows, s.lo)
	if root != nil {
		s.lo = *root
	}
	return root
}

func hasSignChange(cashflows []float64) bool {
	hasNegative := false
	hasPositive := false
	for _, flow := range cashflows {
		if flow < 0 {
			hasNegative = true
		} else if flow > 0 {
			hasPositive = true
		}
	}
	return hasNegative && hasPositive
}

// bisectIRR finds the NPV root above the given lower bound. The upper bound
// expands geometrically until the NPV signs at both ends differ.
func bisectIRR(cashflows []float64, lo float64) *float64 {
	npvLo := NPV(lo, cashflows)
	if npvLo == 0 {
		return &lo
	}

	// Expand the upper bound until it brackets the root.
	hi := lo + 1
	npvHi := NPV(hi, cashflows)
	for npvLo*npvHi > 0 {
		if hi > irrRateCeiling {
			return nil
		}
		hi = lo + (hi-lo)*2
		npvHi = NPV(hi, cashflows)
	}

	for i := 0; i < irrMaxIteration; i++ {
		mid := (lo + hi) / 2
		npvMid := NPV(mid, cashflows)

		if math.Abs(npvMid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return &mid
		}

		if npvLo*npvMid < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}

	// No convergence within the iteration limit.
	mid := (lo + hi) / 2
	if math.Abs(NPV(mid, cashflows)) < 1e-6 {
		return &mid
	}
	return nil
}
