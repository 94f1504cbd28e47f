package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyRateAnnualizeRoundTrip(t *testing.T) {
	for _, yearly := range []float64{0.12, 0.16, 0.20, 0.25} {
		monthly := MonthlyRate(yearly)
		back := AnnualizeMonthlyRate(monthly)
		assert.InDelta(t, yearly, back, 0.001, "annualizing the monthly rate should recover the yearly rate")
	}
}

func TestNPVZeroRateIsPlainSum(t *testing.T) {
	flows := []float64{-1000, 300, 400, 500}
	assert.InDelta(t, 200.0, NPV(0, flows), 1e-9)
}

func TestNPVDiscountsLaterFlows(t *testing.T) {
	// -100 now, 110 in one period: at 10% the two exactly cancel.
	assert.InDelta(t, 0.0, NPV(0.10, []float64{-100, 110}), 1e-9)
}

func TestIRRSingleRepayment(t *testing.T) {
	irr := IRR([]float64{-100, 110})
	require.NotNil(t, irr)
	assert.InDelta(t, 0.10, *irr, 1e-6)
}

func TestIRRTwelveEqualPayments(t *testing.T) {
	flows := make([]float64, 13)
	flows[0] = -1000
	for i := 1; i < 13; i++ {
		flows[i] = 100
	}

	irr := IRR(flows)
	require.NotNil(t, irr)

	// The root zeroes the NPV and annualizes to roughly 41%.
	assert.InDelta(t, 0.0, NPV(*irr, flows), 1e-5)
	assert.InDelta(t, 0.0292, *irr, 0.0005)
	assert.InDelta(t, 0.413, AnnualizeMonthlyRate(*irr), 0.01)
}

func TestIRRLossMakingSeries(t *testing.T) {
	// Recovering half the investment in one period is a -50% rate.
	irr := IRR([]float64{-1000, 500})
	require.NotNil(t, irr)
	assert.InDelta(t, -0.50, *irr, 1e-6)
}

func TestIRRUndefinedWithoutSignChange(t *testing.T) {
	assert.Nil(t, IRR([]float64{-1000, 0, 0, 0}), "no recovery at all leaves the rate undefined")
	assert.Nil(t, IRR([]float64{100, 200, 300}), "all-positive series has no rate")
	assert.Nil(t, IRR([]float64{-100, -200}), "all-negative series has no rate")
	assert.Nil(t, IRR(nil))
}

func TestIRRSolverMatchesFullRecalculation(t *testing.T) {
	solver := NewIRRSolver(-1000)
	flows := []float64{-1000}

	prev := -1.0
	for _, payment := range []float64{300, 400, 500, 250} {
		solver.Append(payment)
		flows = append(flows, payment)

		incremental := solver.Solve()
		full := IRR(flows)
		require.NotNil(t, incremental)
		require.NotNil(t, full)
		assert.InDelta(t, *full, *incremental, 1e-6)

		// Appending non-negative payments can only raise the rate.
		assert.GreaterOrEqual(t, *incremental, prev)
		prev = *incremental
	}
}

func TestIRRSolverUndefinedUntilPositiveFlow(t *testing.T) {
	solver := NewIRRSolver(-1000)

	solver.Append(0)
	assert.Nil(t, solver.Solve())
	solver.Append(0)
	assert.Nil(t, solver.Solve())

	// -1000 + 2000/(1+r)^3 = 0 gives r = 2^(1/3) - 1.
	solver.Append(2000)
	irr := solver.Solve()
	require.NotNil(t, irr)
	assert.InDelta(t, 0.2599, *irr, 0.001)
}
