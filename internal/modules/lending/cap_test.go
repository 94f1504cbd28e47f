package lending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lenderVector builds [-outlay] followed by 60 equal monthly payments.
func lenderVector(outlay, payment float64) []float64 {
	vector := make([]float64, 61)
	vector[0] = -outlay
	for i := 1; i < len(vector); i++ {
		vector[i] = payment
	}
	return vector
}

func TestApplyReturnCapCapsAtTarget(t *testing.T) {
	// 80/month on 800: month 10 just breaks even (IRR 0), month 11 is the
	// first whose annualized IRR clears 16%.
	result := ApplyReturnCap(lenderVector(800, 80), 0.16, 5)

	require.True(t, result.Capped)
	require.NotNil(t, result.MonthsToTarget)
	assert.Equal(t, 11, *result.MonthsToTarget)
	assert.False(t, result.HitHorizon)

	assert.InDelta(t, 80, result.Cashflow[11], 1e-9)
	for i := 12; i < len(result.Cashflow); i++ {
		assert.Zero(t, result.Cashflow[i], "payment %d should be zeroed", i)
	}

	assert.InDelta(t, 880, result.TotalReceived, 1e-9)
	assert.InDelta(t, 80, result.NetReturn, 1e-9)
	require.NotNil(t, result.AnnualizedIRR)
	assert.GreaterOrEqual(t, *result.AnnualizedIRR, 0.16)
}

func TestApplyReturnCapHorizonReached(t *testing.T) {
	input := lenderVector(800, 1)
	result := ApplyReturnCap(input, 0.16, 5)

	assert.False(t, result.Capped)
	assert.True(t, result.HitHorizon)
	assert.Nil(t, result.MonthsToTarget)
	assert.Equal(t, input, result.Cashflow)
	assert.InDelta(t, 60, result.TotalReceived, 1e-9)

	require.NotNil(t, result.AnnualizedIRR)
	assert.Negative(t, *result.AnnualizedIRR)
}

func TestApplyReturnCapUndefinedIRRNeverTargets(t *testing.T) {
	result := ApplyReturnCap(lenderVector(800, 0), 0.16, 5)

	assert.False(t, result.Capped)
	assert.True(t, result.HitHorizon)
	assert.Nil(t, result.MonthlyIRR)
	assert.Nil(t, result.AnnualizedIRR)
	assert.InDelta(t, -800, result.NetReturn, 1e-9)
}

func TestApplyReturnCapIdempotent(t *testing.T) {
	first := ApplyReturnCap(lenderVector(800, 80), 0.16, 5)
	second := ApplyReturnCap(first.Cashflow, 0.16, 5)

	assert.Equal(t, first.Cashflow, second.Cashflow)
	require.NotNil(t, second.MonthsToTarget)
	assert.Equal(t, *first.MonthsToTarget, *second.MonthsToTarget)
	assert.Equal(t, first.TotalReceived, second.TotalReceived)
}

func TestApplyReturnCapDoesNotMutateInput(t *testing.T) {
	input := lenderVector(800, 80)
	ApplyReturnCap(input, 0.16, 5)

	assert.Equal(t, lenderVector(800, 80), input)
}

func TestApplyReturnCapHonorsHorizon(t *testing.T) {
	// Payments only start in year two, so a one-year horizon never sees a
	// defined IRR while a five-year horizon caps normally.
	vector := lenderVector(800, 80)
	for i := 1; i <= 12; i++ {
		vector[i] = 0
	}

	short := ApplyReturnCap(vector, 0.16, 1)
	assert.False(t, short.Capped)
	assert.True(t, short.HitHorizon)

	full := ApplyReturnCap(vector, 0.16, 5)
	require.True(t, full.Capped)
	assert.GreaterOrEqual(t, *full.MonthsToTarget, 13)
}

func TestAnalyzeRunsFullPipeline(t *testing.T) {
	cashflow := make([]float64, 61)
	cashflow[0] = -1000
	for i := 1; i <= 12; i++ {
		cashflow[i] = 100
	}

	terms := DefaultTerms()
	terms.TargetIRR = 0.30

	result, err := Analyze(cashflow, terms)
	require.NoError(t, err)

	// The loan repays at its 16% interest rate, which never clears a 30%
	// target.
	assert.False(t, result.Capped)
	assert.True(t, result.HitHorizon)
	assert.InDelta(t, 800, result.LoanAmount, 1e-9)
	require.NotNil(t, result.AnnualizedIRR)
	assert.InDelta(t, 0.16, *result.AnnualizedIRR, 0.001)
}

func TestAnalyzePropagatesAmortizeError(t *testing.T) {
	_, err := Analyze([]float64{5, 10}, DefaultTerms())
	require.Error(t, err)
}
