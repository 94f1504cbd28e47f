package lending

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePoolsLoanBook(t *testing.T) {
	results := []*CapResult{
		{
			Cashflow:      []float64{-800, 80, 80},
			LoanAmount:    800,
			TotalReceived: 160,
			Capped:        true,
		},
		{
			Cashflow:      []float64{-400, 0, 100},
			LoanAmount:    400,
			TotalReceived: 100,
		},
	}

	summary := Summarize(results)

	assert.Equal(t, 2, summary.Trajectories)
	assert.Equal(t, []float64{-1200, 80, 180}, summary.Cashflow)
	assert.InDelta(t, 1200, summary.TotalInvested, 1e-9)
	assert.InDelta(t, 260, summary.TotalReturned, 1e-9)
	assert.InDelta(t, -940, summary.NetReturn, 1e-9)
	assert.InDelta(t, 50, summary.CappedShare, 1e-9)

	require.NotNil(t, summary.MonthlyIRR)
	require.NotNil(t, summary.AnnualizedIRR)
	assert.Negative(t, *summary.AnnualizedIRR)
}

func TestSummarizeEmptyBatch(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.Trajectories)
	assert.Empty(t, summary.Cashflow)
	assert.Zero(t, summary.TotalInvested)
	assert.Zero(t, summary.CappedShare)
	assert.Nil(t, summary.MonthlyIRR)
}

func TestSummarizeRaggedVectorLengths(t *testing.T) {
	results := []*CapResult{
		{Cashflow: []float64{-100, 10}},
		{Cashflow: []float64{-50, 5, 5, 5}},
	}

	summary := Summarize(results)
	assert.Equal(t, []float64{-150, 15, 5, 5}, summary.Cashflow)
}

func TestAggregationTableSumsThreeDraws(t *testing.T) {
	// With a single trajectory every draw picks it, so each row is exactly
	// three times the vector.
	only := &CapResult{
		Cashflow:      []float64{-100, 60, 60},
		LoanAmount:    100,
		TotalReceived: 120,
	}

	rows := AggregationTable([]*CapResult{only}, rand.New(rand.NewSource(1)))
	require.Len(t, rows, 1000)

	for _, row := range rows[:10] {
		assert.Equal(t, []float64{-300, 180, 180}, row.Cashflow)
		require.NotNil(t, row.AnnualizedIRR)
		assert.Positive(t, *row.AnnualizedIRR)
	}
}

func TestAggregationTableDeterministicPerSeed(t *testing.T) {
	results := []*CapResult{
		{Cashflow: []float64{-100, 60, 60}},
		{Cashflow: []float64{-100, 0, 10}},
	}

	first := AggregationTable(results, rand.New(rand.NewSource(7)))
	second := AggregationTable(results, rand.New(rand.NewSource(7)))
	assert.Equal(t, first, second)
}

func TestAggregationTableEmptyBatch(t *testing.T) {
	assert.Nil(t, AggregationTable(nil, rand.New(rand.NewSource(1))))
}
