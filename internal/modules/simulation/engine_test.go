package simulation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
	"github.com/fathomcap/underwriter/internal/modules/retention"
)

// testSnapshot builds a snapshot from a small healthy history: ratios around
// 4, cohorts retaining in the high nineties.
func testSnapshot(t *testing.T, grossMargin float64) Snapshot {
	t.Helper()

	series := &datasets.HistoricalSeries{
		Spend: map[string]float64{
			"January 2024":  1000,
			"February 2024": 1200,
			"March 2024":    1400,
		},
		Revenue: map[string]float64{
			"January 2024":  250,
			"February 2024": 300,
			"March 2024":    400,
		},
	}
	model, err := prediction.BuildModel(series, prediction.ModeConservative)
	require.NoError(t, err)

	cohorts := [][]float64{
		{1000, 950, 920, 900, 880, 860, 850, 840, 830, 820, 810, 800, 795},
		{100, 96, 93, 91, 90, 89, 88, 87, 86, 85, 84, 83, 82},
		{120, 115, 111, 108, 106, 104, 103, 102, 101, 100, 99, 98, 97},
		{90, 87, 85, 84, 83, 82, 81, 80, 79, 78, 77, 76, 75},
	}
	floor := retention.CalculateNDRFloor(cohorts, zerolog.Nop())

	return Snapshot{
		Model:       model,
		Table:       retention.BuildTable(cohorts),
		Floor:       floor.Floor,
		GrossMargin: grossMargin,
	}
}

func testRun(includeLoan bool) *Run {
	return &Run{
		ID:          "run-under-test",
		Mode:        prediction.ModeConservative,
		Draws:       8,
		Seed:        42,
		IncludeLoan: includeLoan,
		Terms:       lending.DefaultTerms(),
	}
}

func TestDrawIsDeterministicPerSeed(t *testing.T) {
	snapshot := testSnapshot(t, 0.8)
	first := NewEngine(snapshot, testRun(true))
	second := NewEngine(snapshot, testRun(true))

	assert.Equal(t, first.Draw(3), second.Draw(3))
	assert.Equal(t, first.Draw(0), second.Draw(0))
}

func TestDrawRecordShape(t *testing.T) {
	engine := NewEngine(testSnapshot(t, 0.8), testRun(true))

	record := engine.Draw(5)

	assert.Equal(t, 5, record.DrawIndex)
	assert.Equal(t, int64(47), record.Seed)
	assert.Len(t, record.Spend, 12)
	assert.Len(t, record.PredictedRatio, 12)
	assert.Len(t, record.PredictedRevenue, 12)
	assert.Len(t, record.GrossProfit, 60)
	require.NotNil(t, record.IRR)
	require.NotNil(t, record.LTVToCAC)
	require.NotNil(t, record.Loan)
	assert.InDelta(t, record.Spend[0]*lending.DefaultLoanPercentage, record.Loan.LoanAmount, 1e-9)
	assert.Len(t, record.Loan.LenderCashflow, 61)
}

func TestDrawSkipsLoanWhenDisabled(t *testing.T) {
	engine := NewEngine(testSnapshot(t, 0.8), testRun(false))

	record := engine.Draw(0)

	assert.Nil(t, record.Loan)
	assert.NotNil(t, record.IRR)
}

func TestRunBatchMatchesSerialDraws(t *testing.T) {
	snapshot := testSnapshot(t, 0.8)
	parallel := NewEngine(snapshot, testRun(true))
	serial := NewEngine(snapshot, testRun(true))

	const draws = 12
	byIndex := make(map[int]*TrajectoryRecord, draws)
	failed, err := parallel.RunBatch(context.Background(), draws, 4, nil, func(record *TrajectoryRecord) {
		byIndex[record.DrawIndex] = record
	})
	require.NoError(t, err)
	assert.Zero(t, failed)
	require.Len(t, byIndex, draws)

	for i := 0; i < draws; i++ {
		assert.Equalf(t, serial.Draw(i), byIndex[i], "draw %d", i)
	}
}

func TestRunBatchCountsFailedDraws(t *testing.T) {
	// A zero gross margin turns every cohort cash flow into pure outlay, so
	// no draw has a defined IRR.
	engine := NewEngine(testSnapshot(t, 0), testRun(true))

	var records []*TrajectoryRecord
	failed, err := engine.RunBatch(context.Background(), 8, 2, nil, func(record *TrajectoryRecord) {
		records = append(records, record)
	})
	require.NoError(t, err)
	assert.Equal(t, 8, failed)
	// Failed draws are counted, not dropped
	assert.Len(t, records, 8)
	for _, record := range records {
		assert.Nil(t, record.IRR)
	}
}

func TestRunBatchStopsOnCancelledContext(t *testing.T) {
	engine := NewEngine(testSnapshot(t, 0.8), testRun(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	yielded := 0
	_, err := engine.RunBatch(ctx, 500, 4, nil, func(*TrajectoryRecord) {
		yielded++
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, yielded, 500)
}
