package simulation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomcap/underwriter/internal/modules/lending"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
	testingpkg "github.com/fathomcap/underwriter/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	db, cleanup := testingpkg.NewTestDB(t, "results")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func storedRun(id string) *Run {
	return &Run{
		ID:          id,
		Status:      StatusQueued,
		Mode:        prediction.ModeConservative,
		Draws:       100,
		Seed:        12345,
		Workers:     4,
		IncludeLoan: true,
		Terms:       lending.DefaultTerms(),
		GrossMargin: 0.74,
		CreatedAt:   time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
	}
}

func sampleRecord(draw int, withLoan bool) *TrajectoryRecord {
	record := &TrajectoryRecord{
		DrawIndex:        draw,
		Seed:             100 + int64(draw),
		Spend:            []float64{1000, 1100, 1210},
		PredictedRatio:   []float64{4, 4.2, 3.9},
		PredictedRevenue: []float64{250, 261.9, 310.25},
		GrossProfit:      []float64{200, 195, 190},
		LTVToCAC:         fptr(3.5),
		IRR:              fptr(0.08),
	}
	if withLoan {
		record.Loan = &LoanAnalysis{
			LenderCashflow: []float64{-800, 160, 160},
			LoanAmount:     800,
			TotalReceived:  320,
			NetReturn:      -480,
			ReturnPct:      0.4,
			TargetReturn:   128.93,
			FinalIRR:       fptr(-0.04),
			ActualIRR:      fptr(-0.38),
			MonthsToTarget: nil,
			HitHorizon:     true,
		}
	}
	return record
}

func TestCreateRunAndLoad(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-1")

	require.NoError(t, repo.CreateRun(run))

	loaded, err := repo.Run("run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, loaded.Status)
	assert.Equal(t, prediction.ModeConservative, loaded.Mode)
	assert.Equal(t, 100, loaded.Draws)
	assert.Equal(t, int64(12345), loaded.Seed)
	assert.Equal(t, 4, loaded.Workers)
	assert.True(t, loaded.IncludeLoan)
	assert.Equal(t, lending.DefaultTerms(), loaded.Terms)
	assert.InDelta(t, 0.74, loaded.GrossMargin, 1e-9)
	assert.Equal(t, run.CreatedAt, loaded.CreatedAt)
	assert.Nil(t, loaded.Stats)
	assert.Nil(t, loaded.StartedAt)
	assert.Nil(t, loaded.CompletedAt)
	assert.Empty(t, loaded.Error)
}

func TestRunNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Run("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-2")
	require.NoError(t, repo.CreateRun(run))

	startedAt := time.Date(2026, 8, 25, 9, 31, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRunning(run.ID, startedAt))

	loaded, err := repo.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, loaded.Status)
	require.NotNil(t, loaded.StartedAt)
	assert.Equal(t, startedAt, *loaded.StartedAt)

	completedAt := time.Date(2026, 8, 25, 9, 32, 30, 0, time.UTC)
	run.Stats = CalculateBatchStats([]float64{10, 20, 30, 40})
	run.FailedDraws = 3
	run.CompletedAt = &completedAt
	run.Duration = 90.0
	require.NoError(t, repo.CompleteRun(run))

	loaded, err = repo.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, 3, loaded.FailedDraws)
	assert.InDelta(t, 90.0, loaded.Duration, 1e-9)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, completedAt, *loaded.CompletedAt)
	assert.Equal(t, run.Stats, loaded.Stats)
}

func TestFailRunStoresError(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-3")
	require.NoError(t, repo.CreateRun(run))

	completedAt := time.Date(2026, 8, 25, 9, 33, 0, 0, time.UTC)
	require.NoError(t, repo.FailRun(run.ID, "no cohort data imported", completedAt))

	loaded, err := repo.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, loaded.Status)
	assert.Equal(t, "no cohort data imported", loaded.Error)
	require.NotNil(t, loaded.CompletedAt)
}

func TestSaveRecordsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-4")
	require.NoError(t, repo.CreateRun(run))

	failedDraw := sampleRecord(0, false)
	failedDraw.IRR = nil
	withLoan := sampleRecord(1, true)
	withLoan.Loan.MonthsToTarget = intp(14)
	withLoan.Loan.Capped = true
	withLoan.Loan.HitHorizon = false

	require.NoError(t, repo.SaveRecords(run.ID, []*TrajectoryRecord{failedDraw, withLoan}))

	loaded, err := repo.Records(run.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, failedDraw, loaded[0])
	assert.Equal(t, withLoan, loaded[1])

	count, err := repo.RecordCount(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordsPagination(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-5")
	require.NoError(t, repo.CreateRun(run))

	var records []*TrajectoryRecord
	for i := 0; i < 5; i++ {
		records = append(records, sampleRecord(i, false))
	}
	require.NoError(t, repo.SaveRecords(run.ID, records))

	page, err := repo.Records(run.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].DrawIndex)
	assert.Equal(t, 3, page[1].DrawIndex)

	tail, err := repo.Records(run.ID, 4, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, 4, tail[0].DrawIndex)

	all, err := repo.Records(run.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRecordCountEmptyRun(t *testing.T) {
	repo := newTestRepository(t)
	run := storedRun("run-6")
	require.NoError(t, repo.CreateRun(run))

	count, err := repo.RecordCount(run.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func intp(v int) *int { return &v }
