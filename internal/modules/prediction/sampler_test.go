package prediction

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
)

func testModel(mode Mode) *Model {
	return &Model{
		Mode:            mode,
		HeadsPercentage: 0.3,
		Pool:            []float64{2, 5, 40},
		ReferenceCAC:    10,
		LastMonth:       "December 2024",
		LastSpend:       1000,
	}
}

func TestDrawIsDeterministicPerSeed(t *testing.T) {
	sampler := NewSampler(testModel(ModeConservative))

	a := sampler.Draw(rand.New(rand.NewSource(42)))
	b := sampler.Draw(rand.New(rand.NewSource(42)))

	assert.Equal(t, a, b)
}

func TestDrawSpendCompoundsMonthly(t *testing.T) {
	sampler := NewSampler(testModel(ModeConservative))
	trajectory := sampler.Draw(rand.New(rand.NewSource(1)))

	require.Len(t, trajectory.Spend, 12)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, 1000*math.Pow(1.1, float64(i+1)), trajectory.Spend[i], 1e-9)
	}
}

func TestDrawForecastMonthLabels(t *testing.T) {
	sampler := NewSampler(testModel(ModeConservative))
	trajectory := sampler.Draw(rand.New(rand.NewSource(1)))

	require.Len(t, trajectory.Months, 12)
	assert.Equal(t, "January 2025", trajectory.Months[0])
	assert.Equal(t, "December 2025", trajectory.Months[11])
}

func TestDrawAllHeadsYieldsUnitRevenue(t *testing.T) {
	model := testModel(ModeConservative)
	model.HeadsPercentage = 1.0
	sampler := NewSampler(model)

	trajectory := sampler.Draw(rand.New(rand.NewSource(7)))

	for i := 0; i < 12; i++ {
		// Heads months convert the whole spend into one unit of revenue
		assert.InDelta(t, trajectory.Spend[i], trajectory.Ratio[i], 1e-9)
		assert.InDelta(t, 1, trajectory.Revenue[i], 1e-9)
	}
}

func TestDrawEmptyPoolFallsBackToReferenceCAC(t *testing.T) {
	model := testModel(ModeConservative)
	model.HeadsPercentage = 0
	model.Pool = nil
	sampler := NewSampler(model)

	trajectory := sampler.Draw(rand.New(rand.NewSource(7)))

	for i := 0; i < 12; i++ {
		assert.InDelta(t, 10, trajectory.Ratio[i], 1e-9)
		assert.InDelta(t, trajectory.Spend[i]/10, trajectory.Revenue[i], 1e-9)
	}
}

func TestDrawConservativeBlendsCheapRatios(t *testing.T) {
	model := testModel(ModeConservative)
	model.HeadsPercentage = 0
	model.Pool = []float64{2} // cheaper than the reference CAC of 10
	sampler := NewSampler(model)

	trajectory := sampler.Draw(rand.New(rand.NewSource(7)))

	// Month 1: spend 1100, baseline 1000 converts at 2, the extra 100 at 10
	expected := 1100.0 / (1000.0/2.0 + 100.0/10.0)
	assert.InDelta(t, expected, trajectory.Ratio[0], 1e-9)
	assert.Less(t, trajectory.Ratio[0], model.ReferenceCAC)
	assert.Greater(t, trajectory.Ratio[0], 2.0)
}

func TestDrawAggressiveKeepsDrawnRatio(t *testing.T) {
	model := testModel(ModeAggressive)
	model.HeadsPercentage = 0
	model.Pool = []float64{2}
	sampler := NewSampler(model)

	trajectory := sampler.Draw(rand.New(rand.NewSource(7)))

	for i := 0; i < 12; i++ {
		assert.InDelta(t, 2, trajectory.Ratio[i], 1e-9)
	}
}

func TestDrawZeroRatioYieldsZeroRevenue(t *testing.T) {
	model := testModel(ModeAggressive)
	model.HeadsPercentage = 0
	model.Pool = []float64{0}
	sampler := NewSampler(model)

	trajectory := sampler.Draw(rand.New(rand.NewSource(7)))

	for i := 0; i < 12; i++ {
		assert.InDelta(t, 0, trajectory.Ratio[i], 1e-9)
		assert.InDelta(t, 0, trajectory.Revenue[i], 1e-9)
	}
}

func TestDrawFromTwoMonthHistory(t *testing.T) {
	series := &datasets.HistoricalSeries{
		Spend: map[string]float64{
			"March 2024": 150000,
			"April 2024": 180000,
		},
		Revenue: map[string]float64{
			"March 2024": 300000,
			"April 2024": 200000,
		},
	}
	model, err := BuildModel(series, ModeConservative)
	require.NoError(t, err)
	assert.Zero(t, model.HeadsPercentage)
	assert.Equal(t, 180000.0, model.LastSpend)

	trajectory := NewSampler(model).Draw(rand.New(rand.NewSource(3)))

	require.Len(t, trajectory.Spend, 12)
	assert.InDelta(t, 198000, trajectory.Spend[0], 1e-6)
	for i := 0; i < 12; i++ {
		assert.Greater(t, trajectory.Spend[i], 0.0)
		if i > 0 {
			assert.Greater(t, trajectory.Spend[i], trajectory.Spend[i-1])
		}
		// Both historical ratios are defined (0.5 and 0.9), so every sampled
		// ratio lands between them, blended or not
		assert.GreaterOrEqual(t, trajectory.Ratio[i], 0.5)
		assert.LessOrEqual(t, trajectory.Ratio[i], 0.9)
		assert.Greater(t, trajectory.Revenue[i], 0.0)
	}
}
