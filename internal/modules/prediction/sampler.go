package prediction

import (
	"math"
	"math/rand"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
)

const (
	// forecastMonths is the length of every sampled trajectory
	forecastMonths = 12
	// spendGrowthRate assumes spend grows 10% month over month
	spendGrowthRate = 1.1
)

// Trajectory is one sampled 12-month spend path with its drawn ratios and the
// implied new revenue per month.
type Trajectory struct {
	Months  []string  `json:"months"`
	Spend   []float64 `json:"spend"`
	Ratio   []float64 `json:"ratio"`
	Revenue []float64 `json:"revenue"`
}

// Sampler draws independent spend trajectories from a built model. It holds
// no mutable state; every randomness source is the caller's, so draws are
// reproducible and safe to run concurrently with distinct generators.
type Sampler struct {
	model  *Model
	months []string
}

// NewSampler creates a sampler for the model
func NewSampler(model *Model) *Sampler {
	return &Sampler{
		model:  model,
		months: datasets.ForwardMonths(model.LastMonth, forecastMonths),
	}
}

// Draw samples one trajectory. For each forecast month the spend compounds at
// 10%; a heads draw yields the degenerate ratio (ratio = spend, so the month
// buys one unit of revenue), a tails draw picks from the historical pool. In
// conservative mode a drawn ratio cheaper than the reference CAC only applies
// to the baseline spend level; the incremental spend converts at the
// reference CAC.
func (s *Sampler) Draw(rng *rand.Rand) Trajectory {
	t := Trajectory{
		Months:  s.months,
		Spend:   make([]float64, forecastMonths),
		Ratio:   make([]float64, forecastMonths),
		Revenue: make([]float64, forecastMonths),
	}

	model := s.model
	for i := 0; i < forecastMonths; i++ {
		spend := model.LastSpend * math.Pow(spendGrowthRate, float64(i+1))

		var ratio float64
		switch {
		case rng.Float64() < model.HeadsPercentage:
			ratio = spend
		case len(model.Pool) > 0:
			drawn := model.Pool[rng.Intn(len(model.Pool))]
			ratio = drawn
			if model.Mode == ModeConservative && drawn < model.ReferenceCAC &&
				drawn > 0 && spend > model.LastSpend {
				ratio = spend / (model.LastSpend/drawn + (spend-model.LastSpend)/model.ReferenceCAC)
			}
		default:
			ratio = model.ReferenceCAC
		}

		revenue := 0.0
		if ratio > 0 {
			revenue = spend / ratio
		}

		t.Spend[i] = spend
		t.Ratio[i] = ratio
		t.Revenue[i] = revenue
	}

	return t
}
