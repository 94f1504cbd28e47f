package retention

import (
	"math"
	"math/rand"
)

// curveLength is the simulated retention horizon in months
const curveLength = 60

// wideningTiers maps a column's observation count to how many non-empty
// neighbor columns it borrows from each side. Sparse columns borrow more.
var wideningTiers = []struct {
	minCount int
	widening int
}{
	{12, 1},
	{5, 2},
	{2, 3},
	{0, 5},
}

// CurveSampler draws synthetic 60-month retention curves from the table.
// In conservative mode, sampled multipliers above max(1, floor) are averaged
// back toward that bound. The sampler is immutable; all randomness comes from
// the caller's generator, so concurrent draws with distinct generators are
// safe and reproducible.
type CurveSampler struct {
	table        *Table
	floor        float64
	conservative bool
}

// NewCurveSampler creates a sampler over the table with the NDR floor
func NewCurveSampler(table *Table, floor float64, conservative bool) *CurveSampler {
	return &CurveSampler{table: table, floor: floor, conservative: conservative}
}

// SampleCurve draws one 60-month curve. Columns whose pool is empty stay nil.
func (s *CurveSampler) SampleCurve(rng *rand.Rand) []*float64 {
	curve := make([]*float64, curveLength)
	for col := 0; col < curveLength; col++ {
		pool := s.columnPool(col)
		if len(pool) == 0 {
			continue
		}

		chosen := pool[rng.Intn(len(pool))]
		if s.conservative {
			bound := math.Max(1, s.floor)
			if chosen > bound {
				chosen = (bound + chosen) / 2
			}
		}
		curve[col] = &chosen
	}
	return curve
}

// columnPool gathers the column's own observations plus every value from its
// selected neighbor columns. Values keep their multiplicity; nothing is
// deduplicated.
func (s *CurveSampler) columnPool(col int) []float64 {
	base := s.table.ObservedColumn(col)
	widening := wideningFor(len(base))

	pool := append([]float64{}, base...)
	for _, c := range s.nonEmptyNeighbors(col, -1, widening) {
		pool = append(pool, s.table.ObservedColumn(c)...)
	}
	for _, c := range s.nonEmptyNeighbors(col, +1, widening) {
		pool = append(pool, s.table.ObservedColumn(c)...)
	}
	return pool
}

// wideningFor picks the neighbor quota for an observation count
func wideningFor(count int) int {
	for _, tier := range wideningTiers {
		if count >= tier.minCount {
			return tier.widening
		}
	}
	return wideningTiers[len(wideningTiers)-1].widening
}

// nonEmptyNeighbors walks outward from col in one direction, skipping empty
// columns, until the quota is met or the curve bounds are exhausted.
func (s *CurveSampler) nonEmptyNeighbors(col, direction, quota int) []int {
	var cols []int
	for c := col + direction; c >= 0 && c < curveLength && len(cols) < quota; c += direction {
		if len(s.table.ObservedColumn(c)) > 0 {
			cols = append(cols, c)
		}
	}
	return cols
}
