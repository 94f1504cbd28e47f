package simulation

import "github.com/fathomcap/underwriter/pkg/formulas"

// ratioThresholds are the spend-to-revenue levels the threshold table
// reports. A ratio above 10000 means the month's spend bought essentially no
// revenue.
var ratioThresholds = []float64{20, 30, 40, 50, 60, 70, 80, 90, 100, 200, 500, 1000, 5000, 10000}

// ThresholdShare is the percent of sampled ratios strictly above a level.
type ThresholdShare struct {
	Threshold float64 `json:"threshold"`
	Share     float64 `json:"share"`
}

// BatchStats summarizes the pooled predicted-ratio values of a run, twelve
// per trajectory.
type BatchStats struct {
	Count      int              `json:"count"`
	Mean       float64          `json:"mean"`
	Median     float64          `json:"median"`
	Min        float64          `json:"min"`
	Max        float64          `json:"max"`
	Range      float64          `json:"range"`
	P25        float64          `json:"p25"`
	P75        float64          `json:"p75"`
	P90        float64          `json:"p90"`
	P95        float64          `json:"p95"`
	P99        float64          `json:"p99"`
	Thresholds []ThresholdShare `json:"thresholds"`
}

// CalculateBatchStats computes the ratio distribution of a run. The median is
// the lower-middle element of the sorted pool, and percentiles are index
// lookups, so every reported value is an actually-sampled ratio.
func CalculateBatchStats(ratios []float64) *BatchStats {
	if len(ratios) == 0 {
		return &BatchStats{}
	}

	sorted := formulas.SortedCopy(ratios)
	stats := &BatchStats{
		Count:  len(ratios),
		Mean:   formulas.Mean(ratios),
		Median: formulas.LowerMedian(ratios),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    formulas.PercentileIndex(sorted, 0.25),
		P75:    formulas.PercentileIndex(sorted, 0.75),
		P90:    formulas.PercentileIndex(sorted, 0.90),
		P95:    formulas.PercentileIndex(sorted, 0.95),
		P99:    formulas.PercentileIndex(sorted, 0.99),
	}
	stats.Range = stats.Max - stats.Min

	stats.Thresholds = make([]ThresholdShare, len(ratioThresholds))
	for i, threshold := range ratioThresholds {
		above := 0
		for _, ratio := range ratios {
			if ratio > threshold {
				above++
			}
		}
		stats.Thresholds[i] = ThresholdShare{
			Threshold: threshold,
			Share:     float64(above) / float64(len(ratios)) * 100,
		}
	}
	return stats
}
