package lending

import "math"

// lossBands are the percent-loss bands of the loss distribution. The last
// band catches trajectories that lost more than the full loan, which the
// amortizer cannot produce on its own but aggregated portfolios can.
var lossBands = []struct {
	min, max float64
	label    string
}{
	{0, 10, "0-10%"},
	{10, 20, "10-20%"},
	{20, 30, "20-30%"},
	{30, 40, "30-40%"},
	{40, 50, "40-50%"},
	{50, 60, "50-60%"},
	{60, 70, "60-70%"},
	{70, 80, "70-80%"},
	{80, 90, "80-90%"},
	{90, 100, "90-100%"},
	{100, math.Inf(1), "100%+"},
}

// LossBucket counts the trajectories whose return on investment fell inside
// one loss band.
type LossBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LossDistribution buckets losing trajectories by the size of their loss. A
// trajectory with ROI of -25% lands in the "20-30%" band; anything below
// -100% lands in the terminal band.
func LossDistribution(results []*CapResult) []LossBucket {
	buckets := make([]LossBucket, len(lossBands))
	for i, band := range lossBands {
		buckets[i].Label = band.label
	}

	for _, r := range results {
		roi := roiPercent(r)
		for i, band := range lossBands {
			if math.IsInf(band.max, 1) {
				if roi < -band.min {
					buckets[i].Count++
				}
			} else if roi >= -band.max && roi < -band.min {
				buckets[i].Count++
			}
		}
	}
	return buckets
}

// PositiveReturnRate returns the percent share of trajectories that returned
// more than their loan amount.
func PositiveReturnRate(results []*CapResult) float64 {
	if len(results) == 0 {
		return 0
	}
	positive := 0
	for _, r := range results {
		if r.NetReturn > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(results)) * 100
}

// roiPercent is the trajectory's net return as a percent of its loan amount.
func roiPercent(r *CapResult) float64 {
	if r.LoanAmount <= 0 {
		return 0
	}
	return r.NetReturn / r.LoanAmount * 100
}
