package prediction

import (
	"math"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
)

// CACBreakdown reports the acquisition-cost components behind the reference
// CAC. Marginal is nil when fewer than 24 months of history exist.
type CACBreakdown struct {
	Trailing12 float64  `json:"trailing12"`
	Marginal   *float64 `json:"marginal"`
	Reference  float64  `json:"reference"`
}

// ReferenceCAC computes the reference acquisition cost for conservative
// blending. Trailing-12 CAC = total spend over total new revenue in the last
// 12 months. With at least 24 months of history the marginal CAC (spend delta
// over revenue delta between the two most recent 12-month windows) is
// computed too, and the reference is the worse of the two.
//
// Formula: trailing12 = Σspend(last12) / Σrevenue(last12), 0 if the
// denominator is not positive; marginal = Δspend / Δrevenue on the same rule.
func ReferenceCAC(series *datasets.HistoricalSeries) CACBreakdown {
	months := series.Months()

	last12 := months
	if len(last12) > 12 {
		last12 = last12[len(last12)-12:]
	}
	trailing12 := windowCAC(series, last12)

	breakdown := CACBreakdown{
		Trailing12: trailing12,
		Reference:  trailing12,
	}

	if len(months) >= 24 {
		prev12 := months[len(months)-24 : len(months)-12]
		var spendDelta, revenueDelta float64
		for _, month := range last12 {
			spendDelta += series.Spend[month]
			revenueDelta += series.Revenue[month]
		}
		for _, month := range prev12 {
			spendDelta -= series.Spend[month]
			revenueDelta -= series.Revenue[month]
		}

		marginal := 0.0
		if revenueDelta > 0 {
			marginal = spendDelta / revenueDelta
		}
		breakdown.Marginal = &marginal
		breakdown.Reference = math.Max(trailing12, marginal)
	}

	return breakdown
}

// windowCAC computes aggregate spend over aggregate revenue for a month window
func windowCAC(series *datasets.HistoricalSeries, window []string) float64 {
	var spend, revenue float64
	for _, month := range window {
		spend += series.Spend[month]
		revenue += series.Revenue[month]
	}
	if revenue <= 0 {
		return 0
	}
	return spend / revenue
}
