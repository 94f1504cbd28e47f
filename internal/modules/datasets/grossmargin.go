package datasets

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/pkg/formulas"
)

// fallbackGrossMargin applies when the P&L history has no usable revenue
const fallbackGrossMargin = 0.70

// GrossMarginBreakdown carries the component margins alongside the final
// value so callers can see which estimate bound the result.
type GrossMarginBreakdown struct {
	GrossMargin   float64 `json:"grossMargin"`
	Overall       float64 `json:"overall"`
	Trailing12    float64 `json:"trailing12"`
	MedianMonthly float64 `json:"medianMonthly"`
	Fallback      bool    `json:"fallback"`
}

// CalculateGrossMargin derives the gross margin used to convert projected
// revenue into cash flow. It takes the minimum of the overall margin, the
// trailing-12-month margin, and the median of positive monthly margins, so a
// recent margin squeeze is never averaged away. The result is intentionally
// left unclamped.
func CalculateGrossMargin(rows []PnLRow, log zerolog.Logger) GrossMarginBreakdown {
	sorted := make([]PnLRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return MonthSortKey(sorted[i].Month).Before(MonthSortKey(sorted[j].Month))
	})

	overall, overallOK := aggregateMargin(sorted)
	trailing := sorted
	if len(trailing) > 12 {
		trailing = trailing[len(trailing)-12:]
	}
	trailing12, trailingOK := aggregateMargin(trailing)

	var positiveMargins []float64
	for _, row := range sorted {
		if row.Revenue <= 0 {
			continue
		}
		margin := (row.Revenue - row.COGS) / row.Revenue
		if margin > 0 {
			positiveMargins = append(positiveMargins, margin)
		}
	}
	medianMonthly := formulas.Median(positiveMargins)

	if !overallOK || !trailingOK || len(positiveMargins) == 0 {
		log.Warn().
			Int("rows", len(rows)).
			Float64("fallback", fallbackGrossMargin).
			Msg("Insufficient P&L data for gross margin, using fallback")
		return GrossMarginBreakdown{
			GrossMargin:   fallbackGrossMargin,
			Overall:       overall,
			Trailing12:    trailing12,
			MedianMonthly: medianMonthly,
			Fallback:      true,
		}
	}

	return GrossMarginBreakdown{
		GrossMargin:   math.Min(overall, math.Min(trailing12, medianMonthly)),
		Overall:       overall,
		Trailing12:    trailing12,
		MedianMonthly: medianMonthly,
	}
}

// aggregateMargin computes (revenue - cogs) / revenue over summed rows.
// The second return is false when total revenue is not positive.
func aggregateMargin(rows []PnLRow) (float64, bool) {
	var revenue, cogs float64
	for _, row := range rows {
		revenue += row.Revenue
		cogs += row.COGS
	}
	if revenue <= 0 {
		return 0, false
	}
	return (revenue - cogs) / revenue, true
}
