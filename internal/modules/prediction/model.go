// Package prediction builds the historical spend-to-revenue ratio model and
// samples synthetic 12-month spend trajectories from it.
package prediction

import (
	"fmt"
	"math"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
)

// Mode selects how aggressively the model treats the historical evidence
type Mode string

const (
	ModeConservative Mode = "conservative"
	ModeAggressive   Mode = "aggressive"
)

// ParseMode validates a mode string, defaulting to conservative when empty
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeConservative, ModeAggressive:
		return Mode(s), nil
	case "":
		return ModeConservative, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want conservative or aggressive)", s)
	}
}

// ratioCeiling bounds usable historical ratios. Only ratios below it enter
// the pool; anything above it counts as a degenerate "spend bought nothing"
// month.
const ratioCeiling = 10000.0

// MonthRatio is one month's observed spend/revenue ratio. Ratio is nil when
// the month had no positive revenue.
type MonthRatio struct {
	Month string   `json:"month"`
	Ratio *float64 `json:"ratio"`
}

// Model is the immutable ratio distribution built from the historical series.
// Sampling draws from it concurrently without mutation.
type Model struct {
	Mode            Mode         `json:"mode"`
	HeadsPercentage float64      `json:"headsPercentage"`
	HeadsOverall    float64      `json:"headsOverall"`
	HeadsLast12     float64      `json:"headsLast12"`
	Pool            []float64    `json:"pool"`
	ReferenceCAC    float64      `json:"referenceCac"`
	CAC             CACBreakdown `json:"cac"`
	LastMonth       string       `json:"lastMonth"`
	LastSpend       float64      `json:"lastSpend"`
	MonthlyRatios   []MonthRatio `json:"monthlyRatios"`
}

// BuildModel derives the ratio model from the historical series. The heads
// percentage is the share of months whose ratio is undefined, non-finite, or
// above the ceiling; conservative mode takes the worse of the full history
// and the last 12 months.
func BuildModel(series *datasets.HistoricalSeries, mode Mode) (*Model, error) {
	months := series.Months()
	if len(months) == 0 {
		return nil, fmt.Errorf("no historical months available")
	}

	monthly := make([]MonthRatio, 0, len(months))
	var pool []float64
	for _, month := range months {
		spend := series.Spend[month]
		revenue := series.Revenue[month]

		entry := MonthRatio{Month: month}
		if revenue > 0 {
			ratio := spend / revenue
			entry.Ratio = &ratio
			if ratio < ratioCeiling {
				pool = append(pool, ratio)
			}
		}
		monthly = append(monthly, entry)
	}

	headsOverall := headsFraction(monthly)
	last12 := monthly
	if len(last12) > 12 {
		last12 = last12[len(last12)-12:]
	}
	headsLast12 := headsFraction(last12)

	heads := headsOverall
	if mode == ModeConservative {
		heads = math.Max(headsOverall, headsLast12)
	}

	lastMonth, lastSpend, ok := lastRecordedSpend(series)
	if !ok {
		return nil, fmt.Errorf("no months with recorded spend")
	}

	cac := ReferenceCAC(series)

	return &Model{
		Mode:            mode,
		HeadsPercentage: heads,
		HeadsOverall:    headsOverall,
		HeadsLast12:     headsLast12,
		Pool:            pool,
		ReferenceCAC:    cac.Reference,
		CAC:             cac,
		LastMonth:       lastMonth,
		LastSpend:       lastSpend,
		MonthlyRatios:   monthly,
	}, nil
}

// headsFraction is the share of entries with an unusable ratio
func headsFraction(entries []MonthRatio) float64 {
	if len(entries) == 0 {
		return 0
	}
	heads := 0
	for _, entry := range entries {
		if entry.Ratio == nil || math.IsNaN(*entry.Ratio) || math.IsInf(*entry.Ratio, 0) || *entry.Ratio > ratioCeiling {
			heads++
		}
	}
	return float64(heads) / float64(len(entries))
}

// lastRecordedSpend finds the chronologically last month with recorded spend
func lastRecordedSpend(series *datasets.HistoricalSeries) (string, float64, bool) {
	months := make([]string, 0, len(series.Spend))
	for month := range series.Spend {
		months = append(months, month)
	}
	if len(months) == 0 {
		return "", 0, false
	}
	datasets.SortMonthLabels(months)
	last := months[len(months)-1]
	return last, series.Spend[last], true
}
