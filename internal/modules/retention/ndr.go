package retention

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/pkg/formulas"
)

// ndrBaseOffset is the trailing window: NDR compares revenue against the
// value 12 columns earlier.
const ndrBaseOffset = 12

// NDRPoint is one trailing-12-month net dollar retention observation,
// tagged with the ending column it was measured at.
type NDRPoint struct {
	EndColumn int     `json:"endColumn"`
	Label     string  `json:"label"`
	NDR       float64 `json:"ndr"`
}

// FloorResult carries the monthly sampling floor and the NDR observations
// behind it. Defaulted is set when no valid observation existed and the
// floor fell back to 1.0.
type FloorResult struct {
	Floor     float64    `json:"floor"`
	MinNDR    float64    `json:"minNdr"`
	Points    []NDRPoint `json:"points"`
	Defaulted bool       `json:"defaulted"`
}

// NDRSeries walks the cohort revenue arrays and produces the NDR observation
// for every ending column from 12 up to the last column of the oldest cohort,
// in chronological order. For each ending column the two oldest cohorts
// contribute their revenue at that column; every younger cohort steps one
// column back per row (comparing each cohort at a comparable age) while the
// column stays at or beyond the trailing window. Observations with a
// non-positive base are skipped.
func NDRSeries(cohorts [][]float64) []NDRPoint {
	if len(cohorts) == 0 {
		return nil
	}

	lastColumn := len(cohorts[0]) - 1
	var points []NDRPoint
	for endCol := ndrBaseOffset; endCol <= lastColumn; endCol++ {
		var numerator, denominator float64

		addCohort := func(row, col int) {
			revenue := cohorts[row]
			if col < len(revenue) {
				numerator += revenue[col]
			}
			if col-ndrBaseOffset < len(revenue) {
				denominator += revenue[col-ndrBaseOffset]
			}
		}

		addCohort(0, endCol)
		if len(cohorts) > 1 {
			addCohort(1, endCol)
		}
		for row, col := 2, endCol-1; row < len(cohorts) && col >= ndrBaseOffset; row, col = row+1, col-1 {
			addCohort(row, col)
		}

		if denominator > 0 {
			points = append(points, NDRPoint{
				EndColumn: endCol,
				Label:     fmt.Sprintf("M%d", endCol+1),
				NDR:       numerator / denominator,
			})
		}
	}
	return points
}

// CalculateNDRFloor derives the monthly retention floor used to dampen
// sampled multipliers: the 12th root of the worst observed NDR. Without any
// valid observation the floor defaults to 1.0.
func CalculateNDRFloor(cohorts [][]float64, log zerolog.Logger) FloorResult {
	points := NDRSeries(cohorts)
	if len(points) == 0 {
		log.Warn().Msg("No valid NDR observations, using default floor of 1.0")
		return FloorResult{Floor: 1.0, Defaulted: true}
	}

	minNDR := points[0].NDR
	for _, point := range points[1:] {
		if point.NDR < minNDR {
			minNDR = point.NDR
		}
	}

	return FloorResult{
		Floor:  math.Pow(minNDR, 1.0/12.0),
		MinNDR: minNDR,
		Points: points,
	}
}

// EvolutionStats summarizes an NDR series for display
type EvolutionStats struct {
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Median            float64 `json:"median"`
	MonthlyEquivalent float64 `json:"monthlyEquivalent"`
}

// Evolution is the chronological NDR series with its summary statistics
type Evolution struct {
	Points []NDRPoint     `json:"points"`
	Stats  EvolutionStats `json:"stats"`
}

// NDREvolution produces the diagnostic NDR evolution for display. The floor
// consumed by sampling stays min-based; the median here only describes the
// series.
func NDREvolution(cohorts [][]float64) Evolution {
	points := NDRSeries(cohorts)
	if len(points) == 0 {
		return Evolution{}
	}

	values := make([]float64, len(points))
	for i, point := range points {
		values[i] = point.NDR
	}
	median := formulas.Median(values)

	return Evolution{
		Points: points,
		Stats: EvolutionStats{
			Min:               formulas.Min(values),
			Max:               formulas.Max(values),
			Median:            median,
			MonthlyEquivalent: math.Pow(median, 1.0/12.0),
		},
	}
}
