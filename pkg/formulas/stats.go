package formulas

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of the dataset.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Median returns the middle value of the dataset, averaging the two central
// values when the length is even.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := SortedCopy(data)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// LowerMedian returns the element at index n/2 of the sorted dataset. Unlike
// Median it never interpolates, so the result is always an observed value.
func LowerMedian(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := SortedCopy(data)
	return sorted[len(sorted)/2]
}

// PercentileIndex returns the pct-quantile of an already-sorted dataset using
// index lookup: sorted[int(pct * n)], clamped to the last element.
func PercentileIndex(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(pct * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Min returns the smallest value in the dataset.
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Min(data)
}

// Max returns the largest value in the dataset.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Max(data)
}

// StdDev calculates the sample standard deviation of the dataset.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// SortedCopy returns an ascending-sorted copy, leaving the input untouched.
func SortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}
