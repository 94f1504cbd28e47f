package datasets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMonthLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"abbreviated month", "Jan 24", "January 2024"},
		{"abbreviated december", "Dec 23", "December 2023"},
		{"already normalized", "January 2024", "January 2024"},
		{"four letter abbreviation passes through", "Sept 24", "Sept 24"},
		{"unabbreviated short label passes through", "June 24", "June 24"},
		{"surrounding whitespace trimmed", "  Mar 25  ", "March 2025"},
		{"non month label", "Older Cohorts", "Older Cohorts"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMonthLabel(tt.input))
		})
	}
}

func TestMonthSortKey(t *testing.T) {
	key := MonthSortKey("March 2024")
	assert.Equal(t, 2024, key.Year())
	assert.Equal(t, time.March, key.Month())

	// Unparseable labels sort before any real month
	fallback := MonthSortKey("not a month")
	assert.Equal(t, 1900, fallback.Year())
	assert.True(t, fallback.Before(MonthSortKey("January 1950")))
}

func TestSortMonthLabels(t *testing.T) {
	labels := []string{"March 2024", "December 2023", "January 2024"}
	SortMonthLabels(labels)
	assert.Equal(t, []string{"December 2023", "January 2024", "March 2024"}, labels)
}

func TestForwardMonths(t *testing.T) {
	months := ForwardMonths("November 2023", 3)
	assert.Equal(t, []string{"December 2023", "January 2024", "February 2024"}, months)

	assert.Empty(t, ForwardMonths("November 2023", 0))
}
