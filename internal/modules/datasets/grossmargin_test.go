package datasets

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func pnlRow(month string, revenue, cogs float64) PnLRow {
	return PnLRow{Month: month, Revenue: revenue, COGS: cogs}
}

func TestCalculateGrossMarginStableHistory(t *testing.T) {
	rows := []PnLRow{
		pnlRow("January 2024", 100, 30),
		pnlRow("February 2024", 200, 60),
		pnlRow("March 2024", 150, 45),
	}

	breakdown := CalculateGrossMargin(rows, zerolog.Nop())

	// Every month runs at 70%, so all three components agree
	assert.InDelta(t, 0.70, breakdown.GrossMargin, 1e-9)
	assert.InDelta(t, 0.70, breakdown.Overall, 1e-9)
	assert.InDelta(t, 0.70, breakdown.Trailing12, 1e-9)
	assert.InDelta(t, 0.70, breakdown.MedianMonthly, 1e-9)
	assert.False(t, breakdown.Fallback)
}

func TestCalculateGrossMarginRecentSqueezeBindsResult(t *testing.T) {
	// Twelve months at 90% margin followed by twelve at 50%
	months := append([]string{"January 2023"}, ForwardMonths("January 2023", 23)...)
	rows := make([]PnLRow, 0, 24)
	for i, month := range months {
		if i < 12 {
			rows = append(rows, pnlRow(month, 100, 10))
		} else {
			rows = append(rows, pnlRow(month, 100, 50))
		}
	}

	breakdown := CalculateGrossMargin(rows, zerolog.Nop())

	// overall = (2400 - 720) / 2400 = 0.70
	assert.InDelta(t, 0.70, breakdown.Overall, 1e-9)
	// trailing 12 months all run at 50%
	assert.InDelta(t, 0.50, breakdown.Trailing12, 1e-9)
	// median of twelve 0.5s and twelve 0.9s = (0.5 + 0.9) / 2
	assert.InDelta(t, 0.70, breakdown.MedianMonthly, 1e-9)
	// the squeeze binds
	assert.InDelta(t, 0.50, breakdown.GrossMargin, 1e-9)
	assert.False(t, breakdown.Fallback)
}

func TestCalculateGrossMarginIgnoresRowOrder(t *testing.T) {
	chronological := []PnLRow{
		pnlRow("January 2024", 100, 10),
		pnlRow("February 2024", 100, 90),
	}
	shuffled := []PnLRow{chronological[1], chronological[0]}

	a := CalculateGrossMargin(chronological, zerolog.Nop())
	b := CalculateGrossMargin(shuffled, zerolog.Nop())

	assert.Equal(t, a, b)
}

func TestCalculateGrossMarginSkipsUnusableMonths(t *testing.T) {
	rows := []PnLRow{
		pnlRow("January 2024", 100, 40),
		pnlRow("February 2024", 0, 50),    // no revenue
		pnlRow("March 2024", 100, 150),    // negative margin month
		pnlRow("April 2024", 100, 40),
	}

	breakdown := CalculateGrossMargin(rows, zerolog.Nop())

	// median sees only the two 60% months
	assert.InDelta(t, 0.60, breakdown.MedianMonthly, 1e-9)
	// overall = (300 - 280) / 300
	assert.InDelta(t, 20.0/300.0, breakdown.Overall, 1e-9)
	assert.InDelta(t, 20.0/300.0, breakdown.GrossMargin, 1e-9)
	assert.False(t, breakdown.Fallback)
}

func TestCalculateGrossMarginFallback(t *testing.T) {
	breakdown := CalculateGrossMargin(nil, zerolog.Nop())
	assert.InDelta(t, 0.70, breakdown.GrossMargin, 1e-9)
	assert.True(t, breakdown.Fallback)

	// Revenue-free history falls back too
	breakdown = CalculateGrossMargin([]PnLRow{pnlRow("January 2024", 0, 50)}, zerolog.Nop())
	assert.InDelta(t, 0.70, breakdown.GrossMargin, 1e-9)
	assert.True(t, breakdown.Fallback)
}

func TestCalculateGrossMarginIsNotClamped(t *testing.T) {
	// A loss-making aggregate produces a negative margin rather than zero
	rows := []PnLRow{
		pnlRow("January 2024", 100, 150),
		pnlRow("February 2024", 100, 80),
	}

	breakdown := CalculateGrossMargin(rows, zerolog.Nop())

	// overall = (200 - 230) / 200 = -0.15
	assert.InDelta(t, -0.15, breakdown.Overall, 1e-9)
	assert.InDelta(t, -0.15, breakdown.GrossMargin, 1e-9)
	assert.False(t, breakdown.Fallback)
}
