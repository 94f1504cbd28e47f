package utils

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer("test_op", zerolog.Nop())
	time.Sleep(5 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 5*time.Millisecond)
}

func TestTimerStopWithContext(t *testing.T) {
	timer := NewTimer("test_op", zerolog.Nop())

	duration := timer.StopWithContext(map[string]interface{}{
		"rows":    42,
		"dataset": "pnl",
		"partial": false,
		"ratio":   0.5,
		"count":   int64(7),
		"other":   []string{"x"},
	})
	assert.GreaterOrEqual(t, duration, time.Duration(0))
}

func TestOperationTimer(t *testing.T) {
	done := OperationTimer("test_op", zerolog.Nop())
	assert.NotPanics(t, done)
}
