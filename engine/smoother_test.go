package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherConvergesToTarget(t *testing.T) {
	s := NewSmoother(DefaultSmoothingMs, 48000, 64)
	s.SetTarget(1.0)

	var last float64
	for i := 0; i < 10000; i++ {
		last = s.Tick()
	}

	assert.InDelta(t, 1.0, last, 1e-6)
}

func TestSmootherFirstTargetPrimesImmediately(t *testing.T) {
	s := NewSmoother(DefaultSmoothingMs, 48000, 64)
	s.SetTarget(0.5)

	assert.InDelta(t, 0.5, s.Value(), 1e-9, "first SetTarget should prime value with no ramp")
}

func TestSmootherResetSnapsWithNoTail(t *testing.T) {
	s := NewSmoother(DefaultSmoothingMs, 48000, 64)
	s.SetTarget(1.0)
	s.Tick()
	s.Tick()

	s.Reset(0.2)

	assert.InDelta(t, 0.2, s.Value(), 1e-9)

	// Ticking with no new target should hold steady, not resume the old ramp.
	assert.InDelta(t, 0.2, s.Tick(), 1e-9)
}

func TestQuantizeStepRoundsToNearestMultiple(t *testing.T) {
	assert.InDelta(t, 100.0, QuantizeStep(83, 50), 1e-9)
	assert.InDelta(t, 50.0, QuantizeStep(74, 50), 1e-9)
	assert.InDelta(t, 83.0, QuantizeStep(83, 0), 1e-9, "step<=0 disables quantization")
}
