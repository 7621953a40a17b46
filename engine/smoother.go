package engine

/*------------------------------------------------------------------
 *
 * Purpose: One-pole smoothing and step quantization for per-CC
 * modulation chains and for gain/bend/crossfade
 * smoothing on the voice.
 *
 * Grounded on: original_source/src/sfizz/Smoothers.cpp and
 * EventEnvelopes.cpp (smoothing + curve + quantization chain).
 *
 *------------------------------------------------------------------*/

import "math"

// DefaultSmoothingMs is the default one-pole time constant for per-CC
// modulation smoothing.
const DefaultSmoothingMs = 3.0

// Smoother is a one-pole lowpass filter on a scalar control value, recomputed
// once per control-rate tick rather than per sample.
type Smoother struct {
	coeff  float64
	target float64
	value  float64
	primed bool
}

// NewSmoother builds a smoother for the given time constant (ms) at the
// given control-rate update interval (samples), e.g. 16 for the filter
// cutoff control rate.
func NewSmoother(timeConstantMs float64, sampleRate float64, controlInterval int) *Smoother {
	s := &Smoother{}
	s.SetTimeConstant(timeConstantMs, sampleRate, controlInterval)

	return s
}

// SetTimeConstant recomputes the one-pole coefficient.
func (s *Smoother) SetTimeConstant(timeConstantMs, sampleRate float64, controlInterval int) {
	if timeConstantMs <= 0 {
		s.coeff = 1
		return
	}

	tau := timeConstantMs / 1000.0
	dt := float64(controlInterval) / sampleRate
	s.coeff = 1 - math.Exp(-dt/tau)
}

// SetTarget sets the value the smoother will converge toward.
func (s *Smoother) SetTarget(v float64) {
	s.target = v

	if !s.primed {
		s.value = v
		s.primed = true
	}
}

// Tick advances the smoother by one control-rate step and returns the new
// value.
func (s *Smoother) Tick() float64 {
	s.value += (s.target - s.value) * s.coeff

	return s.value
}

// Value returns the current smoothed value without advancing.
func (s *Smoother) Value() float64 { return s.value }

// Reset snaps the smoother immediately to v, used on voice start so a new
// note doesn't inherit the previous note's smoothing tail.
func (s *Smoother) Reset(v float64) {
	s.value = v
	s.target = v
	s.primed = true
}

// QuantizeStep rounds v to the nearest multiple of step (e.g. bend_step
// cents quantization). step <= 0 disables quantization.
func QuantizeStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}

	return math.Round(v/step) * step
}
