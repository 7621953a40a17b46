package engine

/*------------------------------------------------------------------
 *
 * Purpose: Windowed RMS power follower used by the stealer to judge
 * how audible a candidate voice currently is.
 *
 * Grounded on: original_source/src/sfizz/PowerFollower.cpp.
 *
 *------------------------------------------------------------------*/

import "math"

// PowerFollower maintains a running mean-square estimate over a fixed time
// window using a single-pole leaky integrator, cheap enough to update once
// per render block per voice.
type PowerFollower struct {
	coeff  float64
	meanSq float64
}

// NewPowerFollower builds a follower with the given window length in
// seconds and the engine's block size/sample rate, used to derive the
// update coefficient (one update per block).
func NewPowerFollower(windowSeconds float64, sampleRate float64, blockSize int) *PowerFollower {
	blockSeconds := float64(blockSize) / sampleRate
	if windowSeconds <= 0 {
		windowSeconds = 0.1
	}

	return &PowerFollower{coeff: 1 - math.Exp(-blockSeconds/windowSeconds)}
}

// Update folds one block's worth of samples into the running estimate and
// returns the new smoothed mean-square power.
func (p *PowerFollower) Update(block []float32) float64 {
	var sumSq float64

	for _, s := range block {
		sumSq += float64(s) * float64(s)
	}

	if len(block) > 0 {
		sumSq /= float64(len(block))
	}

	p.meanSq += (sumSq - p.meanSq) * p.coeff

	return p.meanSq
}

// Power returns the current smoothed mean-square power without updating.
func (p *PowerFollower) Power() float64 { return p.meanSq }

// Reset clears the follower to silence, used when a voice starts a new note.
func (p *PowerFollower) Reset() {
	p.meanSq = 0
}
