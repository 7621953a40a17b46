package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEQBandPeakOutputIsNotNaN(t *testing.T) {
	const sampleRate = 48000

	b := NewEQBand(EQDescription{Type: EQPeak}, sampleRate)
	b.UpdateCoefficients(1000, 1, 12)

	n := 2000
	left := make([]float32, n)
	right := make([]float32, n)

	for i := range left {
		left[i] = 1
		right[i] = 1
	}

	b.ProcessStereo(left, right, n)

	assert.False(t, left[n-1] != left[n-1], "output must not be NaN")
}

func TestEQBandUpdateCoefficientsSkipsInsignificantDrift(t *testing.T) {
	b := NewEQBand(EQDescription{Type: EQPeak}, 48000)

	b.UpdateCoefficients(1000, 1, 6)
	first := b.coeffs

	b.UpdateCoefficients(1000*(1+coeffEpsilon/10), 1, 6)
	assert.Equal(t, first, b.coeffs)

	b.UpdateCoefficients(4000, 1, 6)
	assert.NotEqual(t, first, b.coeffs)
}

func TestEffectiveCenterAppliesVelocityOctaveShift(t *testing.T) {
	d := EQDescription{Center: 1000, VelToFreq: 1}

	assert.InDelta(t, 1000, d.EffectiveCenter(0), 1e-6)
	assert.InDelta(t, 2000, d.EffectiveCenter(1), 1e-3)
}

func TestEffectiveGainAppliesVelocityOffset(t *testing.T) {
	d := EQDescription{Gain: 3, VelToGain: 6}

	assert.InDelta(t, 3, d.EffectiveGain(0), 1e-9)
	assert.InDelta(t, 9, d.EffectiveGain(1), 1e-9)
}

func TestComputeEQBiquadDefaultTypeIsUnity(t *testing.T) {
	c := computeEQBiquad(EQType(99), 1000, 1, 0, 48000)
	assert.Equal(t, biquadCoeffs{b0: 1}, c)
}
