package engine

/*------------------------------------------------------------------
 *
 * Purpose: Parametric peaking EQ chain, separate from the filter
 * chain so a region can combine a resonant filter with one or more
 * fixed-Q tone-shaping bands, matching the distinct eqN_ and fegN_
 * opcode families.
 *
 *------------------------------------------------------------------*/

import "math"

// EQType is the closed set of supported EQ band shapes.
type EQType int

const (
	EQPeak EQType = iota
	EQLowShelf
	EQHighShelf
	EQNotch
	EQLowPass
	EQHighPass
)

// EQBand is one live instance of an EQDescription: stereo biquad state plus
// cached coefficients, recomputed at the control rate.
type EQBand struct {
	desc EQDescription

	coeffs biquadCoeffs
	left, right biquadState

	lastCenter, lastBandwidth, lastGain float64
	primed                              bool

	sampleRate float64
}

// NewEQBand builds one EQ band at the engine's sample rate.
func NewEQBand(desc EQDescription, sampleRate float64) *EQBand {
	return &EQBand{desc: desc, sampleRate: sampleRate}
}

// UpdateCoefficients recomputes coefficients if center/bandwidth/gain moved
// enough since the previous control-rate tick.
func (b *EQBand) UpdateCoefficients(center, bandwidthOctaves, gainDB float64) {
	if b.primed &&
		relClose(center, b.lastCenter) &&
		relClose(bandwidthOctaves, b.lastBandwidth) &&
		relClose(gainDB, b.lastGain) {
		return
	}

	b.coeffs = computeEQBiquad(b.desc.Type, center, bandwidthOctaves, gainDB, b.sampleRate)
	b.lastCenter, b.lastBandwidth, b.lastGain = center, bandwidthOctaves, gainDB
	b.primed = true
}

// ProcessStereo filters n frames in place.
func (b *EQBand) ProcessStereo(left, right []float32, n int) {
	for i := 0; i < n; i++ {
		left[i] = float32(b.left.process(b.coeffs, float64(left[i])))
		right[i] = float32(b.right.process(b.coeffs, float64(right[i])))
	}
}

func computeEQBiquad(t EQType, center, bandwidthOctaves, gainDB, sampleRate float64) biquadCoeffs {
	if center <= 0 {
		center = 1000
	}

	if center > sampleRate/2*0.999 {
		center = sampleRate / 2 * 0.999
	}

	if bandwidthOctaves <= 0 {
		bandwidthOctaves = 1
	}

	omega := 2 * math.Pi * center / sampleRate
	sn, cs := math.Sin(omega), math.Cos(omega)
	alpha := sn * math.Sinh(math.Ln2/2*bandwidthOctaves*omega/sn)
	A := math.Pow(10, gainDB/40)

	switch t {
	case EQPeak:
		b0 := 1 + alpha*A
		b1 := -2 * cs
		b2 := 1 - alpha*A
		a0 := 1 + alpha/A
		a1 := -2 * cs
		a2 := 1 - alpha/A

		return normalize(b0, b1, b2, a0, a1, a2)
	case EQNotch:
		b0 := 1.0
		b1 := -2 * cs
		b2 := 1.0
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case EQLowShelf:
		return computeBiquad(FilterLowShelf, center, 0.707, gainDB, sampleRate)
	case EQHighShelf:
		return computeBiquad(FilterHighShelf, center, 0.707, gainDB, sampleRate)
	case EQLowPass:
		return computeBiquad(FilterLPF2P, center, 0.707, 0, sampleRate)
	case EQHighPass:
		return computeBiquad(FilterHPF2P, center, 0.707, 0, sampleRate)
	default:
		return biquadCoeffs{b0: 1}
	}
}

// EffectiveCenter applies the description's velocity-to-frequency
// contribution, expressed as an octave multiplier per unit velocity.
func (d EQDescription) EffectiveCenter(velocity float64) float64 {
	return d.Center * math.Pow(2, d.VelToFreq*velocity)
}

// EffectiveGain applies the description's velocity-to-gain contribution.
func (d EQDescription) EffectiveGain(velocity float64) float64 {
	return d.Gain + d.VelToGain*velocity
}
