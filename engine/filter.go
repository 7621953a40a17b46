package engine

/*------------------------------------------------------------------
 *
 * Purpose: Per-voice multimode filter chain. The closed set of filter
 * types maps onto a tagged variant with a per-type coefficient
 * updater and a shared biquad processing primitive: no virtual
 * dispatch needed in the hot path.
 *
 *------------------------------------------------------------------*/

import "math"

// FilterType is the closed set of supported filter topologies.
type FilterType int

const (
	FilterNone FilterType = iota
	FilterLPF1P
	FilterHPF1P
	FilterLPF2P
	FilterHPF2P
	FilterBPF2P
	FilterBRF2P
	FilterAPF1P
	FilterLPF4P
	FilterHPF4P
	FilterLPF6P
	FilterHPF6P
	FilterSV // state-variable
	FilterPeak
	FilterPink
	FilterLowShelf
	FilterHighShelf
)

// biquadCoeffs is the standard direct-form-II transposed biquad coefficient
// set, shared across every filter type's processing loop.
type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadState holds the two delay registers for one channel of one biquad
// stage (direct form II transposed).
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(c biquadCoeffs, x float64) float64 {
	y := c.b0*x + s.z1
	s.z1 = c.b1*x - c.a1*y + s.z2
	s.z2 = c.b2*x - c.a2*y

	return y
}

// Filter is one instance of a filter in a voice's chain: stereo biquad
// state plus the cached coefficients, recomputed only when the effective
// cutoff/resonance/gain drift by more than an epsilon, at the control-rate
// interval.
type Filter struct {
	desc FilterDescription

	coeffs        biquadCoeffs
	stageCount    int // 1 for 2-pole, 2 for 4-pole, 3 for 6-pole, applied in cascade
	left, right   []biquadState

	lastCutoff, lastResonance, lastGain float64
	primed                              bool

	sampleRate float64
}

// coeffEpsilon is the minimum relative change in cutoff/resonance/gain that
// triggers a coefficient recompute.
const coeffEpsilon = 1e-4

// NewFilter builds a Filter instance for the given description at the
// engine's sample rate.
func NewFilter(desc FilterDescription, sampleRate float64) *Filter {
	f := &Filter{desc: desc, sampleRate: sampleRate}

	switch desc.Type {
	case FilterLPF4P, FilterHPF4P:
		f.stageCount = 2
	case FilterLPF6P, FilterHPF6P:
		f.stageCount = 3
	default:
		f.stageCount = 1
	}

	f.left = make([]biquadState, f.stageCount)
	f.right = make([]biquadState, f.stageCount)

	return f
}

// UpdateCoefficients recomputes the biquad coefficients if cutoff,
// resonance, or gain moved enough since the last control-rate tick.
func (f *Filter) UpdateCoefficients(cutoff, resonance, gainDB float64) {
	if f.primed &&
		relClose(cutoff, f.lastCutoff) &&
		relClose(resonance, f.lastResonance) &&
		relClose(gainDB, f.lastGain) {
		return
	}

	f.coeffs = computeBiquad(f.desc.Type, cutoff, resonance, gainDB, f.sampleRate)
	f.lastCutoff, f.lastResonance, f.lastGain = cutoff, resonance, gainDB
	f.primed = true
}

func relClose(a, b float64) bool {
	if b == 0 {
		return math.Abs(a) < coeffEpsilon
	}

	return math.Abs(a-b)/math.Abs(b) < coeffEpsilon
}

// ProcessStereo filters the first n frames of the separate left and right
// channel slices in place.
func (f *Filter) ProcessStereo(left, right []float32, n int) {
	if f.desc.Type == FilterNone {
		return
	}

	for i := 0; i < n; i++ {
		l := float64(left[i])
		r := float64(right[i])

		for s := 0; s < f.stageCount; s++ {
			l = f.left[s].process(f.coeffs, l)
			r = f.right[s].process(f.coeffs, r)
		}

		left[i] = float32(l)
		right[i] = float32(r)
	}
}

// computeBiquad dispatches to the per-type coefficient formula. Lowpass/
// highpass/bandpass/notch/allpass/shelf formulas follow the standard Audio
// EQ Cookbook derivations; 4-pole/6-pole types reuse the 2-pole coefficients
// cascaded across stageCount stages (a common, if approximate, way to build
// higher-order filters from a biquad primitive).
func computeBiquad(t FilterType, cutoff, q, gainDB, sampleRate float64) biquadCoeffs {
	if cutoff <= 0 {
		cutoff = 20
	}

	if cutoff > sampleRate/2*0.999 {
		cutoff = sampleRate / 2 * 0.999
	}

	if q <= 0 {
		q = 0.707
	}

	omega := 2 * math.Pi * cutoff / sampleRate
	sn, cs := math.Sin(omega), math.Cos(omega)
	alpha := sn / (2 * q)
	A := math.Pow(10, gainDB/40)

	switch t {
	case FilterLPF1P, FilterLPF2P, FilterLPF4P, FilterLPF6P, FilterSV:
		b0 := (1 - cs) / 2
		b1 := 1 - cs
		b2 := (1 - cs) / 2
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterHPF1P, FilterHPF2P, FilterHPF4P, FilterHPF6P:
		b0 := (1 + cs) / 2
		b1 := -(1 + cs)
		b2 := (1 + cs) / 2
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterBPF2P:
		b0 := alpha
		b1 := 0.0
		b2 := -alpha
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterBRF2P:
		b0 := 1.0
		b1 := -2 * cs
		b2 := 1.0
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterAPF1P:
		b0 := 1 - alpha
		b1 := -2 * cs
		b2 := 1 + alpha
		a0 := 1 + alpha
		a1 := -2 * cs
		a2 := 1 - alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterPeak:
		b0 := 1 + alpha*A
		b1 := -2 * cs
		b2 := 1 - alpha*A
		a0 := 1 + alpha/A
		a1 := -2 * cs
		a2 := 1 - alpha/A

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterLowShelf:
		sq := math.Sqrt(A)
		b0 := A * ((A + 1) - (A-1)*cs + 2*sq*alpha)
		b1 := 2 * A * ((A - 1) - (A+1)*cs)
		b2 := A * ((A + 1) - (A-1)*cs - 2*sq*alpha)
		a0 := (A + 1) + (A-1)*cs + 2*sq*alpha
		a1 := -2 * ((A - 1) + (A+1)*cs)
		a2 := (A + 1) + (A-1)*cs - 2*sq*alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterHighShelf:
		sq := math.Sqrt(A)
		b0 := A * ((A + 1) + (A-1)*cs + 2*sq*alpha)
		b1 := -2 * A * ((A - 1) + (A+1)*cs)
		b2 := A * ((A + 1) + (A-1)*cs - 2*sq*alpha)
		a0 := (A + 1) - (A-1)*cs + 2*sq*alpha
		a1 := 2 * ((A - 1) - (A+1)*cs)
		a2 := (A + 1) - (A-1)*cs - 2*sq*alpha

		return normalize(b0, b1, b2, a0, a1, a2)
	case FilterPink:
		// A gentle fixed -3dB/octave tilt approximated with a single shelf;
		// exact pink-noise shaping is outside the scope of a biquad stage.
		return computeBiquad(FilterLowShelf, cutoff, 0.5, -3, sampleRate)
	default:
		return biquadCoeffs{b0: 1}
	}
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquadCoeffs {
	return biquadCoeffs{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// EffectiveCutoff computes the modulated cutoff from the description's
// static keytrack/veltrack/random contributions plus a live modulation
// value, all expressed in cents relative to the base cutoff.
func (d FilterDescription) EffectiveCutoff(note, keycenterOverride int, velocity, randomCents, modCents float64) float64 {
	keycenter := d.Keycenter
	if keycenterOverride != 0 {
		keycenter = keycenterOverride
	}

	cents := d.Keytrack*float64(note-keycenter) + d.Veltrack*velocity + randomCents + modCents

	return d.Cutoff * CentsFactor(cents)
}
