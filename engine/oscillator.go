package engine

/*------------------------------------------------------------------
 *
 * Purpose: Generator sample sources for *sine|*saw|*square|*triangle
 * and *noise regions, plus the detuned multi-oscillator unison mode.
 *
 *------------------------------------------------------------------*/

import "math"

// GeneratorKind identifies one of the built-in waveform generators a
// region's sample opcode can name instead of a file path.
type GeneratorKind int

const (
	GenNone GeneratorKind = iota
	GenSine
	GenSaw
	GenSquare
	GenTriangle
	GenNoise
	GenSilence
)

// ParseGeneratorName maps an SFZ sample=*name string to a GeneratorKind,
// or GenNone if it names a file instead.
func ParseGeneratorName(sample string) GeneratorKind {
	switch sample {
	case "*sine":
		return GenSine
	case "*saw":
		return GenSaw
	case "*square":
		return GenSquare
	case "*triangle":
		return GenTriangle
	case "*noise":
		return GenNoise
	case "*silence":
		return GenSilence
	default:
		return GenNone
	}
}

// Oscillator is a generator that computes each waveform directly from its
// phase, with optional multi-oscillator unison. The saw, square and
// triangle shapes are not band-limited: no anti-aliasing is applied.
type Oscillator struct {
	kind       GeneratorKind
	sampleRate float64
	phase      []float64 // one phase accumulator per unison voice

	detuneCents []float64 // per-voice detune, symmetric about center
	gainL       []float32
	gainR       []float32

	rng *voiceRNG

	gaussianNoise bool
	noiseStddev   float64
}

// NewOscillator builds a single-voice oscillator of the given kind.
func NewOscillator(kind GeneratorKind, sampleRate float64, rng *voiceRNG) *Oscillator {
	o := &Oscillator{kind: kind, sampleRate: sampleRate, rng: rng}
	o.SetUnison(1, 0)

	return o
}

// SetUnison configures oscillator_multi copies detuned symmetrically around
// the center by detuneCents, with linearly interpolated L/R gains for
// stereo spread.
func (o *Oscillator) SetUnison(voices int, detuneCents float64) {
	if voices < 1 {
		voices = 1
	}

	o.phase = make([]float64, voices)
	o.detuneCents = make([]float64, voices)
	o.gainL = make([]float32, voices)
	o.gainR = make([]float32, voices)

	if voices == 1 {
		o.detuneCents[0] = 0
		o.gainL[0] = 1
		o.gainR[0] = 1

		return
	}

	for i := 0; i < voices; i++ {
		t := float64(i) / float64(voices-1) // 0..1 across the unison spread
		o.detuneCents[i] = (t*2 - 1) * detuneCents
		o.gainL[i] = float32(1 - t)
		o.gainR[i] = float32(t)
	}
}

// SetNoiseMode selects uniform (default) or Gaussian noise generation, with
// the given bound (uniform) or standard deviation (Gaussian).
func (o *Oscillator) SetNoiseMode(gaussian bool, spread float64) {
	o.gaussianNoise = gaussian
	o.noiseStddev = spread
}

// Render fills outL/outR (outR may equal outL for mono routing upstream)
// with n frames at the given base frequency (already incorporating the
// region's pitch ratio and key-center mapping).
func (o *Oscillator) Render(outL, outR []float32, n int, freqHz float64) {
	if o.kind == GenSilence || o.kind == GenNone {
		for i := 0; i < n; i++ {
			outL[i] = 0
			outR[i] = 0
		}

		return
	}

	if o.kind == GenNoise {
		for i := 0; i < n; i++ {
			var v float64
			if o.gaussianNoise {
				v = o.rng.Gaussian(o.noiseStddev)
			} else {
				v = o.rng.Uniform(o.noiseStddev)
			}

			outL[i] = float32(v)
			outR[i] = float32(v)
		}

		return
	}

	for i := 0; i < n; i++ {
		var sumL, sumR float32

		for v := range o.phase {
			f := freqHz * CentsFactor(o.detuneCents[v])
			sample := o.waveform(o.phase[v])

			sumL += sample * o.gainL[v]
			sumR += sample * o.gainR[v]

			o.phase[v] += f / o.sampleRate
			if o.phase[v] >= 1 {
				o.phase[v] -= math.Floor(o.phase[v])
			}
		}

		norm := float32(1)
		if len(o.phase) > 0 {
			norm = 1 / float32(len(o.phase))
		}

		outL[i] = sumL * norm
		outR[i] = sumR * norm
	}
}

func (o *Oscillator) waveform(phase float64) float32 {
	switch o.kind {
	case GenSine:
		return float32(math.Sin(2 * math.Pi * phase))
	case GenSaw:
		return float32(2*phase - 1)
	case GenSquare:
		if phase < 0.5 {
			return 1
		}

		return -1
	case GenTriangle:
		if phase < 0.5 {
			return float32(4*phase - 1)
		}

		return float32(3 - 4*phase)
	default:
		return 0
	}
}
