package engine

/*------------------------------------------------------------------
 *
 * Purpose: Control-rate LFO: the v1-style single-waveform LFO and the
 * flex-style multi-sub-oscillator/step-sequencer LFO share one type;
 * Tick uses the step sequence if present, else the SubOsc list, else
 * the single Wave at Freq.
 *
 *------------------------------------------------------------------*/

import "math"

// LFOWave is the closed set of LFO waveform shapes.
type LFOWave int

const (
	LFOSine LFOWave = iota
	LFOTriangle
	LFOSquare
	LFOSaw
	LFORampUp
	LFORampDown
	LFOSampleHold
)

// LFO is one live instance of an LFODescription: phase accumulators for the
// primary waveform plus every sub-oscillator, and delay/fade envelope state.
type LFO struct {
	desc LFODescription

	sampleRate float64
	elapsed    float64 // seconds since trigger, drives delay/fade

	phase     float64
	subPhases []float64

	stepIndex int
	stepAccum float64

	rng       *voiceRNG
	lastHold  float64
}

// NewLFO builds an LFO instance at the engine's control rate.
func NewLFO(desc LFODescription, sampleRate float64, rng *voiceRNG) *LFO {
	return &LFO{
		desc:       desc,
		sampleRate: sampleRate,
		subPhases:  make([]float64, len(desc.SubOsc)),
		rng:        rng,
	}
}

// Tick advances the LFO by dt seconds (the control-rate interval) and
// returns its current output in [-1, 1], already shaped by delay and fade.
func (l *LFO) Tick(dt float64) float64 {
	l.elapsed += dt

	if l.elapsed < l.desc.Delay {
		l.advancePhases(dt)
		return 0
	}

	var value float64

	if len(l.desc.StepSeq) > 0 {
		value = l.tickStepSequencer(dt)
	} else if len(l.desc.SubOsc) > 0 {
		value = l.tickSubOscillators(dt)
	} else {
		l.phase += dt * l.desc.Freq
		l.phase -= math.Floor(l.phase)
		value = lfoWaveform(l.desc.Wave, l.phase, l.rng, &l.lastHold)
	}

	fadeElapsed := l.elapsed - l.desc.Delay
	if l.desc.Fade > 0 && fadeElapsed < l.desc.Fade {
		value *= fadeElapsed / l.desc.Fade
	}

	return value
}

func (l *LFO) advancePhases(dt float64) {
	l.phase += dt * l.desc.Freq
	l.phase -= math.Floor(l.phase)

	for i, s := range l.desc.SubOsc {
		l.subPhases[i] += dt * l.desc.Freq * s.Ratio
		l.subPhases[i] -= math.Floor(l.subPhases[i])
	}
}

func (l *LFO) tickSubOscillators(dt float64) float64 {
	var sum, weight float64

	for i, s := range l.desc.SubOsc {
		l.subPhases[i] += dt * l.desc.Freq * s.Ratio
		l.subPhases[i] -= math.Floor(l.subPhases[i])

		p := l.subPhases[i] + s.Offset
		p -= math.Floor(p)

		sum += lfoWaveform(s.Wave, p, l.rng, &l.lastHold) * s.Scale
		weight += s.Scale
	}

	if weight == 0 {
		return 0
	}

	return sum / weight
}

func (l *LFO) tickStepSequencer(dt float64) float64 {
	steps := l.desc.StepSeq
	stepDuration := 1.0 / (l.desc.Freq * float64(len(steps)))

	l.stepAccum += dt
	for l.stepAccum >= stepDuration {
		l.stepAccum -= stepDuration
		l.stepIndex = (l.stepIndex + 1) % len(steps)
	}

	return steps[l.stepIndex]
}

func lfoWaveform(w LFOWave, phase float64, rng *voiceRNG, lastHold *float64) float64 {
	switch w {
	case LFOSine:
		return math.Sin(2 * math.Pi * phase)
	case LFOTriangle:
		return 1 - 4*math.Abs(math.Round(phase-0.25)-(phase-0.25))
	case LFOSquare:
		if phase < 0.5 {
			return 1
		}

		return -1
	case LFOSaw:
		return 2*phase - 1
	case LFORampUp:
		return 2*phase - 1
	case LFORampDown:
		return 1 - 2*phase
	case LFOSampleHold:
		if phase < 1e-6 && rng != nil {
			*lastHold = rng.Uniform(2) - 1
		}

		return *lastHold
	default:
		return 0
	}
}

// Reset clears all phase and envelope state, for re-trigger.
func (l *LFO) Reset() {
	l.elapsed = 0
	l.phase = 0
	l.stepIndex = 0
	l.stepAccum = 0

	for i := range l.subPhases {
		l.subPhases[i] = 0
	}
}
