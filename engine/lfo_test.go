package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLFOSineStaysWithinUnitRange(t *testing.T) {
	desc := LFODescription{Wave: LFOSine, Freq: 5}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	for i := 0; i < 1000; i++ {
		v := l.Tick(0.001)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestLFODelayHoldsAtZero(t *testing.T) {
	desc := LFODescription{Wave: LFOSine, Freq: 5, Delay: 0.1}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	for i := 0; i < 50; i++ { // 0.05s, still inside delay
		assert.Equal(t, 0.0, l.Tick(0.001))
	}
}

func TestLFOFadeRampsInGradually(t *testing.T) {
	desc := LFODescription{Wave: LFOSquare, Freq: 1, Fade: 0.1}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	early := l.Tick(0.001)
	for i := 0; i < 98; i++ {
		l.Tick(0.001)
	}
	late := l.Tick(0.001)

	assert.Less(t, math.Abs(early), math.Abs(late)+1e-9, "output should grow as the fade progresses")
}

func TestLFOStepSequencerCyclesThroughSteps(t *testing.T) {
	steps := []float64{0, 1, -1}
	desc := LFODescription{Freq: 10, StepSeq: steps}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	seen := map[float64]bool{}
	for i := 0; i < 500; i++ {
		seen[l.Tick(0.001)] = true
	}

	assert.True(t, seen[0.0])
	assert.True(t, seen[1.0])
	assert.True(t, seen[-1.0])
}

func TestLFOSampleHoldChangesOnlyAtCycleBoundaries(t *testing.T) {
	desc := LFODescription{Wave: LFOSampleHold, Freq: 2}
	l := NewLFO(desc, 1000, newVoiceRNG(42))

	first := l.Tick(0.001)

	for i := 0; i < 10; i++ {
		v := l.Tick(0.001)
		assert.Equal(t, first, v, "value should hold steady within one cycle")
	}
}

func TestLFOResetClearsPhase(t *testing.T) {
	desc := LFODescription{Wave: LFOSine, Freq: 5}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	for i := 0; i < 100; i++ {
		l.Tick(0.001)
	}

	l.Reset()

	assert.Equal(t, 0.0, l.phase)
	assert.Equal(t, 0.0, l.elapsed)
}

func TestLFOSubOscillatorsStayWithinRange(t *testing.T) {
	desc := LFODescription{
		Freq: 3,
		SubOsc: []LFOSubOscillator{
			{Wave: LFOSine, Ratio: 1, Scale: 1},
			{Wave: LFOTriangle, Ratio: 2, Scale: 0.5},
		},
	}
	l := NewLFO(desc, 1000, newVoiceRNG(1))

	for i := 0; i < 500; i++ {
		v := l.Tick(0.001)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
