package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVictimReturnsNegativeOneOnEmptySlice(t *testing.T) {
	assert.Equal(t, -1, selectVictim(nil, StealFirst))
}

func TestSelectVictimPrefersReleasingVoiceRegardlessOfAlgorithm(t *testing.T) {
	r := testRegion()
	playing := newSineVoice(t, r, 60, 0.8)
	releasing := newSineVoice(t, r, 61, 0.8)
	releasing.state = VoiceReleasing

	active := []*Voice{playing, releasing}

	for _, algo := range []StealingAlgorithm{StealFirst, StealOldest, StealEnvelopeAndAge} {
		idx := selectVictim(active, algo)
		assert.Equal(t, 1, idx, "algo %v should still prefer the already-releasing voice", algo)
	}
}

func TestSelectVictimStealFirstPicksIndexZero(t *testing.T) {
	r := testRegion()
	a := newSineVoice(t, r, 60, 0.8)
	b := newSineVoice(t, r, 61, 0.8)

	idx := selectVictim([]*Voice{a, b}, StealFirst)
	assert.Equal(t, 0, idx)
}

func TestSelectVictimStealOldestPicksHighestAge(t *testing.T) {
	r := testRegion()
	a := newSineVoice(t, r, 60, 0.8)
	b := newSineVoice(t, r, 61, 0.8)
	a.ageBlocks = 5
	b.ageBlocks = 50

	idx := selectVictim([]*Voice{a, b}, StealOldest)
	assert.Equal(t, 1, idx)
}

func TestSelectVictimEnvelopeAndAgePrefersQuietestVoice(t *testing.T) {
	r := testRegion()
	r.AmpEG.Attack = 0
	r.AmpEG.Sustain = 1
	r.AmpEG.Release = 0.1
	loud := newSineVoice(t, r, 60, 0.8)
	quiet := newSineVoice(t, r, 61, 0.8)

	buses := []*AudioBuffer{NewAudioBuffer(2, 64)}
	midi := NewMidiState()

	require.NotNil(t, loud.ampEG)
	loud.RenderBlock(buses, 64, midi) // attack to full sustain, stays there
	quiet.RenderBlock(buses, 64, midi)

	quiet.ampEG.Release()
	for i := 0; i < 20; i++ {
		quiet.RenderBlock(buses, 64, midi) // fades quiet's rendered power well below loud's sustain level
	}

	require.Less(t, quiet.Power(), loud.Power())

	idx := selectVictim([]*Voice{loud, quiet}, StealEnvelopeAndAge)
	assert.Equal(t, 1, idx)
}
