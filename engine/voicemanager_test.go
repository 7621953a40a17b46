package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vmTestTuning() *Tuning { return NewTuning(60, 261.6255653005986) }

func activate(t *testing.T, vm *VoiceManager, rs *RegionSet, r *Region, note int) *Voice {
	t.Helper()

	v, err := vm.Activate(r, rs, note, 0.8, 0, 48000, 64, 64.0/48000, newVoiceRNG(1), nil, vmTestTuning())
	require.NoError(t, err)

	return v
}

func TestVoiceManagerEnforcesGlobalCapByStealing(t *testing.T) {
	r := testRegion()
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(2, StealOldest)

	first := activate(t, vm, rs, r, 60)
	second := activate(t, vm, rs, r, 61)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, 2, vm.ActiveCount())

	third := activate(t, vm, rs, r, 62)
	require.NotNil(t, third)

	assert.Equal(t, 2, vm.ActiveCount(), "the global cap must never be exceeded")

	for _, v := range vm.Voices() {
		assert.NotEqual(t, 60, v.NoteNumber(), "the oldest voice should have been reclaimed to make room")
	}
}

func TestVoiceManagerGroupPolyphonyStealsOldest(t *testing.T) {
	r := testRegion()
	r.Group = 1
	r.GroupPolyphony = 2
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealOldest)

	activate(t, vm, rs, r, 60)
	activate(t, vm, rs, r, 61)

	third := activate(t, vm, rs, r, 62)
	require.NotNil(t, third)

	killed := 0
	for _, v := range vm.Voices() {
		if v.State() == VoiceCleanupPending {
			killed++
		}
	}

	assert.Equal(t, 1, killed, "exceeding the group polyphony limit should steal exactly one sibling voice")
}

func TestVoiceManagerRegionPolyphonyIsNotConflatedWithGroupPolyphony(t *testing.T) {
	a := testRegion()
	a.Polyphony = 1

	b := testRegion()
	b.Polyphony = 1

	rs := NewRegionSet([]*Region{a, b})
	vm := NewVoiceManager(10, StealOldest)

	firstA := activate(t, vm, rs, a, 60)
	firstB := activate(t, vm, rs, b, 60)

	require.NotNil(t, firstA)
	require.NotNil(t, firstB)
	assert.Equal(t, VoicePlaying, firstA.State(), "two ungrouped regions with their own polyphony=1 must not share one counter")
	assert.Equal(t, VoicePlaying, firstB.State())

	secondA := activate(t, vm, rs, a, 61)
	require.NotNil(t, secondA)
	assert.Equal(t, VoiceCleanupPending, firstA.State(), "retriggering past region a's own cap must steal only from region a")
	assert.Equal(t, VoicePlaying, firstB.State())
}

func TestVoiceManagerSetPolyphonyCapsAcrossRegions(t *testing.T) {
	a := testRegion()
	a.SetPolyphony = 1

	b := testRegion()

	rs := NewRegionSet([]*Region{a, b})
	vm := NewVoiceManager(10, StealOldest)

	first := activate(t, vm, rs, a, 60)
	require.NotNil(t, first)

	second := activate(t, vm, rs, b, 61)
	require.NotNil(t, second)

	assert.Equal(t, VoiceCleanupPending, first.State(), "a set-wide polyphony cap must steal across regions")
	assert.Equal(t, VoicePlaying, second.State())
}

func TestVoiceManagerNotePolyphonyStealsSameNote(t *testing.T) {
	r := testRegion()
	r.NotePolyphony = 1
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealFirst)

	first := activate(t, vm, rs, r, 60)
	second := activate(t, vm, rs, r, 60)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, VoiceCleanupPending, first.State(), "retriggering the same note past its per-note limit kills the earlier voice")
	assert.Equal(t, VoicePlaying, second.State())
}

func TestVoiceManagerSelfMaskKillsSameRegionNote(t *testing.T) {
	r := testRegion()
	r.SelfMask = true
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealFirst)

	first := activate(t, vm, rs, r, 60)
	second := activate(t, vm, rs, r, 60)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, VoiceCleanupPending, first.State())
	assert.Equal(t, VoicePlaying, second.State())
}

func TestVoiceManagerOffByGroupSilencesOtherRegion(t *testing.T) {
	closedHat := testRegion()
	closedHat.OffByGroup = 1

	openHat := testRegion()
	openHat.Group = 1

	rs := NewRegionSet([]*Region{closedHat, openHat})
	vm := NewVoiceManager(10, StealFirst)

	closed := activate(t, vm, rs, closedHat, 42)
	require.NotNil(t, closed)
	assert.Equal(t, VoicePlaying, closed.State())

	open := activate(t, vm, rs, openHat, 46)
	require.NotNil(t, open)

	assert.Equal(t, VoiceCleanupPending, closed.State(), "triggering the open-hat region should silence the closed-hat voice sharing its off_by group")
	assert.Equal(t, VoicePlaying, open.State())
}

func TestVoiceManagerReapFinishedRemovesCompletedVoices(t *testing.T) {
	r := testRegion()
	r.AmpEG.Release = 0.001
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealFirst)

	v := activate(t, vm, rs, r, 60)
	require.NotNil(t, v)

	v.Kill()

	buses := []*AudioBuffer{NewAudioBuffer(2, 64)}
	midi := NewMidiState()

	for i := 0; i < 2000 && !v.Finished(); i++ {
		v.RenderBlock(buses, 64, midi)
	}

	require.True(t, v.Finished())

	vm.ReapFinished(rs)

	assert.Equal(t, 0, vm.ActiveCount())
}

func TestVoiceManagerReleaseNoteDefersUnderSustainPedal(t *testing.T) {
	r := testRegion()
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealFirst)

	v := activate(t, vm, rs, r, 60)
	require.NotNil(t, v)

	midi := NewMidiState()
	midi.CC(0, 64, 1.0) // sustain pedal down

	vm.ReleaseNote(60, midi)
	assert.Equal(t, VoicePlaying, v.State(), "note-off under a held sustain pedal must be deferred")

	midi.Notes[60] = NoteInfo{}
	midi.SustainPedal = false
	vm.ReleasePedalHeld(midi, true)

	assert.Equal(t, VoiceReleasing, v.State(), "releasing the pedal should release notes it was holding")
}

func TestVoiceManagerKillAllReleasesEveryVoice(t *testing.T) {
	r := testRegion()
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(10, StealFirst)

	activate(t, vm, rs, r, 60)
	activate(t, vm, rs, r, 61)

	vm.KillAll()

	for _, v := range vm.Voices() {
		assert.Equal(t, VoiceCleanupPending, v.State())
	}
}

func TestVoiceManagerDegenerateZeroCapacityFails(t *testing.T) {
	r := testRegion()
	rs := NewRegionSet([]*Region{r})
	vm := NewVoiceManager(0, StealFirst)

	v, err := vm.Activate(r, rs, 60, 0.8, 0, 48000, 64, 64.0/48000, newVoiceRNG(1), nil, vmTestTuning())
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrVoicePoolExhausted)
}
