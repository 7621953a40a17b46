package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullRegionDefaultsMatchWholeRange(t *testing.T) {
	r := FullRegion(5)

	assert.Equal(t, 5, r.ID)
	assert.Equal(t, FullIntRange(), r.KeyRange)
	assert.Equal(t, FullFloatRange01(), r.VelocityRange)
	assert.Equal(t, TriggerAttack, r.Trigger)
	assert.False(t, r.Disabled())
}

func TestRegionValidateRejectsOutOfRangeKeycenter(t *testing.T) {
	r := FullRegion(1)
	r.PitchKeycenter = 200

	err := r.Validate()
	require.Error(t, err)

	var regionErr *RegionError
	assert.ErrorAs(t, err, &regionErr)
}

func TestRegionValidateRejectsInvertedLoopBounds(t *testing.T) {
	r := FullRegion(1)
	r.LoopMode = LoopContinuous
	r.LoopStart = 500
	r.LoopEnd = 100
	r.End = 1000

	assert.Error(t, r.Validate())
}

func TestRegionValidateEnforcesReleaseFloorForReleaseTrigger(t *testing.T) {
	r := FullRegion(1)
	r.Trigger = TriggerRelease
	r.AmpEG.Release = 0

	require.NoError(t, r.Validate())
	assert.GreaterOrEqual(t, r.AmpEG.Release, ReleaseFloorSeconds)
}

func TestRegionValidateForcesOneShotWhenSampleCountSet(t *testing.T) {
	r := FullRegion(1)
	r.SampleCount = 4

	require.NoError(t, r.Validate())
	assert.Equal(t, LoopOneShot, r.LoopMode)
	assert.True(t, r.OneShot)
}

func TestRegionDisableRecordsReasonAndRejectsFurtherMatching(t *testing.T) {
	r := FullRegion(1)
	assert.False(t, r.Disabled())

	r.Disable(ErrFileMissing)

	assert.True(t, r.Disabled())
	assert.ErrorIs(t, r.DisableReason(), ErrFileMissing)
}

func TestNextSequencePositionCyclesWithinSeqLength(t *testing.T) {
	r := FullRegion(1)
	r.SeqLength = 3

	var positions []int
	for i := 0; i < 7; i++ {
		positions = append(positions, r.NextSequencePosition())
	}

	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, positions)
}

func TestNextSequencePositionDefaultsToAlwaysOneWhenUnset(t *testing.T) {
	r := FullRegion(1)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, r.NextSequencePosition())
	}
}

func TestEffectiveSampleEndReturnsEnd(t *testing.T) {
	r := FullRegion(1)
	r.End = 4410

	assert.Equal(t, 4410, r.EffectiveSampleEnd())
}
