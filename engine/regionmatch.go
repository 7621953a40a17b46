package engine

/*------------------------------------------------------------------
 *
 * Purpose: Evaluates whether a region's activation conditions are
 * satisfied by a given note/CC/pitch-bend/aftertouch/BPM event, the
 * predicate Synth.RenderBlock's event-ingest step runs against every
 * candidate region in a RegionSet.
 *
 *------------------------------------------------------------------*/

// MatchesNoteOn reports whether region should trigger for a note-on at the
// given key/velocity, given the live controller/keyswitch state in midi.
// randomDraw is the region's own [0,1) random sample for this attempt,
// generated by the caller so activation order doesn't perturb other
// regions' draws.
func MatchesNoteOn(region *Region, midi *MidiState, key int, velocity float64, randomDraw float64) bool {
	if region.Disabled() {
		return false
	}

	if region.Trigger != TriggerAttack && region.Trigger != TriggerFirst && region.Trigger != TriggerLegato {
		return false
	}

	if region.Trigger == TriggerFirst && midi.ActiveNotes != 1 {
		return false
	}

	if region.Trigger == TriggerLegato && midi.ActiveNotes <= 1 {
		return false
	}

	if !region.KeyRange.Contains(key) {
		return false
	}

	if !region.VelocityRange.Contains(velocity) {
		return false
	}

	if !matchesKeyswitch(region, midi) {
		return false
	}

	if !matchesCommon(region, midi, randomDraw) {
		return false
	}

	return true
}

// MatchesNoteOff reports whether region should trigger on a note-off event
// (the release-trigger family), given the note's captured on-velocity.
func MatchesNoteOff(region *Region, midi *MidiState, key int, onVelocity float64) bool {
	if region.Disabled() {
		return false
	}

	if region.Trigger != TriggerRelease && region.Trigger != TriggerReleaseKey {
		return false
	}

	if !region.KeyRange.Contains(key) {
		return false
	}

	if !region.VelocityRange.Contains(onVelocity) {
		return false
	}

	if !matchesKeyswitch(region, midi) {
		return false
	}

	return true
}

func matchesKeyswitch(region *Region, midi *MidiState) bool {
	if region.KeyswitchLow == 0 && region.KeyswitchHigh == 0 {
		return true
	}

	if midi.KeyswitchLast < region.KeyswitchLow || midi.KeyswitchLast > region.KeyswitchHigh {
		return false
	}

	return true
}

// matchesCommon checks the activation predicates shared by every trigger
// kind: CC conditions, pitch bend, aftertouch, BPM, the random range, and
// the sequence counter.
func matchesCommon(region *Region, midi *MidiState, randomDraw float64) bool {
	for _, cond := range region.CCConditions {
		if !cond.Range.Contains(midi.CCValue(cond.Number)) {
			return false
		}
	}

	bendNorm := int(midi.PitchBend * 8192)
	if !region.PitchBendRange.Contains(bendNorm) {
		return false
	}

	if !region.AftertouchRange.Contains(midi.ChannelAftertouch) {
		return false
	}

	if !region.BPMRange.Contains(midi.BPM()) {
		return false
	}

	if !region.RandomRange.Contains(randomDraw) {
		return false
	}

	if region.SeqLength > 1 {
		if region.NextSequencePosition() != region.SeqPosition {
			return false
		}
	}

	return true
}
