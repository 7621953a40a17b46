package engine

/*------------------------------------------------------------------
 *
 * Purpose: Owns the engine-wide active-voice list and enforces every
 * polyphony constraint (global cap, per-group cap, per-note cap,
 * self_mask, off_by silencing) before handing a freshly built Voice
 * back to the caller.
 *
 *------------------------------------------------------------------*/

// VoiceManager tracks every currently-active Voice and applies the
// configured stealing algorithm whenever an activation would exceed a
// polyphony limit.
type VoiceManager struct {
	maxVoices int
	algo      StealingAlgorithm

	active   []*Voice
	nextID   int
}

// NewVoiceManager builds a manager enforcing the given global voice cap and
// stealing algorithm.
func NewVoiceManager(maxVoices int, algo StealingAlgorithm) *VoiceManager {
	return &VoiceManager{maxVoices: maxVoices, algo: algo}
}

// ActiveCount returns the number of currently-tracked voices, including ones
// in VoiceReleasing/VoiceCleanupPending.
func (vm *VoiceManager) ActiveCount() int { return len(vm.active) }

// Voices exposes the live slice for render iteration. Callers must not
// retain it past the current block.
func (vm *VoiceManager) Voices() []*Voice { return vm.active }

// Activate enforces every polyphony rule for one trigger attempt and, if
// admitted, builds and registers the new Voice. Returns ErrVoicePoolExhausted
// only in the degenerate case of maxVoices == 0.
func (vm *VoiceManager) Activate(region *Region, regionSet *RegionSet, note int, velocity float64, delayFrames int, sampleRate float64, blockSize int, controlInterval float64, rng *voiceRNG, pool *FilePool, tuning *Tuning) (*Voice, error) {
	if vm.maxVoices <= 0 {
		return nil, ErrVoicePoolExhausted
	}

	vm.applyOffByGroups(region)

	if region.SelfMask {
		vm.killSameRegionNote(region, note)
	}

	// Polyphony layers are enforced narrowest-first: note -> region -> group
	// -> set -> engine, each shedding its own voice before the next, wider
	// layer gets a chance to reject the trigger outright.
	if region.NotePolyphony > 0 && vm.countByRegionNote(region, note) >= region.NotePolyphony {
		if !vm.stealFromRegionNote(region, note) {
			return nil, nil
		}
	}

	if tracker := region.PolyphonyTracker(); tracker != nil && !tracker.CanActivate() {
		if !vm.stealFromRegion(region) {
			return nil, nil
		}
	}

	if group := regionSet.GroupFor(region.Group); group != nil && !group.CanActivate() {
		if !vm.stealFromGroup(region.Group) {
			return nil, nil // group full and nothing sheddable: silently drop the trigger
		}
	}

	if setLimit := regionSet.SetLimit(); setLimit != nil && !setLimit.CanActivate() {
		if !vm.stealOldest() {
			return nil, nil
		}
	}

	if len(vm.active) >= vm.maxVoices {
		victim := selectVictim(vm.active, vm.algo)
		if victim < 0 {
			return nil, ErrVoicePoolExhausted
		}

		vm.reclaim(victim, regionSet)
	}

	vm.nextID++
	v := NewVoice(vm.nextID, region, note, velocity, delayFrames, sampleRate, blockSize, controlInterval, rng, pool, tuning)
	vm.active = append(vm.active, v)

	if tracker := region.PolyphonyTracker(); tracker != nil {
		tracker.Enter()
	}

	if group := regionSet.GroupFor(region.Group); group != nil {
		group.Enter()
	}

	if setLimit := regionSet.SetLimit(); setLimit != nil {
		setLimit.Enter()
	}

	return v, nil
}

// ReapFinished removes every voice whose envelope has completed release,
// releasing its file handle and group accounting. Call once per block after
// rendering.
func (vm *VoiceManager) ReapFinished(regionSet *RegionSet) {
	write := 0

	for _, v := range vm.active {
		if v.Finished() {
			vm.finalize(v, regionSet)
			continue
		}

		vm.active[write] = v
		write++
	}

	vm.active = vm.active[:write]
}

func (vm *VoiceManager) finalize(v *Voice, regionSet *RegionSet) {
	v.release()
	unlinkSister(v)

	if tracker := v.Region().PolyphonyTracker(); tracker != nil {
		tracker.Leave()
	}

	if regionSet != nil {
		if group := regionSet.GroupFor(v.Region().Group); group != nil {
			group.Leave()
		}

		if setLimit := regionSet.SetLimit(); setLimit != nil {
			setLimit.Leave()
		}
	}
}

// reclaim force-releases the voice at index idx immediately (used only when
// the global cap forces an instant steal rather than a graceful kill).
func (vm *VoiceManager) reclaim(idx int, regionSet *RegionSet) {
	v := vm.active[idx]
	vm.finalize(v, regionSet)
	vm.active = append(vm.active[:idx], vm.active[idx+1:]...)
}

func (vm *VoiceManager) applyOffByGroups(trigger *Region) {
	if trigger.Group == 0 {
		return
	}

	for _, v := range vm.active {
		if v.Region().OffByGroup == trigger.Group && v.State() != VoiceCleanupPending {
			v.Kill()
		}
	}
}

func (vm *VoiceManager) killSameRegionNote(region *Region, note int) {
	for _, v := range vm.active {
		if v.Region() == region && v.NoteNumber() == note && v.State() == VoicePlaying {
			v.Kill()
		}
	}
}

func (vm *VoiceManager) countByRegionNote(region *Region, note int) int {
	n := 0

	for _, v := range vm.active {
		if v.Region() == region && v.NoteNumber() == note {
			n++
		}
	}

	return n
}

func (vm *VoiceManager) stealFromRegionNote(region *Region, note int) bool {
	for _, v := range vm.active {
		if v.Region() == region && v.NoteNumber() == note && v.State() == VoicePlaying {
			v.Kill()
			return true
		}
	}

	return false
}

func (vm *VoiceManager) stealFromGroup(groupID int) bool {
	var candidates []*Voice

	for _, v := range vm.active {
		if v.Region().Group == groupID {
			candidates = append(candidates, v)
		}
	}

	idx := selectVictim(candidates, StealOldest)
	if idx < 0 {
		return false
	}

	candidates[idx].Kill()

	return true
}

// stealFromRegion sheds one voice belonging to region, to make room under a
// region-own polyphony= cap.
func (vm *VoiceManager) stealFromRegion(region *Region) bool {
	var candidates []*Voice

	for _, v := range vm.active {
		if v.Region() == region {
			candidates = append(candidates, v)
		}
	}

	idx := selectVictim(candidates, StealOldest)
	if idx < 0 {
		return false
	}

	candidates[idx].Kill()

	return true
}

// stealOldest sheds the oldest voice in the whole set, to make room under a
// set-wide (master/global) polyphony= cap.
func (vm *VoiceManager) stealOldest() bool {
	idx := selectVictim(vm.active, StealOldest)
	if idx < 0 {
		return false
	}

	vm.active[idx].Kill()

	return true
}

// ReleaseNote releases every active, non-sustained voice matching key,
// honoring the sustain/sostenuto pedal deferral rules: a held pedal defers
// the actual envelope release until the pedal itself lifts.
func (vm *VoiceManager) ReleaseNote(key int, midi *MidiState) {
	for _, v := range vm.active {
		if v.NoteNumber() != key || v.State() != VoicePlaying {
			continue
		}

		if v.region.CheckSustain && midi.SustainPedal {
			continue
		}

		if v.region.CheckSostenuto && midi.Notes[key].Sostenuto && midi.SostenutoPedal {
			continue
		}

		v.NoteOff()
	}
}

// ReleasePedalHeld is called when the sustain or sostenuto pedal itself
// lifts, releasing every voice that was only being held by that pedal.
func (vm *VoiceManager) ReleasePedalHeld(midi *MidiState, sustain bool) {
	for _, v := range vm.active {
		if v.State() != VoicePlaying {
			continue
		}

		key := v.NoteNumber()
		if midi.Notes[key].IsOn {
			continue // key is still physically held, pedal lift doesn't release it
		}

		if sustain && v.region.CheckSustain {
			v.NoteOff()
		} else if !sustain && v.region.CheckSostenuto && midi.Notes[key].Sostenuto {
			v.NoteOff()
		}
	}
}

// KillAll forces every active voice into its bounded fadeout, used by
// AllSoundOff / panic handling.
func (vm *VoiceManager) KillAll() {
	for _, v := range vm.active {
		v.Kill()
	}
}
