package engine

/*------------------------------------------------------------------
 *
 * Purpose: One sounding voice: the state machine from trigger through
 * release to reclaim, and the per-block render pipeline (source ->
 * filters -> EQ -> pan -> bus accumulation) that VoiceManager drives
 * once per audio callback.
 *
 *------------------------------------------------------------------*/

import "math"

// VoiceState is the lifecycle state of one Voice.
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoicePlaying
	VoiceReleasing
	VoiceCleanupPending
)

// powerFollowerWindowSeconds sets how quickly a voice's RMS power estimate
// responds to amplitude changes; short enough to track a fast release tail
// within a few blocks.
const powerFollowerWindowSeconds = 0.05

// Voice is one active sounding instance of a Region, triggered by a single
// note-on (or CC/keyswitch) activation.
type Voice struct {
	index  int
	region *Region
	state  VoiceState

	ring sisterRing

	noteNumber      int
	triggerVelocity float64
	triggerDelay    int // frames into the current block before this voice starts
	releaseKeyOnly  bool

	ampEG    *ADSREnvelope
	pitchEG  *ADSREnvelope
	filterEG *ADSREnvelope
	flexEGs  []*FlexEG

	ampLFO    *LFO
	pitchLFO  *LFO
	filterLFO *LFO
	flexLFOs  []*LFO

	filters []*Filter
	eqs     []*EQBand

	mod *ModMatrix

	osc     *Oscillator
	handle  FileHandle
	hasFile bool

	framePos  float64
	direction float64

	baseFreq float64

	panSmoother *Smoother
	rng         *voiceRNG
	power       *PowerFollower

	sampleRate      float64
	controlInterval float64
	blockSize       int

	ageBlocks     int64
	loopsPlayed   uint32

	noteGain float64 // precomputed key/velocity/curve/random gain, linear
	busGains []float64

	// scratchL/scratchR are the voice's fixed per-block render buffers,
	// sized once to blockSize at construction so RenderBlock never
	// allocates.
	scratchL []float32
	scratchR []float32

	fileFrame     []float32
	fileFrameNext []float32
}

// NewVoice builds and fully initializes a Voice for one trigger event. pool
// is used to acquire (or begin loading) the file handle for sample-based
// regions; generator regions never touch it.
func NewVoice(id int, region *Region, note int, velocity float64, delayFrames int, sampleRate float64, blockSize int, controlInterval float64, rng *voiceRNG, pool *FilePool, tuning *Tuning) *Voice {
	v := &Voice{
		index:           id,
		region:          region,
		state:           VoicePlaying,
		noteNumber:      note,
		triggerVelocity: velocity,
		triggerDelay:    delayFrames,
		direction:       1,
		sampleRate:      sampleRate,
		controlInterval: controlInterval,
		blockSize:       blockSize,
		rng:             rng,
		busGains:        region.BusGains,
		scratchL:        make([]float32, blockSize),
		scratchR:        make([]float32, blockSize),
	}

	v.ring.next, v.ring.prev = v, v

	v.ampEG = NewADSREnvelope(region.AmpEG, controlInterval)
	v.ampEG.ApplyVelocity(velocity)

	if region.PitchEG != nil {
		v.pitchEG = NewADSREnvelope(*region.PitchEG, controlInterval)
		v.pitchEG.ApplyVelocity(velocity)
	}

	if region.FilterEG != nil {
		v.filterEG = NewADSREnvelope(*region.FilterEG, controlInterval)
		v.filterEG.ApplyVelocity(velocity)
	}

	for _, fe := range region.FlexEGs {
		v.flexEGs = append(v.flexEGs, NewFlexEG(fe))
	}

	if region.AmpLFO != nil {
		v.ampLFO = NewLFO(*region.AmpLFO, sampleRate, rng)
	}

	if region.PitchLFO != nil {
		v.pitchLFO = NewLFO(*region.PitchLFO, sampleRate, rng)
	}

	if region.FilterLFO != nil {
		v.filterLFO = NewLFO(*region.FilterLFO, sampleRate, rng)
	}

	for _, fl := range region.FlexLFOs {
		v.flexLFOs = append(v.flexLFOs, NewLFO(fl, sampleRate, rng))
	}

	for _, fd := range region.Filters {
		v.filters = append(v.filters, NewFilter(fd, sampleRate))
	}

	for _, ed := range region.EQs {
		v.eqs = append(v.eqs, NewEQBand(ed, sampleRate))
	}

	if len(region.ModConnections) > 0 {
		v.mod = NewModMatrix(region.ModConnections)
	}

	v.panSmoother = NewSmoother(DefaultSmoothingMs, sampleRate, blockSize)
	v.panSmoother.Reset(region.Pan)
	v.power = NewPowerFollower(powerFollowerWindowSeconds, sampleRate, blockSize)

	v.baseFreq = noteToFreq(region, note, velocity, rng, tuning)
	v.noteGain = computeNoteGain(region, note, velocity, rng)

	if region.Generator != GenNone {
		v.osc = NewOscillator(region.Generator, sampleRate, rng)
	} else if pool != nil {
		id := FileID{Path: region.SamplePath, Reverse: region.Reverse}
		fd := pool.GetOrCreate(id, region.SamplePath)
		v.handle = AcquireFileHandle(fd)
		v.hasFile = true
		v.framePos = float64(region.Offset)
		v.fileFrame = make([]float32, maxInt(fd.Channels, 1))
		v.fileFrameNext = make([]float32, maxInt(fd.Channels, 1))

		if region.OffsetRandom > 0 {
			v.framePos += float64(int(rng.Uniform(float64(region.OffsetRandom))))
		}

		if region.Reverse {
			v.direction = -1
		}
	}

	return v
}

// noteToFreq resolves the playback pitch in Hz for a triggered note,
// combining keycenter/keytrack, per-region tune/transpose/bend, and random
// detune.
func noteToFreq(region *Region, note int, velocity float64, rng *voiceRNG, tuning *Tuning) float64 {
	keycenterFreq := tuning.NoteFrequency(region.PitchKeycenter)

	semitoneOffset := float64(note-region.PitchKeycenter) * (region.PitchKeytrack / 100.0)
	cents := semitoneOffset*100 + region.Tune + float64(region.Transpose)*100
	cents += region.PitchVeltrack * velocity

	if region.PitchRandom > 0 {
		cents += rng.Uniform(region.PitchRandom)
	}

	return keycenterFreq * CentsFactor(cents)
}

// computeNoteGain resolves the static linear gain for a triggered note from
// volume, velocity curve, amp keytrack, and random amplitude variation.
func computeNoteGain(region *Region, note int, velocity float64, rng *voiceRNG) float64 {
	db := region.VolumeDB

	curve := region.AmpVelCurve
	if curve == nil {
		curve = DefaultVelocityCurve()
	}

	// amp_veltrack scales how much the velocity curve affects the final
	// gain: 100% (1.0) is full effect, 0 ignores velocity entirely.
	velGain := 1 - region.AmpVeltrack + region.AmpVeltrack*curve.Eval(velocity)

	keytrackDB := region.AmpKeytrack * float64(note-region.AmpKeycenter)
	db += keytrackDB

	if region.AmpRandom > 0 {
		db += rng.Uniform(region.AmpRandom)
	}

	gain := dbToLinear(db) * velGain * region.Amplitude * crossfadeGain(region, note, velocity)

	return gain
}

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }

// crossfadeGain multiplies the xfin/xfout key and velocity ramp factors,
// each independently collapsing to 1 (no effect) when its range is left at
// the degenerate Lo>Hi default.
func crossfadeGain(region *Region, note int, velocity float64) float64 {
	gain := crossfadeRamp(float64(note), float64(region.XFInKeyRange.Lo), float64(region.XFInKeyRange.Hi), region.XFCurve, false)
	gain *= crossfadeRamp(float64(note), float64(region.XFOutKeyRange.Lo), float64(region.XFOutKeyRange.Hi), region.XFCurve, true)
	gain *= crossfadeRamp(velocity, region.XFInVelRange.Lo, region.XFInVelRange.Hi, region.XFCurve, false)
	gain *= crossfadeRamp(velocity, region.XFOutVelRange.Lo, region.XFOutVelRange.Hi, region.XFCurve, true)

	return gain
}

// crossfadeRamp returns the gain/power-curve ramp for one crossfade
// dimension: 0 below lo, 1 above hi (or the reverse when fadeOut is set),
// linear or equal-power-curved in between. A degenerate range (hi < lo)
// means this dimension doesn't participate in the crossfade.
func crossfadeRamp(value, lo, hi float64, curve XFCurve, fadeOut bool) float64 {
	if hi < lo {
		return 1
	}

	var t float64

	switch {
	case value <= lo:
		t = 0
	case value >= hi:
		t = 1
	default:
		t = (value - lo) / (hi - lo)
	}

	if fadeOut {
		t = 1 - t
	}

	if curve == XFPower {
		return math.Sin(t * math.Pi / 2)
	}

	return t
}

// NoteOff transitions the voice toward release. Sample-count-driven one-shot
// regions and regions using the sostenuto/sustain-deferred trigger kinds are
// handled by the caller (VoiceManager), which decides whether to call this
// immediately or defer it until the pedal lifts.
func (v *Voice) NoteOff() {
	if v.state != VoicePlaying {
		return
	}

	v.state = VoiceReleasing
	v.ampEG.Release()

	if v.pitchEG != nil {
		v.pitchEG.Release()
	}

	if v.filterEG != nil {
		v.filterEG.Release()
	}

	for _, fe := range v.flexEGs {
		fe.Release()
	}
}

// Kill forces an immediate bounded fade-out, used by voice stealing and
// off_by group silencing.
func (v *Voice) Kill() {
	v.state = VoiceCleanupPending
	v.ampEG.FastRelease()
}

// Finished reports whether the voice's amplitude envelope has completed its
// release and the voice slot may be reclaimed.
func (v *Voice) Finished() bool {
	return v.ampEG.Done()
}

// Age returns the number of blocks this voice has been rendering, the
// primary signal for age-based voice stealing.
func (v *Voice) Age() int64 { return v.ageBlocks }

// Region returns the region this voice was triggered from.
func (v *Voice) Region() *Region { return v.region }

// NoteNumber returns the MIDI note that triggered this voice.
func (v *Voice) NoteNumber() int { return v.noteNumber }

// State returns the voice's current lifecycle state.
func (v *Voice) State() VoiceState { return v.state }

// Power returns the voice's current smoothed RMS power estimate, used by
// envelope-and-age voice stealing to judge perceptual audibility.
func (v *Voice) Power() float64 { return v.power.Power() }

// release releases the file handle (if any) back to the pool's reader
// accounting; must be called exactly once when the voice is reclaimed.
func (v *Voice) release() {
	if v.hasFile {
		v.handle.Release()
	}
}

// RenderBlock renders n frames into buses (index 0 is main, 1..N are effect
// sends, scaled by the region's BusGains) and advances every control-rate
// and audio-rate state by one block. midi supplies live CC/aftertouch/pitch
// bend values for modulation sources.
func (v *Voice) RenderBlock(buses []*AudioBuffer, n int, midi *MidiState) {
	v.ageBlocks++

	dt := v.controlInterval
	ampEnvVal := v.ampEG.Tick()

	if v.ampEG.Done() {
		return
	}

	var pitchEnvVal, filterEnvVal float64
	if v.pitchEG != nil {
		pitchEnvVal = v.pitchEG.Tick()
	}

	if v.filterEG != nil {
		filterEnvVal = v.filterEG.Tick()
	}

	for _, fe := range v.flexEGs {
		fe.Tick(dt)
	}

	var ampLFOVal, pitchLFOVal, filterLFOVal float64
	if v.ampLFO != nil {
		ampLFOVal = v.ampLFO.Tick(dt)
	}

	if v.pitchLFO != nil {
		pitchLFOVal = v.pitchLFO.Tick(dt)
	}

	if v.filterLFO != nil {
		filterLFOVal = v.filterLFO.Tick(dt)
	}

	if v.mod != nil {
		v.mod.SetSource(ModKey{Kind: ModSrcAmpLFO}, ampLFOVal)
		v.mod.SetSource(ModKey{Kind: ModSrcPitchLFO}, pitchLFOVal)
		v.mod.SetSource(ModKey{Kind: ModSrcFilterLFO}, filterLFOVal)
		v.mod.SetSource(ModKey{Kind: ModSrcAmpEG}, ampEnvVal)
		v.mod.SetSource(ModKey{Kind: ModSrcPitchEG}, pitchEnvVal)
		v.mod.SetSource(ModKey{Kind: ModSrcFilterEG}, filterEnvVal)
		v.mod.SetSource(ModKey{Kind: ModSrcChannelAftertouch}, midi.ChannelAftertouch)
		v.mod.SetSource(ModKey{Kind: ModSrcPitchBend}, midi.PitchBend)
		v.setCCSources(midi)
		v.mod.Resolve(v.triggerVelocity)
	}

	pitchModCents := pitchEnvVal*100 + pitchLFOVal*50
	if v.mod != nil {
		pitchModCents += v.mod.Target(ModKey{Kind: ModTargetPitch})
	}

	freq := v.baseFreq * CentsFactor(pitchModCents)

	left := v.scratchL[:n]
	right := v.scratchR[:n]

	if v.osc != nil {
		v.osc.Render(left, right, n, freq)
	} else if v.hasFile {
		v.renderFromFile(left, right, n, freq)
	}

	gain := float32(ampEnvVal * v.noteGain)
	for i := 0; i < n; i++ {
		left[i] *= gain
		right[i] *= gain
	}

	v.power.Update(left)

	for i, fd := range v.region.Filters {
		cutoff := fd.EffectiveCutoff(v.noteNumber, fd.Keycenter, v.triggerVelocity, 0, filterLFOVal*1200+filterEnvVal*1200)
		if v.mod != nil {
			cutoff *= CentsFactor(v.mod.Target(ModKey{Kind: ModTargetFilterCutoff, Index: i}))
		}

		v.filters[i].UpdateCoefficients(cutoff, fd.Resonance, fd.Gain)
		v.filters[i].ProcessStereo(left, right, n)
	}

	for i, ed := range v.region.EQs {
		center := ed.EffectiveCenter(v.triggerVelocity)
		gainDB := ed.EffectiveGain(v.triggerVelocity)
		v.eqs[i].UpdateCoefficients(center, ed.Bandwidth, gainDB)
		v.eqs[i].ProcessStereo(left, right, n)
	}

	pan := v.region.Pan
	if v.mod != nil {
		pan += v.mod.Target(ModKey{Kind: ModTargetPan}) / 100.0
	}

	v.panSmoother.SetTarget(pan)

	gl, gr := PanGains(v.panSmoother.Tick())

	for i := 0; i < n; i++ {
		left[i], right[i] = WidthPosition(left[i]*gl, right[i]*gr, v.region.Width, v.region.Position)
	}

	for busIdx, bus := range buses {
		if busIdx >= len(v.busGains) {
			break
		}

		busGain := v.busGains[busIdx]
		if busGain == 0 {
			continue
		}

		bus.AddScaledLR(left, right, n, float32(busGain), float32(busGain))
	}
}

// setCCSources publishes the live value of every CC referenced as a
// modulation source or depth modifier, sampled at this voice's trigger
// delay so a voice started mid-block sees the controller value as of its
// own start rather than the end of the previous block.
func (v *Voice) setCCSources(midi *MidiState) {
	for _, c := range v.region.ModConnections {
		if c.Source.Kind == ModSrcCC {
			v.mod.SetSource(c.Source, midi.CCValueAtDelay(c.Source.Index, v.triggerDelay))
		}

		if c.DepthModifier != nil && c.DepthModifier.Kind == ModSrcCC {
			v.mod.SetSource(*c.DepthModifier, midi.CCValueAtDelay(c.DepthModifier.Index, v.triggerDelay))
		}
	}
}

// renderFromFile reads n frames from the voice's file handle at the given
// playback frequency (relative to the region's recorded pitch), applying
// linear interpolation and loop wraparound, zero-filling any tail once the
// source is exhausted.
func (v *Voice) renderFromFile(left, right []float32, n int, freqHz float64) {
	fd := v.handle.Data()
	if fd == nil {
		return
	}

	ratio := v.direction
	if v.baseFreq > 0 {
		ratio *= freqHz / v.baseFreq
	}

	if fd.SampleRate > 0 {
		ratio *= float64(fd.SampleRate) / v.sampleRate
	}

	frame := v.fileFrame
	frameNext := v.fileFrameNext

	loopEnd := v.region.LoopEnd
	if loopEnd == 0 {
		loopEnd = fd.TotalFrames - 1
	}

	for i := 0; i < n; i++ {
		idx := int(math.Floor(v.framePos))
		frac := v.framePos - float64(idx)

		ok1 := fd.FrameAt(idx, frame)
		ok2 := fd.FrameAt(idx+1, frameNext)

		if !ok1 {
			left[i] = 0
			right[i] = 0
		} else {
			var l, r float32
			if fd.Channels == 1 {
				l = frame[0]
				r = frame[0]

				if ok2 {
					l = l + (frameNext[0]-l)*float32(frac)
					r = l
				}
			} else {
				l = frame[0]
				r = frame[1]

				if ok2 {
					l += (frameNext[0] - l) * float32(frac)
					r += (frameNext[1] - r) * float32(frac)
				}
			}

			left[i] = l
			right[i] = r
		}

		v.framePos += ratio

		switch v.region.LoopMode {
		case LoopContinuous, LoopSustain:
			if v.framePos >= float64(loopEnd) {
				v.framePos = float64(v.region.LoopStart) + (v.framePos - float64(loopEnd))
				v.loopsPlayed++

				if v.region.SampleCount > 0 && v.loopsPlayed >= uint32(v.region.SampleCount) {
					v.ampEG.FastRelease()
				}
			}
		default:
			if int(v.framePos) >= v.region.EffectiveSampleEnd() && v.region.EffectiveSampleEnd() > 0 {
				v.ampEG.FastRelease()
			} else if !ok1 {
				v.ampEG.FastRelease()
			}
		}
	}
}
