package engine

/*------------------------------------------------------------------
 *
 * Purpose: Immutable per-region parameters plus the transient
 * activation state reset at each trigger (sequence position, random
 * draw, keyswitch memory).
 *
 * Grounded on: original_source/src/sfizz/Region.h/.cpp, trimmed to
 * the fields this engine's render pipeline actually consumes.
 *
 *------------------------------------------------------------------*/

import "math"

// TriggerKind selects which kind of note event activates a region.
type TriggerKind int

const (
	TriggerAttack TriggerKind = iota
	TriggerRelease
	TriggerReleaseKey
	TriggerFirst
	TriggerLegato
)

// LoopMode selects looping behaviour for file-backed regions.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopOneShot
	LoopContinuous
	LoopSustain
)

// OffMode controls how an off_by group silences voices.
type OffMode int

const (
	OffFast OffMode = iota
	OffNormal
	OffTime
)

// XFCurve selects the crossfade gain law.
type XFCurve int

const (
	XFGain XFCurve = iota
	XFPower
)

// IntRange is an inclusive integer range; Lo > Hi makes the range never match.
type IntRange struct{ Lo, Hi int }

// Contains reports whether v falls within the inclusive range.
func (r IntRange) Contains(v int) bool { return v >= r.Lo && v <= r.Hi }

// FloatRange is an inclusive float range.
type FloatRange struct{ Lo, Hi float64 }

// Contains reports whether v falls within the inclusive range.
func (r FloatRange) Contains(v float64) bool { return v >= r.Lo && v <= r.Hi }

// FullIntRange matches every value, the default for unconstrained conditions.
func FullIntRange() IntRange { return IntRange{Lo: 0, Hi: 127} }

// FullFloatRange01 matches every normalised value.
func FullFloatRange01() FloatRange { return FloatRange{Lo: 0, Hi: 1} }

// CCCondition is one per-CC activation range (spec.md's "CC condition map").
type CCCondition struct {
	Number int
	Range  FloatRange
}

// ADSRParams describes one ADSR envelope's opcode-level parameters.
type ADSRParams struct {
	Delay, Attack, Hold, Decay, Release float64 // seconds
	Sustain                             float64 // 0..1
	Start                               float64 // 0..1, initial level
	AttackShape, DecayShape, ReleaseShape float64 // power-curve shape parameter s
	Vel2Attack, Vel2Decay, Vel2Sustain, Vel2Release float64 // velocity-scaled modifiers
}

// FilterDescription is one entry of a region's filter chain.
type FilterDescription struct {
	Type      FilterType
	Cutoff    float64
	Resonance float64
	Gain      float64
	Keytrack  float64 // cents per key away from Keycenter
	Keycenter int
	Veltrack  float64
	Random    float64
}

// EQDescription is one entry of a region's parametric EQ chain.
type EQDescription struct {
	Type      EQType
	Center    float64
	Bandwidth float64
	Gain      float64
	VelToFreq float64
	VelToGain float64
}

// ModConnection is one source -> target connection in the modulation matrix.
type ModConnection struct {
	Source       ModKey
	Target       ModKey
	Depth        float64
	VelToDepth   float64
	DepthModifier *ModKey
}

// FlexEGPoint is one (time, level, shape) point of a flex envelope.
type FlexEGPoint struct {
	Time, Level, Shape float64
}

// FlexEGDescription describes one flex EG: points plus the sustain index.
type FlexEGDescription struct {
	Points       []FlexEGPoint
	SustainPoint int
}

// LFODescription describes one v1-style or flex LFO.
type LFODescription struct {
	Wave       LFOWave
	Freq       float64
	Phase      float64
	Delay      float64
	Fade       float64
	SubOsc     []LFOSubOscillator
	StepSeq    []float64 // optional step sequencer overriding Wave; empty disables it
	Target     ModKey
	Depth      float64
}

// LFOSubOscillator is one additive component of a multi-sub-oscillator LFO.
type LFOSubOscillator struct {
	Wave   LFOWave
	Offset float64
	Ratio  float64
	Scale  float64
}

// Region holds one SFZ <region>'s immutable parameters plus the transient
// per-trigger state reset on each activation attempt.
type Region struct {
	ID int

	SamplePath string
	Generator  GeneratorKind
	Reverse    bool

	KeyRange         IntRange
	VelocityRange    FloatRange
	CCConditions     []CCCondition
	PitchBendRange   IntRange
	AftertouchRange  FloatRange
	BPMRange         FloatRange
	RandomRange      FloatRange
	SeqLength        int
	SeqPosition      int
	KeyswitchLow     int
	KeyswitchHigh    int
	KeyswitchLast    int // -1 if unset
	KeyswitchUp      int
	KeyswitchDown    int
	Trigger          TriggerKind

	Offset       int
	OffsetRandom int
	End          int
	LoopMode     LoopMode
	LoopStart    int
	LoopEnd      int
	LoopCrossfade float64
	SampleCount  int // one-shot play-count override (forces LoopOneShot)
	OneShot      bool

	PitchKeycenter int
	PitchKeytrack  float64 // cents per semitone
	PitchVeltrack  float64
	PitchRandom    float64
	Transpose      int
	Tune           float64 // cents
	BendUp         float64 // cents
	BendDown       float64 // cents
	BendStep       float64 // cents

	VolumeDB        float64
	Amplitude       float64 // linear gain, 1 = unity (amplitude= percent / 100)
	Pan             float64
	Width           float64
	Position        float64
	AmpKeycenter    int
	AmpKeytrack     float64
	AmpVeltrack     float64
	AmpRandom       float64
	AmpVelCurve     *Curve
	XFInKeyRange    IntRange
	XFOutKeyRange   IntRange
	XFInVelRange    FloatRange
	XFOutVelRange   FloatRange
	XFCurve         XFCurve
	RTDecay         float64 // dB/sec

	AmpEG    ADSRParams
	PitchEG  *ADSRParams
	FilterEG *ADSRParams
	FlexEGs  []FlexEGDescription

	AmpLFO    *LFODescription
	PitchLFO  *LFODescription
	FilterLFO *LFODescription
	FlexLFOs  []LFODescription

	Filters []FilterDescription
	EQs     []EQDescription

	Group        int
	OffByGroup   int
	OffMode      OffMode
	OffTime      float64
	Polyphony      int // region-own polyphony=, 0 means unlimited
	GroupPolyphony int // polyphony= inherited from the enclosing <group>
	SetPolyphony   int // polyphony= inherited from <master>/<global>
	NotePolyphony int
	SelfMask     bool

	SustainCC       int
	SostenutoCC     int
	SustainThreshold float64
	SostenutoThreshold float64
	CheckSustain    bool
	CheckSostenuto  bool

	ModConnections []ModConnection

	BusGains []float64 // index 0 = main, 1..N = effectN

	// Transient, reset per trigger / per load.
	seqCounter int
	lastRandom float64
	disabled   bool
	disableErr error
	regionPoly *PolyphonyGroup // lazily built by PolyphonyTracker
}

// PolyphonyTracker returns the region-own polyphony counter (distinct from
// any group= or set-level cap), building it lazily on first use. Returns nil
// when the region declares no polyphony= of its own.
func (r *Region) PolyphonyTracker() *PolyphonyGroup {
	if r.Polyphony <= 0 {
		return nil
	}

	if r.regionPoly == nil {
		r.regionPoly = NewPolyphonyGroup(r.ID, r.Polyphony)
	}

	return r.regionPoly
}

// FullRegion returns a Region populated with the spec's documented
// defaults, ready for opcode-driven overrides.
func FullRegion(id int) *Region {
	return &Region{
		ID:               id,
		KeyRange:         FullIntRange(),
		VelocityRange:    FullFloatRange01(),
		PitchBendRange:   IntRange{Lo: -8192, Hi: 8191},
		AftertouchRange:  FullFloatRange01(),
		BPMRange:         FloatRange{Lo: 0, Hi: math.MaxFloat64},
		RandomRange:      FloatRange{Lo: 0, Hi: 1},
		SeqLength:        1,
		SeqPosition:      1,
		KeyswitchLast:    -1,
		Trigger:          TriggerAttack,
		LoopMode:         LoopNone,
		Amplitude:        1,
		Width:            100,
		PitchKeycenter:   60,
		AmpKeycenter:     60,
		AmpVeltrack:      1,
		PitchVeltrack:    0,
		AmpVelCurve:      DefaultVelocityCurve(),
		XFInKeyRange:     IntRange{Lo: 0, Hi: -1},
		XFOutKeyRange:    IntRange{Lo: 0, Hi: -1},
		XFInVelRange:     FloatRange{Lo: 0, Hi: -1},
		XFOutVelRange:    FloatRange{Lo: 0, Hi: -1},
		AmpEG:            ADSRParams{Sustain: 1, Release: 0.001},
		SustainCC:        64,
		SostenutoCC:      66,
		SustainThreshold: 0.5,
		SostenutoThreshold: 0.5,
		CheckSustain:     true,
		CheckSostenuto:   true,
		BusGains:         []float64{1},
	}
}

// Disabled reports whether Disable has marked the region inactive. A
// region whose End is 0 is not disabled by that alone.
func (r *Region) Disabled() bool { return r.disabled }

// Disable marks the region permanently inactive and records why, for the
// queryable diagnostics list.
func (r *Region) Disable(err error) {
	r.disabled = true
	r.disableErr = err
}

// DisableReason returns the error that caused Disable, if any.
func (r *Region) DisableReason() error { return r.disableErr }

// Validate enforces the structural invariants: keycenter fields in
// [0,127], loopStart <= loopEnd <= sampleEnd, and the release-floor
// invariant for release-triggered regions.
func (r *Region) Validate() error {
	if r.PitchKeycenter < 0 || r.PitchKeycenter > 127 {
		return &RegionError{RegionID: r.ID, Sample: r.SamplePath, Err: ErrConfigurationInvalid}
	}

	if r.LoopMode == LoopContinuous || r.LoopMode == LoopSustain {
		if !(r.LoopStart <= r.LoopEnd && r.LoopEnd <= r.End) {
			return &RegionError{RegionID: r.ID, Sample: r.SamplePath, Err: ErrConfigurationInvalid}
		}
	}

	if (r.Trigger == TriggerRelease || r.Trigger == TriggerReleaseKey) && r.AmpEG.Release < ReleaseFloorSeconds {
		r.AmpEG.Release = ReleaseFloorSeconds
	}

	if r.SampleCount > 0 {
		r.LoopMode = LoopOneShot
		r.OneShot = true
	}

	return nil
}

// ReleaseFloorSeconds is the minimum amplitude-EG release time for
// release-triggered regions, avoiding a click on an abrupt stop.
const ReleaseFloorSeconds = 0.001

// EffectiveSampleEnd returns r.End, where a non-looping voice stops
// reading its sample; 0 means the sample's own length bounds playback.
func (r *Region) EffectiveSampleEnd() int { return r.End }

// NextSequencePosition advances the round-robin counter modulo SeqLength
// and reports the 1-based position that should be compared against
// r.SeqPosition for this trigger attempt.
func (r *Region) NextSequencePosition() int {
	pos := r.seqCounter%maxInt(r.SeqLength, 1) + 1
	r.seqCounter++

	return pos
}
