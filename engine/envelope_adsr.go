package engine

/*------------------------------------------------------------------
 *
 * Purpose: Delay -> Attack -> Hold -> Decay -> Sustain -> Release ->
 * Fadeout state machine shared by the amplitude, pitch, and filter
 * envelope generators. Shape parameters bend the attack/decay/release
 * segments along a power curve instead of the plain linear ramp, per
 * original_source's "shape" opcode family.
 *
 *------------------------------------------------------------------*/

import "math"

// EnvelopeStage is one segment of the ADSR state machine.
type EnvelopeStage int

const (
	EnvDelay EnvelopeStage = iota
	EnvAttack
	EnvHold
	EnvDecay
	EnvSustain
	EnvRelease
	EnvFadeout
	EnvDone
)

// fadeoutSeconds is the length of the linear ramp to zero that FastRelease
// starts, so a stolen or killed voice (CleanupPending) always terminates in
// bounded time whatever its configured Release.
const fadeoutSeconds = 0.010

// ADSREnvelope is one live instance of an ADSRParams, control-rate stepped.
type ADSREnvelope struct {
	params ADSRParams

	stage     EnvelopeStage
	value     float64
	stageTime float64

	releaseStartValue float64
	controlInterval   float64
}

// NewADSREnvelope builds an envelope at the given control interval (seconds
// between Tick calls).
func NewADSREnvelope(params ADSRParams, controlInterval float64) *ADSREnvelope {
	return &ADSREnvelope{
		params:          params,
		stage:           EnvDelay,
		value:           params.Start,
		controlInterval: controlInterval,
	}
}

// ApplyVelocity scales the attack/decay/sustain/release segments by the
// region's Vel2* modifiers, called once at note-on before the first Tick.
func (e *ADSREnvelope) ApplyVelocity(velocity float64) {
	e.params.Attack += e.params.Vel2Attack * velocity
	e.params.Decay += e.params.Vel2Decay * velocity
	e.params.Sustain += e.params.Vel2Sustain * velocity
	e.params.Release += e.params.Vel2Release * velocity

	if e.params.Attack < 0 {
		e.params.Attack = 0
	}

	if e.params.Decay < 0 {
		e.params.Decay = 0
	}

	if e.params.Sustain < 0 {
		e.params.Sustain = 0
	} else if e.params.Sustain > 1 {
		e.params.Sustain = 1
	}

	if e.params.Release < ReleaseFloorSeconds {
		e.params.Release = ReleaseFloorSeconds
	}
}

// Release transitions the envelope into its release segment, regardless of
// which stage it was previously in (an early note-off during attack/decay
// releases from the current value, not from sustain).
func (e *ADSREnvelope) Release() {
	if e.stage == EnvRelease || e.stage == EnvFadeout || e.stage == EnvDone {
		return
	}

	e.stage = EnvRelease
	e.stageTime = 0
	e.releaseStartValue = e.value
}

// FastRelease forces an immediate drop to the bounded fadeout segment, used
// when a voice is stolen or hard-killed by an off_by group.
func (e *ADSREnvelope) FastRelease() {
	e.stage = EnvFadeout
	e.stageTime = 0
	e.releaseStartValue = e.value
}

// Done reports whether the envelope has finished its release and the voice
// may be reclaimed.
func (e *ADSREnvelope) Done() bool { return e.stage == EnvDone }

// Value returns the current envelope level without advancing state.
func (e *ADSREnvelope) Value() float64 { return e.value }

// Tick advances the envelope by one control interval and returns the new
// level.
func (e *ADSREnvelope) Tick() float64 {
	e.stageTime += e.controlInterval

	switch e.stage {
	case EnvDelay:
		if e.stageTime >= e.params.Delay {
			e.stage = EnvAttack
			e.stageTime = 0
		}

		e.value = e.params.Start
	case EnvAttack:
		if e.params.Attack <= 0 {
			e.value = 1
			e.stage = EnvHold
			e.stageTime = 0
		} else {
			t := e.stageTime / e.params.Attack
			if t >= 1 {
				e.value = 1
				e.stage = EnvHold
				e.stageTime = 0
			} else {
				e.value = shapedRamp(t, e.params.AttackShape)
			}
		}
	case EnvHold:
		e.value = 1

		if e.stageTime >= e.params.Hold {
			e.stage = EnvDecay
			e.stageTime = 0
		}
	case EnvDecay:
		if e.params.Decay <= 0 {
			e.value = e.params.Sustain
			e.stage = EnvSustain
			e.stageTime = 0
		} else {
			t := e.stageTime / e.params.Decay
			if t >= 1 {
				e.value = e.params.Sustain
				e.stage = EnvSustain
				e.stageTime = 0
			} else {
				e.value = 1 - shapedRamp(t, e.params.DecayShape)*(1-e.params.Sustain)
			}
		}
	case EnvSustain:
		e.value = e.params.Sustain
	case EnvRelease:
		if e.params.Release <= 0 {
			e.value = 0
			e.stage = EnvDone
		} else {
			t := e.stageTime / e.params.Release
			if t >= 1 {
				e.value = 0
				e.stage = EnvDone
			} else {
				e.value = e.releaseStartValue * (1 - shapedRamp(t, e.params.ReleaseShape))
			}
		}
	case EnvFadeout:
		t := e.stageTime / fadeoutSeconds
		if t >= 1 {
			e.value = 0
			e.stage = EnvDone
		} else {
			e.value = e.releaseStartValue * (1 - t)
		}
	case EnvDone:
		e.value = 0
	}

	return e.value
}

// shapedRamp bends a linear 0..1 ramp by a power-curve shape parameter: 0
// leaves it linear, positive values bow it toward a slow start/fast finish,
// negative values the reverse.
func shapedRamp(t, shape float64) float64 {
	if shape == 0 {
		return t
	}

	k := math.Exp(shape)

	return math.Pow(t, k)
}
