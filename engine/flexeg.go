package engine

/*------------------------------------------------------------------
 *
 * Purpose: Free-form flex envelope generator: an ordered list of
 * (time, level, shape) points with one designated sustain point. A
 * note-off fast-forwards from wherever the envelope currently sits to
 * the segment following the sustain point, rather than restarting a
 * fixed release segment the way the ADSR generator does.
 *
 *------------------------------------------------------------------*/

import "math"

// FlexEG is one live instance of a FlexEGDescription.
type FlexEG struct {
	desc FlexEGDescription

	segment   int // index of the point we are ramping toward
	elapsed   float64
	value     float64
	released  bool
	done      bool
}

// NewFlexEG builds a flex envelope instance. With no points the level stays
// at 0 and the first Tick marks the envelope done.
func NewFlexEG(desc FlexEGDescription) *FlexEG {
	f := &FlexEG{desc: desc, segment: 1}

	if len(desc.Points) > 0 {
		f.value = desc.Points[0].Level
	}

	if len(desc.Points) == 1 {
		f.done = true
	}

	return f
}

// Release triggers fast-forward past the sustain point toward the final
// point: the next segment ramps from the sustain point's level, not from
// the current value.
func (f *FlexEG) Release() {
	f.released = true

	if f.desc.SustainPoint >= 0 && f.segment <= f.desc.SustainPoint {
		f.segment = f.desc.SustainPoint + 1
		f.elapsed = 0
	}
}

// Done reports whether the envelope has reached its final point.
func (f *FlexEG) Done() bool { return f.done }

// Value returns the current level without advancing state.
func (f *FlexEG) Value() float64 { return f.value }

// Tick advances the envelope by dt seconds and returns the new level.
func (f *FlexEG) Tick(dt float64) float64 {
	points := f.desc.Points

	if f.done || f.segment >= len(points) {
		f.done = true
		return f.value
	}

	// A sustain point with no release yet holds indefinitely at its level.
	if !f.released && f.desc.SustainPoint >= 0 && f.segment-1 == f.desc.SustainPoint {
		f.value = points[f.desc.SustainPoint].Level
		return f.value
	}

	from := points[f.segment-1]
	to := points[f.segment]

	segDuration := to.Time - from.Time
	f.elapsed += dt

	if segDuration <= 0 {
		f.value = to.Level
	} else {
		t := f.elapsed / segDuration
		if t >= 1 {
			f.value = to.Level
		} else {
			f.value = from.Level + (to.Level-from.Level)*shapedRamp(t, to.Shape)
		}
	}

	if f.elapsed >= segDuration {
		f.segment++
		f.elapsed = 0

		if f.segment >= len(points) {
			f.done = true
		}
	}

	return f.value
}

// totalDuration reports the envelope's full unreleased duration, used by
// diagnostics and by tests checking a flex EG terminates in bounded time.
func (f *FlexEG) totalDuration() float64 {
	if len(f.desc.Points) == 0 {
		return 0
	}

	last := f.desc.Points[len(f.desc.Points)-1]

	return math.Max(0, last.Time)
}
