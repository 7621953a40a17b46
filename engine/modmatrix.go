package engine

/*------------------------------------------------------------------
 *
 * Purpose: Generic source -> target modulation routing. A ModKey
 * identifies either a modulation source (an LFO, an EG, a MIDI
 * controller) or a target parameter (filter cutoff, pan, pitch...);
 * the matrix resolves every connection once per control-rate tick
 * and exposes accumulated depth per target to the render pipeline.
 *
 *------------------------------------------------------------------*/

// ModKeyKind distinguishes the closed set of modulation source/target roles
// a ModKey can name.
type ModKeyKind int

const (
	ModKeyNone ModKeyKind = iota

	// Sources
	ModSrcAmpLFO
	ModSrcPitchLFO
	ModSrcFilterLFO
	ModSrcFlexLFO
	ModSrcAmpEG
	ModSrcPitchEG
	ModSrcFilterEG
	ModSrcFlexEG
	ModSrcChannelAftertouch
	ModSrcPolyAftertouch
	ModSrcCC
	ModSrcPitchBend

	// Targets
	ModTargetGain
	ModTargetPan
	ModTargetPitch
	ModTargetFilterCutoff
	ModTargetFilterResonance
	ModTargetEQGain
	ModTargetEQCenter
	ModTargetLFOFreq
	ModTargetLFODepth
)

// ModKey identifies one source or target of a modulation connection. Index
// disambiguates within a kind (which flex EG/LFO number, which CC, which
// filter/EQ slot).
type ModKey struct {
	Kind  ModKeyKind
	Index int
}

// ModMatrix resolves a region's ModConnections against the current set of
// live source values, accumulating depth per target for one control-rate
// tick.
type ModMatrix struct {
	connections []ModConnection
	sources     map[ModKey]float64
	targets     map[ModKey]float64
}

// NewModMatrix builds a matrix for the given connection list.
func NewModMatrix(connections []ModConnection) *ModMatrix {
	return &ModMatrix{
		connections: connections,
		sources:     make(map[ModKey]float64, len(connections)),
		targets:     make(map[ModKey]float64, len(connections)),
	}
}

// SetSource publishes the current value of one modulation source, to be
// consumed by the next Resolve call.
func (m *ModMatrix) SetSource(key ModKey, value float64) {
	m.sources[key] = value
}

// Resolve recomputes every connection's contribution and accumulates it into
// the per-target map, applying each connection's velocity-dependent depth
// modifier and optional secondary depth-modulation source.
func (m *ModMatrix) Resolve(velocity float64) {
	for k := range m.targets {
		delete(m.targets, k)
	}

	for _, c := range m.connections {
		srcVal, ok := m.sources[c.Source]
		if !ok {
			continue
		}

		depth := c.Depth + c.VelToDepth*velocity

		if c.DepthModifier != nil {
			if modVal, ok := m.sources[*c.DepthModifier]; ok {
				depth *= modVal
			}
		}

		m.targets[c.Target] += srcVal * depth
	}
}

// Target returns the accumulated modulation value for key after the most
// recent Resolve call, or 0 if no connection routes to it.
func (m *ModMatrix) Target(key ModKey) float64 {
	return m.targets[key]
}
