package engine

/*------------------------------------------------------------------
 *
 * Purpose: Engine root: owns the loaded RegionSet, the file pool, the
 * voice manager, and the live MidiState, and drives the per-block
 * render algorithm the host audio callback calls once per buffer.
 *
 *------------------------------------------------------------------*/

import (
	"os"
	"sync"
)

// Synth is the top-level engine instance: one per loaded instrument.
type Synth struct {
	mu sync.Mutex

	config Config
	logger *Logger

	regionSet *RegionSet
	filePool  *FilePool
	voices    *VoiceManager
	tuning    *Tuning
	midi      *MidiState
	diag      Diagnostics

	sampleRate      float64
	blockSize       int
	controlInterval float64

	rng *voiceRNG

	mainBus   *AudioBuffer
	effectBus []*AudioBuffer

	pendingEvents []pendingEvent
}

// pendingEvent is one queued input event with its in-block sample delay,
// collected between RenderBlock calls by the event-ingest methods.
type pendingEvent struct {
	kind  eventKind
	delay int
	key   int
	value float64
}

type eventKind int

const (
	evNoteOn eventKind = iota
	evNoteOff
	evCC
	evPitchWheel
	evAftertouch
	evTempo
)

// NewSynth builds an unloaded engine instance from cfg; call Load before the
// first RenderBlock.
func NewSynth(cfg Config, logger *Logger) (*Synth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Synth{
		config:          cfg,
		logger:          logger,
		sampleRate:      float64(cfg.SampleRate),
		blockSize:       cfg.SamplesPerBlock,
		controlInterval: float64(cfg.SamplesPerBlock) / float64(cfg.SampleRate),
		midi:            NewMidiState(),
		tuning:          NewTuning(60, 261.6255653005986),
		rng:             newVoiceRNG(1),
	}

	s.voices = NewVoiceManager(cfg.NumVoices, cfg.StealingAlgorithm)
	s.allocateBuses()

	return s, nil
}

func (s *Synth) allocateBuses() {
	s.mainBus = NewAudioBuffer(MaxBusChannels, s.blockSize)

	s.effectBus = make([]*AudioBuffer, s.config.NumEffectBuses)
	for i := range s.effectBus {
		s.effectBus[i] = NewAudioBuffer(MaxBusChannels, s.blockSize)
	}
}

// Load installs a parsed, validated region set plus the decoder-backed file
// pool used to resolve sample paths. Regions failing Validate are disabled
// and recorded in diagnostics rather than rejecting the whole load.
func (s *Synth) Load(regions []*Region, decoder SampleDecoder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range regions {
		if err := r.Validate(); err != nil {
			r.Disable(err)
			s.diag.DisabledRegions = append(s.diag.DisabledRegions, r.ID)
		}
	}

	s.regionSet = NewRegionSet(regions)
	s.filePool = NewFilePool(decoder, s.logger, s.config.FileWorkers, s.config.PreloadSize, s.config.Oversampling)

	for _, r := range regions {
		if r.Disabled() || r.Generator != GenNone {
			continue
		}

		if _, err := s.filePool.PreloadSync(FileID{Path: r.SamplePath, Reverse: r.Reverse}, r.SamplePath); err != nil {
			cause := ErrFileDecodeFailure
			if os.IsNotExist(err) {
				cause = ErrFileMissing
			}

			r.Disable(&RegionError{RegionID: r.ID, Sample: r.SamplePath, Err: cause})
			s.diag.DisabledRegions = append(s.diag.DisabledRegions, r.ID)

			if s.logger != nil {
				s.logger.Warn("region disabled: sample load failed", "region", r.ID, "sample", r.SamplePath, "err", err)
			}
		}
	}
}

// SetSampleRate reconfigures the engine's render sample rate. Must be called
// only while quiescent (no active voices); the audio thread never calls
// this itself.
func (s *Synth) SetSampleRate(sr float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sampleRate = sr
	s.controlInterval = float64(s.blockSize) / sr
}

// SetSamplesPerBlock reconfigures the block size and reallocates the bus
// buffers. Must be called only while quiescent.
func (s *Synth) SetSamplesPerBlock(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blockSize = n
	s.controlInterval = float64(n) / s.sampleRate
	s.allocateBuses()
}

// SetNumVoices reconfigures the global polyphony cap.
func (s *Synth) SetNumVoices(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.voices = NewVoiceManager(n, s.config.StealingAlgorithm)
}

// NoteOn queues a note-on event at the given in-block sample delay.
func (s *Synth) NoteOn(delay, key int, velocity float64) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evNoteOn, delay: delay, key: key, value: velocity})
}

// NoteOff queues a note-off event.
func (s *Synth) NoteOff(delay, key int) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evNoteOff, delay: delay, key: key})
}

// CC queues a controller change.
func (s *Synth) CC(delay, number int, value float64) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evCC, delay: delay, key: number, value: value})
}

// PitchWheel queues a pitch-bend change, normalised to [-1, 1].
func (s *Synth) PitchWheel(delay int, value float64) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evPitchWheel, delay: delay, value: value})
}

// Aftertouch queues a channel-aftertouch change, normalised to [0, 1].
func (s *Synth) Aftertouch(delay int, value float64) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evAftertouch, delay: delay, value: value})
}

// Tempo queues a host tempo change, in seconds per quarter note.
func (s *Synth) Tempo(delay int, secPerQuarter float64) {
	s.pendingEvents = append(s.pendingEvents, pendingEvent{kind: evTempo, delay: delay, value: secPerQuarter})
}

// AllSoundOff force-kills every active voice, bypassing release envelopes.
func (s *Synth) AllSoundOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.voices.KillAll()
}

// RenderBlock renders exactly n frames (n must be <= the configured block
// size) into out, applying every queued event in delay order first. This is
// the only method intended to run on the real-time audio thread; it never
// allocates beyond the fixed per-voice temporaries already sized at Load
// time, never takes a lock that a background worker can hold for long, and
// never blocks on file I/O (a voice reading past AvailableFrames simply
// renders silence for the remainder of the block).
func (s *Synth) RenderBlock(out *AudioBuffer, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out.Clear(n)
	s.mainBus.Clear(n)

	for _, b := range s.effectBus {
		b.Clear(n)
	}

	s.ingestEvents()

	if s.regionSet != nil {
		buses := append([]*AudioBuffer{s.mainBus}, s.effectBus...)

		for _, v := range s.voices.Voices() {
			v.RenderBlock(buses, n, s.midi)
		}

		s.voices.ReapFinished(s.regionSet)
	}

	out.AddScaled(s.mainBus, n, 1, 1)

	for _, b := range s.effectBus {
		out.AddScaled(b, n, 1, 1)
	}

	s.midi.EndBlock()
}

func (s *Synth) ingestEvents() {
	// Stable insertion sort by delay: events at equal delay keep their
	// insertion order, and the sort works in place without allocating.
	for i := 1; i < len(s.pendingEvents); i++ {
		for j := i; j > 0 && s.pendingEvents[j].delay < s.pendingEvents[j-1].delay; j-- {
			s.pendingEvents[j], s.pendingEvents[j-1] = s.pendingEvents[j-1], s.pendingEvents[j]
		}
	}

	for _, ev := range s.pendingEvents {
		switch ev.kind {
		case evNoteOn:
			s.handleNoteOn(ev)
		case evNoteOff:
			s.handleNoteOff(ev)
		case evCC:
			s.handleCC(ev)
		case evPitchWheel:
			s.midi.PitchWheel(ev.delay, ev.value)
		case evAftertouch:
			s.midi.Aftertouch(ev.delay, ev.value)
		case evTempo:
			s.midi.Tempo(ev.delay, ev.value)
		}
	}

	s.pendingEvents = s.pendingEvents[:0]
}

func (s *Synth) handleNoteOn(ev pendingEvent) {
	velocity := ev.value

	if s.isKeyswitch(ev.key) {
		s.midi.SetKeyswitch(ev.key)
		return
	}

	s.midi.NoteOn(ev.delay, ev.key, velocity)

	if s.regionSet == nil {
		return
	}

	var anchor *Voice

	for _, r := range s.regionSet.Regions {
		draw := s.rng.Float64()

		if !MatchesNoteOn(r, s.midi, ev.key, velocity, draw) {
			continue
		}

		v, err := s.voices.Activate(r, s.regionSet, ev.key, velocity, ev.delay, s.sampleRate, s.blockSize, s.controlInterval, s.rng, s.filePool, s.tuning)
		if err != nil {
			s.diag.VoiceStealFailures++
			continue
		}

		// Voices started by this note-on share one sister ring. An anchor
		// reclaimed meanwhile has left its ring, so v starts a new one.
		if v != nil {
			if anchor != nil && anchor.ring.next != nil {
				linkSisters(anchor, v)
			} else {
				anchor = v
			}
		}
	}
}

func (s *Synth) handleNoteOff(ev pendingEvent) {
	prev := s.midi.NoteOff(ev.delay, ev.key)

	if s.regionSet != nil {
		for _, r := range s.regionSet.Regions {
			if MatchesNoteOff(r, s.midi, ev.key, prev.Velocity) {
				s.voices.Activate(r, s.regionSet, ev.key, prev.Velocity, ev.delay, s.sampleRate, s.blockSize, s.controlInterval, s.rng, s.filePool, s.tuning)
			}
		}
	}

	s.voices.ReleaseNote(ev.key, s.midi)
}

func (s *Synth) handleCC(ev pendingEvent) {
	number := ev.key
	wasSustain := s.midi.SustainPedal
	wasSostenuto := s.midi.SostenutoPedal

	s.midi.CC(ev.delay, number, ev.value)

	if number == 64 && wasSustain && !s.midi.SustainPedal {
		s.voices.ReleasePedalHeld(s.midi, true)
	}

	if number == 66 && wasSostenuto && !s.midi.SostenutoPedal {
		s.voices.ReleasePedalHeld(s.midi, false)
	}
}

func (s *Synth) isKeyswitch(key int) bool {
	if s.regionSet == nil {
		return false
	}

	for _, r := range s.regionSet.Regions {
		if r.KeyswitchLow == 0 && r.KeyswitchHigh == 0 {
			continue
		}

		if key >= r.KeyswitchLow && key <= r.KeyswitchHigh {
			return true
		}
	}

	return false
}

// Diagnostics returns a snapshot of queryable engine state.
func (s *Synth) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.diag
	d.NumActiveVoices = s.voices.ActiveCount()

	if s.filePool != nil {
		d.KnownFiles = len(s.filePool.Entries())
		d.FileLoadQueueFull = s.filePool.QueueFullCount()
	}

	return d
}

// Close releases background resources (file pool workers and GC thread).
func (s *Synth) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filePool != nil {
		s.filePool.Shutdown()
	}
}
