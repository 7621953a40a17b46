package engine

/*------------------------------------------------------------------
 *
 * Purpose: A narrow stand-in for the excluded SFZ lexer/parser: reads
 * plain key=value opcode lines bucketed under <header> sections, and
 * aggregates them globals -> masters -> groups -> regions into the
 * engine's Region objects. This is deliberately not a complete SFZ
 * parser (no #include, no sample= path resolution beyond a literal
 * string, no wildcard opcode expansion like loopoint1-4); it exists
 * to exercise BuildRegions end-to-end for the demos and tests.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"strconv"
	"strings"
)

// HeaderKind is the closed set of SFZ section headers this parser
// recognizes.
type HeaderKind int

const (
	HeaderGlobal HeaderKind = iota
	HeaderMaster
	HeaderGroup
	HeaderRegion
	HeaderControl
	HeaderCurve
	HeaderEffect
)

// Opcode is one name=value pair within a header section.
type Opcode struct {
	Name  string
	Value string
}

// OpcodeRecord is one parsed header section: the kind plus its opcodes in
// source order.
type OpcodeRecord struct {
	Header  HeaderKind
	Opcodes []Opcode
}

func parseHeaderKind(tag string) (HeaderKind, bool) {
	switch tag {
	case "global":
		return HeaderGlobal, true
	case "master":
		return HeaderMaster, true
	case "group":
		return HeaderGroup, true
	case "region":
		return HeaderRegion, true
	case "control":
		return HeaderControl, true
	case "curve":
		return HeaderCurve, true
	case "effect":
		return HeaderEffect, true
	default:
		return 0, false
	}
}

// ParseSFZ reads a minimal SFZ-like text format: <header> lines introduce a
// new section, and name=value tokens (whitespace-separated, no embedded
// spaces in values) belong to the most recently opened section. Comment
// lines starting with // are skipped.
func ParseSFZ(text string) []OpcodeRecord {
	var records []OpcodeRecord

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		for len(line) > 0 {
			if strings.HasPrefix(line, "<") {
				end := strings.Index(line, ">")
				if end < 0 {
					break
				}

				tag := strings.ToLower(strings.TrimSpace(line[1:end]))
				line = strings.TrimSpace(line[end+1:])

				if kind, ok := parseHeaderKind(tag); ok {
					records = append(records, OpcodeRecord{Header: kind})
				}

				continue
			}

			token, rest := nextToken(line)
			line = rest

			if token == "" {
				break
			}

			eq := strings.IndexByte(token, '=')
			if eq < 0 || len(records) == 0 {
				continue
			}

			name := token[:eq]
			value := token[eq+1:]

			last := &records[len(records)-1]
			last.Opcodes = append(last.Opcodes, Opcode{Name: name, Value: value})
		}
	}

	return records
}

// nextToken splits off the next whitespace-delimited token, treating a run
// of non-space characters as one token (SFZ opcode values never contain
// unescaped spaces in the subset this parser supports).
func nextToken(line string) (token, rest string) {
	line = strings.TrimLeft(line, " \t")

	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}

	return line[:idx], line[idx:]
}

// opcodeScope distinguishes the header level an opcode was declared at, so
// a bare "polyphony=" can be attributed to the right layer of spec.md's
// note -> region -> group -> set -> engine polyphony hierarchy instead of
// being folded into one counter.
type opcodeScope int

const (
	scopeRegion opcodeScope = iota
	scopeGroup
	scopeSet
)

// BuildRegions aggregates a parsed opcode stream into Region objects,
// applying global -> master -> group -> region inheritance: opcodes set at
// an outer level apply to every region nested under it unless overridden.
// <global>/<master> opcodes persist for the whole file; <group> opcodes
// persist only until the next <group> header.
func BuildRegions(records []OpcodeRecord) ([]*Region, []OpcodeWarning) {
	var regions []*Region
	var warnings []OpcodeWarning

	id := 0

	var pendingSet []Opcode   // accumulated global+master opcodes, in order
	var pendingGroup []Opcode // opcodes of the current group only

	for _, rec := range records {
		switch rec.Header {
		case HeaderGlobal, HeaderMaster:
			pendingSet = append(pendingSet, rec.Opcodes...)
		case HeaderGroup:
			pendingGroup = append([]Opcode(nil), rec.Opcodes...)
		case HeaderRegion:
			r := FullRegion(id)
			id++

			for _, op := range pendingSet {
				applyOpcode(r, op, scopeSet, &warnings)
			}

			for _, op := range pendingGroup {
				applyOpcode(r, op, scopeGroup, &warnings)
			}

			for _, op := range rec.Opcodes {
				applyOpcode(r, op, scopeRegion, &warnings)
			}

			regions = append(regions, r)
		default:
			// control/curve/effect sections configure ancillary collaborators
			// (default path prefix, curve tables, effect bus routing) not
			// modeled by this narrow stand-in parser.
		}
	}

	return regions, warnings
}

func applyOpcode(r *Region, op Opcode, scope opcodeScope, warnings *[]OpcodeWarning) {
	switch op.Name {
	case "sample":
		r.SamplePath = op.Value
		r.Generator = ParseGeneratorName(op.Value)
	case "lokey":
		r.KeyRange.Lo = atoiOr(op.Value, r.KeyRange.Lo)
	case "hikey":
		r.KeyRange.Hi = atoiOr(op.Value, r.KeyRange.Hi)
	case "key":
		v := atoiOr(op.Value, r.KeyRange.Lo)
		r.KeyRange = IntRange{Lo: v, Hi: v}
		r.PitchKeycenter = v
	case "lovel":
		r.VelocityRange.Lo = atofOr(op.Value, r.VelocityRange.Lo*127) / 127.0
	case "hivel":
		r.VelocityRange.Hi = atofOr(op.Value, r.VelocityRange.Hi*127) / 127.0
	case "pitch_keycenter":
		r.PitchKeycenter = atoiOr(op.Value, r.PitchKeycenter)
	case "pitch_keytrack":
		r.PitchKeytrack = atofOr(op.Value, r.PitchKeytrack)
	case "tune":
		r.Tune = atofOr(op.Value, r.Tune)
	case "transpose":
		r.Transpose = atoiOr(op.Value, r.Transpose)
	case "offset":
		r.Offset = atoiOr(op.Value, r.Offset)
	case "end":
		r.End = atoiOr(op.Value, r.End)
	case "loop_mode":
		r.LoopMode = parseLoopMode(op.Value)
	case "loop_start":
		r.LoopStart = atoiOr(op.Value, r.LoopStart)
	case "loop_end":
		r.LoopEnd = atoiOr(op.Value, r.LoopEnd)
	case "count":
		r.SampleCount = atoiOr(op.Value, r.SampleCount)
	case "volume":
		r.VolumeDB = atofOr(op.Value, r.VolumeDB)
	case "amplitude":
		r.Amplitude = atofOr(op.Value, r.Amplitude*100) / 100.0
	case "pan":
		r.Pan = atofOr(op.Value, r.Pan) / 100.0
	case "width":
		r.Width = atofOr(op.Value, r.Width)
	case "position":
		r.Position = atofOr(op.Value, r.Position) / 100.0
	case "amp_keytrack":
		r.AmpKeytrack = atofOr(op.Value, r.AmpKeytrack)
	case "amp_veltrack":
		r.AmpVeltrack = atofOr(op.Value, r.AmpVeltrack) / 100.0
	case "xfin_lokey":
		r.XFInKeyRange.Lo = atoiOr(op.Value, r.XFInKeyRange.Lo)
	case "xfin_hikey":
		r.XFInKeyRange.Hi = atoiOr(op.Value, r.XFInKeyRange.Hi)
	case "xfout_lokey":
		r.XFOutKeyRange.Lo = atoiOr(op.Value, r.XFOutKeyRange.Lo)
	case "xfout_hikey":
		r.XFOutKeyRange.Hi = atoiOr(op.Value, r.XFOutKeyRange.Hi)
	case "xfin_lovel":
		r.XFInVelRange.Lo = atofOr(op.Value, r.XFInVelRange.Lo*127) / 127.0
	case "xfin_hivel":
		r.XFInVelRange.Hi = atofOr(op.Value, r.XFInVelRange.Hi*127) / 127.0
	case "xfout_lovel":
		r.XFOutVelRange.Lo = atofOr(op.Value, r.XFOutVelRange.Lo*127) / 127.0
	case "xfout_hivel":
		r.XFOutVelRange.Hi = atofOr(op.Value, r.XFOutVelRange.Hi*127) / 127.0
	case "xf_velcurve", "xf_keycurve":
		if op.Value == "power" {
			r.XFCurve = XFPower
		} else {
			r.XFCurve = XFGain
		}
	case "group":
		r.Group = atoiOr(op.Value, r.Group)
	case "off_by":
		r.OffByGroup = atoiOr(op.Value, r.OffByGroup)
	case "polyphony":
		switch scope {
		case scopeGroup:
			r.GroupPolyphony = atoiOr(op.Value, r.GroupPolyphony)
		case scopeSet:
			r.SetPolyphony = atoiOr(op.Value, r.SetPolyphony)
		default:
			r.Polyphony = atoiOr(op.Value, r.Polyphony)
		}
	case "note_polyphony":
		r.NotePolyphony = atoiOr(op.Value, r.NotePolyphony)
	case "note_selfmask":
		r.SelfMask = op.Value == "on"
	case "trigger":
		r.Trigger = parseTrigger(op.Value)
	case "seq_length":
		r.SeqLength = atoiOr(op.Value, r.SeqLength)
	case "seq_position":
		r.SeqPosition = atoiOr(op.Value, r.SeqPosition)
	case "sw_lokey":
		r.KeyswitchLow = atoiOr(op.Value, r.KeyswitchLow)
	case "sw_hikey":
		r.KeyswitchHigh = atoiOr(op.Value, r.KeyswitchHigh)
	case "ampeg_attack":
		r.AmpEG.Attack = atofOr(op.Value, r.AmpEG.Attack)
	case "ampeg_decay":
		r.AmpEG.Decay = atofOr(op.Value, r.AmpEG.Decay)
	case "ampeg_sustain":
		r.AmpEG.Sustain = atofOr(op.Value, r.AmpEG.Sustain*100) / 100.0
	case "ampeg_release":
		r.AmpEG.Release = atofOr(op.Value, r.AmpEG.Release)
	case "ampeg_delay":
		r.AmpEG.Delay = atofOr(op.Value, r.AmpEG.Delay)
	case "ampeg_hold":
		r.AmpEG.Hold = atofOr(op.Value, r.AmpEG.Hold)
	default:
		*warnings = append(*warnings, OpcodeWarning{Name: op.Name, Value: op.Value, Reason: "unrecognized by the narrow in-tree parser"})
	}
}

func parseLoopMode(v string) LoopMode {
	switch v {
	case "no_loop":
		return LoopNone
	case "one_shot":
		return LoopOneShot
	case "loop_continuous":
		return LoopContinuous
	case "loop_sustain":
		return LoopSustain
	default:
		return LoopNone
	}
}

func parseTrigger(v string) TriggerKind {
	switch v {
	case "release":
		return TriggerRelease
	case "release_key":
		return TriggerReleaseKey
	case "first":
		return TriggerFirst
	case "legato":
		return TriggerLegato
	default:
		return TriggerAttack
	}
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}

	return v
}

func atofOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}

	return v
}
