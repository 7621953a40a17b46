package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSFZGroupsOpcodesUnderHeaders(t *testing.T) {
	text := `
<group>
amp_veltrack=50
<region>
sample=*sine
lokey=60 hikey=72
`
	records := ParseSFZ(text)

	require.Len(t, records, 2)
	assert.Equal(t, HeaderGroup, records[0].Header)
	assert.Equal(t, HeaderRegion, records[1].Header)
	assert.Equal(t, Opcode{Name: "amp_veltrack", Value: "50"}, records[0].Opcodes[0])
	assert.Contains(t, records[1].Opcodes, Opcode{Name: "sample", Value: "*sine"})
	assert.Contains(t, records[1].Opcodes, Opcode{Name: "lokey", Value: "60"})
	assert.Contains(t, records[1].Opcodes, Opcode{Name: "hikey", Value: "72"})
}

func TestParseSFZSkipsCommentsAndBlankLines(t *testing.T) {
	text := `
// a top-of-file comment
<region>
// inline comment line
sample=*sine
`
	records := ParseSFZ(text)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Opcodes, 1)
}

func TestParseSFZIgnoresUnknownHeaders(t *testing.T) {
	text := "<bogus>\nfoo=bar\n<region>\nsample=*sine\n"
	records := ParseSFZ(text)

	require.Len(t, records, 1)
	assert.Equal(t, HeaderRegion, records[0].Header)
}

func TestBuildRegionsInheritsGlobalAndGroupOpcodes(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderGlobal, Opcodes: []Opcode{{Name: "volume", Value: "-6"}}},
		{Header: HeaderGroup, Opcodes: []Opcode{{Name: "amp_veltrack", Value: "50"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}, {Name: "lokey", Value: "60"}}},
	}

	regions, warnings := BuildRegions(records)

	require.Len(t, regions, 1)
	assert.Empty(t, warnings)
	assert.InDelta(t, -6, regions[0].VolumeDB, 1e-9)
	assert.InDelta(t, 0.5, regions[0].AmpVeltrack, 1e-9)
	assert.Equal(t, 60, regions[0].KeyRange.Lo)
	assert.Equal(t, GenSine, regions[0].Generator)
}

func TestBuildRegionsLaterRegionOverridesInheritedOpcode(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderGroup, Opcodes: []Opcode{{Name: "volume", Value: "-6"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}, {Name: "volume", Value: "0"}}},
	}

	regions, _ := BuildRegions(records)

	require.Len(t, regions, 1)
	assert.InDelta(t, 0, regions[0].VolumeDB, 1e-9)
}

func TestBuildRegionsAttributesPolyphonyToTheDeclaringScope(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderGlobal, Opcodes: []Opcode{{Name: "polyphony", Value: "16"}}},
		{Header: HeaderGroup, Opcodes: []Opcode{{Name: "polyphony", Value: "4"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}, {Name: "polyphony", Value: "1"}}},
	}

	regions, _ := BuildRegions(records)

	require.Len(t, regions, 1)
	assert.Equal(t, 1, regions[0].Polyphony, "a bare region-level polyphony= must not be shadowed by the group/set scopes")
	assert.Equal(t, 4, regions[0].GroupPolyphony)
	assert.Equal(t, 16, regions[0].SetPolyphony)
}

func TestBuildRegionsGroupOpcodesDoNotLeakIntoTheNextGroup(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderGroup, Opcodes: []Opcode{{Name: "polyphony", Value: "4"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}}},
		{Header: HeaderGroup, Opcodes: []Opcode{{Name: "amp_veltrack", Value: "50"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*saw"}}},
	}

	regions, _ := BuildRegions(records)

	require.Len(t, regions, 2)
	assert.Equal(t, 4, regions[0].GroupPolyphony)
	assert.Equal(t, 0, regions[1].GroupPolyphony, "a new <group> header must not inherit the previous group's opcodes")
}

func TestBuildRegionsEachRegionGetsSequentialID(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}}},
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*saw"}}},
	}

	regions, _ := BuildRegions(records)

	require.Len(t, regions, 2)
	assert.Equal(t, 0, regions[0].ID)
	assert.Equal(t, 1, regions[1].ID)
}

func TestBuildRegionsWarnsOnUnrecognizedOpcode(t *testing.T) {
	records := []OpcodeRecord{
		{Header: HeaderRegion, Opcodes: []Opcode{{Name: "sample", Value: "*sine"}, {Name: "totally_bogus_opcode", Value: "1"}}},
	}

	_, warnings := BuildRegions(records)

	require.Len(t, warnings, 1)
	assert.Equal(t, "totally_bogus_opcode", warnings[0].Name)
}

func TestApplyOpcodeNormalizesVelocityRangeFrom127(t *testing.T) {
	r := FullRegion(0)
	var warnings []OpcodeWarning

	applyOpcode(r, Opcode{Name: "lovel", Value: "64"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "hivel", Value: "127"}, scopeRegion, &warnings)

	assert.InDelta(t, 64.0/127.0, r.VelocityRange.Lo, 1e-6)
	assert.InDelta(t, 1.0, r.VelocityRange.Hi, 1e-6)
}

func TestApplyOpcodeKeyOpcodeSetsRangeAndKeycenter(t *testing.T) {
	r := FullRegion(0)
	var warnings []OpcodeWarning

	applyOpcode(r, Opcode{Name: "key", Value: "64"}, scopeRegion, &warnings)

	assert.Equal(t, IntRange{Lo: 64, Hi: 64}, r.KeyRange)
	assert.Equal(t, 64, r.PitchKeycenter)
}

func TestApplyOpcodeParsesCrossfadeAndAmplitudeOpcodes(t *testing.T) {
	r := FullRegion(0)
	var warnings []OpcodeWarning

	applyOpcode(r, Opcode{Name: "amplitude", Value: "50"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "xfin_lokey", Value: "48"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "xfin_hikey", Value: "60"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "xfout_lovel", Value: "100"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "xfout_hivel", Value: "127"}, scopeRegion, &warnings)
	applyOpcode(r, Opcode{Name: "xf_velcurve", Value: "power"}, scopeRegion, &warnings)

	assert.Empty(t, warnings)
	assert.InDelta(t, 0.5, r.Amplitude, 1e-9)
	assert.Equal(t, IntRange{Lo: 48, Hi: 60}, r.XFInKeyRange)
	assert.InDelta(t, 100.0/127.0, r.XFOutVelRange.Lo, 1e-6)
	assert.InDelta(t, 1.0, r.XFOutVelRange.Hi, 1e-6)
	assert.Equal(t, XFPower, r.XFCurve)
}

func TestParseLoopModeMapsKnownValuesAndDefaultsToNoLoop(t *testing.T) {
	assert.Equal(t, LoopOneShot, parseLoopMode("one_shot"))
	assert.Equal(t, LoopContinuous, parseLoopMode("loop_continuous"))
	assert.Equal(t, LoopSustain, parseLoopMode("loop_sustain"))
	assert.Equal(t, LoopNone, parseLoopMode("garbage"))
}

func TestParseTriggerMapsKnownValuesAndDefaultsToAttack(t *testing.T) {
	assert.Equal(t, TriggerRelease, parseTrigger("release"))
	assert.Equal(t, TriggerReleaseKey, parseTrigger("release_key"))
	assert.Equal(t, TriggerFirst, parseTrigger("first"))
	assert.Equal(t, TriggerLegato, parseTrigger("legato"))
	assert.Equal(t, TriggerAttack, parseTrigger("garbage"))
}

func TestAtoiOrFallsBackOnParseFailure(t *testing.T) {
	assert.Equal(t, 42, atoiOr("not a number", 42))
	assert.Equal(t, 7, atoiOr("7", 42))
}

func TestAtofOrFallsBackOnParseFailure(t *testing.T) {
	assert.InDelta(t, 1.5, atofOr("nope", 1.5), 1e-9)
	assert.InDelta(t, 3.25, atofOr("3.25", 1.5), 1e-9)
}
