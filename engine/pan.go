package engine

/*------------------------------------------------------------------
 *
 * Purpose: Equal-power pan law lookup: a cos table and a sin table of
 * 4095 entries each, indexed directly across the full pan range.
 *
 *------------------------------------------------------------------*/

import "math"

// PanTableSize is the number of entries across the full [-1,1] pan range.
const PanTableSize = 4095

var panLeftTable, panRightTable [PanTableSize]float32

func init() {
	for i := 0; i < PanTableSize; i++ {
		// theta sweeps 0..pi/2 across the table; center pan lands at pi/4.
		theta := math.Pi / 2 * float64(i) / float64(PanTableSize-1)
		panLeftTable[i] = float32(math.Cos(theta))
		panRightTable[i] = float32(math.Sin(theta))
	}
}

// PanGains converts a pan value in [-1,1] (-1 full left, 0 center, +1 full
// right) into independent left/right linear gains via the equal-power table.
func PanGains(pan float64) (left, right float32) {
	if pan < -1 {
		pan = -1
	}

	if pan > 1 {
		pan = 1
	}

	idx := int((pan + 1) / 2 * float64(PanTableSize-1))

	return panLeftTable[idx], panRightTable[idx]
}

// WidthPosition applies the width/position stereo-field opcodes to an
// existing stereo frame, applied after pan. width in [0,100]: 0 collapses
// to mono-center, 100 is unchanged.
func WidthPosition(l, r float32, width, position float64) (float32, float32) {
	w := width / 100.0
	mid := (l + r) / 2
	side := (l - r) / 2 * float32(w)

	wl := mid + side
	wr := mid - side

	posLeft, posRight := PanGains(position)

	return wl * posLeft * 1.4142136, wr * posRight * 1.4142136
}
