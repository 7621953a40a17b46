package engine

/*------------------------------------------------------------------
 *
 * Purpose: Oversampling factor support (oversampling config option)
 * applied to preloaded/streamed sample data.
 *
 * Grounded on: original_source/src/sfizz/Oversampler.cpp, simplified
 * to a single-stage linear-interpolation upsampler (no cascaded
 * polyphase FIR stages: resampling filter internals are a declared
 * black-box contract, out of scope here).
 *
 *------------------------------------------------------------------*/

// Oversample produces an upsampled copy of src at the given integer factor
// (1, 2, 4, or 8) using linear interpolation between original samples. A
// factor of 1 returns src unchanged (no copy).
func Oversample(src []float32, factor int) []float32 {
	if factor <= 1 || len(src) < 2 {
		return src
	}

	out := make([]float32, (len(src)-1)*factor+1)

	for i := 0; i < len(src)-1; i++ {
		a, b := src[i], src[i+1]

		for j := 0; j < factor; j++ {
			t := float32(j) / float32(factor)
			out[i*factor+j] = a + (b-a)*t
		}
	}

	out[len(out)-1] = src[len(src)-1]

	return out
}

// OversampledRate scales a base sample rate by the oversampling factor.
func OversampledRate(baseRate, factor int) int {
	if factor <= 1 {
		return baseRate
	}

	return baseRate * factor
}
