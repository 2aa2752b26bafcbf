package freqdist

import (
	"math"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
)

const (
	melScale  = 2595.0
	melCorner = 700.0
)

// FrequencyToMel converts Hz to mel.
func FrequencyToMel(freqHz float64) float64 {
	return melScale * mathLog10(1+freqHz/melCorner)
}

// MelToFrequency converts mel to Hz.
func MelToFrequency(mel float64) float64 {
	return melCorner * (mathPow10(mel/melScale) - 1)
}

// Distribute writes count stage frequencies for shape into dst and returns
// dst[:count]. dst is reused when its capacity allows, so a caller that
// pre-sizes it never allocates here. count <= 0 or an unknown shape yields
// an empty slice.
func Distribute(dst []float64, minHz, maxHz float64, count int, shape Shape) []float64 {
	if count <= 0 || !shape.Valid() {
		return dst[:0]
	}

	out := core.EnsureLen(dst, count)
	n := float64(count)

	switch shape {
	case Linear:
		step := (maxHz - minHz) / n
		for i := range out {
			out[i] = minHz + float64(i)*step
		}
	case Mel:
		lo := FrequencyToMel(minHz)
		step := (FrequencyToMel(maxHz) - lo) / n

		out[0] = minHz
		for i := 1; i < count; i++ {
			out[i] = MelToFrequency(lo + float64(i)*step)
		}
	case Exponential:
		factor := math.Pow(maxHz-minHz, 1/n)
		for i := range out {
			out[i] = minHz + math.Pow(factor, float64(i))
		}
	case Geometric:
		ratio := maxHz / minHz
		for i := range out {
			out[i] = minHz * math.Pow(ratio, float64(i)/n)
		}
	}

	return out
}
