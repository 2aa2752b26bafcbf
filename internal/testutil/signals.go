package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// Clone returns a copy of src.
func Clone(src []float64) []float64 {
	return append([]float64(nil), src...)
}

// RMS returns the root mean square of data, or 0 for an empty slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	return math.Sqrt(Energy(data) / float64(len(data)))
}

// Energy returns the sum of squares of data.
func Energy(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	return vecmath.DotProduct(data, data)
}

// Peak returns the largest absolute value in data.
func Peak(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	return vecmath.MaxAbs(data)
}
