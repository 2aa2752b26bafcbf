//go:build !fastmath

package freqdist

import "math"

func mathLog10(x float64) float64 {
	return math.Log10(x)
}

func mathPow10(x float64) float64 {
	return math.Pow(10, x)
}
