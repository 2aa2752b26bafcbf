//go:build fastmath

package freqdist

import (
	"github.com/cwbudde/algo-approx"
)

const ln10 = 2.302585092994045684017991454684

// mathLog10 computes log10(x) as ln(x)/ln(10) with the fast log kernel.
func mathLog10(x float64) float64 {
	return approx.FastLog(x) / ln10
}

// mathPow10 computes 10^x as e^(x*ln(10)) with the fast exp kernel.
func mathPow10(x float64) float64 {
	return approx.FastExp(x * ln10)
}
