// Package biquad provides a scalar second-order IIR section runtime and the
// analytic frequency, phase and group-delay response of its transfer function.
//
// A [Section] implements Direct Form II Transposed processing for one set of
// [Coefficients]. A [Chain] cascades sections in series.
//
// The all-pass primitives in dsp/filter/allpass describe themselves as
// [Coefficients] so their responses can be evaluated and cross-checked here:
//
//	H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
package biquad
