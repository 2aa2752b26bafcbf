// Package phase measures magnitude, phase and group delay of a rendered
// impulse response.
//
// It is the measurement counterpart of the analytic responses in
// dsp/filter/biquad and dsp/filter/allpass: render a processor's impulse
// response, pass it to [Analyzer.Analyze] and compare. For an all-pass
// cascade the magnitude stays at 0 dB while phase and group delay reveal
// the stage tuning.
package phase
