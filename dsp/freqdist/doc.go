// Package freqdist spreads the center frequencies of an all-pass cascade
// across a frequency range.
//
// [Distribute] maps (min, max, count, shape) to count ordered frequencies:
//
//   - [Linear]: f[i] = min + i*(max-min)/count
//   - [Mel]: equal steps on the mel scale, mel(f) = 2595*log10(1 + f/700)
//   - [Exponential]: f[i] = min + ((max-min)^(1/count))^i
//   - [Geometric]: f[i] = min*(max/min)^(i/count)
//
// None of the curves reach max: index count is excluded. [Exponential] keeps
// the historical formula of the MultiAllPass plugin, which offsets a power
// series from min instead of interpolating between min and max. Its first
// stage sits at min+1 and its last at min + (max-min)^((count-1)/count).
// [Geometric] is the interpolating alternative.
//
// Results are not clamped. Callers that feed filters must clamp to the valid
// sub-Nyquist range themselves.
//
// Building with the fastmath tag switches the mel conversions to the
// algo-approx fast exp/log kernels.
package freqdist
