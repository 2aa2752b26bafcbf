package allpass

import (
	"math"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/biquad"
)

// SecondOrder is a two-pole all-pass filter in direct form I:
//
//	y = c2*x + c1*x1 + x2 - c1*y1 - c2*y2
//
// Its phase passes through -180 degrees at the center frequency; Q sets how
// abruptly. The zero value is a two-sample delay.
type SecondOrder struct {
	sampleRate float64
	c1, c2     float64

	x1, x2 float64
	y1, y2 float64
}

// Init stores the sample rate in Hz. It panics if sampleRate is not > 0
// and finite.
func (s *SecondOrder) Init(sampleRate float64) {
	mustSampleRate(sampleRate)
	s.sampleRate = sampleRate
}

// SetFrequencyQ derives the coefficients from a center frequency in Hz and a
// quality factor using the bilinear-transform all-pass prototype:
//
//	w0 = 2*pi*f/fs, alpha = sin(w0)/(2Q)
//	c1 = -2cos(w0)/(1+alpha), c2 = (1-alpha)/(1+alpha)
//
// Inputs are not validated; callers keep f in (0, fs/2) and q > 0.
// It panics if Init has not been called.
func (s *SecondOrder) SetFrequencyQ(freqHz, q float64) {
	if s.sampleRate == 0 {
		panic("allpass: SecondOrder.SetFrequencyQ called before Init")
	}

	w0 := 2 * math.Pi * freqHz / s.sampleRate
	alpha := math.Sin(w0) / (2 * q)
	norm := 1 / (1 + alpha)

	s.c1 = -2 * math.Cos(w0) * norm
	s.c2 = (1 - alpha) * norm
}

// SetCoefficients sets c1 and c2 directly. The filter is stable for
// |c2| < 1 and |c1| < 1 + c2.
func (s *SecondOrder) SetCoefficients(c1, c2 float64) {
	s.c1 = c1
	s.c2 = c2
}

// Coefficient returns (c1, c2).
func (s *SecondOrder) Coefficient() (c1, c2 float64) { return s.c1, s.c2 }

// SampleRate returns the sample rate set by Init, or 0.
func (s *SecondOrder) SampleRate() float64 { return s.sampleRate }

// Process filters one sample.
func (s *SecondOrder) Process(x float64) float64 {
	y := s.c2*x + s.c1*s.x1 + s.x2 - s.c1*s.y1 - s.c2*s.y2

	s.x2 = s.x1
	s.x1 = x
	s.y2 = s.y1
	s.y1 = core.FlushDenormals(y)

	return y
}

// Reset clears the input and output history.
func (s *SecondOrder) Reset() {
	s.x1, s.x2 = 0, 0
	s.y1, s.y2 = 0, 0
}

// Coefficients returns the equivalent biquad transfer function.
func (s *SecondOrder) Coefficients() biquad.Coefficients {
	return biquad.Coefficients{B0: s.c2, B1: s.c1, B2: 1, A1: s.c1, A2: s.c2}
}
