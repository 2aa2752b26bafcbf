package allpass

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/biquad"
)

// FirstOrder is a single-pole all-pass filter in transposed form:
//
//	y = a1*x + d
//	d = x - a1*y
//
// The zero value is a one-sample delay (a1 = 0) that must be initialized
// with [FirstOrder.Init] before frequency-based tuning.
type FirstOrder struct {
	sampleRate float64
	a1         float64
	d          float64
}

// Init stores the sample rate in Hz. It panics if sampleRate is not > 0
// and finite.
func (f *FirstOrder) Init(sampleRate float64) {
	mustSampleRate(sampleRate)
	f.sampleRate = sampleRate
}

// SetFrequency sets the pole from a center frequency in Hz, where the phase
// shift reaches -90 degrees. The frequency is not validated; it must lie in
// (0, fs/2). It panics if Init has not been called.
func (f *FirstOrder) SetFrequency(freqHz float64) {
	if f.sampleRate == 0 {
		panic("allpass: FirstOrder.SetFrequency called before Init")
	}

	t := math.Tan(math.Pi * freqHz / f.sampleRate)
	f.a1 = (t - 1) / (t + 1)
}

// SetCoefficient sets the pole a1 directly. |a1| < 1 keeps the filter stable.
func (f *FirstOrder) SetCoefficient(a1 float64) {
	f.a1 = a1
}

// Coefficient returns a1.
func (f *FirstOrder) Coefficient() float64 { return f.a1 }

// SampleRate returns the sample rate set by Init, or 0.
func (f *FirstOrder) SampleRate() float64 { return f.sampleRate }

// Process filters one sample.
func (f *FirstOrder) Process(x float64) float64 {
	y := f.a1*x + f.d
	f.d = core.FlushDenormals(x - f.a1*y)

	return y
}

// Reset clears the one-sample history.
func (f *FirstOrder) Reset() {
	f.d = 0
}

// Coefficients returns the equivalent biquad transfer function.
func (f *FirstOrder) Coefficients() biquad.Coefficients {
	return biquad.Coefficients{B0: f.a1, B1: 1, A1: f.a1}
}

func mustSampleRate(sampleRate float64) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		panic(fmt.Sprintf("allpass: sample rate must be > 0 and finite: %f", sampleRate))
	}
}
