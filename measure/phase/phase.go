package phase

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
)

// Errors returned by Analyze.
var (
	ErrEmptyIR           = errors.New("phase: impulse response is empty")
	ErrInvalidSampleRate = errors.New("phase: sample rate must be positive")
	ErrFFTSize           = errors.New("phase: fft size must be a power of two not shorter than the impulse response")
)

// Response holds the one-sided spectrum of an impulse response, bins 0 to
// N/2 inclusive.
type Response struct {
	SampleRate  float64
	FFTSize     int
	Frequencies []float64 // bin center in Hz
	MagnitudeDB []float64 // 20*log10|H|
	Phase       []float64 // unwrapped phase in radians
	GroupDelay  []float64 // in samples
}

// Analyzer turns impulse responses into a Response.
type Analyzer struct {
	SampleRate float64
	// FFTSize of 0 selects the next power of two >= len(ir).
	FFTSize int
}

// NewAnalyzer creates an analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes the response of ir. ir is zero-padded to the FFT size.
//
// Group delay uses tau = Re(FFT(n*h) / FFT(h)), which is exact for the
// finite sequence and needs no phase unwrapping.
func (a *Analyzer) Analyze(ir []float64) (Response, error) {
	if len(ir) == 0 {
		return Response{}, ErrEmptyIR
	}

	if a.SampleRate <= 0 || !core.IsFinite(a.SampleRate) {
		return Response{}, ErrInvalidSampleRate
	}

	n := a.FFTSize
	if n == 0 {
		n = nextPowerOfTwo(len(ir))
	}

	if n < len(ir) || n&(n-1) != 0 {
		return Response{}, fmt.Errorf("%w: %d for %d samples", ErrFFTSize, n, len(ir))
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return Response{}, fmt.Errorf("phase: fft plan: %w", err)
	}

	h := make([]complex128, n)
	nh := make([]complex128, n)

	for i, v := range ir {
		h[i] = complex(v, 0)
		nh[i] = complex(float64(i)*v, 0)
	}

	spec := make([]complex128, n)
	if err := plan.Forward(spec, h); err != nil {
		return Response{}, fmt.Errorf("phase: fft: %w", err)
	}

	ramp := make([]complex128, n)
	if err := plan.Forward(ramp, nh); err != nil {
		return Response{}, fmt.Errorf("phase: fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for k := range bins {
		re[k] = real(spec[k])
		im[k] = imag(spec[k])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	resp := Response{
		SampleRate:  a.SampleRate,
		FFTSize:     n,
		Frequencies: make([]float64, bins),
		MagnitudeDB: make([]float64, bins),
		Phase:       make([]float64, bins),
		GroupDelay:  make([]float64, bins),
	}

	for k := range bins {
		resp.Frequencies[k] = float64(k) * a.SampleRate / float64(n)
		resp.MagnitudeDB[k] = core.LinearToDB(mag[k])
		resp.Phase[k] = math.Atan2(im[k], re[k])

		if spec[k] != 0 {
			resp.GroupDelay[k] = real(ramp[k] / spec[k])
		}
	}

	Unwrap(resp.Phase)

	return resp, nil
}

// Bin returns the index of the bin nearest to freqHz, clamped to the
// available range.
func (r Response) Bin(freqHz float64) int {
	if r.FFTSize == 0 || len(r.Frequencies) == 0 {
		return 0
	}

	k := int(math.Round(freqHz * float64(r.FFTSize) / r.SampleRate))

	return max(0, min(k, len(r.Frequencies)-1))
}

// MaxMagnitudeDeviationDB returns the largest |MagnitudeDB| over all bins.
// It is 0 for an ideal all-pass.
func (r Response) MaxMagnitudeDeviationDB() float64 {
	if len(r.MagnitudeDB) == 0 {
		return 0
	}

	return vecmath.MaxAbs(r.MagnitudeDB)
}

// Unwrap removes 2*pi jumps between consecutive phase values in place.
func Unwrap(phase []float64) {
	var offset float64

	for i := 1; i < len(phase); i++ {
		d := phase[i] + offset - phase[i-1]
		switch {
		case d > math.Pi:
			offset -= 2 * math.Pi * math.Ceil((d-math.Pi)/(2*math.Pi))
		case d < -math.Pi:
			offset += 2 * math.Pi * math.Ceil((-d-math.Pi)/(2*math.Pi))
		}

		phase[i] += offset
	}
}

// Wrap maps an angle to [-pi, pi].
func Wrap(angle float64) float64 {
	return cmplx.Phase(cmplx.Rect(1, angle))
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}
