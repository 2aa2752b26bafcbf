package allpass

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/biquad"
	"github.com/cwbudde/algo-multiallpass/dsp/freqdist"
)

const (
	// DefaultQ is the quality factor used for second-order stages when none
	// is configured.
	DefaultQ = 0.707

	// MinStageFrequencyHz is the lowest center frequency a stage is tuned to.
	MinStageFrequencyHz = 1.0

	// NyquistSafetyRatio bounds stage frequencies to this fraction of the
	// sample rate. tan(pi f/fs) diverges at fs/2.
	NyquistSafetyRatio = 0.49
)

// Errors returned by Bank configuration. They are static values so
// rejecting a tuning on the audio thread never allocates.
var (
	ErrNotInitialized = errors.New("allpass: bank sample rate not initialized")
	ErrSampleRate     = errors.New("allpass: sample rate must be > 0 and finite")
	ErrFrequency      = errors.New("allpass: frequencies must be > 0 and finite")
	ErrFrequencyOrder = errors.New("allpass: min frequency must be below max frequency")
	ErrQ              = errors.New("allpass: q must be > 0 and finite")
	ErrShape          = errors.New("allpass: unknown frequency shape")
	ErrOrder          = errors.New("allpass: unknown filter order")
)

// Order selects the primitive a Bank cascades.
type Order int

const (
	// OrderFirst cascades FirstOrder stages.
	OrderFirst Order = iota
	// OrderSecond cascades SecondOrder stages.
	OrderSecond
)

// Valid reports whether o is a known order.
func (o Order) Valid() bool { return o == OrderFirst || o == OrderSecond }

func (o Order) String() string {
	switch o {
	case OrderFirst:
		return "first"
	case OrderSecond:
		return "second"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder accepts "first", "second", "1" or "2", ignoring case.
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first", "1":
		return OrderFirst, nil
	case "second", "2":
		return OrderSecond, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrOrder, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrOrder, int(o))
	}

	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}

	*o = parsed

	return nil
}

// Tuning describes how the stages of one channel are spread.
type Tuning struct {
	MinHz  float64
	MaxHz  float64
	Stages int
	Shape  freqdist.Shape
	Order  Order
	// Q applies to OrderSecond only.
	Q float64
}

// Validate checks everything except the stage count, which is bounded by
// the bank it is applied to.
func (t Tuning) Validate() error {
	if !core.IsFinite(t.MinHz) || !core.IsFinite(t.MaxHz) || t.MinHz <= 0 {
		return ErrFrequency
	}

	if t.MinHz >= t.MaxHz {
		return ErrFrequencyOrder
	}

	if !t.Shape.Valid() {
		return ErrShape
	}

	if !t.Order.Valid() {
		return ErrOrder
	}

	if t.Order == OrderSecond && (t.Q <= 0 || !core.IsFinite(t.Q)) {
		return ErrQ
	}

	return nil
}

// Bank holds channels x maxStages all-pass stages of both orders. All memory
// is allocated by NewBank; Retune and the process methods never allocate.
type Bank struct {
	channels   int
	maxStages  int
	sampleRate float64

	first  []FirstOrder
	second []SecondOrder
	freqs  []float64

	activeStages []int
	activeOrder  []Order
}

// NewBank allocates a bank. The sample rate must be set with Init before
// Retune.
func NewBank(channels, maxStages int) (*Bank, error) {
	if channels < 1 {
		return nil, fmt.Errorf("allpass: channels must be >= 1: %d", channels)
	}

	if maxStages < 1 {
		return nil, fmt.Errorf("allpass: max stages must be >= 1: %d", maxStages)
	}

	n := channels * maxStages

	return &Bank{
		channels:     channels,
		maxStages:    maxStages,
		first:        make([]FirstOrder, n),
		second:       make([]SecondOrder, n),
		freqs:        make([]float64, n),
		activeStages: make([]int, channels),
		activeOrder:  make([]Order, channels),
	}, nil
}

// Init sets the sample rate of every stage and clears all state, including
// the last tuning.
func (b *Bank) Init(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return ErrSampleRate
	}

	b.sampleRate = sampleRate

	for i := range b.first {
		b.first[i] = FirstOrder{}
		b.first[i].Init(sampleRate)
		b.second[i] = SecondOrder{}
		b.second[i].Init(sampleRate)
	}

	core.Zero(b.freqs)

	for ch := range b.activeStages {
		b.activeStages[ch] = 0
		b.activeOrder[ch] = OrderFirst
	}

	return nil
}

// Channels returns the channel capacity.
func (b *Bank) Channels() int { return b.channels }

// MaxStages returns the per-channel stage capacity.
func (b *Bank) MaxStages() int { return b.maxStages }

// SampleRate returns the rate set by Init, or 0.
func (b *Bank) SampleRate() float64 { return b.sampleRate }

// Retune distributes t.Stages center frequencies between t.MinHz and
// t.MaxHz, clamps each to [MinStageFrequencyHz, NyquistSafetyRatio*fs] and
// sets the coefficients of the first t.Stages stages of t.Order on channel.
//
// An invalid tuning returns one of the package errors and leaves the
// channel untouched. Retune panics if channel or t.Stages is out of range.
func (b *Bank) Retune(channel int, t Tuning) error {
	b.checkChannel(channel)
	b.checkStages(t.Stages)

	if b.sampleRate == 0 {
		return ErrNotInitialized
	}

	if err := t.Validate(); err != nil {
		return err
	}

	off := channel * b.maxStages
	freqs := freqdist.Distribute(b.freqs[off:off:off+b.maxStages], t.MinHz, t.MaxHz, t.Stages, t.Shape)
	hi := NyquistSafetyRatio * b.sampleRate

	for i, f := range freqs {
		f = core.Clamp(f, MinStageFrequencyHz, hi)
		freqs[i] = f

		if t.Order == OrderSecond {
			b.second[off+i].SetFrequencyQ(f, t.Q)
		} else {
			b.first[off+i].SetFrequency(f)
		}
	}

	b.activeStages[channel] = t.Stages
	b.activeOrder[channel] = t.Order

	return nil
}

// Active returns the stage count and order of the last successful Retune on
// channel. stages is 0 if the channel has never been tuned.
func (b *Bank) Active(channel int) (stages int, order Order) {
	b.checkChannel(channel)
	return b.activeStages[channel], b.activeOrder[channel]
}

// Frequencies returns the clamped center frequencies of the last successful
// Retune on channel. The slice aliases bank memory and must not be modified.
func (b *Bank) Frequencies(channel int) []float64 {
	b.checkChannel(channel)
	off := channel * b.maxStages

	return b.freqs[off : off+b.activeStages[channel] : off+b.activeStages[channel]]
}

// ProcessSample runs x through stages [0, stages) of channel in index order.
func (b *Bank) ProcessSample(channel int, x float64, stages int, order Order) float64 {
	b.checkChannel(channel)
	b.checkStages(stages)

	off := channel * b.maxStages
	if order == OrderSecond {
		st := b.second[off : off+stages]
		for i := range st {
			x = st[i].Process(x)
		}

		return x
	}

	st := b.first[off : off+stages]
	for i := range st {
		x = st[i].Process(x)
	}

	return x
}

// ProcessBlock filters buf in place through the cascade of channel.
func (b *Bank) ProcessBlock(channel int, buf []float64, stages int, order Order) {
	for i, x := range buf {
		buf[i] = b.ProcessSample(channel, x, stages, order)
	}
}

// Response returns the analytic frequency response of the cascade at freqHz.
func (b *Bank) Response(channel, stages int, order Order, freqHz float64) complex128 {
	b.checkChannel(channel)
	b.checkStages(stages)

	h := complex(1, 0)
	off := channel * b.maxStages

	for i := off; i < off+stages; i++ {
		c := b.stageCoefficients(i, order)
		h *= c.Response(freqHz, b.sampleRate)
	}

	return h
}

// GroupDelay returns the analytic group delay of the cascade in samples.
func (b *Bank) GroupDelay(channel, stages int, order Order, freqHz float64) float64 {
	b.checkChannel(channel)
	b.checkStages(stages)

	var delay float64

	off := channel * b.maxStages
	for i := off; i < off+stages; i++ {
		c := b.stageCoefficients(i, order)
		delay += c.GroupDelay(freqHz, b.sampleRate)
	}

	return delay
}

// Reset clears the history of every stage. Coefficients are kept.
func (b *Bank) Reset() {
	for i := range b.first {
		b.first[i].Reset()
		b.second[i].Reset()
	}
}

// StageCoefficients returns the transfer function of one stage as biquad
// coefficients.
func (b *Bank) StageCoefficients(channel, stage int, order Order) biquad.Coefficients {
	b.checkChannel(channel)

	if stage < 0 || stage >= b.maxStages {
		panic(fmt.Sprintf("allpass: stage %d out of range [0, %d)", stage, b.maxStages))
	}

	return b.stageCoefficients(channel*b.maxStages+stage, order)
}

// Chain returns the active stages of channel as a biquad cascade with
// cleared state. It allocates and is meant for analysis off the audio path.
func (b *Bank) Chain(channel int) *biquad.Chain {
	stages, order := b.Active(channel)

	coeffs := make([]biquad.Coefficients, stages)
	for i := range coeffs {
		coeffs[i] = b.StageCoefficients(channel, i, order)
	}

	return biquad.NewChain(coeffs)
}

func (b *Bank) stageCoefficients(i int, order Order) biquad.Coefficients {
	if order == OrderSecond {
		return b.second[i].Coefficients()
	}

	return b.first[i].Coefficients()
}

func (b *Bank) checkChannel(channel int) {
	if channel < 0 || channel >= b.channels {
		panic(fmt.Sprintf("allpass: channel %d out of range [0, %d)", channel, b.channels))
	}
}

func (b *Bank) checkStages(stages int) {
	if stages < 1 || stages > b.maxStages {
		panic(fmt.Sprintf("allpass: stage count %d out of range [1, %d]", stages, b.maxStages))
	}
}
