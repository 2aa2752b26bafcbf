package multiallpass

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/allpass"
)

const (
	// DefaultMaxChannels is the channel capacity of New without options.
	DefaultMaxChannels = 2
	// DefaultMaxStages is the per-channel stage capacity.
	DefaultMaxStages = 200
)

// Errors returned by ProcessBlock before any sample is touched.
var (
	ErrNotPrepared     = errors.New("multiallpass: engine not prepared")
	ErrTooManyChannels = errors.New("multiallpass: more channels than the engine was built for")
	ErrBlockTooLarge   = errors.New("multiallpass: block larger than prepared maximum")
	ErrChannelLength   = errors.New("multiallpass: channel buffers differ in length")
)

// State is the engine lifecycle state.
type State int

const (
	// StateUninitialized is the state after New and Release.
	StateUninitialized State = iota
	// StatePrepared follows a successful Prepare.
	StatePrepared
	// StateProcessing is entered by the first processed block.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePrepared:
		return "prepared"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option mutates engine construction parameters.
type Option func(*engineConfig) error

type engineConfig struct {
	maxChannels int
	maxStages   int
	params      *Params
}

// WithMaxChannels sets the number of channels the engine can process.
func WithMaxChannels(channels int) Option {
	return func(cfg *engineConfig) error {
		if channels < 1 {
			return fmt.Errorf("multiallpass max channels must be >= 1: %d", channels)
		}

		cfg.maxChannels = channels

		return nil
	}
}

// WithMaxStages sets the per-channel stage capacity.
func WithMaxStages(stages int) Option {
	return func(cfg *engineConfig) error {
		if stages < 1 {
			return fmt.Errorf("multiallpass max stages must be >= 1: %d", stages)
		}

		cfg.maxStages = stages

		return nil
	}
}

// WithParams makes the engine read its controls from a store owned by the
// caller, typically shared with a control goroutine. The store's MaxStages
// must not exceed the engine's.
func WithParams(p *Params) Option {
	return func(cfg *engineConfig) error {
		if p == nil {
			return errors.New("multiallpass params must not be nil")
		}

		cfg.params = p

		return nil
	}
}

// Engine is the multi-stage all-pass block processor.
//
// Prepare, Release and Reset must not run concurrently with ProcessBlock.
// Params may be written from any goroutine at any time.
type Engine struct {
	params *Params
	bank   *allpass.Bank

	maxChannels  int
	maxStages    int
	sampleRate   float64
	maxBlockSize int
	state        State

	rejected atomic.Uint64
}

// New creates an engine in the uninitialized state.
func New(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		maxChannels: DefaultMaxChannels,
		maxStages:   DefaultMaxStages,
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.params == nil {
		p, err := NewParams(cfg.maxStages)
		if err != nil {
			return nil, err
		}

		cfg.params = p
	}

	if cfg.params.MaxStages() > cfg.maxStages {
		return nil, fmt.Errorf("multiallpass params allow %d stages, engine holds %d", cfg.params.MaxStages(), cfg.maxStages)
	}

	bank, err := allpass.NewBank(cfg.maxChannels, cfg.maxStages)
	if err != nil {
		return nil, fmt.Errorf("multiallpass: %w", err)
	}

	return &Engine{
		params:      cfg.params,
		bank:        bank,
		maxChannels: cfg.maxChannels,
		maxStages:   cfg.maxStages,
	}, nil
}

// Prepare configures the engine for a sample rate and maximum block size and
// clears all filter state. It may be called in any state.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(sampleRate), core.WithBlockSize(maxBlockSize))
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("multiallpass: prepare: %w", err)
	}

	if err := e.bank.Init(cfg.SampleRate); err != nil {
		return fmt.Errorf("multiallpass: prepare: %w", err)
	}

	e.sampleRate = cfg.SampleRate
	e.maxBlockSize = cfg.BlockSize
	e.state = StatePrepared

	return nil
}

// Release returns the engine to the uninitialized state. Memory is kept for
// a later Prepare.
func (e *Engine) Release() {
	e.bank.Reset()
	e.sampleRate = 0
	e.maxBlockSize = 0
	e.state = StateUninitialized
}

// Reset clears filter history without changing the configuration.
func (e *Engine) Reset() {
	e.bank.Reset()
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Params returns the control store the engine reads from.
func (e *Engine) Params() *Params { return e.params }

// SampleRate returns the prepared sample rate, or 0.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// MaxBlockSize returns the prepared block size limit, or 0.
func (e *Engine) MaxBlockSize() int { return e.maxBlockSize }

// MaxChannels returns the channel capacity.
func (e *Engine) MaxChannels() int { return e.maxChannels }

// MaxStages returns the per-channel stage capacity.
func (e *Engine) MaxStages() int { return e.maxStages }

// TailLengthSeconds reports the effect tail. The cascade has an infinite
// impulse response but no feedback path, so 0 is reported.
func (e *Engine) TailLengthSeconds() float64 { return 0 }

// RejectedRetunes counts channel retunes skipped because the parameter
// snapshot was invalid, for example a torn frequency range.
func (e *Engine) RejectedRetunes() uint64 { return e.rejected.Load() }

// Bank exposes the filter bank for analysis. It must not be mutated while
// the engine is processing.
func (e *Engine) Bank() *allpass.Bank { return e.bank }

// ProcessBlock processes planar buffers in place using a snapshot of the
// engine's Params. All buffers must have the same length.
func (e *Engine) ProcessBlock(buffers [][]float64) error {
	if err := e.checkBlock(buffers); err != nil {
		return err
	}

	e.process(buffers, e.params.Snapshot())

	return nil
}

// ProcessBlockWith processes buffers with explicit control values instead of
// the Params store. Invalid values are rejected before processing.
func (e *Engine) ProcessBlockWith(buffers [][]float64, p ControlParameters) error {
	if err := e.checkBlock(buffers); err != nil {
		return err
	}

	if err := p.Validate(e.maxStages); err != nil {
		return err
	}

	e.process(buffers, p)

	return nil
}

func (e *Engine) checkBlock(buffers [][]float64) error {
	if e.state == StateUninitialized {
		return ErrNotPrepared
	}

	if len(buffers) > e.maxChannels {
		return ErrTooManyChannels
	}

	if len(buffers) == 0 {
		return nil
	}

	n := len(buffers[0])
	if n > e.maxBlockSize {
		return ErrBlockTooLarge
	}

	for _, buf := range buffers[1:] {
		if len(buf) != n {
			return ErrChannelLength
		}
	}

	return nil
}

func (e *Engine) process(buffers [][]float64, p ControlParameters) {
	e.state = StateProcessing

	tuning := p.tuning()
	mix := p.Mix
	dry := 1 - mix
	gain := core.DBToLinear(p.OutputGainDB)

	for ch, buf := range buffers {
		if err := e.bank.Retune(ch, tuning); err != nil {
			e.rejected.Add(1)
		}

		stages, order := e.bank.Active(ch)
		if stages == 0 {
			for i, x := range buf {
				buf[i] = gain * x
			}

			continue
		}

		for i, x := range buf {
			y := e.bank.ProcessSample(ch, x, stages, order)
			buf[i] = gain * (mix*y + dry*x)
		}
	}
}
