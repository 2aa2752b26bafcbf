package multiallpass

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/allpass"
	"github.com/cwbudde/algo-multiallpass/dsp/freqdist"
)

// Factory control values.
const (
	DefaultMinFrequencyHz = 100.0
	DefaultMaxFrequencyHz = 2000.0
	DefaultStages         = 10
	DefaultMix            = 1.0
	DefaultOutputGainDB   = 0.0
	DefaultShape          = freqdist.Mel
	DefaultOrder          = allpass.OrderFirst
	DefaultQ              = allpass.DefaultQ
)

// Errors returned by parameter validation and the Params setters.
var (
	ErrStages = errors.New("multiallpass: stage count out of range")
	ErrMix    = errors.New("multiallpass: mix must be in [0, 1]")
	ErrGain   = errors.New("multiallpass: output gain must be finite")
)

// ControlParameters is one consistent set of control values, as read by the
// engine at the start of a block.
type ControlParameters struct {
	MinFrequencyHz float64
	MaxFrequencyHz float64
	Stages         int
	Mix            float64
	OutputGainDB   float64
	Shape          freqdist.Shape
	Order          allpass.Order
	// Q is used by second-order stages only.
	Q float64
}

// DefaultControlParameters returns the factory settings: 10 first-order
// stages on a mel curve between 100 Hz and 2 kHz, fully wet, unity gain.
func DefaultControlParameters() ControlParameters {
	return ControlParameters{
		MinFrequencyHz: DefaultMinFrequencyHz,
		MaxFrequencyHz: DefaultMaxFrequencyHz,
		Stages:         DefaultStages,
		Mix:            DefaultMix,
		OutputGainDB:   DefaultOutputGainDB,
		Shape:          DefaultShape,
		Order:          DefaultOrder,
		Q:              DefaultQ,
	}
}

// Validate checks p for an engine with maxStages stages per channel. It
// returns a package or allpass sentinel error and does not allocate.
func (p ControlParameters) Validate(maxStages int) error {
	if p.Stages < 1 || p.Stages > maxStages {
		return ErrStages
	}

	if p.Mix < 0 || p.Mix > 1 || math.IsNaN(p.Mix) {
		return ErrMix
	}

	if !core.IsFinite(p.OutputGainDB) {
		return ErrGain
	}

	return p.tuning().Validate()
}

func (p ControlParameters) tuning() allpass.Tuning {
	return allpass.Tuning{
		MinHz:  p.MinFrequencyHz,
		MaxHz:  p.MaxFrequencyHz,
		Stages: p.Stages,
		Shape:  p.Shape,
		Order:  p.Order,
		Q:      p.Q,
	}
}

// Params is a lock-free store of control values shared between a control
// goroutine and the audio goroutine. Each field is loaded and stored
// atomically; there is no transaction across fields, so a Snapshot taken
// during SetFrequencyRange may pair a new minimum with an old maximum.
// The engine rejects such a pair and keeps its previous tuning.
//
// Setters validate their input and leave the store unchanged on error.
type Params struct {
	maxStages int

	minHz  atomicFloat64
	maxHz  atomicFloat64
	mix    atomicFloat64
	gainDB atomicFloat64
	q      atomicFloat64

	stages atomic.Int64
	shape  atomic.Int64
	order  atomic.Int64
}

// NewParams returns a store holding DefaultControlParameters for engines
// with up to maxStages stages.
func NewParams(maxStages int) (*Params, error) {
	if maxStages < 1 {
		return nil, fmt.Errorf("multiallpass: max stages must be >= 1: %d", maxStages)
	}

	p := &Params{maxStages: maxStages}
	def := DefaultControlParameters()
	def.Stages = core.ClampInt(def.Stages, 1, maxStages)
	p.store(def)

	return p, nil
}

// MaxStages returns the stage limit setters validate against.
func (p *Params) MaxStages() int { return p.maxStages }

// Snapshot loads every field once.
func (p *Params) Snapshot() ControlParameters {
	return ControlParameters{
		MinFrequencyHz: p.minHz.Load(),
		MaxFrequencyHz: p.maxHz.Load(),
		Stages:         int(p.stages.Load()),
		Mix:            p.mix.Load(),
		OutputGainDB:   p.gainDB.Load(),
		Shape:          freqdist.Shape(p.shape.Load()),
		Order:          allpass.Order(p.order.Load()),
		Q:              p.q.Load(),
	}
}

// Set validates and stores a full parameter set.
func (p *Params) Set(cp ControlParameters) error {
	if err := cp.Validate(p.maxStages); err != nil {
		return fmt.Errorf("multiallpass: set parameters: %w", err)
	}

	p.store(cp)

	return nil
}

// SetFrequencyRange sets both ends of the stage frequency range in Hz.
func (p *Params) SetFrequencyRange(minHz, maxHz float64) error {
	if err := validateRange(minHz, maxHz); err != nil {
		return err
	}

	p.minHz.Store(minHz)
	p.maxHz.Store(maxHz)

	return nil
}

// SetMinFrequency sets the lowest stage frequency in Hz. It must stay below
// the current maximum.
func (p *Params) SetMinFrequency(minHz float64) error {
	if err := validateRange(minHz, p.maxHz.Load()); err != nil {
		return err
	}

	p.minHz.Store(minHz)

	return nil
}

// SetMaxFrequency sets the upper end of the range in Hz. It must stay above
// the current minimum.
func (p *Params) SetMaxFrequency(maxHz float64) error {
	if err := validateRange(p.minHz.Load(), maxHz); err != nil {
		return err
	}

	p.maxHz.Store(maxHz)

	return nil
}

// SetStages sets the number of active stages in [1, MaxStages].
func (p *Params) SetStages(stages int) error {
	if stages < 1 || stages > p.maxStages {
		return fmt.Errorf("%w [1, %d]: %d", ErrStages, p.maxStages, stages)
	}

	p.stages.Store(int64(stages))

	return nil
}

// SetMix sets the wet amount in [0, 1].
func (p *Params) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("%w: %f", ErrMix, mix)
	}

	p.mix.Store(mix)

	return nil
}

// SetOutputGainDB sets the output gain in dB.
func (p *Params) SetOutputGainDB(db float64) error {
	if !core.IsFinite(db) {
		return fmt.Errorf("%w: %f", ErrGain, db)
	}

	p.gainDB.Store(db)

	return nil
}

// SetShape selects the frequency distribution curve. Exactly one shape is
// active at a time.
func (p *Params) SetShape(shape freqdist.Shape) error {
	if !shape.Valid() {
		return fmt.Errorf("%w: %v", allpass.ErrShape, shape)
	}

	p.shape.Store(int64(shape))

	return nil
}

// SetOrder selects first- or second-order stages.
func (p *Params) SetOrder(order allpass.Order) error {
	if !order.Valid() {
		return fmt.Errorf("%w: %v", allpass.ErrOrder, order)
	}

	p.order.Store(int64(order))

	return nil
}

// SetQ sets the quality factor of second-order stages.
func (p *Params) SetQ(q float64) error {
	if q <= 0 || !core.IsFinite(q) {
		return fmt.Errorf("%w: %f", allpass.ErrQ, q)
	}

	p.q.Store(q)

	return nil
}

func (p *Params) store(cp ControlParameters) {
	p.minHz.Store(cp.MinFrequencyHz)
	p.maxHz.Store(cp.MaxFrequencyHz)
	p.stages.Store(int64(cp.Stages))
	p.mix.Store(cp.Mix)
	p.gainDB.Store(cp.OutputGainDB)
	p.shape.Store(int64(cp.Shape))
	p.order.Store(int64(cp.Order))
	p.q.Store(cp.Q)
}

func validateRange(minHz, maxHz float64) error {
	if minHz <= 0 || !core.IsFinite(minHz) || !core.IsFinite(maxHz) {
		return fmt.Errorf("%w: min=%f max=%f", allpass.ErrFrequency, minHz, maxHz)
	}

	if maxHz <= minHz {
		return fmt.Errorf("%w: min=%f max=%f", allpass.ErrFrequencyOrder, minHz, maxHz)
	}

	return nil
}

// atomicFloat64 stores a float64 as its IEEE-754 bits.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
