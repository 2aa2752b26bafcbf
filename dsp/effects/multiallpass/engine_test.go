package multiallpass

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/allpass"
	"github.com/cwbudde/algo-multiallpass/dsp/freqdist"
	"github.com/cwbudde/algo-multiallpass/internal/testutil"
)

const (
	testSampleRate = 48000.0
	testBlockSize  = 512
)

func newPreparedEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()

	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Prepare(testSampleRate, testBlockSize); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	return e
}

// processStream feeds planar signals through e in blocks of testBlockSize
// using explicit parameters.
func processStream(t *testing.T, e *Engine, p ControlParameters, signals [][]float64) {
	t.Helper()

	n := len(signals[0])
	block := make([][]float64, len(signals))

	for start := 0; start < n; start += testBlockSize {
		end := min(start+testBlockSize, n)
		for ch := range signals {
			block[ch] = signals[ch][start:end]
		}

		if err := e.ProcessBlockWith(block, p); err != nil {
			t.Fatalf("ProcessBlockWith: %v", err)
		}
	}
}

type engineCase struct {
	shape  freqdist.Shape
	order  allpass.Order
	stages int
}

func engineCases() []engineCase {
	var cases []engineCase

	for _, shape := range freqdist.Shapes() {
		for _, order := range []allpass.Order{allpass.OrderFirst, allpass.OrderSecond} {
			for _, stages := range []int{1, 10, 200} {
				cases = append(cases, engineCase{shape, order, stages})
			}
		}
	}

	return cases
}

func (c engineCase) params() ControlParameters {
	p := DefaultControlParameters()
	p.Shape = c.shape
	p.Order = c.order
	p.Stages = c.stages

	return p
}

func TestMixZeroIsExactPassthrough(t *testing.T) {
	for _, c := range engineCases() {
		e := newPreparedEngine(t)
		p := c.params()
		p.Mix = 0

		left := testutil.DeterministicNoise(1, 1, 2000)
		right := testutil.DeterministicSine(440, testSampleRate, 0.7, 2000)
		wantL, wantR := testutil.Clone(left), testutil.Clone(right)

		processStream(t, e, p, [][]float64{left, right})

		testutil.RequireBitIdentical(t, left, wantL)
		testutil.RequireBitIdentical(t, right, wantR)
	}
}

func TestMixOnePreservesRMS(t *testing.T) {
	for _, c := range engineCases() {
		if c.stages == 200 && c.shape != freqdist.Mel {
			continue
		}

		e := newPreparedEngine(t)

		in := testutil.DeterministicNoise(4, 0.5, 48000)
		out := testutil.Clone(in)

		processStream(t, e, c.params(), [][]float64{out})
		testutil.RequireFinite(t, out)

		ratio := testutil.RMS(out) / testutil.RMS(in)
		if math.Abs(ratio-1) > 0.03 {
			t.Fatalf("%v/%v/%d stages: RMS ratio = %v, want ~1", c.shape, c.order, c.stages, ratio)
		}
	}
}

func TestImpulseResponseIsReproducible(t *testing.T) {
	p := DefaultControlParameters()
	p.Shape = freqdist.Linear

	run := func(e *Engine) (left, right []float64) {
		left = testutil.Impulse(4096, 0)
		right = make([]float64, 4096)
		processStream(t, e, p, [][]float64{left, right})

		return left, right
	}

	e := newPreparedEngine(t)
	firstL, firstR := run(e)

	for i, v := range firstR {
		if v != 0 {
			t.Fatalf("silent channel produced %v at %d", v, i)
		}
	}

	if testutil.Peak(firstL) == 0 {
		t.Fatal("impulse response is silent")
	}

	e.Reset()

	againL, againR := run(e)
	testutil.RequireBitIdentical(t, againL, firstL)
	testutil.RequireBitIdentical(t, againR, firstR)

	freshL, _ := run(newPreparedEngine(t))
	testutil.RequireBitIdentical(t, freshL, firstL)
}

func TestOutputGainScalesPeak(t *testing.T) {
	want := math.Pow(10, 6.0/20)

	for _, shape := range freqdist.Shapes() {
		e := newPreparedEngine(t)

		p := DefaultControlParameters()
		p.Shape = shape
		p.Mix = 0
		p.OutputGainDB = 6

		in := testutil.DeterministicSine(1000, testSampleRate, 1, 480)
		out := testutil.Clone(in)
		processStream(t, e, p, [][]float64{out})

		ratio := testutil.Peak(out) / testutil.Peak(in)
		if math.Abs(ratio-want) > 1e-12 {
			t.Fatalf("%v: peak ratio = %v, want %v", shape, ratio, want)
		}

		if math.Abs(ratio-1.995) > 1e-3 {
			t.Fatalf("%v: peak ratio = %v, want ~1.995", shape, ratio)
		}
	}
}

func TestLifecycle(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if e.State() != StateUninitialized {
		t.Fatalf("state = %v, want uninitialized", e.State())
	}

	buf := [][]float64{make([]float64, 64)}
	if err := e.ProcessBlock(buf); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("ProcessBlock before Prepare: err = %v", err)
	}

	if err := e.Prepare(0, 512); !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("Prepare(0): err = %v", err)
	}

	if err := e.Prepare(48000, 0); !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("Prepare(block 0): err = %v", err)
	}

	if e.State() != StateUninitialized {
		t.Fatalf("state after failed Prepare = %v", e.State())
	}

	if err := e.Prepare(44100, 256); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if e.State() != StatePrepared || e.SampleRate() != 44100 || e.MaxBlockSize() != 256 {
		t.Fatalf("after Prepare: state %v, rate %v, block %d", e.State(), e.SampleRate(), e.MaxBlockSize())
	}

	if err := e.ProcessBlock(buf); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	if e.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", e.State())
	}

	if err := e.Prepare(96000, 1024); err != nil {
		t.Fatalf("re-Prepare: %v", err)
	}

	if e.State() != StatePrepared || e.Bank().SampleRate() != 96000 {
		t.Fatalf("after re-Prepare: state %v, bank rate %v", e.State(), e.Bank().SampleRate())
	}

	e.Release()

	if e.State() != StateUninitialized || e.SampleRate() != 0 || e.MaxBlockSize() != 0 {
		t.Fatalf("after Release: state %v, rate %v, block %d", e.State(), e.SampleRate(), e.MaxBlockSize())
	}

	if err := e.ProcessBlock(buf); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("ProcessBlock after Release: err = %v", err)
	}

	if e.TailLengthSeconds() != 0 {
		t.Fatalf("tail = %v, want 0", e.TailLengthSeconds())
	}

	if s := State(7).String(); s != "State(7)" {
		t.Fatalf("String = %q", s)
	}
}

func TestProcessBlockRejectsBadBuffers(t *testing.T) {
	e := newPreparedEngine(t)

	tests := []struct {
		name    string
		buffers [][]float64
		want    error
	}{
		{"too many channels", [][]float64{make([]float64, 8), make([]float64, 8), make([]float64, 8)}, ErrTooManyChannels},
		{"block too large", [][]float64{make([]float64, testBlockSize+1)}, ErrBlockTooLarge},
		{"length mismatch", [][]float64{make([]float64, 8), make([]float64, 9)}, ErrChannelLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, buf := range tt.buffers {
				for i := range buf {
					buf[i] = 0.25
				}
			}

			if err := e.ProcessBlock(tt.buffers); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			for _, buf := range tt.buffers {
				for i, v := range buf {
					if v != 0.25 {
						t.Fatalf("buffer modified at %d: %v", i, v)
					}
				}
			}
		})
	}

	if err := e.ProcessBlock(nil); err != nil {
		t.Fatalf("empty block: %v", err)
	}
}

func TestProcessBlockWithRejectsInvalidParameters(t *testing.T) {
	e := newPreparedEngine(t)

	tests := []struct {
		name   string
		mutate func(*ControlParameters)
		want   error
	}{
		{"zero stages", func(p *ControlParameters) { p.Stages = 0 }, ErrStages},
		{"too many stages", func(p *ControlParameters) { p.Stages = DefaultMaxStages + 1 }, ErrStages},
		{"mix above one", func(p *ControlParameters) { p.Mix = 1.5 }, ErrMix},
		{"nan mix", func(p *ControlParameters) { p.Mix = math.NaN() }, ErrMix},
		{"inf gain", func(p *ControlParameters) { p.OutputGainDB = math.Inf(-1) }, ErrGain},
		{"min above max", func(p *ControlParameters) { p.MinFrequencyHz = 5000 }, allpass.ErrFrequencyOrder},
		{"zero min", func(p *ControlParameters) { p.MinFrequencyHz = 0 }, allpass.ErrFrequency},
		{"bad shape", func(p *ControlParameters) { p.Shape = freqdist.Shape(-1) }, allpass.ErrShape},
		{"bad q", func(p *ControlParameters) { p.Order, p.Q = allpass.OrderSecond, -1 }, allpass.ErrQ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultControlParameters()
			tt.mutate(&p)

			buf := []float64{1, 2, 3}
			if err := e.ProcessBlockWith([][]float64{buf}, p); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			testutil.RequireBitIdentical(t, buf, []float64{1, 2, 3})
		})
	}
}

func TestTornSnapshotKeepsPreviousTuning(t *testing.T) {
	e := newPreparedEngine(t)
	ref := newPreparedEngine(t)

	in := testutil.DeterministicNoise(8, 1, 2*testBlockSize)
	got := testutil.Clone(in)
	want := testutil.Clone(in)

	if err := e.ProcessBlock([][]float64{got[:testBlockSize], make([]float64, testBlockSize)}); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	if err := ref.ProcessBlock([][]float64{want[:testBlockSize], make([]float64, testBlockSize)}); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	// A writer moved min above the old max and was preempted before
	// storing the new max.
	e.Params().minHz.Store(3000)

	if err := e.ProcessBlock([][]float64{got[testBlockSize:], make([]float64, testBlockSize)}); err != nil {
		t.Fatalf("ProcessBlock with torn snapshot: %v", err)
	}

	if err := ref.ProcessBlock([][]float64{want[testBlockSize:], make([]float64, testBlockSize)}); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	testutil.RequireBitIdentical(t, got, want)

	if n := e.RejectedRetunes(); n != 2 {
		t.Fatalf("rejected retunes = %d, want 2", n)
	}

	if n := ref.RejectedRetunes(); n != 0 {
		t.Fatalf("reference rejected retunes = %d, want 0", n)
	}
}

func TestUntunedChannelPassesDryWithGain(t *testing.T) {
	e := newPreparedEngine(t)
	e.Params().maxHz.Store(50)

	if err := e.Params().SetOutputGainDB(-6); err != nil {
		t.Fatalf("SetOutputGainDB: %v", err)
	}

	in := testutil.DeterministicNoise(6, 1, 64)
	out := testutil.Clone(in)

	if err := e.ProcessBlock([][]float64{out}); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	gain := core.DBToLinear(-6)
	for i := range in {
		if out[i] != gain*in[i] {
			t.Fatalf("sample %d = %v, want %v", i, out[i], gain*in[i])
		}
	}
}

func TestProcessBlockZeroAllocations(t *testing.T) {
	e := newPreparedEngine(t)
	p := e.Params()

	if err := p.SetStages(DefaultMaxStages); err != nil {
		t.Fatalf("SetStages: %v", err)
	}

	buffers := [][]float64{
		testutil.DeterministicNoise(1, 0.5, testBlockSize),
		testutil.DeterministicNoise(2, 0.5, testBlockSize),
	}

	explicit := DefaultControlParameters()
	explicit.Order = allpass.OrderSecond

	allocs := testing.AllocsPerRun(20, func() {
		if err := e.ProcessBlock(buffers); err != nil {
			t.Fatal(err)
		}

		if err := e.ProcessBlockWith(buffers, explicit); err != nil {
			t.Fatal(err)
		}

		_ = e.ProcessBlock(buffers[:0])
		_ = e.ProcessBlockWith(buffers, ControlParameters{})
	})

	if allocs != 0 {
		t.Fatalf("allocs per block = %v, want 0", allocs)
	}
}

func TestConcurrentParameterWrites(t *testing.T) {
	e := newPreparedEngine(t)
	p := e.Params()

	var (
		stop atomic.Bool
		wg   sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		shapes := freqdist.Shapes()
		for i := 0; !stop.Load(); i++ {
			_ = p.SetFrequencyRange(50+float64(i%100), 1000+float64(i%5000))
			_ = p.SetStages(1 + i%DefaultMaxStages)
			_ = p.SetMix(float64(i%21) / 20)
			_ = p.SetOutputGainDB(float64(i%25 - 12))
			_ = p.SetShape(shapes[i%len(shapes)])
			_ = p.SetOrder(allpass.Order(i % 2))
			_ = p.SetQ(0.5 + float64(i%10)/4)
		}
	}()

	buffers := [][]float64{make([]float64, 128), make([]float64, 128)}

	for range 200 {
		for ch := range buffers {
			copy(buffers[ch], testutil.DeterministicSine(440, testSampleRate, 0.5, 128))
		}

		if err := e.ProcessBlock(buffers); err != nil {
			t.Fatalf("ProcessBlock: %v", err)
		}

		for ch := range buffers {
			testutil.RequireFinite(t, buffers[ch])
		}
	}

	stop.Store(true)
	wg.Wait()
}

func TestNewValidatesOptions(t *testing.T) {
	bigParams, err := NewParams(DefaultMaxStages + 1)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	tests := []struct {
		name string
		opts []Option
	}{
		{"zero channels", []Option{WithMaxChannels(0)}},
		{"zero stages", []Option{WithMaxStages(0)}},
		{"nil params", []Option{WithParams(nil)}},
		{"params beyond capacity", []Option{WithParams(bigParams)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	shared, err := NewParams(16)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	e, err := New(WithMaxChannels(6), WithMaxStages(16), WithParams(shared))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if e.MaxChannels() != 6 || e.MaxStages() != 16 || e.Params() != shared {
		t.Fatalf("options not applied: %d ch, %d stages", e.MaxChannels(), e.MaxStages())
	}
}

func BenchmarkEngineProcessBlock(b *testing.B) {
	e := newPreparedEngine(b)
	buffers := [][]float64{make([]float64, testBlockSize), make([]float64, testBlockSize)}

	b.SetBytes(int64(2 * testBlockSize * 8))

	for b.Loop() {
		if err := e.ProcessBlock(buffers); err != nil {
			b.Fatal(err)
		}
	}
}
