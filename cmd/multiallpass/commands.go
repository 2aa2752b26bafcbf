package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"text/tabwriter"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/algo-multiallpass/dsp/effects/multiallpass"
	"github.com/cwbudde/algo-multiallpass/dsp/filter/allpass"
	"github.com/cwbudde/algo-multiallpass/dsp/freqdist"
	"github.com/cwbudde/algo-multiallpass/internal/cli"
	"github.com/cwbudde/algo-multiallpass/internal/wavio"
	"github.com/cwbudde/algo-multiallpass/measure/phase"
)

type tuningFlags struct {
	Min    float64        `default:"100" env:"MULTIALLPASS_MIN" help:"Lowest stage frequency in Hz."`
	Max    float64        `default:"2000" env:"MULTIALLPASS_MAX" help:"Upper end of the stage frequency range in Hz."`
	Stages int            `default:"10" env:"MULTIALLPASS_STAGES" help:"Number of all-pass stages."`
	Curve  freqdist.Shape `default:"mel" env:"MULTIALLPASS_CURVE" help:"Stage spacing: linear, mel, exponential or geometric."`
	Order  allpass.Order  `default:"first" env:"MULTIALLPASS_ORDER" help:"Stage order: first or second."`
	Q      float64        `default:"0.707" env:"MULTIALLPASS_Q" help:"Quality factor of second-order stages."`
}

type mixFlags struct {
	Mix    float64 `default:"1" env:"MULTIALLPASS_MIX" help:"Wet amount in [0, 1]."`
	GainDB float64 `name:"gain-db" default:"0" env:"MULTIALLPASS_GAIN_DB" help:"Output gain in dB."`
}

func (t tuningFlags) tuning() allpass.Tuning {
	return allpass.Tuning{MinHz: t.Min, MaxHz: t.Max, Stages: t.Stages, Shape: t.Curve, Order: t.Order, Q: t.Q}
}

func controlParameters(t tuningFlags, m mixFlags) multiallpass.ControlParameters {
	return multiallpass.ControlParameters{
		MinFrequencyHz: t.Min,
		MaxFrequencyHz: t.Max,
		Stages:         t.Stages,
		Mix:            m.Mix,
		OutputGainDB:   m.GainDB,
		Shape:          t.Curve,
		Order:          t.Order,
		Q:              t.Q,
	}
}

func engineFor(channels, stages int) (*multiallpass.Engine, error) {
	return multiallpass.New(
		multiallpass.WithMaxChannels(channels),
		multiallpass.WithMaxStages(max(multiallpass.DefaultMaxStages, stages)),
	)
}

type processCmd struct {
	In  string `arg:"" type:"existingfile" help:"Input WAV file."`
	Out string `arg:"" type:"path" help:"Output WAV file."`

	Tuning tuningFlags `embed:""`
	Mix    mixFlags    `embed:""`

	BlockSize int `default:"512" env:"MULTIALLPASS_BLOCK_SIZE" help:"Processing block size in samples."`
	BitDepth  int `default:"0" env:"MULTIALLPASS_BIT_DEPTH" help:"Output bit depth, 0 keeps the input depth."`
}

func (c *processCmd) Run(rc *runContext) error {
	in, err := wavio.Read(c.In)
	if err != nil {
		return err
	}

	engine, err := engineFor(len(in.Channels), c.Tuning.Stages)
	if err != nil {
		return err
	}

	if err := engine.Params().Set(controlParameters(c.Tuning, c.Mix)); err != nil {
		return err
	}

	if err := engine.Prepare(float64(in.SampleRate), c.BlockSize); err != nil {
		return err
	}

	frames := in.Frames()
	block := make([][]float64, len(in.Channels))

	for start := 0; start < frames; start += c.BlockSize {
		end := min(start+c.BlockSize, frames)
		for ch := range block {
			block[ch] = in.Channels[ch][start:end]
		}

		if err := engine.ProcessBlock(block); err != nil {
			return fmt.Errorf("block at frame %d: %w", start, err)
		}
	}

	bitDepth := c.BitDepth
	if bitDepth == 0 {
		bitDepth = in.BitDepth
	}

	clipped, err := wavio.Write(c.Out, &wavio.Audio{SampleRate: in.SampleRate, BitDepth: bitDepth, Channels: in.Channels})
	if err != nil {
		return err
	}

	cli.PrintKV(rc.stdout, "input", c.In)
	cli.PrintKV(rc.stdout, "output", c.Out)
	cli.PrintKV(rc.stdout, "format", fmt.Sprintf("%d Hz, %d ch, %d bit", in.SampleRate, len(in.Channels), bitDepth))
	cli.PrintKV(rc.stdout, "frames", frames)
	cli.PrintKV(rc.stdout, "stages", fmt.Sprintf("%d %s-order, %s curve", c.Tuning.Stages, c.Tuning.Order, c.Tuning.Curve))

	if clipped > 0 {
		cli.PrintWarning(rc.stderr, fmt.Sprintf("%d samples clipped", clipped))
	}

	return nil
}

type stagesCmd struct {
	SampleRate float64     `default:"48000" env:"MULTIALLPASS_SAMPLE_RATE" help:"Sample rate in Hz."`
	Tuning     tuningFlags `embed:""`
}

func (c *stagesCmd) Run(rc *runContext) error {
	if c.Tuning.Stages < 1 {
		return fmt.Errorf("%w: %d", multiallpass.ErrStages, c.Tuning.Stages)
	}

	bank, err := allpass.NewBank(1, c.Tuning.Stages)
	if err != nil {
		return err
	}

	if err := bank.Init(c.SampleRate); err != nil {
		return err
	}

	if err := bank.Retune(0, c.Tuning.tuning()); err != nil {
		return err
	}

	fmt.Fprintln(rc.stdout, cli.HeaderStyle.Render(fmt.Sprintf("%d %s-order stages, %s curve, %g Hz",
		c.Tuning.Stages, c.Tuning.Order, c.Tuning.Curve, c.SampleRate)))

	tw := tabwriter.NewWriter(rc.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)

	if c.Tuning.Order == allpass.OrderSecond {
		fmt.Fprintln(tw, "stage\tfreq (Hz)\tc1\tc2\tdelay@f (samples)\t")
	} else {
		fmt.Fprintln(tw, "stage\tfreq (Hz)\ta1\tdelay@f (samples)\t")
	}

	for i, f := range bank.Frequencies(0) {
		coeffs := bank.StageCoefficients(0, i, c.Tuning.Order)
		delay := coeffs.GroupDelay(f, c.SampleRate)

		if c.Tuning.Order == allpass.OrderSecond {
			fmt.Fprintf(tw, "%d\t%.2f\t%.6f\t%.6f\t%.3f\t\n", i, f, coeffs.B1, coeffs.B0, delay)
		} else {
			fmt.Fprintf(tw, "%d\t%.2f\t%.6f\t%.3f\t\n", i, f, coeffs.B0, delay)
		}
	}

	return tw.Flush()
}

type responseCmd struct {
	SampleRate float64     `default:"48000" env:"MULTIALLPASS_SAMPLE_RATE" help:"Sample rate in Hz."`
	Length     int         `default:"65536" env:"MULTIALLPASS_LENGTH" help:"Impulse response length in samples."`
	Points     int         `default:"12" env:"MULTIALLPASS_POINTS" help:"Number of log-spaced analysis frequencies."`
	Tuning     tuningFlags `embed:""`
	Mix        mixFlags    `embed:""`
}

func (c *responseCmd) Run(rc *runContext) error {
	if c.Points < 2 {
		return fmt.Errorf("points must be >= 2: %d", c.Points)
	}

	engine, err := engineFor(1, c.Tuning.Stages)
	if err != nil {
		return err
	}

	if err := engine.Prepare(c.SampleRate, c.Length); err != nil {
		return err
	}

	ir := make([]float64, c.Length)
	ir[0] = 1

	if err := engine.ProcessBlockWith([][]float64{ir}, controlParameters(c.Tuning, c.Mix)); err != nil {
		return err
	}

	resp, err := phase.NewAnalyzer(c.SampleRate).Analyze(ir)
	if err != nil {
		return err
	}

	fmt.Fprintln(rc.stdout, cli.HeaderStyle.Render(fmt.Sprintf("%d %s-order stages, %s curve, mix %g, %d-point FFT",
		c.Tuning.Stages, c.Tuning.Order, c.Tuning.Curve, c.Mix.Mix, resp.FFTSize)))

	tw := tabwriter.NewWriter(rc.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "freq (Hz)\tmag (dB)\tphase (deg)\tmodel (deg)\tdelay (samples)\tdelay (ms)\t")

	chain := engine.Bank().Chain(0)
	gain := core.DBToLinear(c.Mix.GainDB)

	var worst float64

	lo, hi := 20.0, 0.45*c.SampleRate
	for i := range c.Points {
		f := lo * math.Pow(hi/lo, float64(i)/float64(c.Points-1))
		k := resp.Bin(f)
		fk := resp.Frequencies[k]
		gd := resp.GroupDelay[k]

		model := complex(gain, 0) * (complex(c.Mix.Mix, 0)*chain.Response(fk, c.SampleRate) + complex(1-c.Mix.Mix, 0))
		diff := phase.Wrap(cmplx.Phase(model) - resp.Phase[k])
		worst = max(worst, math.Abs(diff))

		fmt.Fprintf(tw, "%.1f\t%.3f\t%.1f\t%.1f\t%.2f\t%.3f\t\n",
			fk, resp.MagnitudeDB[k], resp.Phase[k]*180/math.Pi, (resp.Phase[k]+diff)*180/math.Pi, gd, 1000*gd/c.SampleRate)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	cli.PrintKV(rc.stdout, "max |mag|", fmt.Sprintf("%.2e dB", resp.MaxMagnitudeDeviationDB()))
	cli.PrintKV(rc.stdout, "max |phase - model|", fmt.Sprintf("%.2e deg", worst*180/math.Pi))

	return nil
}

type paramsCmd struct {
	MaxStages int `default:"200" env:"MULTIALLPASS_MAX_STAGES" help:"Stage capacity of the engine."`
}

func (c *paramsCmd) Run(rc *runContext) error {
	if c.MaxStages < 1 {
		return fmt.Errorf("%w: %d", multiallpass.ErrStages, c.MaxStages)
	}

	tw := tabwriter.NewWriter(rc.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tmin\tmax\tstep\tskew\tdefault")

	for _, r := range multiallpass.HostRanges(c.MaxStages) {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%g\n", r.Name, r.Min, r.Max, r.Step, r.Skew, r.Default)
	}

	fmt.Fprintf(tw, "curve\t%s\t\t\t\t%s\n", shapeNames(), multiallpass.DefaultShape)
	fmt.Fprintf(tw, "order\tfirst, second\t\t\t\t%s\n", multiallpass.DefaultOrder)
	fmt.Fprintf(tw, "q\t> 0\t\t\t\t%g\n", multiallpass.DefaultQ)

	return tw.Flush()
}

func shapeNames() string {
	var names string

	for i, s := range freqdist.Shapes() {
		if i > 0 {
			names += ", "
		}

		names += s.String()
	}

	return names
}
