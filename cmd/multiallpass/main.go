// Command multiallpass runs the multi-stage all-pass phase effect on WAV
// files and inspects its tuning.
//
// Usage:
//
//	multiallpass <command> [flags]
//
// Examples:
//
//	multiallpass process in.wav out.wav --stages 40 --curve mel
//	multiallpass stages --min 200 --max 4000 --stages 8 --order second
//	multiallpass response --stages 50 --points 16
//	multiallpass params
//
// Every flag can also be set through MULTIALLPASS_<FLAG> environment
// variables, for example MULTIALLPASS_STAGES=40.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/cwbudde/algo-multiallpass/internal/cli"
)

const appName = "multiallpass"

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version versionFlag `short:"v" help:"Show version information."`

	Process  processCmd  `cmd:"" help:"Run a WAV file through the all-pass cascade."`
	Stages   stagesCmd   `cmd:"" help:"Print stage frequencies and coefficients."`
	Response responseCmd `cmd:"" help:"Measure magnitude, phase and group delay of the cascade."`
	Params   paramsCmd   `cmd:"" help:"List host parameter ranges."`
}

type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(app.Stdout, appName, version)
	app.Exit(0)

	return nil
}

// runContext is bound into every command's Run method.
type runContext struct {
	stdout io.Writer
	stderr io.Writer
}

func newParser(c *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name(appName),
		kong.Description("Multi-stage all-pass phase effect."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter("MultiAllPass")),
	}

	return kong.New(c, append(opts, options...)...)
}

func run(args []string, stdout, stderr io.Writer, exit func(int)) error {
	var c CLI

	parser, err := newParser(&c, kong.Writers(stdout, stderr), kong.Exit(exit))
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return ctx.Run(&runContext{stdout: stdout, stderr: stderr})
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, os.Exit); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}
