// Package cli implements the rescale command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/Fepozopo/rescale/pkg/config"
)

// Version is set at build time with -ldflags "-X github.com/Fepozopo/rescale/pkg/cli.Version=...".
var Version = "0.1.0"

// errReported is returned once a failure has already been shown to the user.
var errReported = errors.New("error reported")

// app carries the streams and the state shared by every subcommand. cfg and
// log are only valid after setup has run.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	debug     bool
	logFormat string
	envFiles  []string

	cfg config.Config
	log *slog.Logger
}

// NewRootCommand builds the rescale command tree writing to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, getenv: os.Getenv}
	return a.rootCommand()
}

// rootCommand wires the persistent flags and the subcommands.
func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rescale",
		Short: "rescale resizes images with nearest, bilinear and bicubic interpolation",
		Long: `rescale resizes images with nearest, bilinear and bicubic interpolation.

Every input file is resized at every requested scale with every requested
method; results are named <name>_resized_<method>_<scale><ext>.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.BoolVar(&a.debug, "debug", false, "debug logging and error stack traces")
	pf.StringVar(&a.logFormat, "log-format", "", "log output format (text or json)")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "load environment from these files (default .env)")

	root.AddCommand(
		a.resizeCommand(),
		a.methodsCommand(),
		a.versionCommand(),
		a.updateCommand(),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	return a.run(func() error {
		cfg, err := config.Load(a.envFiles...)
		if err != nil {
			return goerrors.Wrap(err, 0)
		}
		if cmd.Flags().Changed("debug") {
			cfg.Debug = a.debug
		}
		a.debug = cfg.Debug
		if a.logFormat != "" {
			f, err := config.ParseLogFormat(a.logFormat)
			if err != nil {
				return goerrors.Wrap(err, 0)
			}
			cfg.LogFormat = f
		}
		a.cfg = cfg
		a.log = newLogger(a.stderr, cfg.LogFormat, cfg.Debug)
		return nil
	})
}

// run executes fn and reports its error, with a stack trace under --debug.
func (a *app) run(fn func() error) error {
	var err error
	if fn == nil {
		err = goerrors.New("nil function")
	} else {
		err = fn()
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, errReported) {
		return err
	}
	if stackFramer, ok := err.(interface{ ErrorStack() string }); a.debug && ok {
		fmt.Fprintln(a.stderr, stackFramer.ErrorStack())
	} else {
		fmt.Fprintln(a.stderr, "rescale: "+err.Error())
	}
	return errReported
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			// flag and argument errors from cobra itself
			fmt.Fprintln(os.Stderr, "rescale: "+err.Error())
		}
		return 1
	}
	return 0
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the rescale version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "rescale %s\n", Version)
		},
	}
}
