package cli

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/Fepozopo/rescale/pkg/batch"
	"github.com/Fepozopo/rescale/pkg/config"
	"github.com/Fepozopo/rescale/pkg/imageio"
	"github.com/Fepozopo/rescale/pkg/resample"
)

// ErrJobsFailed is reported when at least one resize job did not produce output.
var ErrJobsFailed = errors.New("one or more images could not be resized")

// resizeFlags mirrors the resize command's flags. Unset values fall back to
// the loaded config.
type resizeFlags struct {
	scales    []string
	methods   []string
	width     int
	height    int
	outDir    string
	format    string
	workers   int
	quality   int
	overwrite bool
	preview   bool
	pick      bool
}

func (a *app) resizeCommand() *cobra.Command {
	var f resizeFlags
	cmd := &cobra.Command{
		Use:   "resize [files...]",
		Short: "resize images at several scales with several methods",
		Long: `Resize every input at every scale with every method.

Scales and methods default to RESCALE_SCALES and RESCALE_METHODS
(0.5,0.75,1.5,2 and nearest,bilinear,cubic). --width/--height request an
explicit size instead; a 0 side keeps the aspect ratio. Files that cannot
be read are reported and skipped.`,
		Example: `  rescale resize lenna.png
  rescale resize -s 0.5 -s 2 -m cubic -o out photos/*.jpg
  rescale resize --width 640 --method bilinear lenna.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func() error { return a.resize(cmd, f, args) })
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.scales, "scale", "s", nil, "scale factors (repeatable or comma separated)")
	fl.StringSliceVarP(&f.methods, "method", "m", nil, "interpolation methods: "+methodNames())
	fl.IntVar(&f.width, "width", 0, "explicit target width (overrides --scale)")
	fl.IntVar(&f.height, "height", 0, "explicit target height (overrides --scale)")
	fl.StringVarP(&f.outDir, "out", "o", "", "output directory")
	fl.StringVarP(&f.format, "format", "f", "", "output format (png, jpg, bmp, tif, gif); default keeps the input format")
	fl.IntVarP(&f.workers, "workers", "w", 0, "parallel resize jobs (default number of CPUs)")
	fl.IntVar(&f.quality, "quality", imageio.DefaultJPEGQuality, "JPEG quality")
	fl.BoolVar(&f.overwrite, "overwrite", false, "replace existing output files")
	fl.BoolVar(&f.preview, "preview", false, "show results in the terminal (kitty or iTerm2 protocols)")
	fl.BoolVar(&f.pick, "pick", false, "pick input files interactively with fzf")
	return cmd
}

// methodNames lists the canonical method names for flag help.
func methodNames() string {
	names := make([]string, len(resample.Methods))
	for i, s := range resample.Methods {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

// resize merges flags over the config, plans the jobs and runs them.
func (a *app) resize(cmd *cobra.Command, f resizeFlags, args []string) error {
	// flags win over the environment, which won over the defaults in setup
	cfg := a.cfg
	inputs := args
	if f.pick {
		picked, err := SelectFilesWithFzf(".")
		if err != nil {
			return goerrors.Wrap(err, 0)
		}
		inputs = append(inputs, picked...)
	}
	if len(inputs) == 0 {
		return goerrors.Errorf("no input files; pass file names or use --pick")
	}

	if cmd.Flags().Changed("scale") {
		scales, err := config.ParseScales(strings.Join(f.scales, ","))
		if err != nil {
			return goerrors.Wrap(fmt.Errorf("--scale: %w", err), 0)
		}
		cfg.Scales = scales
	}
	if cmd.Flags().Changed("method") {
		methods, err := config.ParseMethods(strings.Join(f.methods, ","))
		if err != nil {
			return goerrors.Wrap(fmt.Errorf("--method: %w", err), 0)
		}
		cfg.Methods = methods
	}
	if f.outDir != "" {
		cfg.OutputDir = f.outDir
	}
	if f.format != "" {
		cfg.Format = f.format
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("preview") {
		cfg.Preview = f.preview
	}
	if f.width < 0 || f.height < 0 {
		return goerrors.Wrap(fmt.Errorf("%w: --width %d --height %d", resample.ErrInvalidDimension, f.width, f.height), 0)
	}

	var jobs []batch.Job
	if f.width > 0 || f.height > 0 {
		jobs = batch.PlanSize(inputs, f.width, f.height, cfg.Methods)
	} else {
		jobs = batch.Plan(inputs, cfg.Scales, cfg.Methods)
	}
	a.log.Debug("planned resize jobs", "inputs", len(inputs), "jobs", len(jobs), "workers", cfg.Workers)

	report, err := batch.Run(cmd.Context(), jobs, batch.Options{
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
		Workers:   cfg.Workers,
		Overwrite: f.overwrite,
		Encode:    imageio.Options{JPEGQuality: f.quality},
		Logger:    a.log,
	})
	if err != nil {
		return goerrors.Wrap(err, 0)
	}

	if cfg.Preview {
		a.previewResults(report)
	}

	// skipped outputs already existed, so they count apart from written ones
	written, skipped, failed := len(report.Written()), len(report.Skipped()), len(report.Failed())
	fmt.Fprintf(a.stdout, "%d of %d resizes written", written, len(report.Results))
	if skipped > 0 {
		fmt.Fprintf(a.stdout, ", %d skipped", skipped)
	}
	if failed > 0 {
		fmt.Fprintf(a.stdout, ", %d failed", failed)
	}
	fmt.Fprintln(a.stdout)
	if failed > 0 {
		return goerrors.Wrap(ErrJobsFailed, 0)
	}
	return nil
}

// previewResults shows every file written by this run in the terminal.
func (a *app) previewResults(report *batch.Report) {
	p := NewPreviewer(a.stdout, a.getenv, a.log)
	if !p.Supported() {
		a.log.Warn("terminal does not support image previews")
		return
	}
	for _, res := range report.Written() {
		img, format, err := imageio.Load(res.Output)
		if err != nil {
			a.log.Warn("cannot preview output", "output", res.Output, "err", err)
			continue
		}
		fmt.Fprintln(a.stdout, res.Output)
		if err := p.Show(img, format); err != nil {
			a.log.Warn("preview failed", "output", res.Output, "err", err)
		}
	}
}

func (a *app) methodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "list the interpolation methods",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range resample.Methods {
				fmt.Fprintf(a.stdout, "%-9s %s\n", s.Name, s.Description)
				if len(s.Aliases) > 0 {
					fmt.Fprintf(a.stdout, "%-9s aliases: %s\n", "", strings.Join(s.Aliases, ", "))
				}
			}
		},
	}
}
