// Package batch drives the resizer over a set of files: every input is
// resized at every requested scale with every requested method and the
// results are written next to each other with descriptive names.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/rescale/pkg/imageio"
	"github.com/Fepozopo/rescale/pkg/pixbuf"
	"github.com/Fepozopo/rescale/pkg/resample"
)

// DefaultScales are the factors used when none are given.
var DefaultScales = []float64{0.5, 0.75, 1.5, 2.0}

var (
	// ErrInvalidOptions is returned by Run for option values it cannot honour.
	ErrInvalidOptions = errors.New("batch: invalid options")
	// ErrOutputConflict marks a job whose output path belongs to an earlier
	// job, e.g. a/lenna.png and b/lenna.png resized with the same settings.
	ErrOutputConflict = errors.New("batch: output path already used by another job")
)

// Job is one resize of one input file.
type Job struct {
	Input  string
	Scale  float64
	Method resample.Method

	// Width and Height request an explicit target size instead of Scale.
	// A zero in either one keeps the source aspect ratio.
	Width  int
	Height int
}

func (j Job) explicit() bool { return j.Width > 0 || j.Height > 0 }

// Label is the size part of the output name: the scale factor, or WxH for
// explicit sizes.
func (j Job) Label() string {
	if j.explicit() {
		return fmt.Sprintf("%dx%d", j.Width, j.Height)
	}
	return FormatScale(j.Scale)
}

// Result is the outcome of a Job.
type Result struct {
	Job    Job
	Output string
	// Width and Height are the computed target size. They stay zero when
	// the job never got as far as sizing.
	Width  int
	Height int
	// Skipped is set when Output already existed and Options.Overwrite was
	// false. Nothing was written for the job.
	Skipped bool
	Err     error
}

// Report collects the results of a run, in job order.
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns the results without an error, skipped ones included.
func (r *Report) Succeeded() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Written returns the results whose output file was written by this run.
func (r *Report) Written() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil && !res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// Skipped returns the results left alone because their output existed.
func (r *Report) Skipped() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil && res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// Options configure Run.
type Options struct {
	// OutputDir receives the resized files. Empty means the current directory.
	OutputDir string
	// Format forces the output extension ("png", ".jpg"). Empty keeps the
	// input's extension when it can be encoded, and falls back to PNG.
	Format string
	// Workers bounds the number of jobs resized at once. Zero or less
	// means one per CPU.
	Workers int
	// Overwrite replaces existing output files instead of skipping them.
	Overwrite bool
	Encode    imageio.Options
	// Logger receives progress and per-file errors. Nil discards them.
	Logger *slog.Logger
}

// Plan expands inputs x scales x methods into jobs: inputs outermost,
// methods innermost.
func Plan(inputs []string, scales []float64, methods []resample.Method) []Job {
	jobs := make([]Job, 0, len(inputs)*len(scales)*len(methods))
	for _, in := range inputs {
		for _, s := range scales {
			for _, m := range methods {
				jobs = append(jobs, Job{Input: in, Scale: s, Method: m})
			}
		}
	}
	return jobs
}

// PlanSize expands inputs x methods into jobs with an explicit target size.
func PlanSize(inputs []string, width, height int, methods []resample.Method) []Job {
	jobs := make([]Job, 0, len(inputs)*len(methods))
	for _, in := range inputs {
		for _, m := range methods {
			jobs = append(jobs, Job{Input: in, Method: m, Width: width, Height: height})
		}
	}
	return jobs
}

// FormatScale formats a scale factor the way it appears in file names.
func FormatScale(s float64) string {
	return strconv.FormatFloat(s, 'g', -1, 64)
}

// OutputName builds <stem>_resized_<method>_<scale><ext>, e.g.
// lenna_resized_cubic_0.75.png.
func OutputName(input string, m resample.Method, scale float64, ext string) string {
	return outputName(input, m, FormatScale(scale), ext)
}

// outputName is OutputName with the size part already formatted.
func outputName(input string, m resample.Method, label, ext string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_resized_%s_%s%s", stem, m, label, ext)
}

// outputExt picks the extension for input given the forced format.
func outputExt(input, format string) string {
	if format != "" {
		return "." + strings.ToLower(strings.TrimPrefix(format, "."))
	}
	ext := filepath.Ext(input)
	if imageio.CanEncode(ext) {
		return strings.ToLower(ext)
	}
	return ".png"
}

// outputPath is where job j writes its result.
func outputPath(outDir string, j Job, format string) string {
	return filepath.Join(outDir, outputName(j.Input, j.Method, j.Label(), outputExt(j.Input, format)))
}

// claimOutputs fails every job whose output path was already claimed by an
// earlier job. The first job in order keeps the path.
func claimOutputs(results []Result, log *slog.Logger) {
	owner := make(map[string]int, len(results))
	for i := range results {
		res := &results[i]
		first, taken := owner[res.Output]
		if !taken {
			owner[res.Output] = i
			continue
		}
		prev := results[first].Job
		res.Err = fmt.Errorf("%w: %s would overwrite the %s %s result of %s",
			ErrOutputConflict, res.Output, prev.Method, prev.Label(), prev.Input)
		log.Error("output name already used by another job, skipping",
			"input", res.Job.Input, "output", res.Output, "other", prev.Input)
	}
}

// source is a decoded input shared read-only by all of its jobs.
type source struct {
	path string
	buf  *pixbuf.Buffer
	err  error
	jobs []int
}

// group keeps jobs for the same input together, in order of first appearance.
func group(jobs []Job) []*source {
	var out []*source
	idx := make(map[string]*source)
	for i, j := range jobs {
		s, ok := idx[j.Input]
		if !ok {
			s = &source{path: j.Input}
			idx[j.Input] = s
			out = append(out, s)
		}
		s.jobs = append(s.jobs, i)
	}
	return out
}

// Run executes jobs. Each input is decoded once. A file that cannot be
// loaded fails all of its jobs and the run continues with the next file.
// Jobs that would write the same output path as an earlier job fail with
// ErrOutputConflict before anything is resized.
//
// The returned error is non-nil only for invalid options or cancellation;
// per-job failures are reported in the Report. After cancellation every
// job that never ran carries the context error.
func Run(ctx context.Context, jobs []Job, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.Format != "" && !imageio.CanEncode(opts.Format) {
		return nil, fmt.Errorf("%w: cannot encode format %q", ErrInvalidOptions, opts.Format)
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: output directory %s: %w", ErrInvalidOptions, outDir, err)
	}

	report := &Report{Results: make([]Result, len(jobs))}
	for i, j := range jobs {
		report.Results[i].Job = j
		report.Results[i].Output = outputPath(outDir, j, opts.Format)
	}
	claimOutputs(report.Results, log)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	sources := group(jobs)
	for n, src := range sources {
		if err := gctx.Err(); err != nil {
			// nothing from here on was scheduled
			for _, rest := range sources[n:] {
				for _, i := range rest.jobs {
					if report.Results[i].Err == nil {
						report.Results[i].Err = err
					}
				}
			}
			break
		}

		var pending []int
		for _, i := range src.jobs {
			if report.Results[i].Err == nil {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			continue
		}

		log.Debug("loading image", "input", src.path)
		src.buf, _, src.err = imageio.LoadBuffer(src.path)
		if src.err != nil {
			log.Error("failed to load image, skipping", "input", src.path, "err", src.err)
			for _, i := range pending {
				report.Results[i].Err = src.err
			}
			continue
		}
		for _, i := range pending {
			res := &report.Results[i]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					res.Err = err
					return err
				}
				runJob(res, src.buf, opts, log)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// runJob resizes src for res.Job and writes res.Output, recording the
// outcome in res. Only this goroutine touches res while it runs.
func runJob(res *Result, src *pixbuf.Buffer, opts Options, log *slog.Logger) {
	job := res.Job

	var (
		w, h int
		err  error
	)
	if job.explicit() {
		w, h, err = resample.FitSize(src.W, src.H, job.Width, job.Height)
	} else {
		w, h, err = resample.ScaleSize(src.W, src.H, job.Scale)
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Input, err)
		log.Error("invalid target size", "input", job.Input, "method", job.Method.String(), "size", job.Label(), "err", err)
		return
	}
	res.Width, res.Height = w, h

	if !opts.Overwrite {
		if _, err := os.Stat(res.Output); err == nil {
			res.Skipped = true
			log.Info("output exists, skipping", "output", res.Output)
			return
		}
	}

	out, err := job.Method.Resize(src, w, h)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Input, err)
		log.Error("resize failed", "input", job.Input, "method", job.Method.String(), "err", err)
		return
	}
	if err := imageio.SaveBuffer(res.Output, out, opts.Encode); err != nil {
		res.Err = err
		log.Error("failed to save image", "output", res.Output, "err", err)
		return
	}

	if job.explicit() {
		log.Info(fmt.Sprintf("Image resized using %s to %dx%d", job.Method, w, h), "input", job.Input, "output", res.Output)
		return
	}
	log.Info(fmt.Sprintf("Image resized using %s to %s%%", job.Method, FormatScale(job.Scale*100)),
		"input", job.Input, "output", res.Output, "width", w, "height", h)
}
