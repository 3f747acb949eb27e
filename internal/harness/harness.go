// Package harness runs one correlator integration under the memory monitor
// and records the visibilities to a result file.
package harness

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/correlator"
	"github.com/fxnlabs/xgpu-bench/internal/memmon"
	"github.com/fxnlabs/xgpu-bench/internal/metrics"
	"github.com/fxnlabs/xgpu-bench/internal/results"
)

const (
	title     = "xGPU Texture Compatibility Test"
	separator = "======================================================="
)

// Options are the per-run settings.
type Options struct {
	Seed            uint64
	OutputDir       string
	Label           string
	TextureDim      int
	Banner          bool
	MetricsTextfile string
}

// Env describes the host a run executes on.
type Env struct {
	CUDAVersion string
	System      string
	Now         func() time.Time
}

// DetectEnv queries nvcc and uname.
func DetectEnv(ctx context.Context) Env {
	return Env{
		CUDAVersion: results.CUDAVersion(ctx),
		System:      results.SystemInfo(),
		Now:         time.Now,
	}
}

// Deps are the collaborators of a Harness. Metrics may be nil.
type Deps struct {
	Correlator correlator.Correlator
	Host       memmon.HostProbe
	Device     memmon.DeviceProbe
	Metrics    *metrics.Metrics
	Env        Env
	Out        io.Writer
	Logger     *zap.Logger
}

// Result summarizes a completed run.
type Result struct {
	Info       correlator.Info
	Duration   time.Duration
	Stats      results.Stats
	Usage      memmon.Usage
	ResultPath string
}

// Harness drives a single run.
type Harness struct {
	deps Deps
	opts Options
	log  *zap.Logger
}

// New creates a Harness.
func New(deps Deps, opts Options) *Harness {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Env.Now == nil {
		deps.Env.Now = time.Now
	}
	if deps.Env.CUDAVersion == "" {
		deps.Env.CUDAVersion = results.UnknownVersion
	}
	if opts.Label == "" {
		opts.Label = "xGPU Correlator"
	}
	return &Harness{deps: deps, opts: opts, log: deps.Logger.Named("harness")}
}

// Run initializes the correlator, correlates one block of deterministic test
// data, saves the visibilities and prints statistics and the memory report.
// The correlator is freed before Run returns.
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	out := h.deps.Out
	corr := h.deps.Correlator

	opts := []memmon.Option{memmon.WithLogger(h.log)}
	if h.deps.Metrics != nil {
		opts = append(opts, memmon.WithObserver(h.deps.Metrics.ObserveUsage))
		defer h.writeMetrics()
	}
	monitor := memmon.New(h.deps.Host, h.deps.Device, opts...)
	monitor.Init()

	h.printHeader()

	info := corr.Info()
	fmt.Fprintf(out, "Correlator Configuration (%s):\n", info.Backend)
	fmt.Fprintf(out, "  Stations: %d\n", info.NStation)
	fmt.Fprintf(out, "  Frequencies: %d\n", info.NFrequency)
	fmt.Fprintf(out, "  Time samples: %d\n", info.NTime)
	fmt.Fprintf(out, "  Matrix length: %d\n", info.MatLength)
	h.log.Info("Correlator configured",
		zap.String("backend", info.Backend),
		zap.Int("stations", info.NStation),
		zap.Int("vecLength", info.VecLength),
		zap.Int("matLength", info.MatLength),
		zap.String("inputSize", humanize.IBytes(uint64(info.VecLength)*8)),
		zap.String("outputSize", humanize.IBytes(uint64(info.MatLength)*8)))

	if err := corr.Init(); err != nil {
		return nil, fmt.Errorf("initialize correlator: %w", err)
	}
	fmt.Fprintln(out, "Correlator initialized successfully")

	monitor.Sample()

	correlator.GenerateTestData(corr.Input(), h.opts.Seed)
	fmt.Fprintf(out, "Generated test data with seed %d\n", h.opts.Seed)
	clear(corr.Output())

	fmt.Fprintln(out, "Running correlation...")
	monitor.Sample()

	start := time.Now()
	runErr := corr.Run(ctx)
	duration := time.Since(start)

	monitor.Sample()
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveRun(info.Backend, duration, runErr)
	}

	if runErr != nil {
		h.free()
		return nil, fmt.Errorf("run correlator: %w", runErr)
	}
	fmt.Fprintln(out, "Correlation completed successfully")
	fmt.Fprintf(out, "Execution time: %.6f seconds\n", duration.Seconds())

	output := corr.Output()
	meta := results.Metadata{
		Generated:   h.deps.Env.Now(),
		CUDAVersion: h.deps.Env.CUDAVersion,
		System:      h.deps.Env.System,
		TextureDim:  h.opts.TextureDim,
		MatLength:   len(output),
		Seed:        h.opts.Seed,
		ExecTime:    duration,
	}
	path, err := results.Save(h.opts.OutputDir, meta, output)
	if err != nil {
		h.free()
		return nil, fmt.Errorf("save results: %w", err)
	}
	fmt.Fprintf(out, "Results saved to %s\n", path)

	stats := results.ComputeStats(output)
	if _, err := stats.WriteTo(out); err != nil {
		h.log.Warn("Failed to print statistics", zap.Error(err))
	}

	monitor.Finalize()
	fmt.Fprint(out, monitor.Report(h.opts.Label))

	h.free()

	fmt.Fprintf(out, "\n%s\n", separator)
	fmt.Fprintln(out, "Test completed successfully!")
	fmt.Fprintf(out, "Results saved to: %s\n", path)
	fmt.Fprintln(out, separator)

	return &Result{
		Info:       info,
		Duration:   duration,
		Stats:      stats,
		Usage:      monitor.Usage(),
		ResultPath: path,
	}, nil
}

func (h *Harness) printHeader() {
	out := h.deps.Out
	if h.opts.Banner {
		fmt.Fprintln(out, strings.TrimRight(figure.NewFigure("xGPU bench", "", true).String(), "\n"))
	}
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, separator)
	fmt.Fprintf(out, "CUDA Version: %s\n", h.deps.Env.CUDAVersion)
	fmt.Fprintf(out, "Texture Dimension: %s\n", results.Metadata{TextureDim: h.opts.TextureDim}.TextureDimString())
}

func (h *Harness) free() {
	if err := h.deps.Correlator.Free(); err != nil {
		h.log.Warn("Failed to free correlator", zap.Error(err))
	}
}

// writeMetrics exports the registry to the textfile after every run, failed
// runs included.
func (h *Harness) writeMetrics() {
	if h.deps.Metrics == nil || h.opts.MetricsTextfile == "" {
		return
	}
	if err := h.deps.Metrics.WriteTextfile(h.opts.MetricsTextfile); err != nil {
		h.log.Warn("Failed to write metrics textfile", zap.String("path", h.opts.MetricsTextfile), zap.Error(err))
		return
	}
	h.log.Debug("Metrics textfile written", zap.String("path", h.opts.MetricsTextfile))
}
