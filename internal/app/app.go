// Package app wires the benchmark components together with fx.
package app

import (
	"context"
	"io"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fxnlabs/xgpu-bench/internal/config"
	"github.com/fxnlabs/xgpu-bench/internal/correlator"
	"github.com/fxnlabs/xgpu-bench/internal/harness"
	"github.com/fxnlabs/xgpu-bench/internal/logger"
	"github.com/fxnlabs/xgpu-bench/internal/memmon"
	"github.com/fxnlabs/xgpu-bench/internal/metrics"
	"github.com/fxnlabs/xgpu-bench/internal/probe"
)

// Console is where human-readable run output is written.
type Console struct {
	io.Writer
}

// Module provides every component of a benchmark run. Callers supply a
// *config.Config and a Console.
var Module = fx.Module("xgpu-bench",
	fx.Provide(
		NewLogger,
		metrics.New,
		NewHostProbe,
		NewDeviceProbe,
		NewCorrelator,
		NewEnv,
		NewHarness,
	),
)

// FxLogger routes fx lifecycle events to zap at debug level.
func FxLogger(log *zap.Logger) fxevent.Logger {
	l := &fxevent.ZapLogger{Logger: log.Named("fx")}
	l.UseLogLevel(zapcore.DebugLevel)
	return l
}

// NewLogger builds the root logger from the logger section.
func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Logger.Verbosity, cfg.Logger.Encoding)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		_ = log.Sync()
	}))
	return log, nil
}

// NewHostProbe returns the resident set reader, or nil when the platform
// cannot provide one. A nil probe makes the monitor report host memory as
// unavailable.
func NewHostProbe(cfg *config.Config, log *zap.Logger) memmon.HostProbe {
	h, err := probe.NewHostProbe(cfg.Probe.ProcRoot)
	if err != nil {
		log.Warn("Host memory probe not available", zap.Error(err))
		return nil
	}
	return h
}

// NewDeviceProbe opens the configured device probe and closes it on stop.
func NewDeviceProbe(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (probe.Device, error) {
	d, err := probe.NewDeviceProbe(probe.DeviceOptions{
		Kind:       cfg.Probe.Device,
		Index:      cfg.Probe.DeviceIndex,
		SysfsRoot:  cfg.Probe.SysfsRoot,
		Card:       cfg.Probe.Card,
		SMITimeout: cfg.Probe.SMITimeout,
	}, log.Named("probe"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return d.Close()
		},
	})
	return d, nil
}

// NewCorrelator creates the configured correlator backend.
func NewCorrelator(cfg *config.Config, log *zap.Logger) (correlator.Correlator, error) {
	return correlator.New(cfg.Correlator.Backend, cfg.Correlator.Dimensions, log.Named("correlator"))
}

// NewEnv detects the CUDA toolkit version and operating system.
func NewEnv() harness.Env {
	return harness.DetectEnv(context.Background())
}

type harnessParams struct {
	fx.In

	Config     *config.Config
	Console    Console
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Host       memmon.HostProbe
	Device     probe.Device
	Correlator correlator.Correlator
	Env        harness.Env
}

// NewHarness assembles a Harness from the run section.
func NewHarness(p harnessParams) *harness.Harness {
	return harness.New(harness.Deps{
		Correlator: p.Correlator,
		Host:       p.Host,
		Device:     p.Device,
		Metrics:    p.Metrics,
		Env:        p.Env,
		Out:        p.Console,
		Logger:     p.Logger,
	}, harness.Options{
		Seed:            p.Config.Run.Seed,
		OutputDir:       p.Config.Run.OutputDir,
		Label:           p.Config.Run.Label,
		TextureDim:      p.Config.Run.TextureDim,
		Banner:          p.Config.Run.Banner,
		MetricsTextfile: p.Config.Metrics.Textfile,
	})
}
