package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/app"
	"github.com/fxnlabs/xgpu-bench/internal/config"
	"github.com/fxnlabs/xgpu-bench/internal/harness"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Correlate one block of test data and save the visibilities",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "seed", Usage: "Test data seed"},
			&cli.StringFlag{Name: "output-dir", Usage: "Directory for result files"},
			&cli.StringFlag{Name: "label", Usage: "Label printed in the memory report"},
			&cli.IntFlag{Name: "texture-dim", Usage: "Texture dimension the xGPU library was built with"},
			&cli.StringFlag{Name: "backend", Usage: "Correlator backend: auto, xgpu or cpu"},
			&cli.StringFlag{Name: "device-probe", Usage: "Device memory probe: auto, cuda, nvml, nvidia-smi, sysfs or none"},
			&cli.StringFlag{Name: "metrics-file", Usage: "Write Prometheus metrics to `FILE` after the run"},
			&cli.BoolFlag{Name: "no-banner", Usage: "Do not print the ASCII banner"},
		},
		Action: func(c *cli.Context) error {
			log := appLogger(c)
			cfg := appConfig(c)
			applyRunFlags(c, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var h *harness.Harness
			fxApp := fx.New(
				fx.Supply(cfg, app.Console{Writer: os.Stdout}),
				app.Module,
				fx.WithLogger(app.FxLogger),
				fx.Populate(&h),
			)
			if err := fxApp.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := fxApp.Stop(context.Background()); err != nil {
					log.Warn("Failed to stop cleanly", zap.Error(err))
				}
			}()

			res, err := h.Run(ctx)
			if err != nil {
				return err
			}
			log.Info("Run completed",
				zap.String("backend", res.Info.Backend),
				zap.Duration("duration", res.Duration),
				zap.String("results", res.ResultPath))
			return nil
		},
	}
}

func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("seed") {
		cfg.Run.Seed = c.Uint64("seed")
	}
	if c.IsSet("output-dir") {
		cfg.Run.OutputDir = c.String("output-dir")
	}
	if c.IsSet("label") {
		cfg.Run.Label = c.String("label")
	}
	if c.IsSet("texture-dim") {
		cfg.Run.TextureDim = c.Int("texture-dim")
	}
	if c.IsSet("backend") {
		cfg.Correlator.Backend = c.String("backend")
	}
	if c.IsSet("device-probe") {
		cfg.Probe.Device = c.String("device-probe")
	}
	if c.IsSet("metrics-file") {
		cfg.Metrics.Textfile = c.String("metrics-file")
	}
	if c.Bool("no-banner") {
		cfg.Run.Banner = false
	}
}
