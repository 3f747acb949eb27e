package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/app"
	"github.com/fxnlabs/xgpu-bench/internal/correlator"
	"github.com/fxnlabs/xgpu-bench/internal/harness"
	"github.com/fxnlabs/xgpu-bench/internal/memmon"
	"github.com/fxnlabs/xgpu-bench/internal/probe"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the correlator configuration and current memory readings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Usage: "Correlator backend: auto, xgpu or cpu"},
			&cli.StringFlag{Name: "device-probe", Usage: "Device memory probe: auto, cuda, nvml, nvidia-smi, sysfs or none"},
		},
		Action: func(c *cli.Context) error {
			cfg := appConfig(c)
			applyRunFlags(c, cfg)

			var (
				corr   correlator.Correlator
				host   memmon.HostProbe
				device probe.Device
				env    harness.Env
			)
			fxApp := fx.New(
				fx.Supply(cfg, app.Console{Writer: os.Stdout}),
				app.Module,
				fx.WithLogger(app.FxLogger),
				fx.Populate(&corr, &host, &device, &env),
			)
			if err := fxApp.Start(c.Context); err != nil {
				return err
			}
			defer func() {
				if err := fxApp.Stop(context.Background()); err != nil {
					appLogger(c).Warn("Failed to stop cleanly", zap.Error(err))
				}
			}()

			printInfo(os.Stdout, corr.Info(), host, device, env)
			return nil
		},
	}
}

func printInfo(w io.Writer, info correlator.Info, host memmon.HostProbe, device probe.Device, env harness.Env) {
	figure.Write(w, figure.NewFigure("xGPU bench", "", true))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "CUDA Version: %s\n", env.CUDAVersion)
	fmt.Fprintf(w, "System: %s\n", env.System)

	fmt.Fprintf(w, "Correlator (%s):\n", info.Backend)
	fmt.Fprintf(w, "  Stations:      %d\n", info.NStation)
	fmt.Fprintf(w, "  Frequencies:   %d\n", info.NFrequency)
	fmt.Fprintf(w, "  Time samples:  %d\n", info.NTime)
	fmt.Fprintf(w, "  Polarizations: %d\n", info.NPol)
	fmt.Fprintf(w, "  Input:  %s samples (%s)\n", humanize.Comma(int64(info.VecLength)), humanize.IBytes(uint64(info.VecLength)*8))
	fmt.Fprintf(w, "  Output: %s visibilities (%s)\n", humanize.Comma(int64(info.MatLength)), humanize.IBytes(uint64(info.MatLength)*8))

	fmt.Fprintln(w, "Memory:")
	if host == nil {
		fmt.Fprintln(w, "  Host RSS: unavailable")
	} else if mb, err := host.ResidentSetMB(); err != nil {
		fmt.Fprintf(w, "  Host RSS: unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(w, "  Host RSS: %s\n", formatMB(mb))
	}

	reading, err := device.DeviceMemory()
	if err != nil {
		fmt.Fprintf(w, "  Device (%s): unavailable (%v)\n", device.Name(), err)
		return
	}
	fmt.Fprintf(w, "  Device (%s): %s used, %s free, %s total\n", device.Name(),
		formatMB(reading.UsedMB), formatMB(reading.FreeMB), formatMB(reading.TotalMB))
}

func formatMB(mb float64) string {
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}
