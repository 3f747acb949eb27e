package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/fxnlabs/xgpu-bench/internal/config"
	"github.com/fxnlabs/xgpu-bench/internal/correlator"
	"github.com/fxnlabs/xgpu-bench/internal/harness"
	"github.com/fxnlabs/xgpu-bench/internal/memmon"
	"github.com/fxnlabs/xgpu-bench/internal/probe"
)

func TestApplyRunFlags(t *testing.T) {
	var got *config.Config
	cmd := runCommand()
	cmd.Action = func(c *cli.Context) error {
		got = config.Default()
		applyRunFlags(c, got)
		return nil
	}
	app := &cli.App{Name: "xgpu-bench", Commands: []*cli.Command{cmd}}

	t.Run("overrides", func(t *testing.T) {
		err := app.Run([]string{"xgpu-bench", "run",
			"--seed", "7",
			"--output-dir", "/tmp/out",
			"--label", "A100",
			"--texture-dim", "2",
			"--backend", "cpu",
			"--device-probe", "nvidia-smi",
			"--metrics-file", "/tmp/out/bench.prom",
			"--no-banner",
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(7), got.Run.Seed)
		assert.Equal(t, "/tmp/out", got.Run.OutputDir)
		assert.Equal(t, "A100", got.Run.Label)
		assert.Equal(t, 2, got.Run.TextureDim)
		assert.Equal(t, "cpu", got.Correlator.Backend)
		assert.Equal(t, "nvidia-smi", got.Probe.Device)
		assert.Equal(t, "/tmp/out/bench.prom", got.Metrics.Textfile)
		assert.False(t, got.Run.Banner)
	})

	t.Run("unset flags keep config", func(t *testing.T) {
		require.NoError(t, app.Run([]string{"xgpu-bench", "run"}))
		assert.Equal(t, config.Default(), got)
	})
}

func TestPrintInfo(t *testing.T) {
	c, err := correlator.NewCPUCorrelator(correlator.Dimensions{Stations: 4, Frequencies: 2, TimeSamples: 8, Polarizations: 2}, nil)
	require.NoError(t, err)
	env := harness.Env{CUDAVersion: "12.2", System: "Linux 6.8.0"}

	t.Run("no device", func(t *testing.T) {
		var buf bytes.Buffer
		host := memmon.HostProbeFunc(func() (float64, error) { return 512, nil })
		printInfo(&buf, c.Info(), host, probe.NoDevice{}, env)

		out := buf.String()
		assert.Contains(t, out, "CUDA Version: 12.2\n")
		assert.Contains(t, out, "Correlator (cpu):\n")
		assert.Contains(t, out, "  Input:  128 samples (1.0 KiB)\n")
		assert.Contains(t, out, "  Output: 80 visibilities (640 B)\n")
		assert.Contains(t, out, "  Host RSS: 512 MiB\n")
		assert.Contains(t, out, "  Device (none): unavailable")
	})

	t.Run("host failure", func(t *testing.T) {
		var buf bytes.Buffer
		host := memmon.HostProbeFunc(func() (float64, error) { return 0, errors.New("no /proc") })
		printInfo(&buf, c.Info(), host, probe.NoDevice{}, env)
		assert.Contains(t, buf.String(), "  Host RSS: unavailable (no /proc)\n")
	})
}
