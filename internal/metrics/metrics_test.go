package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

func TestObserveUsage(t *testing.T) {
	m := New()

	m.ObserveUsage(memmon.StageSample, memmon.Usage{
		PeakSystemMB:    120,
		InitialSystemMB: 100,
		CurrentSystemMB: 110,
		PeakGPUMB:       2048,
		InitialGPUMB:    512,
		CurrentGPUMB:    1024,
		GPUFreeMB:       7168,
		GPUTotalMB:      8192,
	})

	t.Run("host gauges", func(t *testing.T) {
		assert.Equal(t, 110.0, testutil.ToFloat64(m.HostMemoryMB.WithLabelValues("current")))
		assert.Equal(t, 100.0, testutil.ToFloat64(m.HostMemoryMB.WithLabelValues("initial")))
		assert.Equal(t, 120.0, testutil.ToFloat64(m.HostMemoryMB.WithLabelValues("peak")))
	})

	t.Run("gpu gauges", func(t *testing.T) {
		assert.Equal(t, 1024.0, testutil.ToFloat64(m.GPUMemoryMB.WithLabelValues("used")))
		assert.Equal(t, 8192.0, testutil.ToFloat64(m.GPUMemoryMB.WithLabelValues("total")))
		assert.Equal(t, 25.0, testutil.ToFloat64(m.GPUUtilizationPercent))
	})

	t.Run("samples counted by stage", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Samples.WithLabelValues("sample")))
		assert.Equal(t, 0, testutil.CollectAndCount(m.UnavailableReadings))
	})
}

func TestObserveUsage_Unavailable(t *testing.T) {
	m := New()

	m.ObserveUsage(memmon.StageSample, memmon.Usage{
		PeakSystemMB: 50, InitialSystemMB: 50, CurrentSystemMB: 50,
		PeakGPUMB: 100, InitialGPUMB: 100, CurrentGPUMB: 100,
		GPUFreeMB: 900, GPUTotalMB: 1000,
	})
	m.ObserveUsage(memmon.StageFinalize, memmon.Usage{
		PeakSystemMB: 50, InitialSystemMB: 50, CurrentSystemMB: 50,
		PeakGPUMB: 100, InitialGPUMB: 100, CurrentGPUMB: memmon.Unavailable,
		GPUFreeMB: memmon.Unavailable, GPUTotalMB: memmon.Unavailable,
	})

	// Last measured values are kept.
	assert.Equal(t, 100.0, testutil.ToFloat64(m.GPUMemoryMB.WithLabelValues("used")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.GPUMemoryMB.WithLabelValues("total")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.GPUUtilizationPercent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnavailableReadings.WithLabelValues("gpu")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.UnavailableReadings.WithLabelValues("host")))
}

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun("cpu", 250*time.Millisecond, nil)
	m.ObserveRun("cpu", 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("cpu", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("cpu", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun("cpu", time.Second, nil)

	path := filepath.Join(t.TempDir(), "xgpu_bench.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `xgpu_bench_correlation_runs_total{backend="cpu",status="success"} 1`)
	assert.Contains(t, string(data), "xgpu_bench_correlation_duration_seconds_count 1")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveRun("cpu", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Runs.WithLabelValues("cpu", "success")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.Runs))
}

func BenchmarkObserveUsage(b *testing.B) {
	m := New()
	u := memmon.Usage{CurrentSystemMB: 1, CurrentGPUMB: 1, GPUTotalMB: 2, PeakGPUMB: 1}
	for i := 0; i < b.N; i++ {
		m.ObserveUsage(memmon.StageSample, u)
	}
}
