package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

const namespace = "xgpu_bench"

// Metrics holds the collectors of one benchmark process.
type Metrics struct {
	registry *prometheus.Registry

	HostMemoryMB          *prometheus.GaugeVec
	GPUMemoryMB           *prometheus.GaugeVec
	GPUUtilizationPercent prometheus.Gauge
	UnavailableReadings   *prometheus.CounterVec
	Samples               *prometheus.CounterVec

	RunDuration prometheus.Histogram
	Runs        *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HostMemoryMB: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_mb",
			Help:      "Resident set size of the benchmark process in megabytes",
		}, []string{"kind"}),

		GPUMemoryMB: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_memory_mb",
			Help:      "Device memory of the active GPU in megabytes",
		}, []string{"kind"}),

		GPUUtilizationPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_memory_utilization_percent",
			Help:      "Peak used device memory as a percentage of total (0-100)",
		}),

		UnavailableReadings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unavailable_readings_total",
			Help:      "Number of memory samples whose probe could not be read",
		}, []string{"source"}),

		Samples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_samples_total",
			Help:      "Number of memory monitor updates by stage",
		}, []string{"stage"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correlation_duration_seconds",
			Help:      "Duration of one correlator run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
		}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlation_runs_total",
			Help:      "Total number of correlator runs by backend and outcome",
		}, []string{"backend", "status"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUsage is a memmon.Observer. Unavailable values leave their gauge
// untouched and are counted instead.
func (m *Metrics) ObserveUsage(stage memmon.Stage, u memmon.Usage) {
	m.Samples.WithLabelValues(string(stage)).Inc()

	if memmon.IsValid(u.CurrentSystemMB) {
		m.HostMemoryMB.WithLabelValues("current").Set(u.CurrentSystemMB)
	} else {
		m.UnavailableReadings.WithLabelValues("host").Inc()
	}
	setIfValid(m.HostMemoryMB.WithLabelValues("initial"), u.InitialSystemMB)
	setIfValid(m.HostMemoryMB.WithLabelValues("peak"), u.PeakSystemMB)

	if memmon.IsValid(u.CurrentGPUMB) {
		m.GPUMemoryMB.WithLabelValues("used").Set(u.CurrentGPUMB)
	} else {
		m.UnavailableReadings.WithLabelValues("gpu").Inc()
	}
	setIfValid(m.GPUMemoryMB.WithLabelValues("initial"), u.InitialGPUMB)
	setIfValid(m.GPUMemoryMB.WithLabelValues("peak"), u.PeakGPUMB)
	setIfValid(m.GPUMemoryMB.WithLabelValues("free"), u.GPUFreeMB)
	setIfValid(m.GPUMemoryMB.WithLabelValues("total"), u.GPUTotalMB)

	if pct, ok := u.GPUUtilization(); ok {
		m.GPUUtilizationPercent.Set(pct)
	}
}

// ObserveRun records one correlator run.
func (m *Metrics) ObserveRun(backend string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.RunDuration.Observe(d.Seconds())
	}
	m.Runs.WithLabelValues(backend, status).Inc()
}

// WriteTextfile writes every collector in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func setIfValid(g prometheus.Gauge, v float64) {
	if memmon.IsValid(v) {
		g.Set(v)
	}
}
