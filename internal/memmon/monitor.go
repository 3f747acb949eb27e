package memmon

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNotInitialized is the panic value of a Monitor used before Init.
var ErrNotInitialized = errors.New("memmon: monitor used before Init")

// HostProbe reads the resident set size of the current process.
type HostProbe interface {
	ResidentSetMB() (float64, error)
}

// DeviceProbe reads used, free and total memory of the active device in a
// single query.
type DeviceProbe interface {
	DeviceMemory() (DeviceReading, error)
}

// HostProbeFunc adapts a function to HostProbe.
type HostProbeFunc func() (float64, error)

// ResidentSetMB calls f.
func (f HostProbeFunc) ResidentSetMB() (float64, error) { return f() }

// DeviceProbeFunc adapts a function to DeviceProbe.
type DeviceProbeFunc func() (DeviceReading, error)

// DeviceMemory calls f.
func (f DeviceProbeFunc) DeviceMemory() (DeviceReading, error) { return f() }

// Stage names the lifecycle call that produced a Usage update.
type Stage string

const (
	StageInit     Stage = "init"
	StageSample   Stage = "sample"
	StageFinalize Stage = "finalize"
)

// Observer is notified with a copy of the record after every update.
type Observer func(stage Stage, usage Usage)

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used to report probe failures.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers an observer called after Init, Sample and Finalize.
func WithObserver(observer Observer) Option {
	return func(m *Monitor) {
		m.observer = observer
	}
}

// Monitor tracks initial, current and peak host and device memory around a
// long-running operation. It is driven entirely by the caller: Init once,
// Sample at any number of checkpoints, Finalize once, then Report.
//
// A Monitor is not safe for concurrent use; each monitored task owns one.
type Monitor struct {
	host        HostProbe
	device      DeviceProbe
	logger      *zap.Logger
	observer    Observer
	usage       Usage
	initialized bool
}

// New creates a Monitor reading from the given probes.
func New(host HostProbe, device DeviceProbe, opts ...Option) *Monitor {
	m := &Monitor{
		host:   host,
		device: device,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init resets the record and seeds initial, current and peak values from one
// host and one device reading. Probe failures are stored as Unavailable.
func (m *Monitor) Init() {
	m.usage = Usage{}

	system := m.readHost()
	m.usage.InitialSystemMB = system
	m.usage.CurrentSystemMB = system
	m.usage.PeakSystemMB = system

	gpu := m.readDevice()
	m.usage.CurrentGPUMB = gpu.UsedMB
	m.usage.GPUFreeMB = gpu.FreeMB
	m.usage.GPUTotalMB = gpu.TotalMB
	m.usage.InitialGPUMB = gpu.UsedMB
	m.usage.PeakGPUMB = gpu.UsedMB

	m.initialized = true
	m.notify(StageInit)
}

// Sample takes fresh host and device readings. Current values are always
// replaced; peaks only move up and never from an Unavailable reading.
func (m *Monitor) Sample() {
	m.mustBeInitialized()
	m.sample()
	m.notify(StageSample)
}

// Finalize takes the closing sample once the monitored work has completed.
func (m *Monitor) Finalize() {
	m.mustBeInitialized()
	m.sample()
	m.notify(StageFinalize)
}

// Usage returns a copy of the current record.
func (m *Monitor) Usage() Usage {
	return m.usage
}

// Report formats the current record. See Usage.Report.
func (m *Monitor) Report(label string) string {
	m.mustBeInitialized()
	return m.usage.Report(label)
}

func (m *Monitor) sample() {
	m.usage.CurrentSystemMB = m.readHost()
	if IsValid(m.usage.CurrentSystemMB) && m.usage.CurrentSystemMB > m.usage.PeakSystemMB {
		m.usage.PeakSystemMB = m.usage.CurrentSystemMB
	}

	gpu := m.readDevice()
	m.usage.CurrentGPUMB = gpu.UsedMB
	m.usage.GPUFreeMB = gpu.FreeMB
	m.usage.GPUTotalMB = gpu.TotalMB
	if IsValid(m.usage.CurrentGPUMB) && m.usage.CurrentGPUMB > m.usage.PeakGPUMB {
		m.usage.PeakGPUMB = m.usage.CurrentGPUMB
	}
}

func (m *Monitor) readHost() float64 {
	if m.host == nil {
		return Unavailable
	}
	mb, err := m.host.ResidentSetMB()
	if err != nil {
		m.logger.Debug("host memory probe failed", zap.Error(err))
		return Unavailable
	}
	if !IsValid(mb) {
		return Unavailable
	}
	return mb
}

func (m *Monitor) readDevice() DeviceReading {
	if m.device == nil {
		return UnavailableDevice()
	}
	reading, err := m.device.DeviceMemory()
	if err != nil {
		m.logger.Debug("device memory probe failed", zap.Error(err))
		return UnavailableDevice()
	}
	if !reading.Valid() {
		return UnavailableDevice()
	}
	return reading
}

func (m *Monitor) notify(stage Stage) {
	if m.observer != nil {
		m.observer(stage, m.usage)
	}
}

func (m *Monitor) mustBeInitialized() {
	if !m.initialized {
		panic(ErrNotInitialized)
	}
}
