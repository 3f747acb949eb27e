package probe

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// Device probe kinds accepted by NewDeviceProbe.
const (
	KindAuto  = "auto"
	KindCUDA  = "cuda"
	KindNVML  = "nvml"
	KindSMI   = "nvidia-smi"
	KindSysfs = "sysfs"
	KindNone  = "none"
)

// DeviceOptions selects and configures a device probe.
type DeviceOptions struct {
	Kind       string
	Index      int
	SysfsRoot  string
	Card       string
	SMITimeout time.Duration
}

// NoDevice reports every reading as unavailable.
type NoDevice struct{}

func (NoDevice) DeviceMemory() (memmon.DeviceReading, error) {
	return memmon.UnavailableDevice(), fmt.Errorf("%w: no device probe", ErrProbeUnavailable)
}

func (NoDevice) Name() string { return KindNone }

func (NoDevice) Close() error { return nil }

// NewHostProbe returns the platform's resident set reader.
func NewHostProbe(procRoot string) (*HostRSS, error) {
	return NewHostRSS(procRoot, 0)
}

// NewDeviceProbe creates the device probe named by opts.Kind. In auto mode it
// tries CUDA, NVML, nvidia-smi and amdgpu sysfs in that order and falls back
// to NoDevice, so auto never fails.
func NewDeviceProbe(opts DeviceOptions, log *zap.Logger) (Device, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch opts.Kind {
	case KindCUDA:
		d := NewCUDADevice()
		if !d.IsAvailable() {
			return nil, fmt.Errorf("%w: no CUDA device", ErrProbeUnavailable)
		}
		return d, nil
	case KindNVML:
		d, err := NewNVMLDevice(opts.Index)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindSMI:
		d := NewSMIDevice(opts.Index, opts.SMITimeout, log)
		if !d.IsAvailable() {
			return nil, fmt.Errorf("%w: %s not found", ErrProbeUnavailable, smiBinary)
		}
		return d, nil
	case KindSysfs:
		d, err := NewSysfsDevice(opts.SysfsRoot, opts.Card)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindNone:
		return NoDevice{}, nil
	case KindAuto, "":
		return detectDevice(opts, log), nil
	default:
		return nil, fmt.Errorf("unknown device probe %q", opts.Kind)
	}
}

func detectDevice(opts DeviceOptions, log *zap.Logger) Device {
	if d := NewCUDADevice(); d.IsAvailable() {
		log.Info("Using CUDA device memory probe")
		return d
	}

	nvmlDevice, err := NewNVMLDevice(opts.Index)
	if err == nil {
		log.Info("Using NVML device memory probe", zap.Int("index", opts.Index))
		return nvmlDevice
	}
	log.Debug("NVML probe not available", zap.Error(err))

	if d := NewSMIDevice(opts.Index, opts.SMITimeout, log); d.IsAvailable() {
		_, err := d.DeviceMemory()
		if err == nil {
			log.Info("Using nvidia-smi device memory probe", zap.Int("index", opts.Index))
			return d
		}
		log.Debug("nvidia-smi probe not usable", zap.Error(err))
	}

	sysfsDevice, err := NewSysfsDevice(opts.SysfsRoot, opts.Card)
	if err == nil {
		log.Info("Using amdgpu sysfs device memory probe", zap.String("card", sysfsDevice.card))
		return sysfsDevice
	}
	log.Debug("sysfs probe not available", zap.Error(err))

	log.Warn("No device memory probe available, GPU figures will be reported as unavailable")
	return NoDevice{}
}
