//go:build !nvml

package probe

import (
	"fmt"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// NVMLDevice is a stub type when NVML support is not compiled in.
type NVMLDevice struct{}

func NewNVMLDevice(index int) (*NVMLDevice, error) {
	return nil, fmt.Errorf("%w: built without nvml tag", ErrProbeUnavailable)
}

func (d *NVMLDevice) DeviceMemory() (memmon.DeviceReading, error) {
	return memmon.UnavailableDevice(), fmt.Errorf("%w: built without nvml tag", ErrProbeUnavailable)
}

func (d *NVMLDevice) Name() string { return "nvml" }

func (d *NVMLDevice) Close() error { return nil }
