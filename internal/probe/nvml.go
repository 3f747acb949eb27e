//go:build nvml

package probe

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// NVMLDevice queries one device through the NVIDIA Management Library.
type NVMLDevice struct {
	index  int
	device nvml.Device
}

// NewNVMLDevice initializes NVML and opens the device at index.
func NewNVMLDevice(index int) (*NVMLDevice, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("%w: nvml init: %s", ErrProbeUnavailable, nvml.ErrorString(ret))
	}
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return nil, fmt.Errorf("%w: nvml device %d: %s", ErrProbeUnavailable, index, nvml.ErrorString(ret))
	}
	return &NVMLDevice{index: index, device: device}, nil
}

// DeviceMemory reads framebuffer memory. NVML's own used counter is ignored
// so that used stays total - free like every other probe.
func (d *NVMLDevice) DeviceMemory() (memmon.DeviceReading, error) {
	mem, ret := d.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return memmon.UnavailableDevice(), fmt.Errorf("%w: nvml memory info: %s", ErrProbeUnavailable, nvml.ErrorString(ret))
	}
	return memmon.DeviceReadingFromBytes(mem.Free, mem.Total), nil
}

// Name identifies the probe.
func (d *NVMLDevice) Name() string { return "nvml" }

// Close shuts NVML down.
func (d *NVMLDevice) Close() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}
