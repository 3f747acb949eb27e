//go:build !cuda
// +build !cuda

package probe

import (
	"fmt"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// CUDADevice is a stub type when CUDA is not compiled in.
type CUDADevice struct{}

func NewCUDADevice() *CUDADevice {
	return &CUDADevice{}
}

func (d *CUDADevice) IsAvailable() bool {
	return false
}

func (d *CUDADevice) DeviceMemory() (memmon.DeviceReading, error) {
	return memmon.UnavailableDevice(), fmt.Errorf("%w: built without cuda tag", ErrProbeUnavailable)
}

func (d *CUDADevice) Name() string { return "cuda" }

func (d *CUDADevice) Close() error { return nil }
