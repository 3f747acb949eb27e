//go:build cuda
// +build cuda

package probe

/*
#cgo LDFLAGS: -lcudart
#include <cuda_runtime.h>
*/
import "C"
import (
	"fmt"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// CUDADevice queries the active CUDA device through the runtime API.
type CUDADevice struct{}

// NewCUDADevice creates a CUDA runtime reader.
func NewCUDADevice() *CUDADevice {
	return &CUDADevice{}
}

// IsAvailable reports whether the runtime sees at least one device.
func (d *CUDADevice) IsAvailable() bool {
	var count C.int
	if C.cudaGetDeviceCount(&count) != C.cudaSuccess {
		return false
	}
	return count > 0
}

// DeviceMemory calls cudaMemGetInfo on the current device.
func (d *CUDADevice) DeviceMemory() (memmon.DeviceReading, error) {
	var free, total C.size_t
	if rc := C.cudaMemGetInfo(&free, &total); rc != C.cudaSuccess {
		return memmon.UnavailableDevice(), fmt.Errorf("%w: cudaMemGetInfo: %s",
			ErrProbeUnavailable, C.GoString(C.cudaGetErrorString(rc)))
	}
	return memmon.DeviceReadingFromBytes(uint64(free), uint64(total)), nil
}

// Name identifies the probe.
func (d *CUDADevice) Name() string { return "cuda" }

// Close is a no-op; the runtime context belongs to the correlator.
func (d *CUDADevice) Close() error { return nil }
