// Package probe provides the host and device memory readers used by the
// memory monitor.
//
// Host readers report the resident set size of the current process. Device
// readers report free and total memory of the active accelerator from a
// single query; used memory is always derived as total - free.
//
// Implementations backed by vendor runtimes are selected with build tags:
//
//	cuda  - CUDA runtime cudaMemGetInfo (cgo, links libcudart)
//	nvml  - NVIDIA Management Library through go-nvml
//
// Without tags the nvidia-smi and amdgpu sysfs readers are still available.
package probe

import (
	"errors"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

// ErrProbeUnavailable is wrapped by every error that means "this metric
// source cannot be read here".
var ErrProbeUnavailable = errors.New("probe unavailable")

const bytesPerMB = 1024.0 * 1024.0

// Device is a memmon.DeviceProbe with a name and an optional resource to release.
type Device interface {
	memmon.DeviceProbe
	Name() string
	Close() error
}
