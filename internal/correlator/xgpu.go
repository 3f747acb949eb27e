//go:build xgpu
// +build xgpu

package correlator

/*
#cgo CFLAGS: -I${SRCDIR}/../../xgpu/include
#cgo LDFLAGS: -L${SRCDIR}/../../xgpu/lib -lxgpu -lcudart
#include <cuda_runtime.h>
#include "xgpu.h"

static int xgpu_input_size(void) { return (int)sizeof(ComplexInput); }
static int xgpu_output_size(void) { return (int)sizeof(Complex); }
*/
import "C"
import (
	"context"
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// BackendXGPU names the xGPU CUDA correlator.
const BackendXGPU = "xgpu"

// XGPUCorrelator drives the xGPU library. Its dimensions are fixed when the
// library is compiled and reported by xgpuInfo.
type XGPUCorrelator struct {
	log         *zap.Logger
	info        C.XGPUInfo
	context     C.XGPUContext
	initialized bool
	available   bool
}

// NewXGPUCorrelator queries the library configuration.
func NewXGPUCorrelator(log *zap.Logger) *XGPUCorrelator {
	if log == nil {
		log = zap.NewNop()
	}
	x := &XGPUCorrelator{log: log.Named("xgpu")}
	C.xgpuInfo(&x.info)

	var count C.int
	if C.cudaGetDeviceCount(&count) == C.cudaSuccess && count > 0 {
		x.available = true
	} else {
		x.log.Warn("CUDA device not available")
	}
	return x
}

// Info reports the library's compiled-in dimensions.
func (x *XGPUCorrelator) Info() Info {
	return Info{
		Backend:    BackendXGPU,
		NStation:   int(x.info.nstation),
		NFrequency: int(x.info.nfrequency),
		NTime:      int(x.info.ntime),
		NPol:       int(x.info.npol),
		VecLength:  int(x.info.vecLength),
		MatLength:  int(x.info.matLength),
	}
}

// IsAvailable reports whether a CUDA device was found.
func (x *XGPUCorrelator) IsAvailable() bool {
	return x.available
}

// Init lets xGPU allocate pinned host buffers and device memory.
func (x *XGPUCorrelator) Init() error {
	if !x.available {
		return ErrUnavailable
	}
	if x.initialized {
		return nil
	}
	// Input and Output view the pinned buffers as complex64.
	if err := checkLayout(int(C.xgpu_input_size()), int(C.xgpu_output_size())); err != nil {
		return err
	}

	// A zeroed context lets xGPU allocate the host buffers itself.
	x.context = C.XGPUContext{}
	if rc := C.xgpuInit(&x.context, 0); rc != C.XGPU_OK {
		return fmt.Errorf("xgpuInit failed with error %d", int(rc))
	}
	x.initialized = true
	x.log.Info("xGPU initialized",
		zap.Int("stations", int(x.info.nstation)),
		zap.Int("matLength", int(x.info.matLength)))
	return nil
}

// Input exposes the pinned input array.
func (x *XGPUCorrelator) Input() []complex64 {
	if !x.initialized {
		return nil
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(x.context.array_h)), int(x.info.vecLength))
}

// Output exposes the pinned visibility matrix.
func (x *XGPUCorrelator) Output() []complex64 {
	if !x.initialized {
		return nil
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(x.context.matrix_h)), int(x.info.matLength))
}

// Run correlates one block and dumps the integration to the host matrix. The
// call into the library cannot be interrupted; ctx is only checked before it.
func (x *XGPUCorrelator) Run(ctx context.Context) error {
	if !x.initialized {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if rc := C.xgpuCudaXengine(&x.context, C.SYNCOP_DUMP); rc != C.XGPU_OK {
		return fmt.Errorf("xgpuCudaXengine failed with error %d", int(rc))
	}
	return nil
}

// Free releases library resources.
func (x *XGPUCorrelator) Free() error {
	if !x.initialized {
		return nil
	}
	C.xgpuFree(&x.context)
	x.initialized = false
	return nil
}
