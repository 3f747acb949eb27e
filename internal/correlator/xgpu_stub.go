//go:build !xgpu
// +build !xgpu

package correlator

import (
	"context"

	"go.uber.org/zap"
)

// BackendXGPU names the xGPU CUDA correlator.
const BackendXGPU = "xgpu"

// XGPUCorrelator is a stub type when xGPU is not compiled in.
type XGPUCorrelator struct{}

func NewXGPUCorrelator(log *zap.Logger) *XGPUCorrelator {
	return &XGPUCorrelator{}
}

func (x *XGPUCorrelator) Info() Info {
	return Info{Backend: BackendXGPU}
}

func (x *XGPUCorrelator) IsAvailable() bool {
	return false
}

func (x *XGPUCorrelator) Init() error {
	return ErrUnavailable
}

func (x *XGPUCorrelator) Input() []complex64 { return nil }

func (x *XGPUCorrelator) Output() []complex64 { return nil }

func (x *XGPUCorrelator) Run(ctx context.Context) error {
	return ErrUnavailable
}

func (x *XGPUCorrelator) Free() error {
	return nil
}
