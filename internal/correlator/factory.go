package correlator

import (
	"fmt"

	"go.uber.org/zap"
)

// BackendAuto prefers xgpu and falls back to cpu.
const BackendAuto = "auto"

// New creates the correlator named by backend. dims only applies to the cpu
// backend.
func New(backend string, dims Dimensions, log *zap.Logger) (Correlator, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch backend {
	case BackendXGPU:
		x := NewXGPUCorrelator(log)
		if !x.IsAvailable() {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, BackendXGPU)
		}
		return x, nil
	case BackendCPU:
		c, err := NewCPUCorrelator(dims, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendAuto, "":
		if x := NewXGPUCorrelator(log); x.IsAvailable() {
			log.Info("Using xGPU correlator")
			return x, nil
		}
		log.Info("Using CPU correlator (xGPU not available)")
		c, err := NewCPUCorrelator(dims, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown correlator backend %q", backend)
	}
}
