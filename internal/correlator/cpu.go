package correlator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BackendCPU names the reference correlator.
const BackendCPU = "cpu"

// CPUCorrelator is the reference X-engine.
type CPUCorrelator struct {
	dims        Dimensions
	log         *zap.Logger
	input       []complex64
	output      []complex64
	initialized bool
}

// NewCPUCorrelator creates a reference correlator for dims.
func NewCPUCorrelator(dims Dimensions, log *zap.Logger) (*CPUCorrelator, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CPUCorrelator{dims: dims, log: log.Named("cpu")}, nil
}

// Info reports the configured dimensions.
func (c *CPUCorrelator) Info() Info {
	return Info{
		Backend:    BackendCPU,
		NStation:   c.dims.Stations,
		NFrequency: c.dims.Frequencies,
		NTime:      c.dims.TimeSamples,
		NPol:       c.dims.Polarizations,
		VecLength:  c.dims.VecLength(),
		MatLength:  c.dims.MatLength(),
	}
}

// IsAvailable is always true.
func (c *CPUCorrelator) IsAvailable() bool {
	return true
}

// Init allocates the input and output buffers. It is idempotent.
func (c *CPUCorrelator) Init() error {
	if c.initialized {
		return nil
	}
	c.input = make([]complex64, c.dims.VecLength())
	c.output = make([]complex64, c.dims.MatLength())
	c.initialized = true
	c.log.Info("CPU correlator initialized",
		zap.Int("vecLength", len(c.input)),
		zap.Int("matLength", len(c.output)))
	return nil
}

// Input returns the input buffer, nil before Init.
func (c *CPUCorrelator) Input() []complex64 {
	return c.input
}

// Output returns the output buffer, nil before Init.
func (c *CPUCorrelator) Output() []complex64 {
	return c.output
}

// Run accumulates x_i * conj(x_j) over time for every baseline and
// polarization product. Cancellation is checked between frequency channels.
func (c *CPUCorrelator) Run(ctx context.Context) error {
	if !c.initialized {
		return ErrNotInitialized
	}

	d := c.dims
	npol := d.Polarizations
	for f := 0; f < d.Frequencies; f++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("correlate channel %d: %w", f, err)
		}
		for i := 0; i < d.Stations; i++ {
			for j := 0; j <= i; j++ {
				for pi := 0; pi < npol; pi++ {
					for pj := 0; pj < npol; pj++ {
						var sum complex128
						for t := 0; t < d.TimeSamples; t++ {
							a := c.input[InputIndex(d, t, f, i, pi)]
							b := c.input[InputIndex(d, t, f, j, pj)]
							sum += complex128(a) * complex(float64(real(b)), -float64(imag(b)))
						}
						c.output[OutputIndex(d, f, i, j, pi, pj)] += complex64(sum)
					}
				}
			}
		}
	}
	return nil
}

// Free drops the buffers.
func (c *CPUCorrelator) Free() error {
	c.input = nil
	c.output = nil
	c.initialized = false
	return nil
}
