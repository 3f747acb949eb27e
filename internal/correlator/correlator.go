// Package correlator runs an X-engine over a block of complex voltage
// samples. The xgpu backend binds the xGPU CUDA library and is only compiled
// with the xgpu build tag; the cpu backend is a reference implementation that
// produces the same lower-triangular visibility layout.
package correlator

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when buffers are used before Init.
	ErrNotInitialized = errors.New("correlator not initialized")
	// ErrUnavailable is returned when a backend cannot run on this host.
	ErrUnavailable = errors.New("correlator backend not available")
	// ErrInvalidDimensions is returned by Dimensions.Validate.
	ErrInvalidDimensions = errors.New("invalid correlator dimensions")
	// ErrUnsupportedLayout is returned when a library's sample types are not
	// pairs of float32, for example an xGPU build with FIXED_POINT.
	ErrUnsupportedLayout = errors.New("unsupported sample layout")
)

const complex64Size = 8

// checkLayout verifies that input samples and visibilities are both stored
// as complex64.
func checkLayout(inputSize, outputSize int) error {
	if inputSize != complex64Size {
		return fmt.Errorf("%w: input samples are %d bytes, want %d", ErrUnsupportedLayout, inputSize, complex64Size)
	}
	if outputSize != complex64Size {
		return fmt.Errorf("%w: visibilities are %d bytes, want %d", ErrUnsupportedLayout, outputSize, complex64Size)
	}
	return nil
}

// Dimensions describes one correlation block.
type Dimensions struct {
	Stations      int `yaml:"stations"`
	Frequencies   int `yaml:"frequencies"`
	TimeSamples   int `yaml:"timeSamples"`
	Polarizations int `yaml:"polarizations"`
}

// DefaultDimensions keeps the CPU backend well under a second.
func DefaultDimensions() Dimensions {
	return Dimensions{
		Stations:      32,
		Frequencies:   16,
		TimeSamples:   256,
		Polarizations: 2,
	}
}

// Validate checks that the block can be laid out in triangular order.
func (d Dimensions) Validate() error {
	switch {
	case d.Stations <= 0 || d.Frequencies <= 0 || d.TimeSamples <= 0:
		return fmt.Errorf("%w: stations, frequencies and time samples must be positive", ErrInvalidDimensions)
	case d.Stations%2 != 0:
		return fmt.Errorf("%w: station count %d is odd", ErrInvalidDimensions, d.Stations)
	case d.Polarizations != 1 && d.Polarizations != 2:
		return fmt.Errorf("%w: polarizations must be 1 or 2, got %d", ErrInvalidDimensions, d.Polarizations)
	}
	return nil
}

// Baselines is the number of station pairs including autocorrelations.
func (d Dimensions) Baselines() int {
	return d.Stations * (d.Stations + 1) / 2
}

// VecLength is the number of input samples.
func (d Dimensions) VecLength() int {
	return d.TimeSamples * d.Frequencies * d.Stations * d.Polarizations
}

// MatLength is the number of visibilities in triangular order.
func (d Dimensions) MatLength() int {
	return d.Frequencies * (d.Stations + 1) * (d.Stations / 2) * d.Polarizations * d.Polarizations
}

// Info describes a configured correlator.
type Info struct {
	Backend    string `json:"backend"`
	NStation   int    `json:"nstation"`
	NFrequency int    `json:"nfrequency"`
	NTime      int    `json:"ntime"`
	NPol       int    `json:"npol"`
	VecLength  int    `json:"vecLength"`
	MatLength  int    `json:"matLength"`
}

// Dimensions returns the block shape described by the info.
func (i Info) Dimensions() Dimensions {
	return Dimensions{
		Stations:      i.NStation,
		Frequencies:   i.NFrequency,
		TimeSamples:   i.NTime,
		Polarizations: i.NPol,
	}
}

// Correlator is implemented by every X-engine backend.
//
// Init allocates the input and output buffers. Input and Output expose them
// directly so callers can fill test vectors and read visibilities without a
// copy. Run accumulates one block of input into the output; callers zero the
// output first when they want a single integration. Free releases the
// buffers and may be called more than once.
type Correlator interface {
	Info() Info
	IsAvailable() bool
	Init() error
	Input() []complex64
	Output() []complex64
	Run(ctx context.Context) error
	Free() error
}

// InputIndex returns the offset of sample (t, f, s, p) in the input vector.
func InputIndex(d Dimensions, t, f, s, p int) int {
	return ((t*d.Frequencies+f)*d.Stations+s)*d.Polarizations + p
}

// OutputIndex returns the offset of the visibility for stations (i, j),
// j <= i, and polarizations (pi, pj) at frequency f.
func OutputIndex(d Dimensions, f, i, j, pi, pj int) int {
	npol2 := d.Polarizations * d.Polarizations
	baseline := i*(i+1)/2 + j
	return f*d.Baselines()*npol2 + baseline*npol2 + pi*d.Polarizations + pj
}
