package results

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stats is a quick fingerprint of a visibility matrix.
type Stats struct {
	SumReal    float64 `json:"sumReal"`
	SumImag    float64 `json:"sumImag"`
	MaxAbsReal float64 `json:"maxAbsReal"`
	MaxAbsImag float64 `json:"maxAbsImag"`
}

// ComputeStats sums the real and imaginary parts and finds their largest
// magnitudes. An empty matrix has all-zero stats.
func ComputeStats(data []complex64) Stats {
	if len(data) == 0 {
		return Stats{}
	}

	re := make([]float64, len(data))
	im := make([]float64, len(data))
	for i, v := range data {
		re[i] = float64(real(v))
		im[i] = float64(imag(v))
	}

	s := Stats{
		SumReal: floats.Sum(re),
		SumImag: floats.Sum(im),
	}
	for i := range re {
		re[i] = math.Abs(re[i])
		im[i] = math.Abs(im[i])
	}
	s.MaxAbsReal = floats.Max(re)
	s.MaxAbsImag = floats.Max(im)
	return s
}

// WriteTo prints the stats block shown after a run.
func (s Stats) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"Output Statistics:\n"+
			"  Sum of real parts: %.6e\n"+
			"  Sum of imag parts: %.6e\n"+
			"  Max real magnitude: %.6e\n"+
			"  Max imag magnitude: %.6e\n",
		s.SumReal, s.SumImag, s.MaxAbsReal, s.MaxAbsImag)
	return int64(n), err
}
