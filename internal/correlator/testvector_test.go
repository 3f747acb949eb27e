package correlator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTestData(t *testing.T) {
	a := make([]complex64, 50000)
	b := make([]complex64, len(a))
	GenerateTestData(a, DefaultSeed)
	GenerateTestData(b, DefaultSeed)
	assert.Equal(t, a, b, "same seed must give the same vector")

	c := make([]complex64, len(a))
	GenerateTestData(c, DefaultSeed+1)
	assert.NotEqual(t, a, c)

	var sum, sumSq float64
	var saturated int
	for _, v := range a {
		for _, x := range []float64{float64(real(v)), float64(imag(v))} {
			assert.Equal(t, math.Round(x), x, "samples are integral")
			assert.LessOrEqual(t, math.Abs(x), 7.0)
			if math.Abs(x) == 7 {
				saturated++
			}
			sum += x
			sumSq += x * x
		}
	}

	n := float64(2 * len(a))
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 2.5, std, 0.15)
	assert.Greater(t, saturated, 0)
}

func TestGenerateTestData_Empty(t *testing.T) {
	assert.NotPanics(t, func() { GenerateTestData(nil, DefaultSeed) })
}
