package correlator

import (
	"math"
	"math/rand/v2"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed = 12345

const (
	sampleStdDev = 2.5
	sampleLimit  = 7.0
)

// GenerateTestData fills dst with complex Gaussian noise of standard
// deviation 2.5, rounded and saturated to [-7, 7] like 4-bit samples
// converted to float. The same seed always yields the same vector.
func GenerateTestData(dst []complex64, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range dst {
		u1 := rng.Float64()
		u2 := rng.Float64()
		if u1 == 0 {
			u1 = math.SmallestNonzeroFloat64
		}

		// Box-Muller
		r := sampleStdDev * math.Sqrt(-2*math.Log(u1))
		theta := 2 * math.Pi * u2
		a := quantize(r * math.Cos(theta))
		b := quantize(r * math.Sin(theta))
		dst[i] = complex(float32(a), float32(b))
	}
}

func quantize(v float64) float64 {
	return math.Max(-sampleLimit, math.Min(sampleLimit, math.Round(v)))
}
