package fluorsim

import (
	"math"
	"math/rand"
)

// VariateSource produces the random variates consumed by the pipeline.
// Implementations are not required to be safe for concurrent use; the
// pipeline draws from a single source sequentially.
type VariateSource interface {
	// Poisson draws a Poisson-distributed count with the given mean.
	Poisson(lambda float64) int
	// NormFloat64 draws a standard normal variate.
	NormFloat64() float64
}

// poissonNormalCutoff is where the multiplicative algorithm is abandoned.
// exp(-lambda) underflows for large means and each draw costs O(lambda)
// uniforms; above the cutoff a normal approximation is used instead.
const poissonNormalCutoff = 30

// Source is a seeded VariateSource backed by math/rand.
type Source struct {
	rng *rand.Rand
}

// NewSource returns a Source producing a reproducible stream for the seed.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Poisson draws a Poisson-distributed count with mean lambda.
// A non-positive mean yields 0 deterministically.
//
// Small means use the multiplicative algorithm: multiply uniform draws until
// the product falls to exp(-lambda). For lambda >= poissonNormalCutoff the
// result is round(lambda + sqrt(lambda)*N(0,1)) clamped at zero.
func (s *Source) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda >= poissonNormalCutoff {
		k := int(math.Round(lambda + math.Sqrt(lambda)*s.rng.NormFloat64()))
		if k < 0 {
			k = 0
		}
		return k
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= s.rng.Float64()
	}
	return k - 1
}

// NormFloat64 draws a standard normal variate.
func (s *Source) NormFloat64() float64 {
	return s.rng.NormFloat64()
}

// GaussianField fills a fresh w×h buffer with independent zero-mean,
// unit-variance normal samples. There is no spatial correlation.
func GaussianField(src VariateSource, w, h int) *Buffer {
	b := NewBuffer(w, h)
	for i := range b.Pix {
		b.Pix[i] = float32(src.NormFloat64())
	}
	return b
}
