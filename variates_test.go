package fluorsim

import (
	"math"
	"testing"
)

func TestPoissonZeroLambda(t *testing.T) {
	src := NewSource(1)
	for i := 0; i < 1000; i++ {
		if k := src.Poisson(0); k != 0 {
			t.Fatalf("Poisson(0) = %d, want 0", k)
		}
		if k := src.Poisson(-3); k != 0 {
			t.Fatalf("Poisson(-3) = %d, want 0", k)
		}
	}
}

func TestPoissonMomentsSmallLambda(t *testing.T) {
	const (
		lambda = 4.0
		n      = 100000
	)
	src := NewSource(17)

	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		k := src.Poisson(lambda)
		if k < 0 {
			t.Fatalf("negative Poisson sample %d", k)
		}
		f := float64(k)
		sum += f
		sumSq += f * f
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-lambda) > 0.06 {
		t.Fatalf("empirical mean %v, want %v", mean, lambda)
	}
	if math.Abs(variance-lambda) > 0.25 {
		t.Fatalf("empirical variance %v, want %v", variance, lambda)
	}
}

func TestPoissonMomentsLargeLambda(t *testing.T) {
	const (
		lambda = 1000.0
		n      = 20000
	)
	src := NewSource(23)

	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		k := src.Poisson(lambda)
		if k < 0 {
			t.Fatalf("negative Poisson sample %d", k)
		}
		f := float64(k)
		sum += f
		sumSq += f * f
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-lambda) > 2.5 {
		t.Fatalf("empirical mean %v, want %v", mean, lambda)
	}
	if math.Abs(variance-lambda) > 100 {
		t.Fatalf("empirical variance %v, want %v", variance, lambda)
	}
}

func TestPoissonLargeLambdaTerminates(t *testing.T) {
	// The multiplicative algorithm would loop near-forever here because
	// exp(-lambda) underflows to zero; the normal fallback must not.
	src := NewSource(5)
	for _, lambda := range []float64{30, 100, 1e4, 1e6} {
		k := src.Poisson(lambda)
		if k < 0 {
			t.Fatalf("Poisson(%v) = %d, want >= 0", lambda, k)
		}
		if math.Abs(float64(k)-lambda) > 6*math.Sqrt(lambda)+1 {
			t.Fatalf("Poisson(%v) = %d, implausibly far from mean", lambda, k)
		}
	}
}

func TestSourceSeedReproducible(t *testing.T) {
	a := NewSource(99)
	b := NewSource(99)
	for i := 0; i < 1000; i++ {
		if ka, kb := a.Poisson(7), b.Poisson(7); ka != kb {
			t.Fatalf("draw %d diverged: %d vs %d", i, ka, kb)
		}
	}
	if a.NormFloat64() != b.NormFloat64() {
		t.Fatal("normal draws diverged for equal seeds")
	}
}

func TestGaussianFieldMoments(t *testing.T) {
	field := GaussianField(NewSource(3), 256, 256)

	n := float64(len(field.Pix))
	sum, sumSq := 0.0, 0.0
	for _, v := range field.Pix {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	mean := sum / n
	stddev := math.Sqrt(sumSq/n - mean*mean)

	if math.Abs(mean) > 0.03 {
		t.Fatalf("field mean %v, want ~0", mean)
	}
	if math.Abs(stddev-1) > 0.02 {
		t.Fatalf("field stddev %v, want ~1", stddev)
	}
}

func TestGaussianFieldNoConstantRuns(t *testing.T) {
	// Cells are independent draws; identical neighbors across a whole row
	// would mean the generator is broken.
	field := GaussianField(NewSource(8), 64, 64)
	for y := 0; y < field.H; y++ {
		same := true
		for x := 1; x < field.W; x++ {
			if field.At(x, y) != field.At(0, y) {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("row %d is constant", y)
		}
	}
}
