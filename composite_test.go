package fluorsim

import (
	"math"
	"testing"
)

// stubSource makes the pipeline deterministic: Poisson draws return the
// rounded mean, normal draws return a fixed value.
type stubSource struct {
	norm float64
}

func (s stubSource) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(math.Round(lambda))
}

func (s stubSource) NormFloat64() float64 { return s.norm }

func TestCompositeStageOrder(t *testing.T) {
	// 0.5 * exposure 10 = 5 photons, gain 3 -> 15, offset 2 -> 17,
	// read noise 4 * unit field -> 21. Any other stage order gives a
	// different value.
	buf := NewBuffer(4, 4)
	for i := range buf.Pix {
		buf.Pix[i] = 0.5
	}
	noise := NewBuffer(4, 4)
	for i := range noise.Pix {
		noise.Pix[i] = 1
	}
	p := Parameters{
		ExposureTime:    10,
		GainFactor:      3,
		Offset:          2,
		ReadNoiseStdDev: 4,
		BitDepth:        16,
	}

	composite(buf, p, noise, stubSource{})

	for i, v := range buf.Pix {
		if v != 21 {
			t.Fatalf("sample %d = %v, want 21", i, v)
		}
	}
}

func TestCompositeZeroReadNoiseNeverReadsField(t *testing.T) {
	// A NaN-poisoned field would contaminate the output on any read.
	buf := NewBuffer(4, 4)
	for i := range buf.Pix {
		buf.Pix[i] = 2
	}
	noise := NewBuffer(4, 4)
	for i := range noise.Pix {
		noise.Pix[i] = float32(math.NaN())
	}
	p := Parameters{ExposureTime: 3, GainFactor: 1, BitDepth: 16}

	composite(buf, p, noise, stubSource{})

	for i, v := range buf.Pix {
		if math.IsNaN(float64(v)) {
			t.Fatalf("sample %d is NaN: noise field was read", i)
		}
		if v != 6 {
			t.Fatalf("sample %d = %v, want 6", i, v)
		}
	}
}

func TestShotNoiseDiscretizesToWholePhotons(t *testing.T) {
	buf := NewBuffer(8, 8)
	for i := range buf.Pix {
		buf.Pix[i] = 2.7
	}

	applyShotNoise(buf, NewSource(11))

	for i, v := range buf.Pix {
		if v != float32(math.Trunc(float64(v))) || v < 0 {
			t.Fatalf("sample %d = %v, want a non-negative whole photon count", i, v)
		}
	}
}

func TestShotNoiseStatistics(t *testing.T) {
	const lambda = 9.0
	buf := NewBuffer(200, 200)
	for i := range buf.Pix {
		buf.Pix[i] = lambda
	}

	applyShotNoise(buf, NewSource(19))

	n := float64(len(buf.Pix))
	sum, sumSq := 0.0, 0.0
	for _, v := range buf.Pix {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-lambda) > 0.1 {
		t.Fatalf("shot noise mean %v, want %v", mean, lambda)
	}
	if math.Abs(variance-lambda) > 0.5 {
		t.Fatalf("shot noise variance %v, want %v", variance, lambda)
	}
}

func TestClampBounds(t *testing.T) {
	for _, bitDepth := range []int{1, 8, 12, 16} {
		ceil := float32(int64(1)<<uint(bitDepth)) - 1
		buf := NewBuffer(16, 16)
		src := NewSource(int64(bitDepth))
		for i := range buf.Pix {
			buf.Pix[i] = float32(src.NormFloat64()) * ceil * 2
		}

		ClampBitDepth(buf, bitDepth)

		for i, v := range buf.Pix {
			if v < 0 || v > ceil {
				t.Fatalf("bit depth %d: sample %d = %v outside [0, %v]", bitDepth, i, v, ceil)
			}
		}
	}
}

func TestClampKeepsFractionalValues(t *testing.T) {
	// Clipping bounds the range; it does not quantize to integer levels.
	buf := NewBuffer(1, 3)
	buf.Pix[0] = 3.5
	buf.Pix[1] = -2
	buf.Pix[2] = 300

	ClampBitDepth(buf, 8)

	if buf.Pix[0] != 3.5 {
		t.Fatalf("in-range fraction changed: %v", buf.Pix[0])
	}
	if buf.Pix[1] != 0 {
		t.Fatalf("negative sample clipped to %v, want 0", buf.Pix[1])
	}
	if buf.Pix[2] != 255 {
		t.Fatalf("overflowing sample clipped to %v, want 255", buf.Pix[2])
	}
}
