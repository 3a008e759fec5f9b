package fluorsim

import (
	"image"
	"image/color"
)

// FromImage converts an image into a single-channel Buffer using the 16-bit
// grayscale model, keeping raw values in [0, 65535]. The pipeline's own
// normalization makes the absolute scale irrelevant.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	out := NewBuffer(b.Dx(), b.Dy())
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			out.Pix[y*out.W+x] = float32(c.Y)
		}
	}
	return out
}

// ToGray rescales the [lo, hi] display range to 8-bit grayscale.
// Samples outside the range are clipped.
func (b *Buffer) ToGray(lo, hi float64) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, b.W, b.H))
	span := displaySpan(lo, hi)
	for i, v := range b.Pix {
		g := clampUnit((float64(v) - lo) / span)
		out.Pix[i] = uint8(g*255.0 + 0.5)
	}
	return out
}

// ToGray16 rescales the [lo, hi] display range to 16-bit grayscale.
// Samples outside the range are clipped.
func (b *Buffer) ToGray16(lo, hi float64) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, b.W, b.H))
	span := displaySpan(lo, hi)
	for i, v := range b.Pix {
		g := clampUnit((float64(v) - lo) / span)
		u := uint16(g*65535.0 + 0.5)
		out.Pix[2*i] = uint8(u >> 8)
		out.Pix[2*i+1] = uint8(u)
	}
	return out
}

func displaySpan(lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return hi - lo
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
