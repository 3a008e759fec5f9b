package fluorsim

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/image/tiff"
)

// DecodeTIFF decodes an 8/16-bit TIFF into a single-channel Buffer via the
// standard Go decoder.
func DecodeTIFF(data []byte) (*Buffer, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("invalid TIFF dimensions")
	}
	return FromImage(img), nil
}

// EncodeTIFF writes the buffer as a deflate-compressed 16-bit grayscale
// TIFF, rescaling the [lo, hi] display range to the full 16-bit scale.
func EncodeTIFF(w io.Writer, buf *Buffer, lo, hi float64) error {
	return tiff.Encode(w, buf.ToGray16(lo, hi), &tiff.Options{
		Compression: tiff.Deflate,
		Predictor:   true,
	})
}
