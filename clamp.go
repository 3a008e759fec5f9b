package fluorsim

// ClampBitDepth clips every sample to [0, 2^bitDepth-1] in place. Samples
// stay real-valued: the ceiling models the dynamic range a device of that
// bit depth could hold, while quantization to discrete levels is left to the
// output side.
func ClampBitDepth(buf *Buffer, bitDepth int) {
	ceil := float32(int64(1)<<uint(bitDepth)) - 1
	for i, v := range buf.Pix {
		switch {
		case v < 0:
			buf.Pix[i] = 0
		case v > ceil:
			buf.Pix[i] = ceil
		}
	}
}
