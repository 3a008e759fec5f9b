package fluorsim

// Buffer stores a single-channel image as float32 samples in row-major order.
// It is owned by the caller; the pipeline borrows it for the duration of one
// Apply and writes the result back into the same storage.
type Buffer struct {
	W, H int
	Pix  []float32
}

// NewBuffer allocates a zero-filled w×h buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{W: w, H: h, Pix: make([]float32, w*h)}
}

// At returns the sample at (x, y), clamping coordinates to the image bounds.
func (b *Buffer) At(x, y int) float32 {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= b.W {
		x = b.W - 1
	}
	if y >= b.H {
		y = b.H - 1
	}
	return b.Pix[y*b.W+x]
}

// Set writes the sample at (x, y). Coordinates must be in bounds.
func (b *Buffer) Set(x, y int, v float32) {
	b.Pix[y*b.W+x] = v
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{W: b.W, H: b.H, Pix: make([]float32, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// MinMax returns the smallest and largest sample values.
// An empty buffer yields (0, 0).
func (b *Buffer) MinMax() (minV, maxV float64) {
	if len(b.Pix) == 0 {
		return 0, 0
	}
	minV = float64(b.Pix[0])
	maxV = minV
	for _, v := range b.Pix[1:] {
		f := float64(v)
		if f < minV {
			minV = f
		}
		if f > maxV {
			maxV = f
		}
	}
	return minV, maxV
}

// scale multiplies every sample by m.
func (b *Buffer) scale(m float64) {
	for i, v := range b.Pix {
		b.Pix[i] = float32(float64(v) * m)
	}
}

// addScalar adds v to every sample.
func (b *Buffer) addScalar(v float64) {
	for i, s := range b.Pix {
		b.Pix[i] = float32(float64(s) + v)
	}
}

// addScaled adds src scaled by factor, sample by sample.
// Both buffers must have the same dimensions.
func (b *Buffer) addScaled(src *Buffer, factor float64) {
	for i, v := range b.Pix {
		b.Pix[i] = float32(float64(v) + float64(src.Pix[i])*factor)
	}
}
