package fluorsim

import "math"

// defaultBlurAccuracy bounds the truncated tail of the blur kernel.
// Adequate for preview-quality rendering.
const defaultBlurAccuracy = 0.0002

// GaussianBlur convolves buf in place with a separable Gaussian kernel,
// horizontal pass then vertical. Border samples are extended by edge
// replication, so flat regions stay flat up to the image edge. accuracy
// bounds the kernel truncation error; values outside (0, 1) fall back to
// defaultBlurAccuracy. A non-positive sigma skips the corresponding pass
// entirely.
func GaussianBlur(buf *Buffer, sigmaX, sigmaY, accuracy float64) {
	if accuracy <= 0 || accuracy >= 1 {
		accuracy = defaultBlurAccuracy
	}
	if sigmaX > 0 {
		blurRows(buf, gaussianKernel(sigmaX, accuracy))
	}
	if sigmaY > 0 {
		blurColumns(buf, gaussianKernel(sigmaY, accuracy))
	}
}

// gaussianKernel returns one half of a symmetric normalized kernel:
// k[0] is the center tap, k[len(k)-1] the outermost. The radius is chosen so
// the dropped tail stays below accuracy.
func gaussianKernel(sigma, accuracy float64) []float64 {
	radius := int(math.Ceil(sigma*math.Sqrt(-2*math.Log(accuracy)))) + 1
	k := make([]float64, radius+1)
	sum := 0.0
	for i := 0; i <= radius; i++ {
		k[i] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
		if i == 0 {
			sum += k[i]
		} else {
			sum += 2 * k[i]
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func blurRows(buf *Buffer, k []float64) {
	radius := len(k) - 1
	line := make([]float64, buf.W)
	for y := 0; y < buf.H; y++ {
		row := buf.Pix[y*buf.W : (y+1)*buf.W]
		for x := 0; x < buf.W; x++ {
			acc := k[0] * float64(row[x])
			for i := 1; i <= radius; i++ {
				acc += k[i] * float64(row[clampIndex(x-i, buf.W)])
				acc += k[i] * float64(row[clampIndex(x+i, buf.W)])
			}
			line[x] = acc
		}
		for x := 0; x < buf.W; x++ {
			row[x] = float32(line[x])
		}
	}
}

func blurColumns(buf *Buffer, k []float64) {
	radius := len(k) - 1
	line := make([]float64, buf.H)
	for x := 0; x < buf.W; x++ {
		for y := 0; y < buf.H; y++ {
			acc := k[0] * float64(buf.Pix[y*buf.W+x])
			for i := 1; i <= radius; i++ {
				acc += k[i] * float64(buf.Pix[clampIndex(y-i, buf.H)*buf.W+x])
				acc += k[i] * float64(buf.Pix[clampIndex(y+i, buf.H)*buf.W+x])
			}
			line[y] = acc
		}
		for y := 0; y < buf.H; y++ {
			buf.Pix[y*buf.W+x] = float32(line[y])
		}
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
