package fluorsim

// composite applies the detector model to buf in place, stage by stage over
// the whole buffer:
//
//  1. scale by exposure time (expected photon count per pixel)
//  2. Poisson shot noise, discretizing to whole photons
//  3. multiplicative gain
//  4. fixed offset
//  5. additive read noise from the persistent unit-variance field
//
// Shot noise must precede gain: photon statistics depend on the true photon
// count, not the amplified signal. Read noise comes last because it
// originates in the readout electronics. With ReadNoiseStdDev == 0 the noise
// field is never read.
func composite(buf *Buffer, p Parameters, noise *Buffer, src VariateSource) {
	buf.scale(p.ExposureTime)
	applyShotNoise(buf, src)
	buf.scale(p.GainFactor)
	buf.addScalar(p.Offset)

	if p.ReadNoiseStdDev != 0 {
		buf.addScaled(noise, p.ReadNoiseStdDev)
	}
}

// applyShotNoise replaces every sample with a Poisson draw using the sample
// as mean. Fractional intensity left over from normalization is intentionally
// lost here, matching physical photon discretization.
func applyShotNoise(buf *Buffer, src VariateSource) {
	for i, v := range buf.Pix {
		buf.Pix[i] = float32(src.Poisson(float64(v)))
	}
}
