package fluorsim

import (
	"fmt"
	"math"
)

// Slider ranges exposed by interactive hosts for each acquisition control.
// The core accepts any values that pass Validate; these constants document
// the recommended UI bounds.
const (
	BlurSigmaMin  = 0.0
	BlurSigmaMax  = 4.99
	ExposureMin   = 1.0
	ExposureMax   = 1000.0
	GainSliderMin = -0.99
	GainSliderMax = 4.0
	ReadNoiseMin  = 0.0
	ReadNoiseMax  = 25.0
	OffsetMin     = -500.0
	OffsetMax     = 500.0
	BitDepthMin   = 1
	BitDepthMax   = 16
)

// Parameters describes one acquisition setup. It is a plain value object,
// replaced wholesale via Simulator.Configure and never mutated mid-pipeline.
type Parameters struct {
	BlurSigma       float64 // PSF standard deviation in pixels (>= 0, 0 skips blur)
	ExposureTime    float64 // integration time scaling photon counts (> 0)
	GainFactor      float64 // post-detection amplification (> 0)
	ReadNoiseStdDev float64 // additive readout noise sigma (>= 0)
	Offset          float64 // fixed value added to every pixel
	BitDepth        int     // output range is [0, 2^BitDepth-1] (1..16)
}

// DefaultParameters returns the acquisition setup interactive hosts start
// from: moderate blur, short exposure, unit gain, visible read noise.
func DefaultParameters() Parameters {
	return Parameters{
		BlurSigma:       2,
		ExposureTime:    50,
		GainFactor:      1,
		ReadNoiseStdDev: 10,
		Offset:          0,
		BitDepth:        8,
	}
}

// GainFromSlider maps a host gain slider position to the multiplicative
// gain factor, exp(2*s). Slider 0 is unit gain.
func GainFromSlider(s float64) float64 {
	return math.Exp(2 * s)
}

// Validate reports the first out-of-range field, wrapped in
// ErrInvalidParameters. A failed Configure leaves prior parameters in effect.
func (p Parameters) Validate() error {
	switch {
	case math.IsNaN(p.BlurSigma) || p.BlurSigma < 0:
		return fmt.Errorf("%w: blur sigma %v must be >= 0", ErrInvalidParameters, p.BlurSigma)
	case math.IsNaN(p.ExposureTime) || p.ExposureTime <= 0:
		return fmt.Errorf("%w: exposure time %v must be > 0", ErrInvalidParameters, p.ExposureTime)
	case math.IsNaN(p.GainFactor) || p.GainFactor <= 0:
		return fmt.Errorf("%w: gain factor %v must be > 0", ErrInvalidParameters, p.GainFactor)
	case math.IsNaN(p.ReadNoiseStdDev) || p.ReadNoiseStdDev < 0:
		return fmt.Errorf("%w: read noise stddev %v must be >= 0", ErrInvalidParameters, p.ReadNoiseStdDev)
	case math.IsNaN(p.Offset):
		return fmt.Errorf("%w: offset is NaN", ErrInvalidParameters)
	case p.BitDepth < BitDepthMin || p.BitDepth > BitDepthMax:
		return fmt.Errorf("%w: bit depth %d must be in [%d, %d]", ErrInvalidParameters, p.BitDepth, BitDepthMin, BitDepthMax)
	}
	return nil
}
