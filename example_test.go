package fluorsim_test

import (
	"fmt"

	"github.com/vearutop/fluorsim"
)

func ExampleSimulator_Apply() {
	sim := fluorsim.NewSimulator(func(o *fluorsim.Options) {
		o.Seed = 7
	})
	err := sim.Configure(fluorsim.Parameters{
		BlurSigma:       1.5,
		ExposureTime:    100,
		GainFactor:      fluorsim.GainFromSlider(0.5),
		ReadNoiseStdDev: 10,
		Offset:          50,
		BitDepth:        8,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := fluorsim.NewBuffer(16, 16)
	for i := range buf.Pix {
		buf.Pix[i] = 100
	}

	sess, err := sim.AttachSession(buf.W, buf.H)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sim.ReleaseSession(sess)

	res, err := sim.Apply(buf, sess)
	if err != nil {
		fmt.Println(err)
		return
	}

	clipped := true
	for _, v := range res.Buffer.Pix {
		if v < 0 || v > 255 {
			clipped = false
		}
	}
	fmt.Println("frame:", res.Buffer.W, "x", res.Buffer.H)
	fmt.Println("source max:", res.SourceMax)
	fmt.Println("within 8-bit range:", clipped)
	// Output:
	// frame: 16 x 16
	// source max: 100
	// within 8-bit range: true
}
