package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"

	"github.com/vearutop/fluorsim"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "simulate":
		if err := runSimulate(os.Args[2:]); err != nil {
			fail(err)
		}
	case "sweep":
		if err := runSweep(os.Args[2:]); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: fluorsim <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  simulate -in cells.tif -out sim.png [-tiff-out sim.tif] [-exr-out sim.exr]")
	fmt.Fprintln(os.Stderr, "           [-sigma 2] [-exposure 50] [-gain 0] [-read-noise 10] [-offset 0]")
	fmt.Fprintln(os.Stderr, "           [-bit-depth 8] [-seed 1] [-max-width N] [-debug]")
	fmt.Fprintln(os.Stderr, "  sweep    -in cells.tif -out-dir frames -exposures 1,10,100,1000 [same flags]")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// acquisitionFlags registers the shared acquisition parameter flags.
// The gain flag is the slider position; the factor applied is exp(2*gain).
type acquisitionFlags struct {
	sigma     *float64
	exposure  *float64
	gain      *float64
	readNoise *float64
	offset    *float64
	bitDepth  *int
	seed      *int64
	maxWidth  *int
	debug     *bool
}

func addAcquisitionFlags(fs *flag.FlagSet) acquisitionFlags {
	return acquisitionFlags{
		sigma:     fs.Float64("sigma", 2, "PSF blur sigma in pixels"),
		exposure:  fs.Float64("exposure", 50, "exposure time"),
		gain:      fs.Float64("gain", 0, "gain slider position, factor is exp(2*gain)"),
		readNoise: fs.Float64("read-noise", 10, "read noise standard deviation"),
		offset:    fs.Float64("offset", 0, "detector offset"),
		bitDepth:  fs.Int("bit-depth", 8, "output bit depth (1-16)"),
		seed:      fs.Int64("seed", 1, "random seed"),
		maxWidth:  fs.Int("max-width", 0, "downscale wider sources to this width"),
		debug:     fs.Bool("debug", false, "verbose logging"),
	}
}

func (a acquisitionFlags) parameters() fluorsim.Parameters {
	return fluorsim.Parameters{
		BlurSigma:       *a.sigma,
		ExposureTime:    *a.exposure,
		GainFactor:      fluorsim.GainFromSlider(*a.gain),
		ReadNoiseStdDev: *a.readNoise,
		Offset:          *a.offset,
		BitDepth:        *a.bitDepth,
	}
}

func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	inPath := fs.String("in", "", "input grayscale image (PNG or TIFF)")
	outPath := fs.String("out", "", "output PNG")
	tiffOut := fs.String("tiff-out", "", "also write 16-bit TIFF")
	exrOut := fs.String("exr-out", "", "also write float OpenEXR")
	af := addAcquisitionFlags(fs)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}

	log := initLogger(*af.debug)

	buf, err := loadBuffer(*inPath, *af.maxWidth, log)
	if err != nil {
		return err
	}

	sim := fluorsim.NewSimulator(func(o *fluorsim.Options) {
		o.Seed = *af.seed
		o.Logger = log
	})
	if err := sim.Configure(af.parameters()); err != nil {
		return err
	}

	sess, err := sim.AttachSession(buf.W, buf.H)
	if err != nil {
		return err
	}
	defer sim.ReleaseSession(sess)

	res, err := sim.Apply(buf, sess)
	if err != nil {
		return err
	}

	ceil := float64(int64(1)<<uint(*af.bitDepth)) - 1
	log.WithFields(logrus.Fields{
		"source_min": res.SourceMin,
		"source_max": res.SourceMax,
		"range_max":  ceil,
	}).Info("simulation complete")

	if err := writePNG(*outPath, res.Buffer, ceil); err != nil {
		return err
	}
	if *tiffOut != "" {
		if err := writeTIFF(*tiffOut, res.Buffer, ceil); err != nil {
			return fmt.Errorf("write tiff: %w", err)
		}
	}
	if *exrOut != "" {
		if err := writeEXR(*exrOut, res.Buffer); err != nil {
			return fmt.Errorf("write exr: %w", err)
		}
	}
	return nil
}

// runSweep renders one frame per exposure value against fresh copies of the
// source, reusing a single session so the read-noise pattern stays fixed
// while the parameter changes, as in an interactive preview.
func runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	inPath := fs.String("in", "", "input grayscale image (PNG or TIFF)")
	outDir := fs.String("out-dir", "", "output directory for PNG frames")
	exposures := fs.String("exposures", "1,10,100,1000", "comma-separated exposure times")
	af := addAcquisitionFlags(fs)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outDir == "" {
		return errors.New("missing required arguments")
	}

	times, err := parseExposures(*exposures)
	if err != nil {
		return err
	}

	log := initLogger(*af.debug)

	src, err := loadBuffer(*inPath, *af.maxWidth, log)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	sim := fluorsim.NewSimulator(func(o *fluorsim.Options) {
		o.Seed = *af.seed
		o.Logger = log
	})

	sess, err := sim.AttachSession(src.W, src.H)
	if err != nil {
		return err
	}
	defer sim.ReleaseSession(sess)

	ceil := float64(int64(1)<<uint(*af.bitDepth)) - 1
	for _, exposure := range times {
		p := af.parameters()
		p.ExposureTime = exposure
		if err := sim.Configure(p); err != nil {
			return err
		}

		frame := src.Clone()
		res, err := sim.Apply(frame, sess)
		if err != nil {
			return err
		}

		name := filepath.Join(*outDir, fmt.Sprintf("sim_e%g.png", exposure))
		if err := writePNG(name, res.Buffer, ceil); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"exposure": exposure, "frame": name}).Info("frame written")
	}
	return nil
}

func parseExposures(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	times := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("exposure %q: %w", part, err)
		}
		times = append(times, v)
	}
	if len(times) == 0 {
		return nil, errors.New("no exposures given")
	}
	return times, nil
}

func loadBuffer(path string, maxWidth int, log *logrus.Logger) (*fluorsim.Buffer, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
		log.WithFields(logrus.Fields{
			"width":  img.Bounds().Dx(),
			"height": img.Bounds().Dy(),
		}).Debug("source downscaled")
	}

	return fluorsim.FromImage(img), nil
}

func writePNG(path string, buf *fluorsim.Buffer, ceil float64) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, buf.ToGray(0, ceil))
}

func writeTIFF(path string, buf *fluorsim.Buffer, ceil float64) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	return fluorsim.EncodeTIFF(f, buf, 0, ceil)
}

func writeEXR(path string, buf *fluorsim.Buffer) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	return fluorsim.EncodeEXR(f, buf)
}

func initLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
