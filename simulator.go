package fluorsim

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidParameters rejects a Configure call or malformed dimensions;
	// the previously configured state stays in effect.
	ErrInvalidParameters = errors.New("invalid acquisition parameters")
	// ErrDimensionMismatch reports a buffer that does not match the session's
	// noise field. The pipeline never silently truncates.
	ErrDimensionMismatch = errors.New("buffer dimensions do not match session")
	// ErrSessionReleased reports an Apply against a released session.
	ErrSessionReleased = errors.New("session released")
)

// Session owns the per-image state reused across Apply calls: the
// unit-variance read-noise field and the pre-transform display range captured
// on first use. Reusing one noise pattern across invocations keeps successive
// previews comparable while parameters are tweaked; it is an intentional
// design choice, not an approximation shortcut.
type Session struct {
	w, h     int
	noise    *Buffer
	srcMin   float64
	srcMax   float64
	captured bool
	released bool
}

// Width returns the session's pixel width.
func (s *Session) Width() int { return s.w }

// Height returns the session's pixel height.
func (s *Session) Height() int { return s.h }

// Result is the outcome of one Apply: the caller's buffer, mutated in place,
// plus the pre-transform min/max for collaborator-side display rescaling.
// It is not retained by the Simulator.
type Result struct {
	Buffer    *Buffer
	SourceMin float64
	SourceMax float64
}

// Options configures a Simulator.
type Options struct {
	// Seed initializes the default variate source. Ignored when Source is set.
	Seed int64
	// Source overrides the random variate source, e.g. for deterministic tests.
	Source VariateSource
	// Logger receives debug-level stage timings and session lifecycle events.
	// Defaults to a logger that discards everything.
	Logger *logrus.Logger
	// BlurAccuracy bounds the truncated Gaussian kernel tail.
	BlurAccuracy float64
}

// Simulator sequences the acquisition pipeline and owns session lifecycles.
//
// The session registry and parameter state are guarded internally, but Apply
// calls against one session must be serialized by the caller: the pipeline
// mutates the buffer in place and draws from a single variate stream.
type Simulator struct {
	mu       sync.Mutex
	params   Parameters
	src      VariateSource
	log      *logrus.Logger
	accuracy float64
	sessions map[*Session]struct{}
}

// NewSimulator returns a Simulator with DefaultParameters in effect.
func NewSimulator(opts ...func(*Options)) *Simulator {
	opt := Options{Seed: 1, BlurAccuracy: defaultBlurAccuracy}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.Source == nil {
		opt.Source = NewSource(opt.Seed)
	}
	if opt.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opt.Logger = l
	}
	if opt.BlurAccuracy <= 0 || opt.BlurAccuracy >= 1 {
		opt.BlurAccuracy = defaultBlurAccuracy
	}

	return &Simulator{
		params:   DefaultParameters(),
		src:      opt.Source,
		log:      opt.Logger,
		accuracy: opt.BlurAccuracy,
		sessions: make(map[*Session]struct{}),
	}
}

// Configure replaces the acquisition parameters wholesale. There are no
// partial updates: an invalid set is rejected and the previous parameters
// stay in effect.
func (s *Simulator) Configure(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.params = p
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"blur_sigma": p.BlurSigma,
		"exposure":   p.ExposureTime,
		"gain":       p.GainFactor,
		"read_noise": p.ReadNoiseStdDev,
		"offset":     p.Offset,
		"bit_depth":  p.BitDepth,
	}).Debug("parameters configured")

	return nil
}

// Parameters returns the currently configured acquisition parameters.
func (s *Simulator) Parameters() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.params
}

// AttachSession allocates the persistent read-noise field for a new source
// image. Attach a fresh session whenever a different image is simulated or
// dimensions change, and release it when done.
func (s *Simulator) AttachSession(width, height int) (*Session, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: session dimensions %dx%d", ErrInvalidParameters, width, height)
	}

	s.mu.Lock()
	sess := &Session{w: width, h: height, noise: GaussianField(s.src, width, height)}
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("session attached")

	return sess, nil
}

// ReleaseSession frees the session's noise field. Releasing twice is a
// no-op; other sessions are unaffected.
func (s *Simulator) ReleaseSession(sess *Session) {
	if sess == nil {
		return
	}

	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()

	sess.noise = nil
	sess.released = true

	s.log.WithFields(logrus.Fields{"width": sess.w, "height": sess.h}).Debug("session released")
}

// Apply runs the full pipeline once over buf, in place: normalize so the
// brightest sample is 1, blur, composite noise, clamp to the configured bit
// depth. The first Apply of a session captures the buffer's pre-transform
// min/max; every Result carries that range for display rescaling.
//
// An all-zero buffer skips normalization and stays all-zero through blur and
// shot noise; only gain/offset/read noise move it.
func (s *Simulator) Apply(buf *Buffer, sess *Session) (*Result, error) {
	if buf == nil {
		return nil, errors.New("nil buffer")
	}
	if sess == nil {
		return nil, errors.New("nil session")
	}
	if sess.released {
		return nil, ErrSessionReleased
	}
	if buf.W != sess.w || buf.H != sess.h {
		return nil, fmt.Errorf("%w: buffer %dx%d, session %dx%d", ErrDimensionMismatch, buf.W, buf.H, sess.w, sess.h)
	}

	s.mu.Lock()
	p := s.params
	src := s.src
	s.mu.Unlock()

	start := time.Now()

	minV, maxV := buf.MinMax()
	if !sess.captured {
		sess.srcMin, sess.srcMax = minV, maxV
		sess.captured = true
	}

	// Normalization guards against a caller re-feeding a buffer already
	// scaled to a huge or tiny range. Max 0 means an all-zero image.
	if maxV > 0 {
		buf.scale(1 / maxV)
	}

	if p.BlurSigma > 0 {
		GaussianBlur(buf, p.BlurSigma, p.BlurSigma, s.accuracy)
	}
	composite(buf, p, sess.noise, src)
	ClampBitDepth(buf, p.BitDepth)

	s.log.WithFields(logrus.Fields{
		"width":   buf.W,
		"height":  buf.H,
		"elapsed": time.Since(start),
	}).Debug("pipeline applied")

	return &Result{Buffer: buf, SourceMin: sess.srcMin, SourceMax: sess.srcMax}, nil
}
