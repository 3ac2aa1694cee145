// Package navigator runs the per-frame guidance pipeline: camera pose
// normalization, target offsets, the guidance message and the audio cue.
package navigator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/navigation"
	"github.com/teslashibe/go-sonicnav/pkg/orientation"
	"github.com/teslashibe/go-sonicnav/pkg/sonify"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

// Host status messages.
const (
	MsgSearching     = "Searching for surfaces..."
	MsgWaitingForTap = "Tap on the screen to place a target."
)

// Status is the outcome of one frame.
type Status struct {
	Timestamp    time.Time          `json:"timestamp"`
	Message      string             `json:"message,omitempty"`
	Tracking     tracking.State     `json:"tracking"`
	Anchors      int                `json:"anchors"`
	Offset       *navigation.Offset `json:"offset,omitempty"`
	Tone         *sonify.Tone       `json:"tone,omitempty"`
	Sonification sonify.State       `json:"sonification"`
	GimbalLock   bool               `json:"gimbal_lock,omitempty"`
}

// Guiding reports whether the frame produced an offset.
func (s Status) Guiding() bool { return s.Offset != nil }

// Navigator owns one navigation session and its sonification driver.
// Frames are processed one at a time.
type Navigator struct {
	normalizer *orientation.Normalizer
	session    *navigation.Session
	states     tracking.StateSetter
	driver     *sonify.Driver
	logger     *slog.Logger

	mu        sync.Mutex
	startNext bool
	last      Status
	frames    uint64

	obsMu     sync.RWMutex
	observers []func(Status)
}

// New creates a navigator using engine for anchors and driver for audio.
func New(engine tracking.Engine, driver *sonify.Driver, cfg navigation.Config, logger *slog.Logger) (*Navigator, error) {
	if driver == nil {
		return nil, errors.New("navigator: sonification driver required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	session, err := navigation.NewSession(engine, cfg, logger)
	if err != nil {
		return nil, err
	}
	n := &Navigator{
		normalizer: orientation.NewNormalizer(logger),
		session:    session,
		driver:     driver,
		logger:     logger,
	}
	if ss, ok := engine.(tracking.StateSetter); ok {
		n.states = ss
	}
	return n, nil
}

// OnStatus registers fn to receive every frame's status. fn runs on the
// frame's goroutine and must not call back into the Navigator.
func (n *Navigator) OnStatus(fn func(Status)) {
	n.obsMu.Lock()
	n.observers = append(n.observers, fn)
	n.obsMu.Unlock()
}

// RequestStart begins navigation on the next tracking frame, as if the
// user had tapped.
func (n *Navigator) RequestStart() {
	n.mu.Lock()
	n.startNext = true
	n.mu.Unlock()
}

// Stop drops the anchors and silences the cue.
func (n *Navigator) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.startNext = false
	n.session.Clear()
	n.last.Anchors = 0
	n.last.Offset = nil
	n.last.Tone = nil
	err := n.driver.Pause()
	n.last.Sonification = n.driver.State()
	n.logger.Info("navigation stopped")
	return err
}

// Status returns the last frame's status.
func (n *Navigator) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// HandleFrame runs the pipeline for f. The returned status is always
// usable; the error reports audio failures only.
func (n *Navigator) HandleFrame(f tracking.Frame) (Status, error) {
	n.mu.Lock()
	st, err := n.process(f)
	n.last = st
	n.frames++
	n.mu.Unlock()

	n.obsMu.RLock()
	observers := n.observers
	n.obsMu.RUnlock()
	for _, fn := range observers {
		fn(st)
	}
	return st, err
}

func (n *Navigator) process(f tracking.Frame) (Status, error) {
	now := f.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	if n.states != nil {
		n.states.SetState(f.State)
	}

	cam, norm := n.normalizer.Normalize(f.Camera)
	tracked := f.State == tracking.Tracking

	if tracked && (f.Tap || n.startNext) {
		n.startNext = false
		if err := n.session.Begin(cam, now); err != nil {
			n.logger.Warn("could not start navigation", "error", err)
		}
	}

	st := Status{
		Timestamp:  now,
		Tracking:   f.State,
		GimbalLock: norm.GimbalLock,
	}

	if tracked && n.session.Ready() {
		off, err := n.session.Offsets(cam, now)
		if err == nil {
			st.Offset = &off
			st.Message = off.Message()
		}
	}

	var err error
	switch {
	case !tracked:
		st.Message = f.FailureReason
		if st.Message == "" {
			st.Message = MsgSearching
		}
		err = n.driver.Pause()

	case st.Offset != nil:
		var tone sonify.Tone
		tone, err = n.driver.Sonify(st.Offset.HeadingDegrees, st.Offset.Lateral)
		if err == nil {
			st.Tone = &tone
		}

	default:
		err = n.driver.Pause()
		if !f.PlaneDetected {
			st.Message = MsgSearching
		} else if n.session.Anchors() == 0 {
			st.Message = MsgWaitingForTap
		}
	}

	st.Anchors = n.session.Anchors()
	st.Sonification = n.driver.State()
	if err != nil {
		n.logger.Error("sonification failed", "error", err)
	}
	return st, err
}

// Run handles frames until the channel closes or ctx is done.
func (n *Navigator) Run(ctx context.Context, frames <-chan tracking.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			st, _ := n.HandleFrame(f)
			n.logFrame(st)
		}
	}
}

func (n *Navigator) logFrame(st Status) {
	n.mu.Lock()
	count := n.frames
	n.mu.Unlock()

	// Roughly once a second at 30 fps.
	if count%30 != 0 {
		return
	}
	attrs := []any{"frame", count, "tracking", st.Tracking, "anchors", st.Anchors, "message", st.Message}
	if st.Offset != nil {
		attrs = append(attrs, "heading", st.Offset.HeadingDegrees, "distance", st.Offset.PlanarDistance)
	}
	n.logger.Debug("navigation", attrs...)
}

// Close stops navigation and releases the audio rig.
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.session.Clear()
	return n.driver.Close()
}
