// Package navigation computes where a target lies relative to the camera
// and keeps the target anchor a fixed distance ahead along the walking ray.
package navigation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

// Config holds the session tuning.
type Config struct {
	// TargetDistanceAlongRay keeps the target this many meters past the
	// camera's progress along the origin ray.
	TargetDistanceAlongRay float64 `mapstructure:"target_distance" json:"target_distance"`

	// AnchorRefreshInterval bounds how often the target anchor is replaced.
	// The offsets are recomputed every frame regardless.
	AnchorRefreshInterval time.Duration `mapstructure:"anchor_refresh" json:"anchor_refresh"`
}

// DefaultConfig returns a 2 m look-ahead refreshed at most every 500 ms.
func DefaultConfig() Config {
	return Config{
		TargetDistanceAlongRay: 2.0,
		AnchorRefreshInterval:  500 * time.Millisecond,
	}
}

// Validate checks the tuning.
func (c Config) Validate() error {
	if c.TargetDistanceAlongRay <= 0 {
		return fmt.Errorf("navigation: target distance must be positive, got %v", c.TargetDistanceAlongRay)
	}
	if c.AnchorRefreshInterval < 0 {
		return fmt.Errorf("navigation: anchor refresh interval must not be negative, got %v", c.AnchorRefreshInterval)
	}
	return nil
}

// Session holds the origin and target anchors of one navigation run.
// It is not safe for concurrent use; callers serialize frames.
type Session struct {
	config Config
	engine tracking.Engine
	logger *slog.Logger

	origin      tracking.Anchor
	target      tracking.Anchor
	lastRefresh time.Time
}

// NewSession creates an empty session backed by engine.
func NewSession(engine tracking.Engine, config Config, logger *slog.Logger) (*Session, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{config: config, engine: engine, logger: logger}, nil
}

// Begin starts a run from the camera's current pose, which should already
// be normalized. The origin anchor is placed at the camera and the target
// TargetDistanceAlongRay ahead of it, level with the camera. Any previous
// anchors are detached first.
func (s *Session) Begin(cam pose.Pose, now time.Time) error {
	d := s.config.TargetDistanceAlongRay

	ahead := cam.Compose(pose.FromTranslation(0, 0, -d)).ExtractTranslation()
	level := pose.FromTranslation(ahead.TX(), cam.TY(), ahead.TZ())

	target, err := ProjectAlongRay(cam, level, d)
	if err != nil {
		s.Clear()
		s.logger.Warn("camera is looking straight up or down, cannot place target")
		return err
	}
	return s.Place(cam, target, now)
}

// Place replaces both anchors with new ones at origin and target.
func (s *Session) Place(origin, target pose.Pose, now time.Time) error {
	s.Clear()

	o, err := s.engine.CreateAnchor(origin)
	if err != nil {
		return fmt.Errorf("navigation: create origin anchor: %w", err)
	}
	t, err := s.engine.CreateAnchor(target)
	if err != nil {
		o.Detach()
		return fmt.Errorf("navigation: create target anchor: %w", err)
	}

	s.origin, s.target = o, t
	s.lastRefresh = now
	s.logger.Info("navigation anchors placed",
		"origin", origin.String(),
		"target", target.String())
	return nil
}

// Clear detaches all anchors.
func (s *Session) Clear() {
	if s.target != nil {
		s.target.Detach()
		s.target = nil
	}
	if s.origin != nil {
		s.origin.Detach()
		s.origin = nil
	}
}

// Anchors returns how many anchors the session holds, 0 to 2.
func (s *Session) Anchors() int {
	n := 0
	if s.origin != nil {
		n++
	}
	if s.target != nil {
		n++
	}
	return n
}

// Ready reports whether both anchors are present.
func (s *Session) Ready() bool {
	return s.origin != nil && s.target != nil
}

// Origin returns the origin anchor, or nil.
func (s *Session) Origin() tracking.Anchor { return s.origin }

// Target returns the current target anchor, or nil.
func (s *Session) Target() tracking.Anchor { return s.target }

// Offsets computes the target's offset from the normalized camera pose.
// As a side effect the target anchor is moved to its projected position
// when AnchorRefreshInterval has passed since the last move.
//
// Degenerate geometry is logged and answered with a fallback value rather
// than an error; the only error is ErrMissingAnchor.
func (s *Session) Offsets(cam pose.Pose, now time.Time) (Offset, error) {
	if !s.Ready() {
		return Offset{}, ErrMissingAnchor
	}

	// Camera progress along the axis the origin was captured facing.
	camPt := cam.TransformPoint(r3.Vector{})
	originPose := s.origin.Pose()
	progress := originPose.Inverse().TransformPoint(camPt).Z

	target, err := ProjectAlongRay(originPose, s.target.Pose(), progress-s.config.TargetDistanceAlongRay)
	if err != nil {
		s.logger.Warn("origin and target coincide, target not projected", "error", err)
	}

	// A clock that jumped backwards counts as due.
	if elapsed := now.Sub(s.lastRefresh); elapsed < 0 || elapsed > s.config.AnchorRefreshInterval {
		s.refreshTarget(target, now)
	}

	dir := cam.Inverse().TransformPoint(target.Translation())
	heading, err := Heading(dir)
	if err != nil {
		s.logger.Warn("target at camera position, heading set to 0", "error", err)
	}

	return Offset{
		HeadingDegrees: heading,
		PlanarDistance: PlanarDistance(camPt, target.Translation()),
		Lateral:        dir.X,
	}, nil
}

func (s *Session) refreshTarget(p pose.Pose, now time.Time) {
	next, err := s.engine.CreateAnchor(p)
	if err != nil {
		s.logger.Warn("target anchor refresh failed", "error", err)
		return
	}
	s.target.Detach()
	s.target = next
	s.lastRefresh = now
}
