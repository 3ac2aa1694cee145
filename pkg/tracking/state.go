// Package tracking defines the capabilities the navigator needs from a pose
// tracking engine, plus an in-process simulated engine and scripted camera.
package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

// State is the tracking state of a camera or anchor.
type State int

const (
	Tracking State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string is
// read as Tracking so hosts may omit the field.
func (s *State) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "tracking":
		*s = Tracking
	case "paused":
		*s = Paused
	case "stopped":
		*s = Stopped
	default:
		return fmt.Errorf("tracking: unknown state %q", string(b))
	}
	return nil
}

// Frame is one camera update supplied by the host.
type Frame struct {
	Timestamp time.Time
	Camera    pose.Pose
	State     State

	// FailureReason explains a Paused state, empty when none is known.
	FailureReason string

	// PlaneDetected reports whether the engine has found a surface yet.
	PlaneDetected bool

	// Tap is set when the user asked to start navigation on this frame.
	Tap bool
}

// Anchor is a fixed world-space reference owned by a tracking engine.
type Anchor interface {
	ID() string
	Pose() pose.Pose
	TrackingState() State
	// Detach releases the anchor. Detaching twice is a no-op.
	Detach()
}

// Engine creates anchors.
type Engine interface {
	CreateAnchor(p pose.Pose) (Anchor, error)
}

// StateSetter is implemented by engines whose tracking state is driven by
// the frames fed to them rather than by a device.
type StateSetter interface {
	SetState(s State)
}
