package protocol

import (
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/navigator"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message.
func NewFrameMessage(camera pose.Pose, state tracking.State, planeDetected, tap bool, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Camera:        camera,
		State:         state,
		PlaneDetected: planeDetected,
		Tap:           tap,
		FrameID:       frameID,
	})
}

// GuidanceFromStatus converts a navigator status to its wire form.
func GuidanceFromStatus(st navigator.Status) GuidanceData {
	g := GuidanceData{
		Message:      st.Message,
		Tracking:     st.Tracking.String(),
		Anchors:      st.Anchors,
		Sonification: st.Sonification.String(),
		GimbalLock:   st.GimbalLock,
	}
	if st.Offset != nil {
		g.Offset = &OffsetData{
			Heading:  st.Offset.HeadingDegrees,
			Distance: st.Offset.PlanarDistance,
			Lateral:  st.Offset.Lateral,
		}
	}
	if st.Tone != nil {
		g.Tone = &ToneData{
			Frequency: st.Tone.Frequency,
			Left:      st.Tone.Left,
			Right:     st.Tone.Right,
		}
	}
	return g
}

// NewGuidanceMessage creates a guidance message stamped with the frame time.
func NewGuidanceMessage(st navigator.Status, frameID uint64) (*Message, error) {
	g := GuidanceFromStatus(st)
	g.FrameID = frameID
	msg, err := NewMessage(TypeGuidance, g)
	if err != nil {
		return nil, err
	}
	if !st.Timestamp.IsZero() {
		msg.Timestamp = st.Timestamp.UnixMilli()
	}
	return msg, nil
}

// NewErrorMessage creates an error message.
func NewErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Error: err.Error()})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response to a ping
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}
