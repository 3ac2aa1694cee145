// Package protocol defines the WebSocket message types exchanged between an
// AR host and the guidance service.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/pose"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Host → Service messages
	TypeFrame MessageType = "frame" // Camera pose and tracking state
	TypeStart MessageType = "start" // Begin navigation on the next frame
	TypeStop  MessageType = "stop"  // Drop anchors and silence the cue

	// Service → Host messages
	TypeGuidance MessageType = "guidance" // Per-frame guidance status
	TypeError    MessageType = "error"    // Rejected message

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// Time returns the message timestamp, or the zero time when unset.
func (m *Message) Time() time.Time {
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.Timestamp)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Host → Service Message Types
// =============================================================================

// FrameData carries one camera update.
type FrameData struct {
	Camera        pose.Pose      `json:"camera"`
	State         tracking.State `json:"state"`
	FailureReason string         `json:"failure_reason,omitempty"`
	PlaneDetected bool           `json:"plane_detected"`
	Tap           bool           `json:"tap,omitempty"`
	FrameID       uint64         `json:"frame_id,omitempty"`
}

// Frame converts the data to a tracking frame stamped ts.
func (d FrameData) Frame(ts time.Time) tracking.Frame {
	return tracking.Frame{
		Timestamp:     ts,
		Camera:        d.Camera,
		State:         d.State,
		FailureReason: d.FailureReason,
		PlaneDetected: d.PlaneDetected,
		Tap:           d.Tap,
	}
}

// =============================================================================
// Service → Host Message Types
// =============================================================================

// GuidanceData is the result of one frame.
type GuidanceData struct {
	Message      string      `json:"message,omitempty"`
	Tracking     string      `json:"tracking"`
	Anchors      int         `json:"anchors"`
	Offset       *OffsetData `json:"offset,omitempty"`
	Tone         *ToneData   `json:"tone,omitempty"`
	Sonification string      `json:"sonification"`
	GimbalLock   bool        `json:"gimbal_lock,omitempty"`
	FrameID      uint64      `json:"frame_id,omitempty"`
}

// OffsetData describes where the target is.
type OffsetData struct {
	Heading  float64 `json:"heading"`  // Degrees, 0 ahead, 180 behind
	Distance float64 `json:"distance"` // Meters, ignoring height
	Lateral  float64 `json:"lateral"`  // + = right
}

// ToneData describes the audio cue.
type ToneData struct {
	Frequency float64 `json:"frequency"` // Hz
	Left      float64 `json:"left"`      // 0.0 to 1.0
	Right     float64 `json:"right"`     // 0.0 to 1.0
}

// ErrorData explains why a message was rejected.
type ErrorData struct {
	Error string `json:"error"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
