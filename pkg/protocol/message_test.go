package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/navigation"
	"github.com/teslashibe/go-sonicnav/pkg/navigator"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
	"github.com/teslashibe/go-sonicnav/pkg/sonify"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "frame message",
			msgType: TypeFrame,
			data:    FrameData{Camera: pose.Identity(), State: tracking.Tracking},
		},
		{
			name:    "guidance message",
			msgType: TypeGuidance,
			data:    GuidanceData{Message: "go straight", Tracking: "tracking"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeError,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestParseFrameMessage(t *testing.T) {
	raw := []byte(`{
		"type": "frame",
		"ts": 1700000000123,
		"data": {
			"camera": {"t": [0.5, 1.4, -2], "q": [0, 0.7071068, 0, 0.7071068]},
			"state": "paused",
			"failure_reason": "Excessive motion",
			"plane_detected": true,
			"tap": true
		}
	}`)

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Type != TypeFrame {
		t.Fatalf("type = %v, want %v", msg.Type, TypeFrame)
	}

	var data FrameData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}

	f := data.Frame(msg.Time())
	if f.State != tracking.Paused {
		t.Errorf("state = %v, want paused", f.State)
	}
	if f.FailureReason != "Excessive motion" {
		t.Errorf("failure reason = %q", f.FailureReason)
	}
	if !f.PlaneDetected || !f.Tap {
		t.Errorf("plane/tap = %v/%v, want true/true", f.PlaneDetected, f.Tap)
	}
	if f.Camera.TY() != 1.4 || f.Camera.TZ() != -2 {
		t.Errorf("camera translation = %v", f.Camera.Translation())
	}
	if want := time.UnixMilli(1700000000123); !f.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", f.Timestamp, want)
	}
}

func TestParseFrameMessage_DefaultsToTracking(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"frame","data":{"camera":{"t":[0,0,0]}}}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	var data FrameData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.State != tracking.Tracking {
		t.Errorf("state = %v, want tracking", data.State)
	}
	if !msg.Time().IsZero() {
		t.Errorf("Time() = %v, want zero", msg.Time())
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", "not json"},
		{"empty object", "{}"},
		{"missing type", `{"data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMessage([]byte(tt.input)); err == nil {
				t.Error("ParseMessage() expected error")
			}
		})
	}
}

func TestParseData_BadState(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"frame","data":{"state":"dancing"}}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	var data FrameData
	if err := msg.ParseData(&data); err == nil {
		t.Error("ParseData() expected error for unknown tracking state")
	}
}

func TestGuidanceFromStatus(t *testing.T) {
	st := navigator.Status{
		Timestamp:    time.UnixMilli(1700000000500),
		Message:      "turn right by 90 degrees",
		Tracking:     tracking.Tracking,
		Anchors:      2,
		Offset:       &navigation.Offset{HeadingDegrees: 90, PlanarDistance: 2, Lateral: 2},
		Tone:         &sonify.Tone{Frequency: 440, Left: 0, Right: 1},
		Sonification: sonify.Playing,
	}

	msg, err := NewGuidanceMessage(st, 42)
	if err != nil {
		t.Fatalf("NewGuidanceMessage() error = %v", err)
	}
	if msg.Timestamp != 1700000000500 {
		t.Errorf("timestamp = %d, want frame time", msg.Timestamp)
	}

	b, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(b)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	var g GuidanceData
	if err := parsed.ParseData(&g); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if g.Message != st.Message || g.Tracking != "tracking" || g.Sonification != "playing" {
		t.Errorf("guidance = %+v", g)
	}
	if g.FrameID != 42 || g.Anchors != 2 {
		t.Errorf("frame id/anchors = %d/%d", g.FrameID, g.Anchors)
	}
	if g.Offset == nil || g.Offset.Heading != 90 || g.Offset.Lateral != 2 {
		t.Errorf("offset = %+v", g.Offset)
	}
	if g.Tone == nil || g.Tone.Frequency != 440 || g.Tone.Right != 1 {
		t.Errorf("tone = %+v", g.Tone)
	}
}

func TestGuidanceFromStatus_NoOffset(t *testing.T) {
	g := GuidanceFromStatus(navigator.Status{
		Message:  navigator.MsgWaitingForTap,
		Tracking: tracking.Tracking,
	})
	if g.Offset != nil || g.Tone != nil {
		t.Errorf("expected no offset or tone, got %+v", g)
	}
	if g.Sonification != "idle" {
		t.Errorf("sonification = %q, want idle", g.Sonification)
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage(errors.New("bad frame"))
	if err != nil {
		t.Fatalf("NewErrorMessage() error = %v", err)
	}
	var data ErrorData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if msg.Type != TypeError || data.Error != "bad frame" {
		t.Errorf("got %v %q", msg.Type, data.Error)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	var pingData PingData
	if err := ping.ParseData(&pingData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	pong, err := NewPongMessage(pingData)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	var pongData PongData
	if err := pong.ParseData(&pongData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}

	if pongData.ID != "test-123" {
		t.Errorf("pong ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 10 {
		t.Errorf("latency = %v, expected >= 10ms", pongData.LatencyMs)
	}
}
