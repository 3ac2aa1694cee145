package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/protocol"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

func TestReadLog(t *testing.T) {
	in := strings.Join([]string{
		`# recorded on a hallway walk`,
		`{"type":"frame","ts":1000,"data":{"camera":{"t":[0,1.4,0]},"tap":true}}`,
		``,
		`{"type":"frame","ts":1033,"data":{"camera":{"t":[0,1.4,-0.1]}}}`,
	}, "\n")

	msgs, err := readLog(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.TypeFrame, msgs[0].Type)
	assert.Equal(t, int64(1033), msgs[1].Timestamp)

	_, err = readLog(strings.NewReader("{\"type\":\"frame\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestGenerate(t *testing.T) {
	cfg := tracking.DefaultConfig()
	cfg.FrameInterval = 100 * time.Millisecond
	start := time.UnixMilli(1700000000000)

	var buf bytes.Buffer
	n, err := generate(&buf, cfg, start, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 31, n)

	msgs, err := readLog(&buf)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	taps := 0
	for i, m := range msgs {
		var fd protocol.FrameData
		require.NoError(t, m.ParseData(&fd))
		assert.Equal(t, uint64(i+1), fd.FrameID)
		if fd.Tap {
			taps++
			assert.Equal(t, start.Add(cfg.TapAfter).UnixMilli(), m.Timestamp)
		}
	}
	assert.Equal(t, 1, taps)

	cfg.FrameInterval = 0
	_, err = generate(&buf, cfg, start, time.Second)
	assert.Error(t, err)
}

func TestDelay(t *testing.T) {
	a := &protocol.Message{Timestamp: 1000}
	b := &protocol.Message{Timestamp: 1100}

	assert.Zero(t, delay(nil, a, 1))
	assert.Equal(t, 100*time.Millisecond, delay(a, b, 1))
	assert.Equal(t, 50*time.Millisecond, delay(a, b, 2))
	assert.Zero(t, delay(b, a, 1), "out of order messages go immediately")
	assert.Zero(t, delay(&protocol.Message{}, b, 1))
}

func TestReplay(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			in, err := protocol.ParseMessage(data)
			if err != nil {
				return
			}
			var reply *protocol.Message
			if in.Type == protocol.TypeFrame {
				reply, _ = protocol.NewMessage(protocol.TypeGuidance, protocol.GuidanceData{Message: "go straight"})
			} else {
				reply, _ = protocol.NewMessage(protocol.TypeError, protocol.ErrorData{Error: "unsupported"})
			}
			b, _ := reply.Bytes()
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	msgs := []*protocol.Message{
		{Type: protocol.TypeFrame, Timestamp: 1000},
		{Type: protocol.TypeFrame, Timestamp: 1020},
		{Type: "teleport", Timestamp: 1040},
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	stats, err := replay(context.Background(), url, msgs, 4, log.Discard())
	require.NoError(t, err)
	assert.Equal(t, Stats{Sent: 3, Guidance: 2, Errors: 1}, stats)
}

func TestReplay_DialError(t *testing.T) {
	_, err := replay(context.Background(), "ws://127.0.0.1:1/ws/frames", nil, 1, log.Discard())
	assert.Error(t, err)
}
