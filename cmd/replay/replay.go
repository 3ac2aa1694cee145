package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/protocol"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

const maxLineBytes = 1 << 20

// readLog parses one protocol message per line. Blank lines and lines
// starting with # are skipped.
func readLog(r io.Reader) ([]*protocol.Message, error) {
	var msgs []*protocol.Message
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		msg, err := protocol.ParseMessage([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		msgs = append(msgs, msg)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// generate writes frames from the scripted camera covering d, starting at
// start. It returns the number of frames written.
func generate(w io.Writer, cfg tracking.Config, start time.Time, d time.Duration) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	cam := tracking.NewScriptedCamera(cfg, log.Discard())
	enc := json.NewEncoder(w)

	n := 0
	tapped := cfg.TapAfter <= 0
	for elapsed := time.Duration(0); elapsed <= d; elapsed += cfg.FrameInterval {
		f := cam.FrameAt(start, elapsed)
		if !tapped && elapsed >= cfg.TapAfter && f.State == tracking.Tracking {
			f.Tap = true
			tapped = true
		}
		msg, err := protocol.NewMessage(protocol.TypeFrame, protocol.FrameData{
			Camera:        f.Camera,
			State:         f.State,
			FailureReason: f.FailureReason,
			PlaneDetected: f.PlaneDetected,
			Tap:           f.Tap,
			FrameID:       uint64(n + 1),
		})
		if err != nil {
			return n, err
		}
		msg.Timestamp = f.Timestamp.UnixMilli()
		if err := enc.Encode(msg); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// delay is how long to wait before sending next, given the previous message.
func delay(prev, next *protocol.Message, speed float64) time.Duration {
	if prev == nil || prev.Timestamp == 0 || next.Timestamp <= prev.Timestamp {
		return 0
	}
	gap := time.Duration(next.Timestamp-prev.Timestamp) * time.Millisecond
	return time.Duration(float64(gap) / speed)
}

// Stats summarizes a replay.
type Stats struct {
	Sent     int
	Guidance int
	Errors   int
}

// replay sends msgs to url and counts the replies.
func replay(ctx context.Context, url string, msgs []*protocol.Message, speed float64, logger *slog.Logger) (Stats, error) {
	var stats Stats

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return stats, fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	logger.Info("connected", "url", url, "messages", len(msgs))

	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last string
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil {
				continue
			}
			mu.Lock()
			switch msg.Type {
			case protocol.TypeGuidance:
				stats.Guidance++
				var g protocol.GuidanceData
				if msg.ParseData(&g) == nil {
					if g.Message != last {
						logger.Info("guidance", "frame", g.FrameID, "message", g.Message, "tracking", g.Tracking)
						last = g.Message
					} else {
						logger.Debug("guidance", "frame", g.FrameID, "message", g.Message)
					}
				}
			case protocol.TypeError:
				stats.Errors++
				var e protocol.ErrorData
				msg.ParseData(&e)
				logger.Warn("service rejected message", "error", e.Error)
			}
			mu.Unlock()
		}
	}()

	var prev *protocol.Message
	for _, msg := range msgs {
		if wait := delay(prev, msg, speed); wait > 0 {
			select {
			case <-ctx.Done():
				return snapshot(&mu, &stats), ctx.Err()
			case <-time.After(wait):
			}
		}
		b, err := msg.Bytes()
		if err != nil {
			return snapshot(&mu, &stats), err
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return snapshot(&mu, &stats), fmt.Errorf("send: %w", err)
		}
		mu.Lock()
		stats.Sent++
		mu.Unlock()
		prev = msg
	}

	// Let the last replies arrive, then close cleanly.
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return snapshot(&mu, &stats), nil
}

func snapshot(mu *sync.Mutex, s *Stats) Stats {
	mu.Lock()
	defer mu.Unlock()
	return *s
}
