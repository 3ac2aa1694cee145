package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	if cfg.FrameInterval != 33*time.Millisecond {
		t.Errorf("Expected FrameInterval=33ms, got %v", cfg.FrameInterval)
	}
	if cfg.EyeHeight != 1.4 {
		t.Errorf("Expected EyeHeight=1.4, got %v", cfg.EyeHeight)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RollPeriod = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RollAmp = Radians(95)
	assert.Error(t, cfg.Validate())
}

func TestScriptedCamera_FrameAt(t *testing.T) {
	cfg := DefaultConfig()
	cam := NewScriptedCamera(cfg, log.Discard())
	start := time.Unix(1700000000, 0)

	t.Run("start", func(t *testing.T) {
		f := cam.FrameAt(start, 0)
		assert.Equal(t, start, f.Timestamp)
		assert.Equal(t, Tracking, f.State)
		assert.False(t, f.PlaneDetected)
		assert.True(t, pose.FromTranslation(0, cfg.EyeHeight, 0).AlmostEqual(f.Camera, 1e-12))
	})

	t.Run("walking", func(t *testing.T) {
		f := cam.FrameAt(start, cfg.WalkDelay+time.Second)
		assert.True(t, f.PlaneDetected)
		assert.InDelta(t, -cfg.WalkSpeed, f.Camera.TZ(), 1e-9)
		assert.InDelta(t, cfg.EyeHeight, f.Camera.TY(), 1e-12)
	})

	t.Run("paused", func(t *testing.T) {
		f := cam.FrameAt(start, cfg.PauseAt+cfg.PauseFor/2)
		assert.Equal(t, Paused, f.State)
		assert.Equal(t, cfg.FailureReason, f.FailureReason)

		f = cam.FrameAt(start, cfg.PauseAt+cfg.PauseFor)
		assert.Equal(t, Tracking, f.State)
		assert.Empty(t, f.FailureReason)
	})
}

func TestScriptedCamera_ZeroPauseAtNeverPauses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PauseAt = 0
	cfg.PauseFor = 2 * time.Second
	cam := NewScriptedCamera(cfg, log.Discard())
	start := time.Now()

	for _, at := range []time.Duration{0, time.Second, cfg.PauseFor, 20 * time.Second} {
		f := cam.FrameAt(start, at)
		assert.Equal(t, Tracking, f.State, "at %v", at)
		assert.Empty(t, f.FailureReason)
	}
}

func TestScriptedCamera_RunEmitsTapOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	cfg.TapAfter = 5 * time.Millisecond
	cfg.PauseFor = 0

	cam := NewScriptedCamera(cfg, log.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frames := make(chan Frame)
	go cam.Run(ctx, frames)

	taps := 0
	count := 0
	for f := range frames {
		count++
		if f.Tap {
			taps++
		}
		if count == 40 {
			cancel()
		}
	}

	assert.Equal(t, 1, taps)
	assert.GreaterOrEqual(t, count, 40)
}
