package tracking

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

var (
	axisY = r3.Vector{Y: 1}
	axisZ = r3.Vector{Z: 1}
)

// ScriptedCamera replays a deterministic walk: the holder stands still,
// then walks down -Z while swaying left and right and rolling the phone in
// their hand. Tracking drops out once if both PauseAt and PauseFor are set.
type ScriptedCamera struct {
	config Config
	logger *slog.Logger
}

// NewScriptedCamera creates a camera driven by config.
func NewScriptedCamera(config Config, logger *slog.Logger) *ScriptedCamera {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptedCamera{config: config, logger: logger}
}

// FrameAt returns the frame elapsed into the script, stamped start+elapsed.
func (c *ScriptedCamera) FrameAt(start time.Time, elapsed time.Duration) Frame {
	cfg := c.config
	t := elapsed.Seconds()

	walked := 0.0
	if elapsed > cfg.WalkDelay {
		walked = (elapsed - cfg.WalkDelay).Seconds() * cfg.WalkSpeed
	}

	sway := cfg.SwayAmp * math.Sin(2*math.Pi*t/cfg.SwayPeriod.Seconds())
	roll := cfg.RollAmp * math.Sin(2*math.Pi*t/cfg.RollPeriod.Seconds())
	drift := cfg.DriftAmp * math.Sin(2*math.Pi*t/(2*cfg.SwayPeriod.Seconds()))

	cam := pose.FromTranslation(drift, cfg.EyeHeight, -walked).
		Compose(pose.FromAxisAngle(axisY, sway)).
		Compose(pose.FromAxisAngle(axisZ, roll))

	f := Frame{
		Timestamp:     start.Add(elapsed),
		Camera:        cam,
		State:         Tracking,
		PlaneDetected: elapsed >= cfg.PlaneAfter,
	}

	if cfg.PauseAt > 0 && cfg.PauseFor > 0 && elapsed >= cfg.PauseAt && elapsed < cfg.PauseAt+cfg.PauseFor {
		f.State = Paused
		f.FailureReason = cfg.FailureReason
	}
	return f
}

// Run emits a frame every FrameInterval until ctx is done. The tap frame
// is the first one at or after TapAfter. The channel is closed on return.
func (c *ScriptedCamera) Run(ctx context.Context, out chan<- Frame) {
	defer close(out)

	ticker := time.NewTicker(c.config.FrameInterval)
	defer ticker.Stop()

	c.logger.Info("scripted camera started",
		"interval", c.config.FrameInterval,
		"walk_speed", c.config.WalkSpeed,
		"sway_deg", Degrees(c.config.SwayAmp),
		"roll_deg", Degrees(c.config.RollAmp))

	start := time.Now()
	tapped := c.config.TapAfter <= 0

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scripted camera stopped")
			return

		case now := <-ticker.C:
			f := c.FrameAt(start, now.Sub(start))
			if !tapped && now.Sub(start) >= c.config.TapAfter && f.State == Tracking {
				f.Tap = true
				tapped = true
			}

			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}
}
