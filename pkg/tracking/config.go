package tracking

import (
	"errors"
	"math"
	"time"
)

// Config drives the scripted camera.
type Config struct {
	// Timing
	FrameInterval time.Duration // Time between emitted frames

	// Motion
	EyeHeight  float64       // Camera height in meters
	WalkSpeed  float64       // Forward speed along -Z in m/s
	WalkDelay  time.Duration // Stand still this long before walking
	DriftAmp   float64       // Sideways drift amplitude in meters
	SwayAmp    float64       // Heading sway amplitude in radians
	SwayPeriod time.Duration // Heading sway period
	RollAmp    float64       // Device roll wobble amplitude in radians
	RollPeriod time.Duration // Device roll wobble period

	// Session events
	PlaneAfter    time.Duration // Plane detected after this long
	TapAfter      time.Duration // User taps to start navigation (0 = never)
	PauseAt       time.Duration // Tracking pauses at this offset (0 = never)
	PauseFor      time.Duration // How long tracking stays paused
	FailureReason string        // Reason reported while paused
}

// DefaultConfig returns a slow walk with a noticeable sway and wrist roll.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 33 * time.Millisecond, // ~30 fps

		EyeHeight:  1.4,
		WalkSpeed:  0.8,
		WalkDelay:  2 * time.Second,
		DriftAmp:   0.3,
		SwayAmp:    Radians(35),
		SwayPeriod: 8 * time.Second,
		RollAmp:    Radians(20),
		RollPeriod: 3 * time.Second,

		PlaneAfter:    500 * time.Millisecond,
		TapAfter:      time.Second,
		PauseAt:       12 * time.Second,
		PauseFor:      2 * time.Second,
		FailureReason: "Not enough visual features",
	}
}

// Validate checks the config for values the camera cannot run with.
func (c Config) Validate() error {
	if c.FrameInterval <= 0 {
		return errors.New("tracking: frame interval must be positive")
	}
	if c.SwayPeriod <= 0 || c.RollPeriod <= 0 {
		return errors.New("tracking: sway and roll periods must be positive")
	}
	if math.Abs(c.RollAmp) >= math.Pi/2 {
		return errors.New("tracking: roll amplitude must stay below 90 degrees")
	}
	return nil
}
