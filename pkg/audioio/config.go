// Package audioio provides audio output sinks for rendered PCM.
//
// Backends:
//   - Mock - CI/Testing, keeps written chunks in memory
//   - WAV - Writes 16-bit PCM to a .wav file for offline listening
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendMock keeps audio in memory.
	BackendMock Backend = "mock"
	// BackendWAV writes audio to a WAV file.
	BackendWAV Backend = "wav"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "mock"
	Backend Backend `mapstructure:"backend" json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Default: 44100
	SampleRate int `mapstructure:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 2 (stereo)
	Channels int `mapstructure:"channels" json:"channels"`

	// BufferDuration is the size of audio buffers.
	// Default: 20ms (882 frames at 44.1kHz)
	BufferDuration time.Duration `mapstructure:"buffer_duration" json:"buffer_duration"`

	// Path is the output file for the WAV backend.
	Path string `mapstructure:"path" json:"path"`

	// Pan trims the stereo balance: 0 left only, 0.5 centered, 1 right only.
	// Default: 0.5
	Pan float64 `mapstructure:"pan" json:"pan"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendMock,
		SampleRate:     44100,
		Channels:       2,
		BufferDuration: 20 * time.Millisecond,
		Pan:            0.5,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.Pan < 0 || c.Pan > 1 {
		return fmt.Errorf("pan must be in [0, 1], got %v", c.Pan)
	}
	if c.Backend == BackendWAV && c.Path == "" {
		return fmt.Errorf("path is required for the %s backend", BackendWAV)
	}
	return nil
}

// BufferSize returns the number of frames per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}
