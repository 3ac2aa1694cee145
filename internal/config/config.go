// Package config loads sonicnav configuration from an optional file,
// SONICNAV_ environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/teslashibe/go-sonicnav/pkg/audioio"
	"github.com/teslashibe/go-sonicnav/pkg/navigation"
	"github.com/teslashibe/go-sonicnav/pkg/publish"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
	"github.com/teslashibe/go-sonicnav/pkg/web"
)

// EnvPrefix prefixes environment overrides, e.g. SONICNAV_WEB_ADDR.
const EnvPrefix = "SONICNAV"

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// SimulationConfig drives the built-in scripted camera. Angles are in
// degrees.
type SimulationConfig struct {
	FrameInterval time.Duration `mapstructure:"frame_interval" json:"frame_interval"`
	EyeHeight     float64       `mapstructure:"eye_height" json:"eye_height"`
	WalkSpeed     float64       `mapstructure:"walk_speed" json:"walk_speed"`
	WalkDelay     time.Duration `mapstructure:"walk_delay" json:"walk_delay"`
	DriftAmp      float64       `mapstructure:"drift" json:"drift"`
	SwayDegrees   float64       `mapstructure:"sway_degrees" json:"sway_degrees"`
	SwayPeriod    time.Duration `mapstructure:"sway_period" json:"sway_period"`
	RollDegrees   float64       `mapstructure:"roll_degrees" json:"roll_degrees"`
	RollPeriod    time.Duration `mapstructure:"roll_period" json:"roll_period"`
	PlaneAfter    time.Duration `mapstructure:"plane_after" json:"plane_after"`
	TapAfter      time.Duration `mapstructure:"tap_after" json:"tap_after"`
	PauseAt       time.Duration `mapstructure:"pause_at" json:"pause_at"`
	PauseFor      time.Duration `mapstructure:"pause_for" json:"pause_for"`
	FailureReason string        `mapstructure:"failure_reason" json:"failure_reason"`
}

// Tracking converts the section to a scripted camera config.
func (s SimulationConfig) Tracking() tracking.Config {
	return tracking.Config{
		FrameInterval: s.FrameInterval,
		EyeHeight:     s.EyeHeight,
		WalkSpeed:     s.WalkSpeed,
		WalkDelay:     s.WalkDelay,
		DriftAmp:      s.DriftAmp,
		SwayAmp:       tracking.Radians(s.SwayDegrees),
		SwayPeriod:    s.SwayPeriod,
		RollAmp:       tracking.Radians(s.RollDegrees),
		RollPeriod:    s.RollPeriod,
		PlaneAfter:    s.PlaneAfter,
		TapAfter:      s.TapAfter,
		PauseAt:       s.PauseAt,
		PauseFor:      s.PauseFor,
		FailureReason: s.FailureReason,
	}
}

// Config is the full service configuration.
type Config struct {
	Log        LogConfig         `mapstructure:"log" json:"log"`
	Navigation navigation.Config `mapstructure:"navigation" json:"navigation"`
	Audio      audioio.Config    `mapstructure:"audio" json:"audio"`
	Web        web.Config        `mapstructure:"web" json:"web"`
	MQTT       publish.Config    `mapstructure:"mqtt" json:"mqtt"`
	Simulation SimulationConfig  `mapstructure:"simulation" json:"simulation"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log.format %q must be text or json", c.Log.Format)
	}
	if err := c.Navigation.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("config: audio: %w", err)
	}
	if c.Audio.Channels != 2 {
		return fmt.Errorf("config: audio.channels must be 2 for stereo guidance, got %d", c.Audio.Channels)
	}
	if err := c.Web.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Simulation.Tracking().Validate(); err != nil {
		return fmt.Errorf("config: simulation: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")

	nav := navigation.DefaultConfig()
	v.SetDefault("navigation.target_distance", nav.TargetDistanceAlongRay)
	v.SetDefault("navigation.anchor_refresh", nav.AnchorRefreshInterval)

	audio := audioio.DefaultConfig()
	v.SetDefault("audio.backend", string(audio.Backend))
	v.SetDefault("audio.sample_rate", audio.SampleRate)
	v.SetDefault("audio.channels", audio.Channels)
	v.SetDefault("audio.buffer_duration", audio.BufferDuration)
	v.SetDefault("audio.path", audio.Path)
	v.SetDefault("audio.pan", audio.Pan)

	w := web.DefaultConfig()
	v.SetDefault("web.addr", w.Addr)
	v.SetDefault("web.static_dir", w.StaticDir)
	v.SetDefault("web.max_frame_bytes", w.MaxFrameBytes)

	mq := publish.DefaultConfig()
	v.SetDefault("mqtt.enabled", mq.Enabled)
	v.SetDefault("mqtt.broker", mq.Broker)
	v.SetDefault("mqtt.client_id", mq.ClientID)
	v.SetDefault("mqtt.topic_prefix", mq.TopicPrefix)
	v.SetDefault("mqtt.qos", mq.QoS)
	v.SetDefault("mqtt.retain", mq.Retain)
	v.SetDefault("mqtt.timeout", mq.Timeout)

	sim := tracking.DefaultConfig()
	v.SetDefault("simulation.frame_interval", sim.FrameInterval)
	v.SetDefault("simulation.eye_height", sim.EyeHeight)
	v.SetDefault("simulation.walk_speed", sim.WalkSpeed)
	v.SetDefault("simulation.walk_delay", sim.WalkDelay)
	v.SetDefault("simulation.drift", sim.DriftAmp)
	v.SetDefault("simulation.sway_degrees", tracking.Degrees(sim.SwayAmp))
	v.SetDefault("simulation.sway_period", sim.SwayPeriod)
	v.SetDefault("simulation.roll_degrees", tracking.Degrees(sim.RollAmp))
	v.SetDefault("simulation.roll_period", sim.RollPeriod)
	v.SetDefault("simulation.plane_after", sim.PlaneAfter)
	v.SetDefault("simulation.tap_after", sim.TapAfter)
	v.SetDefault("simulation.pause_at", sim.PauseAt)
	v.SetDefault("simulation.pause_for", sim.PauseFor)
	v.SetDefault("simulation.failure_reason", sim.FailureReason)
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Defaults are static; a decode failure is a programming error.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Load reads path when given; otherwise it looks for sonicnav.{yaml,json,toml}
// in the working directory and carries on with defaults if none exists.
// Environment variables override both.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("sonicnav")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: error reading config file: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
