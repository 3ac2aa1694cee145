// Package publish mirrors guidance onto an MQTT broker so other devices
// (haptics, wearables, loggers) can follow the navigation session.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/teslashibe/go-sonicnav/pkg/navigator"
	"github.com/teslashibe/go-sonicnav/pkg/protocol"
)

// ErrNotConnected is returned when publishing before Connect succeeds.
var ErrNotConnected = errors.New("publish: not connected")

// Config configures the broker connection.
type Config struct {
	Enabled     bool          `mapstructure:"enabled" json:"enabled"`
	Broker      string        `mapstructure:"broker" json:"broker"`
	ClientID    string        `mapstructure:"client_id" json:"client_id"`
	TopicPrefix string        `mapstructure:"topic_prefix" json:"topic_prefix"`
	QoS         byte          `mapstructure:"qos" json:"qos"`
	Retain      bool          `mapstructure:"retain" json:"retain"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// DefaultConfig returns a disabled publisher pointed at a local broker.
func DefaultConfig() Config {
	return Config{
		Broker:      "tcp://localhost:1883",
		ClientID:    "sonicnav",
		TopicPrefix: "sonicnav",
		Timeout:     2 * time.Second,
	}
}

// Validate checks the config. A disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("publish: broker required")
	}
	if c.TopicPrefix == "" {
		return errors.New("publish: topic_prefix required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("publish: qos %d out of range", c.QoS)
	}
	if c.Timeout <= 0 {
		return errors.New("publish: timeout must be positive")
	}
	return nil
}

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Stats counts publish outcomes.
type Stats struct {
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}

// Publisher sends guidance JSON to <prefix>/guidance.
type Publisher struct {
	client Client
	cfg    Config
	logger *slog.Logger

	published atomic.Uint64
	failed    atomic.Uint64
}

// New creates a publisher with a paho client built from cfg.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connected", "broker", cfg.Broker)
		})

	return NewWithClient(mqtt.NewClient(opts), cfg, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, cfg: cfg, logger: logger}
}

// Topic is where guidance is published.
func (p *Publisher) Topic() string {
	return strings.TrimSuffix(p.cfg.TopicPrefix, "/") + "/guidance"
}

// Connect dials the broker, giving up when ctx is done.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: connect %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Publish sends st if it carries guidance. Statuses without an offset are
// skipped.
func (p *Publisher) Publish(st navigator.Status) error {
	if !st.Guiding() {
		return nil
	}
	if !p.client.IsConnected() {
		p.failed.Add(1)
		return ErrNotConnected
	}

	payload, err := json.Marshal(protocol.GuidanceFromStatus(st))
	if err != nil {
		return fmt.Errorf("publish: encode: %w", err)
	}

	token := p.client.Publish(p.Topic(), p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(p.cfg.Timeout) {
		p.failed.Add(1)
		return fmt.Errorf("publish: %s timed out after %v", p.Topic(), p.cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		p.failed.Add(1)
		return fmt.Errorf("publish: %s: %w", p.Topic(), err)
	}
	p.published.Add(1)
	return nil
}

// Observe is a navigator status observer.
func (p *Publisher) Observe(st navigator.Status) {
	if err := p.Publish(st); err != nil {
		p.logger.Debug("guidance not published", "error", err)
	}
}

// Stats returns publish counters.
func (p *Publisher) Stats() Stats {
	return Stats{Published: p.published.Load(), Failed: p.failed.Load()}
}

// Close disconnects, allowing in-flight messages 250 ms.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
