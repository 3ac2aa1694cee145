package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/teslashibe/go-sonicnav/pkg/audioio"
)

var (
	// ErrBadChannel is returned when a voice is routed to a missing channel.
	ErrBadChannel = errors.New("synth: channel out of range")
	// ErrRunning is returned by Start on a running synthesizer.
	ErrRunning = errors.New("synth: already running")
)

type route struct {
	voice   *SineVoice
	channel int
}

// Synthesizer mixes voices onto output channels. Its clock counts rendered
// frames, so timestamps taken from Now land on the next rendered buffer.
type Synthesizer struct {
	cfg    audioio.Config
	logger *slog.Logger

	mu      sync.Mutex
	routes  []route
	pan     float64
	levels  []float64
	scratch []float64

	frames atomic.Int64

	line    *LineOut
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a synthesizer rendering in cfg's format. Rendered audio goes
// to sink while the line-out is started.
func New(cfg audioio.Config, sink audioio.Sink, logger *slog.Logger) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synthesizer{
		cfg:    cfg,
		logger: logger,
		pan:    0.5,
		levels: make([]float64, cfg.Channels),
	}
	s.line = &LineOut{sink: sink, logger: logger}
	return s, nil
}

// Now returns the clock time of the next frame to be rendered.
func (s *Synthesizer) Now() time.Duration {
	return time.Duration(float64(s.frames.Load()) / float64(s.cfg.SampleRate) * float64(time.Second))
}

// LineOut returns the output gate.
func (s *Synthesizer) LineOut() *LineOut { return s.line }

// Config returns the render format.
func (s *Synthesizer) Config() audioio.Config { return s.cfg }

// Add routes a voice to an output channel.
func (s *Synthesizer) Add(v *SineVoice, channel int) error {
	if channel < 0 || channel >= s.cfg.Channels {
		return ErrBadChannel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{voice: v, channel: channel})
	return nil
}

// SetPan trims the stereo balance: 0 is left only, 0.5 centered, 1 right
// only. It has no effect on non-stereo output.
func (s *Synthesizer) SetPan(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("synth: pan %v out of [0, 1]", p)
	}
	s.mu.Lock()
	s.pan = p
	s.mu.Unlock()
	return nil
}

// Pan returns the stereo balance.
func (s *Synthesizer) Pan() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pan
}

// Levels returns the RMS level of each channel in the last rendered buffer.
func (s *Synthesizer) Levels() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.levels))
	copy(out, s.levels)
	return out
}

// Render produces the next n frames and advances the clock.
func (s *Synthesizer) Render(n int) audioio.AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.cfg.Channels
	start := s.Now()

	if cap(s.scratch) < n {
		s.scratch = make([]float64, n)
	}
	mono := s.scratch[:n]

	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: s.cfg.SampleRate},
		Data:   make([]float64, n*channels),
	}
	for _, r := range s.routes {
		clear(mono)
		r.voice.render(mono, start)
		for i, v := range mono {
			buf.Data[i*channels+r.channel] += v
		}
	}

	if channels == 2 && s.pan != 0.5 {
		if err := transforms.StereoPan(buf, s.pan); err != nil {
			s.logger.Warn("stereo pan failed", "error", err)
		}
	}

	chunk := audioio.AudioChunk{
		Samples:    make([]int16, len(buf.Data)),
		SampleRate: s.cfg.SampleRate,
		Channels:   channels,
	}
	for i, v := range buf.Data {
		chunk.Samples[i] = audioio.FloatToPCM16(v)
	}
	for ch := range s.levels {
		s.levels[ch] = audioio.CalculateRMS(chunk.Channel(ch))
	}

	s.frames.Add(int64(n))
	return chunk
}

// Start runs the render loop: one buffer per BufferDuration, written to the
// sink while the line-out is started.
func (s *Synthesizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	go s.loop(ctx)

	s.logger.Info("synthesizer started",
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
		"buffer_ms", s.cfg.BufferDuration.Milliseconds())
	return nil
}

func (s *Synthesizer) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.BufferDuration)
	defer ticker.Stop()

	n := s.cfg.BufferSize()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chunk := s.Render(n)
			if err := s.line.write(ctx, chunk); err != nil {
				s.logger.Warn("audio write failed", "error", err)
			}
		}
	}
}

// Stop ends the render loop and waits for it to exit.
func (s *Synthesizer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("synthesizer stopped", "clock", s.Now())
	return nil
}
