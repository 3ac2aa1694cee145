package synth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-sonicnav/pkg/audioio"
)

// LineOut gates the synthesizer's connection to its sink. The synthesizer
// keeps rendering while the line-out is stopped; the audio is dropped.
type LineOut struct {
	sink   audioio.Sink
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// Start opens the sink and lets audio through.
func (l *LineOut) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}
	if err := l.sink.Start(context.Background()); err != nil {
		return err
	}
	l.started = true
	l.logger.Debug("line out started", "backend", l.sink.Name())
	return nil
}

// Stop discards buffered audio and stops the sink. Once Stop returns no
// further audio reaches the sink until Start.
func (l *LineOut) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return nil
	}
	l.started = false
	if err := l.sink.Clear(); err != nil {
		l.logger.Warn("line out clear failed", "error", err)
	}
	l.logger.Debug("line out stopped")
	return l.sink.Stop()
}

// Started reports whether audio is reaching the sink.
func (l *LineOut) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Sink returns the underlying sink.
func (l *LineOut) Sink() audioio.Sink { return l.sink }

func (l *LineOut) write(ctx context.Context, chunk audioio.AudioChunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return nil
	}
	err := l.sink.Write(ctx, chunk)
	if errors.Is(err, audioio.ErrSinkStopped) {
		return nil
	}
	return err
}
