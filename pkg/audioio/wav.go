package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavPCM is the WAVE format tag for integer PCM.
const wavPCM = 1

// WAVSink writes 16-bit PCM to a WAV file. The file is created on the
// first Start and finalized on Close; Stop only pauses writing, so a
// session with pauses yields one continuous recording.
type WAVSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	running bool
	closed  bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
}

// NewWAVSink creates a sink writing to cfg.Path.
func NewWAVSink(cfg Config, logger *slog.Logger) *WAVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &WAVSink{cfg: cfg, logger: logger}
}

// Start opens the output file if needed and begins accepting audio.
func (w *WAVSink) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrSinkClosed
	}
	if w.enc == nil {
		f, err := os.Create(w.cfg.Path)
		if err != nil {
			return fmt.Errorf("audioio: create wav: %w", err)
		}
		w.file = f
		w.enc = wav.NewEncoder(f, w.cfg.SampleRate, 16, w.cfg.Channels, wavPCM)
		w.logger.Info("wav audio sink opened", "path", w.cfg.Path)
	}
	w.running = true
	return nil
}

// Stop halts audio acceptance. The file stays open.
func (w *WAVSink) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return nil
}

// Write encodes a chunk into the file.
func (w *WAVSink) Write(ctx context.Context, chunk AudioChunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrSinkClosed
	}
	if !w.running {
		return ErrSinkStopped
	}
	if chunk.Channels != w.cfg.Channels || chunk.SampleRate != w.cfg.SampleRate {
		return fmt.Errorf("audioio: chunk format %dHz/%dch does not match sink %dHz/%dch",
			chunk.SampleRate, chunk.Channels, w.cfg.SampleRate, w.cfg.Channels)
	}

	data := make([]int, len(chunk.Samples))
	for i, s := range chunk.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chunk.Channels, SampleRate: chunk.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("audioio: write wav: %w", err)
	}

	w.chunksWritten.Add(1)
	w.samplesWritten.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush is a no-op; samples are encoded as they are written.
func (w *WAVSink) Flush(ctx context.Context) error { return nil }

// Clear is a no-op; nothing is buffered.
func (w *WAVSink) Clear() error { return nil }

// Config returns the audio configuration.
func (w *WAVSink) Config() Config { return w.cfg }

// Name returns "wav".
func (w *WAVSink) Name() string { return string(BackendWAV) }

// Close finalizes the WAV header and closes the file.
func (w *WAVSink) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.running = false

	if w.enc == nil {
		return nil
	}
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	w.logger.Info("wav audio sink closed",
		"path", w.cfg.Path,
		"samples", w.samplesWritten.Load())

	if encErr != nil {
		return fmt.Errorf("audioio: finalize wav: %w", encErr)
	}
	return fileErr
}

// Stats returns sink statistics.
func (w *WAVSink) Stats() SinkStats {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	return SinkStats{
		ChunksWritten:  w.chunksWritten.Load(),
		SamplesWritten: w.samplesWritten.Load(),
		Running:        running,
		Backend:        string(BackendWAV),
	}
}

var _ SinkWithStats = (*WAVSink)(nil)
