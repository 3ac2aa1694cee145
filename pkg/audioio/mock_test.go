package audioio

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMockSink_WriteFlushClear(t *testing.T) {
	cfg := DefaultConfig()
	sink := NewMockSink(cfg, nil)
	defer sink.Close()

	ctx := context.Background()

	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Write a chunk
	chunk := AudioChunk{
		Samples:    make([]int16, 882*2),
		SampleRate: 44100,
		Channels:   2,
	}

	if err := sink.Write(ctx, chunk); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 1 {
		t.Errorf("Expected 1 chunk written, got %d", stats.ChunksWritten)
	}
	if stats.BufferedSamples != 882*2 {
		t.Errorf("Expected %d buffered samples, got %d", 882*2, stats.BufferedSamples)
	}

	// Flush should succeed
	if err := sink.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Write more and clear
	if err := sink.Write(ctx, chunk); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := sink.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	// Stats should still show 2 chunks written
	stats = sink.Stats()
	if stats.ChunksWritten != 2 {
		t.Errorf("Expected 2 chunks written, got %d", stats.ChunksWritten)
	}
	if stats.BufferedSamples != 0 {
		t.Errorf("Expected empty buffer after Clear, got %d", stats.BufferedSamples)
	}
	if got := len(sink.Written()); got != 2 {
		t.Errorf("Expected 2 chunks in history, got %d", got)
	}
}

func TestMockSink_NotRunning(t *testing.T) {
	cfg := DefaultConfig()
	sink := NewMockSink(cfg, nil)
	defer sink.Close()

	ctx := context.Background()

	// Write without starting should fail
	chunk := AudioChunk{
		Samples:    make([]int16, 480),
		SampleRate: 44100,
		Channels:   2,
	}

	if err := sink.Write(ctx, chunk); !errors.Is(err, ErrSinkStopped) {
		t.Errorf("Expected ErrSinkStopped, got %v", err)
	}

	sink.Start(ctx)
	sink.Stop()
	if err := sink.Write(ctx, chunk); !errors.Is(err, ErrSinkStopped) {
		t.Errorf("Expected ErrSinkStopped after Stop, got %v", err)
	}
}

func TestMockSink_Close(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
	if err := sink.Start(ctx); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Expected ErrSinkClosed, got %v", err)
	}
}

func TestMockSink_HistoryCapped(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()
	sink.Start(ctx)

	for i := 0; i < mockHistory+10; i++ {
		chunk := AudioChunk{Samples: []int16{int16(i)}, SampleRate: 44100, Channels: 1}
		if err := sink.Write(ctx, chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	got := sink.Written()
	if len(got) != mockHistory {
		t.Fatalf("Expected %d chunks, got %d", mockHistory, len(got))
	}
	if got[0].Samples[0] != 10 {
		t.Errorf("Expected oldest kept chunk to be 10, got %d", got[0].Samples[0])
	}
}

func TestMockSink_BufferBoundedWithoutFlush(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()
	sink.Start(ctx)

	// A playing cue writes 20ms chunks and never flushes.
	chunk := AudioChunk{Samples: make([]int16, 882*2), SampleRate: 44100, Channels: 2}
	for i := 0; i < 4*mockHistory; i++ {
		if err := sink.Write(ctx, chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 4*mockHistory {
		t.Errorf("Expected %d chunks written, got %d", 4*mockHistory, stats.ChunksWritten)
	}
	if max := int64(mockHistory * 882 * 2); stats.BufferedSamples != max {
		t.Errorf("Expected buffer capped at %d samples, got %d", max, stats.BufferedSamples)
	}
}

func TestAudioChunk_Duration(t *testing.T) {
	chunk := AudioChunk{
		Samples:    make([]int16, 882*2), // 20ms at 44.1kHz stereo
		SampleRate: 44100,
		Channels:   2,
	}

	duration := chunk.Duration()
	expected := 0.02 // 20ms

	if duration < expected-0.001 || duration > expected+0.001 {
		t.Errorf("Expected duration ~%f, got %f", expected, duration)
	}
	if chunk.Frames() != 882 {
		t.Errorf("Expected 882 frames, got %d", chunk.Frames())
	}
}

func TestAudioChunk_Channel(t *testing.T) {
	chunk := AudioChunk{Samples: []int16{1, -1, 2, -2, 3, -3}, SampleRate: 44100, Channels: 2}

	left := chunk.Channel(0)
	right := chunk.Channel(1)
	if len(left) != 3 || left[2] != 3 {
		t.Errorf("Unexpected left channel: %v", left)
	}
	if len(right) != 3 || right[0] != -1 {
		t.Errorf("Unexpected right channel: %v", right)
	}
	if chunk.Channel(2) != nil {
		t.Error("Expected nil for out-of-range channel")
	}
}

func TestFloatToPCM16(t *testing.T) {
	tests := map[float64]int16{
		0:    0,
		1:    32767,
		-1:   -32767,
		2:    32767,
		-3:   -32767,
		0.5:  16384,
		-0.5: -16384,
	}
	for in, want := range tests {
		if got := FloatToPCM16(in); got != want {
			t.Errorf("FloatToPCM16(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestCalculateRMS(t *testing.T) {
	if got := CalculateRMS(nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}

	full := []int16{32767, -32767, 32767, -32767}
	if got := CalculateRMS(full); math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected 1 for full-scale square wave, got %f", got)
	}

	sine := make([]int16, 4410)
	for i := range sine {
		sine[i] = FloatToPCM16(0.5 * math.Sin(2*math.Pi*441*float64(i)/44100))
	}
	if got := CalculateRMS(sine); math.Abs(got-0.5/math.Sqrt2) > 1e-3 {
		t.Errorf("Expected ~%f for half-scale sine, got %f", 0.5/math.Sqrt2, got)
	}
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if sink.Name() != "mock" {
		t.Errorf("Expected mock backend, got %s", sink.Name())
	}

	cfg := DefaultConfig()
	cfg.Backend = BackendWAV
	if _, err := NewSink(cfg, nil); err == nil {
		t.Error("Expected error for wav backend without path")
	}

	cfg.Backend = "alsa"
	if _, err := NewSink(cfg, nil); err == nil {
		t.Error("Expected error for unsupported backend")
	}
}
