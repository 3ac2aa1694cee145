package audioio

import "math"

// AudioChunk represents a chunk of interleaved audio data.
type AudioChunk struct {
	// Samples contains interleaved PCM16 samples.
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Frames returns the number of sample frames in the chunk.
func (c *AudioChunk) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the duration of this audio chunk in seconds.
func (c *AudioChunk) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// Channel returns the samples of one channel.
func (c *AudioChunk) Channel(ch int) []int16 {
	if ch < 0 || ch >= c.Channels {
		return nil
	}
	out := make([]int16, 0, c.Frames())
	for i := ch; i < len(c.Samples); i += c.Channels {
		out = append(out, c.Samples[i])
	}
	return out
}

// FloatToPCM16 converts a sample in [-1, 1] to int16, clipping outside.
func FloatToPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(v * 32767))
}

// CalculateRMS calculates the root mean square of samples.
// Returns a value between 0.0 and 1.0.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum/float64(len(samples))) / 32767
}
