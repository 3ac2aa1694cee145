// Package sonify turns a heading offset into a stereo tone: pitch rises
// with the angle to the target and the balance leans toward its side.
package sonify

import (
	"math"

	"github.com/teslashibe/go-sonicnav/pkg/navigation"
)

const (
	// FreqMin is the on-course tone and the bottom of the pitch range.
	FreqMin = 220.0
	// FreqMax is the top of the pitch range, reached with the target behind.
	FreqMax = 783.991
)

var (
	minPitch = math.Floor(FrequencyToPitch(FreqMin)) + 2
	maxPitch = math.Floor(FrequencyToPitch(FreqMax))
)

// FrequencyToPitch converts Hz to a MIDI-style pitch, A4 = 69.
func FrequencyToPitch(f float64) float64 {
	return 69 + 12*math.Log2(f/440)
}

// PitchToFrequency converts a MIDI-style pitch to Hz.
func PitchToFrequency(p float64) float64 {
	return 440 * math.Pow(2, (p-69)/12)
}

// Tone is one note for the stereo pair.
type Tone struct {
	Frequency float64 `json:"frequency"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
}

// ToneFor maps a heading in degrees and the lateral offset to a tone.
// Pitch steps by semitone from just above FreqMin at 0° to FreqMax at 180°,
// with FreqMin itself reserved for being on course. The louder channel is
// the one on the target's side; ahead and behind are centered.
func ToneFor(heading, lateral float64) Tone {
	// The epsilon keeps a heading of 90 from truncating to the semitone below
	// when acos lands a hair short.
	pitch := int(heading/180*(maxPitch-minPitch) + minPitch + 1e-9)
	freq := PitchToFrequency(float64(pitch))
	if heading < navigation.StraightEnoughDegrees {
		freq = FreqMin
	}

	b := math.Abs(90-heading) / 180
	left := 1 - b
	if lateral > 0 {
		left = b
	}
	return Tone{Frequency: freq, Left: left, Right: 1 - left}
}
