package synth

import (
	"math"
	"sort"
	"sync"
	"time"
)

type event struct {
	at   time.Duration
	on   bool
	freq float64
	amp  float64
}

// SineVoice is a sine oscillator with a DAHDSR envelope and a linear ramp
// on amplitude. Note commands are queued and applied when the synthesizer
// clock reaches their timestamp.
type SineVoice struct {
	mu     sync.Mutex
	rate   float64
	phase  float64
	freq   float64
	amp    *Ramp
	env    *Envelope
	events []event
}

// NewSineVoice creates a silent voice with the default envelope and no
// amplitude ramp.
func NewSineVoice(sampleRate int) *SineVoice {
	return &SineVoice{
		rate: float64(sampleRate),
		amp:  NewRamp(0),
		env:  NewEnvelope(DefaultEnvelope()),
	}
}

// SetEnvelope replaces the envelope settings.
func (v *SineVoice) SetEnvelope(cfg EnvelopeConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.env.SetConfig(cfg)
}

// SetRampTime sets how long amplitude changes take.
func (v *SineVoice) SetRampTime(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.amp.SetTime(d)
}

// NoteOn schedules the frequency and amplitude target to change at the
// given clock time and gates the envelope on.
func (v *SineVoice) NoteOn(freq, amp float64, at time.Duration) {
	v.schedule(event{at: at, on: true, freq: freq, amp: amp})
}

// NoteOff schedules the envelope release.
func (v *SineVoice) NoteOff(at time.Duration) {
	v.schedule(event{at: at})
}

func (v *SineVoice) schedule(e event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i := sort.Search(len(v.events), func(i int) bool { return v.events[i].at > e.at })
	v.events = append(v.events, event{})
	copy(v.events[i+1:], v.events[i:])
	v.events[i] = e
}

// Pending returns the number of queued note commands.
func (v *SineVoice) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.events)
}

// Frequency returns the oscillator frequency in Hz.
func (v *SineVoice) Frequency() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.freq
}

// Active reports whether the envelope is open.
func (v *SineVoice) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.env.Active()
}

// render adds len(out) samples starting at clock time start to out.
func (v *SineVoice) render(out []float64, start time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	dt := 1 / v.rate
	for i := range out {
		now := start + time.Duration(float64(i)*dt*float64(time.Second))
		for len(v.events) > 0 && v.events[0].at <= now {
			v.apply(v.events[0])
			v.events = v.events[1:]
		}

		level := v.env.Next(dt)
		amp := v.amp.Next(dt)
		if level != 0 && amp != 0 {
			out[i] += math.Sin(v.phase) * amp * level
		}

		v.phase += 2 * math.Pi * v.freq * dt
		if v.phase >= 2*math.Pi {
			v.phase -= 2 * math.Pi
		}
	}
}

func (v *SineVoice) apply(e event) {
	if !e.on {
		v.env.Off()
		return
	}
	v.freq = e.freq
	v.amp.SetTarget(e.amp)
	v.env.On()
}
