// Package synth is a small software synthesizer: sine voices shaped by a
// DAHDSR envelope, mixed onto stereo channels against a sample clock and
// written to an audioio.Sink.
package synth

import (
	"errors"
	"time"
)

// EnvelopeConfig holds DAHDSR stage times in seconds and the sustain level.
type EnvelopeConfig struct {
	Delay   float64 `json:"delay"`
	Attack  float64 `json:"attack"`
	Hold    float64 `json:"hold"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"` // level in [0, 1]
	Release float64 `json:"release"`
}

// DefaultEnvelope returns a short percussive envelope.
func DefaultEnvelope() EnvelopeConfig {
	return EnvelopeConfig{
		Delay:   0.01,
		Attack:  0.01,
		Hold:    0.04,
		Decay:   0.01,
		Sustain: 0.045,
		Release: 0.01,
	}
}

// Validate rejects negative times and out of range sustain levels.
func (c EnvelopeConfig) Validate() error {
	if c.Delay < 0 || c.Attack < 0 || c.Hold < 0 || c.Decay < 0 || c.Release < 0 {
		return errors.New("synth: envelope times must not be negative")
	}
	if c.Sustain < 0 || c.Sustain > 1 {
		return errors.New("synth: sustain level must be in [0, 1]")
	}
	return nil
}

type stage int

const (
	stageIdle stage = iota
	stageDelay
	stageAttack
	stageHold
	stageDecay
	stageSustain
	stageRelease
)

// Envelope is a DAHDSR amplitude envelope advanced one sample at a time.
type Envelope struct {
	cfg   EnvelopeConfig
	stage stage
	level float64
	t     float64 // seconds spent in the current stage
	from  float64 // level at the start of the release
}

// NewEnvelope creates an idle envelope.
func NewEnvelope(cfg EnvelopeConfig) *Envelope {
	return &Envelope{cfg: cfg}
}

// SetConfig replaces the stage settings. A running envelope continues from
// its current level under the new settings.
func (e *Envelope) SetConfig(cfg EnvelopeConfig) { e.cfg = cfg }

// Config returns the stage settings.
func (e *Envelope) Config() EnvelopeConfig { return e.cfg }

// On gates the envelope. An idle envelope starts with the delay stage; an
// active one restarts the attack from its current level.
func (e *Envelope) On() {
	if e.stage == stageIdle {
		e.enter(stageDelay)
		return
	}
	e.enter(stageAttack)
}

// Off releases the envelope from its current level.
func (e *Envelope) Off() {
	if e.stage == stageIdle {
		return
	}
	e.from = e.level
	e.enter(stageRelease)
}

// Active reports whether the envelope is producing output.
func (e *Envelope) Active() bool { return e.stage != stageIdle }

// Level returns the current output level.
func (e *Envelope) Level() float64 { return e.level }

func (e *Envelope) enter(s stage) {
	e.stage = s
	e.t = 0
}

// Next advances the envelope by dt seconds and returns the new level.
func (e *Envelope) Next(dt float64) float64 {
	e.t += dt

	switch e.stage {
	case stageDelay:
		if e.t >= e.cfg.Delay {
			e.enter(stageAttack)
		}

	case stageAttack:
		if e.cfg.Attack <= 0 {
			e.level = 1
		} else {
			e.level += dt / e.cfg.Attack
		}
		if e.level >= 1 {
			e.level = 1
			e.enter(stageHold)
		}

	case stageHold:
		if e.t >= e.cfg.Hold {
			e.enter(stageDecay)
		}

	case stageDecay:
		if e.cfg.Decay <= 0 || e.t >= e.cfg.Decay {
			e.level = e.cfg.Sustain
			e.enter(stageSustain)
		} else {
			e.level = 1 - (1-e.cfg.Sustain)*e.t/e.cfg.Decay
		}

	case stageSustain:
		e.level = e.cfg.Sustain

	case stageRelease:
		if e.cfg.Release <= 0 || e.t >= e.cfg.Release {
			e.level = 0
			e.enter(stageIdle)
		} else {
			e.level = e.from * (1 - e.t/e.cfg.Release)
		}
	}
	return e.level
}

// Ramp moves a value linearly to its target over a fixed time.
type Ramp struct {
	current float64
	target  float64
	step    float64
	time    float64
}

// NewRamp creates a ramp that takes d to reach each new target.
func NewRamp(d time.Duration) *Ramp {
	return &Ramp{time: d.Seconds()}
}

// SetTime changes how long future moves take.
func (r *Ramp) SetTime(d time.Duration) { r.time = d.Seconds() }

// SetTarget starts a move from the current value toward v.
func (r *Ramp) SetTarget(v float64) {
	r.target = v
	if r.time <= 0 {
		r.current = v
		r.step = 0
		return
	}
	r.step = (v - r.current) / r.time
}

// Value returns the current value.
func (r *Ramp) Value() float64 { return r.current }

// Next advances the ramp by dt seconds and returns the new value.
func (r *Ramp) Next(dt float64) float64 {
	if r.current == r.target {
		return r.current
	}
	r.current += r.step * dt
	if (r.step > 0 && r.current > r.target) || (r.step < 0 && r.current < r.target) || r.step == 0 {
		r.current = r.target
	}
	return r.current
}
