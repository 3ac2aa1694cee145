package sonify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrRigClosed is returned by Sonify after Close.
var ErrRigClosed = errors.New("sonify: driver closed")

// Voice is one oscillator of the audio engine.
type Voice interface {
	NoteOn(freq, amp float64, at time.Duration)
	NoteOff(at time.Duration)
}

// Output is the audio engine's stereo output gate.
type Output interface {
	Start() error
	Stop() error
}

// Clock is the audio engine's timestamp source.
type Clock interface {
	Now() time.Duration
}

// Rig is the set of audio resources a Driver plays through.
type Rig struct {
	Clock  Clock
	Left   Voice
	Right  Voice
	Output Output
	// Closer releases the rig, may be nil.
	Closer io.Closer
}

// RigFactory builds a Rig on first use.
type RigFactory func() (*Rig, error)

// State is the driver's playback state.
type State int

const (
	Idle State = iota
	Armed
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Driver plays the guidance tone. The rig is built on the first Sonify
// and kept across pauses until Close.
type Driver struct {
	factory RigFactory
	logger  *slog.Logger

	mu     sync.Mutex
	rig    *Rig
	state  State
	tone   Tone
	closed bool
}

// NewDriver creates an idle driver.
func NewDriver(factory RigFactory, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{factory: factory, logger: logger}
}

// Sonify plays the tone for heading and lateral, starting the output if
// needed. Each call issues one note-on per voice at the rig clock's time.
func (d *Driver) Sonify(heading, lateral float64) (Tone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Tone{}, ErrRigClosed
	}

	if d.rig == nil {
		rig, err := d.factory()
		if err != nil {
			return Tone{}, fmt.Errorf("sonify: build rig: %w", err)
		}
		d.rig = rig
		d.logger.Info("sonification rig ready")
	}
	if d.state == Idle {
		d.state = Armed
	}

	if d.state == Armed {
		if err := d.rig.Output.Start(); err != nil {
			return Tone{}, fmt.Errorf("sonify: start output: %w", err)
		}
		d.state = Playing
		d.logger.Debug("sonification started")
	}

	tone := ToneFor(heading, lateral)
	at := d.rig.Clock.Now()
	d.rig.Left.NoteOn(tone.Frequency, tone.Left, at)
	d.rig.Right.NoteOn(tone.Frequency, tone.Right, at)
	d.tone = tone
	return tone, nil
}

// Pause stops the output. The output is silent when Pause returns.
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pauseLocked()
}

func (d *Driver) pauseLocked() error {
	if d.state != Playing {
		d.state = Idle
		return nil
	}
	d.state = Idle
	d.logger.Debug("sonification paused")
	if err := d.rig.Output.Stop(); err != nil {
		return fmt.Errorf("sonify: stop output: %w", err)
	}
	return nil
}

// Close stops playback and releases the rig. Further Sonify calls fail.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	err := d.pauseLocked()
	if d.rig != nil && d.rig.Closer != nil {
		err = errors.Join(err, d.rig.Closer.Close())
	}
	d.rig = nil
	return err
}

// State returns the playback state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Tone returns the last tone played.
func (d *Driver) Tone() Tone {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tone
}
