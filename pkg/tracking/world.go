package tracking

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

// ErrInvalidPose is returned when an anchor is requested at a pose with
// non-finite components.
var ErrInvalidPose = errors.New("tracking: invalid anchor pose")

// SimEngine is an in-memory tracking engine. Anchors never drift; their
// tracking state follows the engine state until they are detached.
type SimEngine struct {
	mu      sync.RWMutex
	anchors map[string]*simAnchor
	seq     uint64
	state   State
	logger  *slog.Logger
}

// NewSimEngine creates an engine in the Tracking state.
func NewSimEngine(logger *slog.Logger) *SimEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimEngine{
		anchors: make(map[string]*simAnchor),
		logger:  logger,
	}
}

// CreateAnchor implements Engine.
func (e *SimEngine) CreateAnchor(p pose.Pose) (Anchor, error) {
	if !p.IsValid() {
		return nil, ErrInvalidPose
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	a := &simAnchor{
		id:     uuid.NewString(),
		pose:   p,
		seq:    e.seq,
		engine: e,
	}
	e.anchors[a.id] = a
	e.logger.Debug("anchor created", "id", a.id, "pose", p.String())
	return a, nil
}

// SetState implements StateSetter. It moves the engine, and every
// attached anchor, to s.
func (e *SimEngine) SetState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// State returns the engine state.
func (e *SimEngine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Anchors returns the attached anchors in creation order.
func (e *SimEngine) Anchors() []Anchor {
	e.mu.RLock()
	list := make([]*simAnchor, 0, len(e.anchors))
	for _, a := range e.anchors {
		list = append(list, a)
	}
	e.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	out := make([]Anchor, len(list))
	for i, a := range list {
		out[i] = a
	}
	return out
}

// Count returns the number of attached anchors.
func (e *SimEngine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.anchors)
}

type simAnchor struct {
	id       string
	pose     pose.Pose
	seq      uint64
	detached bool
	engine   *SimEngine
}

func (a *simAnchor) ID() string      { return a.id }
func (a *simAnchor) Pose() pose.Pose { return a.pose }

func (a *simAnchor) TrackingState() State {
	a.engine.mu.RLock()
	defer a.engine.mu.RUnlock()
	if a.detached {
		return Stopped
	}
	return a.engine.state
}

func (a *simAnchor) Detach() {
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if a.detached {
		return
	}
	a.detached = true
	delete(e.anchors, a.id)
	e.logger.Debug("anchor detached", "id", a.id)
}

var _ StateSetter = (*SimEngine)(nil)
