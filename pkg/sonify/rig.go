package sonify

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/audioio"
	"github.com/teslashibe/go-sonicnav/pkg/synth"
)

// VoiceTuning holds the note open indefinitely so each frame's note-on
// only moves pitch and level; the 200 ms ramp smooths level changes.
func VoiceTuning() synth.Tuning {
	return synth.Tuning{
		Envelope: synth.EnvelopeConfig{
			Delay:   0.01,
			Attack:  0.01,
			Hold:    1000,
			Decay:   0.01,
			Sustain: 1.0,
			Release: 0.01,
		},
		RampTime: 200 * time.Millisecond,
	}
}

// SynthRigFactory builds rigs on the in-process synthesizer, writing to a
// sink created from cfg. The render loop stops when ctx is done or the rig
// is closed.
func SynthRigFactory(ctx context.Context, cfg audioio.Config, logger *slog.Logger) RigFactory {
	return func() (*Rig, error) {
		sink, err := audioio.NewSink(cfg, logger)
		if err != nil {
			return nil, err
		}
		r, err := synth.NewStereoRig(ctx, cfg, sink, VoiceTuning(), logger)
		if err != nil {
			sink.Close()
			return nil, err
		}
		if err := r.Synth.SetPan(cfg.Pan); err != nil {
			r.Close()
			return nil, err
		}
		return &Rig{
			Clock:  r.Synth,
			Left:   r.Left,
			Right:  r.Right,
			Output: r.Synth.LineOut(),
			Closer: r,
		}, nil
	}
}
