package synth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-sonicnav/pkg/audioio"
)

// Tuning is applied once to both voices of a rig.
type Tuning struct {
	Envelope EnvelopeConfig
	RampTime time.Duration
}

// StereoRig is a running synthesizer with one voice per stereo channel.
type StereoRig struct {
	Synth *Synthesizer
	Left  *SineVoice
	Right *SineVoice
}

// NewStereoRig builds a stereo synthesizer writing to sink, tunes its two
// voices and starts rendering. The rig owns sink and closes it on Close.
func NewStereoRig(ctx context.Context, cfg audioio.Config, sink audioio.Sink, tuning Tuning, logger *slog.Logger) (*StereoRig, error) {
	if cfg.Channels != 2 {
		return nil, errors.New("synth: stereo rig needs 2 channels")
	}
	if err := tuning.Envelope.Validate(); err != nil {
		return nil, err
	}

	s, err := New(cfg, sink, logger)
	if err != nil {
		return nil, err
	}

	r := &StereoRig{
		Synth: s,
		Left:  NewSineVoice(cfg.SampleRate),
		Right: NewSineVoice(cfg.SampleRate),
	}
	for ch, v := range []*SineVoice{r.Left, r.Right} {
		v.SetEnvelope(tuning.Envelope)
		v.SetRampTime(tuning.RampTime)
		if err := s.Add(v, ch); err != nil {
			return nil, err
		}
	}

	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Close stops the line-out and the render loop, then closes the sink.
func (r *StereoRig) Close() error {
	return errors.Join(
		r.Synth.LineOut().Stop(),
		r.Synth.Stop(),
		r.Synth.LineOut().Sink().Close(),
	)
}
