package tracking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

func TestSimEngine_CreateAndDetach(t *testing.T) {
	e := NewSimEngine(log.Discard())

	a, err := e.CreateAnchor(pose.FromTranslation(1, 2, 3))
	require.NoError(t, err)
	b, err := e.CreateAnchor(pose.FromTranslation(0, 0, -2))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, e.Count())
	assert.Equal(t, Tracking, a.TrackingState())
	assert.Equal(t, 3.0, a.Pose().TZ())

	anchors := e.Anchors()
	require.Len(t, anchors, 2)
	assert.Equal(t, a.ID(), anchors[0].ID(), "anchors come back in creation order")

	a.Detach()
	a.Detach()
	assert.Equal(t, 1, e.Count())
	assert.Equal(t, Stopped, a.TrackingState())
	assert.Equal(t, Tracking, b.TrackingState())
}

func TestSimEngine_StateFollowsEngine(t *testing.T) {
	e := NewSimEngine(nil)
	a, err := e.CreateAnchor(pose.Identity())
	require.NoError(t, err)

	e.SetState(Paused)
	assert.Equal(t, Paused, e.State())
	assert.Equal(t, Paused, a.TrackingState())

	e.SetState(Tracking)
	assert.Equal(t, Tracking, a.TrackingState())
}

func TestSimEngine_RejectsInvalidPose(t *testing.T) {
	e := NewSimEngine(log.Discard())
	_, err := e.CreateAnchor(pose.FromTranslation(math.NaN(), 0, 0))
	assert.ErrorIs(t, err, ErrInvalidPose)
	assert.Zero(t, e.Count())
}

func TestState_Text(t *testing.T) {
	tests := []struct {
		in   string
		want State
	}{
		{"", Tracking},
		{"tracking", Tracking},
		{"PAUSED", Paused},
		{"stopped", Stopped},
	}
	for _, tt := range tests {
		var s State
		require.NoError(t, s.UnmarshalText([]byte(tt.in)), tt.in)
		assert.Equal(t, tt.want, s, tt.in)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("lost")))

	b, err := Paused.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "paused", string(b))
	assert.Equal(t, "State(7)", State(7).String())
}
