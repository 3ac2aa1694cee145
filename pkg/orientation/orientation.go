// Package orientation removes device roll from a camera pose so the
// remaining rotation reflects only where a portrait-held camera points.
package orientation

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/teslashibe/go-sonicnav/pkg/pose"
	"gonum.org/v1/gonum/num/quat"
)

// GimbalLockThreshold bounds qx*qy + qz*qw. Beyond it the twist angle is
// at ±90° and cannot be separated from the other Euler components.
const GimbalLockThreshold = 0.499

// Result describes what Normalize did.
type Result struct {
	// Twist is the rotation about the camera's local Z axis that was
	// removed, in radians. Zero when GimbalLock is set.
	Twist float64

	// GimbalLock is set when the pose was returned uncorrected.
	GimbalLock bool
}

// Twist extracts the rotation about local Z from a unit quaternion.
// locked reports the gimbal-lock band, in which twist is 0.
func Twist(q quat.Number) (twist float64, locked bool) {
	qx, qy, qz, qw := q.Imag, q.Jmag, q.Kmag, q.Real

	lock := qx*qy + qz*qw
	if lock > GimbalLockThreshold || lock < -GimbalLockThreshold {
		return 0, true
	}
	return math.Asin(2 * lock), false
}

// FromEuler builds a quaternion from rotations about X, Y and Z (radians)
// using the aerospace roll/pitch/yaw composition.
func FromEuler(x, y, z float64) quat.Number {
	cr, sr := math.Cos(x*0.5), math.Sin(x*0.5)
	cp, sp := math.Cos(y*0.5), math.Sin(y*0.5)
	cy, sy := math.Cos(z*0.5), math.Sin(z*0.5)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// Normalizer strips twist from camera poses.
type Normalizer struct {
	logger *slog.Logger
	locked atomic.Bool
}

// NewNormalizer creates a Normalizer. A nil logger uses slog.Default().
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns p with its twist removed. Translation is unchanged.
// Only the twist axis is corrected; the other two Euler components are
// left as they were. In the gimbal-lock band p is returned as is; the
// warning is logged once per entry into the band.
func (n *Normalizer) Normalize(p pose.Pose) (pose.Pose, Result) {
	twist, locked := Twist(p.Rotation())
	wasLocked := n.locked.Swap(locked)
	if locked {
		if wasLocked {
			n.logger.Debug("gimbal lock, camera twist not removed", "pose", p.String())
		} else {
			n.logger.Warn("gimbal lock, camera twist not removed", "pose", p.String())
		}
		return p, Result{GimbalLock: true}
	}

	correction := FromEuler(0, 0, -twist)
	out := p.Compose(pose.FromRotation(correction.Imag, correction.Jmag, correction.Kmag, correction.Real))
	return out, Result{Twist: twist}
}
