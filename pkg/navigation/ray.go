package navigation

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-sonicnav/pkg/pose"
)

// minRayLength is the horizontal origin to target distance below which the
// ray has no usable direction.
const minRayLength = 1e-9

// ProjectAlongRay returns a translation-only pose on the horizontal line
// from origin through target, |d| meters from origin, at target's height.
//
// The sign of d does not flip the direction: the point always lies on the
// origin→target side. When origin and target share a horizontal position
// the target translation is returned with ErrDegenerateRay.
func ProjectAlongRay(origin, target pose.Pose, d float64) (pose.Pose, error) {
	x1 := target.TX() - origin.TX()
	z1 := target.TZ() - origin.TZ()

	r := math.Hypot(x1, z1)
	if r < minRayLength || math.IsNaN(r) {
		return target.ExtractTranslation(), ErrDegenerateRay
	}

	scale := math.Abs(d) / r
	return pose.FromTranslation(
		origin.TX()+x1*scale,
		target.TY(),
		origin.TZ()+z1*scale,
	), nil
}

// PlanarDistance is the distance between a and b ignoring height.
func PlanarDistance(a, b r3.Vector) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}
