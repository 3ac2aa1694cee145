package navigation

import (
	"math"

	"github.com/golang/geo/r3"
)

// degenerateEpsilon is the squared horizontal length below which a
// camera-relative target vector has no usable direction.
const degenerateEpsilon = 1e-12

// Offset is the camera's relation to the target for one frame.
type Offset struct {
	// HeadingDegrees is the unsigned angle between the camera's forward
	// axis and the target, in [0, 360). 0 is dead ahead, 180 behind.
	HeadingDegrees float64 `json:"heading"`

	// PlanarDistance is the camera to target distance ignoring height.
	PlanarDistance float64 `json:"distance"`

	// Lateral is the target's x in camera space: positive right,
	// negative or zero left.
	Lateral float64 `json:"lateral"`
}

// Message formats the guidance instruction for o.
func (o Offset) Message() string {
	return Message(o.HeadingDegrees, o.Lateral)
}

// Heading returns the angle in degrees between camera forward (-Z) and
// the camera-space target vector v, ignoring height. When v has no
// horizontal extent the heading is 0 and ErrDegenerateHeading is returned.
func Heading(v r3.Vector) (float64, error) {
	sq := v.X*v.X + v.Z*v.Z
	if sq < degenerateEpsilon || math.IsNaN(sq) {
		return 0, ErrDegenerateHeading
	}

	c := -v.Z / math.Sqrt(sq)
	// Rounding can push |c| a hair past 1.
	c = math.Max(-1, math.Min(1, c))

	deg := math.Acos(c) * 180 / math.Pi
	return math.Mod(deg, 360), nil
}
