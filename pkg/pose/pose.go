// Package pose provides the rigid 3D transform used throughout sonicnav.
//
// A Pose is a unit rotation quaternion plus a translation. Poses are values:
// every operation returns a new Pose and never mutates its receiver.
//
// Coordinates follow the tracking engine convention: +Y is up, the camera
// looks down its local -Z axis, and +X is to the camera's right.
package pose

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is an immutable rigid transform (rotation followed by translation).
type Pose struct {
	rot quat.Number
	t   r3.Vector
}

// Identity returns the pose with no rotation and no translation.
func Identity() Pose {
	return Pose{rot: quat.Number{Real: 1}}
}

// New returns a pose with the given translation and rotation.
// The rotation is normalized; a zero quaternion is treated as identity.
func New(t r3.Vector, q quat.Number) Pose {
	return Pose{rot: normalize(q), t: t}
}

// FromTranslation returns a translation-only pose.
func FromTranslation(x, y, z float64) Pose {
	return Pose{rot: quat.Number{Real: 1}, t: r3.Vector{X: x, Y: y, Z: z}}
}

// FromRotation returns a rotation-only pose from quaternion components
// in (x, y, z, w) order.
func FromRotation(qx, qy, qz, qw float64) Pose {
	return Pose{rot: normalize(quat.Number{Real: qw, Imag: qx, Jmag: qy, Kmag: qz})}
}

// FromAxisAngle returns a rotation-only pose rotating by angle radians
// about axis (right-hand rule). A zero axis yields the identity.
func FromAxisAngle(axis r3.Vector, angle float64) Pose {
	if axis.Norm2() == 0 {
		return Identity()
	}
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Pose{rot: quat.Number{
		Real: math.Cos(angle / 2),
		Imag: a.X * s,
		Jmag: a.Y * s,
		Kmag: a.Z * s,
	}}
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return quat.Number{Real: 1}
	}
	if n == 1 {
		return q
	}
	return quat.Scale(1/n, q)
}

// Translation returns the translation component.
func (p Pose) Translation() r3.Vector {
	return p.t
}

// Rotation returns the unit rotation quaternion.
func (p Pose) Rotation() quat.Number {
	if p.rot == (quat.Number{}) {
		return quat.Number{Real: 1}
	}
	return p.rot
}

// Quaternion returns the rotation components in (x, y, z, w) order.
func (p Pose) Quaternion() (qx, qy, qz, qw float64) {
	r := p.Rotation()
	return r.Imag, r.Jmag, r.Kmag, r.Real
}

// TX returns the X translation.
func (p Pose) TX() float64 { return p.t.X }

// TY returns the Y translation.
func (p Pose) TY() float64 { return p.t.Y }

// TZ returns the Z translation.
func (p Pose) TZ() float64 { return p.t.Z }

// Compose returns p ∘ o: the transform that applies o first, then p.
// Composing with a translation moves along p's local axes.
func (p Pose) Compose(o Pose) Pose {
	return Pose{
		rot: normalize(quat.Mul(p.Rotation(), o.Rotation())),
		t:   p.t.Add(rotate(p.Rotation(), o.t)),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := quat.Conj(p.Rotation())
	return Pose{rot: inv, t: rotate(inv, p.t).Mul(-1)}
}

// TransformPoint maps a point in p's local space into the space p is
// defined in.
func (p Pose) TransformPoint(v r3.Vector) r3.Vector {
	return rotate(p.Rotation(), v).Add(p.t)
}

// RotateVector rotates v by p's rotation, ignoring translation.
func (p Pose) RotateVector(v r3.Vector) r3.Vector {
	return rotate(p.Rotation(), v)
}

// ExtractTranslation returns a pose with p's translation and no rotation.
func (p Pose) ExtractTranslation() Pose {
	return Pose{rot: quat.Number{Real: 1}, t: p.t}
}

// AlmostEqual reports whether p and o describe the same transform within
// tol. q and -q are treated as the same rotation.
func (p Pose) AlmostEqual(o Pose, tol float64) bool {
	if p.t.Sub(o.t).Norm() > tol {
		return false
	}
	a, b := p.Rotation(), o.Rotation()
	d1 := quat.Abs(quat.Sub(a, b))
	d2 := quat.Abs(quat.Add(a, b))
	return math.Min(d1, d2) <= tol
}

// IsValid reports whether every component is finite.
func (p Pose) IsValid() bool {
	for _, f := range []float64{p.t.X, p.t.Y, p.t.Z, p.rot.Real, p.rot.Imag, p.rot.Jmag, p.rot.Kmag} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (p Pose) String() string {
	qx, qy, qz, qw := p.Quaternion()
	return fmt.Sprintf("t:[%.3f, %.3f, %.3f] q:[%.3f, %.3f, %.3f, %.3f]",
		p.t.X, p.t.Y, p.t.Z, qx, qy, qz, qw)
}

// rotate applies the rotation q to v (q·v·q*).
func rotate(q quat.Number, v r3.Vector) r3.Vector {
	pp := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: pp.Imag, Y: pp.Jmag, Z: pp.Kmag}
}

type jsonPose struct {
	T [3]float64 `json:"t"`
	Q [4]float64 `json:"q"`
}

// MarshalJSON encodes the pose as {"t":[x,y,z],"q":[x,y,z,w]}.
func (p Pose) MarshalJSON() ([]byte, error) {
	qx, qy, qz, qw := p.Quaternion()
	return json.Marshal(jsonPose{
		T: [3]float64{p.t.X, p.t.Y, p.t.Z},
		Q: [4]float64{qx, qy, qz, qw},
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON. A missing or zero
// quaternion decodes as identity.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var jp jsonPose
	if err := json.Unmarshal(data, &jp); err != nil {
		return fmt.Errorf("pose: %w", err)
	}
	*p = New(
		r3.Vector{X: jp.T[0], Y: jp.T[1], Z: jp.T[2]},
		quat.Number{Real: jp.Q[3], Imag: jp.Q[0], Jmag: jp.Q[1], Kmag: jp.Q[2]},
	)
	return nil
}
