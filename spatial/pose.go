// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spatial provides rigid transforms (poses) and the
// world-frame spatial vector algebra used by the physics engine.
package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: a position and a unit quaternion rotation.
// The quaternion is scalar-first: W is the scalar part.
// A Pose maps points from its local frame into the parent frame:
// x_parent = Q * x_local + P.
type Pose struct {

	// P is the position (translation).
	P mgl64.Vec3

	// Q is the rotation, a unit quaternion.
	Q mgl64.Quat
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Q: mgl64.QuatIdent()}
}

// NewPose returns a pose with the given position and rotation.
// A rotation that is already unit length is stored unchanged;
// otherwise it is normalized. A zero quaternion becomes identity.
func NewPose(p mgl64.Vec3, q mgl64.Quat) Pose {
	return Pose{P: p, Q: q.Normalize()}
}

// At returns a pose at the given position with identity rotation.
func At(x, y, z float64) Pose {
	return Pose{P: mgl64.Vec3{x, y, z}, Q: mgl64.QuatIdent()}
}

// PoseFromArray decodes the 7-real encoding [px py pz qw qx qy qz].
func PoseFromArray(a [7]float64) Pose {
	return NewPose(mgl64.Vec3{a[0], a[1], a[2]}, mgl64.Quat{W: a[3], V: mgl64.Vec3{a[4], a[5], a[6]}})
}

// Array returns the 7-real encoding [px py pz qw qx qy qz].
func (ps Pose) Array() [7]float64 {
	return [7]float64{ps.P[0], ps.P[1], ps.P[2], ps.Q.W, ps.Q.V[0], ps.Q.V[1], ps.Q.V[2]}
}

// Mul returns the composition ps * o: o is expressed in the frame
// of ps, and the result maps o-local points into the parent of ps.
// The resulting quaternion is re-normalized.
func (ps Pose) Mul(o Pose) Pose {
	return Pose{
		P: ps.P.Add(ps.Q.Rotate(o.P)),
		Q: ps.Q.Mul(o.Q).Normalize(),
	}
}

// Inv returns the inverse transform.
func (ps Pose) Inv() Pose {
	qi := ps.Q.Conjugate()
	return Pose{P: qi.Rotate(ps.P).Mul(-1), Q: qi}
}

// Apply transforms a point from local into parent coordinates.
func (ps Pose) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return ps.Q.Rotate(v).Add(ps.P)
}

// Rotate rotates a direction from local into parent coordinates.
func (ps Pose) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return ps.Q.Rotate(v)
}

// Rot returns the rotation matrix.
func (ps Pose) Rot() mgl64.Mat3 {
	return ps.Q.Mat4().Mat3()
}

// Mat4 returns the homogeneous 4x4 transform matrix.
func (ps Pose) Mat4() mgl64.Mat4 {
	m := ps.Q.Mat4()
	m.SetCol(3, ps.P.Vec4(1))
	return m
}

// PoseFromMat4 extracts the rigid transform of a homogeneous matrix.
// Any scale or shear in the upper 3x3 block is discarded.
func PoseFromMat4(m mgl64.Mat4) Pose {
	return NewPose(m.Col(3).Vec3(), mgl64.Mat4ToQuat(m))
}

// IsFinite returns whether all components are finite.
func (ps Pose) IsFinite() bool {
	for _, v := range ps.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ApproxEqual returns whether two poses are within tol in every position
// and quaternion component (q and -q are equal).
func (ps Pose) ApproxEqual(o Pose, tol float64) bool {
	eq := Near(tol)
	if !ps.P.ApproxFuncEqual(o.P, eq) {
		return false
	}
	return ps.Q.ApproxEqualFunc(o.Q, eq) || ps.Q.ApproxEqualFunc(o.Q.Scale(-1), eq)
}

// Near returns a comparator with absolute tolerance tol, for use with
// the ApproxFuncEqual methods of mgl64 types. Unlike their relative
// thresholds it does not tighten to tol*tol when one side is zero.
func Near(tol float64) func(a, b float64) bool {
	return func(a, b float64) bool { return math.Abs(a-b) <= tol }
}

func (ps Pose) String() string {
	return fmt.Sprintf("Pose([%g, %g, %g], [%g, %g, %g, %g])", ps.P[0], ps.P[1], ps.P[2], ps.Q.W, ps.Q.V[0], ps.Q.V[1], ps.Q.V[2])
}

// AxisAngle returns the rotation of angle radians about the given axis.
func AxisAngle(axis mgl64.Vec3, angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, axis.Normalize())
}

// IntegrateRotation advances q by the angular velocity w over dt
// using the exponential map, returning a unit quaternion.
func IntegrateRotation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	angle := w.Len() * dt
	if angle < 1e-12 {
		return q
	}
	dq := mgl64.QuatRotate(angle, w.Mul(1/w.Len()))
	return dq.Mul(q).Normalize()
}
