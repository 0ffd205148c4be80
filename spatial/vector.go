// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spatial

import "github.com/go-gl/mathgl/mgl64"

// Motion is a spatial motion vector (twist) in Plücker coordinates,
// expressed in the world frame at the world origin:
// W is the angular velocity and V the linear velocity of the body-fixed
// point that currently coincides with the origin.
type Motion struct {
	W mgl64.Vec3
	V mgl64.Vec3
}

// Force is a spatial force vector (wrench) in Plücker coordinates at
// the world origin: N is the moment about the origin and F the force.
type Force struct {
	N mgl64.Vec3
	F mgl64.Vec3
}

// Add returns m + o.
func (m Motion) Add(o Motion) Motion {
	return Motion{W: m.W.Add(o.W), V: m.V.Add(o.V)}
}

// Scale returns m * s.
func (m Motion) Scale(s float64) Motion {
	return Motion{W: m.W.Mul(s), V: m.V.Mul(s)}
}

// PointVelocity returns the linear velocity of the world point p.
func (m Motion) PointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	return m.V.Add(m.W.Cross(p))
}

// Cross returns the motion cross product m ×ₘ o.
func (m Motion) Cross(o Motion) Motion {
	return Motion{
		W: m.W.Cross(o.W),
		V: m.W.Cross(o.V).Add(m.V.Cross(o.W)),
	}
}

// CrossForce returns the force cross product m ×* f.
func (m Motion) CrossForce(f Force) Force {
	return Force{
		N: m.W.Cross(f.N).Add(m.V.Cross(f.F)),
		F: m.W.Cross(f.F),
	}
}

// Dot returns the power m · f.
func (m Motion) Dot(f Force) float64 {
	return m.W.Dot(f.N) + m.V.Dot(f.F)
}

// Array returns the components in [W V] order.
func (m Motion) Array() [6]float64 {
	return [6]float64{m.W[0], m.W[1], m.W[2], m.V[0], m.V[1], m.V[2]}
}

// MotionFromArray is the inverse of [Motion.Array].
func MotionFromArray(a []float64) Motion {
	return Motion{W: mgl64.Vec3{a[0], a[1], a[2]}, V: mgl64.Vec3{a[3], a[4], a[5]}}
}

// Add returns f + o.
func (f Force) Add(o Force) Force {
	return Force{N: f.N.Add(o.N), F: f.F.Add(o.F)}
}

// Sub returns f - o.
func (f Force) Sub(o Force) Force {
	return Force{N: f.N.Sub(o.N), F: f.F.Sub(o.F)}
}

// Array returns the components in [N F] order, pairing with [Motion.Array].
func (f Force) Array() [6]float64 {
	return [6]float64{f.N[0], f.N[1], f.N[2], f.F[0], f.F[1], f.F[2]}
}

// ForceAt returns the wrench of a pure force f applied at world point p.
func ForceAt(f, p mgl64.Vec3) Force {
	return Force{N: p.Cross(f), F: f}
}

// Inertia is a rigid-body spatial inertia about the world origin.
type Inertia struct {

	// M is the mass.
	M float64

	// H is the first mass moment m*c, with c the world center of mass.
	H mgl64.Vec3

	// I is the rotational inertia about the world origin.
	I mgl64.Mat3
}

// NewInertia returns the spatial inertia of a body with the given mass,
// world center of mass, and world-aligned rotational inertia about
// the center of mass.
func NewInertia(mass float64, com mgl64.Vec3, icom mgl64.Mat3) Inertia {
	return Inertia{
		M: mass,
		H: com.Mul(mass),
		I: icom.Add(ShiftInertia(mass, com)),
	}
}

// ShiftInertia returns the parallel-axis term m (|d|² 1 - d dᵀ).
func ShiftInertia(mass float64, d mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Ident3().Mul(d.LenSqr()).Sub(d.OuterProd3(d)).Mul(mass)
}

// Add returns the combined inertia of two bodies.
func (in Inertia) Add(o Inertia) Inertia {
	return Inertia{M: in.M + o.M, H: in.H.Add(o.H), I: in.I.Add(o.I)}
}

// MulMotion returns the momentum in·m.
func (in Inertia) MulMotion(m Motion) Force {
	return Force{
		N: in.I.Mul3x1(m.W).Add(in.H.Cross(m.V)),
		F: m.V.Mul(in.M).Sub(in.H.Cross(m.W)),
	}
}

// RotateInertia returns R I Rᵀ.
func RotateInertia(r, i mgl64.Mat3) mgl64.Mat3 {
	return r.Mul3(i).Mul3(r.Transpose())
}
