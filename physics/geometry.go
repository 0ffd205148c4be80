// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// Shapes enumerates the collision geometry variants.
type Shapes int32

const (
	BoxShape Shapes = iota
	SphereShape
	CapsuleShape
	ConvexMeshShape
	PlaneShape
)

var shapeNames = [...]string{"box", "sphere", "capsule", "convex_mesh", "plane"}

func (s Shapes) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shapes(%d)", int32(s))
}

// Geometry is a collision geometry expressed in its own local frame.
// The variants are [Box], [Sphere], [Capsule], [ConvexMesh] and [Plane].
type Geometry interface {

	// Shape returns the variant.
	Shape() Shapes

	// Validate returns an [errors.ErrInvalidArgument] error
	// for degenerate dimensions.
	Validate() error

	// unitMass returns the volume, local center of mass and the
	// inertia about the center of mass for unit density.
	unitMass() (vol float64, com mgl64.Vec3, inertia mgl64.Mat3)

	// localBounds returns the local axis aligned bounds.
	localBounds() (lo, hi mgl64.Vec3)
}

// Box is a rectangular box centered at the origin.
type Box struct {

	// HalfSize is the half extent along each axis.
	HalfSize mgl64.Vec3

	cache     *Hull
	cacheSize mgl64.Vec3
}

func (bx *Box) Shape() Shapes { return BoxShape }

func (bx *Box) Validate() error {
	h := bx.HalfSize
	if !(h[0] > 0 && h[1] > 0 && h[2] > 0) || !finiteVec(h) {
		return fmt.Errorf("physics.Box: half size %v must be positive: %w", h, errors.ErrInvalidArgument)
	}
	return nil
}

func (bx *Box) unitMass() (float64, mgl64.Vec3, mgl64.Mat3) {
	h := bx.HalfSize
	vol := 8 * h[0] * h[1] * h[2]
	x2, y2, z2 := h[0]*h[0], h[1]*h[1], h[2]*h[2]
	return vol, mgl64.Vec3{}, mgl64.Diag3(mgl64.Vec3{y2 + z2, x2 + z2, x2 + y2}.Mul(vol / 3))
}

func (bx *Box) localBounds() (mgl64.Vec3, mgl64.Vec3) {
	return bx.HalfSize.Mul(-1), bx.HalfSize
}

// Sphere is a sphere centered at the origin.
type Sphere struct {
	Radius float64
}

func (sp *Sphere) Shape() Shapes { return SphereShape }

func (sp *Sphere) Validate() error {
	if !(sp.Radius > 0) || math.IsInf(sp.Radius, 0) {
		return fmt.Errorf("physics.Sphere: radius %g must be positive: %w", sp.Radius, errors.ErrInvalidArgument)
	}
	return nil
}

func (sp *Sphere) unitMass() (float64, mgl64.Vec3, mgl64.Mat3) {
	r := sp.Radius
	vol := 4.0 / 3.0 * math.Pi * r * r * r
	return vol, mgl64.Vec3{}, mgl64.Ident3().Mul(0.4 * vol * r * r)
}

func (sp *Sphere) localBounds() (mgl64.Vec3, mgl64.Vec3) {
	r := sp.Radius
	return mgl64.Vec3{-r, -r, -r}, mgl64.Vec3{r, r, r}
}

// Capsule is a cylinder capped with hemispheres, with its axis
// along the local x axis.
type Capsule struct {

	// Radius of the cylinder and the end caps.
	Radius float64

	// HalfLength is half the length of the cylindrical section.
	HalfLength float64
}

func (cp *Capsule) Shape() Shapes { return CapsuleShape }

func (cp *Capsule) Validate() error {
	if !(cp.Radius > 0) || !(cp.HalfLength >= 0) || math.IsInf(cp.Radius+cp.HalfLength, 0) {
		return fmt.Errorf("physics.Capsule: radius %g, half length %g: %w", cp.Radius, cp.HalfLength, errors.ErrInvalidArgument)
	}
	return nil
}

func (cp *Capsule) unitMass() (float64, mgl64.Vec3, mgl64.Mat3) {
	r, h := cp.Radius, cp.HalfLength
	mc := math.Pi * r * r * 2 * h
	ms := 4.0 / 3.0 * math.Pi * r * r * r
	ax := mc*r*r/2 + ms*2*r*r/5
	perp := mc*(r*r/4+h*h/3) + ms*(2*r*r/5+h*h+3*h*r/4)
	return mc + ms, mgl64.Vec3{}, mgl64.Diag3(mgl64.Vec3{ax, perp, perp})
}

func (cp *Capsule) localBounds() (mgl64.Vec3, mgl64.Vec3) {
	r, h := cp.Radius, cp.HalfLength
	return mgl64.Vec3{-h - r, -r, -r}, mgl64.Vec3{h + r, r, r}
}

// segment returns the local end points of the core segment.
func (cp *Capsule) segment() (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3{-cp.HalfLength, 0, 0}, mgl64.Vec3{cp.HalfLength, 0, 0}
}

// ConvexMesh is a convex polyhedron. The hull is supplied by the caller
// (typically a mesh loader), the kernel does not compute hulls.
type ConvexMesh struct {
	Hull *Hull
}

func (cm *ConvexMesh) Shape() Shapes { return ConvexMeshShape }

func (cm *ConvexMesh) Validate() error {
	if cm.Hull == nil {
		return fmt.Errorf("physics.ConvexMesh: nil hull: %w", errors.ErrInvalidArgument)
	}
	return nil
}

func (cm *ConvexMesh) unitMass() (float64, mgl64.Vec3, mgl64.Mat3) {
	return cm.Hull.volume, cm.Hull.com, cm.Hull.inertia
}

func (cm *ConvexMesh) localBounds() (mgl64.Vec3, mgl64.Vec3) {
	return cm.Hull.lo, cm.Hull.hi
}

// Plane is an infinite half space whose surface passes through the
// origin with outward normal along local +z. Planes can only be used
// on static bodies.
type Plane struct{}

func (pl *Plane) Shape() Shapes { return PlaneShape }

func (pl *Plane) Validate() error { return nil }

func (pl *Plane) unitMass() (float64, mgl64.Vec3, mgl64.Mat3) {
	return 0, mgl64.Vec3{}, mgl64.Mat3{}
}

func (pl *Plane) localBounds() (mgl64.Vec3, mgl64.Vec3) {
	const big = 1e30
	return mgl64.Vec3{-big, -big, -big}, mgl64.Vec3{big, big, 0}
}

func finiteVec(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
