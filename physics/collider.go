// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// collider is a shape placed in the world for one step, with the
// world-space data that narrow phase needs cached.
type collider struct {
	shape *CollisionShape
	body  Body

	// index orders colliders: bodies by insertion, then articulation
	// links, each by shape order.
	index int

	pose   spatial.Pose
	lo, hi mgl64.Vec3

	// round shapes: core segment end points and radius
	a, b   mgl64.Vec3
	radius float64

	// hull shapes
	hull    *Hull
	verts   []mgl64.Vec3
	normals []mgl64.Vec3
	offsets []float64
	center  mgl64.Vec3

	// planes
	n mgl64.Vec3
	d float64
}

type colliderKind int

const (
	roundCollider colliderKind = iota
	hullCollider
	planeCollider
)

func (cl *collider) kind() colliderKind {
	switch cl.shape.Geometry.Shape() {
	case SphereShape, CapsuleShape:
		return roundCollider
	case PlaneShape:
		return planeCollider
	}
	return hullCollider
}

// newCollider places the shape at the body pose, expanding bounds by margin.
func newCollider(body Body, cs *CollisionShape, bodyPose spatial.Pose, margin float64) *collider {
	cl := &collider{shape: cs, body: body, pose: bodyPose.Mul(cs.Local)}
	switch g := cs.Geometry.(type) {
	case *Sphere:
		cl.a, cl.b, cl.radius = cl.pose.P, cl.pose.P, g.Radius
	case *Capsule:
		a, b := g.segment()
		cl.a, cl.b, cl.radius = cl.pose.Apply(a), cl.pose.Apply(b), g.Radius
	case *Box:
		cl.setHull(g.hull())
	case *ConvexMesh:
		cl.setHull(g.Hull)
	case *Plane:
		cl.n = cl.pose.Rotate(mgl64.Vec3{0, 0, 1})
		cl.d = cl.n.Dot(cl.pose.P)
		inf := math.Inf(1)
		cl.lo, cl.hi = mgl64.Vec3{-inf, -inf, -inf}, mgl64.Vec3{inf, inf, inf}
		return cl
	}
	if cl.hull == nil {
		r := mgl64.Vec3{cl.radius, cl.radius, cl.radius}
		cl.lo, cl.hi = vecMin(cl.a, cl.b).Sub(r), vecMax(cl.a, cl.b).Add(r)
	}
	m := mgl64.Vec3{margin, margin, margin}
	cl.lo, cl.hi = cl.lo.Sub(m), cl.hi.Add(m)
	return cl
}

func (cl *collider) setHull(hl *Hull) {
	cl.hull = hl
	cl.verts = make([]mgl64.Vec3, len(hl.Vertices))
	for i, v := range hl.Vertices {
		w := cl.pose.Apply(v)
		cl.verts[i] = w
		cl.center = cl.center.Add(w)
		if i == 0 {
			cl.lo, cl.hi = w, w
		} else {
			cl.lo, cl.hi = vecMin(cl.lo, w), vecMax(cl.hi, w)
		}
	}
	cl.center = cl.center.Mul(1 / float64(len(cl.verts)))
	cl.normals = make([]mgl64.Vec3, len(hl.Faces))
	cl.offsets = make([]float64, len(hl.Faces))
	for i, f := range hl.Faces {
		cl.normals[i] = cl.pose.Rotate(f.Normal)
		cl.offsets[i] = cl.normals[i].Dot(cl.verts[f.Verts[0]])
	}
}

// extent returns the min and max projection of the hull on axis.
func (cl *collider) extent(axis mgl64.Vec3) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range cl.verts {
		d := axis.Dot(v)
		lo, hi = min(lo, d), max(hi, d)
	}
	return
}

// overlaps reports whether the bounds overlap.
func (cl *collider) overlaps(o *collider) bool {
	for k := range 3 {
		if cl.lo[k] > o.hi[k] || o.lo[k] > cl.hi[k] {
			return false
		}
	}
	return true
}

// hull returns the cached hull of the box, rebuilding it if the size changed.
func (bx *Box) hull() *Hull {
	if bx.cache == nil || bx.cacheSize != bx.HalfSize {
		bx.cache = BoxHull(bx.HalfSize)
		bx.cacheSize = bx.HalfSize
	}
	return bx.cache
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}
