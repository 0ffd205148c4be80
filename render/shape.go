// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the geometry of a visual, in its local frame.
type Shape interface {

	// Validate returns an error for degenerate geometry.
	Validate() error

	// intersect returns the distance along the unit ray o + t d to the
	// first hit with t > tmin, and the outward normal there.
	intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool)

	// radius bounds the shape by a sphere about the local origin.
	radius() float64
}

// Box is an axis aligned box centered at the origin.
type Box struct {
	HalfSize mgl64.Vec3
}

// Sphere is centered at the origin.
type Sphere struct {
	Radius float64
}

// Capsule is a cylinder along the local x axis capped by half spheres.
type Capsule struct {
	Radius     float64
	HalfLength float64
}

// Plane is the infinite plane z = 0, visible from both sides.
type Plane struct{}

// Mesh is a triangle mesh. Its data must not change after the mesh
// is added to a scene.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles [][3]int

	bound float64
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

func (bx *Box) Validate() error {
	if !positive(bx.HalfSize[0]) || !positive(bx.HalfSize[1]) || !positive(bx.HalfSize[2]) {
		return fmt.Errorf("render.Box: half size %v: %w", bx.HalfSize, errors.ErrInvalidArgument)
	}
	return nil
}

func (bx *Box) radius() float64 { return bx.HalfSize.Len() }

// intersect uses the slab method.
func (bx *Box) intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	tn, tf := math.Inf(-1), math.Inf(1)
	var nn, nf mgl64.Vec3
	for i := range 3 {
		if d[i] == 0 {
			if math.Abs(o[i]) > bx.HalfSize[i] {
				return 0, nn, false
			}
			continue
		}
		t1 := (-bx.HalfSize[i] - o[i]) / d[i]
		t2 := (bx.HalfSize[i] - o[i]) / d[i]
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tn {
			tn = t1
			nn = mgl64.Vec3{}
			nn[i] = s
		}
		if t2 < tf {
			tf = t2
			nf = mgl64.Vec3{}
			nf[i] = -s
		}
	}
	switch {
	case tn > tf:
		return 0, nn, false
	case tn > tmin:
		return tn, nn, true
	case tf > tmin:
		return tf, nf, true
	}
	return 0, nn, false
}

func (sp *Sphere) Validate() error {
	if !positive(sp.Radius) {
		return fmt.Errorf("render.Sphere: radius %g: %w", sp.Radius, errors.ErrInvalidArgument)
	}
	return nil
}

func (sp *Sphere) radius() float64 { return sp.Radius }

func (sp *Sphere) intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	return sphereHit(mgl64.Vec3{}, sp.Radius, o, d, tmin)
}

// sphereHit intersects a unit ray with a sphere.
func sphereHit(c mgl64.Vec3, r float64, o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	oc := o.Sub(c)
	b := oc.Dot(d)
	disc := b*b - oc.Dot(oc) + r*r
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t <= tmin {
		t = -b + sq
	}
	if t <= tmin {
		return 0, mgl64.Vec3{}, false
	}
	return t, o.Add(d.Mul(t)).Sub(c).Mul(1 / r), true
}

func (cp *Capsule) Validate() error {
	if !positive(cp.Radius) || cp.HalfLength < 0 || math.IsInf(cp.HalfLength, 0) {
		return fmt.Errorf("render.Capsule: radius %g half length %g: %w", cp.Radius, cp.HalfLength, errors.ErrInvalidArgument)
	}
	return nil
}

func (cp *Capsule) radius() float64 { return cp.Radius + cp.HalfLength }

// intersect tests the cylinder around the x axis and both end spheres,
// keeping the closest hit.
func (cp *Capsule) intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	best := math.Inf(1)
	var bn mgl64.Vec3
	r, h := cp.Radius, cp.HalfLength
	a := d[1]*d[1] + d[2]*d[2]
	if a > 1e-12 {
		b := o[1]*d[1] + o[2]*d[2]
		c := o[1]*o[1] + o[2]*o[2] - r*r
		if disc := b*b - a*c; disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range [2]float64{(-b - sq) / a, (-b + sq) / a} {
				if t <= tmin || t >= best {
					continue
				}
				p := o.Add(d.Mul(t))
				if math.Abs(p[0]) <= h {
					best = t
					bn = mgl64.Vec3{0, p[1], p[2]}.Mul(1 / r)
				}
			}
		}
	}
	for _, x := range [2]float64{-h, h} {
		if t, n, ok := sphereHit(mgl64.Vec3{x, 0, 0}, r, o, d, tmin); ok && t < best {
			best, bn = t, n
		}
	}
	return best, bn, !math.IsInf(best, 1)
}

func (pl *Plane) Validate() error { return nil }

func (pl *Plane) radius() float64 { return math.Inf(1) }

func (pl *Plane) intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	if d[2] == 0 {
		return 0, mgl64.Vec3{}, false
	}
	t := -o[2] / d[2]
	if t <= tmin {
		return 0, mgl64.Vec3{}, false
	}
	n := mgl64.Vec3{0, 0, 1}
	if d[2] > 0 {
		n[2] = -1
	}
	return t, n, true
}

// NewMesh returns a validated mesh.
func NewMesh(vertices []mgl64.Vec3, triangles [][3]int) (*Mesh, error) {
	ms := &Mesh{Vertices: vertices, Triangles: triangles}
	if err := ms.Validate(); err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *Mesh) Validate() error {
	if len(ms.Triangles) == 0 {
		return fmt.Errorf("render.Mesh: no triangles: %w", errors.ErrInvalidArgument)
	}
	ms.bound = 0
	for _, tri := range ms.Triangles {
		for _, i := range tri {
			if i < 0 || i >= len(ms.Vertices) {
				return fmt.Errorf("render.Mesh: vertex index %d out of range: %w", i, errors.ErrInvalidArgument)
			}
			ms.bound = max(ms.bound, ms.Vertices[i].Len())
		}
	}
	return nil
}

func (ms *Mesh) radius() float64 { return ms.bound }

// intersect uses the Möller-Trumbore test on every triangle; the normal
// faces the ray.
func (ms *Mesh) intersect(o, d mgl64.Vec3, tmin float64) (float64, mgl64.Vec3, bool) {
	best := math.Inf(1)
	var bn mgl64.Vec3
	for _, tri := range ms.Triangles {
		v0, v1, v2 := ms.Vertices[tri[0]], ms.Vertices[tri[1]], ms.Vertices[tri[2]]
		e1, e2 := v1.Sub(v0), v2.Sub(v0)
		p := d.Cross(e2)
		det := e1.Dot(p)
		if math.Abs(det) < 1e-12 {
			continue
		}
		inv := 1 / det
		s := o.Sub(v0)
		u := s.Dot(p) * inv
		if u < 0 || u > 1 {
			continue
		}
		q := s.Cross(e1)
		v := d.Dot(q) * inv
		if v < 0 || u+v > 1 {
			continue
		}
		t := e2.Dot(q) * inv
		if t <= tmin || t >= best {
			continue
		}
		best = t
		bn = e1.Cross(e2).Normalize()
		if bn.Dot(d) > 0 {
			bn = bn.Mul(-1)
		}
	}
	return best, bn, !math.IsInf(best, 1)
}
