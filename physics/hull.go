// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// HullFace is one planar face of a [Hull].
type HullFace struct {

	// Verts are indices into the hull vertices, counter-clockwise
	// when seen from outside.
	Verts []int

	// Normal is the unit outward normal.
	Normal mgl64.Vec3

	// Offset is the plane offset: Normal·x = Offset on the face.
	Offset float64
}

// Hull is a convex polyhedron in local coordinates.
type Hull struct {
	Vertices []mgl64.Vec3
	Faces    []HullFace

	// Edges are the unique vertex index pairs of the face boundaries.
	Edges [][2]int

	volume  float64
	com     mgl64.Vec3
	inertia mgl64.Mat3
	lo, hi  mgl64.Vec3
}

// NewHull builds a hull from vertices and polygonal faces given as
// vertex index cycles. Face winding is corrected to point outward.
// It returns an [errors.ErrInvalidArgument] error when the input is
// not a closed convex polyhedron of positive volume.
func NewHull(vertices []mgl64.Vec3, faces [][]int) (*Hull, error) {
	if len(vertices) < 4 || len(faces) < 4 {
		return nil, fmt.Errorf("physics.NewHull: need at least 4 vertices and 4 faces, got %d and %d: %w", len(vertices), len(faces), errors.ErrInvalidArgument)
	}
	hl := &Hull{Vertices: append([]mgl64.Vec3(nil), vertices...)}
	var center mgl64.Vec3
	for i, v := range vertices {
		if !finiteVec(v) {
			return nil, fmt.Errorf("physics.NewHull: vertex %d is not finite: %w", i, errors.ErrInvalidArgument)
		}
		center = center.Add(v)
	}
	center = center.Mul(1 / float64(len(vertices)))
	hl.lo, hl.hi = vertices[0], vertices[0]
	for _, v := range vertices {
		for k := range 3 {
			hl.lo[k] = min(hl.lo[k], v[k])
			hl.hi[k] = max(hl.hi[k], v[k])
		}
	}
	scale := hl.hi.Sub(hl.lo).Len()
	eps := 1e-6 * scale

	edges := map[[2]int]bool{}
	for fi, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("physics.NewHull: face %d has %d vertices: %w", fi, len(f), errors.ErrInvalidArgument)
		}
		var n, fc mgl64.Vec3
		for i, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("physics.NewHull: face %d index %d out of range: %w", fi, vi, errors.ErrInvalidArgument)
			}
			a, b := vertices[vi], vertices[f[(i+1)%len(f)]]
			n = n.Add(mgl64.Vec3{(a[1] - b[1]) * (a[2] + b[2]), (a[2] - b[2]) * (a[0] + b[0]), (a[0] - b[0]) * (a[1] + b[1])})
			fc = fc.Add(a)
		}
		if n.Len() < 1e-12*scale*scale {
			return nil, fmt.Errorf("physics.NewHull: face %d is degenerate: %w", fi, errors.ErrInvalidArgument)
		}
		n = n.Normalize()
		fc = fc.Mul(1 / float64(len(f)))
		verts := append([]int(nil), f...)
		if n.Dot(fc.Sub(center)) < 0 {
			n = n.Mul(-1)
			for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
				verts[i], verts[j] = verts[j], verts[i]
			}
		}
		face := HullFace{Verts: verts, Normal: n, Offset: n.Dot(fc)}
		for i, v := range vertices {
			if n.Dot(v)-face.Offset > eps {
				return nil, fmt.Errorf("physics.NewHull: vertex %d lies outside face %d, hull is not convex: %w", i, fi, errors.ErrInvalidArgument)
			}
		}
		for i, vi := range verts {
			e := [2]int{vi, verts[(i+1)%len(verts)]}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			if !edges[e] {
				edges[e] = true
				hl.Edges = append(hl.Edges, e)
			}
		}
		hl.Faces = append(hl.Faces, face)
	}
	hl.computeMass(center)
	if !(hl.volume > 0) {
		return nil, fmt.Errorf("physics.NewHull: zero volume: %w", errors.ErrInvalidArgument)
	}
	return hl, nil
}

// BoxHull returns the hull of a box with the given half extents.
func BoxHull(half mgl64.Vec3) *Hull {
	verts := make([]mgl64.Vec3, 8)
	for i := range verts {
		for k := range 3 {
			if i&(1<<k) != 0 {
				verts[i][k] = half[k]
			} else {
				verts[i][k] = -half[k]
			}
		}
	}
	faces := [][]int{
		{0, 2, 6, 4}, {1, 3, 7, 5},
		{0, 1, 5, 4}, {2, 3, 7, 6},
		{0, 1, 3, 2}, {4, 5, 7, 6},
	}
	return errors.Must1(NewHull(verts, faces))
}

// computeMass integrates volume, center of mass and unit-density
// inertia over tetrahedra fanned from the reference point.
func (hl *Hull) computeMass(ref mgl64.Vec3) {
	canon := mgl64.Mat3{2, 1, 1, 1, 2, 1, 1, 1, 2}.Mul(1.0 / 120.0)
	var cov mgl64.Mat3
	var vol float64
	var mom mgl64.Vec3
	for _, f := range hl.Faces {
		a := hl.Vertices[f.Verts[0]].Sub(ref)
		for i := 1; i+1 < len(f.Verts); i++ {
			b := hl.Vertices[f.Verts[i]].Sub(ref)
			c := hl.Vertices[f.Verts[i+1]].Sub(ref)
			det := a.Dot(b.Cross(c))
			am := mgl64.Mat3FromCols(a, b, c)
			cov = cov.Add(am.Mul3(canon).Mul3(am.Transpose()).Mul(det))
			vol += det / 6
			mom = mom.Add(a.Add(b).Add(c).Mul(det / 24))
		}
	}
	hl.volume = vol
	if vol <= 0 {
		return
	}
	d := mom.Mul(1 / vol)
	cov = cov.Sub(d.OuterProd3(d).Mul(vol))
	hl.com = ref.Add(d)
	hl.inertia = mgl64.Ident3().Mul(cov.Trace()).Sub(cov)
}

// support returns the vertex furthest along dir.
func (hl *Hull) support(dir mgl64.Vec3) mgl64.Vec3 {
	best, bd := hl.Vertices[0], math.Inf(-1)
	for _, v := range hl.Vertices {
		if d := v.Dot(dir); d > bd {
			best, bd = v, d
		}
	}
	return best
}

// Volume returns the enclosed volume.
func (hl *Hull) Volume() float64 { return hl.volume }
