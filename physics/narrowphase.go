// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// manifoldPoint is a narrow phase result. The normal points from the
// second collider toward the first.
type manifoldPoint struct {
	pos    mgl64.Vec3
	normal mgl64.Vec3
	sep    float64
}

// maxManifold is the number of points kept per shape pair.
const maxManifold = 4

// collide returns the contact points between a and b whose separation
// does not exceed margin.
func collide(a, b *collider, margin float64) []manifoldPoint {
	ka, kb := a.kind(), b.kind()
	if ka > kb {
		return flip(collide(b, a, margin))
	}
	var pts []manifoldPoint
	switch {
	case ka == roundCollider && kb == roundCollider:
		pts = collideRounds(a, b, margin)
	case ka == roundCollider && kb == hullCollider:
		pts = collideRoundHull(a, b, margin)
	case ka == roundCollider && kb == planeCollider:
		pts = collideRoundPlane(a, b, margin)
	case ka == hullCollider && kb == hullCollider:
		pts = collideHulls(a, b, margin)
	case ka == hullCollider && kb == planeCollider:
		pts = collideHullPlane(a, b, margin)
	}
	return reduceManifold(pts)
}

func flip(pts []manifoldPoint) []manifoldPoint {
	for i := range pts {
		pts[i].normal = pts[i].normal.Mul(-1)
	}
	return pts
}

// surfacePoint builds a contact from the center pa of a round shape of
// radius ra and a point pb on (or inside) b, with the normal from b to a.
func roundContact(pa mgl64.Vec3, ra float64, pb mgl64.Vec3, rb float64, fallback mgl64.Vec3, margin float64) (manifoldPoint, bool) {
	d := pa.Sub(pb)
	dist := d.Len()
	n := fallback
	if dist > 1e-9 {
		n = d.Mul(1 / dist)
	}
	sep := dist - ra - rb
	if sep > margin {
		return manifoldPoint{}, false
	}
	sa := pa.Sub(n.Mul(ra))
	sb := pb.Add(n.Mul(rb))
	return manifoldPoint{pos: sa.Add(sb).Mul(0.5), normal: n, sep: sep}, true
}

func collideRounds(a, b *collider, margin float64) []manifoldPoint {
	da, db := a.b.Sub(a.a), b.b.Sub(b.a)
	la, lb := da.LenSqr(), db.LenSqr()
	var pts []manifoldPoint
	if la > 1e-12 && lb > 1e-12 && da.Cross(db).LenSqr() < 1e-6*la*lb {
		// parallel capsules: contact at both ends of the overlap
		t0 := b.a.Sub(a.a).Dot(da) / la
		t1 := b.b.Sub(a.a).Dot(da) / la
		lo, hi := max(0, min(t0, t1)), min(1, max(t0, t1))
		if hi-lo > 1e-6 {
			for _, t := range []float64{lo, hi} {
				pa := a.a.Add(da.Mul(t))
				_, pb := closestOnSegment(pa, b.a, b.b)
				if mp, ok := roundContact(pa, a.radius, pb, b.radius, perpendicular(da), margin); ok {
					pts = append(pts, mp)
				}
			}
			return pts
		}
	}
	pa, pb := closestSegments(a.a, a.b, b.a, b.b)
	if mp, ok := roundContact(pa, a.radius, pb, b.radius, mgl64.Vec3{0, 0, 1}, margin); ok {
		pts = append(pts, mp)
	}
	return pts
}

func collideRoundPlane(a, b *collider, margin float64) []manifoldPoint {
	var pts []manifoldPoint
	ends := []mgl64.Vec3{a.a}
	if a.b != a.a {
		ends = append(ends, a.b)
	}
	for _, e := range ends {
		s := b.n.Dot(e) - b.d
		sep := s - a.radius
		if sep > margin {
			continue
		}
		pts = append(pts, manifoldPoint{pos: e.Sub(b.n.Mul(a.radius + sep/2)), normal: b.n, sep: sep})
	}
	return pts
}

func collideHullPlane(a, b *collider, margin float64) []manifoldPoint {
	var pts []manifoldPoint
	for _, v := range a.verts {
		sep := b.n.Dot(v) - b.d
		if sep > margin {
			continue
		}
		pts = append(pts, manifoldPoint{pos: v.Sub(b.n.Mul(sep / 2)), normal: b.n, sep: sep})
	}
	return pts
}

// collideRoundHull handles spheres and capsules against hulls.
func collideRoundHull(a, b *collider, margin float64) []manifoldPoint {
	if a.a == a.b {
		q, inside, n := closestOnHull(b, a.a)
		var pts []manifoldPoint
		if inside {
			sep := n.Dot(a.a.Sub(q)) - a.radius
			if sep <= margin {
				sa := a.a.Sub(n.Mul(a.radius))
				pts = append(pts, manifoldPoint{pos: sa.Add(q).Mul(0.5), normal: n, sep: sep})
			}
			return pts
		}
		if mp, ok := roundContact(a.a, a.radius, q, 0, n, margin); ok {
			pts = append(pts, mp)
		}
		return pts
	}

	// separating axis test with the capsule core segment
	faceSep, face := math.Inf(-1), -1
	for i, n := range b.normals {
		s := min(n.Dot(a.a), n.Dot(a.b)) - b.offsets[i]
		if s > faceSep {
			faceSep, face = s, i
		}
	}
	u := a.b.Sub(a.a)
	mid := a.a.Add(a.b).Mul(0.5)
	edgeSep, edge := math.Inf(-1), -1
	var edgeAxis mgl64.Vec3
	for i, e := range b.hull.Edges {
		axis := u.Cross(b.verts[e[1]].Sub(b.verts[e[0]]))
		l := axis.Len()
		if l < 1e-9 {
			continue
		}
		axis = axis.Mul(1 / l)
		if axis.Dot(mid.Sub(b.center)) < 0 {
			axis = axis.Mul(-1)
		}
		_, hi := b.extent(axis)
		s := min(axis.Dot(a.a), axis.Dot(a.b)) - hi
		if s > edgeSep {
			edgeSep, edge, edgeAxis = s, i, axis
		}
	}
	if max(faceSep, edgeSep)-a.radius > margin {
		return nil
	}
	if edge < 0 || !clearlyGreater(edgeSep, faceSep) {
		n := b.normals[face]
		o := b.offsets[face]
		t0, t1, ok := clipSegmentToFace(a.a, a.b, b, face)
		var pts []manifoldPoint
		if ok {
			for _, t := range []float64{t0, t1} {
				x := a.a.Add(u.Mul(t))
				s := n.Dot(x) - o
				sep := s - a.radius
				if sep > margin {
					continue
				}
				sa := x.Sub(n.Mul(a.radius))
				sb := x.Sub(n.Mul(s))
				pts = append(pts, manifoldPoint{pos: sa.Add(sb).Mul(0.5), normal: n, sep: sep})
				if t1-t0 < 1e-9 {
					break
				}
			}
			if len(pts) > 0 {
				return pts
			}
		}
	}
	// closest hull edge to the core segment
	best := math.Inf(1)
	var pa, pb mgl64.Vec3
	for _, e := range b.hull.Edges {
		ca, cb := closestSegments(a.a, a.b, b.verts[e[0]], b.verts[e[1]])
		if d := ca.Sub(cb).LenSqr(); d < best {
			best, pa, pb = d, ca, cb
		}
	}
	fb := b.normals[face]
	if edge >= 0 {
		fb = edgeAxis
	}
	if mp, ok := roundContact(pa, a.radius, pb, 0, fb, margin); ok {
		return []manifoldPoint{mp}
	}
	return nil
}

// closestOnHull returns the closest point on the hull surface to p.
// If p is inside, the point is on the face of least penetration and
// n is that face normal; otherwise n is the direction from q to p.
func closestOnHull(h *collider, p mgl64.Vec3) (q mgl64.Vec3, inside bool, n mgl64.Vec3) {
	maxSep, maxFace := math.Inf(-1), 0
	for i, fn := range h.normals {
		if s := fn.Dot(p) - h.offsets[i]; s > maxSep {
			maxSep, maxFace = s, i
		}
	}
	if maxSep <= 0 {
		n = h.normals[maxFace]
		return p.Sub(n.Mul(maxSep)), true, n
	}
	best := math.Inf(1)
	for i, fn := range h.normals {
		s := fn.Dot(p) - h.offsets[i]
		if s <= 0 {
			continue
		}
		verts := h.hull.Faces[i].Verts
		x := p.Sub(fn.Mul(s))
		in := true
		for k, vi := range verts {
			e := h.verts[verts[(k+1)%len(verts)]].Sub(h.verts[vi])
			if e.Cross(fn).Dot(x.Sub(h.verts[vi])) > 0 {
				in = false
				break
			}
		}
		if in {
			if s*s < best {
				best, q = s*s, x
			}
			continue
		}
		for k, vi := range verts {
			_, c := closestOnSegment(p, h.verts[vi], h.verts[verts[(k+1)%len(verts)]])
			if d := c.Sub(p).LenSqr(); d < best {
				best, q = d, c
			}
		}
	}
	n = p.Sub(q)
	if l := n.Len(); l > 1e-12 {
		n = n.Mul(1 / l)
	} else {
		n = h.normals[maxFace]
	}
	return q, false, n
}

// clipSegmentToFace clips the segment p0 p1 to the prism over a hull face,
// returning the parameter interval that remains.
func clipSegmentToFace(p0, p1 mgl64.Vec3, h *collider, face int) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	n := h.normals[face]
	verts := h.hull.Faces[face].Verts
	u := p1.Sub(p0)
	for k, vi := range verts {
		v := h.verts[vi]
		m := h.verts[verts[(k+1)%len(verts)]].Sub(v).Cross(n)
		d0 := m.Dot(p0.Sub(v))
		du := m.Dot(u)
		if math.Abs(du) < 1e-12 {
			if d0 > 0 {
				return 0, 0, false
			}
			continue
		}
		t := -d0 / du
		if du > 0 {
			t1 = min(t1, t)
		} else {
			t0 = max(t0, t)
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// collideHulls is a separating axis test over face normals and edge
// pairs, followed by reference face clipping or an edge contact.
func collideHulls(a, b *collider, margin float64) []manifoldPoint {
	fa, sa := faceQuery(a, b)
	fb, sb := faceQuery(b, a)
	ea, eb, se, axis := edgeQuery(a, b)
	faceSep := max(sa, sb)
	if max(faceSep, se) > margin {
		return nil
	}
	if ea >= 0 && clearlyGreater(se, faceSep) {
		return edgeContact(a, b, ea, eb, axis, margin)
	}
	if clearlyGreater(sb, sa) {
		return faceContact(b, a, fb, margin)
	}
	return flip(faceContact(a, b, fa, margin))
}

// clearlyGreater reports whether separation a exceeds b by more than
// the axis selection tolerance, for separations of either sign.
func clearlyGreater(a, b float64) bool {
	return a > b+0.02*math.Abs(b)+1e-3
}

// faceQuery returns the face of ref that best separates inc, and its separation.
func faceQuery(ref, inc *collider) (int, float64) {
	best, face := math.Inf(-1), -1
	for i, n := range ref.normals {
		lo, _ := inc.extent(n)
		if s := lo - ref.offsets[i]; s > best {
			best, face = s, i
		}
	}
	return face, best
}

// edgeQuery tests the cross products of edge directions, with the axis
// oriented from a toward b.
func edgeQuery(a, b *collider) (ea, eb int, best float64, axis mgl64.Vec3) {
	ea, eb, best = -1, -1, math.Inf(-1)
	d := b.center.Sub(a.center)
	for i, e1 := range a.hull.Edges {
		u := a.verts[e1[1]].Sub(a.verts[e1[0]])
		for j, e2 := range b.hull.Edges {
			l := u.Cross(b.verts[e2[1]].Sub(b.verts[e2[0]]))
			ln := l.Len()
			if ln < 1e-9*u.Len() {
				continue
			}
			l = l.Mul(1 / ln)
			if l.Dot(d) < 0 {
				l = l.Mul(-1)
			}
			_, ahi := a.extent(l)
			blo, _ := b.extent(l)
			if s := blo - ahi; s > best {
				ea, eb, best, axis = i, j, s, l
			}
		}
	}
	return
}

// faceContact clips the incident face of inc against the reference face
// of ref. Normals point from ref toward inc.
func faceContact(ref, inc *collider, face int, margin float64) []manifoldPoint {
	n := ref.normals[face]
	o := ref.offsets[face]
	incFace, minDot := 0, math.Inf(1)
	for i, m := range inc.normals {
		if d := m.Dot(n); d < minDot {
			incFace, minDot = i, d
		}
	}
	poly := make([]mgl64.Vec3, 0, 8)
	for _, vi := range inc.hull.Faces[incFace].Verts {
		poly = append(poly, inc.verts[vi])
	}
	rv := ref.hull.Faces[face].Verts
	for k, vi := range rv {
		v := ref.verts[vi]
		m := ref.verts[rv[(k+1)%len(rv)]].Sub(v).Cross(n)
		poly = clipPolygon(poly, m, m.Dot(v))
		if len(poly) == 0 {
			return nil
		}
	}
	var pts []manifoldPoint
	for _, x := range poly {
		s := n.Dot(x) - o
		if s > margin {
			continue
		}
		onRef := x.Sub(n.Mul(s))
		pts = append(pts, manifoldPoint{pos: x.Add(onRef).Mul(0.5), normal: n, sep: s})
	}
	return pts
}

// clipPolygon keeps the part of poly with m·x <= off (Sutherland-Hodgman).
func clipPolygon(poly []mgl64.Vec3, m mgl64.Vec3, off float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(poly)+2)
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		dp, dq := m.Dot(p)-off, m.Dot(q)-off
		if dp <= 0 {
			out = append(out, p)
		}
		if (dp < 0 && dq > 0) || (dp > 0 && dq < 0) {
			t := dp / (dp - dq)
			out = append(out, p.Add(q.Sub(p).Mul(t)))
		}
	}
	return out
}

// edgeContact builds a single contact between the supporting edges
// parallel to the winning edge pair. The axis points from a to b.
func edgeContact(a, b *collider, ea, eb int, axis mgl64.Vec3, margin float64) []manifoldPoint {
	pick := func(c *collider, e int, sign float64) [2]mgl64.Vec3 {
		dir := c.verts[c.hull.Edges[e][1]].Sub(c.verts[c.hull.Edges[e][0]]).Normalize()
		best, bd := c.hull.Edges[e], math.Inf(-1)
		for _, o := range c.hull.Edges {
			od := c.verts[o[1]].Sub(c.verts[o[0]]).Normalize()
			if math.Abs(od.Dot(dir)) < 0.999 {
				continue
			}
			if d := sign * axis.Dot(c.verts[o[0]].Add(c.verts[o[1]])); d > bd {
				best, bd = o, d
			}
		}
		return [2]mgl64.Vec3{c.verts[best[0]], c.verts[best[1]]}
	}
	sa := pick(a, ea, 1)
	sb := pick(b, eb, -1)
	pa, pb := closestSegments(sa[0], sa[1], sb[0], sb[1])
	sep := axis.Dot(pb.Sub(pa))
	if sep > margin {
		return nil
	}
	return []manifoldPoint{{pos: pa.Add(pb).Mul(0.5), normal: axis.Mul(-1), sep: sep}}
}

// reduceManifold keeps at most four points: the deepest, the one
// furthest from it, and two more that maximize the covered area.
func reduceManifold(pts []manifoldPoint) []manifoldPoint {
	if len(pts) <= maxManifold {
		return pts
	}
	n := pts[0].normal
	i0 := 0
	for i, p := range pts {
		if p.sep < pts[i0].sep {
			i0 = i
		}
	}
	i1, best := -1, -1.0
	for i, p := range pts {
		if d := p.pos.Sub(pts[i0].pos).LenSqr(); i != i0 && d > best {
			i1, best = i, d
		}
	}
	area := func(a, b, c mgl64.Vec3) float64 {
		return b.Sub(a).Cross(c.Sub(a)).Dot(n)
	}
	i2, best := -1, -1.0
	for i, p := range pts {
		if i == i0 || i == i1 {
			continue
		}
		if d := math.Abs(area(pts[i0].pos, pts[i1].pos, p.pos)); d > best {
			i2, best = i, d
		}
	}
	out := []manifoldPoint{pts[i0], pts[i1], pts[i2]}
	orient := 1.0
	if area(pts[i0].pos, pts[i1].pos, pts[i2].pos) < 0 {
		orient = -1
	}
	i3, best := -1, 0.0
	for i, p := range pts {
		if i == i0 || i == i1 || i == i2 {
			continue
		}
		gain := 0.0
		for _, e := range [][2]int{{i0, i1}, {i1, i2}, {i2, i0}} {
			if v := -orient * area(pts[e[0]].pos, pts[e[1]].pos, p.pos); v > gain {
				gain = v
			}
		}
		if gain > best {
			i3, best = i, gain
		}
	}
	if i3 >= 0 {
		out = append(out, pts[i3])
	}
	return out
}

// closestOnSegment returns the parameter and point on segment a b closest to p.
func closestOnSegment(p, a, b mgl64.Vec3) (float64, mgl64.Vec3) {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l < 1e-18 {
		return 0, a
	}
	t := min(1, max(0, p.Sub(a).Dot(ab)/l))
	return t, a.Add(ab.Mul(t))
}

// closestSegments returns the closest points between segments p1 q1 and p2 q2.
func closestSegments(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1, d2 := q1.Sub(p1), q2.Sub(p2)
	r := p1.Sub(p2)
	a, e := d1.LenSqr(), d2.LenSqr()
	f := d2.Dot(r)
	const eps = 1e-18
	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = min(1, max(0, f/e))
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = min(1, max(0, -c/a))
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = min(1, max(0, (b*f-c*e)/denom))
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = min(1, max(0, -c/a))
			} else if t > 1 {
				t = 1
				s = min(1, max(0, (b-c)/a))
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// perpendicular returns a unit vector perpendicular to v.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	if math.Abs(v[0]) < 0.57 {
		return v.Cross(mgl64.Vec3{1, 0, 0}).Normalize()
	}
	return v.Cross(mgl64.Vec3{0, 1, 0}).Normalize()
}
