// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/base/reflectx"
	"github.com/go-gl/mathgl/mgl64"
)

// SolverParams are the parameters of the contact solver.
type SolverParams struct {

	// VelocityIterations is the number of sequential impulse sweeps.
	VelocityIterations int `toml:"velocity_iterations" default:"20"`

	// PositionIterations is the number of penetration recovery sweeps.
	PositionIterations int `toml:"position_iterations" default:"4"`

	// ContactOffset is the distance at which speculative contacts are created.
	ContactOffset float64 `toml:"contact_offset" default:"0.02"`

	// BounceThreshold is the approach speed below which restitution is ignored.
	BounceThreshold float64 `toml:"bounce_threshold" default:"0.2"`

	// StaticSlip is the tangential speed below which static friction applies.
	StaticSlip float64 `toml:"static_slip" default:"0.01"`

	// Slop is the penetration depth that is tolerated without correction.
	Slop float64 `toml:"slop" default:"0.002"`

	// Baumgarte is the fraction of the penetration removed per step.
	Baumgarte float64 `toml:"baumgarte" default:"0.2"`
}

// Defaults sets the default solver parameters.
func (sp *SolverParams) Defaults() {
	errors.Log(reflectx.SetFromDefaultTags(sp))
}

type sideKinds int

const (
	fixedSide sideKinds = iota
	rigidSide
	linkSide
)

// rowSide is the participation of one body in a constraint row along
// a direction. Rigid bodies use the linear and angular Jacobian blocks;
// articulation links use a dense row over the generalized velocities.
type rowSide struct {
	kind sideKinds

	rb         *RigidBody
	lin, ang   mgl64.Vec3
	kLin, kAng mgl64.Vec3

	art     *Articulation
	jac, mj []float64

	// vel is the constant velocity of a kinematic body along the row.
	vel float64
}

func newRowSide(b Body, p, dir mgl64.Vec3) rowSide {
	switch x := b.(type) {
	case *RigidBody:
		switch x.Type {
		case Dynamic:
			r := p.Sub(x.COM())
			ang := r.Cross(dir)
			return rowSide{kind: rigidSide, rb: x, lin: dir, ang: ang,
				kLin: dir.Mul(1 / x.mass.Mass), kAng: x.solverInvI.Mul3x1(ang)}
		case Kinematic:
			return rowSide{kind: fixedSide, vel: dir.Dot(x.State.PointVel(p, x.COM()))}
		}
	case *Link:
		ar := x.art
		jac := ar.jacobian(x, p, dir)
		return rowSide{kind: linkSide, art: ar, jac: jac, mj: ar.chol.solve(jac)}
	}
	return rowSide{kind: fixedSide}
}

// velocity returns the velocity along the row, real or pseudo.
func (rs *rowSide) velocity(pseudo bool) float64 {
	switch rs.kind {
	case rigidSide:
		st := &rs.rb.State
		if pseudo {
			return rs.lin.Dot(rs.rb.pv) + rs.ang.Dot(rs.rb.pw)
		}
		return rs.lin.Dot(st.LinVel) + rs.ang.Dot(st.AngVel)
	case linkSide:
		if pseudo {
			return dot(rs.jac, rs.art.pu)
		}
		return dot(rs.jac, rs.art.u)
	}
	if pseudo {
		return 0
	}
	return rs.vel
}

// apply applies the impulse l along the row.
func (rs *rowSide) apply(l float64, pseudo bool) {
	switch rs.kind {
	case rigidSide:
		if pseudo {
			rs.rb.pv = rs.rb.pv.Add(rs.kLin.Mul(l))
			rs.rb.pw = rs.rb.pw.Add(rs.kAng.Mul(l))
			return
		}
		st := &rs.rb.State
		st.LinVel = st.LinVel.Add(rs.kLin.Mul(l))
		st.AngVel = st.AngVel.Add(rs.kAng.Mul(l))
	case linkSide:
		u := rs.art.u
		if pseudo {
			u = rs.art.pu
		}
		for i, m := range rs.mj {
			u[i] += m * l
		}
	}
}

// invMass returns the inverse effective mass along the row.
func (rs *rowSide) invMass() float64 {
	switch rs.kind {
	case rigidSide:
		return rs.lin.Dot(rs.kLin) + rs.ang.Dot(rs.kAng)
	case linkSide:
		return dot(rs.jac, rs.mj)
	}
	return 0
}

// row is a one dimensional constraint between two sides.
type row struct {
	a, b   rowSide
	k      float64
	lambda float64
}

func newRow(a, b Body, p, dir mgl64.Vec3) row {
	rw := row{a: newRowSide(a, p, dir)}
	if b != nil {
		rw.b = newRowSide(b, p, dir.Mul(-1))
	}
	if m := rw.a.invMass() + rw.b.invMass(); m > 0 {
		rw.k = 1 / m
	}
	return rw
}

func (rw *row) velocity(pseudo bool) float64 {
	return rw.a.velocity(pseudo) + rw.b.velocity(pseudo)
}

func (rw *row) apply(l float64, pseudo bool) {
	rw.a.apply(l, pseudo)
	rw.b.apply(l, pseudo)
}

// contactConstraint is the normal and friction rows of one contact point.
type contactConstraint struct {
	normal, t1, t2 row

	target float64
	mu     float64
	sep    float64

	// pseudo is the accumulated penetration recovery impulse.
	pseudo float64

	pair  *Contact
	point int
}

// limitConstraint keeps one joint coordinate within its limits.
type limitConstraint struct {
	rw     row
	target float64
	err    float64
	pseudo float64
}

// solver is the sequential impulse solver for one step.
type solver struct {
	params   SolverParams
	dt       float64
	contacts []*contactConstraint
	limits   []*limitConstraint
}

// addContact adds the rows of every point of ct.
func (sv *solver) addContact(ct *Contact, mat Material, cache []cachedPoint) {
	for i := range ct.Points {
		pt := &ct.Points[i]
		n := pt.Normal
		t1 := perpendicular(n)
		t2 := n.Cross(t1)
		cc := &contactConstraint{
			normal: newRow(ct.Bodies[0], ct.Bodies[1], pt.Position, n),
			t1:     newRow(ct.Bodies[0], ct.Bodies[1], pt.Position, t1),
			t2:     newRow(ct.Bodies[0], ct.Bodies[1], pt.Position, t2),
			sep:    pt.Separation,
			pair:   ct,
			point:  i,
		}
		vn := cc.normal.velocity(false)
		cc.target = -max(cc.sep, 0) / sv.dt
		if vn < -sv.params.BounceThreshold && cc.sep+vn*sv.dt <= 0 {
			cc.target = max(cc.target, -mat.Restitution*vn)
		}
		vt1, vt2 := cc.t1.velocity(false), cc.t2.velocity(false)
		if math.Hypot(vt1, vt2) < sv.params.StaticSlip {
			cc.mu = mat.StaticFriction
		} else {
			cc.mu = mat.DynamicFriction
		}
		for j := range cache {
			cp := &cache[j]
			if cp.pos.Sub(pt.Position).LenSqr() < 1e-4 && cp.normal.Dot(n) > 0.99 {
				cc.normal.lambda, cc.t1.lambda, cc.t2.lambda = cp.n, cp.t1, cp.t2
				break
			}
		}
		sv.contacts = append(sv.contacts, cc)
	}
}

// addLimits adds unilateral rows for joint coordinates near a limit.
func (sv *solver) addLimits(ar *Articulation) {
	margin := 0.1
	for _, ln := range ar.Links {
		if ln.dof < 0 {
			continue
		}
		jt := &ln.Joint
		q := ar.q[ln.dof-ar.nb]
		for _, side := range []float64{1, -1} {
			limit := jt.Lower
			if side < 0 {
				limit = jt.Upper
			}
			if math.IsInf(limit, 0) {
				continue
			}
			gap := side * (q - limit)
			if gap > margin && gap+side*ar.u[ln.dof]*sv.dt > 0 {
				continue
			}
			jac := make([]float64, len(ar.u))
			jac[ln.dof] = side
			rs := rowSide{kind: linkSide, art: ar, jac: jac, mj: ar.chol.solve(jac)}
			lc := &limitConstraint{rw: row{a: rs}, target: -max(gap, 0) / sv.dt, err: min(gap, 0)}
			if m := rs.invMass(); m > 0 {
				lc.rw.k = 1 / m
			}
			sv.limits = append(sv.limits, lc)
		}
	}
}

func (sv *solver) warmStart() {
	for _, cc := range sv.contacts {
		cc.normal.apply(cc.normal.lambda, false)
		cc.t1.apply(cc.t1.lambda, false)
		cc.t2.apply(cc.t2.lambda, false)
	}
}

// solveVelocities runs the sequential impulse sweeps.
func (sv *solver) solveVelocities() {
	for range sv.params.VelocityIterations {
		for _, lc := range sv.limits {
			rw := &lc.rw
			old := rw.lambda
			rw.lambda = max(0, old+(lc.target-rw.velocity(false))*rw.k)
			rw.apply(rw.lambda-old, false)
		}
		for _, cc := range sv.contacts {
			limit := cc.mu * cc.normal.lambda
			for _, rw := range []*row{&cc.t1, &cc.t2} {
				old := rw.lambda
				rw.lambda = min(limit, max(-limit, old-rw.velocity(false)*rw.k))
				rw.apply(rw.lambda-old, false)
			}
			rw := &cc.normal
			old := rw.lambda
			rw.lambda = max(0, old+(cc.target-rw.velocity(false))*rw.k)
			rw.apply(rw.lambda-old, false)
		}
	}
}

// solvePositions computes pseudo velocities that remove penetration
// beyond the slop without adding momentum to the real velocities.
func (sv *solver) solvePositions() {
	beta := sv.params.Baumgarte / sv.dt
	for range sv.params.PositionIterations {
		for _, lc := range sv.limits {
			if lc.err >= 0 {
				continue
			}
			old := lc.pseudo
			lc.pseudo = max(0, old+(-beta*lc.err-lc.rw.velocity(true))*lc.rw.k)
			lc.rw.apply(lc.pseudo-old, true)
		}
		for _, cc := range sv.contacts {
			depth := -(cc.sep + sv.params.Slop)
			if depth <= 0 {
				continue
			}
			rw := &cc.normal
			old := cc.pseudo
			cc.pseudo = max(0, old+(beta*depth-rw.velocity(true))*rw.k)
			rw.apply(cc.pseudo-old, true)
		}
	}
}

// record writes the impulses into the contact points and returns the
// warm start cache.
func (sv *solver) record() map[pairKey][]cachedPoint {
	cache := make(map[pairKey][]cachedPoint)
	for _, cc := range sv.contacts {
		pt := &cc.pair.Points[cc.point]
		pt.Impulse = pt.Normal.Mul(cc.normal.lambda)
		key := pairKey{cc.pair.Shapes[0], cc.pair.Shapes[1]}
		cache[key] = append(cache[key], cachedPoint{pos: pt.Position, normal: pt.Normal,
			n: cc.normal.lambda, t1: cc.t1.lambda, t2: cc.t2.lambda})
	}
	return cache
}
