// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"
	"slices"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// Link is one rigid link of an [Articulation].
type Link struct {
	BodyBase

	// Parent is the index of the parent link, -1 for the root.
	Parent int

	// Joint connects the link to its parent. Ignored for the root.
	Joint Joint

	// Index is the position of the link in depth-first order.
	Index int

	art *Articulation

	// dof is the index of the joint coordinate in the internal
	// velocity vector, or -1 for fixed joints and the root.
	dof int

	s       spatial.Motion
	vel     spatial.Motion
	inertia spatial.Inertia
}

// Articulation returns the articulation the link belongs to.
func (ln *Link) Articulation() *Articulation { return ln.art }

// DOFIndex returns the index of the link's joint in the joint
// coordinate vectors, or -1 if the joint has no degree of freedom.
func (ln *Link) DOFIndex() int {
	if ln.dof < 0 {
		return -1
	}
	return ln.dof - ln.art.nb
}

// Articulation is a tree of links connected by joints, simulated in
// generalized coordinates. A floating base adds six internal degrees of
// freedom that are not part of the joint coordinates.
type Articulation struct {
	Name string

	// Links in depth-first order, root first.
	Links []*Link

	// FixBase welds the root link to the world.
	FixBase bool

	// nb is the number of base degrees of freedom (0 or 6).
	nb int

	rootPose spatial.Pose
	q        []float64
	u        []float64
	qf       []float64

	// per step
	h    []float64
	chol cholesky
	pu   []float64

	world *World
}

// NewArticulation builds an articulation from links whose Parent indices
// refer to positions in links, with every parent before its children
// and exactly one root at index 0. Links are reordered depth-first,
// children in the given order.
func NewArticulation(name string, fixBase bool, links []*Link) (*Articulation, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("physics.NewArticulation %q: no links: %w", name, errors.ErrInvalidArgument)
	}
	children := make([][]int, len(links))
	for i, ln := range links {
		switch {
		case i == 0 && ln.Parent != -1:
			return nil, fmt.Errorf("physics.NewArticulation %q: first link must be the root: %w", name, errors.ErrInvalidArgument)
		case i > 0 && (ln.Parent < 0 || ln.Parent >= i):
			return nil, fmt.Errorf("physics.NewArticulation %q: link %d has parent %d: %w", name, i, ln.Parent, errors.ErrInvalidArgument)
		}
		if i > 0 {
			children[ln.Parent] = append(children[ln.Parent], i)
			if err := ln.Joint.Validate(); err != nil {
				return nil, err
			}
		}
		for _, cs := range ln.Shapes {
			if err := cs.Validate(); err != nil {
				return nil, fmt.Errorf("physics.NewArticulation %q link %q: %w", name, ln.Name, err)
			}
			if cs.Geometry.Shape() == PlaneShape {
				return nil, fmt.Errorf("physics.NewArticulation %q link %q: plane shape: %w", name, ln.Name, errors.ErrInvalidArgument)
			}
		}
	}
	ar := &Articulation{Name: name, FixBase: fixBase, rootPose: spatial.Identity()}
	if !fixBase {
		ar.nb = 6
	}
	order := make([]int, 0, len(links))
	newIndex := make([]int, len(links))
	var visit func(i int)
	visit = func(i int) {
		newIndex[i] = len(order)
		order = append(order, i)
		for _, c := range children[i] {
			visit(c)
		}
	}
	visit(0)
	n := ar.nb
	for _, oi := range order {
		ln := links[oi]
		if oi > 0 {
			ln.Parent = newIndex[ln.Parent]
		}
		ln.Index = len(ar.Links)
		ln.art = ar
		ln.dof = -1
		if oi > 0 && ln.Joint.Type.DOF() > 0 {
			ln.dof = n
			n++
		}
		ln.mass = ComputeMassProperties(ln.Shapes)
		if ln.mass.Mass <= 0 {
			ln.mass = MassProperties{Mass: 1e-3, Inertia: mgl64.Ident3().Mul(1e-6)}
		}
		ar.Links = append(ar.Links, ln)
	}
	ar.q = make([]float64, n-ar.nb)
	ar.u = make([]float64, n)
	ar.qf = make([]float64, n-ar.nb)
	ar.updateKinematics()
	return ar, nil
}

// DOF returns the number of joint degrees of freedom, excluding the
// floating base.
func (ar *Articulation) DOF() int { return len(ar.q) }

// Joints returns the joints of the non-root links, in link order.
func (ar *Articulation) Joints() []*Joint {
	js := make([]*Joint, 0, len(ar.Links)-1)
	for _, ln := range ar.Links[1:] {
		js = append(js, &ln.Joint)
	}
	return js
}

// ActiveJoints returns the joints that have a degree of freedom,
// in joint coordinate order.
func (ar *Articulation) ActiveJoints() []*Joint {
	js := make([]*Joint, 0, ar.DOF())
	for _, ln := range ar.Links[1:] {
		if ln.dof >= 0 {
			js = append(js, &ln.Joint)
		}
	}
	return js
}

func (ar *Articulation) checkDim(what string, v []float64) error {
	if len(v) != ar.DOF() {
		return fmt.Errorf("physics.Articulation %q: %s has length %d, want %d: %w", ar.Name, what, len(v), ar.DOF(), errors.ErrDimensionMismatch)
	}
	return nil
}

// QPos returns a copy of the joint positions.
func (ar *Articulation) QPos() []float64 { return slices.Clone(ar.q) }

// SetQPos sets the joint positions and updates link poses.
func (ar *Articulation) SetQPos(q []float64) error {
	if err := ar.checkDim("qpos", q); err != nil {
		return err
	}
	copy(ar.q, q)
	ar.updateKinematics()
	return nil
}

// QVel returns a copy of the joint velocities.
func (ar *Articulation) QVel() []float64 { return slices.Clone(ar.u[ar.nb:]) }

// SetQVel sets the joint velocities.
func (ar *Articulation) SetQVel(qd []float64) error {
	if err := ar.checkDim("qvel", qd); err != nil {
		return err
	}
	copy(ar.u[ar.nb:], qd)
	ar.updateKinematics()
	return nil
}

// QF returns a copy of the applied joint forces.
func (ar *Articulation) QF() []float64 { return slices.Clone(ar.qf) }

// SetQF sets the joint forces applied on every step until changed.
func (ar *Articulation) SetQF(qf []float64) error {
	if err := ar.checkDim("qf", qf); err != nil {
		return err
	}
	copy(ar.qf, qf)
	return nil
}

// QLimits returns the [lower, upper] limits of each joint coordinate.
func (ar *Articulation) QLimits() [][2]float64 {
	lim := make([][2]float64, 0, ar.DOF())
	for _, jt := range ar.ActiveJoints() {
		lim = append(lim, [2]float64{jt.Lower, jt.Upper})
	}
	return lim
}

// RootPose returns the pose of the root link.
func (ar *Articulation) RootPose() spatial.Pose { return ar.rootPose }

// SetRootPose moves the root link and updates all link poses.
func (ar *Articulation) SetRootPose(ps spatial.Pose) {
	ar.rootPose = ps
	ar.updateKinematics()
}

// RootVelocity returns the linear velocity of the root frame origin
// and the angular velocity of the root. Both are zero for a fixed base.
func (ar *Articulation) RootVelocity() (lin, ang mgl64.Vec3) {
	if ar.nb == 0 {
		return
	}
	v := spatial.MotionFromArray(ar.u[:6])
	return v.PointVelocity(ar.rootPose.P), v.W
}

// SetRootVelocity sets the root velocity of a floating base; it is
// ignored for a fixed base.
func (ar *Articulation) SetRootVelocity(lin, ang mgl64.Vec3) {
	if ar.nb == 0 {
		return
	}
	v0 := lin.Sub(ang.Cross(ar.rootPose.P))
	copy(ar.u[:6], []float64{ang[0], ang[1], ang[2], v0[0], v0[1], v0[2]})
	ar.updateKinematics()
}

// SetDriveTarget sets the PD drive target of the joint coordinate i.
func (ar *Articulation) SetDriveTarget(i int, target float64) error {
	js := ar.ActiveJoints()
	if i < 0 || i >= len(js) {
		return fmt.Errorf("physics.Articulation %q: joint index %d: %w", ar.Name, i, errors.ErrInvalidArgument)
	}
	js[i].Target = target
	return nil
}

// updateKinematics recomputes link poses, motion subspaces, velocities
// and world inertias from the current coordinates.
func (ar *Articulation) updateKinematics() {
	for _, ln := range ar.Links {
		if ln.Parent < 0 {
			ln.State.Pose = ar.rootPose
			if ar.nb > 0 {
				ln.vel = spatial.MotionFromArray(ar.u[:6])
			} else {
				ln.vel = spatial.Motion{}
			}
		} else {
			par := ar.Links[ln.Parent]
			var q float64
			if ln.dof >= 0 {
				q = ar.q[ln.dof-ar.nb]
			}
			frame := par.State.Pose.Mul(ln.Joint.PoseInParent).Mul(ln.Joint.motion(q))
			ln.State.Pose = frame.Mul(ln.Joint.PoseInChild.Inv())
			ln.vel = par.vel
			if ln.dof >= 0 {
				ln.s = ln.Joint.subspace(frame)
				ln.vel = ln.vel.Add(ln.s.Scale(ar.u[ln.dof]))
			}
		}
		com := ln.COM()
		ln.inertia = spatial.NewInertia(ln.mass.Mass, com, spatial.RotateInertia(ln.State.Pose.Rot(), ln.mass.Inertia))
		ln.State.LinVel = ln.vel.PointVelocity(com)
		ln.State.AngVel = ln.vel.W
	}
}

// columns calls fn for every velocity coordinate that moves link ln
// directly, with its motion subspace.
func (ar *Articulation) columns(ln *Link, fn func(i int, s spatial.Motion)) {
	if ln.Parent < 0 {
		for i := range ar.nb {
			var a [6]float64
			a[i] = 1
			fn(i, spatial.MotionFromArray(a[:]))
		}
		return
	}
	if ln.dof >= 0 {
		fn(ln.dof, ln.s)
	}
}

// massMatrix computes the joint space inertia matrix by the composite
// rigid body algorithm.
func (ar *Articulation) massMatrix() []float64 {
	n := len(ar.u)
	if cap(ar.h) < n*n {
		ar.h = make([]float64, n*n)
	}
	h := ar.h[:n*n]
	clear(h)
	ic := make([]spatial.Inertia, len(ar.Links))
	for i, ln := range ar.Links {
		ic[i] = ln.inertia
	}
	for i := len(ar.Links) - 1; i > 0; i-- {
		p := ar.Links[i].Parent
		ic[p] = ic[p].Add(ic[i])
	}
	for k, ln := range ar.Links {
		ar.columns(ln, func(i int, si spatial.Motion) {
			f := ic[k].MulMotion(si)
			for j := ln; ; j = ar.Links[j.Parent] {
				ar.columns(j, func(jj int, sj spatial.Motion) {
					v := sj.Dot(f)
					h[i*n+jj] = v
					h[jj*n+i] = v
				})
				if j.Parent < 0 {
					break
				}
			}
		})
	}
	return h
}

// inverseDynamics is the recursive Newton-Euler algorithm: it returns
// the generalized forces for accelerations qdd, including gravity and
// velocity product terms when selected.
func (ar *Articulation) inverseDynamics(qdd []float64, gravity mgl64.Vec3, withGravity, withVelocity bool) []float64 {
	n := len(ar.u)
	tau := make([]float64, n)
	acc := make([]spatial.Motion, len(ar.Links))
	frc := make([]spatial.Force, len(ar.Links))
	var a0 spatial.Motion
	if withGravity {
		a0.V = gravity.Mul(-1)
	}
	for k, ln := range ar.Links {
		var v spatial.Motion
		if withVelocity {
			v = ln.vel
		}
		if ln.Parent < 0 {
			acc[k] = a0
			if ar.nb > 0 && qdd != nil {
				acc[k] = acc[k].Add(spatial.MotionFromArray(qdd[:6]))
			}
		} else {
			acc[k] = acc[ln.Parent]
			if ln.dof >= 0 {
				if qdd != nil {
					acc[k] = acc[k].Add(ln.s.Scale(qdd[ln.dof]))
				}
				if withVelocity {
					acc[k] = acc[k].Add(v.Cross(ln.s).Scale(ar.u[ln.dof]))
				}
			}
		}
		frc[k] = ln.inertia.MulMotion(acc[k]).Add(v.CrossForce(ln.inertia.MulMotion(v)))
	}
	for k := len(ar.Links) - 1; k >= 0; k-- {
		ln := ar.Links[k]
		ar.columns(ln, func(i int, s spatial.Motion) {
			tau[i] = s.Dot(frc[k])
		})
		if ln.Parent >= 0 {
			frc[ln.Parent] = frc[ln.Parent].Add(frc[k])
		}
	}
	return tau
}

// ComputePassiveForce returns the joint forces that cancel gravity
// and/or the Coriolis and centrifugal forces at the current state.
func (ar *Articulation) ComputePassiveForce(gravity mgl64.Vec3, withGravity, withCoriolis bool) []float64 {
	ar.updateKinematics()
	tau := ar.inverseDynamics(nil, gravity, withGravity, withCoriolis)
	return tau[ar.nb:]
}

// forwardDynamics integrates joint and drive forces into velocities,
// leaving the factored effective mass matrix for the contact solver.
// Damping and drives are treated implicitly.
func (ar *Articulation) forwardDynamics(gravity mgl64.Vec3, dt float64) error {
	ar.updateKinematics()
	n := len(ar.u)
	h := ar.massMatrix()
	bias := ar.inverseDynamics(nil, gravity, true, true)
	rhs := make([]float64, n)
	for i := range n {
		rhs[i] = -bias[i]
	}
	for _, ln := range ar.Links {
		if ln.dof < 0 {
			continue
		}
		i := ln.dof
		jt := &ln.Joint
		q, u := ar.q[i-ar.nb], ar.u[i]
		rhs[i] += ar.qf[i-ar.nb] - jt.Damping*u
		if jt.Stiffness > 0 || jt.DriveDamping > 0 {
			rhs[i] += jt.Stiffness*(jt.Target-q-dt*u) + jt.DriveDamping*(jt.VelocityTarget-u)
		}
		h[i*n+i] += dt*(jt.Damping+jt.DriveDamping) + dt*dt*jt.Stiffness
	}
	if err := ar.chol.factor(h, n); err != nil {
		return fmt.Errorf("physics.Articulation %q: %w", ar.Name, err)
	}
	qdd := ar.chol.solve(rhs)
	for i := range n {
		ar.u[i] += dt * qdd[i]
	}
	ar.pu = make([]float64, n)
	ar.updateVelocities()
	return nil
}

// updateVelocities recomputes link velocities from u.
func (ar *Articulation) updateVelocities() {
	for _, ln := range ar.Links {
		if ln.Parent < 0 {
			if ar.nb > 0 {
				ln.vel = spatial.MotionFromArray(ar.u[:6])
			}
		} else {
			ln.vel = ar.Links[ln.Parent].vel
			if ln.dof >= 0 {
				ln.vel = ln.vel.Add(ln.s.Scale(ar.u[ln.dof]))
			}
		}
		ln.State.LinVel = ln.vel.PointVelocity(ln.COM())
		ln.State.AngVel = ln.vel.W
	}
}

// jacobian returns the row J with J·u the velocity of world point p
// on link ln along dir.
func (ar *Articulation) jacobian(ln *Link, p, dir mgl64.Vec3) []float64 {
	jac := make([]float64, len(ar.u))
	for l := ln; ; l = ar.Links[l.Parent] {
		ar.columns(l, func(i int, s spatial.Motion) {
			jac[i] = dir.Dot(s.PointVelocity(p))
		})
		if l.Parent < 0 {
			break
		}
	}
	return jac
}

// integratePositions advances coordinates by the real plus pseudo velocities.
func (ar *Articulation) integratePositions(dt float64) {
	if ar.pu == nil {
		ar.pu = make([]float64, len(ar.u))
	}
	for i := ar.nb; i < len(ar.u); i++ {
		ar.q[i-ar.nb] += (ar.u[i] + ar.pu[i]) * dt
	}
	if ar.nb > 0 {
		v := spatial.MotionFromArray(ar.u[:6]).Add(spatial.MotionFromArray(ar.pu[:6]))
		w := v.W
		if a := w.Len(); a*dt > AngMotionMax {
			w = w.Mul(AngMotionMax / (a * dt))
		}
		ar.rootPose.P = ar.rootPose.P.Add(v.PointVelocity(ar.rootPose.P).Mul(dt))
		ar.rootPose.Q = spatial.IntegrateRotation(ar.rootPose.Q, w, dt)
	}
	ar.pu = nil
	ar.updateKinematics()
}

// isFinite reports whether all coordinates are finite.
func (ar *Articulation) isFinite() bool {
	for _, v := range ar.q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range ar.u {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return ar.rootPose.IsFinite()
}
