// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"cogentcore.org/sim/base/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// World is a collection of rigid bodies and articulations that are
// stepped together. It must only be used from one goroutine.
type World struct {

	// Gravity is the gravitational acceleration.
	Gravity mgl64.Vec3

	// Params are the contact solver parameters.
	Params SolverParams

	bodies        []*RigidBody
	articulations []*Articulation
	contacts      []Contact
	cache         map[pairKey][]cachedPoint
	corrupted     error
}

// NewWorld returns a world with standard gravity along -z.
func NewWorld() *World {
	wr := &World{Gravity: mgl64.Vec3{0, 0, -9.81}}
	wr.Params.Defaults()
	return wr
}

// Bodies returns the rigid bodies in insertion order.
func (wr *World) Bodies() []*RigidBody { return slices.Clone(wr.bodies) }

// Articulations returns the articulations in insertion order.
func (wr *World) Articulations() []*Articulation { return slices.Clone(wr.articulations) }

// AddBody adds a rigid body.
func (wr *World) AddBody(rb *RigidBody) error {
	if rb.world != nil {
		return fmt.Errorf("physics.World: body %q: %w", rb.Name, errors.ErrAlreadyPresent)
	}
	rb.world = wr
	wr.bodies = append(wr.bodies, rb)
	return nil
}

// RemoveBody removes a rigid body.
func (wr *World) RemoveBody(rb *RigidBody) error {
	i := slices.Index(wr.bodies, rb)
	if i < 0 {
		return fmt.Errorf("physics.World: body %q: %w", rb.Name, errors.ErrNotPresent)
	}
	wr.bodies = slices.Delete(wr.bodies, i, i+1)
	rb.world = nil
	wr.forget(rb)
	return nil
}

// AddArticulation adds an articulation.
func (wr *World) AddArticulation(ar *Articulation) error {
	if ar.world != nil {
		return fmt.Errorf("physics.World: articulation %q: %w", ar.Name, errors.ErrAlreadyPresent)
	}
	ar.world = wr
	wr.articulations = append(wr.articulations, ar)
	return nil
}

// RemoveArticulation removes an articulation.
func (wr *World) RemoveArticulation(ar *Articulation) error {
	i := slices.Index(wr.articulations, ar)
	if i < 0 {
		return fmt.Errorf("physics.World: articulation %q: %w", ar.Name, errors.ErrNotPresent)
	}
	wr.articulations = slices.Delete(wr.articulations, i, i+1)
	ar.world = nil
	for _, ln := range ar.Links {
		wr.forget(ln)
	}
	return nil
}

// forget drops contacts and warm start data that refer to a removed body.
func (wr *World) forget(b Body) {
	wr.contacts = slices.DeleteFunc(wr.contacts, func(ct Contact) bool {
		return ct.Bodies[0] == b || ct.Bodies[1] == b
	})
	for _, cs := range b.AsBodyBase().Shapes {
		for k := range wr.cache {
			if k.a == cs || k.b == cs {
				delete(wr.cache, k)
			}
		}
	}
}

// Contacts returns the contacts found during the last step.
func (wr *World) Contacts() []Contact { return slices.Clone(wr.contacts) }

// Corrupted returns the error that stopped the simulation, if any.
func (wr *World) Corrupted() error { return wr.corrupted }

// colliders places every shape in the world for this step.
func (wr *World) colliders() []*collider {
	var cls []*collider
	add := func(b Body) {
		bb := b.AsBodyBase()
		for _, cs := range bb.Shapes {
			cl := newCollider(b, cs, bb.State.Pose, wr.Params.ContactOffset)
			cl.index = len(cls)
			cls = append(cls, cl)
		}
	}
	for _, rb := range wr.bodies {
		add(rb)
	}
	for _, ar := range wr.articulations {
		for _, ln := range ar.Links {
			add(ln)
		}
	}
	return cls
}

// Step advances the world by dt: velocities are integrated, contacts
// are detected and solved, and positions are integrated. Once the state
// becomes non-finite, Step returns an [errors.ErrCorrupted] error for
// that step and every later one.
func (wr *World) Step(dt float64) error {
	if wr.corrupted != nil {
		return wr.corrupted
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("physics.World: timestep %g: %w", dt, errors.ErrInvalidArgument)
	}
	for _, rb := range wr.bodies {
		rb.integrateVelocity(wr.Gravity, dt)
		rb.pv, rb.pw = mgl64.Vec3{}, mgl64.Vec3{}
		rb.solverInvI = rb.invInertiaWorld()
	}
	for _, ar := range wr.articulations {
		if err := ar.forwardDynamics(wr.Gravity, dt); err != nil {
			return wr.corrupt(err)
		}
	}

	sv := &solver{params: wr.Params, dt: dt}
	var contacts []*Contact
	for _, pr := range sweepAndPrune(wr.colliders()) {
		pts := collide(pr.a, pr.b, wr.Params.ContactOffset)
		if len(pts) == 0 {
			continue
		}
		ct := &Contact{
			Bodies: [2]Body{pr.a.body, pr.b.body},
			Shapes: [2]*CollisionShape{pr.a.shape, pr.b.shape},
			Points: make([]ContactPoint, len(pts)),
		}
		for i, mp := range pts {
			ct.Points[i] = ContactPoint{Position: mp.pos, Normal: mp.normal, Separation: mp.sep}
		}
		mat := CombineMaterials(pr.a.shape.Material, pr.b.shape.Material)
		sv.addContact(ct, mat, wr.cache[pairKey{pr.a.shape, pr.b.shape}])
		contacts = append(contacts, ct)
	}
	for _, ar := range wr.articulations {
		sv.addLimits(ar)
	}
	sv.warmStart()
	sv.solveVelocities()
	sv.solvePositions()
	wr.cache = sv.record()

	for _, rb := range wr.bodies {
		switch rb.Type {
		case Dynamic:
			rb.State.StepByVel(rb.State.LinVel.Add(rb.pv), rb.State.AngVel.Add(rb.pw), rb.mass.CMass, dt)
		case Kinematic:
			rb.State.StepByVel(rb.State.LinVel, rb.State.AngVel, rb.mass.CMass, dt)
		}
	}
	for _, ar := range wr.articulations {
		ar.integratePositions(dt)
	}

	wr.contacts = wr.contacts[:0]
	for _, ct := range contacts {
		wr.contacts = append(wr.contacts, *ct)
	}

	for _, rb := range wr.bodies {
		if !rb.State.IsFinite() {
			return wr.corrupt(fmt.Errorf("body %q", rb.Name))
		}
	}
	for _, ar := range wr.articulations {
		if !ar.isFinite() {
			return wr.corrupt(fmt.Errorf("articulation %q", ar.Name))
		}
	}
	return nil
}

func (wr *World) corrupt(cause error) error {
	wr.corrupted = fmt.Errorf("physics.World: %v: %w", cause, errors.ErrCorrupted)
	slog.Error(wr.corrupted.Error())
	return wr.corrupted
}
