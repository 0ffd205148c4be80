// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"log/slog"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// Body is the common interface for everything that carries collision
// shapes: [RigidBody] and articulation [Link].
type Body interface {

	// AsBodyBase returns the body as a BodyBase.
	AsBodyBase() *BodyBase
}

// BodyBase is the base type for all specific Body types.
type BodyBase struct {

	// Name is informational only.
	Name string

	// Shapes are the collision shapes, in body coordinates.
	Shapes []*CollisionShape

	// State is the current pose and velocity.
	State State

	// Owner is an optional back reference to the object that owns
	// this body in a higher level scene graph.
	Owner any

	mass MassProperties
}

func (bb *BodyBase) AsBodyBase() *BodyBase { return bb }

// Pose returns the world pose of the body frame.
func (bb *BodyBase) Pose() spatial.Pose { return bb.State.Pose }

// Mass returns the total mass.
func (bb *BodyBase) Mass() float64 { return bb.mass.Mass }

// MassProperties returns the mass, center of mass and inertia.
func (bb *BodyBase) MassProperties() MassProperties { return bb.mass }

// COM returns the world center of mass.
func (bb *BodyBase) COM() mgl64.Vec3 { return bb.State.Pose.Apply(bb.mass.CMass) }

// LinearVelocity returns the linear velocity of the center of mass.
func (bb *BodyBase) LinearVelocity() mgl64.Vec3 { return bb.State.LinVel }

// AngularVelocity returns the angular velocity.
func (bb *BodyBase) AngularVelocity() mgl64.Vec3 { return bb.State.AngVel }

// BodyTypes are the kinds of rigid body.
type BodyTypes int32

const (
	// Dynamic bodies are moved by the solver.
	Dynamic BodyTypes = iota

	// Kinematic bodies move only by their externally set pose and
	// velocity, and act as immovable obstacles for dynamic bodies.
	Kinematic

	// Static bodies never move.
	Static
)

func (bt BodyTypes) String() string {
	switch bt {
	case Dynamic:
		return "dynamic"
	case Kinematic:
		return "kinematic"
	case Static:
		return "static"
	}
	return fmt.Sprintf("BodyTypes(%d)", int32(bt))
}

// RigidBody is a free rigid body.
type RigidBody struct {
	BodyBase

	Type BodyTypes

	// LinearDamping slows linear velocity by 1/(1+dt*LinearDamping) per step.
	LinearDamping float64

	// AngularDamping slows angular velocity by 1/(1+dt*AngularDamping) per step.
	AngularDamping float64

	// DisableGravity turns off gravity for this body.
	DisableGravity bool

	force, torque mgl64.Vec3
	invInertia    mgl64.Mat3
	world         *World

	// solver scratch: pseudo velocities and world inverse inertia
	pv, pw     mgl64.Vec3
	solverInvI mgl64.Mat3
}

// NewRigidBody returns a body of the given type with mass properties
// computed from the shapes. Planes are only allowed on static bodies.
// A dynamic body without volume gets unit mass and inertia.
func NewRigidBody(name string, typ BodyTypes, shapes []*CollisionShape) (*RigidBody, error) {
	for _, cs := range shapes {
		if err := cs.Validate(); err != nil {
			return nil, fmt.Errorf("physics.NewRigidBody %q: %w", name, err)
		}
		if cs.Geometry.Shape() == PlaneShape && typ != Static {
			return nil, fmt.Errorf("physics.NewRigidBody %q: plane on a %v body: %w", name, typ, errors.ErrInvalidArgument)
		}
	}
	rb := &RigidBody{Type: typ}
	rb.Name = name
	rb.Shapes = shapes
	rb.State.Pose = spatial.Identity()
	rb.mass = ComputeMassProperties(shapes)
	if rb.mass.Mass <= 0 {
		if typ == Dynamic {
			slog.Debug("physics.NewRigidBody: no volume, using unit mass", "body", name)
		}
		rb.mass = MassProperties{Mass: 1, Inertia: mgl64.Ident3()}
	}
	rb.invInertia = rb.mass.Inertia.Inv()
	return rb, nil
}

// SetMassProperties overrides the computed mass properties.
func (rb *RigidBody) SetMassProperties(mp MassProperties) error {
	if !(mp.Mass > 0) || mp.Inertia.Det() <= 0 {
		return fmt.Errorf("physics.RigidBody: mass %g must be positive with an invertible inertia: %w", mp.Mass, errors.ErrInvalidArgument)
	}
	rb.mass = mp
	rb.invInertia = mp.Inertia.Inv()
	return nil
}

// SetPose teleports the body.
func (rb *RigidBody) SetPose(ps spatial.Pose) { rb.State.Pose = ps }

// SetLinearVelocity sets the velocity of the center of mass.
// It has no effect on static bodies.
func (rb *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	if rb.Type != Static {
		rb.State.LinVel = v
	}
}

// SetAngularVelocity sets the angular velocity.
// It has no effect on static bodies.
func (rb *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	if rb.Type != Static {
		rb.State.AngVel = w
	}
}

// AddForce accumulates a force through the center of mass for the next step.
func (rb *RigidBody) AddForce(f mgl64.Vec3) { rb.force = rb.force.Add(f) }

// AddTorque accumulates a torque for the next step.
func (rb *RigidBody) AddTorque(t mgl64.Vec3) { rb.torque = rb.torque.Add(t) }

// AddForceAtPoint accumulates a force applied at the world point p.
func (rb *RigidBody) AddForceAtPoint(f, p mgl64.Vec3) {
	rb.force = rb.force.Add(f)
	rb.torque = rb.torque.Add(p.Sub(rb.COM()).Cross(f))
}

// invInertiaWorld returns the inverse inertia in world axes.
func (rb *RigidBody) invInertiaWorld() mgl64.Mat3 {
	return spatial.RotateInertia(rb.State.Pose.Rot(), rb.invInertia)
}

// integrateVelocity applies gravity, forces and damping for dynamic bodies.
func (rb *RigidBody) integrateVelocity(gravity mgl64.Vec3, dt float64) {
	defer func() { rb.force, rb.torque = mgl64.Vec3{}, mgl64.Vec3{} }()
	if rb.Type != Dynamic {
		return
	}
	acc := rb.force.Mul(1 / rb.mass.Mass)
	if !rb.DisableGravity {
		acc = acc.Add(gravity)
	}
	st := &rb.State
	st.LinVel = st.LinVel.Add(acc.Mul(dt))
	st.AngVel = st.AngVel.Add(rb.invInertiaWorld().Mul3x1(rb.torque).Mul(dt))
	st.LinVel = st.LinVel.Mul(1 / (1 + dt*rb.LinearDamping))
	st.AngVel = st.AngVel.Mul(1 / (1 + dt*rb.AngularDamping))
}
