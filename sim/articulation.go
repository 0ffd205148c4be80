// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// JointSpec describes the joint connecting a link to its parent.
// The joint moves along or about the x axis of its frame, which is
// PoseInParent in the parent link and PoseInChild in the child link.
type JointSpec struct {
	Name string
	Type physics.JointTypes

	PoseInParent spatial.Pose
	PoseInChild  spatial.Pose

	// Lower and Upper are the position limits; infinite when unlimited.
	Lower, Upper float64

	Damping float64

	// Stiffness and DriveDamping are the gains of the PD drive.
	Stiffness    float64
	DriveDamping float64
}

// DefaultJoint returns an unlimited fixed joint with identity frames.
func DefaultJoint() JointSpec {
	return JointSpec{
		PoseInParent: spatial.Identity(),
		PoseInChild:  spatial.Identity(),
		Lower:        math.Inf(-1),
		Upper:        math.Inf(1),
	}
}

// LinkBuilder accumulates the shapes of one articulation link and the
// joint to its parent.
type LinkBuilder struct {
	ActorBuilder

	Name  string
	Joint JointSpec

	parent *LinkBuilder
	index  int
}

// Parent returns the parent link builder, nil for the root.
func (lb *LinkBuilder) Parent() *LinkBuilder { return lb.parent }

func (lb *LinkBuilder) SetName(name string) *LinkBuilder {
	lb.Name = name
	return lb
}

// SetJoint sets the joint type and frames, keeping limits and gains.
func (lb *LinkBuilder) SetJoint(name string, typ physics.JointTypes, inParent, inChild spatial.Pose) *LinkBuilder {
	lb.Joint.Name, lb.Joint.Type = name, typ
	lb.Joint.PoseInParent, lb.Joint.PoseInChild = inParent, inChild
	return lb
}

func (lb *LinkBuilder) SetLimits(lower, upper float64) *LinkBuilder {
	lb.Joint.Lower, lb.Joint.Upper = lower, upper
	return lb
}

func (lb *LinkBuilder) SetDamping(damping float64) *LinkBuilder {
	lb.Joint.Damping = damping
	return lb
}

// SetDrive sets the PD drive gains of the joint.
func (lb *LinkBuilder) SetDrive(stiffness, damping float64) *LinkBuilder {
	lb.Joint.Stiffness, lb.Joint.DriveDamping = stiffness, damping
	return lb
}

// ArticulationBuilder builds an [Articulation] from a tree of link
// builders. The first link builder created is the root.
type ArticulationBuilder struct {

	// FixBase fixes the root link in place; otherwise the root floats.
	FixBase bool

	links []*LinkBuilder
}

// NewArticulationBuilder returns an empty builder.
func NewArticulationBuilder(fixBase bool) *ArticulationBuilder {
	return &ArticulationBuilder{FixBase: fixBase}
}

// CreateLinkBuilder returns a new link builder with the given parent,
// nil for the root.
func (ab *ArticulationBuilder) CreateLinkBuilder(parent *LinkBuilder) *LinkBuilder {
	lb := &LinkBuilder{parent: parent, index: len(ab.links), Joint: DefaultJoint()}
	lb.Name = fmt.Sprintf("link%d", lb.index)
	ab.links = append(ab.links, lb)
	return lb
}

// LinkBuilders returns the link builders in creation order.
func (ab *ArticulationBuilder) LinkBuilders() []*LinkBuilder {
	return append([]*LinkBuilder(nil), ab.links...)
}

// Build validates the link builders and returns a new articulation
// whose links are entities with a [Link] and, when they have visuals,
// a [RenderBody]. Links are ordered depth-first, children in creation
// order. The articulation is not added to any scene.
func (ab *ArticulationBuilder) Build(name string) (*Articulation, error) {
	if len(ab.links) == 0 {
		return nil, fmt.Errorf("sim.ArticulationBuilder %q: no links: %w", name, errors.ErrInvalidArgument)
	}
	plinks := make([]*physics.Link, len(ab.links))
	ents := make(map[*physics.Link]*Entity, len(ab.links))
	for i, lb := range ab.links {
		parent := -1
		switch {
		case lb.parent != nil:
			parent = lb.parent.index
		case i > 0:
			return nil, fmt.Errorf("sim.ArticulationBuilder %q: link %q: second root: %w", name, lb.Name, errors.ErrInvalidArgument)
		}
		if lb.parent != nil && (lb.parent.index >= len(ab.links) || ab.links[lb.parent.index] != lb.parent) {
			return nil, fmt.Errorf("sim.ArticulationBuilder %q: link %q: parent from another builder: %w", name, lb.Name, errors.ErrInvalidArgument)
		}
		snap, err := lb.ActorBuilder.snapshot()
		if err != nil {
			return nil, err
		}
		shapes, err := snap.collisionShapes()
		if err != nil {
			return nil, fmt.Errorf("sim.ArticulationBuilder %q: link %q: %w", name, lb.Name, err)
		}
		visuals, err := snap.visuals()
		if err != nil {
			return nil, fmt.Errorf("sim.ArticulationBuilder %q: link %q: %w", name, lb.Name, err)
		}
		pl := &physics.Link{Parent: parent}
		pl.Name = lb.Name
		pl.Shapes = shapes
		js := lb.Joint
		pl.Joint = physics.Joint{
			Name: js.Name, Type: js.Type,
			PoseInParent: js.PoseInParent, PoseInChild: js.PoseInChild,
			Lower: js.Lower, Upper: js.Upper,
			Damping: js.Damping, Stiffness: js.Stiffness, DriveDamping: js.DriveDamping,
		}
		plinks[i] = pl

		e := NewEntity(lb.Name)
		if len(visuals) > 0 {
			errors.Must(e.AddComponent(&RenderBody{Visuals: visuals}))
		}
		ents[pl] = e
	}
	par, err := physics.NewArticulation(name, ab.FixBase, plinks)
	if err != nil {
		return nil, err
	}
	ar := &Articulation{art: par}
	for _, pl := range par.Links {
		e := ents[pl]
		errors.Must(e.AddComponent(&Link{Link: pl, art: ar}))
		ar.links = append(ar.links, e)
	}
	return ar, nil
}

// Articulation is a tree of link entities simulated in generalized
// coordinates. Joint coordinate vectors follow the depth-first link
// order; their length [Articulation.DOF] is fixed at build time.
type Articulation struct {
	art   *physics.Articulation
	links []*Entity
	scene *Scene
	id    int
}

func (ar *Articulation) Name() string { return ar.art.Name }

func (ar *Articulation) SetName(name string) { ar.art.Name = name }

// Scene returns the scene holding the articulation, or nil.
func (ar *Articulation) Scene() *Scene { return ar.scene }

// Physics returns the simulated articulation.
func (ar *Articulation) Physics() *physics.Articulation { return ar.art }

// Links returns the link entities in depth-first order, root first.
func (ar *Articulation) Links() []*Entity {
	return append([]*Entity(nil), ar.links...)
}

// Root returns the root link entity.
func (ar *Articulation) Root() *Entity { return ar.links[0] }

// Joints returns the joints of the non-root links, in link order.
func (ar *Articulation) Joints() []*physics.Joint { return ar.art.Joints() }

// ActiveJoints returns the joints with a degree of freedom, in joint
// coordinate order.
func (ar *Articulation) ActiveJoints() []*physics.Joint { return ar.art.ActiveJoints() }

func (ar *Articulation) DOF() int { return ar.art.DOF() }

func (ar *Articulation) QPos() []float64 { return ar.art.QPos() }

func (ar *Articulation) SetQPos(q []float64) error { return ar.art.SetQPos(q) }

func (ar *Articulation) QVel() []float64 { return ar.art.QVel() }

func (ar *Articulation) SetQVel(qd []float64) error { return ar.art.SetQVel(qd) }

func (ar *Articulation) QF() []float64 { return ar.art.QF() }

func (ar *Articulation) SetQF(qf []float64) error { return ar.art.SetQF(qf) }

func (ar *Articulation) QLimits() [][2]float64 { return ar.art.QLimits() }

// gravity returns the gravity of the scene, or the configured gravity
// outside a scene.
func (ar *Articulation) gravity() mgl64.Vec3 {
	if ar.scene != nil {
		return ar.scene.Gravity()
	}
	return config.Get().Scene.Gravity
}

// ComputePassiveForce returns the joint forces that cancel gravity
// and/or the Coriolis and centrifugal forces at the current state.
func (ar *Articulation) ComputePassiveForce(gravity, coriolisAndCentrifugal bool) []float64 {
	return ar.art.ComputePassiveForce(ar.gravity(), gravity, coriolisAndCentrifugal)
}

func (ar *Articulation) RootPose() spatial.Pose { return ar.art.RootPose() }

// SetRootPose moves the root link and updates all link poses.
func (ar *Articulation) SetRootPose(ps spatial.Pose) { ar.art.SetRootPose(ps) }

// RootVelocity returns the linear and angular velocity of the root;
// both are zero for a fixed base.
func (ar *Articulation) RootVelocity() (lin, ang mgl64.Vec3) { return ar.art.RootVelocity() }

// SetRootVelocity sets the root velocity of a floating base.
func (ar *Articulation) SetRootVelocity(lin, ang mgl64.Vec3) { ar.art.SetRootVelocity(lin, ang) }

func (ar *Articulation) activeJoint(i int) (*physics.Joint, error) {
	js := ar.art.ActiveJoints()
	if i < 0 || i >= len(js) {
		return nil, fmt.Errorf("sim.Articulation %q: joint index %d of %d: %w", ar.Name(), i, len(js), errors.ErrInvalidArgument)
	}
	return js[i], nil
}

// SetDriveProperties sets the PD gains of the drive of joint coordinate i.
func (ar *Articulation) SetDriveProperties(i int, stiffness, damping float64) error {
	jt, err := ar.activeJoint(i)
	if err != nil {
		return err
	}
	if !(stiffness >= 0) || !(damping >= 0) || math.IsInf(stiffness, 0) || math.IsInf(damping, 0) {
		return fmt.Errorf("sim.Articulation %q: drive gains %g, %g: %w", ar.Name(), stiffness, damping, errors.ErrInvalidArgument)
	}
	jt.Stiffness, jt.DriveDamping = stiffness, damping
	return nil
}

// SetDriveTarget sets the position target of the drive of joint coordinate i.
func (ar *Articulation) SetDriveTarget(i int, target float64) error {
	return ar.art.SetDriveTarget(i, target)
}

// SetDriveVelocityTarget sets the velocity target of the drive of
// joint coordinate i.
func (ar *Articulation) SetDriveVelocityTarget(i int, target float64) error {
	jt, err := ar.activeJoint(i)
	if err != nil {
		return err
	}
	jt.VelocityTarget = target
	return nil
}
