// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"image/color"
	"slices"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
)

// CollisionSpec describes one collision shape of an [ActorBuilder].
// Only the fields of its Shape are used.
type CollisionSpec struct {
	Shape      physics.Shapes
	HalfSize   mgl64.Vec3
	Radius     float64
	HalfLength float64
	Vertices   []mgl64.Vec3
	Faces      [][]int

	// Pose is the pose of the shape in the entity frame.
	Pose spatial.Pose

	// Material and Density fall back to the config defaults when nil.
	Material *physics.Material
	Density  *float64
}

// VisualShapes are the kinds of visual shapes.
type VisualShapes int32

const (
	VisualBox VisualShapes = iota
	VisualSphere
	VisualCapsule
	VisualPlane
	VisualMesh
)

// VisualSpec describes one visual shape of an [ActorBuilder].
type VisualSpec struct {
	Shape      VisualShapes
	HalfSize   mgl64.Vec3
	Radius     float64
	HalfLength float64
	Vertices   []mgl64.Vec3
	Triangles  [][3]int
	Pose       spatial.Pose
	Material   render.Material
}

// ShapeOption configures a shape added to a builder.
type ShapeOption func(so *shapeOptions)

type shapeOptions struct {
	pose      spatial.Pose
	material  *physics.Material
	density   *float64
	renderMat *render.Material
	color     *color.RGBA
}

// WithPose sets the pose of the shape in the entity frame.
func WithPose(ps spatial.Pose) ShapeOption {
	return func(so *shapeOptions) { so.pose = ps }
}

// WithMaterial sets the physical material of a collision shape.
func WithMaterial(mt physics.Material) ShapeOption {
	return func(so *shapeOptions) { so.material = &mt }
}

// WithDensity sets the density of a collision shape.
func WithDensity(density float64) ShapeOption {
	return func(so *shapeOptions) { so.density = &density }
}

// WithRenderMaterial sets the render material of a visual shape.
func WithRenderMaterial(mt render.Material) ShapeOption {
	return func(so *shapeOptions) { so.renderMat = &mt }
}

// WithColor sets the base color of a visual shape.
func WithColor(c color.RGBA) ShapeOption {
	return func(so *shapeOptions) { so.color = &c }
}

func applyOptions(opts []ShapeOption) *shapeOptions {
	so := &shapeOptions{pose: spatial.Identity()}
	for _, opt := range opts {
		opt(so)
	}
	return so
}

// ActorBuilder accumulates collision and visual shapes and builds them
// into an [Entity]. Building copies the builder state, so the builder
// can be changed and reused without affecting built entities.
type ActorBuilder struct {
	Collisions []CollisionSpec
	Visuals    []VisualSpec
}

// NewActorBuilder returns an empty builder.
func NewActorBuilder() *ActorBuilder {
	return &ActorBuilder{}
}

func (ab *ActorBuilder) addCollision(cs CollisionSpec, opts []ShapeOption) *ActorBuilder {
	so := applyOptions(opts)
	cs.Pose, cs.Material, cs.Density = so.pose, so.material, so.density
	ab.Collisions = append(ab.Collisions, cs)
	return ab
}

func (ab *ActorBuilder) addVisual(vs VisualSpec, opts []ShapeOption) *ActorBuilder {
	so := applyOptions(opts)
	vs.Pose = so.pose
	vs.Material = render.DefaultMaterial()
	if so.renderMat != nil {
		vs.Material = *so.renderMat
	}
	if so.color != nil {
		vs.Material.BaseColor = *so.color
	}
	ab.Visuals = append(ab.Visuals, vs)
	return ab
}

// AddBoxCollision adds a box with the given half extents.
func (ab *ActorBuilder) AddBoxCollision(half mgl64.Vec3, opts ...ShapeOption) *ActorBuilder {
	return ab.addCollision(CollisionSpec{Shape: physics.BoxShape, HalfSize: half}, opts)
}

// AddSphereCollision adds a sphere.
func (ab *ActorBuilder) AddSphereCollision(radius float64, opts ...ShapeOption) *ActorBuilder {
	return ab.addCollision(CollisionSpec{Shape: physics.SphereShape, Radius: radius}, opts)
}

// AddCapsuleCollision adds a capsule along the local x axis.
func (ab *ActorBuilder) AddCapsuleCollision(radius, halfLength float64, opts ...ShapeOption) *ActorBuilder {
	return ab.addCollision(CollisionSpec{Shape: physics.CapsuleShape, Radius: radius, HalfLength: halfLength}, opts)
}

// AddConvexCollision adds a convex hull given by its vertices and faces.
func (ab *ActorBuilder) AddConvexCollision(vertices []mgl64.Vec3, faces [][]int, opts ...ShapeOption) *ActorBuilder {
	return ab.addCollision(CollisionSpec{Shape: physics.ConvexMeshShape, Vertices: slices.Clone(vertices), Faces: slices.Clone(faces)}, opts)
}

// AddPlaneCollision adds the plane z = 0 of the shape frame; only
// static entities can have one.
func (ab *ActorBuilder) AddPlaneCollision(opts ...ShapeOption) *ActorBuilder {
	return ab.addCollision(CollisionSpec{Shape: physics.PlaneShape}, opts)
}

// AddBoxVisual adds a visual box with the given half extents.
func (ab *ActorBuilder) AddBoxVisual(half mgl64.Vec3, opts ...ShapeOption) *ActorBuilder {
	return ab.addVisual(VisualSpec{Shape: VisualBox, HalfSize: half}, opts)
}

// AddSphereVisual adds a visual sphere.
func (ab *ActorBuilder) AddSphereVisual(radius float64, opts ...ShapeOption) *ActorBuilder {
	return ab.addVisual(VisualSpec{Shape: VisualSphere, Radius: radius}, opts)
}

// AddCapsuleVisual adds a visual capsule along the local x axis.
func (ab *ActorBuilder) AddCapsuleVisual(radius, halfLength float64, opts ...ShapeOption) *ActorBuilder {
	return ab.addVisual(VisualSpec{Shape: VisualCapsule, Radius: radius, HalfLength: halfLength}, opts)
}

// AddPlaneVisual adds the visual plane z = 0 of the shape frame.
func (ab *ActorBuilder) AddPlaneVisual(opts ...ShapeOption) *ActorBuilder {
	return ab.addVisual(VisualSpec{Shape: VisualPlane}, opts)
}

// AddMeshVisual adds a visual triangle mesh.
func (ab *ActorBuilder) AddMeshVisual(vertices []mgl64.Vec3, triangles [][3]int, opts ...ShapeOption) *ActorBuilder {
	return ab.addVisual(VisualSpec{Shape: VisualMesh, Vertices: slices.Clone(vertices), Triangles: slices.Clone(triangles)}, opts)
}

// Build returns a new entity with a dynamic rigid body whose mass and
// inertia follow from the collision shapes, and a render body holding
// the visual shapes. The entity is not added to any scene.
func (ab *ActorBuilder) Build(name string) (*Entity, error) {
	return ab.build(name, physics.Dynamic)
}

// BuildKinematic is like [ActorBuilder.Build] for a kinematic body.
func (ab *ActorBuilder) BuildKinematic(name string) (*Entity, error) {
	return ab.build(name, physics.Kinematic)
}

// BuildStatic is like [ActorBuilder.Build] for a static body.
func (ab *ActorBuilder) BuildStatic(name string) (*Entity, error) {
	return ab.build(name, physics.Static)
}

// snapshot returns a deep copy of the builder state.
func (ab *ActorBuilder) snapshot() (*ActorBuilder, error) {
	snap := &ActorBuilder{}
	if err := copier.CopyWithOption(snap, ab, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return snap, nil
}

func (ab *ActorBuilder) build(name string, typ physics.BodyTypes) (*Entity, error) {
	snap, err := ab.snapshot()
	if err != nil {
		return nil, err
	}
	shapes, err := snap.collisionShapes()
	if err != nil {
		return nil, fmt.Errorf("sim.ActorBuilder %q: %w", name, err)
	}
	visuals, err := snap.visuals()
	if err != nil {
		return nil, fmt.Errorf("sim.ActorBuilder %q: %w", name, err)
	}
	body, err := physics.NewRigidBody(name, typ, shapes)
	if err != nil {
		return nil, err
	}
	e := NewEntity(name)
	errors.Must(e.AddComponent(&RigidBody{RigidBody: body}))
	if len(visuals) > 0 {
		errors.Must(e.AddComponent(&RenderBody{Visuals: visuals}))
	}
	return e, nil
}

// collisionShapes validates the collision specs and returns the shapes,
// using the config defaults for missing materials and densities.
func (ab *ActorBuilder) collisionShapes() ([]*physics.CollisionShape, error) {
	defs := config.Get().Physics
	var shapes []*physics.CollisionShape
	for _, cs := range ab.Collisions {
		var geom physics.Geometry
		switch cs.Shape {
		case physics.BoxShape:
			geom = &physics.Box{HalfSize: cs.HalfSize}
		case physics.SphereShape:
			geom = &physics.Sphere{Radius: cs.Radius}
		case physics.CapsuleShape:
			geom = &physics.Capsule{Radius: cs.Radius, HalfLength: cs.HalfLength}
		case physics.ConvexMeshShape:
			hl, err := physics.NewHull(cs.Vertices, cs.Faces)
			if err != nil {
				return nil, err
			}
			geom = &physics.ConvexMesh{Hull: hl}
		case physics.PlaneShape:
			geom = &physics.Plane{}
		default:
			return nil, fmt.Errorf("collision shape %v: %w", cs.Shape, errors.ErrInvalidArgument)
		}
		mat, density := defs.Material, defs.Density
		if cs.Material != nil {
			mat = *cs.Material
		}
		if cs.Density != nil {
			density = *cs.Density
		}
		shape, err := physics.NewCollisionShape(geom, cs.Pose, mat, density)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// visuals validates the visual specs and returns the visuals.
func (ab *ActorBuilder) visuals() ([]Visual, error) {
	var vis []Visual
	for _, vs := range ab.Visuals {
		var sh render.Shape
		switch vs.Shape {
		case VisualBox:
			sh = &render.Box{HalfSize: vs.HalfSize}
		case VisualSphere:
			sh = &render.Sphere{Radius: vs.Radius}
		case VisualCapsule:
			sh = &render.Capsule{Radius: vs.Radius, HalfLength: vs.HalfLength}
		case VisualPlane:
			sh = &render.Plane{}
		case VisualMesh:
			sh = &render.Mesh{Vertices: vs.Vertices, Triangles: vs.Triangles}
		default:
			return nil, fmt.Errorf("visual shape %d: %w", vs.Shape, errors.ErrInvalidArgument)
		}
		if err := sh.Validate(); err != nil {
			return nil, err
		}
		if err := vs.Material.Validate(); err != nil {
			return nil, err
		}
		vis = append(vis, Visual{Shape: sh, Material: vs.Material, Local: vs.Pose})
	}
	return vis, nil
}
