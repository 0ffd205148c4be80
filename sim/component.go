// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// ComponentKinds are the capabilities an [Entity] can have.
type ComponentKinds int32

const (
	// RigidBodyKind is a dynamic, kinematic or static rigid body.
	RigidBodyKind ComponentKinds = iota

	// RenderBodyKind is a list of visual shapes.
	RenderBodyKind

	// CameraKind is a camera that takes pictures of the scene.
	CameraKind

	// LightKind is a light of the render scene.
	LightKind

	// LinkKind is a link of an articulation.
	LinkKind

	componentKindsN
)

var componentKindNames = [...]string{"RigidBody", "RenderBody", "Camera", "Light", "Link"}

func (ck ComponentKinds) String() string {
	if ck < 0 || ck >= componentKindsN {
		return fmt.Sprintf("ComponentKinds(%d)", int32(ck))
	}
	return componentKindNames[ck]
}

// Component is a capability attached to an [Entity]. The set of
// components is closed: [RigidBody], [RenderBody], [Camera], [Light]
// and [Link].
type Component interface {

	// Kind returns the capability of the component.
	Kind() ComponentKinds

	// AsComponentBase returns the [ComponentBase] of the component.
	AsComponentBase() *ComponentBase
}

// ComponentBase provides the core implementation of the [Component] interface.
type ComponentBase struct {
	entity *Entity
}

func (cb *ComponentBase) AsComponentBase() *ComponentBase { return cb }

// Entity returns the entity the component is attached to, or nil.
func (cb *ComponentBase) Entity() *Entity { return cb.entity }

// Body is a component that takes part in the physics simulation:
// a [RigidBody] or a [Link].
type Body interface {
	Component

	// PhysicsBody returns the simulated body.
	PhysicsBody() physics.Body
}

// RigidBody is a rigid body component.
type RigidBody struct {
	ComponentBase
	*physics.RigidBody
}

func (rb *RigidBody) Kind() ComponentKinds { return RigidBodyKind }

func (rb *RigidBody) PhysicsBody() physics.Body { return rb.RigidBody }

// Link is the articulation link role of an entity.
type Link struct {
	ComponentBase
	*physics.Link

	art *Articulation
}

func (ln *Link) Kind() ComponentKinds { return LinkKind }

func (ln *Link) PhysicsBody() physics.Body { return ln.Link }

// Articulation returns the articulation the link belongs to.
func (ln *Link) Articulation() *Articulation { return ln.art }

// Visual is one visual shape of a [RenderBody].
type Visual struct {
	Shape    render.Shape
	Material render.Material

	// Local is the pose of the shape relative to the entity.
	Local spatial.Pose
}

// RenderBody is the ordered list of visual shapes of an entity.
type RenderBody struct {
	ComponentBase
	Visuals []Visual

	nodes []*render.Node
}

func (rb *RenderBody) Kind() ComponentKinds { return RenderBodyKind }

// Nodes returns the render nodes of the visuals while the entity is in
// a scene, in visual order.
func (rb *RenderBody) Nodes() []*render.Node { return rb.nodes }

// Light is a light component.
// A [render.PointLight] is positioned in the entity frame and follows
// the entity.
type Light struct {
	ComponentBase
	Light render.Light

	// local is the point light position in the entity frame.
	local mgl64.Vec3
}

func (lt *Light) Kind() ComponentKinds { return LightKind }

// Camera is a camera component. A camera renders from the pose of its
// entity, or from Mount's pose composed with Relative when mounted.
type Camera struct {
	ComponentBase

	Width, Height int

	// FovY is the vertical field of view in radians.
	FovY float64

	Near, Far float64

	// Mount is the entity the camera follows, if any.
	Mount *Entity

	// Relative is the camera pose in the mount frame.
	Relative spatial.Pose

	cam *render.Camera
}

// NewCamera returns an unmounted camera component.
func NewCamera(width, height int, fovy, near, far float64) *Camera {
	return &Camera{Width: width, Height: height, FovY: fovy, Near: near, Far: far, Relative: spatial.Identity()}
}

func (cm *Camera) Kind() ComponentKinds { return CameraKind }

// SetMount mounts the camera on an entity at the given relative pose.
func (cm *Camera) SetMount(mount *Entity, relative spatial.Pose) {
	cm.Mount = mount
	cm.Relative = relative
}

// worldPose returns the effective camera pose.
func (cm *Camera) worldPose() spatial.Pose {
	if cm.Mount != nil {
		return cm.Mount.Pose().Mul(cm.Relative)
	}
	return cm.entity.Pose()
}

// Render returns the render camera; it exists while the entity is in a scene.
func (cm *Camera) Render() (*render.Camera, error) {
	if cm.cam == nil {
		return nil, fmt.Errorf("sim.Camera: not in a scene: %w", errors.ErrInvalidState)
	}
	return cm.cam, nil
}

// TakePicture starts rendering the pose of the last [Scene.UpdateRender].
func (cm *Camera) TakePicture() error {
	rc, err := cm.Render()
	if err != nil {
		return err
	}
	return rc.TakePicture()
}

// GetPicture waits for the last picture taken and returns a channel of it.
func (cm *Camera) GetPicture(ch render.Channels) (*render.Picture, error) {
	rc, err := cm.Render()
	if err != nil {
		return nil, err
	}
	return rc.GetPicture(ch)
}

// ModelMatrix returns the OpenGL camera to world transform of the last
// [Scene.UpdateRender].
func (cm *Camera) ModelMatrix() (mgl64.Mat4, error) {
	rc, err := cm.Render()
	if err != nil {
		return mgl64.Ident4(), err
	}
	return rc.ModelMatrix()
}

// IntrinsicMatrix returns the pinhole intrinsics of the camera.
func (cm *Camera) IntrinsicMatrix() mgl64.Mat3 {
	rc := render.Camera{Width: cm.Width, Height: cm.Height, FovY: cm.FovY, Near: cm.Near, Far: cm.Far}
	return rc.IntrinsicMatrix()
}
