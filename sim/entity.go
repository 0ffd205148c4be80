// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"sync/atomic"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/spatial"
)

var lastEntityID atomic.Uint64

// Entity is a named, posed container of components, and the unit of
// scene membership. Names are not unique.
type Entity struct {
	id         uint64
	sceneID    int
	name       string
	pose       spatial.Pose
	components []Component
	scene      *Scene
}

// NewEntity returns an entity at the origin with no components.
func NewEntity(name string) *Entity {
	return &Entity{id: lastEntityID.Add(1), name: name, pose: spatial.Identity()}
}

// ID returns the process-wide identity of the entity.
func (e *Entity) ID() uint64 { return e.id }

// SceneID returns the id assigned when the entity was added to its
// scene, used as the actor id in segmentation pictures; 0 outside a scene.
func (e *Entity) SceneID() int { return e.sceneID }

// Scene returns the scene holding the entity, or nil.
func (e *Entity) Scene() *Scene { return e.scene }

func (e *Entity) Name() string { return e.name }

func (e *Entity) SetName(name string) { e.name = name }

func (e *Entity) String() string { return fmt.Sprintf("Entity(%d %q)", e.id, e.name) }

// Pose returns the world pose of the entity: the pose of its body if
// it has one, else the pose last set.
func (e *Entity) Pose() spatial.Pose {
	if b := e.body(); b != nil {
		return b.PhysicsBody().AsBodyBase().Pose()
	}
	return e.pose
}

// SetPose sets the world pose of the entity and of its rigid body.
// Link poses follow their articulation: setting one is
// [errors.ErrInvalidState] and leaves the pose unchanged.
func (e *Entity) SetPose(ps spatial.Pose) error {
	if e.link() != nil {
		return fmt.Errorf("sim.Entity %q: pose of a link follows its articulation: %w", e.name, errors.ErrInvalidState)
	}
	e.pose = ps
	if rb, err := Find[*RigidBody](e); err == nil {
		rb.SetPose(ps)
	}
	return nil
}

// body returns the rigid body or link of the entity, or nil.
func (e *Entity) body() Body {
	for _, c := range e.components {
		if b, ok := c.(Body); ok {
			return b
		}
	}
	return nil
}

// Body returns the rigid body or link component of the entity.
func (e *Entity) Body() (Body, error) {
	if b := e.body(); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("sim.Entity %q: no body: %w", e.name, errors.ErrNotFound)
}

// AddComponent attaches a component. An entity holds at most one body
// (a [RigidBody] or a [Link]) and at most one [Camera]. Components can
// not be added while the entity is in a scene, and a component can only
// be attached to one entity. Violations are [errors.ErrInvalidState].
func (e *Entity) AddComponent(c Component) error {
	cb := c.AsComponentBase()
	switch {
	case cb.entity != nil:
		return fmt.Errorf("sim.Entity %q: %v component already attached to %v: %w", e.name, c.Kind(), cb.entity, errors.ErrInvalidState)
	case e.scene != nil:
		return fmt.Errorf("sim.Entity %q: add %v component while in a scene: %w", e.name, c.Kind(), errors.ErrInvalidState)
	}
	switch c.Kind() {
	case RigidBodyKind, LinkKind:
		if e.body() != nil {
			return fmt.Errorf("sim.Entity %q: second body component: %w", e.name, errors.ErrInvalidState)
		}
		c.(Body).PhysicsBody().AsBodyBase().Owner = c
	case CameraKind:
		if len(e.Components(CameraKind)) > 0 {
			return fmt.Errorf("sim.Entity %q: second camera: %w", e.name, errors.ErrInvalidState)
		}
	}
	cb.entity = e
	e.components = append(e.components, c)
	if rb, ok := c.(*RigidBody); ok {
		rb.SetPose(e.pose)
	}
	return nil
}

// FindComponent returns the first component of the given kind.
func (e *Entity) FindComponent(kind ComponentKinds) (Component, error) {
	for _, c := range e.components {
		if c.Kind() == kind {
			return c, nil
		}
	}
	return nil, fmt.Errorf("sim.Entity %q: no %v component: %w", e.name, kind, errors.ErrNotFound)
}

// Components returns all components of the given kind, in the order
// they were added.
func (e *Entity) Components(kind ComponentKinds) []Component {
	var cs []Component
	for _, c := range e.components {
		if c.Kind() == kind {
			cs = append(cs, c)
		}
	}
	return cs
}

// AllComponents returns all components in the order they were added.
func (e *Entity) AllComponents() []Component {
	return append([]Component(nil), e.components...)
}

// Find returns the first component of type T of the entity.
func Find[T Component](e *Entity) (T, error) {
	for _, c := range e.components {
		if t, ok := c.(T); ok {
			return t, nil
		}
	}
	var zv T
	return zv, fmt.Errorf("sim.Entity %q: no %T component: %w", e.name, zv, errors.ErrNotFound)
}

// link returns the link role of the entity, or nil.
func (e *Entity) link() *Link {
	ln, _ := Find[*Link](e)
	return ln
}
