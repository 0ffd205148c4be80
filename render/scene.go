// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"slices"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/base/ordmap"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is one visual shape in a [Scene].
type Node struct {

	// VisualID identifies the node in segmentation pictures; ids start at 1.
	VisualID int

	// ActorID identifies the owning actor or link in segmentation pictures.
	ActorID int

	Shape    Shape
	Material Material

	// Local is the pose of the shape relative to its actor.
	Local spatial.Pose

	// World is the pose of the shape at the last actor pose update.
	World spatial.Pose
}

// Scene is the render-side scene graph: visual nodes grouped by actor,
// and named lights. It is only modified by the simulation goroutine;
// cameras render from snapshots of it.
type Scene struct {
	nodes  *ordmap.Map[int, *Node]
	actors map[int][]int
	lights *ordmap.Map[string, Light]
	nextID int
}

// NewScene returns an empty render scene.
func NewScene() *Scene {
	return &Scene{
		nodes:  ordmap.New[int, *Node](),
		actors: make(map[int][]int),
		lights: ordmap.New[string, Light](),
		nextID: 1,
	}
}

// AddVisual adds a shape owned by the given actor.
func (sc *Scene) AddVisual(actorID int, sh Shape, mat Material, local spatial.Pose) (*Node, error) {
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if err := mat.Validate(); err != nil {
		return nil, err
	}
	nd := &Node{VisualID: sc.nextID, ActorID: actorID, Shape: sh, Material: mat, Local: local, World: local}
	sc.nextID++
	sc.nodes.Add(nd.VisualID, nd)
	sc.actors[actorID] = append(sc.actors[actorID], nd.VisualID)
	return nd, nil
}

// RemoveVisual removes the node with the given visual id.
func (sc *Scene) RemoveVisual(id int) error {
	nd, ok := sc.nodes.Value(id)
	if !ok {
		return fmt.Errorf("render.Scene: visual %d: %w", id, errors.ErrNotPresent)
	}
	sc.nodes.Delete(id)
	ids := slices.DeleteFunc(sc.actors[nd.ActorID], func(v int) bool { return v == id })
	if len(ids) == 0 {
		delete(sc.actors, nd.ActorID)
	} else {
		sc.actors[nd.ActorID] = ids
	}
	return nil
}

// RemoveActor removes all nodes of an actor and returns how many there were.
func (sc *Scene) RemoveActor(actorID int) int {
	ids := sc.actors[actorID]
	for _, id := range ids {
		sc.nodes.Delete(id)
	}
	delete(sc.actors, actorID)
	return len(ids)
}

// Node returns the node with the given visual id.
func (sc *Scene) Node(id int) (*Node, bool) { return sc.nodes.Value(id) }

// Nodes returns all nodes in the order they were added.
func (sc *Scene) Nodes() []*Node { return sc.nodes.Values() }

// ActorNodes returns the nodes of an actor in the order they were added.
func (sc *Scene) ActorNodes(actorID int) []*Node {
	var nds []*Node
	for _, id := range sc.actors[actorID] {
		nd, _ := sc.nodes.Value(id)
		nds = append(nds, nd)
	}
	return nds
}

// SetActorPose places all nodes of an actor at pose ∘ Local.
func (sc *Scene) SetActorPose(actorID int, pose spatial.Pose) {
	for _, id := range sc.actors[actorID] {
		nd, _ := sc.nodes.Value(id)
		nd.World = pose.Mul(nd.Local)
	}
}

// AddLight adds a light; names must be unique.
func (sc *Scene) AddLight(lt Light) error {
	name := lt.AsLightBase().Name
	if sc.lights.Has(name) {
		return fmt.Errorf("render.Scene: light %q: %w", name, errors.ErrAlreadyPresent)
	}
	sc.lights.Add(name, lt)
	return nil
}

// SetLight adds or replaces the light with the light's name.
func (sc *Scene) SetLight(lt Light) {
	sc.lights.Add(lt.AsLightBase().Name, lt)
}

// RemoveLight removes the light with the given name.
func (sc *Scene) RemoveLight(name string) error {
	if !sc.lights.Delete(name) {
		return fmt.Errorf("render.Scene: light %q: %w", name, errors.ErrNotPresent)
	}
	return nil
}

// Light returns the light with the given name.
func (sc *Scene) Light(name string) (Light, bool) { return sc.lights.Value(name) }

// Lights returns the lights in the order they were added.
func (sc *Scene) Lights() []Light { return sc.lights.Values() }

// frame is an immutable copy of a scene used by a render job.
type frame struct {
	nodes   []frameNode
	ambient mgl32.Vec3
	dirs    []frameDir
	points  []framePoint
}

type frameNode struct {
	visual, actor int
	shape         Shape
	mat           Material
	pose, inv     spatial.Pose
	radius        float64
}

type frameDir struct {
	// toLight is the unit direction toward the light.
	toLight mgl64.Vec3
	rad     mgl32.Vec3
	shadow  bool
}

type framePoint struct {
	pos       mgl64.Vec3
	rad       mgl32.Vec3
	lin, quad float32
	shadow    bool
}

// snapshot copies the current scene. Shapes are shared: they are not
// modified after being added.
func (sc *Scene) snapshot() *frame {
	fr := &frame{}
	for _, nd := range sc.nodes.All() {
		fr.nodes = append(fr.nodes, frameNode{
			visual: nd.VisualID, actor: nd.ActorID, shape: nd.Shape, mat: nd.Material,
			pose: nd.World, inv: nd.World.Inv(), radius: nd.Shape.radius(),
		})
	}
	for _, lt := range sc.lights.Values() {
		lb := lt.AsLightBase()
		if !lb.On {
			continue
		}
		switch l := lt.(type) {
		case *AmbientLight:
			fr.ambient = fr.ambient.Add(lb.radiance())
		case *DirLight:
			if l.Direction.Len() == 0 {
				continue
			}
			fr.dirs = append(fr.dirs, frameDir{toLight: l.Direction.Normalize().Mul(-1), rad: lb.radiance(), shadow: lb.Shadow})
		case *PointLight:
			fr.points = append(fr.points, framePoint{pos: l.Pos, rad: lb.radiance(), lin: l.LinDecay, quad: l.QuadDecay, shadow: lb.Shadow})
		}
	}
	return fr
}
