// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeebo/xxh3"
)

// AmbientLightName is the name of the scene-level ambient light in
// the render scene.
const AmbientLightName = "ambient"

// Scene holds entities and articulations, steps their physics and
// keeps the render scene in sync with them. A Scene must only be used
// from one goroutine; camera pictures render on their own goroutines
// from snapshots.
type Scene struct {
	world  *physics.World
	render *render.Scene

	// entities and articulations are keyed by scene id, in the order added.
	entities      *orderedmap.OrderedMap[int, *Entity]
	articulations *orderedmap.OrderedMap[int, *Articulation]

	dt       float64
	nextID   int
	contacts []Contact
}

// NewScene returns an empty scene with the gravity, timestep and
// solver parameters of the current config.
func NewScene() *Scene {
	cf := config.Get().Scene
	sc := &Scene{
		world:         physics.NewWorld(),
		render:        render.NewScene(),
		entities:      orderedmap.NewOrderedMap[int, *Entity](),
		articulations: orderedmap.NewOrderedMap[int, *Articulation](),
		dt:            cf.Timestep,
		nextID:        1,
	}
	sc.world.Gravity = cf.Gravity
	sc.world.Params = cf.Solver
	return sc
}

// World returns the physics world of the scene.
func (sc *Scene) World() *physics.World { return sc.world }

// Render returns the render scene of the scene.
func (sc *Scene) Render() *render.Scene { return sc.render }

// Timestep returns the step size in seconds.
func (sc *Scene) Timestep() float64 { return sc.dt }

// SetTimestep sets the step size; it must be positive and finite.
func (sc *Scene) SetTimestep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("sim.Scene: timestep %g: %w", dt, errors.ErrInvalidArgument)
	}
	sc.dt = dt
	return nil
}

func (sc *Scene) Gravity() mgl64.Vec3 { return sc.world.Gravity }

// SetGravity sets the gravitational acceleration; it must be finite.
func (sc *Scene) SetGravity(g mgl64.Vec3) error {
	for _, v := range g {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sim.Scene: gravity %v: %w", g, errors.ErrInvalidArgument)
		}
	}
	sc.world.Gravity = g
	return nil
}

// Entities returns the entities added with [Scene.AddEntity], in the
// order added. Articulation links are not included.
func (sc *Scene) Entities() []*Entity {
	es := make([]*Entity, 0, sc.entities.Len())
	for el := sc.entities.Front(); el != nil; el = el.Next() {
		es = append(es, el.Value)
	}
	return es
}

// Articulations returns the articulations in the order added.
func (sc *Scene) Articulations() []*Articulation {
	as := make([]*Articulation, 0, sc.articulations.Len())
	for el := sc.articulations.Front(); el != nil; el = el.Next() {
		as = append(as, el.Value)
	}
	return as
}

// allEntities returns the entities followed by the articulation links.
func (sc *Scene) allEntities() []*Entity {
	es := sc.Entities()
	for _, ar := range sc.Articulations() {
		es = append(es, ar.links...)
	}
	return es
}

// AddEntity adds an entity with all its components. Adding an entity
// that is already in the scene is [errors.ErrAlreadyPresent]; an
// entity in another scene or an articulation link is
// [errors.ErrInvalidState]. Nothing is added when an error is returned.
func (sc *Scene) AddEntity(e *Entity) error {
	switch {
	case e.scene == sc:
		return fmt.Errorf("sim.Scene: %v: %w", e, errors.ErrAlreadyPresent)
	case e.scene != nil:
		return fmt.Errorf("sim.Scene: %v is in another scene: %w", e, errors.ErrInvalidState)
	case e.link() != nil:
		return fmt.Errorf("sim.Scene: %v is an articulation link: %w", e, errors.ErrInvalidState)
	}
	if err := sc.checkAttach([]*Entity{e}); err != nil {
		return err
	}
	if rb, err := Find[*RigidBody](e); err == nil {
		if err := sc.world.AddBody(rb.RigidBody); err != nil {
			return err
		}
	}
	sc.attach(e)
	sc.entities.Set(e.sceneID, e)
	slog.Debug("sim.Scene: added entity", "entity", e.name, "id", e.sceneID)
	return nil
}

// RemoveEntity removes an entity added with [Scene.AddEntity].
func (sc *Scene) RemoveEntity(e *Entity) error {
	switch {
	case e.link() != nil:
		return fmt.Errorf("sim.Scene: %v is an articulation link: %w", e, errors.ErrInvalidState)
	case e.scene != sc:
		return fmt.Errorf("sim.Scene: %v: %w", e, errors.ErrNotPresent)
	}
	if rb, err := Find[*RigidBody](e); err == nil {
		errors.Log(sc.world.RemoveBody(rb.RigidBody))
	}
	sc.entities.Delete(e.sceneID)
	sc.detach(e)
	return nil
}

// AddArticulation adds an articulation and all its links, with the
// same membership rules as [Scene.AddEntity].
func (sc *Scene) AddArticulation(ar *Articulation) error {
	switch {
	case ar.scene == sc:
		return fmt.Errorf("sim.Scene: articulation %q: %w", ar.Name(), errors.ErrAlreadyPresent)
	case ar.scene != nil:
		return fmt.Errorf("sim.Scene: articulation %q is in another scene: %w", ar.Name(), errors.ErrInvalidState)
	}
	if err := sc.checkAttach(ar.links); err != nil {
		return err
	}
	if err := sc.world.AddArticulation(ar.art); err != nil {
		return err
	}
	ar.scene = sc
	ar.id = sc.nextID
	sc.nextID++
	for _, e := range ar.links {
		sc.attach(e)
	}
	sc.articulations.Set(ar.id, ar)
	slog.Debug("sim.Scene: added articulation", "articulation", ar.Name(), "links", len(ar.links), "dof", ar.DOF())
	return nil
}

// RemoveArticulation removes an articulation and all its links.
func (sc *Scene) RemoveArticulation(ar *Articulation) error {
	if ar.scene != sc {
		return fmt.Errorf("sim.Scene: articulation %q: %w", ar.Name(), errors.ErrNotPresent)
	}
	errors.Log(sc.world.RemoveArticulation(ar.art))
	sc.articulations.Delete(ar.id)
	for _, e := range ar.links {
		sc.detach(e)
	}
	ar.scene = nil
	ar.id = 0
	return nil
}

// checkAttach validates the visuals, lights and cameras of entities
// about to be added, so that adding never fails half way.
func (sc *Scene) checkAttach(es []*Entity) error {
	names := map[string]bool{}
	for _, e := range es {
		for _, c := range e.Components(RenderBodyKind) {
			for _, vis := range c.(*RenderBody).Visuals {
				if vis.Shape == nil {
					return fmt.Errorf("sim.Scene: %v: nil visual shape: %w", e, errors.ErrInvalidArgument)
				}
				if err := vis.Shape.Validate(); err != nil {
					return err
				}
				if err := vis.Material.Validate(); err != nil {
					return err
				}
			}
		}
		for _, c := range e.Components(LightKind) {
			lt := c.(*Light).Light
			if lt == nil {
				return fmt.Errorf("sim.Scene: %v: nil light: %w", e, errors.ErrInvalidArgument)
			}
			name := lt.AsLightBase().Name
			if _, has := sc.render.Light(name); has || names[name] {
				return fmt.Errorf("sim.Scene: %v: light %q: %w", e, name, errors.ErrAlreadyPresent)
			}
			names[name] = true
		}
		for _, c := range e.Components(CameraKind) {
			cm := c.(*Camera)
			rc := render.Camera{Name: e.name, Width: cm.Width, Height: cm.Height, FovY: cm.FovY, Near: cm.Near, Far: cm.Far}
			if err := rc.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// attach assigns the scene id of an entity and adds its visuals,
// lights and camera to the render scene. The body is added by the caller.
func (sc *Scene) attach(e *Entity) {
	e.scene = sc
	e.sceneID = sc.nextID
	sc.nextID++
	for _, c := range e.Components(RenderBodyKind) {
		rb := c.(*RenderBody)
		rb.nodes = rb.nodes[:0]
		for _, vis := range rb.Visuals {
			nd := errors.Must1(sc.render.AddVisual(e.sceneID, vis.Shape, vis.Material, vis.Local))
			rb.nodes = append(rb.nodes, nd)
		}
	}
	sc.render.SetActorPose(e.sceneID, e.Pose())
	for _, c := range e.Components(LightKind) {
		lt := c.(*Light)
		if pl, ok := lt.Light.(*render.PointLight); ok {
			lt.local = pl.Pos
			pl.Pos = e.Pose().Apply(lt.local)
		}
		errors.Must(sc.render.AddLight(lt.Light))
	}
	for _, c := range e.Components(CameraKind) {
		cm := c.(*Camera)
		cm.cam = errors.Must1(render.NewCamera(sc.render, e.name, cm.Width, cm.Height, cm.FovY, cm.Near, cm.Far))
	}
}

// detach undoes [Scene.attach] and drops the contacts of the entity.
func (sc *Scene) detach(e *Entity) {
	sc.render.RemoveActor(e.sceneID)
	for _, c := range e.Components(RenderBodyKind) {
		c.(*RenderBody).nodes = nil
	}
	for _, c := range e.Components(LightKind) {
		lt := c.(*Light)
		errors.Log(sc.render.RemoveLight(lt.Light.AsLightBase().Name))
		if pl, ok := lt.Light.(*render.PointLight); ok {
			pl.Pos = lt.local
		}
	}
	for _, c := range e.Components(CameraKind) {
		c.(*Camera).cam = nil
	}
	kept := sc.contacts[:0]
	for _, ct := range sc.contacts {
		if !ct.Involves(e) {
			kept = append(kept, ct)
		}
	}
	sc.contacts = kept
	e.scene = nil
	e.sceneID = 0
}

// Step advances the simulation by one timestep and replaces the
// contacts. Once the state becomes non-finite, Step returns an
// [errors.ErrCorrupted] error for that step and every later one.
func (sc *Scene) Step() error {
	sc.contacts = sc.contacts[:0]
	if err := sc.world.Step(sc.dt); err != nil {
		return err
	}
	for _, pc := range sc.world.Contacts() {
		if ct, ok := newContact(&pc); ok {
			sc.contacts = append(sc.contacts, ct)
		}
	}
	return nil
}

// Contacts returns the contacts of the last step.
func (sc *Scene) Contacts() []Contact {
	return append([]Contact(nil), sc.contacts...)
}

// UpdateRender copies entity and link poses into the render scene,
// moves point lights with their entities and syncs cameras to their
// entity or mount. It is idempotent.
func (sc *Scene) UpdateRender() {
	all := sc.allEntities()
	for _, e := range all {
		ps := e.Pose()
		sc.render.SetActorPose(e.sceneID, ps)
		for _, c := range e.Components(LightKind) {
			lt := c.(*Light)
			if pl, ok := lt.Light.(*render.PointLight); ok {
				pl.Pos = ps.Apply(lt.local)
			}
		}
	}
	for _, e := range all {
		for _, c := range e.Components(CameraKind) {
			cm := c.(*Camera)
			cm.cam.Sync(cm.worldPose())
		}
	}
}

// AddGround adds a static entity named "ground" with a plane collision
// shape and a plane visual at the given altitude.
func (sc *Scene) AddGround(altitude float64, opts ...ShapeOption) (*Entity, error) {
	e, err := NewActorBuilder().AddPlaneCollision(opts...).AddPlaneVisual(opts...).BuildStatic("ground")
	if err != nil {
		return nil, err
	}
	if err := e.SetPose(spatial.At(0, 0, altitude)); err != nil {
		return nil, err
	}
	return e, sc.AddEntity(e)
}

// SetAmbientLight sets the color of the scene-level ambient light.
func (sc *Scene) SetAmbientLight(c color.RGBA) {
	sc.render.SetLight(render.NewAmbientLight(AmbientLightName, c))
}

func (sc *Scene) addLight(name string, pose spatial.Pose, lt render.Light) (*Entity, error) {
	e := NewEntity(name)
	errors.Must(e.SetPose(pose))
	errors.Must(e.AddComponent(&Light{Light: lt}))
	if err := sc.AddEntity(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddDirectionalLight adds an entity with a directional light shining
// along dir, in world coordinates.
func (sc *Scene) AddDirectionalLight(name string, dir mgl64.Vec3, c color.RGBA, shadow bool) (*Entity, error) {
	if dir.Len() == 0 {
		return nil, fmt.Errorf("sim.Scene: light %q: zero direction: %w", name, errors.ErrInvalidArgument)
	}
	return sc.addLight(name, spatial.Identity(), render.NewDirLight(name, dir.Normalize(), c, shadow))
}

// AddPointLight adds an entity at pos with a point light that follows
// the entity.
func (sc *Scene) AddPointLight(name string, pos mgl64.Vec3, c color.RGBA, shadow bool) (*Entity, error) {
	return sc.addLight(name, spatial.NewPose(pos, mgl64.QuatIdent()), render.NewPointLight(name, mgl64.Vec3{}, c, shadow))
}

// AddCamera adds an entity at the given pose with a camera.
func (sc *Scene) AddCamera(name string, pose spatial.Pose, width, height int, fovy, near, far float64) (*Camera, error) {
	cm := NewCamera(width, height, fovy, near, far)
	e := NewEntity(name)
	errors.Must(e.SetPose(pose))
	errors.Must(e.AddComponent(cm))
	if err := sc.AddEntity(e); err != nil {
		return nil, err
	}
	return cm, nil
}

// AddMountedCamera adds a camera that follows mount at the relative pose.
func (sc *Scene) AddMountedCamera(name string, mount *Entity, relative spatial.Pose, width, height int, fovy, near, far float64) (*Camera, error) {
	if mount == nil || mount.scene != sc {
		return nil, fmt.Errorf("sim.Scene: camera %q: mount not in the scene: %w", name, errors.ErrInvalidArgument)
	}
	cm := NewCamera(width, height, fovy, near, far)
	cm.SetMount(mount, relative)
	e := NewEntity(name)
	errors.Must(e.AddComponent(cm))
	if err := sc.AddEntity(e); err != nil {
		return nil, err
	}
	return cm, nil
}

// findByName returns the only item with the given name.
func findByName[T any](items []T, name string, nameOf func(T) string, what string) (T, error) {
	var found []T
	for _, it := range items {
		if nameOf(it) == name {
			found = append(found, it)
		}
	}
	var zv T
	switch len(found) {
	case 0:
		if sg := suggestion(name, items, nameOf); sg != "" {
			return zv, fmt.Errorf("sim.Scene: %s %q: %w; did you mean %q?", what, name, errors.ErrNotFound, sg)
		}
		return zv, fmt.Errorf("sim.Scene: %s %q: %w", what, name, errors.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return zv, fmt.Errorf("sim.Scene: %s %q: %d matches: %w", what, name, len(found), errors.ErrAmbiguousName)
}

// suggestion returns the item name most similar to name, or "" when
// none is close enough to be a likely misspelling.
func suggestion[T any](name string, items []T, nameOf func(T) string) string {
	lev := metrics.NewLevenshtein()
	best, bestSim := "", 0.6
	for _, it := range items {
		n := nameOf(it)
		if s := strutil.Similarity(name, n, lev); s > bestSim {
			best, bestSim = n, s
		}
	}
	return best
}

// FindEntity returns the only entity with the given name, including
// articulation links. It is [errors.ErrNotFound] when there is none
// and [errors.ErrAmbiguousName] when there are several.
func (sc *Scene) FindEntity(name string) (*Entity, error) {
	return findByName(sc.allEntities(), name, (*Entity).Name, "entity")
}

// FindArticulation returns the only articulation with the given name,
// with the same errors as [Scene.FindEntity].
func (sc *Scene) FindArticulation(name string) (*Articulation, error) {
	return findByName(sc.Articulations(), name, (*Articulation).Name, "articulation")
}

// StateDigest returns a hash of the physical state of all bodies and
// articulations: poses, velocities and joint coordinates.
func (sc *Scene) StateDigest() uint64 {
	h := xxh3.New()
	var buf []byte
	put := func(vs ...float64) {
		for _, v := range vs {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	state := func(b physics.Body) {
		bb := b.AsBodyBase()
		pa := bb.State.Pose.Array()
		put(pa[:]...)
		put(bb.State.LinVel[:]...)
		put(bb.State.AngVel[:]...)
	}
	for _, e := range sc.Entities() {
		if b := e.body(); b != nil {
			state(b.PhysicsBody())
		}
	}
	for _, ar := range sc.Articulations() {
		put(ar.QPos()...)
		put(ar.QVel()...)
		for _, e := range ar.links {
			state(e.link().Link)
		}
	}
	h.Write(buf)
	return h.Sum64()
}
