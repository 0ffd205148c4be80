// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asset

import (
	"cmp"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/sim"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera defaults used for zero fields.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFovY   = 35.0
	DefaultNear   = 0.1
	DefaultFar    = 100.0
)

func vertices(vs [][3]float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		out[i] = vec(v)
	}
	return out
}

// add adds the collision shape to ab.
func (cl *Collision) add(ab *sim.ActorBuilder) error {
	ps, err := cl.Pose.Pose()
	if err != nil {
		return err
	}
	opts := []sim.ShapeOption{sim.WithPose(ps)}
	if cl.Material != nil {
		opts = append(opts, sim.WithMaterial(*cl.Material))
	}
	if cl.Density != nil {
		opts = append(opts, sim.WithDensity(*cl.Density))
	}
	switch cl.Shape {
	case "box":
		ab.AddBoxCollision(vec(cl.HalfSize), opts...)
	case "sphere":
		ab.AddSphereCollision(cl.Radius, opts...)
	case "capsule":
		ab.AddCapsuleCollision(cl.Radius, cl.HalfLength, opts...)
	case "convex_mesh":
		ab.AddConvexCollision(vertices(cl.Vertices), cl.Faces, opts...)
	case "plane":
		ab.AddPlaneCollision(opts...)
	default:
		return fmt.Errorf("unknown collision shape %q", cl.Shape)
	}
	return nil
}

// material returns the render material of the visual.
func (vi *Visual) material() render.Material {
	mt := render.DefaultMaterial()
	if vi.Color != nil {
		mt.BaseColor = vi.Color.RGBA()
	}
	if rm := vi.Material; rm != nil {
		set := func(dst *float32, src *float32) {
			if src != nil {
				*dst = *src
			}
		}
		set(&mt.Roughness, rm.Roughness)
		set(&mt.Metallic, rm.Metallic)
		set(&mt.Specular, rm.Specular)
		set(&mt.Transmission, rm.Transmission)
		set(&mt.IOR, rm.IOR)
		if rm.Emission != nil {
			mt.Emission = rm.Emission.RGBA()
		}
	}
	return mt
}

// add adds the visual shape to ab.
func (vi *Visual) add(ab *sim.ActorBuilder) error {
	ps, err := vi.Pose.Pose()
	if err != nil {
		return err
	}
	opts := []sim.ShapeOption{sim.WithPose(ps), sim.WithRenderMaterial(vi.material())}
	switch vi.Shape {
	case "box":
		ab.AddBoxVisual(vec(vi.HalfSize), opts...)
	case "sphere":
		ab.AddSphereVisual(vi.Radius, opts...)
	case "capsule":
		ab.AddCapsuleVisual(vi.Radius, vi.HalfLength, opts...)
	case "plane":
		ab.AddPlaneVisual(opts...)
	case "mesh":
		ab.AddMeshVisual(vertices(vi.Vertices), vi.Triangles, opts...)
	default:
		return fmt.Errorf("unknown visual shape %q", vi.Shape)
	}
	return nil
}

func addShapes(ab *sim.ActorBuilder, cls []Collision, vis []Visual) error {
	for i := range cls {
		if err := cls[i].add(ab); err != nil {
			return fmt.Errorf("collision %d: %w", i, err)
		}
	}
	for i := range vis {
		if err := vis[i].add(ab); err != nil {
			return fmt.Errorf("visual %d: %w", i, err)
		}
	}
	return nil
}

// Build returns a new entity for the actor, not added to any scene.
func (ac *Actor) Build() (*sim.Entity, error) {
	e, err := ac.build()
	if err != nil {
		return nil, failure(fmt.Sprintf("actor %q", ac.Name), err)
	}
	return e, nil
}

func (ac *Actor) build() (*sim.Entity, error) {
	ab := sim.NewActorBuilder()
	if err := addShapes(ab, ac.Collisions, ac.Visuals); err != nil {
		return nil, err
	}
	ps, err := ac.Pose.Pose()
	if err != nil {
		return nil, err
	}
	var e *sim.Entity
	switch ac.Type {
	case "", "dynamic":
		e, err = ab.Build(ac.Name)
	case "kinematic":
		e, err = ab.BuildKinematic(ac.Name)
	case "static":
		e, err = ab.BuildStatic(ac.Name)
	default:
		return nil, fmt.Errorf("unknown body type %q", ac.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := e.SetPose(ps); err != nil {
		return nil, err
	}
	rb, err := sim.Find[*sim.RigidBody](e)
	if err != nil {
		return nil, err
	}
	if ac.LinearDamping < 0 || ac.AngularDamping < 0 {
		return nil, fmt.Errorf("negative damping")
	}
	rb.LinearDamping, rb.AngularDamping = ac.LinearDamping, ac.AngularDamping
	if ac.LinearVelocity != nil {
		rb.SetLinearVelocity(vec(*ac.LinearVelocity))
	}
	if ac.AngularVelocity != nil {
		rb.SetAngularVelocity(vec(*ac.AngularVelocity))
	}
	return e, nil
}

// Build returns a new articulation, not added to any scene.
func (ar *Articulation) Build() (*sim.Articulation, error) {
	a, err := ar.build()
	if err != nil {
		return nil, failure(fmt.Sprintf("articulation %q", ar.Name), err)
	}
	return a, nil
}

func (ar *Articulation) build() (*sim.Articulation, error) {
	ab := sim.NewArticulationBuilder(ar.FixRootLink)
	byName := map[string]*sim.LinkBuilder{}
	targets := map[string]float64{}
	for i := range ar.Links {
		ld := &ar.Links[i]
		if _, dup := byName[ld.Name]; dup || ld.Name == "" {
			return nil, fmt.Errorf("link %d: missing or duplicate name %q", i, ld.Name)
		}
		var parent *sim.LinkBuilder
		if i > 0 {
			parent = byName[ld.Parent]
			if parent == nil {
				return nil, fmt.Errorf("link %q: unknown parent %q", ld.Name, ld.Parent)
			}
		} else if ld.Parent != "" {
			return nil, fmt.Errorf("root link %q has parent %q", ld.Name, ld.Parent)
		}
		lb := ab.CreateLinkBuilder(parent).SetName(ld.Name)
		byName[ld.Name] = lb
		if err := addShapes(&lb.ActorBuilder, ld.Collisions, ld.Visuals); err != nil {
			return nil, fmt.Errorf("link %q: %w", ld.Name, err)
		}
		if i == 0 {
			continue
		}
		jd := &ld.Joint
		typ, err := physics.ParseJointType(cmp.Or(jd.Type, "fixed"))
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", ld.Name, err)
		}
		inParent, err := jd.PoseInParent.Pose()
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", ld.Name, err)
		}
		inChild, err := jd.PoseInChild.Pose()
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", ld.Name, err)
		}
		lb.SetJoint(jd.Name, typ, inParent, inChild).SetDamping(jd.Damping).SetDrive(jd.Stiffness, jd.DriveDamping)
		if jd.Limits != nil {
			lb.SetLimits(jd.Limits[0], jd.Limits[1])
		}
		targets[ld.Name] = jd.Target
	}
	a, err := ab.Build(ar.Name)
	if err != nil {
		return nil, err
	}
	for _, e := range a.Links() {
		if ln, err := sim.Find[*sim.Link](e); err == nil {
			ln.Joint.Target = targets[e.Name()]
		}
	}
	rp, err := ar.RootPose.Pose()
	if err != nil {
		return nil, err
	}
	a.SetRootPose(rp)
	if ar.QPos != nil {
		if err := a.SetQPos(ar.QPos); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Loaded holds everything a [Scene.Populate] call added.
type Loaded struct {
	Ground        *sim.Entity
	Actors        []*sim.Entity
	Articulations []*sim.Articulation
	Lights        []*sim.Entity
	Cameras       []*sim.Camera
}

// remove removes everything loaded from sc, in reverse order.
func (ld *Loaded) remove(sc *sim.Scene) {
	for i := len(ld.Cameras) - 1; i >= 0; i-- {
		sc.RemoveEntity(ld.Cameras[i].Entity())
	}
	for i := len(ld.Lights) - 1; i >= 0; i-- {
		sc.RemoveEntity(ld.Lights[i])
	}
	for i := len(ld.Articulations) - 1; i >= 0; i-- {
		sc.RemoveArticulation(ld.Articulations[i])
	}
	for i := len(ld.Actors) - 1; i >= 0; i-- {
		sc.RemoveEntity(ld.Actors[i])
	}
	if ld.Ground != nil {
		sc.RemoveEntity(ld.Ground)
	}
}

// Populate builds the described scene into sc. Either everything is
// added or, on an [errors.ErrAssetLoadFailure] error, nothing is.
func (sd *Scene) Populate(sc *sim.Scene) (*Loaded, error) {
	if sd.Timestep != nil && !(*sd.Timestep > 0 && !math.IsInf(*sd.Timestep, 0)) {
		return nil, failure("scene", fmt.Errorf("timestep %g", *sd.Timestep))
	}
	if g := sd.Gravity; g != nil {
		for _, v := range g {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, failure("scene", fmt.Errorf("gravity %v", *g))
			}
		}
	}
	ld := &Loaded{}
	var actors []*sim.Entity
	for i := range sd.Actors {
		e, err := sd.Actors[i].Build()
		if err != nil {
			return nil, err
		}
		actors = append(actors, e)
	}
	var arts []*sim.Articulation
	for i := range sd.Articulations {
		a, err := sd.Articulations[i].Build()
		if err != nil {
			return nil, err
		}
		arts = append(arts, a)
	}

	err := sd.add(sc, ld, actors, arts)
	if err != nil {
		ld.remove(sc)
		return nil, err
	}
	if sd.Gravity != nil {
		sc.SetGravity(vec(*sd.Gravity))
	}
	if sd.Timestep != nil {
		sc.SetTimestep(*sd.Timestep)
	}
	if sd.Ambient != nil {
		sc.SetAmbientLight(sd.Ambient.RGBA())
	}
	slog.Info("asset: loaded scene", "actors", len(ld.Actors), "articulations", len(ld.Articulations), "lights", len(ld.Lights), "cameras", len(ld.Cameras))
	return ld, nil
}

// add adds the built entities, then lights and cameras, to sc,
// recording them in ld.
func (sd *Scene) add(sc *sim.Scene, ld *Loaded, actors []*sim.Entity, arts []*sim.Articulation) error {
	if gd := sd.Ground; gd != nil {
		var opts []sim.ShapeOption
		if gd.Material != nil {
			opts = append(opts, sim.WithMaterial(*gd.Material))
		}
		if gd.Color != nil {
			opts = append(opts, sim.WithColor(gd.Color.RGBA()))
		}
		g, err := sc.AddGround(gd.Altitude, opts...)
		if err != nil {
			return failure("ground", err)
		}
		ld.Ground = g
	}
	named := map[string][]*sim.Entity{}
	for _, e := range actors {
		if err := sc.AddEntity(e); err != nil {
			return failure(fmt.Sprintf("actor %q", e.Name()), err)
		}
		ld.Actors = append(ld.Actors, e)
		named[e.Name()] = append(named[e.Name()], e)
	}
	for _, a := range arts {
		if err := sc.AddArticulation(a); err != nil {
			return failure(fmt.Sprintf("articulation %q", a.Name()), err)
		}
		ld.Articulations = append(ld.Articulations, a)
		for _, e := range a.Links() {
			named[e.Name()] = append(named[e.Name()], e)
		}
	}
	for _, lt := range sd.Lights {
		c := color.RGBA{255, 255, 255, 255}
		if lt.Color != nil {
			c = lt.Color.RGBA()
		}
		var e *sim.Entity
		var err error
		switch lt.Type {
		case "directional":
			e, err = sc.AddDirectionalLight(lt.Name, vec(lt.Direction), c, lt.Shadow)
		case "point":
			e, err = sc.AddPointLight(lt.Name, vec(lt.Position), c, lt.Shadow)
		default:
			err = fmt.Errorf("unknown light type %q", lt.Type)
		}
		if err != nil {
			return failure(fmt.Sprintf("light %q", lt.Name), err)
		}
		ld.Lights = append(ld.Lights, e)
	}
	for _, cd := range sd.Cameras {
		cm, err := cd.add(sc, named)
		if err != nil {
			return failure(fmt.Sprintf("camera %q", cd.Name), err)
		}
		ld.Cameras = append(ld.Cameras, cm)
	}
	return nil
}

func (cd *Camera) add(sc *sim.Scene, named map[string][]*sim.Entity) (*sim.Camera, error) {
	ps, err := cd.Pose.Pose()
	if err != nil {
		return nil, err
	}
	w, h := cmp.Or(cd.Width, DefaultWidth), cmp.Or(cd.Height, DefaultHeight)
	fovy := cmp.Or(cd.FovY, DefaultFovY) * math.Pi / 180
	near, far := cmp.Or(cd.Near, DefaultNear), cmp.Or(cd.Far, DefaultFar)
	if cd.Mount == "" {
		return sc.AddCamera(cd.Name, ps, w, h, fovy, near, far)
	}
	mounts := named[cd.Mount]
	if len(mounts) != 1 {
		return nil, fmt.Errorf("mount %q matches %d entities", cd.Mount, len(mounts))
	}
	return sc.AddMountedCamera(cd.Name, mounts[0], ps, w, h, fovy, near, far)
}

// Load reads the scene description in the given file and populates sc.
func Load(sc *sim.Scene, filename string) (*Loaded, error) {
	sd, err := Open(filename)
	if err != nil {
		return nil, err
	}
	return sd.Populate(sc)
}
