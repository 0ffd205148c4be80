// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"image/color"
	"math"
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.RGBA{255, 255, 255, 255}

func addBox(t *testing.T, sc *Scene, name string, half float64, pose spatial.Pose, kinematic bool) *Entity {
	ab := NewActorBuilder().AddBoxCollision(cube(half)).AddBoxVisual(cube(half))
	var e *Entity
	var err error
	if kinematic {
		e, err = ab.BuildKinematic(name)
	} else {
		e, err = ab.Build(name)
	}
	require.NoError(t, err)
	e.SetPose(pose)
	require.NoError(t, sc.AddEntity(e))
	return e
}

// TestSupportEquilibrium stacks a dynamic box on a kinematic box and
// checks that the contact impulses carry its weight.
func TestSupportEquilibrium(t *testing.T) {
	sc := NewScene()
	box1 := addBox(t, sc, "box1", 0.5, spatial.At(0, 0, 1), true)
	box2 := addBox(t, sc, "box2", 0.25, spatial.At(0, 0, 1.75), false)
	dt := 0.01
	require.NoError(t, sc.SetTimestep(dt))
	for range 10 {
		require.NoError(t, sc.Step())
	}
	support := 0.0
	for _, ct := range sc.Contacts() {
		es := ct.Entities()
		require.True(t, ct.Involves(box1) && ct.Involves(box2))
		if es[0] == box2 {
			support += ct.TotalImpulse().Z() / dt
		} else {
			support -= ct.TotalImpulse().Z() / dt
		}
	}
	rb, err := Find[*RigidBody](box2)
	require.NoError(t, err)
	assert.InEpsilon(t, 9.81*rb.Mass(), support, 1e-3)
	assert.Equal(t, spatial.At(0, 0, 1), box1.Pose())
}

func TestSceneMembership(t *testing.T) {
	sc := NewScene()
	e := addBox(t, sc, "box", 0.5, spatial.At(0, 0, 1), false)
	assert.Same(t, sc, e.Scene())
	assert.NotZero(t, e.SceneID())
	assert.ErrorIs(t, sc.AddEntity(e), errors.ErrAlreadyPresent)

	other := NewScene()
	assert.ErrorIs(t, other.AddEntity(e), errors.ErrInvalidState)
	assert.ErrorIs(t, other.RemoveEntity(e), errors.ErrNotPresent)

	require.NoError(t, sc.RemoveEntity(e))
	assert.ErrorIs(t, sc.RemoveEntity(e), errors.ErrNotPresent)
	assert.Nil(t, e.Scene())
	assert.Empty(t, sc.Entities())
	assert.Empty(t, sc.World().Bodies())
	assert.Empty(t, sc.Render().Nodes())

	require.NoError(t, other.AddEntity(e))
	assert.Len(t, other.World().Bodies(), 1)
}

func TestSceneOrder(t *testing.T) {
	sc := NewScene()
	a := addBox(t, sc, "a", 0.1, spatial.At(0, 0, 1), false)
	b := addBox(t, sc, "b", 0.1, spatial.At(1, 0, 1), false)
	c := addBox(t, sc, "c", 0.1, spatial.At(2, 0, 1), false)
	require.NoError(t, sc.RemoveEntity(b))
	require.NoError(t, sc.AddEntity(b))
	assert.Equal(t, []*Entity{a, c, b}, sc.Entities())
	assert.Greater(t, b.SceneID(), c.SceneID())
}

func TestNameLookup(t *testing.T) {
	sc := NewScene()
	addBox(t, sc, "box", 0.1, spatial.At(0, 0, 1), false)
	addBox(t, sc, "box", 0.1, spatial.At(1, 0, 1), false)
	ball := addBox(t, sc, "ball", 0.1, spatial.At(2, 0, 1), false)

	_, err := sc.FindEntity("box")
	assert.ErrorIs(t, err, errors.ErrAmbiguousName)
	_, err = sc.FindEntity("nothing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	found, err := sc.FindEntity("ball")
	require.NoError(t, err)
	assert.Same(t, ball, found)

	ball.SetName("box")
	_, err = sc.FindEntity("ball")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = sc.FindArticulation("arm")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	require.NoError(t, sc.AddArticulation(pendulum(t, "arm")))
	require.NoError(t, sc.AddArticulation(pendulum(t, "arm")))
	_, err = sc.FindArticulation("arm")
	assert.ErrorIs(t, err, errors.ErrAmbiguousName)
}

func TestNameSuggestion(t *testing.T) {
	sc := NewScene()
	_, err := sc.AddGround(0)
	require.NoError(t, err)
	addBox(t, sc, "crate", 0.1, spatial.At(0, 0, 1), false)

	_, err = sc.FindEntity("grund")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Contains(t, err.Error(), `did you mean "ground"?`)
	_, err = sc.FindEntity("lamp")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.NotContains(t, err.Error(), "did you mean")

	require.NoError(t, sc.AddArticulation(pendulum(t, "arm")))
	_, err = sc.FindArticulation("amr")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = sc.FindArticulation("arms")
	assert.Contains(t, err.Error(), `did you mean "arm"?`)
}

func TestTimestepAndGravity(t *testing.T) {
	sc := NewScene()
	assert.Equal(t, 0.01, sc.Timestep())
	assert.Equal(t, mgl64.Vec3{0, 0, -9.81}, sc.Gravity())
	for _, dt := range []float64{0, -1, math.Inf(1), math.NaN()} {
		assert.ErrorIs(t, sc.SetTimestep(dt), errors.ErrInvalidArgument)
	}
	assert.ErrorIs(t, sc.SetGravity(mgl64.Vec3{math.NaN(), 0, 0}), errors.ErrInvalidArgument)

	require.NoError(t, sc.SetGravity(mgl64.Vec3{}))
	require.NoError(t, sc.SetTimestep(0.02))
	e := addBox(t, sc, "box", 0.1, spatial.At(0, 0, 1), false)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	rb.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	require.NoError(t, sc.Step())
	assert.InDelta(t, 0.02, e.Pose().P.X(), 1e-12)
}

func TestContactsOwners(t *testing.T) {
	sc := NewScene()
	assert.Empty(t, sc.Contacts())
	ground, err := sc.AddGround(0)
	require.NoError(t, err)
	ball, err := NewActorBuilder().AddSphereCollision(0.5).Build("ball")
	require.NoError(t, err)
	ball.SetPose(spatial.At(0, 0, 0.5))
	require.NoError(t, sc.AddEntity(ball))

	require.NoError(t, sc.Step())
	cts := sc.Contacts()
	require.Len(t, cts, 1)
	assert.Equal(t, [2]*Entity{ground, ball}, cts[0].Entities())
	require.Len(t, cts[0].Points, 1)
	assert.True(t, cts[0].Points[0].Normal.ApproxFuncEqual(mgl64.Vec3{0, 0, -1}, spatial.Near(1e-9)))
	assert.Less(t, cts[0].TotalImpulse().Z(), 0.0)

	require.NoError(t, sc.RemoveEntity(ball))
	assert.Empty(t, sc.Contacts())
}

func TestGroundAltitude(t *testing.T) {
	sc := NewScene()
	_, err := sc.AddGround(-1, WithColor(white))
	require.NoError(t, err)
	ball, err := NewActorBuilder().AddSphereCollision(0.2).Build("ball")
	require.NoError(t, err)
	ball.SetPose(spatial.At(0, 0, 0))
	require.NoError(t, sc.AddEntity(ball))
	for range 200 {
		require.NoError(t, sc.Step())
	}
	assert.InDelta(t, -0.8, ball.Pose().P.Z(), 0.01)
}

func TestDeterminism(t *testing.T) {
	run := func() uint64 {
		sc := NewScene()
		_, err := sc.AddGround(0)
		require.NoError(t, err)
		for i := range 3 {
			fi := float64(i)
			addBox(t, sc, "box", 0.1, spatial.NewPose(mgl64.Vec3{0.05 * fi, 0, 0.3 + 0.25*fi}, spatial.AxisAngle(mgl64.Vec3{1, 0, 1}, 0.2*fi)), false)
		}
		ar := pendulum(t, "arm")
		ar.SetRootPose(spatial.At(3, 0, 1))
		require.NoError(t, sc.AddArticulation(ar))
		for range 100 {
			require.NoError(t, sc.Step())
		}
		return sc.StateDigest()
	}
	d := run()
	assert.Equal(t, d, run())

	sc := NewScene()
	addBox(t, sc, "box", 0.1, spatial.At(0, 0, 1), false)
	before := sc.StateDigest()
	require.NoError(t, sc.Step())
	assert.NotEqual(t, before, sc.StateDigest())
}

func TestCorruptedIsSticky(t *testing.T) {
	sc := NewScene()
	e := addBox(t, sc, "box", 0.1, spatial.At(0, 0, 1), false)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	rb.SetLinearVelocity(mgl64.Vec3{math.Inf(1), 0, 0})
	assert.ErrorIs(t, sc.Step(), errors.ErrCorrupted)
	rb.SetLinearVelocity(mgl64.Vec3{})
	assert.ErrorIs(t, sc.Step(), errors.ErrCorrupted)
}

func TestAddEntityIsAtomic(t *testing.T) {
	sc := NewScene()
	_, err := sc.AddDirectionalLight("sun", mgl64.Vec3{0, 0, -1}, white, true)
	require.NoError(t, err)

	e, err := NewActorBuilder().AddSphereCollision(0.1).AddSphereVisual(0.1).Build("lamp")
	require.NoError(t, err)
	require.NoError(t, e.AddComponent(&Light{Light: render.NewPointLight("sun", mgl64.Vec3{}, white, false)}))
	assert.ErrorIs(t, sc.AddEntity(e), errors.ErrAlreadyPresent)
	assert.Nil(t, e.Scene())
	assert.Empty(t, sc.World().Bodies())
	assert.Empty(t, sc.Render().Nodes())

	bad := NewEntity("cam")
	require.NoError(t, bad.AddComponent(NewCamera(0, 10, 1, 0.1, 10)))
	assert.ErrorIs(t, sc.AddEntity(bad), errors.ErrInvalidArgument)

	_, err = sc.AddDirectionalLight("zero", mgl64.Vec3{}, white, false)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestLights(t *testing.T) {
	sc := NewScene()
	sc.SetAmbientLight(color.RGBA{50, 50, 50, 255})
	sc.SetAmbientLight(white)
	lt, ok := sc.Render().Light(AmbientLightName)
	require.True(t, ok)
	assert.Equal(t, white, lt.AsLightBase().Color)

	lamp, err := sc.AddPointLight("lamp", mgl64.Vec3{0, 0, 5}, white, true)
	require.NoError(t, err)
	lt, ok = sc.Render().Light("lamp")
	require.True(t, ok)
	pl := lt.(*render.PointLight)
	assert.Equal(t, mgl64.Vec3{0, 0, 5}, pl.Pos)

	lamp.SetPose(spatial.At(1, 2, 3))
	assert.Equal(t, mgl64.Vec3{0, 0, 5}, pl.Pos)
	sc.UpdateRender()
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, pl.Pos)

	require.NoError(t, sc.RemoveEntity(lamp))
	_, ok = sc.Render().Light("lamp")
	assert.False(t, ok)
	assert.Len(t, sc.Render().Lights(), 1)
}

func TestUpdateRenderPoses(t *testing.T) {
	sc := NewScene()
	e := addBox(t, sc, "box", 0.1, spatial.At(0, 0, 1), false)
	rb, err := Find[*RenderBody](e)
	require.NoError(t, err)
	require.Len(t, rb.Nodes(), 1)
	nd := rb.Nodes()[0]
	assert.Equal(t, e.SceneID(), nd.ActorID)
	assert.Equal(t, spatial.At(0, 0, 1), nd.World)

	require.NoError(t, sc.Step())
	assert.Equal(t, spatial.At(0, 0, 1), nd.World)
	sc.UpdateRender()
	assert.True(t, e.Pose().ApproxEqual(nd.World, 1e-12))
	world := nd.World
	sc.UpdateRender()
	assert.Equal(t, world, nd.World)
}

func TestKinematicEntity(t *testing.T) {
	sc := NewScene()
	e := addBox(t, sc, "mover", 0.5, spatial.At(0, 0, 0), true)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	assert.Equal(t, physics.Kinematic, rb.Type)
	rb.SetLinearVelocity(mgl64.Vec3{0, 1, 0})
	for range 10 {
		require.NoError(t, sc.Step())
	}
	assert.InDelta(t, 0.1, e.Pose().P.Y(), 1e-9)
	assert.InDelta(t, 0, e.Pose().P.Z(), 1e-12)
}
