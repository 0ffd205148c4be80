// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"image/color"
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIdentity(t *testing.T) {
	a, b := NewEntity("same"), NewEntity("same")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.Name(), b.Name())
	a.SetName("other")
	assert.Equal(t, "other", a.Name())
	assert.Equal(t, 0, a.SceneID())
	assert.Equal(t, spatial.Identity(), a.Pose())
}

func TestPoseRoundTrip(t *testing.T) {
	q := mgl64.Quat{W: 0.5, V: mgl64.Vec3{0.5, 0.5, 0.5}}
	ps := spatial.NewPose(mgl64.Vec3{0.1, -2.3, 4.56}, q)

	e := NewEntity("free")
	require.NoError(t, e.SetPose(ps))
	assert.Equal(t, ps, e.Pose())
	assert.Equal(t, ps.Array(), e.Pose().Array())

	body, err := NewActorBuilder().AddSphereCollision(0.1).Build("body")
	require.NoError(t, err)
	require.NoError(t, body.SetPose(ps))
	assert.Equal(t, ps, body.Pose())
	assert.Equal(t, ps, spatial.PoseFromArray(body.Pose().Array()))
}

func TestSetPoseOnLink(t *testing.T) {
	ar := pendulum(t, "pend")
	ar.SetRootPose(spatial.At(0, 0, 1))
	arm := ar.Links()[1]
	before := arm.Pose()

	err := arm.SetPose(spatial.At(5, 5, 5))
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	assert.Equal(t, before, arm.Pose())
	assert.ErrorIs(t, ar.Root().SetPose(spatial.Identity()), errors.ErrInvalidState)
	assert.True(t, ar.RootPose().ApproxEqual(spatial.At(0, 0, 1), 1e-12))
}

func TestComponentComposition(t *testing.T) {
	e, err := NewActorBuilder().AddSphereCollision(0.1).Build("ball")
	require.NoError(t, err)

	rb, err := NewActorBuilder().AddSphereCollision(0.1).Build("other")
	require.NoError(t, err)
	second, err := Find[*RigidBody](rb)
	require.NoError(t, err)
	// already attached to another entity
	assert.ErrorIs(t, e.AddComponent(second), errors.ErrInvalidState)

	body, err := e.Body()
	require.NoError(t, err)
	assert.Same(t, e, body.AsComponentBase().Entity())
	assert.Equal(t, body, body.PhysicsBody().AsBodyBase().Owner)

	require.NoError(t, e.AddComponent(NewCamera(8, 8, 1, 0.1, 10)))
	assert.ErrorIs(t, e.AddComponent(NewCamera(8, 8, 1, 0.1, 10)), errors.ErrInvalidState)

	require.NoError(t, e.AddComponent(&Light{Light: render.NewAmbientLight("l1", color.RGBA{255, 255, 255, 255})}))
	require.NoError(t, e.AddComponent(&Light{Light: render.NewAmbientLight("l2", color.RGBA{255, 255, 255, 255})}))
	assert.Len(t, e.Components(LightKind), 2)
	assert.Len(t, e.AllComponents(), 4)

	c, err := e.FindComponent(CameraKind)
	require.NoError(t, err)
	assert.Equal(t, CameraKind, c.Kind())
	_, err = e.FindComponent(LinkKind)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = Find[*Link](e)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	bare := NewEntity("bare")
	_, err = bare.Body()
	assert.ErrorIs(t, err, errors.ErrNotFound)

	sc := NewScene()
	require.NoError(t, sc.AddEntity(e))
	assert.ErrorIs(t, e.AddComponent(&RenderBody{}), errors.ErrInvalidState)
}

func TestComponentKindsString(t *testing.T) {
	assert.Equal(t, "RigidBody", RigidBodyKind.String())
	assert.Equal(t, "Link", LinkKind.String())
	assert.Equal(t, "ComponentKinds(9)", ComponentKinds(9).String())
}
