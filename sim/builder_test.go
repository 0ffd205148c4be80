// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"image/color"
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(half float64) mgl64.Vec3 { return mgl64.Vec3{half, half, half} }

func TestBuilderSnapshot(t *testing.T) {
	ab := NewActorBuilder().AddBoxCollision(cube(0.5)).AddSphereVisual(0.5)
	e1, err := ab.Build("first")
	require.NoError(t, err)

	ab.Collisions[0].HalfSize = cube(1)
	ab.Visuals[0].Radius = 2
	ab.AddBoxVisual(cube(1))
	e2, err := ab.Build("second")
	require.NoError(t, err)

	rb1, err := Find[*RigidBody](e1)
	require.NoError(t, err)
	rb2, err := Find[*RigidBody](e2)
	require.NoError(t, err)
	assert.InEpsilon(t, 1000, rb1.Mass(), 1e-12)
	assert.InEpsilon(t, 8000, rb2.Mass(), 1e-12)

	vis1, err := Find[*RenderBody](e1)
	require.NoError(t, err)
	require.Len(t, vis1.Visuals, 1)
	assert.Equal(t, 0.5, vis1.Visuals[0].Shape.(*render.Sphere).Radius)
	vis2, err := Find[*RenderBody](e2)
	require.NoError(t, err)
	assert.Len(t, vis2.Visuals, 2)
	assert.Nil(t, e1.Scene())
}

func TestBuilderSnapshotMaterial(t *testing.T) {
	ab := NewActorBuilder().AddSphereCollision(0.1, WithMaterial(physics.Material{StaticFriction: 1, DynamicFriction: 0.5, Restitution: 0.2}))
	e, err := ab.Build("ball")
	require.NoError(t, err)
	ab.Collisions[0].Material.Restitution = 0.9
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	assert.Equal(t, 0.2, rb.Shapes[0].Material.Restitution)
}

func TestBuilderOptions(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	e, err := NewActorBuilder().
		AddBoxCollision(cube(0.1), WithPose(spatial.At(1, 0, 0)), WithDensity(500)).
		AddCapsuleVisual(0.1, 0.2, WithColor(red), WithPose(spatial.At(0, 1, 0))).
		BuildKinematic("options")
	require.NoError(t, err)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	assert.Equal(t, physics.Kinematic, rb.Type)
	assert.InEpsilon(t, 500*0.008, rb.Mass(), 1e-12)
	assert.True(t, rb.MassProperties().CMass.ApproxFuncEqual(mgl64.Vec3{1, 0, 0}, spatial.Near(1e-9)))
	vis, err := Find[*RenderBody](e)
	require.NoError(t, err)
	assert.Equal(t, red, vis.Visuals[0].Material.BaseColor)
	assert.Equal(t, spatial.At(0, 1, 0), vis.Visuals[0].Local)
}

func TestBuilderDefaultMaterial(t *testing.T) {
	t.Cleanup(config.Reset)
	mt := physics.Material{StaticFriction: 0.8, DynamicFriction: 0.6, Restitution: 0.5}
	require.NoError(t, config.SetDefaultMaterial(mt))
	e, err := NewActorBuilder().AddSphereCollision(0.2).Build("ball")
	require.NoError(t, err)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	assert.Equal(t, mt, rb.Shapes[0].Material)
	assert.Equal(t, config.DefaultMaterial(), mt)
}

func TestBuilderValidate(t *testing.T) {
	tests := []struct {
		name string
		ab   *ActorBuilder
	}{
		{"zero box", NewActorBuilder().AddBoxCollision(cube(0))},
		{"negative radius", NewActorBuilder().AddSphereCollision(-1)},
		{"zero density", NewActorBuilder().AddSphereCollision(1, WithDensity(0))},
		{"negative friction", NewActorBuilder().AddSphereCollision(1, WithMaterial(physics.Material{StaticFriction: -1}))},
		{"restitution", NewActorBuilder().AddSphereCollision(1, WithMaterial(physics.Material{Restitution: 2}))},
		{"render material", NewActorBuilder().AddSphereVisual(1, WithRenderMaterial(render.Material{Roughness: 2}))},
		{"plane on dynamic", NewActorBuilder().AddPlaneCollision()},
		{"mesh index", NewActorBuilder().AddMeshVisual([]mgl64.Vec3{{0, 0, 0}}, [][3]int{{0, 1, 2}})},
		{"convex faces", NewActorBuilder().AddConvexCollision([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, [][]int{{0, 1}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ab.Build(tt.name)
			assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		})
	}
	e, err := NewActorBuilder().AddPlaneCollision().BuildStatic("ground")
	require.NoError(t, err)
	rb, err := Find[*RigidBody](e)
	require.NoError(t, err)
	assert.Equal(t, physics.Static, rb.Type)
}
