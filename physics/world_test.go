// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBox(t *testing.T, name string, typ BodyTypes, half float64, z float64) *RigidBody {
	rb, err := NewRigidBody(name, typ, []*CollisionShape{boxShape(t, mgl64.Vec3{half, half, half}, spatial.Identity())})
	require.NoError(t, err)
	rb.SetPose(spatial.At(0, 0, z))
	return rb
}

func newGround(t *testing.T) *RigidBody {
	cs, err := NewCollisionShape(&Plane{}, spatial.Identity(), DefaultMaterial(), DefaultDensity)
	require.NoError(t, err)
	rb, err := NewRigidBody("ground", Static, []*CollisionShape{cs})
	require.NoError(t, err)
	return rb
}

func TestWorldMembership(t *testing.T) {
	wr := NewWorld()
	rb := newBox(t, "box", Dynamic, 0.5, 1)
	require.NoError(t, wr.AddBody(rb))
	assert.ErrorIs(t, wr.AddBody(rb), errors.ErrAlreadyPresent)
	require.NoError(t, wr.RemoveBody(rb))
	assert.ErrorIs(t, wr.RemoveBody(rb), errors.ErrNotPresent)
	assert.ErrorIs(t, wr.Step(0), errors.ErrInvalidArgument)
}

func TestFreeFall(t *testing.T) {
	wr := NewWorld()
	rb := newBox(t, "box", Dynamic, 0.1, 10)
	require.NoError(t, wr.AddBody(rb))
	for range 100 {
		require.NoError(t, wr.Step(0.01))
	}
	assert.InDelta(t, -9.81, rb.LinearVelocity().Z(), 1e-9)
	assert.Empty(t, wr.Contacts())
}

// TestSupportForce checks that the impulses on a box resting on a
// kinematic box add up to its weight.
func TestSupportForce(t *testing.T) {
	wr := NewWorld()
	box1 := newBox(t, "box1", Kinematic, 0.5, 1)
	box2 := newBox(t, "box2", Dynamic, 0.25, 1.75)
	require.NoError(t, wr.AddBody(box1))
	require.NoError(t, wr.AddBody(box2))
	dt := 0.01
	for range 10 {
		require.NoError(t, wr.Step(dt))
	}
	support := 0.0
	for _, ct := range wr.Contacts() {
		for _, pt := range ct.Points {
			if ct.Bodies[0] == Body(box2) {
				support += pt.Impulse.Z() / dt
			} else {
				support -= pt.Impulse.Z() / dt
			}
		}
	}
	weight := 9.81 * box2.Mass()
	assert.InEpsilon(t, weight, support, 1e-3)
	assert.Equal(t, spatial.At(0, 0, 1), box1.Pose())
	assert.InDelta(t, 1.75, box2.Pose().P.Z(), 1e-4)
}

func TestContactConvention(t *testing.T) {
	wr := NewWorld()
	ground := newGround(t)
	cs, err := NewCollisionShape(&Sphere{Radius: 0.5}, spatial.Identity(), DefaultMaterial(), DefaultDensity)
	require.NoError(t, err)
	ball, err := NewRigidBody("ball", Dynamic, []*CollisionShape{cs})
	require.NoError(t, err)
	ball.SetPose(spatial.At(0, 0, 0.5))
	require.NoError(t, wr.AddBody(ground))
	require.NoError(t, wr.AddBody(ball))
	require.NoError(t, wr.Step(0.01))
	cts := wr.Contacts()
	require.Len(t, cts, 1)
	ct := cts[0]
	assert.Equal(t, Body(ground), ct.Bodies[0])
	assert.Equal(t, Body(ball), ct.Bodies[1])
	require.Len(t, ct.Points, 1)
	pt := ct.Points[0]
	// normal from the second body (ball) toward the first (ground)
	assert.True(t, pt.Normal.ApproxFuncEqual(mgl64.Vec3{0, 0, -1}, spatial.Near(1e-9)))
	assert.InDelta(t, 0, pt.Separation, 1e-9)
	assert.Less(t, pt.Impulse.Z(), 0.0)
}

func TestRestingOnGround(t *testing.T) {
	wr := NewWorld()
	require.NoError(t, wr.AddBody(newGround(t)))
	box := newBox(t, "box", Dynamic, 0.1, 0.5)
	box.SetPose(spatial.NewPose(mgl64.Vec3{0, 0, 0.5}, spatial.AxisAngle(mgl64.Vec3{1, 1, 0}, 0.3)))
	require.NoError(t, wr.AddBody(box))
	for range 300 {
		require.NoError(t, wr.Step(0.01))
	}
	assert.InDelta(t, 0.1, box.Pose().P.Z(), 0.01)
	assert.Less(t, box.LinearVelocity().Len(), 0.05)
}

func TestCapsuleRestsOnBox(t *testing.T) {
	wr := NewWorld()
	base := newBox(t, "base", Static, 1, -1)
	cs, err := NewCollisionShape(&Capsule{Radius: 0.1, HalfLength: 0.3}, spatial.Identity(), DefaultMaterial(), DefaultDensity)
	require.NoError(t, err)
	capsule, err := NewRigidBody("capsule", Dynamic, []*CollisionShape{cs})
	require.NoError(t, err)
	capsule.SetPose(spatial.At(0, 0, 0.2))
	require.NoError(t, wr.AddBody(base))
	require.NoError(t, wr.AddBody(capsule))
	for range 200 {
		require.NoError(t, wr.Step(0.01))
	}
	assert.InDelta(t, 0.1, capsule.Pose().P.Z(), 0.01)
	cts := wr.Contacts()
	require.Len(t, cts, 1)
	assert.Len(t, cts[0].Points, 2)
}

func TestCapsuleTouchingBoxFace(t *testing.T) {
	// the capsule axis crossed with the box edges gives the face normal,
	// so edge and face separations tie and the face must win
	wr := NewWorld()
	base := newBox(t, "base", Static, 1, -1)
	cs, err := NewCollisionShape(&Capsule{Radius: 0.1, HalfLength: 0.3}, spatial.Identity(), DefaultMaterial(), DefaultDensity)
	require.NoError(t, err)
	capsule, err := NewRigidBody("capsule", Dynamic, []*CollisionShape{cs})
	require.NoError(t, err)
	capsule.SetPose(spatial.At(0, 0, 0.1))
	require.NoError(t, wr.AddBody(base))
	require.NoError(t, wr.AddBody(capsule))

	require.NoError(t, wr.Step(0.01))
	cts := wr.Contacts()
	require.Len(t, cts, 1)
	require.Len(t, cts[0].Points, 2)
	for _, pt := range cts[0].Points {
		assert.InDelta(t, 0, pt.Separation, 1e-3)
		assert.InDelta(t, 0, pt.Position.Z(), 1e-3)
	}
	for range 50 {
		require.NoError(t, wr.Step(0.01))
	}
	assert.InDelta(t, 0.1, capsule.Pose().P.Z(), 5e-3)
	assert.NotEmpty(t, wr.Contacts())
}

func TestClearlyGreater(t *testing.T) {
	assert.False(t, clearlyGreater(0.1, 0.1))
	assert.False(t, clearlyGreater(-0.1, -0.1))
	assert.False(t, clearlyGreater(0.1005, 0.1))
	assert.True(t, clearlyGreater(0.2, 0.1))
	assert.True(t, clearlyGreater(-0.01, -0.1))
}

func TestKinematicNotPerturbed(t *testing.T) {
	wr := NewWorld()
	kin := newBox(t, "kin", Kinematic, 0.5, 0)
	kin.SetLinearVelocity(mgl64.Vec3{0.1, 0, 0})
	dyn := newBox(t, "dyn", Dynamic, 0.5, 0.9)
	require.NoError(t, wr.AddBody(kin))
	require.NoError(t, wr.AddBody(dyn))
	for range 10 {
		require.NoError(t, wr.Step(0.01))
	}
	assert.InDelta(t, 0.01, kin.Pose().P.X(), 1e-12)
	assert.Equal(t, mgl64.Vec3{0.1, 0, 0}, kin.LinearVelocity())
	assert.Greater(t, dyn.Pose().P.Z(), 0.9)
}

func TestBounce(t *testing.T) {
	wr := NewWorld()
	ground := newGround(t)
	ground.Shapes[0].Material = Material{Restitution: 1}
	cs, err := NewCollisionShape(&Sphere{Radius: 0.1}, spatial.Identity(), Material{Restitution: 1}, DefaultDensity)
	require.NoError(t, err)
	ball, err := NewRigidBody("ball", Dynamic, []*CollisionShape{cs})
	require.NoError(t, err)
	ball.SetPose(spatial.At(0, 0, 1))
	require.NoError(t, wr.AddBody(ground))
	require.NoError(t, wr.AddBody(ball))
	bounced := false
	for range 200 {
		require.NoError(t, wr.Step(0.005))
		if ball.LinearVelocity().Z() > 3 {
			bounced = true
			break
		}
	}
	assert.True(t, bounced)
}

func TestDeterminism(t *testing.T) {
	run := func() []spatial.Pose {
		wr := NewWorld()
		require.NoError(t, wr.AddBody(newGround(t)))
		var boxes []*RigidBody
		for i := range 4 {
			b := newBox(t, "box", Dynamic, 0.1, 0.15+0.25*float64(i))
			b.SetPose(spatial.NewPose(mgl64.Vec3{0.02 * float64(i), 0, 0.15 + 0.25*float64(i)}, spatial.AxisAngle(mgl64.Vec3{0, 0, 1}, 0.1*float64(i))))
			require.NoError(t, wr.AddBody(b))
			boxes = append(boxes, b)
		}
		for range 50 {
			require.NoError(t, wr.Step(0.01))
		}
		var out []spatial.Pose
		for _, b := range boxes {
			out = append(out, b.Pose())
		}
		return out
	}
	assert.Equal(t, run(), run())
}
