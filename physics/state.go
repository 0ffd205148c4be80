// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// State contains the basic physical state of a body: its pose and
// the velocity of its center of mass.
type State struct {

	// Pose of the body frame in world coordinates.
	Pose spatial.Pose

	// LinVel is the linear velocity of the center of mass.
	LinVel mgl64.Vec3

	// AngVel is the angular velocity, world axes.
	AngVel mgl64.Vec3
}

// AngMotionMax is the maximum angular motion that can be taken per step.
const AngMotionMax = math.Pi / 4

// StepByVel advances the pose by the given linear and angular velocities
// over dt, rotating about the center of mass cm given in the body frame.
// Angular motion per step is limited to [AngMotionMax].
func (ps *State) StepByVel(lin, ang mgl64.Vec3, cm mgl64.Vec3, dt float64) {
	com := ps.Pose.Apply(cm).Add(lin.Mul(dt))
	if a := ang.Len(); a*dt > AngMotionMax {
		ang = ang.Mul(AngMotionMax / (a * dt))
	}
	ps.Pose.Q = spatial.IntegrateRotation(ps.Pose.Q, ang, dt)
	ps.Pose.P = com.Sub(ps.Pose.Q.Rotate(cm))
}

// PointVel returns the velocity of the world point p, for a body
// whose center of mass is at com.
func (ps *State) PointVel(p, com mgl64.Vec3) mgl64.Vec3 {
	return ps.LinVel.Add(ps.AngVel.Cross(p.Sub(com)))
}

// IsFinite returns whether every component is finite.
func (ps *State) IsFinite() bool {
	return ps.Pose.IsFinite() && finiteVec(ps.LinVel) && finiteVec(ps.AngVel)
}
