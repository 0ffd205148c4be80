// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/cases"
)

// JointTypes are the kinds of joint connecting a link to its parent.
type JointTypes int32

const (
	// FixedJoint welds the child to the parent (0 DOF).
	FixedJoint JointTypes = iota

	// RevoluteJoint rotates about the joint x axis within limits (1 DOF).
	RevoluteJoint

	// ContinuousJoint rotates about the joint x axis without limits (1 DOF).
	ContinuousJoint

	// PrismaticJoint slides along the joint x axis (1 DOF).
	PrismaticJoint
)

var jointNames = [...]string{"fixed", "revolute", "continuous", "prismatic"}

func (jt JointTypes) String() string {
	if int(jt) < len(jointNames) {
		return jointNames[jt]
	}
	return fmt.Sprintf("JointTypes(%d)", int32(jt))
}

// ParseJointType returns the joint type with the given case
// insensitive name.
func ParseJointType(s string) (JointTypes, error) {
	s = cases.Fold().String(s)
	for i, n := range jointNames {
		if n == s {
			return JointTypes(i), nil
		}
	}
	if s == "revolute_unwrapped" {
		return ContinuousJoint, nil
	}
	return 0, fmt.Errorf("physics: unknown joint type %q: %w", s, errors.ErrInvalidArgument)
}

// DOF returns the number of degrees of freedom of the joint type.
func (jt JointTypes) DOF() int {
	if jt == FixedJoint {
		return 0
	}
	return 1
}

// Joint connects a link to its parent. The joint frame is PoseInParent
// in the parent and PoseInChild in the child; the joint moves along or
// about the x axis of that frame.
type Joint struct {
	Name string

	Type JointTypes

	PoseInParent spatial.Pose
	PoseInChild  spatial.Pose

	// Lower and Upper are the position limits; infinite when unlimited.
	Lower, Upper float64

	// Damping is viscous joint damping, force per unit velocity.
	Damping float64

	// Stiffness and DriveDamping are the gains of the PD drive.
	Stiffness    float64
	DriveDamping float64

	// Target and VelocityTarget are the drive targets.
	Target         float64
	VelocityTarget float64
}

// Defaults sets an unlimited fixed joint with identity frames.
func (jt *Joint) Defaults() {
	jt.PoseInParent = spatial.Identity()
	jt.PoseInChild = spatial.Identity()
	jt.Lower = math.Inf(-1)
	jt.Upper = math.Inf(1)
}

// Validate checks limits and gains.
func (jt *Joint) Validate() error {
	if jt.Type == ContinuousJoint {
		jt.Lower, jt.Upper = math.Inf(-1), math.Inf(1)
	}
	switch {
	case math.IsNaN(jt.Lower) || math.IsNaN(jt.Upper) || jt.Lower > jt.Upper:
		return fmt.Errorf("physics.Joint %q: limits [%g, %g]: %w", jt.Name, jt.Lower, jt.Upper, errors.ErrInvalidArgument)
	case jt.Damping < 0 || jt.Stiffness < 0 || jt.DriveDamping < 0:
		return fmt.Errorf("physics.Joint %q: negative damping or stiffness: %w", jt.Name, errors.ErrInvalidArgument)
	case !jt.PoseInParent.IsFinite() || !jt.PoseInChild.IsFinite():
		return fmt.Errorf("physics.Joint %q: pose not finite: %w", jt.Name, errors.ErrInvalidArgument)
	}
	return nil
}

// motion returns the transform across the joint for position q.
func (jt *Joint) motion(q float64) spatial.Pose {
	switch jt.Type {
	case RevoluteJoint, ContinuousJoint:
		return spatial.Pose{Q: mgl64.QuatRotate(q, mgl64.Vec3{1, 0, 0})}
	case PrismaticJoint:
		return spatial.At(q, 0, 0)
	}
	return spatial.Identity()
}

// subspace returns the world motion subspace for a joint frame.
func (jt *Joint) subspace(frame spatial.Pose) spatial.Motion {
	a := frame.Rotate(mgl64.Vec3{1, 0, 0})
	if jt.Type == PrismaticJoint {
		return spatial.Motion{V: a}
	}
	return spatial.Motion{W: a, V: frame.P.Cross(a)}
}
