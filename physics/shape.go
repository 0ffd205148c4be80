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
)

// DefaultDensity is the density used when none is given, in kg/m³.
const DefaultDensity = 1000.0

// CollisionShape is a geometry attached to a body at a local pose,
// with its surface material and mass density.
type CollisionShape struct {
	Geometry Geometry

	// Local is the pose of the geometry in the body frame.
	Local spatial.Pose

	Material Material

	// Density is the mass per unit volume, used for mass properties.
	Density float64
}

// NewCollisionShape returns a validated shape.
func NewCollisionShape(geom Geometry, local spatial.Pose, mat Material, density float64) (*CollisionShape, error) {
	cs := &CollisionShape{Geometry: geom, Local: local, Material: mat, Density: density}
	return cs, cs.Validate()
}

// Validate checks the geometry, material and density.
func (cs *CollisionShape) Validate() error {
	if cs.Geometry == nil {
		return fmt.Errorf("physics.CollisionShape: nil geometry: %w", errors.ErrInvalidArgument)
	}
	if err := cs.Geometry.Validate(); err != nil {
		return err
	}
	if err := cs.Material.Validate(); err != nil {
		return err
	}
	if !(cs.Density > 0) || math.IsInf(cs.Density, 0) {
		return fmt.Errorf("physics.CollisionShape: density %g must be positive: %w", cs.Density, errors.ErrInvalidArgument)
	}
	if !cs.Local.IsFinite() {
		return fmt.Errorf("physics.CollisionShape: local pose not finite: %w", errors.ErrInvalidArgument)
	}
	return nil
}

// MassProperties holds the mass of a body and its inertia tensor about
// the center of mass, in the body frame.
type MassProperties struct {
	Mass float64

	// CMass is the center of mass in the body frame.
	CMass mgl64.Vec3

	// Inertia is the rotational inertia about CMass, body axes.
	Inertia mgl64.Mat3
}

// ComputeMassProperties aggregates the mass properties of the shapes
// using the parallel axis theorem. Planes contribute nothing.
func ComputeMassProperties(shapes []*CollisionShape) MassProperties {
	var mp MassProperties
	type part struct {
		m float64
		c mgl64.Vec3
		i mgl64.Mat3
	}
	parts := make([]part, 0, len(shapes))
	for _, cs := range shapes {
		vol, com, in := cs.Geometry.unitMass()
		if vol <= 0 {
			continue
		}
		m := vol * cs.Density
		r := cs.Local.Rot()
		p := part{m: m, c: cs.Local.Apply(com), i: spatial.RotateInertia(r, in.Mul(cs.Density))}
		parts = append(parts, p)
		mp.Mass += m
		mp.CMass = mp.CMass.Add(p.c.Mul(m))
	}
	if mp.Mass <= 0 {
		return MassProperties{}
	}
	mp.CMass = mp.CMass.Mul(1 / mp.Mass)
	for _, p := range parts {
		mp.Inertia = mp.Inertia.Add(p.i).Add(spatial.ShiftInertia(p.m, p.c.Sub(mp.CMass)))
	}
	return mp
}
