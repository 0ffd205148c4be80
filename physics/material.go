// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"math"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/base/reflectx"
)

// Material holds the surface properties used by the contact solver.
type Material struct {

	// StaticFriction is the Coulomb coefficient used while a contact sticks.
	StaticFriction float64 `toml:"static_friction" yaml:"static_friction" default:"0.3"`

	// DynamicFriction is the Coulomb coefficient used while a contact slips.
	DynamicFriction float64 `toml:"dynamic_friction" yaml:"dynamic_friction" default:"0.3"`

	// Restitution is the bounciness in [0, 1].
	Restitution float64 `toml:"restitution" yaml:"restitution" default:"0.1"`
}

// Defaults sets the default material values from the default tags.
func (mt *Material) Defaults() {
	errors.Log(reflectx.SetFromDefaultTags(mt))
}

// DefaultMaterial returns a material with default values.
func DefaultMaterial() Material {
	var mt Material
	mt.Defaults()
	return mt
}

// Validate returns an [errors.ErrInvalidArgument] error for negative or
// non-finite friction and for restitution outside [0, 1].
func (mt Material) Validate() error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	switch {
	case bad(mt.StaticFriction) || mt.StaticFriction < 0:
		return fmt.Errorf("physics.Material: static friction %g: %w", mt.StaticFriction, errors.ErrInvalidArgument)
	case bad(mt.DynamicFriction) || mt.DynamicFriction < 0:
		return fmt.Errorf("physics.Material: dynamic friction %g: %w", mt.DynamicFriction, errors.ErrInvalidArgument)
	case bad(mt.Restitution) || mt.Restitution < 0 || mt.Restitution > 1:
		return fmt.Errorf("physics.Material: restitution %g outside [0, 1]: %w", mt.Restitution, errors.ErrInvalidArgument)
	}
	return nil
}

// CombineMaterials returns the effective material of a contact pair:
// each coefficient is the arithmetic mean of the two.
func CombineMaterials(a, b Material) Material {
	return Material{
		StaticFriction:  0.5 * (a.StaticFriction + b.StaticFriction),
		DynamicFriction: 0.5 * (a.DynamicFriction + b.DynamicFriction),
		Restitution:     0.5 * (a.Restitution + b.Restitution),
	}
}
