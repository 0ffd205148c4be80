// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image/color"

	"cogentcore.org/sim/base/errors"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Material describes the surface appearance of a visual shape.
// The alpha of BaseColor is the opacity used by the default shader.
type Material struct {

	// BaseColor is the albedo of the surface.
	BaseColor color.RGBA `yaml:"base_color"`

	// Emission is the color the surface emits independent of any lighting.
	Emission color.RGBA `yaml:"emission"`

	// Roughness in [0, 1] controls the width of specular highlights.
	Roughness float32 `yaml:"roughness"`

	// Metallic in [0, 1] is the fraction of mirror reflection in the rt shader.
	Metallic float32 `yaml:"metallic"`

	// Specular in [0, 1] scales the specular highlights.
	Specular float32 `yaml:"specular"`

	// Transmission in [0, 1] is the fraction of light passing through the surface.
	Transmission float32 `yaml:"transmission"`

	// IOR is the index of refraction used for transmission in the rt shader.
	IOR float32 `yaml:"ior"`
}

// Defaults sets a light gray, fairly rough dielectric.
func (mt *Material) Defaults() {
	mt.BaseColor = color.RGBA{204, 204, 204, 255}
	mt.Emission = color.RGBA{}
	mt.Roughness = 0.5
	mt.Metallic = 0
	mt.Specular = 0.5
	mt.Transmission = 0
	mt.IOR = 1.5
}

// DefaultMaterial returns a material with default values.
func DefaultMaterial() Material {
	var mt Material
	mt.Defaults()
	return mt
}

// NewMaterial returns a default material with the given base color.
func NewMaterial(c color.RGBA) Material {
	mt := DefaultMaterial()
	mt.BaseColor = c
	return mt
}

func unit32(v float32) bool { return v >= 0 && v <= 1 }

// Validate returns an [errors.ErrInvalidArgument] error for factors
// outside [0, 1] and for an index of refraction below 1.
func (mt *Material) Validate() error {
	switch {
	case !unit32(mt.Roughness), !unit32(mt.Metallic), !unit32(mt.Specular), !unit32(mt.Transmission):
		return fmt.Errorf("render.Material: factor outside [0, 1] in %+v: %w", *mt, errors.ErrInvalidArgument)
	case !(mt.IOR >= 1) || math32.IsInf(mt.IOR, 0):
		return fmt.Errorf("render.Material: index of refraction %g: %w", mt.IOR, errors.ErrInvalidArgument)
	}
	return nil
}

// linear returns the color as 0-1 RGB and alpha.
func linear(c color.RGBA) (mgl32.Vec3, float32) {
	return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}, float32(c.A) / 255
}
