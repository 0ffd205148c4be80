// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Light represents a light that illuminates a scene.
// These are stored on the [Scene] by name.
type Light interface {

	// AsLightBase returns the [LightBase] for this Light,
	// which provides the core functionality of a light.
	AsLightBase() *LightBase
}

// LightBase provides the core implementation of the [Light] interface.
type LightBase struct {

	// Name is the name of the light, which matters since lights are accessed by name.
	Name string

	// On is whether the light is turned on.
	On bool

	// Lumens is the brightness of the light in normalized 0-1 units.
	// It is multiplied by the color.
	Lumens float32

	// Color is the color of the light at full intensity.
	Color color.RGBA

	// Shadow enables shadows from this light in the default shader.
	// The rt shader casts shadows for all lights.
	Shadow bool
}

func (lb *LightBase) AsLightBase() *LightBase {
	return lb
}

// radiance returns the light color scaled by its lumens.
func (lb *LightBase) radiance() mgl32.Vec3 {
	c, _ := linear(lb.Color)
	return c.Mul(lb.Lumens)
}

// AmbientLight provides diffuse uniform lighting.
type AmbientLight struct {
	LightBase
}

// DirLight is a directional light with no attenuation, like the Sun.
type DirLight struct {
	LightBase

	// Direction is the direction the light travels in, in world coordinates.
	Direction mgl64.Vec3
}

// PointLight is an omnidirectional light with a position
// and associated decay factors, which divide the light intensity as a function of
// linear and quadratic distance. The quadratic factor dominates at longer distances.
type PointLight struct {
	LightBase

	// Pos is the position of the light in world coordinates.
	Pos mgl64.Vec3

	// LinDecay is the linear distance decay factor.
	LinDecay float32

	// QuadDecay is the quadratic distance decay factor.
	QuadDecay float32
}

func newBase(name string, c color.RGBA, shadow bool) LightBase {
	return LightBase{Name: name, On: true, Lumens: 1, Color: c, Shadow: shadow}
}

// NewAmbientLight returns an ambient light of the given color.
func NewAmbientLight(name string, c color.RGBA) *AmbientLight {
	return &AmbientLight{LightBase: newBase(name, c, false)}
}

// NewDirLight returns a directional light shining along dir.
func NewDirLight(name string, dir mgl64.Vec3, c color.RGBA, shadow bool) *DirLight {
	return &DirLight{LightBase: newBase(name, c, shadow), Direction: dir}
}

// NewPointLight returns a point light at pos with no distance decay.
func NewPointLight(name string, pos mgl64.Vec3, c color.RGBA, shadow bool) *PointLight {
	return &PointLight{LightBase: newBase(name, c, shadow), Pos: pos}
}
