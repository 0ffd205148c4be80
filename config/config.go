// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config contains the process-wide configuration of the
// simulation kernel: scene defaults, the default physical material and
// the renderer settings. Configurations are stored as TOML files.
package config

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/base/reflectx"
	"cogentcore.org/sim/physics"
)

// Config is the main config struct that contains all of the
// configuration options of the simulation kernel.
type Config struct {

	// Scene contains the defaults of newly created scenes.
	Scene SceneSettings `toml:"scene"`

	// Physics contains the defaults used when building bodies.
	Physics PhysicsSettings `toml:"physics"`

	// Render contains the settings read when a picture is taken.
	Render RenderSettings `toml:"render"`
}

// SceneSettings are read once when a scene is created.
type SceneSettings struct {

	// Gravity is the gravitational acceleration in the world frame.
	Gravity [3]float64 `toml:"gravity"`

	// Timestep is the default step size in seconds.
	Timestep float64 `toml:"timestep" default:"0.01"`

	// Solver contains the contact solver parameters.
	Solver physics.SolverParams `toml:"solver"`
}

// PhysicsSettings are read when a builder builds an entity.
type PhysicsSettings struct {

	// Material is the default physical material of collision shapes.
	Material physics.Material `toml:"material"`

	// Density is the default density of collision shapes, in kg/m^3.
	Density float64 `toml:"density" default:"1000"`
}

// RenderSettings configure the ray caster.
type RenderSettings struct {

	// ShaderDir selects the shading pipeline: "default" or "rt".
	ShaderDir string `toml:"shader_dir" default:"default"`

	// SamplesPerPixel is the number of stratified samples per pixel.
	SamplesPerPixel int `toml:"samples_per_pixel" default:"1"`

	// Denoiser is "none" or "gaussian".
	Denoiser string `toml:"denoiser" default:"none"`

	// DenoiseRadius is the radius of the gaussian denoiser in pixels.
	DenoiseRadius float64 `toml:"denoise_radius" default:"1"`

	// MaxBounces limits reflection and refraction depth for the rt shader.
	MaxBounces int `toml:"max_bounces" default:"4"`

	// Background is the RGBA color of rays that hit nothing.
	Background [4]float32 `toml:"background"`
}

// Shaders are the supported values of [RenderSettings.ShaderDir].
var Shaders = []string{"default", "rt"}

// Denoisers are the supported values of [RenderSettings.Denoiser].
var Denoisers = []string{"none", "gaussian"}

// Defaults sets the default values of all settings: scalars come from
// the default tags of the nested settings structs.
func (cf *Config) Defaults() {
	errors.Log(reflectx.SetFromDefaultTags(cf))
	cf.Scene.Gravity = [3]float64{0, 0, -9.81}
	cf.Render.Background = [4]float32{0, 0, 0, 1}
}

// Default returns a config with default values.
func Default() Config {
	var cf Config
	cf.Defaults()
	return cf
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks every setting. Unknown shader or denoiser names are
// [errors.ErrUnsupportedMode]; other bad values are
// [errors.ErrInvalidArgument].
func (cf *Config) Validate() error {
	sc := &cf.Scene
	for _, g := range sc.Gravity {
		if !finite(g) {
			return fmt.Errorf("config: gravity %v: %w", sc.Gravity, errors.ErrInvalidArgument)
		}
	}
	if !(sc.Timestep > 0) || !finite(sc.Timestep) {
		return fmt.Errorf("config: timestep %g: %w", sc.Timestep, errors.ErrInvalidArgument)
	}
	sv := &sc.Solver
	if sv.VelocityIterations < 1 || sv.PositionIterations < 0 || sv.ContactOffset < 0 || sv.BounceThreshold < 0 ||
		sv.StaticSlip < 0 || sv.Slop < 0 || sv.Baumgarte < 0 || sv.Baumgarte > 1 {
		return fmt.Errorf("config: solver parameters %+v: %w", *sv, errors.ErrInvalidArgument)
	}
	if err := cf.Physics.Material.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !(cf.Physics.Density > 0) || !finite(cf.Physics.Density) {
		return fmt.Errorf("config: density %g: %w", cf.Physics.Density, errors.ErrInvalidArgument)
	}
	rs := &cf.Render
	if !slices.Contains(Shaders, rs.ShaderDir) {
		return fmt.Errorf("config: shader %q: %w", rs.ShaderDir, errors.ErrUnsupportedMode)
	}
	if !slices.Contains(Denoisers, rs.Denoiser) {
		return fmt.Errorf("config: denoiser %q: %w", rs.Denoiser, errors.ErrUnsupportedMode)
	}
	if rs.SamplesPerPixel < 1 || rs.MaxBounces < 0 || rs.DenoiseRadius < 0 || !finite(rs.DenoiseRadius) {
		return fmt.Errorf("config: render settings %+v: %w", *rs, errors.ErrInvalidArgument)
	}
	return nil
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Get returns a copy of the current process-wide config.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set validates and installs a new process-wide config.
func Set(cf Config) error {
	if err := cf.Validate(); err != nil {
		return err
	}
	mu.Lock()
	current = cf
	mu.Unlock()
	return nil
}

// Reset restores the default config.
func Reset() {
	mu.Lock()
	current = Default()
	mu.Unlock()
}

// DefaultMaterial returns the default physical material.
func DefaultMaterial() physics.Material { return Get().Physics.Material }

// SetDefaultMaterial sets the default physical material used by
// builders from now on.
func SetDefaultMaterial(mt physics.Material) error {
	cf := Get()
	cf.Physics.Material = mt
	return Set(cf)
}

// SetRender sets the renderer settings read by the next picture.
func SetRender(rs RenderSettings) error {
	cf := Get()
	cf.Render = rs
	return Set(cf)
}
