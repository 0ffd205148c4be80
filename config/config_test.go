// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cf := Default()
	require.NoError(t, cf.Validate())
	assert.Equal(t, [3]float64{0, 0, -9.81}, cf.Scene.Gravity)
	assert.Equal(t, 0.01, cf.Scene.Timestep)
	assert.Equal(t, physics.DefaultMaterial(), cf.Physics.Material)
	assert.Equal(t, "default", cf.Render.ShaderDir)
	assert.Equal(t, physics.DefaultDensity, cf.Physics.Density)
	assert.Equal(t, 20, cf.Scene.Solver.VelocityIterations)
	assert.Equal(t, 0.002, cf.Scene.Solver.Slop)
	assert.Equal(t, RenderSettings{ShaderDir: "default", SamplesPerPixel: 1, Denoiser: "none",
		DenoiseRadius: 1, MaxBounces: 4, Background: [4]float32{0, 0, 0, 1}}, cf.Render)
}

func TestDefaultsOverwrite(t *testing.T) {
	var cf Config
	cf.Render.ShaderDir = "rt"
	cf.Physics.Material.Restitution = 0.9
	cf.Defaults()
	assert.Equal(t, Default(), cf)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(cf *Config)
		want error
	}{
		{"timestep", func(cf *Config) { cf.Scene.Timestep = 0 }, errors.ErrInvalidArgument},
		{"density", func(cf *Config) { cf.Physics.Density = -1 }, errors.ErrInvalidArgument},
		{"restitution", func(cf *Config) { cf.Physics.Material.Restitution = 2 }, errors.ErrInvalidArgument},
		{"iterations", func(cf *Config) { cf.Scene.Solver.VelocityIterations = 0 }, errors.ErrInvalidArgument},
		{"shader", func(cf *Config) { cf.Render.ShaderDir = "vulkan" }, errors.ErrUnsupportedMode},
		{"denoiser", func(cf *Config) { cf.Render.Denoiser = "oidn" }, errors.ErrUnsupportedMode},
		{"samples", func(cf *Config) { cf.Render.SamplesPerPixel = 0 }, errors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := Default()
			tt.edit(&cf)
			assert.ErrorIs(t, cf.Validate(), tt.want)
			assert.ErrorIs(t, Set(cf), tt.want)
		})
	}
	assert.Equal(t, Default(), Get())
}

func TestSetDefaultMaterial(t *testing.T) {
	defer Reset()
	mt := physics.Material{StaticFriction: 0.8, DynamicFriction: 0.5, Restitution: 0}
	require.NoError(t, SetDefaultMaterial(mt))
	assert.Equal(t, mt, DefaultMaterial())
	assert.Error(t, SetDefaultMaterial(physics.Material{StaticFriction: -1}))
	assert.Equal(t, mt, DefaultMaterial())
}

func TestSaveOpen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sub", "config.toml")
	cf := Default()
	cf.Scene.Gravity = [3]float64{0, 0, -1.62}
	cf.Render.ShaderDir = "rt"
	cf.Render.SamplesPerPixel = 4
	require.NoError(t, Save(cf, fn))
	got, err := Open(fn)
	require.NoError(t, err)
	assert.Equal(t, cf, got)
}

func TestReadPartial(t *testing.T) {
	cf, err := Read([]byte("[render]\nshader_dir = \"rt\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "rt", cf.Render.ShaderDir)
	assert.Equal(t, 0.01, cf.Scene.Timestep)

	_, err = Read([]byte("[render]\nshader_dir = \"glsl\"\n"))
	assert.ErrorIs(t, err, errors.ErrUnsupportedMode)
	_, err = Read([]byte("[render]\nbogus = 1\n"))
	assert.Error(t, err)
}

func TestLoadMissingSavesDefaults(t *testing.T) {
	defer Reset()
	fn := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Load(fn))
	_, err := os.Stat(fn)
	assert.NoError(t, err)
	assert.Equal(t, Default(), Get())
}

func TestWatch(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(Default(), fn))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := Watch(ctx, fn)
	require.NoError(t, err)

	cf := Default()
	cf.Render.MaxBounces = 7
	require.NoError(t, Save(cf, fn))
	// a write can be seen in several events, the last one is complete
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case got := <-ch:
			done = got.Render.MaxBounces == 7
		case <-timeout:
			t.Fatal("no config update received")
		}
	}
	cancel()
	for range ch {
	}
}
