// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asset

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/render"
	"cogentcore.org/sim/sim"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStack(t *testing.T) {
	sc := sim.NewScene()
	ld, err := Load(sc, filepath.Join("testdata", "stack.yaml"))
	require.NoError(t, err)
	require.NotNil(t, ld.Ground)
	assert.Len(t, ld.Actors, 3)
	assert.Len(t, ld.Lights, 2)
	assert.Len(t, ld.Cameras, 2)
	require.Len(t, ld.Articulations, 1)
	assert.Equal(t, 0.005, sc.Timestep())

	amb, ok := sc.Render().Light(sim.AmbientLightName)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{80, 80, 80, 255}, amb.AsLightBase().Color)

	table, err := sc.FindEntity("table")
	require.NoError(t, err)
	assert.Equal(t, spatial.At(0, 0, 0.5), table.Pose())
	cube, err := sc.FindEntity("cube")
	require.NoError(t, err)
	rb, err := sim.Find[*sim.RigidBody](cube)
	require.NoError(t, err)
	assert.InEpsilon(t, 62.5, rb.Mass(), 1e-12)
	assert.Equal(t, 0.1, rb.LinearDamping)

	ball, err := sc.FindEntity("ball")
	require.NoError(t, err)
	vis, err := sim.Find[*sim.RenderBody](ball)
	require.NoError(t, err)
	assert.Equal(t, float32(1), vis.Visuals[0].Material.Metallic)
	assert.Equal(t, float32(0.5), vis.Visuals[0].Material.Specular)

	pend := ld.Articulations[0]
	assert.Equal(t, 1, pend.DOF())
	assert.InDelta(t, 0.3, pend.QPos()[0], 1e-12)
	assert.Equal(t, [][2]float64{{-1.5, 1.5}}, pend.QLimits())
	assert.Equal(t, spatial.At(-2, 0, 1.5), pend.RootPose())

	eye := ld.Cameras[1]
	assert.Same(t, table, eye.Mount)
	assert.Equal(t, spatial.At(0.6, 0, 0.6), eye.Relative)

	for range 100 {
		require.NoError(t, sc.Step())
	}
	assert.InDelta(t, 1.25, cube.Pose().P.Z(), 0.01)

	sc.UpdateRender()
	overview := ld.Cameras[0]
	require.NoError(t, overview.TakePicture())
	pic, err := overview.GetPicture(render.Color)
	require.NoError(t, err)
	assert.Len(t, pic.Data, 64*48*4)
}

func TestColors(t *testing.T) {
	sd, err := Parse([]byte("ambient: Red\nground:\n  color: [1, 2, 3]\n"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, sd.Ambient.RGBA())
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, sd.Ground.Color.RGBA())

	sd, err = Parse([]byte("ambient: [1, 2, 3, 4]\n"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 4}, sd.Ambient.RGBA())

	_, err = Parse([]byte("ambient: notacolor\n"))
	assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
	_, err = Parse([]byte("ambient: [1, 2]\n"))
	assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
}

func TestPose(t *testing.T) {
	ps, err := Pose(nil).Pose()
	require.NoError(t, err)
	assert.Equal(t, spatial.Identity(), ps)
	ps, err = Pose{1, 2, 3}.Pose()
	require.NoError(t, err)
	assert.Equal(t, spatial.At(1, 2, 3), ps)
	ps, err = Pose{1, 2, 3, 0, 0, 0, 1}.Pose()
	require.NoError(t, err)
	assert.Equal(t, mgl64.Quat{W: 0, V: mgl64.Vec3{0, 0, 1}}, ps.Q)
	_, err = Pose{1, 2}.Pose()
	assert.Error(t, err)
	_, err = Pose{0, 0, 0, 0, 0, 0, 0}.Pose()
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "actors:\n  - name: a\n    colour: red\n"},
		{"unknown shape", "actors:\n  - name: a\n    collisions:\n      - shape: torus\n"},
		{"bad pose", "actors:\n  - name: a\n    pose: [1, 2]\n"},
		{"zero radius", "actors:\n  - name: a\n    collisions:\n      - shape: sphere\n"},
		{"body type", "actors:\n  - name: a\n    type: ghost\n"},
		{"unknown parent", "articulations:\n  - name: r\n    links:\n      - name: base\n      - name: arm\n        parent: nope\n"},
		{"joint type", "articulations:\n  - name: r\n    links:\n      - name: base\n      - name: arm\n        parent: base\n        joint: {type: ball}\n"},
		{"qpos", "articulations:\n  - name: r\n    qpos: [1, 2]\n    links:\n      - name: base\n"},
		{"light type", "lights:\n  - name: l\n    type: spot\n"},
		{"mount", "cameras:\n  - name: c\n    mount: nothing\n"},
		{"camera size", "cameras:\n  - name: c\n    width: -1\n"},
		{"timestep", "timestep: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := sim.NewScene()
			sd, err := Parse([]byte(tt.yaml))
			if err == nil {
				_, err = sd.Populate(sc)
			}
			assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
			assert.Empty(t, sc.Entities())
			assert.Empty(t, sc.Articulations())
		})
	}
	_, err := Open(filepath.Join("testdata", "missing.yaml"))
	assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
}

func TestOpenRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	_, err := Open(png)
	assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
	assert.Contains(t, err.Error(), "image/png")

	short := filepath.Join(dir, "short.yaml")
	require.NoError(t, os.WriteFile(short, []byte("ground: {altitude: 1}\n"), 0o644))
	sd, err := Open(short)
	require.NoError(t, err)
	require.NotNil(t, sd.Ground)
	assert.Equal(t, 1.0, sd.Ground.Altitude)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Open(empty)
	assert.NoError(t, err)
}

func TestPopulateIsAtomic(t *testing.T) {
	sc := sim.NewScene()
	sun, err := sc.AddDirectionalLight("sun", mgl64.Vec3{0, 0, -1}, color.RGBA{255, 255, 255, 255}, false)
	require.NoError(t, err)
	sd, err := Parse([]byte(`
ground: {altitude: 0}
actors:
  - name: a
    collisions: [{shape: sphere, radius: 0.1}]
lights:
  - {name: sun, type: point, position: [0, 0, 1]}
`))
	require.NoError(t, err)
	_, err = sd.Populate(sc)
	assert.ErrorIs(t, err, errors.ErrAssetLoadFailure)
	assert.ErrorIs(t, err, errors.ErrAlreadyPresent)
	assert.Equal(t, []*sim.Entity{sun}, sc.Entities())
	assert.Empty(t, sc.World().Bodies())
}

func TestSaveOpen(t *testing.T) {
	sd, err := Open(filepath.Join("testdata", "stack.yaml"))
	require.NoError(t, err)
	fn := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, Save(sd, fn))
	again, err := Open(fn)
	require.NoError(t, err)
	require.Len(t, again.Actors, len(sd.Actors))
	for i := range sd.Actors {
		assert.Equal(t, sd.Actors[i].Name, again.Actors[i].Name)
		assert.Equal(t, sd.Actors[i].Visuals[0].Color, again.Actors[i].Visuals[0].Color)
	}
	assert.Equal(t, sd.Articulations[0].Links[1].Joint, again.Articulations[0].Links[1].Joint)
	assert.Equal(t, *sd.Ambient, *again.Ambient)

	sc := sim.NewScene()
	ld, err := again.Populate(sc)
	require.NoError(t, err)
	assert.Len(t, ld.Actors, 3)
}
