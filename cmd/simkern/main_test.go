// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/sim/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ballScene = `
ambient: white
ground: {altitude: 0}
actors:
  - name: ball
    pose: [0, 0, 0.2]
    collisions: [{shape: sphere, radius: 0.2}]
    visuals: [{shape: sphere, radius: 0.2, color: red}]
cameras:
  - name: front
    pose: [-2, 0, 0.2]
    width: 16
    height: 12
`

// execute runs the command line with a config file in a temporary
// directory and returns the standard output.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.Reset)
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.toml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeScene(t *testing.T) (dir, scene string) {
	dir = t.TempDir()
	scene = filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scene, []byte(ballScene), 0o644))
	return dir, scene
}

func TestRun(t *testing.T) {
	dir, scene := writeScene(t)
	out, err := execute(t, dir, "run", scene, "--steps", "10")
	require.NoError(t, err)
	assert.Regexp(t, `ball p \[-?0\.0000\d -?0\.0000\d 0\.(19|20)\d+\]`, out)
	assert.Contains(t, out, "digest ")
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	again, err := execute(t, dir, "run", scene, "--steps", "10")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = execute(t, dir, "run", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	_, err = execute(t, dir, "run")
	assert.Error(t, err)
}

func TestContacts(t *testing.T) {
	dir, scene := writeScene(t)
	out, err := execute(t, dir, "contacts", scene, "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ground <-> ball points 1")
}

func TestRender(t *testing.T) {
	dir, scene := writeScene(t)
	for _, ch := range []string{"color", "position", "segmentation"} {
		fn := filepath.Join(dir, ch+".png")
		_, err := execute(t, dir, "render", scene, "--channel", ch, "--out", fn)
		require.NoError(t, err, ch)
		f, err := os.Open(fn)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 12, img.Bounds().Dy())
	}

	_, err := execute(t, dir, "render", scene, "--channel", "depth")
	assert.Error(t, err)
	_, err = execute(t, dir, "render", scene, "--camera", "back")
	assert.Error(t, err)
}

func TestSegmentColor(t *testing.T) {
	assert.Equal(t, uint8(0), segmentColor(0).R)
	assert.NotEqual(t, segmentColor(1), segmentColor(2))
	assert.Equal(t, segmentColor(3), segmentColor(3))
	assert.Equal(t, uint8(255), segmentColor(7).A)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ")
	_, err = execute(t, dir, "config", "init")
	assert.Error(t, err)
	_, err = execute(t, dir, "config", "init", "--force")
	assert.NoError(t, err)

	cf := config.Default()
	cf.Render.SamplesPerPixel = 4
	require.NoError(t, config.Save(cf, filepath.Join(dir, "config.toml")))
	out, err = execute(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "samples_per_pixel = 4")
}
