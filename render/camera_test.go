// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"image/color"
	"math"
	"testing"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.RGBA{255, 255, 255, 255}

// sphereScene has a red sphere of radius 1 at (5, 0, 0), lit by a white
// ambient light, and a camera at the origin looking along +x.
func sphereScene(t *testing.T) (*Scene, *Camera) {
	sc := NewScene()
	_, err := sc.AddVisual(3, &Sphere{Radius: 1}, NewMaterial(color.RGBA{255, 0, 0, 255}), spatial.Identity())
	require.NoError(t, err)
	sc.SetActorPose(3, spatial.At(5, 0, 0))
	require.NoError(t, sc.AddLight(NewAmbientLight("ambient", white)))
	cm, err := NewCamera(sc, "cam", 32, 24, math.Pi/3, 0.1, 100)
	require.NoError(t, err)
	return sc, cm
}

func TestCameraValidate(t *testing.T) {
	sc := NewScene()
	_, err := NewCamera(sc, "cam", 0, 10, 1, 0.1, 10)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = NewCamera(sc, "cam", 10, 10, math.Pi, 0.1, 10)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = NewCamera(sc, "cam", 10, 10, 1, 1, 0.5)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestCameraMatrices(t *testing.T) {
	_, cm := sphereScene(t)
	_, err := cm.ModelMatrix()
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	assert.ErrorIs(t, cm.TakePicture(), errors.ErrInvalidState)
	_, err = cm.GetPicture(Color)
	assert.ErrorIs(t, err, errors.ErrInvalidState)

	cm.Sync(spatial.At(1, 2, 3))
	m, err := cm.ModelMatrix()
	require.NoError(t, err)
	// OpenGL forward is entity +x, right is -y and up is +z
	assert.True(t, m.Mul4x1(mgl64.Vec4{0, 0, -1, 0}).ApproxFuncEqual(mgl64.Vec4{1, 0, 0, 0}, spatial.Near(1e-9)))
	assert.True(t, m.Mul4x1(mgl64.Vec4{1, 0, 0, 0}).ApproxFuncEqual(mgl64.Vec4{0, -1, 0, 0}, spatial.Near(1e-9)))
	assert.True(t, m.Mul4x1(mgl64.Vec4{0, 1, 0, 0}).ApproxFuncEqual(mgl64.Vec4{0, 0, 1, 0}, spatial.Near(1e-9)))
	assert.True(t, m.Col(3).ApproxFuncEqual(mgl64.Vec4{1, 2, 3, 1}, spatial.Near(1e-9)))

	cm.Width, cm.Height, cm.FovY = 64, 48, math.Pi/2
	k := cm.IntrinsicMatrix()
	assert.InDelta(t, 24, k.At(0, 0), 1e-9)
	assert.InDelta(t, 24, k.At(1, 1), 1e-9)
	assert.InDelta(t, 32, k.At(0, 2), 1e-9)
	assert.InDelta(t, 24, k.At(1, 2), 1e-9)
	assert.InDelta(t, 1, cm.ProjectionMatrix().At(1, 1), 1e-9)
}

func TestTakePicture(t *testing.T) {
	_, cm := sphereScene(t)
	cm.Sync(spatial.Identity())
	require.NoError(t, cm.TakePicture())

	col, err := cm.GetPicture(Color)
	require.NoError(t, err)
	assert.Equal(t, Color, col.Channel)
	assert.Len(t, col.Data, 32*24*4)
	c := col.At(16, 12)
	assert.InDelta(t, 1, c[0], 1e-3)
	assert.InDelta(t, 0, c[1], 1e-3)
	assert.InDelta(t, 1, c[3], 1e-6)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, col.At(0, 0))

	seg, err := cm.GetPicture(Segmentation)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 3, 0, 0}, seg.At(16, 12))
	assert.Equal(t, [4]float32{}, seg.At(0, 0))

	pos, err := cm.GetPicture(Position)
	require.NoError(t, err)
	p := pos.At(16, 12)
	assert.InDelta(t, -4, p[2], 0.05)
	assert.Greater(t, p[3], float32(0))
	assert.Less(t, p[3], float32(1))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, pos.At(0, 0))

	// completed pictures stay readable
	again, err := cm.GetPicture(Color)
	require.NoError(t, err)
	assert.Equal(t, col, again)

	_, err = cm.GetPicture(Channels(9))
	assert.ErrorIs(t, err, errors.ErrUnsupportedMode)
}

func TestPictureUsesSnapshot(t *testing.T) {
	sc, cm := sphereScene(t)
	cm.Sync(spatial.Identity())
	require.NoError(t, cm.TakePicture())
	sc.RemoveActor(3)
	cm.Sync(spatial.NewPose(mgl64.Vec3{}, spatial.AxisAngle(mgl64.Vec3{0, 0, 1}, math.Pi)))
	seg, err := cm.GetPicture(Segmentation)
	require.NoError(t, err)
	assert.Equal(t, float32(3), seg.At(16, 12)[1])
}

func TestTakePictureReplaces(t *testing.T) {
	_, cm := sphereScene(t)
	cm.Sync(spatial.Identity())
	require.NoError(t, cm.TakePicture())
	cm.Sync(spatial.NewPose(mgl64.Vec3{}, spatial.AxisAngle(mgl64.Vec3{0, 0, 1}, math.Pi)))
	require.NoError(t, cm.TakePicture())
	seg, err := cm.GetPicture(Segmentation)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{}, seg.At(16, 12))
}

func TestGetPictureContext(t *testing.T) {
	_, cm := sphereScene(t)
	cm.Sync(spatial.Identity())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cm.TakePictureContext(ctx))
	_, err := cm.GetPicture(Color)
	assert.ErrorIs(t, err, context.Canceled)
}

// shadowScene looks down from (0, 0, 10) at a white ground with a small
// sphere at (3, 0, 1) lit by a light shining along (-1, 0, -1).
// Pixel (50, 40) sees the ground at about (2.1, 0, 0), in the shadow.
func shadowScene(t *testing.T, shadow bool) *Camera {
	sc := NewScene()
	_, err := sc.AddVisual(1, &Plane{}, NewMaterial(white), spatial.Identity())
	require.NoError(t, err)
	_, err = sc.AddVisual(2, &Sphere{Radius: 0.5}, NewMaterial(white), spatial.At(3, 0, 1))
	require.NoError(t, err)
	require.NoError(t, sc.AddLight(NewAmbientLight("ambient", color.RGBA{51, 51, 51, 255})))
	require.NoError(t, sc.AddLight(NewDirLight("sun", mgl64.Vec3{-1, 0, -1}, white, shadow)))
	cm, err := NewCamera(sc, "top", 100, 100, math.Pi/2, 0.1, 100)
	require.NoError(t, err)
	cm.Sync(spatial.NewPose(mgl64.Vec3{0, 0, 10}, spatial.AxisAngle(mgl64.Vec3{0, 1, 0}, math.Pi/2)))
	return cm
}

func centerColor(t *testing.T, cm *Camera, x, y int) [4]float32 {
	require.NoError(t, cm.TakePicture())
	pc, err := cm.GetPicture(Color)
	require.NoError(t, err)
	return pc.At(x, y)
}

func TestShadows(t *testing.T) {
	defer config.Reset()
	lit := centerColor(t, shadowScene(t, false), 50, 40)
	dark := centerColor(t, shadowScene(t, true), 50, 40)
	assert.Greater(t, lit[0], dark[0]+0.3)
	assert.InDelta(t, 0.2, dark[0], 0.01)

	rs := config.Get().Render
	rs.ShaderDir = "rt"
	require.NoError(t, config.SetRender(rs))
	rt := centerColor(t, shadowScene(t, false), 50, 40)
	assert.InDelta(t, 0.2, rt[0], 0.01)
}

func TestSamplesAndDenoise(t *testing.T) {
	defer config.Reset()
	rs := config.Get().Render
	rs.SamplesPerPixel = 4
	rs.Denoiser = "gaussian"
	rs.DenoiseRadius = 1.5
	require.NoError(t, config.SetRender(rs))
	_, cm := sphereScene(t)
	cm.Sync(spatial.Identity())
	c := centerColor(t, cm, 16, 12)
	assert.InDelta(t, 1, c[0], 0.01)
	assert.InDelta(t, 0, c[1], 0.01)
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("segmentation")
	require.NoError(t, err)
	assert.Equal(t, Segmentation, ch)
	ch, err = ParseChannel("POSITION")
	require.NoError(t, err)
	assert.Equal(t, Position, ch)
	_, err = ParseChannel("Normal")
	assert.ErrorIs(t, err, errors.ErrUnsupportedMode)
	assert.Equal(t, "Position", Position.String())
}
