// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// glFrame maps OpenGL camera axes (x right, y up, -z forward) to the
// camera entity frame (x forward, y left, z up).
var glFrame = mgl64.Mat4{
	0, -1, 0, 0,
	0, 0, 1, 0,
	-1, 0, 0, 0,
	0, 0, 0, 1,
}

// Camera renders pictures of a [Scene] from the pose of its last
// [Camera.Sync]. Pictures are rendered asynchronously: TakePicture
// starts a job and GetPicture waits for it. A new TakePicture cancels
// a pending job, so GetPicture always returns the newest submission.
type Camera struct {
	Name string

	// Width and Height are the picture size in pixels.
	Width, Height int

	// FovY is the vertical field of view in radians.
	FovY float64

	// Near and Far are the clipping distances.
	Near, Far float64

	scene  *Scene
	pose   spatial.Pose
	synced bool

	// mu protects job
	mu  sync.Mutex
	job *job
}

type job struct {
	done   chan struct{}
	cancel context.CancelFunc
	pics   [channelsN]*Picture
	err    error
}

// NewCamera returns a camera of the given scene.
func NewCamera(sc *Scene, name string, width, height int, fovy, near, far float64) (*Camera, error) {
	cm := &Camera{Name: name, Width: width, Height: height, FovY: fovy, Near: near, Far: far, scene: sc}
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	return cm, nil
}

// Validate checks the image size, field of view and clipping range.
func (cm *Camera) Validate() error {
	switch {
	case cm.Width <= 0 || cm.Height <= 0:
		return fmt.Errorf("render.Camera %q: size %dx%d: %w", cm.Name, cm.Width, cm.Height, errors.ErrInvalidArgument)
	case !(cm.FovY > 0 && cm.FovY < math.Pi):
		return fmt.Errorf("render.Camera %q: fovy %g: %w", cm.Name, cm.FovY, errors.ErrInvalidArgument)
	case !(cm.Near > 0 && cm.Near < cm.Far) || math.IsInf(cm.Far, 0):
		return fmt.Errorf("render.Camera %q: near %g far %g: %w", cm.Name, cm.Near, cm.Far, errors.ErrInvalidArgument)
	}
	return nil
}

// Scene returns the scene the camera renders.
func (cm *Camera) Scene() *Scene { return cm.scene }

// Sync sets the world pose of the camera entity frame.
func (cm *Camera) Sync(pose spatial.Pose) {
	cm.pose = pose
	cm.synced = true
}

// Synced reports whether the camera pose has been set.
func (cm *Camera) Synced() bool { return cm.synced }

// Pose returns the camera entity frame pose of the last sync.
func (cm *Camera) Pose() (spatial.Pose, error) {
	if !cm.synced {
		return spatial.Identity(), fmt.Errorf("render.Camera %q: not synced: %w", cm.Name, errors.ErrInvalidState)
	}
	return cm.pose, nil
}

// ModelMatrix returns the OpenGL camera to world transform of the last sync.
func (cm *Camera) ModelMatrix() (mgl64.Mat4, error) {
	ps, err := cm.Pose()
	if err != nil {
		return mgl64.Ident4(), err
	}
	return ps.Mat4().Mul4(glFrame), nil
}

// IntrinsicMatrix returns the pinhole intrinsics with square pixels
// and the principal point at the image center.
func (cm *Camera) IntrinsicMatrix() mgl64.Mat3 {
	fy := float64(cm.Height) / 2 / math.Tan(cm.FovY/2)
	return mgl64.Mat3{
		fy, 0, 0,
		0, fy, 0,
		float64(cm.Width) / 2, float64(cm.Height) / 2, 1,
	}
}

// ProjectionMatrix returns the OpenGL perspective projection.
func (cm *Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(cm.FovY, float64(cm.Width)/float64(cm.Height), cm.Near, cm.Far)
}

// TakePicture is [Camera.TakePictureContext] with a background context.
func (cm *Camera) TakePicture() error {
	return cm.TakePictureContext(context.Background())
}

// TakePictureContext snapshots the scene, the camera and the render
// settings and starts rendering them. It returns immediately. The job
// stops early when ctx is done or a newer picture is taken.
func (cm *Camera) TakePictureContext(ctx context.Context) error {
	if !cm.synced {
		return fmt.Errorf("render.Camera %q: take picture before sync: %w", cm.Name, errors.ErrInvalidState)
	}
	rs := config.Get().Render
	if !slices.Contains(config.Shaders, rs.ShaderDir) {
		return fmt.Errorf("render.Camera %q: shader %q: %w", cm.Name, rs.ShaderDir, errors.ErrUnsupportedMode)
	}
	if !slices.Contains(config.Denoisers, rs.Denoiser) {
		return fmt.Errorf("render.Camera %q: denoiser %q: %w", cm.Name, rs.Denoiser, errors.ErrUnsupportedMode)
	}
	rd := cm.newRenderer(rs)
	ctx, cancel := context.WithCancel(ctx)
	jb := &job{done: make(chan struct{}), cancel: cancel}
	cm.mu.Lock()
	if cm.job != nil {
		cm.job.cancel()
	}
	cm.job = jb
	cm.mu.Unlock()
	slog.Debug("render: take picture", "camera", cm.Name, "width", cm.Width, "height", cm.Height, "shader", rs.ShaderDir)
	go func() {
		defer close(jb.done)
		defer cancel()
		jb.pics, jb.err = rd.render(ctx)
	}()
	return nil
}

// GetPicture is [Camera.GetPictureContext] with a background context.
func (cm *Camera) GetPicture(ch Channels) (*Picture, error) {
	return cm.GetPictureContext(context.Background(), ch)
}

// GetPictureContext waits for the last picture taken and returns a copy
// of the given channel. A completed picture can be read any number of
// times until the next TakePicture.
func (cm *Camera) GetPictureContext(ctx context.Context, ch Channels) (*Picture, error) {
	if ch < 0 || ch >= channelsN {
		return nil, fmt.Errorf("render.Camera %q: channel %v: %w", cm.Name, ch, errors.ErrUnsupportedMode)
	}
	cm.mu.Lock()
	jb := cm.job
	cm.mu.Unlock()
	if jb == nil {
		return nil, fmt.Errorf("render.Camera %q: get picture before take picture: %w", cm.Name, errors.ErrInvalidState)
	}
	select {
	case <-jb.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if jb.err != nil {
		return nil, jb.err
	}
	return jb.pics[ch].Clone(), nil
}
