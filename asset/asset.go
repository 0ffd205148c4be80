// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asset loads scene descriptions written in YAML: actors with
// collision and visual shapes, articulations as link trees with joints,
// a ground plane, lights and cameras.
package asset

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/physics"
	"cogentcore.org/sim/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/h2non/filetype"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Scene is the description of a scene.
type Scene struct {

	// Gravity overrides the scene gravity when set.
	Gravity *[3]float64 `yaml:"gravity,omitempty"`

	// Timestep overrides the scene timestep when set.
	Timestep *float64 `yaml:"timestep,omitempty"`

	// Ambient is the color of the scene ambient light, if any.
	Ambient *Color `yaml:"ambient,omitempty"`

	Ground *Ground `yaml:"ground,omitempty"`

	Actors        []Actor        `yaml:"actors,omitempty"`
	Articulations []Articulation `yaml:"articulations,omitempty"`
	Lights        []Light        `yaml:"lights,omitempty"`
	Cameras       []Camera       `yaml:"cameras,omitempty"`
}

// Ground is a static plane at an altitude.
type Ground struct {
	Altitude float64           `yaml:"altitude,omitempty"`
	Material *physics.Material `yaml:"material,omitempty"`
	Color    *Color            `yaml:"color,omitempty"`
}

// Actor is a rigid body with collision and visual shapes.
type Actor struct {
	Name string `yaml:"name"`

	// Type is "dynamic" (the default), "kinematic" or "static".
	Type string `yaml:"type,omitempty"`

	Pose Pose `yaml:"pose,omitempty"`

	LinearVelocity  *[3]float64 `yaml:"linear_velocity,omitempty"`
	AngularVelocity *[3]float64 `yaml:"angular_velocity,omitempty"`
	LinearDamping   float64     `yaml:"linear_damping,omitempty"`
	AngularDamping  float64     `yaml:"angular_damping,omitempty"`

	Collisions []Collision `yaml:"collisions,omitempty"`
	Visuals    []Visual    `yaml:"visuals,omitempty"`
}

// Collision is a collision shape. The fields used depend on Shape:
// "box", "sphere", "capsule", "convex_mesh" or "plane".
type Collision struct {
	Shape      string            `yaml:"shape"`
	HalfSize   [3]float64        `yaml:"half_size,omitempty"`
	Radius     float64           `yaml:"radius,omitempty"`
	HalfLength float64           `yaml:"half_length,omitempty"`
	Vertices   [][3]float64      `yaml:"vertices,omitempty"`
	Faces      [][]int           `yaml:"faces,omitempty"`
	Pose       Pose              `yaml:"pose,omitempty"`
	Material   *physics.Material `yaml:"material,omitempty"`
	Density    *float64          `yaml:"density,omitempty"`
}

// Visual is a visual shape. The fields used depend on Shape:
// "box", "sphere", "capsule", "plane" or "mesh".
type Visual struct {
	Shape      string       `yaml:"shape"`
	HalfSize   [3]float64   `yaml:"half_size,omitempty"`
	Radius     float64      `yaml:"radius,omitempty"`
	HalfLength float64      `yaml:"half_length,omitempty"`
	Vertices   [][3]float64 `yaml:"vertices,omitempty"`
	Triangles  [][3]int     `yaml:"triangles,omitempty"`
	Pose       Pose         `yaml:"pose,omitempty"`

	// Color is the base color; Material overrides the other factors.
	Color    *Color          `yaml:"color,omitempty"`
	Material *RenderMaterial `yaml:"material,omitempty"`
}

// RenderMaterial are the render material factors of a visual.
type RenderMaterial struct {
	Roughness    *float32 `yaml:"roughness,omitempty"`
	Metallic     *float32 `yaml:"metallic,omitempty"`
	Specular     *float32 `yaml:"specular,omitempty"`
	Transmission *float32 `yaml:"transmission,omitempty"`
	IOR          *float32 `yaml:"ior,omitempty"`
	Emission     *Color   `yaml:"emission,omitempty"`
}

// Articulation is a tree of links. The first link is the root; every
// other link names its parent, which must come before it.
type Articulation struct {
	Name string `yaml:"name"`

	// FixRootLink fixes the root in place instead of letting it float.
	FixRootLink bool `yaml:"fix_root_link,omitempty"`

	RootPose Pose      `yaml:"root_pose,omitempty"`
	QPos     []float64 `yaml:"qpos,omitempty"`

	Links []Link `yaml:"links,omitempty"`
}

// Link is one link of an [Articulation].
type Link struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
	Joint  Joint  `yaml:"joint,omitempty"`

	Collisions []Collision `yaml:"collisions,omitempty"`
	Visuals    []Visual    `yaml:"visuals,omitempty"`
}

// Joint connects a link to its parent. Type is "fixed" (the default),
// "revolute", "continuous" or "prismatic".
type Joint struct {
	Name         string      `yaml:"name"`
	Type         string      `yaml:"type,omitempty"`
	PoseInParent Pose        `yaml:"pose_in_parent,omitempty"`
	PoseInChild  Pose        `yaml:"pose_in_child,omitempty"`
	Limits       *[2]float64 `yaml:"limits,omitempty"`
	Damping      float64     `yaml:"damping,omitempty"`
	Stiffness    float64     `yaml:"stiffness,omitempty"`
	DriveDamping float64     `yaml:"drive_damping,omitempty"`
	Target       float64     `yaml:"target,omitempty"`
}

// Light is a light. Type is "directional" or "point".
type Light struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type,omitempty"`
	Direction [3]float64 `yaml:"direction,omitempty"`
	Position  [3]float64 `yaml:"position,omitempty"`
	Color     *Color     `yaml:"color,omitempty"`
	Shadow    bool       `yaml:"shadow,omitempty"`
}

// Camera is a camera, mounted on the named actor when Mount is set,
// in which case Pose is relative to the mount.
type Camera struct {
	Name   string `yaml:"name"`
	Pose   Pose   `yaml:"pose,omitempty"`
	Mount  string `yaml:"mount,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`

	// FovY is the vertical field of view in degrees.
	FovY float64 `yaml:"fovy,omitempty"`
	Near float64 `yaml:"near,omitempty"`
	Far  float64 `yaml:"far,omitempty"`
}

// Pose is a pose written as 3 reals (a position) or 7 reals
// [px py pz qw qx qy qz]. An empty pose is the identity.
type Pose []float64

// Pose returns the decoded pose.
func (ps Pose) Pose() (spatial.Pose, error) {
	switch len(ps) {
	case 0:
		return spatial.Identity(), nil
	case 3:
		return spatial.At(ps[0], ps[1], ps[2]), nil
	case 7:
		if ps[3] == 0 && ps[4] == 0 && ps[5] == 0 && ps[6] == 0 {
			return spatial.Identity(), fmt.Errorf("zero quaternion in pose %v", []float64(ps))
		}
		return spatial.PoseFromArray([7]float64(ps)), nil
	}
	return spatial.Identity(), fmt.Errorf("pose has %d values, want 3 or 7", len(ps))
}

// Color is a color written as a name from [colornames.Map] or as
// 3 or 4 values in [0, 255].
type Color color.RGBA

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		nc, ok := colornames.Map[strings.ToLower(node.Value)]
		if !ok {
			return fmt.Errorf("line %d: unknown color name %q", node.Line, node.Value)
		}
		*c = Color(nc)
		return nil
	case yaml.SequenceNode:
		var vs []uint8
		if err := node.Decode(&vs); err != nil {
			return err
		}
		switch len(vs) {
		case 3:
			*c = Color{vs[0], vs[1], vs[2], 255}
		case 4:
			*c = Color{vs[0], vs[1], vs[2], vs[3]}
		default:
			return fmt.Errorf("line %d: color has %d values, want 3 or 4", node.Line, len(vs))
		}
		return nil
	}
	return fmt.Errorf("line %d: invalid color", node.Line)
}

func (c Color) MarshalYAML() (any, error) {
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}, nil
}

// RGBA returns the color as a [color.RGBA].
func (c *Color) RGBA() color.RGBA { return color.RGBA(*c) }

func vec(v [3]float64) mgl64.Vec3 { return mgl64.Vec3(v) }

// failure wraps err as an [errors.ErrAssetLoadFailure].
func failure(what string, err error) error {
	return fmt.Errorf("asset %s: %w: %w", what, errors.ErrAssetLoadFailure, err)
}

// headerSize is the number of leading bytes used to detect binary
// files.
const headerSize = 262

// Parse decodes a scene description. Unknown fields are errors.
func Parse(b []byte) (*Scene, error) {
	return Read(bytes.NewReader(b))
}

// Read decodes a scene description from r.
func Read(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	sc := &Scene{}
	if err := dec.Decode(sc); err != nil && err != io.EOF {
		return nil, failure("decode", err)
	}
	return sc, nil
}

// Open reads the scene description in the given file. Files whose
// header identifies a known binary format are rejected before decoding.
func Open(filename string) (*Scene, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, failure(filename, err)
	}
	defer f.Close()
	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, failure(filename, err)
	}
	head = head[:n]
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return nil, failure(filename, fmt.Errorf("%s file is not a scene description", kind.MIME.Value))
	}
	sc, err := Read(io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sc, nil
}

// Save writes the scene description to the given file.
func Save(sc *Scene, filename string) error {
	b, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
