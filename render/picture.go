// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"cogentcore.org/sim/base/errors"
	"github.com/chewxy/math32"
	"golang.org/x/text/cases"
)

// Channels are the kinds of pictures a camera produces.
type Channels int32

const (
	// Color is RGBA in [0, 1].
	Color Channels = iota

	// Position is the hit point in OpenGL camera space in xyz, with the
	// normalized depth in w: [0, 1) for hits and 1 for misses.
	Position

	// Segmentation holds the visual id in channel 0 and the actor id in
	// channel 1; both are 0 for misses.
	Segmentation

	channelsN
)

var channelNames = [...]string{"Color", "Position", "Segmentation"}

func (ch Channels) String() string {
	if ch < 0 || ch >= channelsN {
		return fmt.Sprintf("Channels(%d)", int32(ch))
	}
	return channelNames[ch]
}

// ParseChannel returns the channel with the given case insensitive name.
func ParseChannel(s string) (Channels, error) {
	fold := cases.Fold()
	s = fold.String(s)
	for i, nm := range channelNames {
		if fold.String(nm) == s {
			return Channels(i), nil
		}
	}
	return 0, fmt.Errorf("render: channel %q: %w", s, errors.ErrUnsupportedMode)
}

// Picture is an image of Height rows of Width pixels with 4 float32
// values per pixel, rows from top to bottom.
type Picture struct {
	Channel Channels
	Width   int
	Height  int
	Data    []float32
}

func newPicture(ch Channels, w, h int) *Picture {
	return &Picture{Channel: ch, Width: w, Height: h, Data: make([]float32, w*h*4)}
}

// At returns the 4 values of pixel (x, y).
func (pc *Picture) At(x, y int) [4]float32 {
	i := 4 * (y*pc.Width + x)
	return [4]float32(pc.Data[i : i+4])
}

func (pc *Picture) set(x, y int, v [4]float32) {
	i := 4 * (y*pc.Width + x)
	copy(pc.Data[i:i+4], v[:])
}

// Clone returns a deep copy.
func (pc *Picture) Clone() *Picture {
	cp := *pc
	cp.Data = slices.Clone(pc.Data)
	return &cp
}

func to8(v float32) uint8 {
	return uint8(math32.Round(255 * math32.Max(0, math32.Min(1, v))))
}

// Image converts a color picture to an 8 bit image.
func (pc *Picture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pc.Width, pc.Height))
	for y := range pc.Height {
		for x := range pc.Width {
			v := pc.At(x, y)
			img.SetRGBA(x, y, color.RGBA{to8(v[0]), to8(v[1]), to8(v[2]), to8(v[3])})
		}
	}
	return img
}

// setImage copies an 8 bit image into a color picture.
func (pc *Picture) setImage(img *image.RGBA) {
	for y := range pc.Height {
		for x := range pc.Width {
			c := img.RGBAAt(x, y)
			pc.set(x, y, [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255})
		}
	}
}
