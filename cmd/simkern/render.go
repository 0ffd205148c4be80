// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"cogentcore.org/sim/render"
	"cogentcore.org/sim/sim"
	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		steps   int
		camera  string
		channel string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "render <scene.yaml>",
		Short: "Render a picture from a scene camera to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := render.ParseChannel(channel)
			if err != nil {
				return err
			}
			sc, _, err := loadScene(args[0])
			if err != nil {
				return err
			}
			cm, err := findCamera(sc, camera)
			if err != nil {
				return err
			}
			if err := stepScene(cmd, sc, steps, nil); err != nil {
				return err
			}
			sc.UpdateRender()
			if err := cm.TakePicture(); err != nil {
				return err
			}
			pic, err := cm.GetPicture(ch)
			if err != nil {
				return err
			}
			if err := savePNG(pictureImage(pic), out); err != nil {
				return err
			}
			slog.Info("rendered picture", "camera", cm.Entity().Name(), "channel", ch, "file", out)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&steps, "steps", "n", 0, "number of steps before rendering")
	fs.StringVarP(&camera, "camera", "c", "", "camera name (default the only camera)")
	fs.StringVar(&channel, "channel", "color", "picture channel: color, position or segmentation")
	fs.StringVarP(&out, "out", "o", "picture.png", "output PNG file")
	return cmd
}

// findCamera returns the camera on the entity with the given name, or
// the only camera of the scene if name is empty.
func findCamera(sc *sim.Scene, name string) (*sim.Camera, error) {
	if name != "" {
		e, err := sc.FindEntity(name)
		if err != nil {
			return nil, err
		}
		return sim.Find[*sim.Camera](e)
	}
	var cams []*sim.Camera
	for _, e := range sc.Entities() {
		if cm, err := sim.Find[*sim.Camera](e); err == nil {
			cams = append(cams, cm)
		}
	}
	if len(cams) != 1 {
		return nil, fmt.Errorf("scene has %d cameras: use --camera", len(cams))
	}
	return cams[0], nil
}

// pictureImage converts a picture of any channel to an 8 bit image.
// Position pictures map depth to gray, near being bright, and
// segmentation pictures color each actor id.
func pictureImage(pic *render.Picture) *image.RGBA {
	switch pic.Channel {
	case render.Position:
		img := image.NewRGBA(image.Rect(0, 0, pic.Width, pic.Height))
		for y := range pic.Height {
			for x := range pic.Width {
				d := math32.Max(0, math32.Min(1, pic.At(x, y)[3]))
				g := uint8(math32.Round(255 * (1 - d)))
				img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
			}
		}
		return img
	case render.Segmentation:
		img := image.NewRGBA(image.Rect(0, 0, pic.Width, pic.Height))
		for y := range pic.Height {
			for x := range pic.Width {
				img.SetRGBA(x, y, segmentColor(int(pic.At(x, y)[1])))
			}
		}
		return img
	}
	return pic.Image()
}

// segmentColor returns a distinct color for the given actor id;
// id 0 (no hit) is black.
func segmentColor(id int) color.RGBA {
	if id <= 0 {
		return color.RGBA{0, 0, 0, 255}
	}
	// golden angle steps keep neighboring ids apart in hue
	hue := float64((id * 137) % 360)
	r, g, b := colorful.Hsv(hue, 0.65, 0.95).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

func savePNG(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
