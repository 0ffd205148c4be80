// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"math"
	"runtime"

	"cogentcore.org/sim/config"
	"cogentcore.org/sim/spatial"
	"github.com/anthonynsimon/bild/blur"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// eps offsets secondary rays from the surface they start on.
const eps = 1e-5

// renderer ray casts one picture from an immutable frame.
type renderer struct {
	fr       *frame
	rs       config.RenderSettings
	w, h     int
	tanY     float64
	aspect   float64
	near     float64
	far      float64
	model    spatial.Pose
	rt       bool
	samplesK int
}

func (cm *Camera) newRenderer(rs config.RenderSettings) *renderer {
	rd := &renderer{
		fr:     cm.scene.snapshot(),
		rs:     rs,
		w:      cm.Width,
		h:      cm.Height,
		tanY:   math.Tan(cm.FovY / 2),
		aspect: float64(cm.Width) / float64(cm.Height),
		near:   cm.Near,
		far:    cm.Far,
		model:  cm.pose.Mul(spatial.PoseFromMat4(glFrame)),
		rt:     rs.ShaderDir == "rt",
	}
	rd.samplesK = int(math.Ceil(math.Sqrt(float64(max(rs.SamplesPerPixel, 1)))))
	return rd
}

// render fills all channels using bands of rows on parallel goroutines.
func (rd *renderer) render(ctx context.Context) ([channelsN]*Picture, error) {
	var pics [channelsN]*Picture
	for ch := range channelsN {
		pics[ch] = newPicture(ch, rd.w, rd.h)
	}
	bands := min(runtime.GOMAXPROCS(0), rd.h)
	g, ctx := errgroup.WithContext(ctx)
	for b := range bands {
		y0, y1 := b*rd.h/bands, (b+1)*rd.h/bands
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for x := range rd.w {
					rd.pixel(pics, x, y)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pics, err
	}
	if rd.rs.Denoiser == "gaussian" && rd.rs.DenoiseRadius > 0 {
		pics[Color].setImage(blur.Gaussian(pics[Color].Image(), rd.rs.DenoiseRadius))
	}
	return pics, nil
}

// ray returns the world ray through image point (px, py) and its
// direction in OpenGL camera space.
func (rd *renderer) ray(px, py float64) (o, d, dc mgl64.Vec3) {
	xn := (2*px/float64(rd.w) - 1) * rd.tanY * rd.aspect
	yn := (1 - 2*py/float64(rd.h)) * rd.tanY
	dc = mgl64.Vec3{xn, yn, -1}.Normalize()
	return rd.model.P, rd.model.Rotate(dc), dc
}

// pixel renders the stratified color samples of one pixel, and the
// position and segmentation of its center.
func (rd *renderer) pixel(pics [channelsN]*Picture, x, y int) {
	o, d, dc := rd.ray(float64(x)+0.5, float64(y)+0.5)
	// clip to the near plane along the ray
	tmin := rd.near / -dc[2]
	h, ok := rd.fr.trace(o, d, tmin, math.Inf(1))
	if ok && h.t*-dc[2] >= rd.far {
		ok = false
	}
	if ok {
		pc := dc.Mul(h.t)
		dist := -pc[2]
		f, n := rd.far, rd.near
		ndc := (f+n)/(f-n) - 2*f*n/((f-n)*dist)
		depth := math32.Min(float32((ndc+1)/2), math32.Nextafter(1, 0))
		pics[Position].set(x, y, [4]float32{float32(pc[0]), float32(pc[1]), float32(pc[2]), depth})
		pics[Segmentation].set(x, y, [4]float32{float32(h.node.visual), float32(h.node.actor), 0, 0})
	} else {
		pics[Position].set(x, y, [4]float32{0, 0, 0, 1})
	}

	k := rd.samplesK
	n := max(rd.rs.SamplesPerPixel, 1)
	var sum [4]float32
	for i := range n {
		sx := (float64(i%k) + 0.5) / float64(k)
		sy := (float64(i/k) + 0.5) / float64(k)
		so, sd, sdc := rd.ray(float64(x)+sx, float64(y)+sy)
		c := rd.sample(so, sd, rd.near/-sdc[2], -sdc[2])
		for j := range 4 {
			sum[j] += c[j]
		}
	}
	for j := range 4 {
		sum[j] = math32.Max(0, math32.Min(1, sum[j]/float32(n)))
	}
	pics[Color].set(x, y, sum)
}

// sample returns the RGBA color of a primary ray; cosz converts ray
// distance to camera depth for far clipping.
func (rd *renderer) sample(o, d mgl64.Vec3, tmin, cosz float64) [4]float32 {
	h, ok := rd.fr.trace(o, d, tmin, rd.far/cosz)
	if !ok {
		return rd.rs.Background
	}
	c := rd.surface(h, d, 0)
	return [4]float32{c[0], c[1], c[2], 1}
}

// shade returns the color seen along a secondary ray.
func (rd *renderer) shade(o, d mgl64.Vec3, depth int) mgl32.Vec3 {
	h, ok := rd.fr.trace(o, d, eps, math.Inf(1))
	if !ok {
		bg := rd.rs.Background
		return mgl32.Vec3{bg[0], bg[1], bg[2]}
	}
	return rd.surface(h, d, depth)
}

// hit is the closest intersection of a ray.
type hit struct {
	t    float64
	p    mgl64.Vec3
	n    mgl64.Vec3 // outward normal
	node *frameNode
}

// trace returns the closest hit with tmin < t < tmax.
func (fr *frame) trace(o, d mgl64.Vec3, tmin, tmax float64) (hit, bool) {
	best := hit{t: tmax}
	found := false
	for i := range fr.nodes {
		nd := &fr.nodes[i]
		if !math.IsInf(nd.radius, 1) {
			oc := o.Sub(nd.pose.P)
			b := oc.Dot(d)
			c := oc.Dot(oc) - nd.radius*nd.radius
			if (c > 0 && b > 0) || b*b-c < 0 {
				continue
			}
		}
		t, n, ok := nd.shape.intersect(nd.inv.Apply(o), nd.inv.Rotate(d), tmin)
		if !ok || t >= best.t {
			continue
		}
		best = hit{t: t, n: nd.pose.Rotate(n), node: nd}
		found = true
	}
	best.p = o.Add(d.Mul(best.t))
	return best, found
}

// occluded reports whether anything lies on the ray before tmax.
func (fr *frame) occluded(o, d mgl64.Vec3, tmax float64) bool {
	_, ok := fr.trace(o, d, eps, tmax)
	return ok
}

func mulv(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// surface shades a hit with Blinn-Phong lighting. The default shader
// casts shadows for lights that request them and alpha blends
// transmission; the rt shader shadows all lights and traces mirror
// reflection and refraction up to MaxBounces.
func (rd *renderer) surface(h hit, d mgl64.Vec3, depth int) mgl32.Vec3 {
	fr := rd.fr
	mt := &h.node.mat
	base, alpha := linear(mt.BaseColor)
	n := h.n
	if n.Dot(d) > 0 {
		n = n.Mul(-1)
	}
	p := h.p.Add(n.Mul(eps))
	view := vec32(d.Mul(-1))
	nf := vec32(n)
	shin := 1 + 127*(1-mt.Roughness)*(1-mt.Roughness)

	light := func(toLight mgl64.Vec3, rad mgl32.Vec3) mgl32.Vec3 {
		l := vec32(toLight)
		ndl := nf.Dot(l)
		if ndl <= 0 {
			return mgl32.Vec3{}
		}
		col := base.Mul(ndl)
		if hv := l.Add(view); hv.Len() > 0 {
			spec := mt.Specular * math32.Pow(math32.Max(nf.Dot(hv.Normalize()), 0), shin)
			col = col.Add(mgl32.Vec3{spec, spec, spec})
		}
		return mulv(col, rad)
	}

	col := mulv(fr.ambient, base)
	for _, dl := range fr.dirs {
		if (rd.rt || dl.shadow) && fr.occluded(p, dl.toLight, math.Inf(1)) {
			continue
		}
		col = col.Add(light(dl.toLight, dl.rad))
	}
	for _, pl := range fr.points {
		tl := pl.pos.Sub(p)
		dist := tl.Len()
		if dist == 0 {
			continue
		}
		tl = tl.Mul(1 / dist)
		if (rd.rt || pl.shadow) && fr.occluded(p, tl, dist) {
			continue
		}
		df := float32(dist)
		att := 1 / (1 + pl.lin*df + pl.quad*df*df)
		col = col.Add(light(tl, pl.rad).Mul(att))
	}
	emit, _ := linear(mt.Emission)
	col = col.Add(emit)

	if rd.rt && depth < rd.rs.MaxBounces {
		if mt.Metallic > 0 {
			r := d.Sub(n.Mul(2 * d.Dot(n)))
			refl := mulv(rd.shade(p, r, depth+1), base)
			col = col.Mul(1 - mt.Metallic).Add(refl.Mul(mt.Metallic))
		}
		if mt.Transmission > 0 {
			trans := mulv(rd.refract(h, d, depth), base)
			col = col.Mul(1 - mt.Transmission).Add(trans.Mul(mt.Transmission))
		}
	}
	opacity := alpha
	if !rd.rt {
		opacity *= 1 - mt.Transmission
	}
	if opacity < 1 && depth < max(rd.rs.MaxBounces, 1) {
		behind := rd.shade(h.p.Add(d.Mul(eps)), d, depth+1)
		col = col.Mul(opacity).Add(behind.Mul(1 - opacity))
	}
	return col
}

// refract traces the ray transmitted through the surface, falling back
// to reflection on total internal reflection.
func (rd *renderer) refract(h hit, d mgl64.Vec3, depth int) mgl32.Vec3 {
	nn := h.n
	eta := 1 / float64(h.node.mat.IOR)
	if d.Dot(nn) > 0 {
		nn = nn.Mul(-1)
		eta = float64(h.node.mat.IOR)
	}
	cosi := -d.Dot(nn)
	k := 1 - eta*eta*(1-cosi*cosi)
	if k < 0 {
		r := d.Add(nn.Mul(2 * cosi))
		return rd.shade(h.p.Add(nn.Mul(eps)), r, depth+1)
	}
	t := d.Mul(eta).Add(nn.Mul(eta*cosi - math.Sqrt(k))).Normalize()
	return rd.shade(h.p.Sub(nn.Mul(eps)), t, depth+1)
}
