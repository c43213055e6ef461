/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

// Canvas is a small immediate-mode 2D surface over *image.RGBA, in the spirit of the
// HTML canvas. Drawing goes through a gg context; the canvas mirrors the current
// transform so callers can read it back.

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
)

type Canvas struct {
	img   *image.RGBA
	dc    *gg.Context
	m     geometry.Affine
	stack []geometry.Affine
}

// NewCanvas allocates a w x h surface.
func NewCanvas(w, h int) *Canvas {
	return WrapCanvas(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// WrapCanvas draws onto an existing image.
func WrapCanvas(img *image.RGBA) *Canvas {
	return &Canvas{img: img, dc: gg.NewContextForRGBA(img), m: geometry.Identity}
}

func (c *Canvas) Image() *image.RGBA { return c.img }
func (c *Canvas) Width() int         { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int        { return c.img.Bounds().Dy() }

// Save pushes the drawing state.
func (c *Canvas) Save() {
	c.dc.Push()
	c.stack = append(c.stack, c.m)
}

// Restore pops the drawing state; unbalanced calls are ignored.
func (c *Canvas) Restore() {
	n := len(c.stack)
	if n == 0 {
		return
	}
	c.dc.Pop()
	c.m = c.stack[n-1]
	c.stack = c.stack[:n-1]
}

// Depth reports the number of saved states.
func (c *Canvas) Depth() int { return len(c.stack) }

func (c *Canvas) Transform() geometry.Affine { return c.m }

// SetTransform replaces the current transform.
func (c *Canvas) SetTransform(m geometry.Affine) {
	c.m = m
	c.dc.Identity()
	concat(c.dc, m)
}

// Concat applies m before the current transform (like ctx.transform).
func (c *Canvas) Concat(m geometry.Affine) {
	c.m = c.m.Mul(m)
	concat(c.dc, m)
}

func (c *Canvas) Translate(x, y float64) { c.Concat(geometry.Translate(x, y)) }
func (c *Canvas) Rotate(rad float64)     { c.Concat(geometry.Rotate(rad)) }
func (c *Canvas) Scale(x, y float64)     { c.Concat(geometry.Scale(x, y)) }

// concat multiplies m into the context matrix. gg only offers elementary
// transforms, so m is split into translate, rotate, shear and scale.
func concat(dc *gg.Context, m geometry.Affine) {
	if m == geometry.Identity {
		return
	}
	dc.Translate(m.E, m.F)
	sx := math.Hypot(m.A, m.B)
	if sx == 0 {
		dc.Scale(0, 0)
		return
	}
	sy := (m.A*m.D - m.B*m.C) / sx
	dc.Rotate(math.Atan2(m.B, m.A))
	if sy != 0 {
		if k := (m.A*m.C + m.B*m.D) / (sx * sy); k != 0 {
			dc.Shear(k, 0)
		}
	}
	dc.Scale(sx, sy)
}

// Clear fills the whole surface with col, ignoring the transform.
func (c *Canvas) Clear(col domain.Color) {
	c.dc.SetColor(nrgba(col))
	c.dc.Clear()
}

// FillRect fills r (user space) with col, blending over the surface.
func (c *Canvas) FillRect(r geometry.Rect, col domain.Color) {
	if col.A == 0 || r.W <= 0 || r.H <= 0 {
		return
	}
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.SetColor(nrgba(col))
	c.dc.Fill()
}

// FillVerticalGradient fills r with a linear gradient from top to bottom.
func (c *Canvas) FillVerticalGradient(r geometry.Rect, top, bottom domain.Color) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	// gradient coordinates are in device space
	p0 := c.m.Apply(geometry.Pt{X: r.X, Y: r.Y})
	p1 := c.m.Apply(geometry.Pt{X: r.X, Y: r.Y + r.H})
	if p0 == p1 {
		return
	}
	g := gg.NewLinearGradient(p0.X, p0.Y, p1.X, p1.Y)
	g.AddColorStop(0, nrgba(top))
	g.AddColorStop(1, nrgba(bottom))
	c.dc.Push()
	c.dc.SetFillStyle(g)
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.Fill()
	c.dc.Pop()
}

// Stroke describes line styling in user units.
type Stroke struct {
	Color domain.Color
	Width float64
	Dash  []float64 // on/off lengths; empty is solid
}

// StrokeRect outlines r; the line is centered on the rectangle edge like the HTML canvas.
func (c *Canvas) StrokeRect(r geometry.Rect, s Stroke) {
	c.stroke(s, func(dc *gg.Context) {
		dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	})
}

// StrokeLine draws a single segment.
func (c *Canvas) StrokeLine(seg geometry.Segment, s Stroke) {
	c.StrokePolyline([]geometry.Pt{{X: seg.X1, Y: seg.Y1}, {X: seg.X2, Y: seg.Y2}}, s)
}

// StrokePolyline strokes connected segments; the dash pattern continues across joints.
func (c *Canvas) StrokePolyline(pts []geometry.Pt, s Stroke) {
	if len(pts) < 2 {
		return
	}
	c.stroke(s, func(dc *gg.Context) {
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
	})
}

// stroke builds a path with fn and strokes it with butt caps. gg measures line
// widths and dashes in device pixels, so both are scaled by the transform here.
func (c *Canvas) stroke(s Stroke, fn func(dc *gg.Context)) {
	if s.Width <= 0 || s.Color.A == 0 {
		return
	}
	scale := math.Sqrt(math.Abs(c.m.A*c.m.D - c.m.B*c.m.C))
	dash := make([]float64, len(s.Dash))
	for i, d := range s.Dash {
		dash[i] = d * scale
	}
	c.dc.Push()
	c.dc.SetColor(nrgba(s.Color))
	c.dc.SetLineWidth(s.Width * scale)
	c.dc.SetLineCapButt()
	c.dc.SetDash(dash...)
	fn(c.dc)
	c.dc.Stroke()
	c.dc.Pop()
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// DrawImage draws the src window of img into dst (user space), clipped to dst.
func (c *Canvas) DrawImage(img image.Image, src geometry.Rect, dst geometry.Rect) {
	if img == nil || src.W <= 0 || src.H <= 0 || dst.W <= 0 || dst.H <= 0 {
		return
	}
	b := img.Bounds()
	sr := image.Rect(
		int(math.Floor(src.X))+b.Min.X, int(math.Floor(src.Y))+b.Min.Y,
		int(math.Ceil(src.X+src.W))+b.Min.X, int(math.Ceil(src.Y+src.H))+b.Min.Y,
	).Intersect(b)
	if sr.Empty() {
		// zero sized or corrupt images still cover their cell
		sr = b
	}
	if si, ok := img.(subImager); ok && sr != b {
		img = si.SubImage(sr)
	}
	fit := geometry.Translate(dst.X, dst.Y).
		Mul(geometry.Scale(dst.W/src.W, dst.H/src.H)).
		Mul(geometry.Translate(-src.X-float64(b.Min.X), -src.Y-float64(b.Min.Y)))

	c.dc.Push()
	c.dc.DrawRectangle(dst.X, dst.Y, dst.W, dst.H)
	c.dc.Clip()
	concat(c.dc, fit)
	c.dc.DrawImage(img, 0, 0)
	c.dc.Pop()
}

func nrgba(c domain.Color) color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }
