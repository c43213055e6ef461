/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/textlayout"
)

func TestFillRectBlendsOver(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Clear(domain.RGB(0, 0, 0))
	c.FillRect(geometry.R(2, 2, 4, 4), domain.RGBA(255, 255, 255, 0.5))
	got := c.Image().RGBAAt(3, 3)
	if math.Abs(float64(got.R)-128) > 1 || got.A != 255 {
		t.Fatalf("blend = %+v", got)
	}
	if c.Image().RGBAAt(7, 7) != (color.RGBA{A: 255}) {
		t.Fatalf("fill leaked outside the rect")
	}
}

func TestSaveRestoreTransform(t *testing.T) {
	c := NewCanvas(20, 20)
	c.Save()
	c.Translate(10, 0)
	c.Save()
	c.Rotate(math.Pi)
	if c.Depth() != 2 {
		t.Fatalf("depth = %d", c.Depth())
	}
	c.Restore()
	if c.Transform() != geometry.Translate(10, 0) {
		t.Fatalf("transform = %+v", c.Transform())
	}
	c.Restore()
	c.Restore()
	if c.Transform() != geometry.Identity || c.Depth() != 0 {
		t.Fatalf("not back to identity")
	}
}

func TestConcatMatchesContextMatrix(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Concat(geometry.HalfTurnAbout(geometry.Pt{X: 5, Y: 5}))
	c.Concat(geometry.Affine{A: 2, B: 0.5, C: -0.75, D: 1.5, E: 3, F: -4})
	c.Scale(1, -1)
	m := c.Transform()
	for _, p := range []geometry.Pt{{X: 0, Y: 0}, {X: 7, Y: -3}, {X: -2.5, Y: 11}} {
		want := m.Apply(p)
		x, y := c.dc.TransformPoint(p.X, p.Y)
		if math.Abs(x-want.X) > 1e-9 || math.Abs(y-want.Y) > 1e-9 {
			t.Fatalf("point %+v: context (%v,%v) want %+v", p, x, y, want)
		}
	}
	c.SetTransform(geometry.Translate(1, 2))
	if x, y := c.dc.TransformPoint(0, 0); x != 1 || y != 2 {
		t.Fatalf("SetTransform left (%v,%v)", x, y)
	}
}

func TestHalfTurnFillLandsMirrored(t *testing.T) {
	c := NewCanvas(20, 20)
	c.Concat(geometry.HalfTurnAbout(geometry.Pt{X: 10, Y: 10}))
	c.FillRect(geometry.R(0, 0, 5, 5), domain.RGB(255, 0, 0))
	if got := c.Image().RGBAAt(17, 17); got.R < 250 {
		t.Fatalf("mirrored corner = %+v", got)
	}
	if got := c.Image().RGBAAt(2, 2); got.R != 0 {
		t.Fatalf("original corner should stay empty, got %+v", got)
	}
}

func TestDashedLineHasGaps(t *testing.T) {
	c := NewCanvas(40, 5)
	c.StrokeLine(geometry.Segment{X1: 0, Y1: 2.5, X2: 40, Y2: 2.5}, Stroke{Color: domain.RGB(255, 255, 255), Width: 1, Dash: []float64{4, 4}})
	on := c.Image().RGBAAt(1, 2)
	off := c.Image().RGBAAt(5, 2)
	if on.R < 250 || off.R > 5 {
		t.Fatalf("on=%+v off=%+v", on, off)
	}
}

func TestFillTextCompressesToMaxWidth(t *testing.T) {
	face, _ := testFonts.Resolve(textlayout.UISpec(40, domain.WeightBold))
	wide := NewCanvas(400, 60)
	wide.FillText("WWWWWW", 200, 30, TextStyle{Face: face, Color: domain.RGB(255, 255, 255)})
	narrow := NewCanvas(400, 60)
	narrow.FillText("WWWWWW", 200, 30, TextStyle{Face: face, Color: domain.RGB(255, 255, 255), MaxWidth: 60})
	if w, n := inkWidth(wide), inkWidth(narrow); n <= 0 || n > 64 || n >= w {
		t.Fatalf("ink width wide=%d narrow=%d", w, n)
	}
}

func inkWidth(c *Canvas) int {
	img := c.Image()
	minX, maxX := -1, -1
	for x := 0; x < img.Rect.Dx(); x++ {
		for y := 0; y < img.Rect.Dy(); y++ {
			if img.RGBAAt(x, y).A > 60 {
				if minX < 0 {
					minX = x
				}
				maxX = x
				break
			}
		}
	}
	if minX < 0 {
		return 0
	}
	return maxX - minX + 1
}

func TestBoxBlurSpreadsInk(t *testing.T) {
	src := image.NewAlpha(image.Rect(0, 0, 21, 21))
	src.SetAlpha(10, 10, color.Alpha{A: 255})
	out := boxBlur(src, 2)
	if out.AlphaAt(10, 10).A == 255 || out.AlphaAt(12, 10).A == 0 {
		t.Fatalf("blur did not spread: center=%d side=%d", out.AlphaAt(10, 10).A, out.AlphaAt(12, 10).A)
	}
}
