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

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/textlayout"
)

// Baseline selects the vertical anchor of a text draw.
type Baseline uint8

const (
	BaselineMiddle Baseline = iota
	BaselineBottom
)

// Shadow is a drop shadow in device space, like canvas shadowColor/shadowBlur/shadowOffset.
type Shadow struct {
	Color   domain.Color
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// TextStyle describes one FillText call.
type TextStyle struct {
	Face     font.Face
	Color    domain.Color
	Baseline Baseline
	MaxWidth float64 // 0 means unlimited; wider text is compressed horizontally
	Shadow   *Shadow
}

// FillText draws s horizontally centered on (x,y) in user space.
func (c *Canvas) FillText(s string, x, y float64, st TextStyle) {
	if st.Face == nil {
		return
	}
	s = textlayout.Printable(st.Face, s)
	if s == "" {
		return
	}
	met := st.Face.Metrics()
	asc := math.Round(float64(met.Ascent) / 64)
	desc := float64(met.Descent) / 64
	adv := float64(font.MeasureString(st.Face, s)) / 64
	if adv <= 0 {
		return
	}
	squeeze := 1.0
	if st.MaxWidth > 0 && adv > st.MaxWidth {
		squeeze = st.MaxWidth / adv
	}
	var baseY float64
	switch st.Baseline {
	case BaselineBottom:
		baseY = y - desc
	default:
		baseY = y + (asc-desc)/2
	}

	if sh := st.Shadow; sh != nil && sh.Color.A > 0 {
		c.drawShadow(s, st.Face, asc, desc, adv, geometry.Translate(x, baseY).Mul(geometry.Scale(squeeze, 1)), sh)
	}

	c.dc.Push()
	c.dc.Translate(x, baseY)
	c.dc.Scale(squeeze, 1)
	c.dc.SetFontFace(st.Face)
	c.dc.SetColor(nrgba(st.Color))
	c.dc.DrawStringAnchored(s, 0, 0, 0.5, 0)
	c.dc.Pop()
}

// MeasureText returns the advance width of the drawable part of s.
func MeasureText(face font.Face, s string) float64 {
	return textlayout.MeasureString(face, textlayout.Printable(face, s))
}

const maskPad = 8

// drawShadow blurs the text mask and draws it offset in device space. local maps
// the pen origin of the centered string into user space.
func (c *Canvas) drawShadow(s string, face font.Face, asc, desc, adv float64, local geometry.Affine, sh *Shadow) {
	mask := textMask(face, s, asc, desc, adv)
	if mask == nil {
		return
	}
	pad := float64(maskPad)
	m := c.m.Mul(local).Mul(geometry.Translate(-adv/2-pad, -asc-pad))
	c.dc.Push()
	c.dc.Identity()
	c.dc.Translate(sh.OffsetX, sh.OffsetY)
	concat(c.dc, m)
	c.dc.DrawImage(colorize(boxBlur(mask, sh.Blur/2), sh.Color), 0, 0)
	c.dc.Pop()
}

// textMask renders s into an alpha mask with maskPad pixels of room on every side.
func textMask(face font.Face, s string, asc, desc, adv float64) *image.Alpha {
	w := int(math.Ceil(adv)) + 2*maskPad
	h := int(math.Ceil(asc+desc)) + 2*maskPad
	if w <= 2*maskPad || h <= 2*maskPad {
		return nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(rgba)
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawString(s, maskPad, maskPad+asc)
	mask := image.NewAlpha(rgba.Rect)
	for i := range mask.Pix {
		mask.Pix[i] = rgba.Pix[i*4+3]
	}
	return mask
}

func colorize(mask *image.Alpha, col domain.Color) *image.NRGBA {
	out := image.NewNRGBA(mask.Rect)
	for i, a := range mask.Pix {
		if a == 0 {
			continue
		}
		j := i * 4
		out.Pix[j] = col.R
		out.Pix[j+1] = col.G
		out.Pix[j+2] = col.B
		out.Pix[j+3] = uint8(uint16(a) * uint16(col.A) / 255)
	}
	return out
}

// boxBlur approximates a gaussian of the given sigma with three box passes.
func boxBlur(src *image.Alpha, sigma float64) *image.Alpha {
	r := int(math.Round(sigma))
	if r < 1 {
		return src
	}
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	cur := append([]uint8(nil), src.Pix...)
	tmp := make([]uint8, len(cur))
	for pass := 0; pass < 3; pass++ {
		blur1D(cur, tmp, w, h, r, true)
		blur1D(tmp, cur, w, h, r, false)
	}
	return &image.Alpha{Pix: cur, Stride: w, Rect: b}
}

func blur1D(in, out []uint8, w, h, r int, horizontal bool) {
	n, lines := w, h
	if !horizontal {
		n, lines = h, w
	}
	at := func(line, i int) int {
		if horizontal {
			return line*w + i
		}
		return i*w + line
	}
	span := 2*r + 1
	for l := 0; l < lines; l++ {
		sum := 0
		for i := -r; i <= r; i++ {
			if i >= 0 && i < n {
				sum += int(in[at(l, i)])
			}
		}
		for i := 0; i < n; i++ {
			out[at(l, i)] = uint8(sum / span)
			if j := i - r; j >= 0 {
				sum -= int(in[at(l, j)])
			}
			if j := i + r + 1; j < n {
				sum += int(in[at(l, j)])
			}
		}
	}
}
