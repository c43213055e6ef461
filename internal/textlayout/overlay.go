/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"math"

	"golang.org/x/image/font"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
)

// PaddingRatio is the overlay padding as a fraction of the font size.
const PaddingRatio = 0.6

// FontSizePx is the overlay font size for a cell height; text scales with the cell
// height so preview and print agree.
func FontSizePx(size domain.TextSize, cellH float64) float64 {
	return math.Round(cellH * size.Ratio())
}

// OverlayBox is the measured box of a text overlay in upright cell space. Renderer and
// hit tester both build it through MeasureOverlay.
type OverlayBox struct {
	FontSize float64
	Padding  float64
	Measured float64 // natural advance width of the content
	MaxTextW float64 // cell width minus padding on both sides
	TextW    float64 // min(Measured, MaxTextW)
	BarW     float64
	BarH     float64
	Center   geometry.Pt
}

// Rect is the padded box around the text.
func (b OverlayBox) Rect() geometry.Rect { return geometry.CenteredBox(b.Center, b.BarW, b.BarH) }

// Squeeze is the horizontal compression applied when the content is wider than MaxTextW.
func (b OverlayBox) Squeeze() float64 {
	if b.Measured <= 0 || b.Measured <= b.MaxTextW {
		return 1
	}
	if b.MaxTextW <= 0 {
		return 0
	}
	return b.MaxTextW / b.Measured
}

// MeasureOverlay computes the overlay box of t inside cell and returns the face used.
func MeasureOverlay(p Provider, t domain.PageText, cell geometry.Rect) (OverlayBox, font.Face) {
	if p == nil {
		p = GoFontProvider{}
	}
	fs := FontSizePx(t.Size, cell.H)
	pad := fs * PaddingRatio
	face, _ := p.Resolve(TextSpec(t.Font, fs, t.Size.Weight()))
	measured := MeasureString(face, Printable(face, t.Content))
	maxW := math.Max(0, cell.W-2*pad)
	textW := math.Min(measured, maxW)
	return OverlayBox{
		FontSize: fs,
		Padding:  pad,
		Measured: measured,
		MaxTextW: maxW,
		TextW:    textW,
		BarW:     textW + 2*pad,
		BarH:     fs + 2*pad,
		Center:   geometry.FromPercent(cell, t.X, t.Y),
	}, face
}
