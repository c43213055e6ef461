/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package printguide draws the vector fold, cut and crop marks of the sheet onto a PDF page.
// All coordinates are millimetres on an A4 landscape page.
package printguide

import (
	"fanzine/internal/geometry"
	"fanzine/internal/layout"
)

// Page size in mm.
const (
	PageWidthMM  = 297.0
	PageHeightMM = 210.0
)

const (
	foldWidth     = 0.3
	cutWidth      = 0.4
	scissorsWidth = 0.25
	scissorsSize  = 1.5
	cropWidth     = 0.2
	cropOffset    = 2.0
	cropLength    = 5.0
	labelSize     = 6.0
	rotationSize  = 5.0
)

// RGB is an 8-bit colour triple.
type RGB struct{ R, G, B int }

var (
	FoldColor  = RGB{180, 180, 180}
	CutColor   = RGB{220, 80, 80}
	CropColor  = RGB{100, 100, 100}
	LabelColor = RGB{160, 160, 160}
)

// Drawer is the subset of *gofpdf.Fpdf the guides need.
type Drawer interface {
	SetDrawColor(r, g, b int)
	SetLineWidth(width float64)
	SetDashPattern(dashArray []float64, dashPhase float64)
	Line(x1, y1, x2, y2 float64)
	SetFontSize(size float64)
	SetTextColor(r, g, b int)
	Text(x, y float64, txtStr string)
	GetStringWidth(s string) float64
}

// Options tune Draw. Encode converts UTF-8 label text to the font's code page; nil keeps it.
type Options struct {
	Gap      float64
	RefWidth float64
	Encode   func(string) string
}

// GapMM converts a preview gap to millimetres with the same proportion as the raster.
func GapMM(gap, refWidth float64) float64 {
	if refWidth <= 0 {
		refWidth = geometry.RefWidth
	}
	return gap / refWidth * PageWidthMM
}

// Draw emits the guides in the order fold, cut, scissors, crop marks, labels.
func Draw(d Drawer, opt Options) {
	gapMM := GapMM(opt.Gap, opt.RefWidth)
	g := geometry.ComputeGuides(PageWidthMM, PageHeightMM, gapMM, scissorsSize)

	setColor(d, FoldColor)
	d.SetLineWidth(foldWidth)
	d.SetDashPattern([]float64{2, 2}, 0)
	line(d, g.FoldH)
	for _, s := range g.FoldV {
		line(d, s)
	}

	setColor(d, CutColor)
	d.SetLineWidth(cutWidth)
	d.SetDashPattern(nil, 0)
	line(d, g.Cut)
	d.SetLineWidth(scissorsWidth)
	for _, s := range g.Scissors {
		line(d, s)
	}

	setColor(d, CropColor)
	d.SetLineWidth(cropWidth)
	for _, s := range geometry.CropMarks(PageWidthMM, PageHeightMM, cropOffset, cropLength) {
		line(d, s)
	}

	drawLabels(d, gapMM, opt.Encode)
}

func drawLabels(d Drawer, gapMM float64, encode func(string) string) {
	if encode == nil {
		encode = func(s string) string { return s }
	}
	cells := geometry.Grid(PageWidthMM, PageHeightMM, gapMM)
	d.SetFontSize(labelSize)
	d.SetTextColor(LabelColor.R, LabelColor.G, LabelColor.B)
	for _, slot := range layout.Slots() {
		cell := cells[slot.GridIndex]
		cx := cell.X + cell.W/2
		y := cell.Y + 3
		centered(d, cx, y, encode(slot.Role.PrintLabel()))
		if slot.Rotated {
			d.SetFontSize(rotationSize)
			centered(d, cx, y+3, encode("(180°)"))
			d.SetFontSize(labelSize)
		}
	}
}

func centered(d Drawer, cx, y float64, s string) {
	d.Text(cx-d.GetStringWidth(s)/2, y, s)
}

func setColor(d Drawer, c RGB) { d.SetDrawColor(c.R, c.G, c.B) }

func line(d Drawer, s geometry.Segment) { d.Line(s.X1, s.Y1, s.X2, s.Y2) }
