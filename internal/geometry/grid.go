/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

const (
	Cols = 4
	Rows = 2

	// RefWidth is the preview width the gap setting is expressed against.
	RefWidth = 900.0
)

// GapPixels scales a gap given relative to refWidth onto a surface of width surfaceW,
// rounded to whole pixels.
func GapPixels(gap, surfaceW, refWidth float64) float64 {
	if refWidth <= 0 {
		refWidth = RefWidth
	}
	return math.Round(gap / refWidth * surfaceW)
}

// CellSize returns the uniform cell size for a surface and an absolute gap.
func CellSize(surfaceW, surfaceH, gap float64) (w, h float64) {
	return (surfaceW - gap*(Cols-1)) / Cols, (surfaceH - gap*(Rows-1)) / Rows
}

// Grid lays out the 8 cells left to right, top to bottom, with an absolute gap in
// surface units. No rounding is applied.
func Grid(surfaceW, surfaceH, gap float64) []Rect {
	cw, ch := CellSize(surfaceW, surfaceH, gap)
	cells := make([]Rect, 0, Cols*Rows)
	for i := 0; i < Cols*Rows; i++ {
		col := i % Cols
		row := i / Cols
		cells = append(cells, Rect{
			X: float64(col) * (cw + gap),
			Y: float64(row) * (ch + gap),
			W: cw,
			H: ch,
		})
	}
	return cells
}

// CalcCellRects computes the cell rectangles of a surface. The gap is relative to
// refWidth and is rounded to whole pixels before layout, so every surface with the
// same refWidth shows the same visual proportion.
func CalcCellRects(surfaceW, surfaceH, gap, refWidth float64) []Rect {
	return Grid(surfaceW, surfaceH, GapPixels(gap, surfaceW, refWidth))
}

// ToPercent maps a surface point into cell-relative percentages.
func ToPercent(cell Rect, p Pt) (x, y float64) {
	if cell.W == 0 || cell.H == 0 {
		return 0, 0
	}
	return (p.X - cell.X) / cell.W * 100, (p.Y - cell.Y) / cell.H * 100
}

// FromPercent maps cell-relative percentages to a surface point.
func FromPercent(cell Rect, x, y float64) Pt {
	return Pt{X: cell.X + x/100*cell.W, Y: cell.Y + y/100*cell.H}
}

// MirrorPercent is the 180 degree turn in percent space.
func MirrorPercent(x, y float64) (float64, float64) { return 100 - x, 100 - y }

// CellTransform is the draw-time transform of a cell: identity for upright cells,
// a half turn about the cell center for rotated ones.
func CellTransform(cell Rect, rotated bool) Affine {
	if !rotated {
		return Identity
	}
	return HalfTurnAbout(cell.Center())
}
