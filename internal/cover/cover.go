/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cover turns a per-slot pan/zoom state into the source rectangle of an image
// that, scaled into a cell, fills it completely ("object-fit: cover").
package cover

import (
	"math"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
)

// SourceRect is the region of the image, in image pixels, that maps onto the cell.
type SourceRect struct {
	X, Y, W, H float64
}

// Rect converts to a geometry rectangle.
func (s SourceRect) Rect() geometry.Rect { return geometry.R(s.X, s.Y, s.W, s.H) }

// Degenerate is used for zero-dimension images; it stretches a single pixel over the cell.
var Degenerate = SourceRect{X: 0, Y: 0, W: 1, H: 1}

// Compute returns the source rectangle for an image of natW x natH drawn into a
// cellW x cellH cell with the given crop.
//
//  1. base cover window: full height if the image is wider than the cell, else full width
//  2. zoom divides the window by max(1, scale)
//  3. the window is centered and panned by offset percent of the natural size
//  4. the window is clamped inside the image
func Compute(natW, natH, cellW, cellH float64, crop domain.CropTransform) SourceRect {
	if natW <= 0 || natH <= 0 || cellW <= 0 || cellH <= 0 || isBad(natW, natH, cellW, cellH) {
		return Degenerate
	}
	cellRatio := cellW / cellH
	var sw, sh float64
	if natW/natH > cellRatio {
		sh = natH
		sw = sh * cellRatio
	} else {
		sw = natW
		sh = sw / cellRatio
	}

	scale := crop.Scale
	if math.IsNaN(scale) || scale < 1 {
		scale = 1
	}
	sw /= scale
	sh /= scale

	sx := (natW-sw)/2 - finite(crop.OffsetX)/100*natW
	sy := (natH-sh)/2 - finite(crop.OffsetY)/100*natH

	sx = math.Max(0, math.Min(natW-sw, sx))
	sy = math.Max(0, math.Min(natH-sh, sy))
	return SourceRect{X: sx, Y: sy, W: sw, H: sh}
}

// Fit maps an image and a destination cell to the affine transform that draws the
// cover window of the image into the cell (image space -> cell space).
func Fit(src SourceRect, cell geometry.Rect) geometry.Affine {
	sx := cell.W / src.W
	sy := cell.H / src.H
	return geometry.Translate(cell.X, cell.Y).Mul(geometry.Scale(sx, sy)).Mul(geometry.Translate(-src.X, -src.Y))
}

func isBad(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
