/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

// SheetAspect is the width/height ratio of the A4 landscape sheet.
const SheetAspect = 297.0 / 210.0

// FitSurface centers the largest sheet-shaped surface inside a w x h area and returns its
// origin and size.
func FitSurface(w, h float32) (x, y, sw, sh float32) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0
	}
	sw, sh = w, w/SheetAspect
	if sh > h {
		sh, sw = h, h*SheetAspect
	}
	return (w - sw) / 2, (h - sh) / 2, sw, sh
}

// ToSurface converts a widget position to surface pixels for a surface rendered at
// scale pixels per widget unit. ok is false outside the surface.
func ToSurface(px, py, x, y, sw, sh, scale float32) (float64, float64, bool) {
	lx, ly := px-x, py-y
	ok := lx >= 0 && ly >= 0 && lx <= sw && ly <= sh
	return float64(lx * scale), float64(ly * scale), ok
}
