/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hittest maps a pointer position on the sheet back to what the renderer drew
// there: a text overlay, a cell or nothing.
package hittest

import (
	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/layout"
	"fanzine/internal/textlayout"
)

// Kind of element under the pointer.
type Kind uint8

const (
	Empty Kind = iota
	Cell
	Text
)

func (k Kind) String() string {
	switch k {
	case Cell:
		return "cell"
	case Text:
		return "text"
	}
	return "empty"
}

// Result of a hit test. CellX/CellY are upright cell percentages.
type Result struct {
	Kind      Kind
	CellIndex int
	TextID    string
	CellX     float64
	CellY     float64
}

// None is the empty result.
var None = Result{Kind: Empty, CellIndex: -1}

// HitTest checks texts front to back (last slot, last text first), then cells.
// cells are the rectangles returned by render.Render for the same frame and fonts must
// be the provider the frame was drawn with.
func HitTest(px, py float64, cells []geometry.Rect, slots []layout.Slot, texts [domain.SlotCount][]domain.PageText, fonts textlayout.Provider) Result {
	if slots == nil {
		slots = layout.Slots()
	}
	p := geometry.Pt{X: px, Y: py}

	for i := len(cells) - 1; i >= 0; i-- {
		if i >= len(texts) {
			continue
		}
		cell := cells[i]
		rotated := i < len(slots) && slots[i].Rotated
		m := geometry.CellTransform(cell, rotated)
		list := texts[i]
		for j := len(list) - 1; j >= 0; j-- {
			t := list[j]
			if t.Content == "" {
				continue
			}
			box, _ := textlayout.MeasureOverlay(fonts, t, cell)
			// the drawn box is the upright box under the cell transform
			if m.TransformRect(box.Rect()).Contains(p) {
				x, y := relative(cell, p, rotated)
				return Result{Kind: Text, CellIndex: i, TextID: t.ID, CellX: x, CellY: y}
			}
		}
	}

	for i, cell := range cells {
		if cell.Contains(p) {
			rotated := i < len(slots) && slots[i].Rotated
			x, y := relative(cell, p, rotated)
			return Result{Kind: Cell, CellIndex: i, CellX: x, CellY: y}
		}
	}
	return None
}

// relative converts a surface point to upright cell percentages; the half turn of
// rotated cells is undone by mirroring.
func relative(cell geometry.Rect, p geometry.Pt, rotated bool) (float64, float64) {
	x, y := geometry.ToPercent(cell, p)
	if rotated {
		return geometry.MirrorPercent(x, y)
	}
	return x, y
}
