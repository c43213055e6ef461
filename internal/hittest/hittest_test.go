/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hittest

import (
	"math"
	"testing"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/layout"
	"fanzine/internal/render"
	"fanzine/internal/textlayout"
)

var fonts = textlayout.NewFaces(nil)

func preview() []geometry.Rect { return geometry.CalcCellRects(900, 636, 0, geometry.RefWidth) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRotatedCenterHitsBackToFifty(t *testing.T) {
	var texts [domain.SlotCount][]domain.PageText
	texts[0] = []domain.PageText{{ID: "t1", Content: "Hello", X: 50, Y: 50, Size: domain.SizeLG}}
	cells := preview()
	c := cells[0].Center()
	r := HitTest(c.X, c.Y, cells, nil, texts, fonts)
	if r.Kind != Text || r.CellIndex != 0 || r.TextID != "t1" {
		t.Fatalf("got %+v", r)
	}
	if !near(r.CellX, 50) || !near(r.CellY, 50) {
		t.Fatalf("center maps to (%v,%v)", r.CellX, r.CellY)
	}
}

func TestRotatedTextIsFoundWhereItIsDrawn(t *testing.T) {
	var texts [domain.SlotCount][]domain.PageText
	texts[1] = []domain.PageText{{ID: "a", Content: "Top", X: 50, Y: 20, Size: domain.SizeXL}}
	cells := preview()
	cell := cells[1]
	drawn := geometry.CellTransform(cell, true).Apply(geometry.FromPercent(cell, 50, 20))
	if !near(drawn.Y, cell.Y+0.8*cell.H) {
		t.Fatalf("rotated text should be drawn at 80%% height, got %v", drawn.Y)
	}
	r := HitTest(drawn.X, drawn.Y, cells, nil, texts, fonts)
	if r.Kind != Text || r.TextID != "a" {
		t.Fatalf("got %+v", r)
	}
	if !near(r.CellX, 50) || !near(r.CellY, 20) {
		t.Fatalf("upright position = (%v,%v)", r.CellX, r.CellY)
	}
	upright := geometry.FromPercent(cell, 50, 20)
	if r := HitTest(upright.X, upright.Y, cells, nil, texts, fonts); r.Kind != Cell {
		t.Fatalf("unrotated position must not hit the text, got %+v", r)
	}
}

func TestLastTextWinsAndEmptyIsSkipped(t *testing.T) {
	var texts [domain.SlotCount][]domain.PageText
	texts[5] = []domain.PageText{
		{ID: "under", Content: "under", X: 50, Y: 50},
		{ID: "over", Content: "over", X: 50, Y: 50},
		{ID: "blank", Content: "", X: 50, Y: 50},
	}
	cells := preview()
	c := cells[5].Center()
	if r := HitTest(c.X, c.Y, cells, nil, texts, fonts); r.TextID != "over" {
		t.Fatalf("got %+v", r)
	}
}

func TestCellPercentagesRoundTrip(t *testing.T) {
	cells := preview()
	var texts [domain.SlotCount][]domain.PageText
	for i, slot := range layout.Slots() {
		m := geometry.CellTransform(cells[i], slot.Rotated)
		for x := 1.0; x < 100; x += 14 {
			for y := 1.0; y < 100; y += 14 {
				p := m.Apply(geometry.FromPercent(cells[i], x, y))
				r := HitTest(p.X, p.Y, cells, nil, texts, fonts)
				if r.Kind != Cell || r.CellIndex != i || math.Abs(r.CellX-x) > 1e-9 || math.Abs(r.CellY-y) > 1e-9 {
					t.Fatalf("slot %d (%v,%v) -> %+v", i, x, y, r)
				}
			}
		}
	}
}

func TestMissesAreEmpty(t *testing.T) {
	var texts [domain.SlotCount][]domain.PageText
	cells := geometry.CalcCellRects(900, 636, 16, geometry.RefWidth)
	for _, p := range []geometry.Pt{{X: -5, Y: -5}, {X: 901, Y: 10}, {X: cells[0].X + cells[0].W + 8, Y: 50}} {
		if r := HitTest(p.X, p.Y, cells, nil, texts, fonts); r != None {
			t.Fatalf("%+v -> %+v", p, r)
		}
	}
	if None.CellIndex != -1 || None.Kind.String() != "empty" {
		t.Fatalf("None = %+v", None)
	}
}

func TestHitMatchesRenderedPixels(t *testing.T) {
	var texts [domain.SlotCount][]domain.PageText
	texts[2] = []domain.PageText{{ID: "x", Content: "MMMM", X: 30, Y: 25, Size: domain.SizeXL, Color: domain.ColorBlack, ShowBg: true}}
	c := render.NewCanvas(900, 636)
	cells := render.Render(c, 900, 636, render.Options{Texts: texts, Fonts: fonts})
	cell := cells[2]
	box, _ := textlayout.MeasureOverlay(fonts, texts[2][0], cell)
	drawn := geometry.CellTransform(cell, true).TransformRect(box.Rect())

	// a pixel just inside the pill is lit by the background, one outside stays black
	in := c.Image().RGBAAt(int(drawn.X+2), int(drawn.Y+2))
	if in.R == 0 && in.G == 0 && in.B == 0 {
		t.Fatalf("expected pill pixel at %+v", drawn)
	}
	if r := HitTest(drawn.X+2, drawn.Y+2, cells, nil, texts, fonts); r.Kind != Text {
		t.Fatalf("pill pixel not hit: %+v", r)
	}
	if r := HitTest(drawn.X-3, drawn.Y-3, cells, nil, texts, fonts); r.Kind != Cell {
		t.Fatalf("outside pixel hit %+v", r)
	}
}
