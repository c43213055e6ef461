/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestCalcCellRectsPartition(t *testing.T) {
	for _, w := range []float64{900, 3508, 1234.5, 64} {
		for _, h := range []float64{636, 2480, 333} {
			for _, gap := range []float64{0, 1, 7, 16} {
				cells := CalcCellRects(w, h, gap, RefWidth)
				g := GapPixels(gap, w, RefWidth)
				if len(cells) != 8 {
					t.Fatalf("len = %d", len(cells))
				}
				var sumW, sumH float64
				for c := 0; c < Cols; c++ {
					sumW += cells[c].W
				}
				for r := 0; r < Rows; r++ {
					sumH += cells[r*Cols].H
				}
				if !near(sumW+3*g, w) || !near(sumH+g, h) {
					t.Fatalf("w=%v h=%v gap=%v: sums %v/%v", w, h, gap, sumW+3*g, sumH+g)
				}
				for i := range cells {
					for j := i + 1; j < len(cells); j++ {
						if cells[i].Overlaps(cells[j].Inset(eps, eps)) {
							t.Fatalf("cells %d and %d overlap: %+v %+v", i, j, cells[i], cells[j])
						}
					}
				}
				last := cells[7]
				if !near(last.X+last.W, w) || !near(last.Y+last.H, h) {
					t.Fatalf("last cell does not reach the far corner: %+v", last)
				}
			}
		}
	}
}

func TestPreviewScenarioCellSize(t *testing.T) {
	cells := CalcCellRects(900, 636, 0, RefWidth)
	if cells[0].W != 225 || cells[0].H != 318 {
		t.Fatalf("cell = %+v", cells[0])
	}
	if cells[5].X != 225 || cells[5].Y != 318 {
		t.Fatalf("cell 5 = %+v", cells[5])
	}
}

func TestGapScalesWithSurface(t *testing.T) {
	if g := GapPixels(8, 900, RefWidth); g != 8 {
		t.Fatalf("preview gap = %v", g)
	}
	if g := GapPixels(8, 3508, RefWidth); g != 31 {
		t.Fatalf("print gap = %v", g)
	}
	if g := GapPixels(8, 900, 0); g != 8 {
		t.Fatalf("zero ref should fall back to the default, got %v", g)
	}
}

func TestHalfTurnIsInvolution(t *testing.T) {
	cell := R(225, 0, 225, 318)
	m := CellTransform(cell, true)
	for _, p := range []Pt{{225, 0}, {300, 17.5}, {449.9, 318}, cell.Center()} {
		q := m.Apply(m.Apply(p))
		if !near(q.X, p.X) || !near(q.Y, p.Y) {
			t.Fatalf("%+v -> %+v", p, q)
		}
	}
	if c := m.Apply(cell.Center()); !near(c.X, cell.Center().X) || !near(c.Y, cell.Center().Y) {
		t.Fatalf("center moved to %+v", c)
	}
	if CellTransform(cell, false) != Identity {
		t.Fatalf("upright cell must use identity")
	}
}

func TestPercentMirrorMatchesHalfTurn(t *testing.T) {
	cell := R(10, 20, 200, 300)
	m := CellTransform(cell, true)
	for x := 0.0; x <= 100; x += 12.5 {
		for y := 0.0; y <= 100; y += 20 {
			p := m.Apply(FromPercent(cell, x, y))
			px, py := ToPercent(cell, p)
			mx, my := MirrorPercent(px, py)
			if !near(mx, x) || !near(my, y) {
				t.Fatalf("(%v,%v) -> (%v,%v)", x, y, mx, my)
			}
		}
	}
}

func TestAffineInvertAndAff3(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	inv, ok := m.Invert()
	if !ok {
		t.Fatalf("not invertible")
	}
	if q := inv.Apply(p); !near(q.X, 1) || !near(q.Y, 1) {
		t.Fatalf("inverse = %+v", q)
	}
	if _, ok := Scale(0, 1).Invert(); ok {
		t.Fatalf("singular matrix reported invertible")
	}
}

func TestComputeGuides(t *testing.T) {
	g := ComputeGuides(900, 636, 10, 4.5)
	if !near(g.FoldY, 313+5) {
		t.Fatalf("fold y = %v", g.FoldY)
	}
	if g.Cut.X1 != 225 || g.Cut.X2 != 675 || g.Cut.Y1 != g.FoldY {
		t.Fatalf("cut = %+v", g.Cut)
	}
	if g.FoldV[1].X1 != 450 || g.FoldV[1].Y2 != 636 {
		t.Fatalf("vertical fold = %+v", g.FoldV[1])
	}
	if g.Scissors[0].X1 != 220.5 || g.Scissors[1].Y1 != g.FoldY+4.5 {
		t.Fatalf("scissors = %+v", g.Scissors)
	}
}

func TestCropMarksPointInward(t *testing.T) {
	marks := CropMarks(297, 210, 2, 5)
	if len(marks) != 8 {
		t.Fatalf("len = %d", len(marks))
	}
	if marks[0] != (Segment{2, 0, 7, 0}) || marks[1] != (Segment{0, 2, 0, 7}) {
		t.Fatalf("top-left = %+v %+v", marks[0], marks[1])
	}
	if marks[6] != (Segment{295, 210, 290, 210}) || marks[7] != (Segment{297, 208, 297, 203}) {
		t.Fatalf("bottom-right = %+v %+v", marks[6], marks[7])
	}
}
