/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Segment is a straight line from (X1,Y1) to (X2,Y2).
type Segment struct{ X1, Y1, X2, Y2 float64 }

// Guides are the fold and cut marks of the one-sheet fold.
type Guides struct {
	FoldY    float64
	FoldH    Segment    // horizontal center fold, full width
	FoldV    [3]Segment // vertical folds at 1/4, 1/2, 3/4 of the width
	Cut      Segment    // middle half of the horizontal fold
	Scissors [2]Segment // small X at the start of the cut
}

// ComputeGuides places the guides on a w x h surface. gap is absolute (pixels or mm)
// and scissors is the half-size of the X mark.
func ComputeGuides(w, h, gap, scissors float64) Guides {
	_, cellH := CellSize(w, h, gap)
	y := cellH + gap/2
	g := Guides{FoldY: y, FoldH: Segment{0, y, w, y}}
	for i, f := range []float64{0.25, 0.5, 0.75} {
		g.FoldV[i] = Segment{w * f, 0, w * f, h}
	}
	x1, x2 := w*0.25, w*0.75
	g.Cut = Segment{x1, y, x2, y}
	g.Scissors[0] = Segment{x1 - scissors, y - scissors, x1 + scissors, y + scissors}
	g.Scissors[1] = Segment{x1 - scissors, y + scissors, x1 + scissors, y - scissors}
	return g
}

// Corner directions point inward from each page corner: TL, TR, BL, BR.
var cornerDirs = [4][2]float64{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

// CropMarks returns two segments (horizontal then vertical) per corner, starting
// offset away from the corner and extending length further.
func CropMarks(w, h, offset, length float64) []Segment {
	corners := [4]Pt{{0, 0}, {w, 0}, {0, h}, {w, h}}
	out := make([]Segment, 0, 8)
	for i, c := range corners {
		dx, dy := cornerDirs[i][0], cornerDirs[i][1]
		out = append(out,
			Segment{c.X + offset*dx, c.Y, c.X + (offset+length)*dx, c.Y},
			Segment{c.X, c.Y + offset*dy, c.X, c.Y + (offset+length)*dy},
		)
	}
	return out
}
