/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import "testing"

func TestFitSurface(t *testing.T) {
	cases := []struct {
		w, h         float32
		x, y, sw, sh float32
	}{
		{w: 297, h: 210, x: 0, y: 0, sw: 297, sh: 210},
		{w: 594, h: 300, x: (594 - 300*SheetAspect) / 2, y: 0, sw: 300 * SheetAspect, sh: 300},
		{w: 297, h: 400, x: 0, y: 95, sw: 297, sh: 210},
		{w: 0, h: 100},
	}
	for _, c := range cases {
		x, y, sw, sh := FitSurface(c.w, c.h)
		if !near(x, c.x) || !near(y, c.y) || !near(sw, c.sw) || !near(sh, c.sh) {
			t.Fatalf("FitSurface(%v,%v) = %v,%v,%v,%v", c.w, c.h, x, y, sw, sh)
		}
	}
}

func TestToSurface(t *testing.T) {
	px, py, ok := ToSurface(60, 30, 10, 10, 200, 100, 2)
	if !ok || px != 100 || py != 40 {
		t.Fatalf("got %v,%v,%v", px, py, ok)
	}
	if _, _, ok := ToSurface(5, 30, 10, 10, 200, 100, 2); ok {
		t.Fatalf("point left of the surface must be outside")
	}
}

func near(a, b float32) bool {
	d := a - b
	return d < 0.01 && d > -0.01
}
