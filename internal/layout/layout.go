/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout is the fixed fold map of the one-sheet fanzine.
//
// The A4 landscape sheet carries a 4x2 grid numbered left to right, top to bottom:
//
//	0 1 2 3   page6 page5 page4 page3   (printed upside down)
//	4 5 6 7   back  front page1 page2
//
// Folding along the three vertical lines and the horizontal center, then cutting the
// middle half of the horizontal fold, turns the sheet into an 8 page booklet.
package layout

const (
	Cols      = 4
	Rows      = 2
	SlotCount = Cols * Rows
)

// Role is the booklet page a slot ends up as.
type Role string

const (
	FrontCover Role = "frontCover"
	BackCover  Role = "backCover"
	Page1      Role = "page1"
	Page2      Role = "page2"
	Page3      Role = "page3"
	Page4      Role = "page4"
	Page5      Role = "page5"
	Page6      Role = "page6"
)

// LabelKey is the translation key of the role.
func (r Role) LabelKey() string { return "layout." + string(r) }

// PrintLabel is the short label used on the printed sheet: FRONT, BACK, P1..P6.
func (r Role) PrintLabel() string {
	switch r {
	case FrontCover:
		return "FRONT"
	case BackCover:
		return "BACK"
	case "":
		return ""
	}
	return "P" + string(r[len(r)-1])
}

// Slot is one grid position.
type Slot struct {
	GridIndex    int
	Row, Col     int
	Role         Role
	Rotated      bool
	ReadingOrder int
}

// LabelKey is the translation key of the slot's role.
func (s Slot) LabelKey() string { return s.Role.LabelKey() }

var slots = [SlotCount]Slot{
	{GridIndex: 0, Row: 0, Col: 0, Role: Page6, Rotated: true, ReadingOrder: 6},
	{GridIndex: 1, Row: 0, Col: 1, Role: Page5, Rotated: true, ReadingOrder: 5},
	{GridIndex: 2, Row: 0, Col: 2, Role: Page4, Rotated: true, ReadingOrder: 4},
	{GridIndex: 3, Row: 0, Col: 3, Role: Page3, Rotated: true, ReadingOrder: 3},
	{GridIndex: 4, Row: 1, Col: 0, Role: BackCover, Rotated: false, ReadingOrder: 7},
	{GridIndex: 5, Row: 1, Col: 1, Role: FrontCover, Rotated: false, ReadingOrder: 0},
	{GridIndex: 6, Row: 1, Col: 2, Role: Page1, Rotated: false, ReadingOrder: 1},
	{GridIndex: 7, Row: 1, Col: 3, Role: Page2, Rotated: false, ReadingOrder: 2},
}

// byReading lists grid indexes in reading order.
var byReading = func() [SlotCount]int {
	var out [SlotCount]int
	for _, s := range slots {
		out[s.ReadingOrder] = s.GridIndex
	}
	return out
}()

// Slots returns a copy of the canonical layout, indexed by grid position.
func Slots() []Slot {
	out := make([]Slot, SlotCount)
	copy(out, slots[:])
	return out
}

// SlotAt returns the slot for a grid index; ok is false when out of range.
func SlotAt(i int) (Slot, bool) {
	if i < 0 || i >= SlotCount {
		return Slot{}, false
	}
	return slots[i], true
}

// IsRotated reports whether the slot is printed upside down. Out of range is false.
func IsRotated(i int) bool {
	s, ok := SlotAt(i)
	return ok && s.Rotated
}

// LabelKey returns the translation key for a grid index, or "" when out of range.
func LabelKey(i int) string {
	s, ok := SlotAt(i)
	if !ok {
		return ""
	}
	return s.LabelKey()
}

// GridIndexForReading maps a reading position (0 = front cover) to its grid index.
func GridIndexForReading(pos int) (int, bool) {
	if pos < 0 || pos >= SlotCount {
		return -1, false
	}
	return byReading[pos], true
}

// ReadingOrder returns items indexed by grid position rearranged into booklet reading
// order. Positions past the end of items are dropped.
func ReadingOrder[T any](items []T) []T {
	out := make([]T, 0, len(items))
	for _, gi := range byReading {
		if gi < len(items) {
			out = append(out, items[gi])
		}
	}
	return out
}

// Spread is a pair of pages shown side by side; Right is nil for an odd trailing page.
type Spread[T any] struct {
	Left, Right *T
}

// Spreads groups the reading order into consecutive pairs:
// front/page1, page2/page3, page4/page5, page6/back.
func Spreads[T any](items []T) []Spread[T] {
	ordered := ReadingOrder(items)
	var out []Spread[T]
	for i := 0; i < len(ordered); i += 2 {
		sp := Spread[T]{Left: &ordered[i]}
		if i+1 < len(ordered) {
			sp.Right = &ordered[i+1]
		}
		out = append(out, sp)
	}
	return out
}

// SpreadLabels returns the label keys of the four spreads.
func SpreadLabels() [][2]string {
	out := make([][2]string, 0, SlotCount/2)
	for i := 0; i < SlotCount; i += 2 {
		out = append(out, [2]string{slots[byReading[i]].LabelKey(), slots[byReading[i+1]].LabelKey()})
	}
	return out
}

// FromReadingOrder is the inverse of ReadingOrder for a full set of 8 items.
func FromReadingOrder[T any](ordered []T) []T {
	if len(ordered) != SlotCount {
		return nil
	}
	out := make([]T, SlotCount)
	for pos, gi := range byReading {
		out[gi] = ordered[pos]
	}
	return out
}
