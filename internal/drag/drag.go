/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag moves a text overlay with the pointer. Pointer deltas are negated in
// rotated cells so the text follows the pointer on the upside-down preview.
package drag

import "math"

// Clamp bounds keep a dragged text inside the visible cell.
const (
	MinPos = 5.0
	MaxPos = 95.0
)

// RotationFunc reports whether a slot is drawn upside down.
type RotationFunc func(slot int) bool

// Position is an updated text position.
type Position struct {
	Slot   int
	TextID string
	X, Y   float64
}

// Ended identifies the text whose drag just finished.
type Ended struct {
	Slot   int
	TextID string
}

type session struct {
	slot             int
	textID           string
	startPX, startPY float64
	startX, startY   float64
}

// Controller holds at most one drag session: idle -> dragging -> idle.
// It is not safe for concurrent use; pointer events arrive on one goroutine.
type Controller struct {
	rotated RotationFunc
	s       *session
}

// New returns an idle controller.
func New(rotated RotationFunc) *Controller {
	if rotated == nil {
		rotated = func(int) bool { return false }
	}
	return &Controller{rotated: rotated}
}

// Dragging reports whether a session is active.
func (c *Controller) Dragging() bool { return c.s != nil }

// Start begins a session at pointer (px,py) for a text currently at (x,y) percent.
// A running session is replaced.
func (c *Controller) Start(slot int, textID string, px, py, x, y float64) {
	c.s = &session{slot: slot, textID: textID, startPX: px, startPY: py, startX: x, startY: y}
}

// Move converts the pointer delta since Start into a clamped text position.
// cellW/cellH are the current cell size in pointer units. ok is false when idle.
func (c *Controller) Move(px, py, cellW, cellH float64) (Position, bool) {
	s := c.s
	if s == nil || cellW <= 0 || cellH <= 0 {
		return Position{}, false
	}
	dx, dy := px-s.startPX, py-s.startPY
	if c.rotated(s.slot) {
		dx, dy = -dx, -dy
	}
	x := clamp(s.startX + dx/cellW*100)
	y := clamp(s.startY + dy/cellH*100)
	return Position{Slot: s.slot, TextID: s.textID, X: x, Y: y}, true
}

// End finishes the session. ok is false when idle.
func (c *Controller) End() (Ended, bool) {
	if c.s == nil {
		return Ended{}, false
	}
	e := Ended{Slot: c.s.slot, TextID: c.s.textID}
	c.s = nil
	return e, true
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MinPos
	}
	return math.Max(MinPos, math.Min(MaxPos, v))
}
