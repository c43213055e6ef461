/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import "testing"

func rotatedLow(slot int) bool { return slot < 4 }

func TestMoveUprightCell(t *testing.T) {
	c := New(rotatedLow)
	c.Start(6, "t1", 100, 100, 50, 50)
	p, ok := c.Move(110, 100, 200, 300)
	if !ok {
		t.Fatalf("expected active drag")
	}
	if p.X != 55 || p.Y != 50 || p.Slot != 6 || p.TextID != "t1" {
		t.Fatalf("unexpected position %+v", p)
	}
}

func TestMoveRotatedCellNegatesDelta(t *testing.T) {
	c := New(rotatedLow)
	c.Start(0, "t1", 100, 100, 50, 50)
	p, _ := c.Move(110, 130, 200, 300)
	if p.X != 45 || p.Y != 40 {
		t.Fatalf("want (45,40), got (%v,%v)", p.X, p.Y)
	}
}

func TestMoveClamps(t *testing.T) {
	c := New(nil)
	c.Start(6, "t1", 0, 0, 50, 50)
	p, _ := c.Move(10000, -10000, 200, 300)
	if p.X != MaxPos || p.Y != MinPos {
		t.Fatalf("clamp failed: %+v", p)
	}
}

func TestIdleAndEnd(t *testing.T) {
	c := New(nil)
	if _, ok := c.Move(1, 1, 10, 10); ok {
		t.Fatalf("idle controller should not move")
	}
	if _, ok := c.End(); ok {
		t.Fatalf("idle controller should not end")
	}
	c.Start(2, "a", 0, 0, 10, 10)
	c.Start(3, "b", 0, 0, 10, 10)
	e, ok := c.End()
	if !ok || e.Slot != 3 || e.TextID != "b" {
		t.Fatalf("unexpected end %+v %v", e, ok)
	}
	if c.Dragging() {
		t.Fatalf("still dragging after End")
	}
}

func TestMoveIgnoresZeroCell(t *testing.T) {
	c := New(nil)
	c.Start(6, "t1", 0, 0, 50, 50)
	if _, ok := c.Move(5, 5, 0, 100); ok {
		t.Fatalf("zero-width cell should be rejected")
	}
}
