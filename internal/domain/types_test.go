/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func withSeqIDs(t *testing.T) {
	t.Helper()
	old := newID
	n := 0
	newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	t.Cleanup(func() { newID = old })
}

func photos(n int) []PhotoItem {
	out := make([]PhotoItem, n)
	for i := range out {
		out[i] = PhotoItem{ID: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("/tmp/p%d.jpg", i)}
	}
	return out
}

func TestAddPhotosCapsAtEight(t *testing.T) {
	d := NewDocument()
	n, err := d.AddPhotos(photos(5)...)
	if err != nil || n != 5 {
		t.Fatalf("first add: n=%d err=%v", n, err)
	}
	n, err = d.AddPhotos(photos(5)...)
	if !errors.Is(err, ErrTooManyPhotos) {
		t.Fatalf("expected ErrTooManyPhotos, got %v", err)
	}
	if n != 3 || len(d.Photos) != MaxPhotos || !d.IsFull() {
		t.Fatalf("n=%d len=%d", n, len(d.Photos))
	}
}

func TestReorderMovesItem(t *testing.T) {
	d := NewDocument()
	_, _ = d.AddPhotos(photos(4)...)
	if !d.Reorder(0, 2) {
		t.Fatalf("reorder refused")
	}
	var ids []string
	for _, p := range d.Photos {
		ids = append(ids, p.ID)
	}
	if got := strings.Join(ids, ","); got != "p1,p2,p0,p3" {
		t.Fatalf("order = %s", got)
	}
	if d.Reorder(-1, 2) || d.Reorder(0, 4) {
		t.Fatalf("out of range reorder should be a no-op")
	}
}

func TestSwapAndRemoveKeepSlotState(t *testing.T) {
	d := NewDocument()
	_, _ = d.AddPhotos(photos(3)...)
	_ = d.SetCrop(0, CropTransform{OffsetX: 10, Scale: 2})
	if !d.Swap(0, 2) {
		t.Fatalf("swap refused")
	}
	if d.Photos[0].ID != "p2" || d.Photos[2].ID != "p0" {
		t.Fatalf("swap failed: %+v", d.Photos)
	}
	if d.Crops[0].OffsetX != 10 {
		t.Fatalf("crop must stay with the slot")
	}
	removed, err := d.RemovePhoto(1)
	if err != nil || removed.ID != "p1" || len(d.Photos) != 2 {
		t.Fatalf("remove: %+v %v %d", removed, err, len(d.Photos))
	}
	if _, err := d.RemovePhoto(5); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestAddTextDefaultsAndLimit(t *testing.T) {
	withSeqIDs(t)
	d := NewDocument()
	txt, err := d.AddText(3, "hello")
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	want := PageText{ID: "id-1", Content: "hello", X: 50, Y: 50, Size: SizeMD, Color: ColorWhite, Font: FontSans}
	if txt != want {
		t.Fatalf("got %+v want %+v", txt, want)
	}
	_, _ = d.AddText(3, "b")
	_, _ = d.AddText(3, "c")
	if _, err := d.AddText(3, "d"); !errors.Is(err, ErrTooManyTexts) {
		t.Fatalf("expected ErrTooManyTexts, got %v", err)
	}
	if _, err := d.AddText(8, "x"); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestUpdateMoveRemoveText(t *testing.T) {
	withSeqIDs(t)
	d := NewDocument()
	txt, _ := d.AddText(0, "a")
	if err := d.MoveText(0, txt.ID, 130, -4); err != nil {
		t.Fatalf("MoveText: %v", err)
	}
	got, ok := d.Text(0, txt.ID)
	if !ok || got.X != 100 || got.Y != 0 {
		t.Fatalf("position not clamped: %+v", got)
	}
	_ = d.UpdateText(0, txt.ID, func(p *PageText) { p.ID = "hijack"; p.Color = ColorRose })
	if got, _ := d.Text(0, txt.ID); got.Color != ColorRose {
		t.Fatalf("update lost: %+v", got)
	}
	if err := d.RemoveText(0, txt.ID); err != nil {
		t.Fatalf("RemoveText: %v", err)
	}
	if err := d.RemoveText(0, txt.ID); !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected ErrTextNotFound, got %v", err)
	}
}

func TestSetGapClamps(t *testing.T) {
	d := NewDocument()
	d.SetGap(40)
	if d.Gap != MaxGap {
		t.Fatalf("gap = %v", d.Gap)
	}
	d.SetGap(-3)
	if d.Gap != 0 {
		t.Fatalf("gap = %v", d.Gap)
	}
}

func TestNormalizeCrop(t *testing.T) {
	c := NormalizeCrop(CropTransform{OffsetX: 300, OffsetY: -300, Scale: 0.2})
	if c != (CropTransform{OffsetX: 100, OffsetY: -100, Scale: 1}) {
		t.Fatalf("got %+v", c)
	}
	var zero Document
	if zero.CropsOrDefault()[4].Scale != 1 {
		t.Fatalf("zero crop should normalize to scale 1")
	}
}

func TestCloneIsDeep(t *testing.T) {
	withSeqIDs(t)
	d := NewDocument()
	_, _ = d.AddPhotos(photos(2)...)
	_, _ = d.AddText(1, "x")
	c := d.Clone()
	c.Photos[0].ID = "changed"
	c.Texts[1][0].Content = "changed"
	if d.Photos[0].ID == "changed" || d.Texts[1][0].Content == "changed" {
		t.Fatalf("clone shares storage with the original")
	}
}

func TestUsedFontsAndHasText(t *testing.T) {
	withSeqIDs(t)
	d := NewDocument()
	if d.HasText() {
		t.Fatalf("empty document has no text")
	}
	_, _ = d.AddText(0, "")
	a, _ := d.AddText(1, "a")
	_ = d.UpdateText(1, a.ID, func(p *PageText) { p.Font = FontMono })
	_, _ = d.AddText(2, "b")
	fonts := d.UsedFonts()
	if !d.HasText() || len(fonts) != 2 || fonts[0] != FontMono || fonts[1] != FontSans {
		t.Fatalf("fonts = %v", fonts)
	}
}

func TestPageTextJSONUsesEnumNames(t *testing.T) {
	b, err := json.Marshal(PageText{ID: "a", Size: SizeXL, Color: ColorBlack, Font: FontHandwritten})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"size":"xl"`, `"color":"black"`, `"font":"handwritten"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("%s missing %s", s, want)
		}
	}
	var p PageText
	if err := json.Unmarshal([]byte(`{"size":"huge"}`), &p); err == nil {
		t.Fatalf("unknown size should fail")
	}
}
