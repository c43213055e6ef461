/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooManyPhotos = errors.New("fanzine holds at most 8 photos")
	ErrTooManyTexts  = errors.New("a page holds at most 3 texts")
	ErrInvalidSlot   = errors.New("slot index out of range")
	ErrTextNotFound  = errors.New("text not found")
)

// newID is swapped in tests for deterministic ids.
var newID = func() string { return uuid.NewString() }

// Document is the canonical session state. Photos are ordered by grid index; crops and
// texts are keyed by grid index and stay with the slot when photos are reordered.
// The caller owns the document and serializes access to it.
type Document struct {
	Photos []PhotoItem              `json:"photos"`
	Crops  [SlotCount]CropTransform `json:"crops"`
	Texts  [SlotCount][]PageText    `json:"pageTexts"`
	Gap    float64                  `json:"gap"`
}

// NewDocument returns an empty document with default crops.
func NewDocument() *Document {
	d := &Document{}
	for i := range d.Crops {
		d.Crops[i] = DefaultCrop()
	}
	return d
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := *d
	c.Photos = append([]PhotoItem(nil), d.Photos...)
	for i := range d.Texts {
		if d.Texts[i] != nil {
			c.Texts[i] = append([]PageText(nil), d.Texts[i]...)
		}
	}
	return &c
}

// IsFull reports whether no more photos can be added.
func (d *Document) IsFull() bool { return len(d.Photos) >= MaxPhotos }

// AddPhotos appends photos up to MaxPhotos. It returns how many were added and
// ErrTooManyPhotos when some had to be dropped.
func (d *Document) AddPhotos(items ...PhotoItem) (int, error) {
	room := MaxPhotos - len(d.Photos)
	if room < 0 {
		room = 0
	}
	n := len(items)
	if n > room {
		n = room
	}
	for _, it := range items[:n] {
		if it.ID == "" {
			it.ID = newID()
		}
		d.Photos = append(d.Photos, it)
	}
	if n < len(items) {
		return n, ErrTooManyPhotos
	}
	return n, nil
}

// RemovePhoto deletes the photo at index i and shifts the following photos left.
func (d *Document) RemovePhoto(i int) (PhotoItem, error) {
	if i < 0 || i >= len(d.Photos) {
		return PhotoItem{}, ErrInvalidSlot
	}
	removed := d.Photos[i]
	d.Photos = append(d.Photos[:i:i], d.Photos[i+1:]...)
	return removed, nil
}

// Reorder moves the photo at from to position to. Out of range indices are a no-op.
func (d *Document) Reorder(from, to int) bool {
	n := len(d.Photos)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	item := d.Photos[from]
	rest := append(d.Photos[:from:from], d.Photos[from+1:]...)
	next := make([]PhotoItem, 0, n)
	next = append(next, rest[:to]...)
	next = append(next, item)
	next = append(next, rest[to:]...)
	d.Photos = next
	return true
}

// Swap exchanges two photos, as done by the reorder mode of the editor.
func (d *Document) Swap(a, b int) bool {
	n := len(d.Photos)
	if a < 0 || a >= n || b < 0 || b >= n {
		return false
	}
	d.Photos[a], d.Photos[b] = d.Photos[b], d.Photos[a]
	return true
}

// Clear removes all photos, texts and crops; the gap is kept.
func (d *Document) Clear() {
	gap := d.Gap
	*d = *NewDocument()
	d.Gap = gap
}

// NewPageText returns a text with the default style at the cell center.
func NewPageText(content string) PageText {
	return PageText{ID: newID(), Content: content, X: 50, Y: 50, Size: SizeMD, Color: ColorWhite, Font: FontSans}
}

// AddText appends a default text overlay to a slot.
func (d *Document) AddText(slot int, content string) (PageText, error) {
	if !validSlot(slot) {
		return PageText{}, ErrInvalidSlot
	}
	if len(d.Texts[slot]) >= MaxTextsPerPage {
		return PageText{}, ErrTooManyTexts
	}
	t := NewPageText(content)
	d.Texts[slot] = append(d.Texts[slot], t)
	return t, nil
}

// Text looks up a text overlay by id.
func (d *Document) Text(slot int, id string) (PageText, bool) {
	if !validSlot(slot) {
		return PageText{}, false
	}
	for _, t := range d.Texts[slot] {
		if t.ID == id {
			return t, true
		}
	}
	return PageText{}, false
}

// UpdateText applies fn to the text with the given id. Position is clamped afterwards.
func (d *Document) UpdateText(slot int, id string, fn func(*PageText)) error {
	if !validSlot(slot) {
		return ErrInvalidSlot
	}
	for i := range d.Texts[slot] {
		if d.Texts[slot][i].ID == id {
			t := &d.Texts[slot][i]
			fn(t)
			t.ID = id
			t.X = clampOr(t.X, 0, 100, 50)
			t.Y = clampOr(t.Y, 0, 100, 50)
			return nil
		}
	}
	return ErrTextNotFound
}

// MoveText sets the upright position of a text overlay.
func (d *Document) MoveText(slot int, id string, x, y float64) error {
	return d.UpdateText(slot, id, func(t *PageText) { t.X, t.Y = x, y })
}

// RemoveText deletes a text overlay.
func (d *Document) RemoveText(slot int, id string) error {
	if !validSlot(slot) {
		return ErrInvalidSlot
	}
	texts := d.Texts[slot]
	for i := range texts {
		if texts[i].ID == id {
			d.Texts[slot] = append(texts[:i:i], texts[i+1:]...)
			return nil
		}
	}
	return ErrTextNotFound
}

// HasText reports whether any overlay carries visible content.
func (d *Document) HasText() bool {
	for _, texts := range d.Texts {
		for _, t := range texts {
			if strings.TrimSpace(t.Content) != "" {
				return true
			}
		}
	}
	return false
}

// UsedFonts returns the distinct fonts of non-empty texts in first-use order.
func (d *Document) UsedFonts() []TextFont {
	seen := map[TextFont]bool{}
	var out []TextFont
	for _, texts := range d.Texts {
		for _, t := range texts {
			if t.Content == "" || seen[t.Font] {
				continue
			}
			seen[t.Font] = true
			out = append(out, t.Font)
		}
	}
	return out
}

// SetCrop stores a normalized crop transform for a slot.
func (d *Document) SetCrop(slot int, c CropTransform) error {
	if !validSlot(slot) {
		return ErrInvalidSlot
	}
	d.Crops[slot] = NormalizeCrop(c)
	return nil
}

// CropsOrDefault returns all 8 crops, replacing unset entries with the default.
func (d *Document) CropsOrDefault() [SlotCount]CropTransform {
	var out [SlotCount]CropTransform
	for i, c := range d.Crops {
		out[i] = NormalizeCrop(c)
	}
	return out
}

// SetGap clamps the gap to [MinGap, MaxGap] and rounds it to a whole unit.
func (d *Document) SetGap(g float64) {
	d.Gap = math.Round(clampOr(g, MinGap, MaxGap, 0))
}

func validSlot(i int) bool { return i >= 0 && i < SlotCount }
