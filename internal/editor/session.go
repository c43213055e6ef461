/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the headless interactive session behind the desktop UI: it owns the
// document, the interaction state, the text drag and the undo history, and maps pointer
// events on the preview through the hit tester.
package editor

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"time"

	"fanzine/internal/domain"
	"fanzine/internal/drag"
	"fanzine/internal/geometry"
	"fanzine/internal/hittest"
	"fanzine/internal/i18n"
	"fanzine/internal/layout"
	applog "fanzine/internal/log"
	"fanzine/internal/render"
	"fanzine/internal/textlayout"
	"fanzine/internal/undo"
)

type Options struct {
	Fonts *textlayout.Faces
	T     i18n.Translator
	// OnChange is called after every committed document change (not on every drag move).
	OnChange func(*domain.Document)
	Undo     undo.Config
	// Now stamps undo snapshots; tests pin it.
	Now func() time.Time
}

// Session is not safe for concurrent use; the UI drives it from one goroutine.
type Session struct {
	doc     *domain.Document
	images  map[string]image.Image
	in      domain.Interaction
	drag    *drag.Controller
	history *undo.Manager
	// slot snapshot taken at pointer down, pushed on the first real move
	dragUndo  []byte
	dragMoved bool
	cells     []geometry.Rect
	opt       Options
	log       *slog.Logger

	ShowGuides bool
	ShowLabels bool
}

// slotState is the undo blob of one grid slot.
type slotState struct {
	Texts []domain.PageText    `json:"texts"`
	Crop  domain.CropTransform `json:"crop"`
}

func New(doc *domain.Document, opt Options) *Session {
	if doc == nil {
		doc = domain.NewDocument()
	}
	if opt.Fonts == nil {
		opt.Fonts = render.DefaultFonts()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Undo.MaxPerScope == 0 {
		opt.Undo.MaxPerScope = 50
	}
	return &Session{
		doc:        doc,
		images:     map[string]image.Image{},
		in:         domain.NewInteraction(domain.ModeReorder),
		drag:       drag.New(layout.IsRotated),
		history:    undo.NewManager(opt.Undo),
		opt:        opt,
		log:        applog.WithComponent("editor"),
		ShowLabels: true,
	}
}

func (s *Session) Document() *domain.Document               { return s.doc }
func (s *Session) Interaction() domain.Interaction          { return s.in }
func (s *Session) Cells() []geometry.Rect                   { return s.cells }
func (s *Session) SetImage(photoID string, img image.Image) { s.images[photoID] = img }

// Images returns the decoded photos in grid order; missing ones are nil.
func (s *Session) Images() []image.Image {
	out := make([]image.Image, len(s.doc.Photos))
	for i, p := range s.doc.Photos {
		out[i] = s.images[p.ID]
	}
	return out
}

// SetMode switches between reorder and text mode and drops the selection.
func (s *Session) SetMode(m domain.Mode) {
	s.in = domain.NewInteraction(m)
	if s.endDrag() {
		s.changed("move-text")
	}
}

// Redraw renders the live preview at w x h and remembers the cells for hit testing.
func (s *Session) Redraw(w, h int) *image.RGBA {
	c := render.NewCanvas(w, h)
	in := s.in
	s.cells = render.Render(c, float64(w), float64(h), render.Options{
		Images:      s.Images(),
		Gap:         s.doc.Gap,
		Texts:       s.doc.Texts,
		Crops:       s.doc.CropsOrDefault(),
		ShowGuides:  s.ShowGuides,
		ShowLabels:  s.ShowLabels,
		Interaction: &in,
		T:           s.opt.T,
		Fonts:       s.opt.Fonts,
	})
	return c.Image()
}

func (s *Session) hit(px, py float64) hittest.Result {
	if len(s.cells) == 0 {
		return hittest.None
	}
	return hittest.HitTest(px, py, s.cells, nil, s.doc.Texts, s.opt.Fonts)
}

// PointerDown handles a press at surface pixel (px, py). It reports whether a redraw is needed.
func (s *Session) PointerDown(px, py float64) bool {
	r := s.hit(px, py)
	if s.in.Mode == domain.ModeText {
		return s.textDown(r, px, py)
	}
	return s.reorderDown(r)
}

// Reorder mode: the first tap selects, a tap on another cell swaps, a second tap on the
// same cell deselects.
func (s *Session) reorderDown(r hittest.Result) bool {
	if r.Kind == hittest.Empty {
		changed := s.in.SelectedIndex != domain.NoIndex
		s.in.SelectedIndex = domain.NoIndex
		return changed
	}
	idx := r.CellIndex
	switch sel := s.in.SelectedIndex; {
	case sel == domain.NoIndex:
		if idx >= len(s.doc.Photos) {
			return false
		}
		s.in.SelectedIndex = idx
	case sel == idx:
		s.in.SelectedIndex = domain.NoIndex
	default:
		if idx < len(s.doc.Photos) {
			s.pushDocument()
			s.doc.Swap(sel, idx)
			s.changed("swap")
		}
		s.in.SelectedIndex = domain.NoIndex
		s.in.HoverIndex = domain.NoIndex
	}
	return true
}

func (s *Session) textDown(r hittest.Result, px, py float64) bool {
	switch r.Kind {
	case hittest.Text:
		t, ok := s.doc.Text(r.CellIndex, r.TextID)
		if !ok {
			return false
		}
		s.in.EditingIndex = r.CellIndex
		s.in.SelectedTextID = r.TextID
		s.dragUndo = s.capture(r.CellIndex)
		s.dragMoved = false
		s.drag.Start(r.CellIndex, r.TextID, px, py, t.X, t.Y)
	case hittest.Cell:
		s.in.EditingIndex = r.CellIndex
		s.in.SelectedTextID = ""
	default:
		s.in.EditingIndex = domain.NoIndex
		s.in.SelectedTextID = ""
	}
	return true
}

// PointerMove moves a dragged text or updates the hover target.
func (s *Session) PointerMove(px, py float64) bool {
	if s.drag.Dragging() {
		slot := s.in.EditingIndex
		if slot < 0 || slot >= len(s.cells) {
			return false
		}
		cell := s.cells[slot]
		pos, ok := s.drag.Move(px, py, cell.W, cell.H)
		if !ok {
			return false
		}
		if t, ok := s.doc.Text(pos.Slot, pos.TextID); !ok || (t.X == pos.X && t.Y == pos.Y) {
			return false
		}
		if s.dragUndo != nil {
			s.history.Push(pos.Slot, s.dragUndo, s.opt.Now())
			s.dragUndo = nil
		}
		if err := s.doc.MoveText(pos.Slot, pos.TextID, pos.X, pos.Y); err != nil {
			return false
		}
		s.dragMoved = true
		return true
	}
	if s.in.Mode != domain.ModeReorder || s.in.SelectedIndex == domain.NoIndex {
		return false
	}
	hover := domain.NoIndex
	if r := s.hit(px, py); r.Kind != hittest.Empty && r.CellIndex < len(s.doc.Photos) {
		hover = r.CellIndex
	}
	if hover == s.in.HoverIndex {
		return false
	}
	s.in.HoverIndex = hover
	return true
}

// PointerUp ends a text drag. A press without movement leaves no undo entry.
func (s *Session) PointerUp() bool {
	if s.endDrag() {
		s.changed("move-text")
		return true
	}
	return false
}

// endDrag stops any text drag and reports whether the text moved.
func (s *Session) endDrag() bool {
	_, ok := s.drag.End()
	moved := ok && s.dragMoved
	s.dragUndo = nil
	s.dragMoved = false
	return moved
}

// AddPhotos appends photos with their decoded images (img may be nil).
func (s *Session) AddPhotos(items []domain.PhotoItem, imgs []image.Image) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if s.doc.IsFull() {
		return 0, domain.ErrTooManyPhotos
	}
	s.pushDocument()
	n, err := s.doc.AddPhotos(items...)
	for i := 0; i < n && i < len(imgs); i++ {
		if imgs[i] != nil {
			s.images[s.doc.Photos[len(s.doc.Photos)-n+i].ID] = imgs[i]
		}
	}
	if n > 0 {
		s.changed("add-photos")
	}
	return n, err
}

// TODO: an autosave after RemovePhoto drops the stored bytes, so undoing the removal
// leaves a store: URL that no longer resolves. Keep the bytes until the history entry is pruned.
func (s *Session) RemovePhoto(i int) error {
	if i < 0 || i >= len(s.doc.Photos) {
		return domain.ErrInvalidSlot
	}
	s.pushDocument()
	_, _ = s.doc.RemovePhoto(i)
	s.in.SelectedIndex = domain.NoIndex
	s.changed("remove-photo")
	return nil
}

func (s *Session) SetGap(g float64) {
	s.pushDocument()
	s.doc.SetGap(g)
	s.changed("gap")
}

func (s *Session) SetCrop(slot int, c domain.CropTransform) error {
	if slot < 0 || slot >= domain.SlotCount {
		return domain.ErrInvalidSlot
	}
	s.pushSlot(slot)
	if err := s.doc.SetCrop(slot, c); err != nil {
		return err
	}
	s.changed("crop")
	return nil
}

// AddText places a new text in the slot being edited and selects it.
func (s *Session) AddText(content string) (domain.PageText, error) {
	slot := s.in.EditingIndex
	if slot == domain.NoIndex {
		return domain.PageText{}, domain.ErrInvalidSlot
	}
	s.pushSlot(slot)
	t, err := s.doc.AddText(slot, content)
	if err != nil {
		return t, err
	}
	s.in.SelectedTextID = t.ID
	s.changed("add-text")
	return t, nil
}

// UpdateSelectedText edits the selected text in place.
func (s *Session) UpdateSelectedText(fn func(*domain.PageText)) error {
	slot, id := s.in.EditingIndex, s.in.SelectedTextID
	if id == "" {
		return domain.ErrTextNotFound
	}
	s.pushSlot(slot)
	if err := s.doc.UpdateText(slot, id, fn); err != nil {
		return err
	}
	s.changed("update-text")
	return nil
}

func (s *Session) RemoveSelectedText() error {
	slot, id := s.in.EditingIndex, s.in.SelectedTextID
	if id == "" {
		return domain.ErrTextNotFound
	}
	s.pushSlot(slot)
	if err := s.doc.RemoveText(slot, id); err != nil {
		return err
	}
	s.in.SelectedTextID = ""
	s.changed("remove-text")
	return nil
}

// Undo reverts the most recent change. It reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	scope, ok := s.history.LatestUndo()
	if !ok {
		return false
	}
	snap, ok := s.history.Undo(scope, s.capture(scope))
	if !ok {
		return false
	}
	return s.restore(scope, snap.Blob, "undo")
}

func (s *Session) Redo() bool {
	scope, ok := s.history.LatestRedo()
	if !ok {
		return false
	}
	snap, ok := s.history.Redo(scope, s.capture(scope))
	if !ok {
		return false
	}
	return s.restore(scope, snap.Blob, "redo")
}

func (s *Session) pushDocument() {
	s.history.Push(undo.DocumentScope, s.capture(undo.DocumentScope), s.opt.Now())
}

func (s *Session) pushSlot(slot int) {
	if slot < 0 || slot >= domain.SlotCount {
		return
	}
	s.history.Push(slot, s.capture(slot), s.opt.Now())
}

func (s *Session) capture(scope int) []byte {
	var v any = s.doc
	if scope != undo.DocumentScope {
		v = slotState{Texts: s.doc.Texts[scope], Crop: s.doc.CropsOrDefault()[scope]}
	}
	blob, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("undo snapshot failed", slog.Int("scope", scope), slog.Any("err", err))
	}
	return blob
}

func (s *Session) restore(scope int, blob []byte, op string) bool {
	if err := s.apply(scope, blob); err != nil {
		s.log.Warn("undo restore failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	s.endDrag()
	if s.in.SelectedIndex >= len(s.doc.Photos) {
		s.in.SelectedIndex = domain.NoIndex
	}
	if _, ok := s.doc.Text(s.in.EditingIndex, s.in.SelectedTextID); !ok {
		s.in.SelectedTextID = ""
	}
	s.changed(op)
	return true
}

func (s *Session) apply(scope int, blob []byte) error {
	if scope == undo.DocumentScope {
		var d domain.Document
		if err := json.Unmarshal(blob, &d); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		*s.doc = d
		return nil
	}
	var st slotState
	if err := json.Unmarshal(blob, &st); err != nil {
		return fmt.Errorf("decode slot %d: %w", scope, err)
	}
	s.doc.Texts[scope] = st.Texts
	s.doc.Crops[scope] = st.Crop
	return nil
}

func (s *Session) changed(op string) {
	s.log.Debug("document changed", slog.String("op", op))
	if s.opt.OnChange != nil {
		s.opt.OnChange(s.doc)
	}
}
