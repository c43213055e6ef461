//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"fanzine/internal/domain"
	"fanzine/internal/editor"
)

func TestPreviewRendersAndForwardsClicks(t *testing.T) {
	test.NewTempApp(t)
	doc := domain.NewDocument()
	if _, err := doc.AddPhotos(domain.PhotoItem{ID: "a", URL: "store:a"}, domain.PhotoItem{ID: "b", URL: "store:b"}); err != nil {
		t.Fatal(err)
	}
	sess := editor.New(doc, editor.Options{})
	p := NewPreview(sess)
	w := test.NewTempWindow(t, p)
	w.Resize(fyne.NewSize(900, 700))
	p.Refresh()

	r := test.TempWidgetRenderer(t, p).(*previewRenderer)
	if r.img.Image == nil || r.img.Image.Bounds().Dx() < 2 {
		t.Fatalf("expected a rendered frame, got %v", r.img.Image)
	}

	// the front cover is the second cell of the lower row
	sz := p.Size()
	x, y, sw, sh := FitSurface(sz.Width, sz.Height)
	pos := fyne.NewPos(x+sw*3/8, y+sh*3/4)
	p.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: pos}, Button: desktop.MouseButtonPrimary})
	p.MouseUp(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: pos}, Button: desktop.MouseButtonPrimary})
	if got := sess.Interaction().SelectedIndex; got != 0 {
		t.Fatalf("selected = %d, want the front cover photo", got)
	}
}
