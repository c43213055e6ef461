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
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"fanzine/internal/crash"
	"fanzine/internal/domain"
	"fanzine/internal/editor"
	"fanzine/internal/export"
	applog "fanzine/internal/log"
	"fanzine/internal/workspace"
)

// Run opens the project in projectDir (created when missing) and shows the booklet editor.
func Run(projectDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	if strings.TrimSpace(projectDir) == "" {
		projectDir = "."
	}

	ctx := context.Background()
	ws, err := workspace.Open(ctx, projectDir, true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	doc, err := ws.Document(ctx)
	if err != nil {
		return err
	}
	sess := editor.New(doc, editor.Options{
		Fonts: ws.Exporter.Fonts,
		T:     ws.T,
		OnChange: func(d *domain.Document) {
			if err := ws.Save(ctx, d); err != nil {
				l.Error("autosave failed", slog.Any("err", err))
			}
		},
	})
	sess.ShowGuides = ws.Config.Export.Guides
	defer crash.Recover(&crash.Target{Root: ws.Root(), Document: sess.Document})

	fyneApp := app.NewWithID("fanzine")
	w := fyneApp.NewWindow("Fanzine")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(float32(max(prefs.IntWithFallback("window.width", 1200), 800)), float32(max(prefs.IntWithFallback("window.height", 800), 600))))

	status := widget.NewLabel("Ready")
	preview := NewPreview(sess)

	// decode photos in the background; the preview shows empty cells until they arrive
	go func() {
		imgs, err := ws.Loader.LoadAll(ctx, doc.Photos)
		fyne.Do(func() {
			if err != nil {
				status.SetText("Some photos could not be loaded")
				l.Warn("photo load failed", slog.Any("err", err))
				return
			}
			for i, p := range doc.Photos {
				sess.SetImage(p.ID, imgs[i])
			}
			preview.Refresh()
		})
	}()

	mode := widget.NewRadioGroup([]string{"Reorder", "Text"}, func(v string) {
		if v == "Text" {
			sess.SetMode(domain.ModeText)
		} else {
			sess.SetMode(domain.ModeReorder)
		}
		preview.Refresh()
	})
	mode.Horizontal = true
	mode.SetSelected("Reorder")

	gap := widget.NewSlider(0, 16)
	gap.Step = 1
	gap.SetValue(doc.Gap)
	gap.OnChangeEnded = func(v float64) {
		sess.SetGap(v)
		preview.Refresh()
	}

	guides := widget.NewCheck("Guides", func(on bool) { sess.ShowGuides = on; preview.Refresh() })
	guides.SetChecked(sess.ShowGuides)
	labels := widget.NewCheck("Labels", func(on bool) { sess.ShowLabels = on; preview.Refresh() })
	labels.SetChecked(sess.ShowLabels)

	addText := widget.NewButton("Add text", func() {
		if sess.Interaction().EditingIndex == domain.NoIndex {
			dialog.ShowInformation("Add text", "Switch to text mode and pick a page first.", w)
			return
		}
		entry := widget.NewEntry()
		dialog.ShowForm("Add text", "Add", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
			if !ok || strings.TrimSpace(entry.Text) == "" {
				return
			}
			if _, err := sess.AddText(entry.Text); err != nil {
				dialog.ShowError(err, w)
				return
			}
			preview.Refresh()
		}, w)
	})
	removeText := widget.NewButton("Remove text", func() {
		if err := sess.RemoveSelectedText(); err == nil {
			preview.Refresh()
		}
	})

	addPhoto := widget.NewButton("Add photo", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if sess.Document().IsFull() {
				dialog.ShowError(domain.ErrTooManyPhotos, w)
				return
			}
			items, err := ws.StoreData(ctx, len(sess.Document().Photos), [][]byte{data})
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			imgs := make([]image.Image, len(items))
			for i, it := range items {
				imgs[i], _ = ws.Loader.Load(ctx, it.URL)
			}
			if _, err := sess.AddPhotos(items, imgs); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText(fmt.Sprintf("Added %s", rc.URI().Name()))
			preview.Refresh()
		}, w)
	})
	removePhoto := widget.NewButton("Remove photo", func() {
		sel := sess.Interaction().SelectedIndex
		if sel == domain.NoIndex {
			dialog.ShowInformation("Remove photo", "Select a photo in reorder mode first.", w)
			return
		}
		if err := sess.RemovePhoto(sel); err != nil {
			dialog.ShowError(err, w)
			return
		}
		preview.Refresh()
	})

	undoBtn := widget.NewButton("Undo", func() {
		if sess.Undo() {
			gap.SetValue(sess.Document().Gap)
			preview.Refresh()
		}
	})
	redoBtn := widget.NewButton("Redo", func() {
		if sess.Redo() {
			gap.SetValue(sess.Document().Gap)
			preview.Refresh()
		}
	})

	var exportBtn *widget.Button
	exportBtn = widget.NewButton("Export PDF", func() {
		out := ws.ExportPath("")
		snapshot := sess.Document().Clone()
		exportBtn.Disable()
		status.SetText("Exporting…")
		go func() {
			err := ws.Exporter.ExportPDF(ctx, snapshot, out, ws.PDFOptions())
			fyne.Do(func() {
				exportBtn.Enable()
				switch {
				case errors.Is(err, export.ErrNoPhotos):
					dialog.ShowInformation("Export", "Add at least one photo first.", w)
					status.SetText("Ready")
				case err != nil:
					dialog.ShowError(err, w)
					status.SetText("Export failed")
				default:
					status.SetText("Exported " + out)
				}
			})
		}()
	})

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { undoBtn.OnTapped() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { redoBtn.OnTapped() })

	toolbar := container.NewHBox(mode, widget.NewLabel("Gap"), container.NewGridWrap(fyne.NewSize(140, 36), gap),
		guides, labels, addPhoto, removePhoto, addText, removeText, undoBtn, redoBtn, exportBtn)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, preview))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	return nil
}

// Preview shows the live render of an editor session and forwards pointer input to it.
type Preview struct {
	widget.BaseWidget
	sess *editor.Session
}

var (
	_ desktop.Mouseable = (*Preview)(nil)
	_ desktop.Hoverable = (*Preview)(nil)
	_ fyne.Draggable    = (*Preview)(nil)
)

func NewPreview(sess *editor.Session) *Preview {
	p := &Preview{sess: sess}
	p.ExtendBaseWidget(p)
	return p
}

func (p *Preview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest
	return &previewRenderer{p: p, bg: bg, img: img, objects: []fyne.CanvasObject{bg, img}}
}

func (p *Preview) MinSize() fyne.Size { return fyne.NewSize(594, 420) }

func (p *Preview) scale() float32 {
	if c := fyne.CurrentApp().Driver().CanvasForObject(p); c != nil {
		return c.Scale()
	}
	return 1
}

func (p *Preview) toSurface(pos fyne.Position) (float64, float64, bool) {
	sz := p.Size()
	x, y, sw, sh := FitSurface(sz.Width, sz.Height)
	return ToSurface(pos.X, pos.Y, x, y, sw, sh, p.scale())
}

func (p *Preview) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if px, py, ok := p.toSurface(e.Position); ok && p.sess.PointerDown(px, py) {
		p.Refresh()
	}
}

func (p *Preview) MouseUp(*desktop.MouseEvent) {
	if p.sess.PointerUp() {
		p.Refresh()
	}
}

func (p *Preview) MouseIn(*desktop.MouseEvent) {}

func (p *Preview) MouseMoved(e *desktop.MouseEvent) {
	px, py, _ := p.toSurface(e.Position)
	if p.sess.PointerMove(px, py) {
		p.Refresh()
	}
}

func (p *Preview) MouseOut() {}

// Dragged keeps text drags alive; fyne stops MouseMoved while a button is held.
func (p *Preview) Dragged(e *fyne.DragEvent) {
	px, py, _ := p.toSurface(e.Position)
	if p.sess.PointerMove(px, py) {
		p.Refresh()
	}
}

func (p *Preview) DragEnd() {
	if p.sess.PointerUp() {
		p.Refresh()
	}
}

type previewRenderer struct {
	p       *Preview
	bg      *canvas.Rectangle
	img     *canvas.Image
	objects []fyne.CanvasObject
}

func (r *previewRenderer) Destroy()                     {}
func (r *previewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *previewRenderer) MinSize() fyne.Size           { return r.p.MinSize() }

func (r *previewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	x, y, sw, sh := FitSurface(size.Width, size.Height)
	r.img.Move(fyne.NewPos(x, y))
	r.img.Resize(fyne.NewSize(sw, sh))
}

// Refresh renders a new frame at device resolution.
func (r *previewRenderer) Refresh() {
	size := r.p.Size()
	r.Layout(size)
	_, _, sw, sh := FitSurface(size.Width, size.Height)
	s := r.p.scale()
	if pw, ph := int(sw*s), int(sh*s); pw > 0 && ph > 0 {
		r.img.Image = r.p.sess.Redraw(pw, ph)
	}
	canvas.Refresh(r.img)
}
