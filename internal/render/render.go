/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render draws the fanzine sheet: photos with cover crops, text overlays, fold
// guides, page labels and interaction highlights. The same Render call drives the live
// preview and the print raster, so both share one geometry.
package render

import (
	"image"
	"math"
	"strconv"

	"fanzine/internal/cover"
	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/layout"
	"fanzine/internal/textlayout"
)

// Options is the read-only input of one frame.
type Options struct {
	// Images indexed by grid position; nil entries are empty cells.
	Images []image.Image
	// Layout defaults to layout.Slots().
	Layout []layout.Slot
	// Gap relative to RefWidth (0 uses geometry.RefWidth).
	Gap      float64
	RefWidth float64
	Texts    [domain.SlotCount][]domain.PageText
	Crops    [domain.SlotCount]domain.CropTransform

	ShowGuides bool
	ShowLabels bool
	Readonly   bool
	// Interaction is nil when nothing should be highlighted.
	Interaction *domain.Interaction
	// T translates label keys; nil shows the keys.
	T func(key string) string
	// Fonts resolves overlay and label faces; nil uses a shared Go font cache.
	Fonts textlayout.Provider
}

// Background shows through the gaps.
var Background = domain.RGB(0, 0, 0)

var defaultFaces = textlayout.NewFaces(nil)

// DefaultFonts is the face cache used when Options.Fonts is nil.
func DefaultFonts() *textlayout.Faces { return defaultFaces }

// Render draws a complete frame onto a w x h region of c (user space, under the current
// transform) and returns the cell rectangles it used. The canvas state is restored.
// Render must not run concurrently on the same canvas.
func Render(c *Canvas, w, h float64, opts Options) []geometry.Rect {
	c.Save()
	defer c.Restore()

	slots := opts.Layout
	if slots == nil {
		slots = layout.Slots()
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = defaultFaces
	}
	t := opts.T
	if t == nil {
		t = func(k string) string { return k }
	}
	ref := opts.RefWidth
	if ref <= 0 {
		ref = geometry.RefWidth
	}

	c.FillRect(geometry.R(0, 0, w, h), Background)
	cells := geometry.CalcCellRects(w, h, opts.Gap, ref)

	for i := 0; i < len(opts.Images) && i < len(cells); i++ {
		if opts.Images[i] == nil {
			continue
		}
		crop := domain.DefaultCrop()
		if i < len(opts.Crops) {
			crop = opts.Crops[i]
		}
		drawCell(c, opts.Images[i], cells[i], rotatedAt(slots, i), crop)
	}

	selectedText := ""
	if opts.Interaction != nil {
		selectedText = opts.Interaction.SelectedTextID
	}
	for i := 0; i < len(opts.Texts) && i < len(cells); i++ {
		for _, txt := range opts.Texts[i] {
			drawTextOverlay(c, fonts, txt, cells[i], rotatedAt(slots, i), selectedText != "" && txt.ID == selectedText)
		}
	}

	if opts.ShowGuides {
		drawFoldGuides(c, w, h, geometry.GapPixels(opts.Gap, w, ref))
	}
	if opts.ShowLabels {
		drawPageLabels(c, fonts, slots, cells, t)
	}
	if opts.Interaction != nil && !opts.Readonly {
		drawInteraction(c, fonts, cells, *opts.Interaction, t)
	}
	return cells
}

func rotatedAt(slots []layout.Slot, i int) bool {
	return i >= 0 && i < len(slots) && slots[i].Rotated
}

// drawCell draws img with its cover crop, turned half way round for rotated cells.
func drawCell(c *Canvas, img image.Image, cell geometry.Rect, rotated bool, crop domain.CropTransform) {
	b := img.Bounds()
	src := cover.Compute(float64(b.Dx()), float64(b.Dy()), cell.W, cell.H, crop)
	c.Save()
	defer c.Restore()
	c.Concat(geometry.CellTransform(cell, rotated))
	c.DrawImage(img, src.Rect(), cell)
}

var (
	pillLight   = domain.RGBA(0, 0, 0, 0.45)
	pillDark    = domain.RGBA(255, 255, 255, 0.55)
	shadowLight = domain.RGBA(0, 0, 0, 0.7)
	shadowDark  = domain.RGBA(255, 255, 255, 0.6)
	selectBlue  = domain.MustHex("#3b82f6")
)

// drawTextOverlay draws one text overlay. The position is upright; rotated cells get the
// half turn about the cell center wrapped around the whole draw.
func drawTextOverlay(c *Canvas, fonts textlayout.Provider, txt domain.PageText, cell geometry.Rect, rotated, selected bool) {
	if txt.Content == "" {
		return
	}
	box, face := textlayout.MeasureOverlay(fonts, txt, cell)

	c.Save()
	defer c.Restore()
	c.Concat(geometry.CellTransform(cell, rotated))

	light := txt.Color.IsLight()
	if txt.ShowBg {
		bg := pillDark
		if light {
			bg = pillLight
		}
		c.FillRect(box.Rect(), bg)
	}

	sh := &Shadow{
		Color:   shadowDark,
		Blur:    math.Max(2, box.FontSize*0.1),
		OffsetY: math.Max(1, box.FontSize*0.03),
	}
	if light {
		sh.Color = shadowLight
	}
	c.FillText(txt.Content, box.Center.X, box.Center.Y, TextStyle{
		Face:     face,
		Color:    txt.Color.Fill(),
		MaxWidth: box.MaxTextW,
		Shadow:   sh,
	})

	if selected {
		c.StrokeRect(box.Rect(), Stroke{
			Color: selectBlue,
			Width: math.Max(1, box.FontSize*0.06),
			Dash:  []float64{4, 3},
		})
	}
}

var (
	foldH   = domain.RGBA(255, 255, 255, 0.7)
	foldV   = domain.RGBA(255, 255, 255, 0.5)
	cutLine = domain.RGBA(220, 80, 80, 0.9)
)

// drawFoldGuides draws the on-screen fold and cut guides. gapPx is the rounded gap.
func drawFoldGuides(c *Canvas, w, h, gapPx float64) {
	lw := math.Max(1, w*0.0006)
	dash := []float64{w * 0.005, w * 0.005}
	g := geometry.ComputeGuides(w, h, gapPx, w*0.005)

	c.StrokeLine(g.FoldH, Stroke{Color: foldH, Width: lw, Dash: dash})
	for _, v := range g.FoldV {
		c.StrokeLine(v, Stroke{Color: foldV, Width: lw, Dash: dash})
	}
	c.StrokeLine(g.Cut, Stroke{Color: cutLine, Width: lw * 1.5})
	for _, s := range g.Scissors {
		c.StrokeLine(s, Stroke{Color: cutLine, Width: lw})
	}
}

var (
	labelRotatedBg = domain.RGBA(245, 158, 11, 0.85)
	labelBg        = domain.RGBA(255, 255, 255, 0.85)
	labelRotatedFg = domain.MustHex("#ffffff")
	labelFg        = domain.MustHex("#18181b")
	labelTurn      = domain.RGBA(252, 211, 77, 0.9)
)

// drawPageLabels puts a role pill at each cell center; rotated cells get a turn marker.
func drawPageLabels(c *Canvas, fonts textlayout.Provider, slots []layout.Slot, cells []geometry.Rect, t func(string) string) {
	if len(cells) == 0 {
		return
	}
	fs := math.Max(8, cells[0].H*0.045)
	face, _ := fonts.Resolve(textlayout.UISpec(fs, domain.WeightSemiBold))
	small := math.Max(6, fs*0.65)
	smallFace, _ := fonts.Resolve(textlayout.UISpec(small, domain.WeightNormal))
	turn := "↻ 180°"
	if textlayout.Printable(smallFace, turn) != turn {
		turn = "180°"
	}

	for i := 0; i < len(slots) && i < len(cells); i++ {
		slot, cell := slots[i], cells[i]
		label := t(slot.LabelKey())
		padX, padY := fs*0.6, fs*0.4
		bgW := MeasureText(face, label) + 2*padX
		bgH := fs + 2*padY
		center := cell.Center()

		bg, fg := labelBg, labelFg
		if slot.Rotated {
			bg, fg = labelRotatedBg, labelRotatedFg
		}
		c.FillRect(geometry.CenteredBox(center, bgW, bgH), bg)
		c.FillText(label, center.X, center.Y, TextStyle{Face: face, Color: fg})

		if slot.Rotated {
			c.FillText(turn, center.X, center.Y+bgH/2+small, TextStyle{Face: smallFace, Color: labelTurn})
		}
	}
}

var (
	rose        = domain.MustHex("#e11d48")
	roseFill    = domain.RGBA(225, 29, 72, 0.2)
	hoverFill   = domain.RGBA(0, 0, 0, 0.3)
	hoverBadge  = domain.MustHex("#52525b")
	white       = domain.MustHex("#ffffff")
	editFill    = domain.RGBA(59, 130, 246, 0.15)
	badgeShadow = domain.RGBA(0, 0, 0, 0.3)
	numberFadeA = domain.RGBA(0, 0, 0, 0)
	numberFadeB = domain.RGBA(0, 0, 0, 0.6)
)

// drawInteraction draws selection, hover and cell number overlays.
func drawInteraction(c *Canvas, fonts textlayout.Provider, cells []geometry.Rect, in domain.Interaction, t func(string) string) {
	for i, cell := range cells {
		switch in.Mode {
		case domain.ModeReorder:
			if in.SelectedIndex == i {
				c.StrokeRect(cell, Stroke{Color: rose, Width: math.Max(2, cell.W*0.008)})
				c.FillRect(cell, roseFill)
				drawBadge(c, fonts, t("grid.swap"), cell, rose, white)
			}
			if in.HoverIndex == i && in.SelectedIndex != domain.NoIndex && in.SelectedIndex != i {
				c.FillRect(cell, hoverFill)
				drawBadge(c, fonts, t("grid.placeHere"), cell, hoverBadge, white)
			}
			if in.SelectedIndex != i {
				drawCellNumber(c, fonts, i, cell)
			}
		case domain.ModeText:
			if in.EditingIndex == i {
				c.StrokeRect(cell, Stroke{Color: selectBlue, Width: math.Max(2, cell.W*0.008)})
				c.FillRect(cell, editFill)
			}
		}
	}
}

// drawBadge draws a centered pill with a soft shadow.
func drawBadge(c *Canvas, fonts textlayout.Provider, text string, cell geometry.Rect, bg, fg domain.Color) {
	fs := math.Max(10, cell.H*0.06)
	face, _ := fonts.Resolve(textlayout.UISpec(fs, domain.WeightSemiBold))
	w := MeasureText(face, text) + 2*fs*0.8
	h := fs + 2*fs*0.5
	center := cell.Center()
	box := geometry.CenteredBox(center, w, h)

	// a blurred shadow of a rectangle is approximated by two widening layers
	for k := 2; k >= 1; k-- {
		grow := float64(k) * 1.5
		sh := badgeShadow
		sh.A /= uint8(k + 1)
		c.FillRect(geometry.Rect{X: box.X - grow, Y: box.Y + 2 - grow, W: box.W + 2*grow, H: box.H + 2*grow}, sh)
	}
	c.FillRect(box, bg)
	c.FillText(text, center.X, center.Y, TextStyle{Face: face, Color: fg})
}

// drawCellNumber draws the 1-based cell number over a bottom fade.
func drawCellNumber(c *Canvas, fonts textlayout.Provider, i int, cell geometry.Rect) {
	gradH := cell.H * 0.15
	c.FillVerticalGradient(geometry.R(cell.X, cell.Y+cell.H-gradH, cell.W, gradH), numberFadeA, numberFadeB)
	fs := math.Max(8, cell.H*0.04)
	face, _ := fonts.Resolve(textlayout.UISpec(fs, domain.WeightMedium))
	c.FillText(strconv.Itoa(i+1), cell.X+cell.W/2, cell.Y+cell.H-fs*0.3, TextStyle{Face: face, Color: white, Baseline: BaselineBottom})
}
