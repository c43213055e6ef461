/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"time"

	"fanzine/internal/domain"
	"fanzine/internal/i18n"
	applog "fanzine/internal/log"
	"fanzine/internal/render"
)

// PNGOptions controls raster export. Zero Width/Height use the print size.
// Guides and labels are drawn into the raster here since PNG has no vector layer.
type PNGOptions struct {
	Width, Height int
	ShowGuides    bool
	ShowLabels    bool
	T             i18n.Translator
}

func (o PNGOptions) size() (int, int) {
	w, h := o.Width, o.Height
	switch {
	case w <= 0 && h <= 0:
		return PrintWidthPx, PrintHeightPx
	case h <= 0:
		return w, (w*PrintHeightPx + PrintWidthPx/2) / PrintWidthPx
	case w <= 0:
		return (h*PrintWidthPx + PrintHeightPx/2) / PrintHeightPx, h
	}
	return w, h
}

// RenderPNG draws the sheet like the preview does, with optional guides and labels.
func (e *Exporter) RenderPNG(ctx context.Context, doc *domain.Document, opt PNGOptions) (*image.RGBA, error) {
	w, h := opt.size()
	if !opt.ShowGuides && !opt.ShowLabels {
		return e.Raster(ctx, doc, w, h)
	}
	if doc == nil || len(doc.Photos) == 0 {
		return nil, ErrNoPhotos
	}
	images, err := e.Loader.LoadAll(ctx, doc.Photos)
	if err != nil {
		return nil, stage("images", err)
	}
	c := render.NewCanvas(w, h)
	render.Render(c, float64(w), float64(h), render.Options{
		Images:     images,
		Gap:        doc.Gap,
		Texts:      doc.Texts,
		Crops:      doc.CropsOrDefault(),
		ShowGuides: opt.ShowGuides,
		ShowLabels: opt.ShowLabels,
		T:          opt.T,
		Fonts:      e.Fonts,
	})
	return c.Image(), nil
}

// WritePNG encodes the rendered sheet to w.
func (e *Exporter) WritePNG(ctx context.Context, doc *domain.Document, w io.Writer, opt PNGOptions) (err error) {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	start := time.Now()
	defer func() { e.observe("png", doc, opt.ShowGuides, start, err) }()

	img, err := e.RenderPNG(ctx, doc, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return stage("encode", fmt.Errorf("encode png: %w", err))
	}
	return nil
}

// ExportPNG writes the PNG to outPath.
func (e *Exporter) ExportPNG(ctx context.Context, doc *domain.Document, outPath string, opt PNGOptions) error {
	var buf bytes.Buffer
	if err := e.WritePNG(ctx, doc, &buf, opt); err != nil {
		return err
	}
	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	applog.WithOperation(applog.WithComponent("export"), "png").Info("png written",
		slog.String("path", outPath), slog.Int("bytes", buf.Len()))
	return nil
}
