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
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
	"fanzine/internal/imageproc"
	applog "fanzine/internal/log"
	"fanzine/internal/metrics"
	"fanzine/internal/printguide"
	"fanzine/internal/render"
	"fanzine/internal/telemetry"
	"fanzine/internal/textlayout"
	"fanzine/internal/version"
)

// Print raster: A4 landscape at 300 DPI.
const (
	PrintWidthPx  = 3508
	PrintHeightPx = 2480
)

var (
	ErrExportInProgress = errors.New("export already in progress")
	ErrNoPhotos         = errors.New("no photos to export")
)

// ImageLoader decodes the photos of a document in order.
type ImageLoader interface {
	LoadAll(ctx context.Context, photos []domain.PhotoItem) ([]image.Image, error)
}

// Exporter turns a document into a printable sheet. One export runs at a time.
type Exporter struct {
	Loader    ImageLoader
	Fonts     *textlayout.Faces
	Telemetry *telemetry.Client

	exporting atomic.Bool
}

// New returns an exporter; a nil fonts cache uses the renderer's default faces.
func New(loader ImageLoader, fonts *textlayout.Faces) *Exporter {
	if fonts == nil {
		fonts = render.DefaultFonts()
	}
	return &Exporter{Loader: loader, Fonts: fonts}
}

// IsExporting reports whether an export is running.
func (e *Exporter) IsExporting() bool { return e.exporting.Load() }

func (e *Exporter) begin() error {
	if !e.exporting.CompareAndSwap(false, true) {
		return ErrExportInProgress
	}
	return nil
}

func (e *Exporter) end() { e.exporting.Store(false) }

// stageError remembers which step of the pipeline failed.
type stageError struct {
	stage string
	err   error
}

func (s *stageError) Error() string { return s.stage + ": " + s.err.Error() }
func (s *stageError) Unwrap() error { return s.err }

func stage(name string, err error) error {
	if err == nil {
		return nil
	}
	return &stageError{stage: name, err: err}
}

// Raster renders the document at w x h without guides, labels or highlights.
func (e *Exporter) Raster(ctx context.Context, doc *domain.Document, w, h int) (*image.RGBA, error) {
	if doc == nil || len(doc.Photos) == 0 {
		return nil, ErrNoPhotos
	}
	lg := applog.WithOperation(applog.WithComponent("export"), "raster")
	images, err := e.Loader.LoadAll(ctx, doc.Photos)
	if err != nil {
		return nil, stage("images", err)
	}
	if doc.HasText() {
		cells := geometry.CalcCellRects(float64(w), float64(h), doc.Gap, geometry.RefWidth)
		size := textlayout.FontSizePx(domain.SizeLG, cells[0].H)
		if err := e.Fonts.EnsureText(ctx, doc.UsedFonts(), size); err != nil {
			if ctx.Err() != nil {
				return nil, stage("fonts", err)
			}
			// Missing faces fall back to the Go fonts.
			lg.Warn("font preload failed", slog.Any("err", err))
		}
	}
	c := render.NewCanvas(w, h)
	render.Render(c, float64(w), float64(h), render.Options{
		Images: images,
		Gap:    doc.Gap,
		Texts:  doc.Texts,
		Crops:  doc.CropsOrDefault(),
		Fonts:  e.Fonts,
	})
	lg.Debug("raster rendered", slog.Int("w", w), slog.Int("h", h), slog.Int("photos", len(images)))
	return c.Image(), nil
}

// PDFOptions controls PDF export.
type PDFOptions struct {
	ShowGuides  bool
	JPEGQuality int
	Title       string
}

// WritePDF renders the print raster, places it full-bleed on an A4 landscape page and
// draws the vector guides over it.
func (e *Exporter) WritePDF(ctx context.Context, doc *domain.Document, w io.Writer, opt PDFOptions) (err error) {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	start := time.Now()
	defer func() { e.observe("pdf", doc, opt.ShowGuides, start, err) }()

	raster, err := e.Raster(ctx, doc, PrintWidthPx, PrintHeightPx)
	if err != nil {
		return err
	}
	var jb bytes.Buffer
	if err := imageproc.EncodeJPEG(&jb, raster, opt.JPEGQuality); err != nil {
		return stage("encode", err)
	}
	pdf := newSheetPDF(opt.Title)
	imgOpt := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("sheet", imgOpt, &jb)
	pdf.ImageOptions("sheet", 0, 0, printguide.PageWidthMM, printguide.PageHeightMM, false, imgOpt, 0, "")
	if opt.ShowGuides {
		printguide.Draw(pdf, printguide.Options{Gap: doc.Gap, Encode: pdf.UnicodeTranslatorFromDescriptor("")})
	}
	if pdf.Err() {
		return stage("pdf", pdf.Error())
	}
	return stage("write", pdf.Output(w))
}

func newSheetPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title == "" {
		title = "Fanzine"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("fanzine "+version.String(), true)
	pdf.SetFont("Helvetica", "", 6)
	pdf.AddPage()
	return pdf
}

// ExportPDF writes the PDF to outPath, replacing any existing file only on success.
func (e *Exporter) ExportPDF(ctx context.Context, doc *domain.Document, outPath string, opt PDFOptions) error {
	var buf bytes.Buffer
	if err := e.WritePDF(ctx, doc, &buf, opt); err != nil {
		return err
	}
	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	applog.WithOperation(applog.WithComponent("export"), "pdf").Info("pdf written",
		slog.String("path", outPath), slog.Int("bytes", buf.Len()))
	return nil
}

func (e *Exporter) observe(format string, doc *domain.Document, guides bool, start time.Time, err error) {
	dur := time.Since(start)
	metrics.ObserveExport(format, err, dur)
	tc := e.Telemetry
	if tc == nil {
		return
	}
	if err != nil {
		name := "setup"
		var se *stageError
		if errors.As(err, &se) {
			name = se.stage
		}
		tc.ExportFailed(format, name)
		return
	}
	texts := 0
	for _, ts := range doc.Texts {
		texts += len(ts)
	}
	tc.ExportCompleted(format, len(doc.Photos), texts, guides, dur)
}

// writeFileAtomic writes to a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}
