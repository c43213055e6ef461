/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fanzine/internal/domain"
	"fanzine/internal/i18n"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetPrint PresetName = "print"
	PresetWeb   PresetName = "web"
	PresetProof PresetName = "proof"
)

// Web raster size: half the print resolution.
const (
	WebWidthPx  = PrintWidthPx / 2
	WebHeightPx = PrintHeightPx / 2
)

// BatchOptions controls a multi-format export into one directory.
//
// Files are named <Base>.pdf and <Base>.png (Base defaults to "fanzine").
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // pdf, png; empty means preset defaults
	IncludeGuides *bool    // overrides the preset's default
	Base          string
	JPEGQuality   int
	T             i18n.Translator
}

// BatchExport runs the exports of a preset and returns the written paths.
func (e *Exporter) BatchExport(ctx context.Context, doc *domain.Document, outDir string, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	guides := presetIncludeGuides(opt.Preset)
	if opt.IncludeGuides != nil {
		guides = *opt.IncludeGuides
	}
	base := opt.Base
	if base == "" {
		base = "fanzine"
	}

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			out := filepath.Join(outDir, base+".pdf")
			if err := e.ExportPDF(ctx, doc, out, PDFOptions{ShowGuides: guides, JPEGQuality: opt.JPEGQuality}); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, out)
		case "png":
			out := filepath.Join(outDir, base+".png")
			po := presetPNG(opt.Preset)
			po.ShowGuides = guides && opt.Preset == PresetProof
			po.T = opt.T
			if err := e.ExportPNG(ctx, doc, out, po); err != nil {
				return written, fmt.Errorf("png: %w", err)
			}
			written = append(written, out)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb, PresetProof:
		return []string{"png"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGuides(p PresetName) bool {
	return p != PresetWeb
}

func presetPNG(p PresetName) PNGOptions {
	switch p {
	case PresetWeb:
		return PNGOptions{Width: WebWidthPx, Height: WebHeightPx}
	case PresetProof:
		return PNGOptions{Width: WebWidthPx, Height: WebHeightPx, ShowLabels: true}
	default:
		return PNGOptions{}
	}
}

// ParsePreset accepts a preset name case-insensitively.
func ParsePreset(s string) (PresetName, error) {
	switch p := PresetName(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetPrint, PresetWeb, PresetProof:
		return p, nil
	case "":
		return PresetPrint, nil
	}
	return "", fmt.Errorf("unknown preset: %s", s)
}
