/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// It holds the display families of the text overlays when they are installed; anything
// missing resolves through the builtin Go fonts.

type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.Load(family, weight, italic, data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}

// Load parses font bytes into the library.
func (fl *FontLibrary) Load(family string, weight int, italic bool, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

// fileFamilies maps font file name prefixes (as shipped by Google Fonts) to family names.
var fileFamilies = map[string]string{
	"specialelite":     "Special Elite",
	"librebaskerville": "Libre Baskerville",
	"courierprime":     "Courier Prime",
	"caveat":           "Caveat",
}

var styleWeights = map[string]int{
	"regular":  400,
	"medium":   500,
	"semibold": 600,
	"bold":     700,
}

// LoadDir loads every known display font (*.ttf, *.otf) found in dir, e.g.
// "SpecialElite-Regular.ttf" or "Caveat-Bold.ttf". Unknown files are skipped.
// It returns the number of faces loaded.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name, style, _ := strings.Cut(base, "-")
		family, ok := fileFamilies[strings.ToLower(name)]
		if !ok {
			continue
		}
		style = strings.ToLower(style)
		italic := strings.HasSuffix(style, "italic")
		style = strings.TrimSuffix(style, "italic")
		weight, ok := styleWeights[style]
		if !ok {
			weight = 400
		}
		if err := fl.LoadTTF(family, weight, italic, filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Families lists the loaded family names in stable order.
func (fl *FontLibrary) Families() []string {
	if fl == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	sort.Strings(out)
	return out
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	// Exact match first
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}]; ok {
		return f
	}
	// Otherwise the closest weight of the same family, lighter wins a tie.
	var best *opentype.Font
	bestKey := fontKey{}
	for k, f := range fl.fonts {
		if k.family != spec.Family || k.italic != spec.Italic {
			continue
		}
		if best == nil || closer(k.weight, bestKey.weight, spec.Weight) {
			best, bestKey = f, k
		}
	}
	return best
}

func closer(a, b, target int) bool {
	da, db := abs(a-target), abs(b-target)
	if da != db {
		return da < db
	}
	return a < b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer.

type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero, so Size is in pixels
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	if p.Lib != nil {
		if f := p.Lib.find(spec); f != nil {
			face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: dpi, Hinting: font.HintingFull})
			if err == nil {
				return face, metricsOf(face)
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = GoFontProvider{}
	}
	return fb.Resolve(spec)
}
