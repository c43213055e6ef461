/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Font resolution and measurement. All text on the sheet goes through a Provider so the
// renderer and the hit tester measure with the very same faces.

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Generic is a CSS-like generic family used when the named family is missing.
type Generic string

const (
	SansSerif Generic = "sans-serif"
	Serif     Generic = "serif"
	Monospace Generic = "monospace"
	Cursive   Generic = "cursive"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family  string // logical family name
	Generic Generic
	Size    float64 // pixels
	Weight  int     // 100..900
	Italic  bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// GoFontProvider serves the builtin Go fonts: Go Mono for monospace, Go for everything else.
type GoFontProvider struct{}

type goSet struct {
	regular, medium, bold, italic, boldItalic *opentype.Font
	mono, monoBold, monoItalic                *opentype.Font
}

var (
	goOnce  sync.Once
	goFonts goSet
	goErr   error
)

func loadGoFonts() {
	parse := func(b []byte) *opentype.Font {
		f, err := opentype.Parse(b)
		if err != nil && goErr == nil {
			goErr = err
		}
		return f
	}
	goFonts = goSet{
		regular:    parse(goregular.TTF),
		medium:     parse(gomedium.TTF),
		bold:       parse(gobold.TTF),
		italic:     parse(goitalic.TTF),
		boldItalic: parse(gobolditalic.TTF),
		mono:       parse(gomono.TTF),
		monoBold:   parse(gomonobold.TTF),
		monoItalic: parse(gomonoitalic.TTF),
	}
}

func (GoFontProvider) pick(spec FontSpec) *opentype.Font {
	goOnce.Do(loadGoFonts)
	if spec.Generic == Monospace {
		switch {
		case spec.Weight >= 600:
			return goFonts.monoBold
		case spec.Italic:
			return goFonts.monoItalic
		}
		return goFonts.mono
	}
	switch {
	case spec.Weight >= 600 && spec.Italic:
		return goFonts.boldItalic
	case spec.Weight >= 600:
		return goFonts.bold
	case spec.Italic:
		return goFonts.italic
	case spec.Weight >= 500:
		return goFonts.medium
	}
	return goFonts.regular
}

func (p GoFontProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	if f := p.pick(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			return face, metricsOf(face)
		}
	}
	return basicfont.Face7x13, metricsOf(basicfont.Face7x13)
}

func metricsOf(face font.Face) Metrics {
	m := face.Metrics()
	asc := float64(m.Ascent) / 64
	desc := float64(m.Descent) / 64
	return Metrics{
		Ascent:  asc,
		Descent: desc,
		LineGap: float64(m.Height)/64 - asc - desc,
	}
}

// MeasureString returns the advance width of s in pixels, kerning included.
func MeasureString(face font.Face, s string) float64 {
	if face == nil || s == "" {
		return 0
	}
	return float64(font.MeasureString(face, s)) / 64
}

// Printable drops runes the face has no glyph for, so missing symbols neither render as
// boxes nor count towards the measured width.
func Printable(face font.Face, s string) string {
	if face == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		if r == ' ' {
			b.WriteRune(r)
			continue
		}
		if _, ok := face.GlyphAdvance(r); ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}
