/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

// TextSize, TextColor and TextFont are closed enumerations. Each one maps through a
// total table below; adding a member without a table row fails the tests in enums_test.go.

type TextSize uint8

const (
	SizeSM TextSize = iota
	SizeMD
	SizeLG
	SizeXL
)

type TextColor uint8

const (
	ColorWhite TextColor = iota
	ColorBlack
	ColorRose
)

type TextFont uint8

const (
	FontSans TextFont = iota
	FontSerif
	FontMono
	FontHandwritten
)

// FontWeight follows the CSS numeric scale.
type FontWeight int

const (
	WeightNormal   FontWeight = 400
	WeightMedium   FontWeight = 500
	WeightSemiBold FontWeight = 600
	WeightBold     FontWeight = 700
)

type sizeSpec struct {
	name   string
	ratio  float64 // of cell height
	weight FontWeight
}

var sizeTable = [...]sizeSpec{
	SizeSM: {"sm", 0.020, WeightNormal},
	SizeMD: {"md", 0.030, WeightSemiBold},
	SizeLG: {"lg", 0.040, WeightBold},
	SizeXL: {"xl", 0.053, WeightBold},
}

type colorSpec struct {
	name  string
	fill  Color
	light bool
}

var colorTable = [...]colorSpec{
	ColorWhite: {"white", MustHex("#ffffff"), true},
	ColorBlack: {"black", MustHex("#18181b"), false},
	ColorRose:  {"rose", MustHex("#d946ef"), true},
}

type fontSpec struct {
	name   string
	family string
}

var fontTable = [...]fontSpec{
	FontSans:        {"sans", "Special Elite"},
	FontSerif:       {"serif", "Libre Baskerville"},
	FontMono:        {"mono", "Courier Prime"},
	FontHandwritten: {"handwritten", "Caveat"},
}

// AllSizes, AllColors and AllFonts list every member in declaration order.
func AllSizes() []TextSize   { return []TextSize{SizeSM, SizeMD, SizeLG, SizeXL} }
func AllColors() []TextColor { return []TextColor{ColorWhite, ColorBlack, ColorRose} }
func AllFonts() []TextFont   { return []TextFont{FontSans, FontSerif, FontMono, FontHandwritten} }

// Ratio is the font size as a fraction of the cell height.
func (s TextSize) Ratio() float64 { return sizeTable[s.valid()].ratio }

// Weight is the font weight used for this size.
func (s TextSize) Weight() FontWeight { return sizeTable[s.valid()].weight }

func (s TextSize) String() string { return sizeTable[s.valid()].name }

func (s TextSize) valid() TextSize {
	if int(s) >= len(sizeTable) {
		return SizeMD
	}
	return s
}

// Fill is the text fill color.
func (c TextColor) Fill() Color { return colorTable[c.valid()].fill }

// IsLight reports whether the text needs a dark shadow and background.
func (c TextColor) IsLight() bool { return colorTable[c.valid()].light }

func (c TextColor) String() string { return colorTable[c.valid()].name }

func (c TextColor) valid() TextColor {
	if int(c) >= len(colorTable) {
		return ColorWhite
	}
	return c
}

// Family is the display font family name; the text layout falls back to a builtin face
// when the family is not installed.
func (f TextFont) Family() string { return fontTable[f.valid()].family }

func (f TextFont) String() string { return fontTable[f.valid()].name }

func (f TextFont) valid() TextFont {
	if int(f) >= len(fontTable) {
		return FontSans
	}
	return f
}

func (s TextSize) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TextSize) UnmarshalText(b []byte) error {
	v, err := ParseTextSize(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (c TextColor) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *TextColor) UnmarshalText(b []byte) error {
	v, err := ParseTextColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (f TextFont) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *TextFont) UnmarshalText(b []byte) error {
	v, err := ParseTextFont(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func ParseTextSize(s string) (TextSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, spec := range sizeTable {
		if spec.name == s {
			return TextSize(i), nil
		}
	}
	return SizeMD, fmt.Errorf("unknown text size %q", s)
}

func ParseTextColor(s string) (TextColor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, spec := range colorTable {
		if spec.name == s {
			return TextColor(i), nil
		}
	}
	return ColorWhite, fmt.Errorf("unknown text color %q", s)
}

func ParseTextFont(s string) (TextFont, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, spec := range fontTable {
		if spec.name == s {
			return TextFont(i), nil
		}
	}
	return FontSans, fmt.Errorf("unknown text font %q", s)
}
