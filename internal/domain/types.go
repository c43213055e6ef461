/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model of a fanzine session: the photos placed on the
// 4x2 sheet, the per-slot crop transforms and the text overlays. Everything here
// serializes to JSON for snapshots and the persisted session metadata.

import (
	"fmt"
	"math"
)

// SlotCount is the number of cells on the printed sheet.
const SlotCount = 8

// Limits of a session.
const (
	MaxPhotos       = SlotCount
	MaxTextsPerPage = 3
	MinGap          = 0
	MaxGap          = 16
)

// PhotoItem is an opaque reference to image bytes owned by a photo source.
// URL may be a local path, a file:// or http(s):// URL, or "store:<id>".
type PhotoItem struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CropTransform is the per-slot pan/zoom state.
// OffsetX/OffsetY are percentages of the image natural size in [-100,100];
// Scale >= 1 zooms into the cover crop.
type CropTransform struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// DefaultCrop is centered, fit-cover, no zoom.
func DefaultCrop() CropTransform { return CropTransform{Scale: 1} }

// NormalizeCrop clamps the offsets to [-100,100] and the scale to >= 1.
// NaN values fall back to the defaults.
func NormalizeCrop(c CropTransform) CropTransform {
	c.OffsetX = clampOr(c.OffsetX, -100, 100, 0)
	c.OffsetY = clampOr(c.OffsetY, -100, 100, 0)
	if math.IsNaN(c.Scale) || c.Scale < 1 {
		c.Scale = 1
	}
	if math.IsInf(c.Scale, 1) {
		c.Scale = 1
	}
	return c
}

// PageText is one text overlay in a slot. X and Y are the text center in percent of
// the cell, stored upright: the 180 degree turn of the top row is applied at draw time.
type PageText struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Size    TextSize  `json:"size"`
	Color   TextColor `json:"color"`
	Font    TextFont  `json:"font"`
	ShowBg  bool      `json:"showBg"`
}

// Color is a straight (non-premultiplied) RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 255} }

// RGBA builds a color from 8-bit channels and a CSS-like alpha in [0,1].
func RGBA(r, g, b uint8, alpha float64) Color {
	return Color{R: r, G: g, B: b, A: uint8(math.Round(clampOr(alpha, 0, 1, 1) * 255))}
}

// Hex parses "#rrggbb".
func Hex(s string) (Color, error) {
	var c Color
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	c.A = 255
	return c, nil
}

// MustHex is Hex for package-level tables.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}
