/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"fanzine/internal/domain"
	"fanzine/internal/geometry"
)

func TestMeasureString_Deterministic(t *testing.T) {
	face, _ := GoFontProvider{}.Resolve(FontSpec{Size: 20, Weight: 400})
	w1 := MeasureString(face, "Zine")
	w2 := MeasureString(face, "Zine")
	if w1 <= 0 || w1 != w2 {
		t.Fatalf("expected stable positive width, got %v and %v", w1, w2)
	}
	if MeasureString(face, "Zine Zine") <= w1 {
		t.Fatalf("longer text should be wider")
	}
	if MeasureString(nil, "x") != 0 {
		t.Fatalf("nil face measures zero")
	}
}

func TestGoFontProviderPicksMonoAndWeights(t *testing.T) {
	p := GoFontProvider{}
	mono, _ := p.Resolve(FontSpec{Generic: Monospace, Size: 20})
	if a, b := MeasureString(mono, "iiii"), MeasureString(mono, "MMMM"); a != b {
		t.Fatalf("monospace face is not monospaced: %v vs %v", a, b)
	}
	regular, _ := p.Resolve(FontSpec{Size: 20, Weight: 400})
	bold, _ := p.Resolve(FontSpec{Size: 20, Weight: 700})
	if MeasureString(regular, "Fanzine") == MeasureString(bold, "Fanzine") {
		t.Fatalf("bold and regular should differ")
	}
}

func TestFacesCacheIsIdempotent(t *testing.T) {
	f := NewFaces(nil)
	ctx := context.Background()
	spec := TextSpec(domain.FontSerif, 36, domain.WeightBold)
	for i := 0; i < 3; i++ {
		if err := f.EnsureFace(ctx, spec); err != nil {
			t.Fatalf("EnsureFace: %v", err)
		}
	}
	if f.Len() != 1 {
		t.Fatalf("cache size = %d", f.Len())
	}
	a, _ := f.Resolve(spec)
	b, _ := f.Resolve(spec)
	if a != b {
		t.Fatalf("cached face should be reused")
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := f.EnsureFace(cctx, spec); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestEnsureTextPreloadsAllWeights(t *testing.T) {
	f := NewFaces(nil)
	if err := f.EnsureText(context.Background(), []domain.TextFont{domain.FontSans, domain.FontMono}, 48); err != nil {
		t.Fatalf("EnsureText: %v", err)
	}
	if f.Len() != 6 {
		t.Fatalf("cache size = %d, want 6", f.Len())
	}
}

func TestLoadDirRegistersKnownFamilies(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Caveat-Bold.ttf", "Caveat-Regular.ttf", "Unknown-Regular.ttf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), goregular.TTF, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	lib := NewFontLibrary()
	n, err := lib.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d faces", n)
	}
	if fams := lib.Families(); strings.Join(fams, ",") != "Caveat" {
		t.Fatalf("families = %v", fams)
	}
	if lib.find(FontSpec{Family: "Caveat", Weight: 600}) != lib.fonts[fontKey{"Caveat", 700, false}] {
		t.Fatalf("600 should resolve to the bold face")
	}
	if lib.find(FontSpec{Family: "Courier Prime", Weight: 400}) != nil {
		t.Fatalf("missing family must not match")
	}
}

func TestMeasureOverlayClampsToCell(t *testing.T) {
	cell := geometry.R(0, 0, 200, 1220)
	txt := domain.PageText{Content: strings.Repeat("wide ", 40), X: 50, Y: 25, Size: domain.SizeMD}
	box, face := MeasureOverlay(NewFaces(nil), txt, cell)
	if face == nil {
		t.Fatalf("no face")
	}
	if box.FontSize != 37 {
		t.Fatalf("font size = %v", box.FontSize)
	}
	if box.TextW != box.MaxTextW || box.MaxTextW != 200-2*box.Padding {
		t.Fatalf("text width not clamped: %+v", box)
	}
	if box.Squeeze() >= 1 {
		t.Fatalf("long text must be squeezed")
	}
	if box.Center != (geometry.Pt{X: 100, Y: 305}) {
		t.Fatalf("center = %+v", box.Center)
	}
	if box.BarH != 37+2*box.Padding {
		t.Fatalf("bar height = %v", box.BarH)
	}
}
