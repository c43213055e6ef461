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
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"

	"fanzine/internal/domain"
)

// Faces is an explicit, idempotent face cache. Callers ensure the faces they need before
// a render that depends on accurate metrics; a lookup that misses resolves on the spot.
// Faces is safe for concurrent use, the returned font.Face values are not.
type Faces struct {
	mu       sync.Mutex
	provider Provider
	cache    map[faceKey]cachedFace
}

type faceKey struct {
	family  string
	generic Generic
	size    float64
	weight  int
	italic  bool
}

type cachedFace struct {
	face font.Face
	met  Metrics
}

// NewFaces wraps a provider; nil uses the builtin Go fonts.
func NewFaces(p Provider) *Faces {
	if p == nil {
		p = GoFontProvider{}
	}
	return &Faces{provider: p, cache: map[faceKey]cachedFace{}}
}

// NewLibraryFaces resolves through lib first and the Go fonts second.
func NewLibraryFaces(lib *FontLibrary) *Faces {
	return NewFaces(OTProvider{Lib: lib, Fallback: GoFontProvider{}})
}

func keyOf(spec FontSpec) faceKey {
	// quarter pixel buckets keep the cache small while staying visually exact
	return faceKey{spec.Family, spec.Generic, math.Round(spec.Size*4) / 4, spec.Weight, spec.Italic}
}

// Resolve implements Provider with caching.
func (f *Faces) Resolve(spec FontSpec) (font.Face, Metrics) {
	k := keyOf(spec)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cache == nil {
		f.cache = map[faceKey]cachedFace{}
	}
	if c, ok := f.cache[k]; ok {
		return c.face, c.met
	}
	p := f.provider
	if p == nil {
		p = GoFontProvider{}
	}
	spec.Size = k.size
	face, met := p.Resolve(spec)
	f.cache[k] = cachedFace{face: face, met: met}
	return face, met
}

// EnsureFace makes sure the face for spec is ready. Resolution never fails, missing
// families fall back to the generic face; only a done context is reported.
func (f *Faces) EnsureFace(ctx context.Context, spec FontSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Resolve(spec)
	return nil
}

// EnsureText preloads every given overlay font at the given pixel size, in parallel.
func (f *Faces) EnsureText(ctx context.Context, fonts []domain.TextFont, size float64) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, tf := range fonts {
		for _, w := range []domain.FontWeight{domain.WeightNormal, domain.WeightSemiBold, domain.WeightBold} {
			spec := TextSpec(tf, size, w)
			g.Go(func() error { return f.EnsureFace(ctx, spec) })
		}
	}
	return g.Wait()
}

// Len reports the number of cached faces.
func (f *Faces) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

var genericOf = map[domain.TextFont]Generic{
	domain.FontSans:        SansSerif,
	domain.FontSerif:       Serif,
	domain.FontMono:        Monospace,
	domain.FontHandwritten: Cursive,
}

// TextSpec is the font of a text overlay.
func TextSpec(tf domain.TextFont, size float64, weight domain.FontWeight) FontSpec {
	return FontSpec{Family: tf.Family(), Generic: genericOf[tf], Size: size, Weight: int(weight)}
}

// UISpec is the font of labels and badges drawn on the preview.
func UISpec(size float64, weight domain.FontWeight) FontSpec {
	return FontSpec{Family: string(SansSerif), Generic: SansSerif, Size: size, Weight: int(weight)}
}
