/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imageproc decodes photos, downsizes them for print and re-encodes them as JPEG.
package imageproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxDimension gives about 2.7x headroom over a 300 DPI cell (~877 px).
	MaxDimension = 2400
	// JPEGQuality of optimized photos.
	JPEGQuality = 85
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrZeroDimension     = errors.New("image has zero width or height")
)

// Decodable lists the MIME types Decode accepts.
var Decodable = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}

// UploadTypes is the allow-list of the photo server.
var UploadTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Sniff returns the MIME type detected from magic bytes.
func Sniff(data []byte) string { return mimetype.Detect(data).String() }

// Allowed reports whether mime is one of types. Parameters after ';' are ignored.
func Allowed(mime string, types []string) bool {
	m := mimetype.Lookup(mime)
	for _, t := range types {
		if m != nil && m.Is(t) {
			return true
		}
		if mime == t {
			return true
		}
	}
	return false
}

// Decode sniffs the bytes and decodes any of the Decodable formats.
func Decode(data []byte) (image.Image, string, error) {
	mt := Sniff(data)
	if !Allowed(mt, Decodable) {
		return nil, mt, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mt, fmt.Errorf("decode %s: %w", mt, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, mt, ErrZeroDimension
	}
	return img, mt, nil
}

// TargetSize keeps the aspect ratio and fits the longest edge into maxEdge.
func TargetSize(w, h, maxEdge int) (int, int) {
	if w <= maxEdge && h <= maxEdge {
		return w, h
	}
	if w >= h {
		return maxEdge, roundDiv(h*maxEdge, w)
	}
	return roundDiv(w*maxEdge, h), maxEdge
}

func roundDiv(a, b int) int {
	v := (2*a + b) / (2 * b)
	if v < 1 {
		return 1
	}
	return v
}

// Downscale returns img unchanged when it already fits.
func Downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy(), maxEdge)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeJPEG writes img with the given quality (1..100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = JPEGQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// Optimize decodes a photo and returns it as a downsized JPEG.
func Optimize(data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, Downscale(img, MaxDimension), JPEGQuality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OptimizeAll runs Optimize in parallel and keeps the input order.
func OptimizeAll(ctx context.Context, files [][]byte) ([][]byte, error) {
	out := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := Optimize(f)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i+1, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
