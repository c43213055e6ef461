/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package photosource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fanzine/internal/domain"
)

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type mapStore map[string][]byte

func (m mapStore) PhotoBytes(_ context.Context, id string) ([]byte, error) {
	b, ok := m[id]
	if !ok {
		return nil, errors.New("missing")
	}
	return b, nil
}

func TestLoadFromFileAndFileURL(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	if err := os.WriteFile(p, pngData(t, 4, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	var l Loader
	for _, u := range []string{p, "file://" + p} {
		img, err := l.Load(context.Background(), u)
		if err != nil {
			t.Fatalf("load %s: %v", u, err)
		}
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
			t.Fatalf("unexpected bounds %v", img.Bounds())
		}
	}
}

func TestLoadHTTPWithToken(t *testing.T) {
	data := pngData(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := &Loader{Token: "secret"}
	if _, err := l.Load(context.Background(), srv.URL+"/p/1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Token = ""
	if _, err := l.Load(context.Background(), srv.URL+"/p/1"); err == nil {
		t.Fatalf("expected failure without token")
	}
}

func TestLoadStoreAndUnsupported(t *testing.T) {
	l := &Loader{Store: mapStore{"a": pngData(t, 1, 1), "b": []byte("GIF? no, plain text")}}
	if _, err := l.Load(context.Background(), StoreURL("a")); err != nil {
		t.Fatalf("store load: %v", err)
	}
	if _, err := l.Load(context.Background(), StoreURL("b")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	var bare Loader
	if _, err := bare.Load(context.Background(), StoreURL("a")); !errors.Is(err, ErrNoStore) {
		t.Fatalf("want ErrNoStore, got %v", err)
	}
}

func TestLoadAllFailsOnAnyError(t *testing.T) {
	l := &Loader{Store: mapStore{"a": pngData(t, 3, 1), "b": pngData(t, 1, 3)}}
	imgs, err := l.LoadAll(context.Background(), []domain.PhotoItem{
		{ID: "a", URL: StoreURL("a")},
		{ID: "b", URL: StoreURL("b")},
	})
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if imgs[0].Bounds().Dx() != 3 || imgs[1].Bounds().Dy() != 3 {
		t.Fatalf("results out of order")
	}
	_, err = l.LoadAll(context.Background(), []domain.PhotoItem{
		{ID: "a", URL: StoreURL("a")},
		{ID: "x", URL: StoreURL("x")},
	})
	if err == nil {
		t.Fatalf("expected error for missing photo")
	}
}
