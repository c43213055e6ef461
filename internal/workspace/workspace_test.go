/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fanzine/internal/config"
	"fanzine/internal/domain"
	"fanzine/internal/storage"
)

func photo(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImportSaveReopenExport(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "zine")
	cfg := config.Defaults()

	if _, err := OpenWith(ctx, dir, false, cfg, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("opening a missing project: want ErrNotFound, got %v", err)
	}
	ws, err := OpenWith(ctx, dir, true, cfg, "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	doc, err := ws.Document(ctx)
	if err != nil {
		t.Fatal(err)
	}
	files := [][]byte{photo(t, color.RGBA{R: 255, A: 255}), photo(t, color.RGBA{G: 255, A: 255})}
	items, err := ws.ImportData(ctx, doc, files)
	if err != nil || len(items) != 2 || len(doc.Photos) != 2 {
		t.Fatalf("import: %v items=%d photos=%d", err, len(items), len(doc.Photos))
	}
	if _, err := doc.AddText(5, "front"); err != nil {
		t.Fatal(err)
	}
	if err := ws.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = ws.Close()

	ws, err = OpenWith(ctx, dir, false, cfg, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ws.Close()
	back, err := ws.Document(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Photos) != 2 || back.Photos[0].ID != items[0].ID || back.Texts[5][0].Content != "front" {
		t.Fatalf("document not restored: %+v", back)
	}

	out := ws.ExportPath("")
	if out != filepath.Join(ws.Root(), storage.ExportsDirName, cfg.Export.Filename) {
		t.Fatalf("unexpected export path %s", out)
	}
	if err := ws.Exporter.ExportPDF(ctx, back, out, ws.PDFOptions()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("pdf missing: %v", err)
	}
}

func TestImportStopsAtCapacity(t *testing.T) {
	ctx := context.Background()
	ws, err := OpenWith(ctx, t.TempDir(), true, config.Defaults(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	doc := domain.NewDocument()
	files := make([][]byte, 0, 10)
	for i := 0; i < 10; i++ {
		files = append(files, photo(t, color.RGBA{B: uint8(i * 20), A: 255}))
	}
	items, err := ws.ImportData(ctx, doc, files)
	if !errors.Is(err, domain.ErrTooManyPhotos) || len(items) != domain.MaxPhotos {
		t.Fatalf("got %d items, err %v", len(items), err)
	}
	sess, _ := ws.Project.Store.LoadSession(ctx)
	if len(sess.Photos) != domain.MaxPhotos {
		t.Fatalf("only %d photos should be stored, got %d", domain.MaxPhotos, len(sess.Photos))
	}
}

func TestImportRejectsNonImages(t *testing.T) {
	ctx := context.Background()
	ws, err := OpenWith(ctx, t.TempDir(), true, config.Defaults(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	doc := domain.NewDocument()
	if _, err := ws.ImportData(ctx, doc, [][]byte{[]byte("not an image")}); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(doc.Photos) != 0 {
		t.Fatalf("failed import must not touch the document")
	}
}
