/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package photoserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fanzine/internal/blobstore"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func newTestServer(t *testing.T, opt Options) (*Server, *httptest.Server, blobstore.Store) {
	t.Helper()
	blobs, err := blobstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(blobs, opt)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts, blobs
}

func upload(t *testing.T, ts *httptest.Server, token string, files map[string][]byte) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, files)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/photos", body)
	req.Header.Set("Content-Type", ct)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestUploadGetDelete(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	resp := upload(t, ts, "", map[string][]byte{"a.png": pngBytes(t, 40, 30)})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	var out struct {
		Photos []uploaded `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Photos) != 1 || out.Photos[0].URL != "/api/photos/"+out.Photos[0].ID {
		t.Fatalf("unexpected response %+v", out)
	}

	get, err := http.Get(ts.URL + out.Photos[0].URL)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK || get.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("get: %d %s", get.StatusCode, get.Header.Get("Content-Type"))
	}
	if get.Header.Get("Cache-Control") != "private, max-age=86400" {
		t.Fatalf("missing cache header")
	}
	img, _, err := image.Decode(get.Body)
	if err != nil || img.Bounds().Dx() != 40 {
		t.Fatalf("stored photo not a 40px jpeg: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+out.Photos[0].URL, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", del.StatusCode)
	}
	again, _ := http.Get(ts.URL + out.Photos[0].URL)
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 after delete, got %d", again.StatusCode)
	}
}

// failingStore lets the first okPuts writes through and fails the rest.
type failingStore struct {
	blobstore.Store
	okPuts int
	puts   int
}

func (f *failingStore) Put(ctx context.Context, meta blobstore.Meta, data []byte) error {
	f.puts++
	if f.puts > f.okPuts {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, meta, data)
}

func TestUploadRollsBackPartialBatch(t *testing.T) {
	fs, err := blobstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	blobs := &failingStore{Store: fs, okPuts: 2}
	ts := httptest.NewServer(New(blobs, Options{}).Routes())
	t.Cleanup(ts.Close)

	resp := upload(t, ts, "", map[string][]byte{
		"a.png": pngBytes(t, 20, 10),
		"b.png": pngBytes(t, 30, 10),
		"c.png": pngBytes(t, 40, 10),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	left, err := fs.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("failed batch left %d photos behind", len(left))
	}
}

func TestUploadRejects(t *testing.T) {
	_, ts, blobs := newTestServer(t, Options{})
	many := map[string][]byte{}
	for i := 0; i < MaxFiles+1; i++ {
		many[string(rune('a'+i))+".png"] = pngBytes(t, 2, 2)
	}
	cases := map[string]map[string][]byte{
		"too many":    many,
		"text file":   {"notes.txt": []byte("hello there, not an image")},
		"mixed batch": {"ok.png": pngBytes(t, 2, 2), "bad.txt": []byte("plain text")},
		"no files":    {},
	}
	for name, files := range cases {
		resp := upload(t, ts, "", files)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", name, resp.StatusCode)
		}
	}
	list, _ := blobs.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("rejected uploads must not store anything, got %d", len(list))
	}
}

func TestTokenRequired(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{Token: "s3cret"})
	resp := upload(t, ts, "", map[string][]byte{"a.png": pngBytes(t, 2, 2)})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
	resp = upload(t, ts, "s3cret", map[string][]byte{"a.png": pngBytes(t, 2, 2)})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 with token, got %d", resp.StatusCode)
	}
	health, _ := http.Get(ts.URL + "/healthz")
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz must stay public")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t, Options{})
	resp := upload(t, ts, "", map[string][]byte{"a.png": pngBytes(t, 2, 2)})
	resp.Body.Close()
	m, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer m.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(m.Body)
	if !strings.Contains(buf.String(), "fanzine_photo_uploads_total") {
		t.Fatalf("upload counter missing from /metrics")
	}
}

func TestCleanupUsesRetention(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s, _, blobs := newTestServer(t, Options{Now: func() time.Time { return now }})
	ctx := context.Background()
	_ = blobs.Put(ctx, blobstore.Meta{ID: "stale", UploadedAt: now.Add(-31 * 24 * time.Hour)}, []byte{1})
	_ = blobs.Put(ctx, blobstore.Meta{ID: "fresh", UploadedAt: now.Add(-29 * 24 * time.Hour)}, []byte{1})
	if n := s.Cleanup(ctx); n != 1 {
		t.Fatalf("want 1 removed, got %d", n)
	}
	if _, _, err := blobs.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh photo removed: %v", err)
	}
}

func TestStartCleanupRejectsBadSpec(t *testing.T) {
	s, _, _ := newTestServer(t, Options{CleanupSpec: "not a cron"})
	if err := s.StartCleanup(context.Background()); err == nil {
		t.Fatalf("expected schedule error")
	}
	s2, _, _ := newTestServer(t, Options{})
	if err := s2.StartCleanup(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s2.StopCleanup()
}
