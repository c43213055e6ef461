/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package photosource resolves photo URLs to decoded images.
//
// Supported URLs: plain paths and file:// URLs, http(s):// URLs (optionally with a bearer
// token) and store:<id> references into the persistence store.
package photosource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fanzine/internal/config"
	"fanzine/internal/domain"
	"fanzine/internal/imageproc"
	applog "fanzine/internal/log"
)

// StoreScheme prefixes photo URLs that live in the persistence store.
const StoreScheme = "store:"

// maxBytes caps a single download.
const maxBytes = 64 << 20

var (
	ErrUnsupportedFormat = imageproc.ErrUnsupportedFormat
	ErrZeroDimension     = imageproc.ErrZeroDimension
	ErrNoStore           = errors.New("photo store not configured")
)

// PhotoReader returns the stored bytes of a photo.
type PhotoReader interface {
	PhotoBytes(ctx context.Context, id string) ([]byte, error)
}

// Loader fetches and decodes photos. The zero value reads local files only.
type Loader struct {
	HTTP  *http.Client
	Token string
	Store PhotoReader
}

// NewLoader builds a loader for the remote photo server settings.
func NewLoader(rc config.RemoteConfig, token string, store PhotoReader) *Loader {
	return &Loader{
		HTTP:  &http.Client{Timeout: rc.Timeout()},
		Token: token,
		Store: store,
	}
}

// StoreURL returns the URL of a stored photo.
func StoreURL(id string) string { return StoreScheme + id }

// Bytes fetches the raw bytes behind u.
func (l *Loader) Bytes(ctx context.Context, u string) ([]byte, error) {
	switch {
	case strings.HasPrefix(u, StoreScheme):
		if l.Store == nil {
			return nil, ErrNoStore
		}
		return l.Store.PhotoBytes(ctx, strings.TrimPrefix(u, StoreScheme))
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return l.fetch(ctx, u)
	case strings.HasPrefix(u, "file://"):
		p, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", u, err)
		}
		return os.ReadFile(p.Path)
	}
	return os.ReadFile(u)
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if l.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}
	cli := l.HTTP
	if cli == nil {
		cli = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return b, nil
}

// Load fetches and decodes one photo.
func (l *Loader) Load(ctx context.Context, u string) (image.Image, error) {
	b, err := l.Bytes(ctx, u)
	if err != nil {
		return nil, err
	}
	img, _, err := imageproc.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}
	return img, nil
}

// LoadAll loads every photo in parallel. The first failure cancels the rest and is returned.
func (l *Loader) LoadAll(ctx context.Context, photos []domain.PhotoItem) ([]image.Image, error) {
	lg := applog.WithOperation(applog.WithComponent("photosource"), "load_all")
	start := time.Now()
	out := make([]image.Image, len(photos))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range photos {
		g.Go(func() error {
			img, err := l.Load(ctx, p.URL)
			if err != nil {
				return fmt.Errorf("photo %d (%s): %w", i+1, p.ID, err)
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lg.Warn("photo load failed", slog.Any("err", err))
		return nil, err
	}
	lg.Debug("photos loaded", slog.Int("count", len(photos)), slog.Duration("took", time.Since(start)))
	return out, nil
}
