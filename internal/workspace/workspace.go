/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace wires a project directory to the user config, the photo loader, the
// exporter and telemetry. The CLI and the desktop UI both start here.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"fanzine/internal/config"
	"fanzine/internal/domain"
	"fanzine/internal/export"
	"fanzine/internal/i18n"
	"fanzine/internal/imageproc"
	applog "fanzine/internal/log"
	"fanzine/internal/photosource"
	"fanzine/internal/storage"
	"fanzine/internal/telemetry"
	"fanzine/internal/textlayout"
)

type Workspace struct {
	Project  *storage.Project
	Config   config.AppConfig
	Loader   *photosource.Loader
	Exporter *export.Exporter
	T        i18n.Translator
	log      *slog.Logger
}

// Open opens the project at dir. With create set, a missing project is initialised.
func Open(ctx context.Context, dir string, create bool) (*Workspace, error) {
	cfg, token, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	return OpenWith(ctx, dir, create, cfg, token)
}

// OpenWith is Open with an explicit config; tests use it to stay off the user config.
func OpenWith(ctx context.Context, dir string, create bool, cfg config.AppConfig, token string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var p *storage.Project
	if create {
		p, err = storage.InitProject(ctx, abs, cfg.Storage)
	} else {
		p, err = storage.OpenProject(ctx, abs, cfg.Storage)
	}
	if err != nil {
		return nil, err
	}
	telemetry.SetDefault(telemetry.New(telemetry.FromAppConfig(cfg)))

	loader := photosource.NewLoader(cfg.Remote, token, p.Store)
	ex := export.New(loader, fontsFor(cfg.Export.FontsDir))
	ex.Telemetry = telemetry.Default()

	return &Workspace{
		Project:  p,
		Config:   cfg,
		Loader:   loader,
		Exporter: ex,
		T:        i18n.ForLocale(cfg.General.Locale),
		log:      applog.WithProject(applog.WithComponent("workspace"), abs),
	}, nil
}

// fontsFor loads display fonts from dir when set; the built-in Go fonts back everything else.
func fontsFor(dir string) *textlayout.Faces {
	if dir == "" {
		return nil
	}
	lib := textlayout.NewFontLibrary()
	n, err := lib.LoadDir(dir)
	if err != nil || n == 0 {
		applog.WithComponent("workspace").Warn("no fonts loaded", slog.String("dir", dir), slog.Any("err", err))
		return nil
	}
	return textlayout.NewLibraryFaces(lib)
}

func (w *Workspace) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.Config.Remote.Timeout())
	defer cancel()
	telemetry.Default().Flush(ctx)
	return w.Project.Close()
}

func (w *Workspace) Root() string { return w.Project.Root }

func (w *Workspace) Document(ctx context.Context) (*domain.Document, error) {
	return storage.LoadDocument(ctx, w.Project.Store)
}

func (w *Workspace) Save(ctx context.Context, doc *domain.Document) error {
	return storage.SaveDocument(ctx, w.Project.Store, doc)
}

// StoreData optimizes raw photo bytes and stores them with orders starting at first.
// The document is left untouched.
func (w *Workspace) StoreData(ctx context.Context, first int, files [][]byte) ([]domain.PhotoItem, error) {
	optimized, err := imageproc.OptimizeAll(ctx, files)
	if err != nil {
		return nil, err
	}
	items := make([]domain.PhotoItem, 0, len(optimized))
	for i, data := range optimized {
		item, err := storage.ImportPhoto(ctx, w.Project.Store, uuid.NewString(), data, first+i, "image/jpeg")
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	w.log.Info("photos imported", slog.Int("count", len(items)))
	return items, nil
}

// ImportData stores raw photo bytes and appends them to doc. Photos beyond
// the capacity of the booklet are not stored and ErrTooManyPhotos is returned.
func (w *Workspace) ImportData(ctx context.Context, doc *domain.Document, files [][]byte) ([]domain.PhotoItem, error) {
	room := domain.MaxPhotos - len(doc.Photos)
	var dropped bool
	if len(files) > room {
		files, dropped = files[:max(room, 0)], true
	}
	items, err := w.StoreData(ctx, len(doc.Photos), files)
	if err != nil {
		return items, err
	}
	if _, err := doc.AddPhotos(items...); err != nil {
		return items, err
	}
	if dropped {
		return items, domain.ErrTooManyPhotos
	}
	return items, nil
}

// ImportFiles reads local files and imports them with ImportData.
func (w *Workspace) ImportFiles(ctx context.Context, doc *domain.Document, paths []string) ([]domain.PhotoItem, error) {
	files := make([][]byte, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, b)
	}
	return w.ImportData(ctx, doc, files)
}

// ExportPath resolves name (or the configured default) under the exports folder.
func (w *Workspace) ExportPath(name string) string {
	if name == "" {
		name = w.Config.Export.Filename
	}
	if name == "" {
		name = "fanzine.pdf"
	}
	return w.Project.ResolveExport(name)
}

// PDFOptions returns export options from the user config.
func (w *Workspace) PDFOptions() export.PDFOptions {
	return export.PDFOptions{
		ShowGuides:  w.Config.Export.Guides,
		JPEGQuality: w.Config.Export.JPEGQuality,
		Title:       filepath.Base(w.Project.Root),
	}
}
