/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"fanzine/internal/config"
	applog "fanzine/internal/log"
)

const (
	DBFileName     = "fanzine.sqlite"
	ExportsDirName = "exports"
	BackupsDirName = "backups"
)

var standardSubDirs = []string{ExportsDirName, BackupsDirName}

// Project is a fanzine directory: the session database plus exports and backups.
type Project struct {
	Root  string
	Store *Store
}

// DBPath returns the session database of a project root.
func DBPath(root string) string { return filepath.Join(root, DBFileName) }

// IsProject reports whether root holds a session database.
func IsProject(root string) bool {
	_, err := os.Stat(DBPath(root))
	return err == nil
}

// InitProject creates root and its subfolders and opens (creating) the store.
func InitProject(ctx context.Context, root string, cfg config.StorageConfig) (*Project, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	for _, d := range append([]string{""}, standardSubDirs...) {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create project dir %q: %w", d, err)
		}
	}
	return openProject(ctx, root, cfg)
}

// OpenProject opens an existing project. SQLite projects must already exist.
func OpenProject(ctx context.Context, root string, cfg config.StorageConfig) (*Project, error) {
	if isSQLite(cfg) && cfg.DSN == "" && !IsProject(root) {
		return nil, fmt.Errorf("%s: no fanzine project (missing %s): %w", root, DBFileName, ErrNotFound)
	}
	return openProject(ctx, root, cfg)
}

func isSQLite(cfg config.StorageConfig) bool {
	d := strings.ToLower(strings.TrimSpace(cfg.Driver))
	return d == "" || d == DriverSQLite
}

func openProject(ctx context.Context, root string, cfg config.StorageConfig) (*Project, error) {
	st, err := Open(ctx, cfg, DBPath(root))
	if err != nil {
		return nil, err
	}
	applog.WithProject(applog.WithOperation(applog.WithComponent("storage"), "open_project"), root).
		Debug("project open", slog.String("driver", st.Driver()))
	return &Project{Root: root, Store: st}, nil
}

func (p *Project) Close() error {
	if p == nil || p.Store == nil {
		return nil
	}
	return p.Store.Close()
}

// ExportsDir is where exports land by default.
func (p *Project) ExportsDir() string { return filepath.Join(p.Root, ExportsDirName) }

// BackupsDir holds snapshot backups and crash snapshots.
func (p *Project) BackupsDir() string { return filepath.Join(p.Root, BackupsDirName) }

// ResolveExport places relative output paths under the exports folder.
func (p *Project) ResolveExport(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ExportsDir(), name)
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
