/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const sidecarSuffix = ".meta.json"

// FS stores each blob as <dir>/<id> next to <dir>/<id>.meta.json.
type FS struct {
	dir string
}

func NewFS(dir string) (*FS, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FS{dir: dir}, nil
}

func (f *FS) paths(id string) (string, string) {
	p := filepath.Join(f.dir, id)
	return p, p + sidecarSuffix
}

func (f *FS) Put(_ context.Context, meta Meta, data []byte) error {
	if !ValidID(meta.ID) {
		return ErrInvalidID
	}
	meta.Size = int64(len(data))
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now().UTC()
	}
	side, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	p, sp := f.paths(meta.ID)
	if err := writeAtomic(p, data); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	// The sidecar goes last; List only reports blobs whose sidecar exists.
	if err := writeAtomic(sp, side); err != nil {
		_ = os.Remove(p)
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (f *FS) Get(_ context.Context, id string) ([]byte, Meta, error) {
	var m Meta
	if !ValidID(id) {
		return nil, m, ErrInvalidID
	}
	p, sp := f.paths(id)
	side, err := os.ReadFile(sp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, m, ErrNotFound
		}
		return nil, m, err
	}
	if err := json.Unmarshal(side, &m); err != nil {
		return nil, m, fmt.Errorf("parse sidecar %s: %w", id, err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, m, ErrNotFound
		}
		return nil, m, err
	}
	return data, m, nil
}

func (f *FS) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	p, sp := f.paths(id)
	if _, err := os.Stat(sp); errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Remove(sp)
}

func (f *FS) List(_ context.Context) ([]Meta, error) {
	ents, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var out []Meta
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, sidecarSuffix) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			continue
		}
		var m Meta
		if json.Unmarshal(b, &m) != nil || m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
