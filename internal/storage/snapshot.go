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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"fanzine/internal/domain"
	"fanzine/internal/version"
)

// SnapshotVersion is written into new snapshots.
const SnapshotVersion = 1

//go:embed snapshot.schema.json
var snapshotSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(snapshotSchema)

// ErrInvalidSnapshot wraps schema violations.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is a portable JSON copy of a session. Photos carries the image bytes of
// store:<id> photos; crash snapshots leave it empty.
type Snapshot struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	App       string          `json:"app,omitempty"`
	Document  domain.Document `json:"document"`
	Photos    []SnapshotPhoto `json:"photos,omitempty"`
}

type SnapshotPhoto struct {
	ID   string `json:"id"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data"`
}

// NewSnapshot wraps a copy of doc.
func NewSnapshot(doc *domain.Document) Snapshot {
	c := doc.Clone()
	c.Crops = doc.CropsOrDefault()
	return Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		App:       version.String(),
		Document:  *c,
	}
}

// ValidateSnapshot checks raw JSON against the embedded schema.
func ValidateSnapshot(data []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
	}
	return nil
}

// WriteSnapshot writes snap to path. An existing file is first copied to backupsDir
// (skipped when backupsDir is empty).
func WriteSnapshot(path string, snap Snapshot, backupsDir string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := ValidateSnapshot(data); err != nil {
		return err
	}
	if backupsDir != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			stamp := time.Now().Format("20060102-150405")
			bpath := filepath.Join(backupsDir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
			if cerr := copyFile(path, bpath); cerr != nil {
				return fmt.Errorf("backup snapshot: %w", cerr)
			}
		}
	}
	return writeFileAtomic(path, data)
}

// ReadSnapshot reads and validates a snapshot file.
func ReadSnapshot(path string) (Snapshot, error) {
	var s Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(b)
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := ValidateSnapshot(b); err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse snapshot: %w", err)
	}
	for i := range s.Document.Crops {
		s.Document.Crops[i] = domain.NormalizeCrop(s.Document.Crops[i])
	}
	return s, nil
}

// ReadSnapshotOrBackup falls back to the newest backup of path when path is unreadable.
func ReadSnapshotOrBackup(path, backupsDir string) (Snapshot, error) {
	s, err := ReadSnapshot(path)
	if err == nil {
		return s, nil
	}
	latest, berr := latestBackup(backupsDir, filepath.Base(path))
	if berr != nil {
		return s, fmt.Errorf("%w; backup attempt: %v", err, berr)
	}
	return ReadSnapshot(latest)
}

func latestBackup(dir, base string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	if len(candidates) == 0 {
		return "", errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	return candidates[len(candidates)-1], nil
}

// ExportSnapshot captures the stored session including photo bytes.
func ExportSnapshot(ctx context.Context, s *Store) (Snapshot, error) {
	doc, sess, err := loadDocument(ctx, s)
	if err != nil {
		return Snapshot{}, err
	}
	snap := NewSnapshot(doc)
	for _, p := range sess.Photos {
		snap.Photos = append(snap.Photos, SnapshotPhoto{ID: p.ID, MIME: p.MIME, Data: p.Data})
	}
	return snap, nil
}

// ImportSnapshot replaces the stored session with snap.
func ImportSnapshot(ctx context.Context, s *Store, snap Snapshot) (*domain.Document, error) {
	if len(snap.Document.Photos) > domain.MaxPhotos {
		return nil, domain.ErrTooManyPhotos
	}
	if err := s.ClearAll(ctx); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	for i, p := range snap.Photos {
		if err := s.SavePhoto(ctx, p.ID, p.Data, i, p.MIME); err != nil {
			return nil, err
		}
	}
	doc := snap.Document.Clone()
	if err := SaveDocument(ctx, s, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// AutosaveCrashSnapshot writes doc to <root>/backups/crash-<stamp>.json and returns the path.
func AutosaveCrashSnapshot(root string, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	dir := filepath.Join(root, BackupsDirName)
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.json", time.Now().Format("20060102-150405.000")))
	if err := WriteSnapshot(path, NewSnapshot(doc), ""); err != nil {
		return "", err
	}
	return path, nil
}
