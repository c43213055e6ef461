/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fanzine/internal/domain"
	"fanzine/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Fanzine Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileInProjectBackups(t *testing.T) {
	root := t.TempDir()
	path, err := writeReport(&Target{Root: root}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(root, storage.BackupsDirName) {
		t.Fatalf("expected crash report under backups dir, got %s", path)
	}
}

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	silenceStderr(t)
	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	doc := domain.NewDocument()
	_, _ = doc.AddText(4, "back cover")
	target := &Target{Root: root, Document: func() *domain.Document { return doc }}

	func() {
		defer Recover(target)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	ents, err := os.ReadDir(filepath.Join(root, storage.BackupsDirName))
	if err != nil {
		t.Fatal(err)
	}
	var report, snapshot string
	for _, e := range ents {
		switch filepath.Ext(e.Name()) {
		case ".log":
			report = e.Name()
		case ".json":
			snapshot = filepath.Join(root, storage.BackupsDirName, e.Name())
		}
	}
	if report == "" || snapshot == "" {
		t.Fatalf("missing report or snapshot: %v", ents)
	}
	snap, err := storage.ReadSnapshot(snapshot)
	if err != nil {
		t.Fatalf("snapshot unreadable: %v", err)
	}
	if snap.Document.Texts[4][0].Content != "back cover" {
		t.Fatalf("snapshot lost the document")
	}
}

func TestRecoverSurvivesBrokenDocumentCallback(t *testing.T) {
	silenceStderr(t)
	oldExit := exitFn
	exitFn = func(int) {}
	defer func() { exitFn = oldExit }()

	target := &Target{Root: t.TempDir(), Document: func() *domain.Document { panic("nested") }}
	func() {
		defer Recover(target)
		panic("boom")
	}()
}
