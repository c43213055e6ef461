/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelevant(t *testing.T) {
	cases := map[string]bool{
		"/p/fanzine.sqlite":        true,
		"/p/fanzine.sqlite-wal":    true,
		"/p/session.json":          true,
		"/p/.session.json.tmp-1-2": false,
		"/p/exports/fanzine.pdf":   false,
		"/p/notes.txt":             false,
	}
	for p, want := range cases {
		if got := Relevant(p); got != want {
			t.Fatalf("Relevant(%s) = %v, want %v", p, got, want)
		}
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(p string) { got <- p }, Options{Debounce: 100 * time.Millisecond})
	}()
	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "session.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	_ = os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644)

	select {
	case p := <-got:
		if p != target {
			t.Fatalf("unexpected path %s", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no change reported")
	}
	select {
	case p := <-got:
		t.Fatalf("burst should be reported once, got extra %s", p)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), func(string) {}, Options{})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
