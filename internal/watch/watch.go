/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package watch reports changes to a project directory so previews can be re-rendered.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "fanzine/internal/log"
)

const DefaultDebounce = 300 * time.Millisecond

type Options struct {
	// Debounce collapses bursts of events (sqlite writes the db, wal and shm files).
	Debounce time.Duration
	// Ignore reports paths whose changes are not forwarded. Nil uses Relevant.
	Ignore func(path string) bool
}

// Relevant is the default filter: the project database files and JSON snapshots, but
// not temp files written by atomic saves.
func Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.Contains(base, ".tmp") {
		return false
	}
	return strings.Contains(base, ".sqlite") || strings.HasSuffix(base, ".json")
}

// Watch calls onChange with the last changed path after each quiet period until ctx is
// cancelled. onChange runs on the watcher goroutine.
func Watch(ctx context.Context, dir string, onChange func(path string), opt Options) error {
	if opt.Debounce <= 0 {
		opt.Debounce = DefaultDebounce
	}
	ignore := opt.Ignore
	if ignore == nil {
		ignore = func(p string) bool { return !Relevant(p) }
	}
	l := applog.WithOperation(applog.WithComponent("watch"), "watch").With(slog.String("dir", dir))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	l.Info("watching project")

	timer := time.NewTimer(opt.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := ""
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if ignore(ev.Name) {
				continue
			}
			pending = ev.Name
			timer.Reset(opt.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", slog.Any("err", err))
		case <-timer.C:
			if pending != "" {
				l.Debug("change detected", slog.String("path", pending))
				onChange(pending)
				pending = ""
			}
		}
	}
}
