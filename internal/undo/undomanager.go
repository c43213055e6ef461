/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps undo/redo history per scope. The editor uses one scope per grid slot
// for text and crop edits and DocumentScope for edits touching the whole booklet.
package undo

import (
	"sync"
	"time"
)

// DocumentScope is the key for snapshots of the whole document.
const DocumentScope = -1

// Snapshot is the opaque state of one scope before a change.
type Snapshot struct {
	Scope int
	Blob  []byte
	TS    time.Time
	seq   uint64
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScope limits the undo depth of one scope (0 means unlimited).
	MaxPerScope int
	// MinInterval coalesces pushes for the same scope: within the interval the earlier
	// snapshot is kept, so a drag becomes a single step.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	undo map[int][]Snapshot
	redo map[int][]Snapshot
	seq  uint64

	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[int][]Snapshot), redo: make(map[int][]Snapshot)}
}

// Push records the state of a scope before a change and clears its redo stack.
// It reports false when the push was coalesced into the previous snapshot.
func (m *Manager) Push(scope int, blob []byte, ts time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(scope)
	stack := m.undo[scope]
	if n := len(stack); n > 0 && ts.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = ts
		return false
	}
	m.seq++
	m.undo[scope] = append(stack, Snapshot{Scope: scope, Blob: blob, TS: ts, seq: m.seq})
	m.totalBytes += len(blob)
	m.enforceCapsLocked(scope)
	return true
}

// Undo pops the newest snapshot of scope and keeps current for Redo.
func (m *Manager) Undo(scope int, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(m.undo, m.redo, scope, current)
}

// Redo reverses the last Undo of scope.
func (m *Manager) Redo(scope int, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(m.redo, m.undo, scope, current)
}

// LatestUndo returns the scope holding the most recent change.
func (m *Manager) LatestUndo() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return latest(m.undo)
}

// LatestRedo returns the scope of the most recently undone change.
func (m *Manager) LatestRedo() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return latest(m.redo)
}

// Clear drops all history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = make(map[int][]Snapshot)
	m.redo = make(map[int][]Snapshot)
	m.totalBytes = 0
}

// ClearScope clears undo/redo stacks for one scope to free memory.
func (m *Manager) ClearScope(scope int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	for _, s := range m.redo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, scope)
	delete(m.redo, scope)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scopes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			scopes++
		}
		totalSnapshots += len(v)
	}
	return m.totalBytes, scopes, totalSnapshots
}

func (m *Manager) moveLocked(from, to map[int][]Snapshot, scope int, current []byte) (Snapshot, bool) {
	stack := from[scope]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	from[scope] = stack[:len(stack)-1]
	m.seq++
	to[scope] = append(to[scope], Snapshot{Scope: scope, Blob: current, TS: s.TS, seq: m.seq})
	m.totalBytes += len(current) - len(s.Blob)
	m.enforceCapsLocked(scope)
	return s, true
}

func (m *Manager) dropRedoLocked(scope int) {
	for _, s := range m.redo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, scope)
}

func latest(stacks map[int][]Snapshot) (int, bool) {
	best, found := 0, false
	var bestSeq uint64
	for scope, stack := range stacks {
		if n := len(stack); n > 0 && stack[n-1].seq > bestSeq {
			best, bestSeq, found = scope, stack[n-1].seq, true
		}
	}
	return best, found
}

func (m *Manager) enforceCapsLocked(scope int) {
	if m.cfg.MaxPerScope > 0 {
		stack := m.undo[scope]
		if len(stack) > m.cfg.MaxPerScope {
			toDrop := len(stack) - m.cfg.MaxPerScope
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[scope] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest undo entry across all scopes
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldest, found := 0, false
		var oldestSeq uint64
		for sc, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].seq < oldestSeq {
				oldest, oldestSeq, found = sc, stack[0].seq, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
