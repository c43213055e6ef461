/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package blobstore keeps uploaded photo bytes for the photo server. Backends: a local
// directory with JSON sidecars and an S3 bucket.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fanzine/internal/config"
)

var (
	ErrNotFound  = errors.New("blob not found")
	ErrInvalidID = errors.New("invalid blob id")
)

// Meta describes a stored blob.
type Meta struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Store is the blob backend used by the photo server.
type Store interface {
	Put(ctx context.Context, meta Meta, data []byte) error
	Get(ctx context.Context, id string) ([]byte, Meta, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Meta, error)
}

// Open selects the backend named by cfg.Blob ("fs" when empty).
func Open(ctx context.Context, cfg config.ServerConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Blob)) {
	case "", "fs":
		return NewFS(cfg.DataDir)
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("s3 blob backend needs a bucket")
		}
		return NewS3(ctx, cfg.Bucket, "photos/")
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob)
	}
}

// ValidID accepts ids made of letters, digits, '-', '_' and '.', without leading dots.
func ValidID(id string) bool {
	if id == "" || len(id) > 128 || id[0] == '.' {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// Cleanup deletes blobs uploaded before now-maxAge and returns how many were removed.
// Blobs that disappear concurrently are not counted.
func Cleanup(ctx context.Context, s Store, maxAge time.Duration, now time.Time) (int, error) {
	metas, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if m.UploadedAt.IsZero() || !m.UploadedAt.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, m.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("delete %s: %w", m.ID, err)
		}
		removed++
	}
	return removed, nil
}
