/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package photoserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fanzine/internal/blobstore"
	"fanzine/internal/imageproc"
	applog "fanzine/internal/log"
	"fanzine/internal/metrics"
)

type uploaded struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type uploadPart struct {
	name string
	data []byte
}

// rollback deletes the blobs of a batch that failed partway.
func (s *Server) rollback(ctx context.Context, l *slog.Logger, stored []uploaded) {
	for _, u := range stored {
		if err := s.blobs.Delete(ctx, u.ID); err != nil {
			l.WarnContext(ctx, "rollback delete failed", slog.String("id", u.ID), slog.Any("err", err))
		}
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	l := applog.WithOperation(s.log, "upload")
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var headers []*multipart.FileHeader
	for _, fhs := range r.MultipartForm.File {
		headers = append(headers, fhs...)
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(headers) > MaxFiles {
		metrics.IncUpload(false)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many files. Maximum is %d.", MaxFiles))
		return
	}

	// Everything is validated before the first blob is written.
	parts := make([]uploadPart, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		if mt := imageproc.Sniff(data); !imageproc.Allowed(mt, imageproc.UploadTypes) {
			metrics.IncUpload(false)
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s. Allowed: JPEG, PNG, WebP, GIF.", mt))
			return
		}
		parts = append(parts, uploadPart{name: fh.Filename, data: data})
	}

	raw := make([][]byte, len(parts))
	for i, p := range parts {
		raw[i] = p.data
	}
	optimized, err := imageproc.OptimizeAll(r.Context(), raw)
	if err != nil {
		metrics.IncUpload(false)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make([]uploaded, 0, len(parts))
	now := time.Now().UTC()
	for i, p := range parts {
		id := uuid.NewString()
		meta := blobstore.Meta{ID: id, Filename: p.name, ContentType: "image/jpeg", UploadedAt: now}
		if err := s.blobs.Put(r.Context(), meta, optimized[i]); err != nil {
			l.ErrorContext(r.Context(), "store photo failed", slog.String("id", id), slog.Any("err", err))
			s.rollback(context.WithoutCancel(r.Context()), l, out)
			writeError(w, http.StatusInternalServerError, "storing photo failed")
			return
		}
		out = append(out, uploaded{ID: id, URL: "/api/photos/" + id})
	}
	for range out {
		metrics.IncUpload(true)
	}
	l.InfoContext(r.Context(), "photos uploaded", slog.Int("count", len(out)))
	writeJSON(w, http.StatusOK, map[string]any{"photos": out})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, meta, err := s.blobs.Get(r.Context(), id)
	if err != nil {
		s.writeBlobError(w, r, err)
		return
	}
	ct := meta.ContentType
	if ct == "" {
		ct = imageproc.Sniff(data)
	}
	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "private, max-age=86400")
	h.Set("Content-Security-Policy", "default-src 'none';")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.blobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeBlobError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeBlobError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blobstore.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Missing photo ID")
	case errors.Is(err, blobstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "Photo not found")
	default:
		s.log.ErrorContext(r.Context(), "blob access failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
