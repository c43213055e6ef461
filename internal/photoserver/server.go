/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package photoserver serves the photo upload API backed by a blobstore.
package photoserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"fanzine/internal/blobstore"
	applog "fanzine/internal/log"
	"fanzine/internal/metrics"
)

const (
	MaxFiles         = 8
	MaxUploadBytes   = 64 << 20
	DefaultRetention = 30 * 24 * time.Hour
	// DefaultCleanupSpec runs the retention sweep once a night.
	DefaultCleanupSpec = "@daily"
)

type Options struct {
	// Token enables bearer authentication on /api routes when set.
	Token       string
	Retention   time.Duration
	CleanupSpec string
	// Now is used by the cleanup job; tests pin it.
	Now func() time.Time
}

type Server struct {
	blobs blobstore.Store
	opt   Options
	log   *slog.Logger
	cron  *cron.Cron
}

func New(blobs blobstore.Store, opt Options) *Server {
	if opt.Retention <= 0 {
		opt.Retention = DefaultRetention
	}
	if opt.CleanupSpec == "" {
		opt.CleanupSpec = DefaultCleanupSpec
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	metrics.Init()
	return &Server{blobs: blobs, opt: opt, log: applog.WithComponent("photoserver")}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := applog.ContextWith(r.Context(), slog.String("req", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/photos", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/", s.handleUpload)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opt.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.opt.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCleanup runs one retention sweep right away and schedules the next ones.
func (s *Server) StartCleanup(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.opt.CleanupSpec, func() { s.Cleanup(ctx) }); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", s.opt.CleanupSpec, err)
	}
	s.Cleanup(ctx)
	c.Start()
	s.cron = c
	return nil
}

// StopCleanup stops the scheduler and waits for a running sweep.
func (s *Server) StopCleanup() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}

// Cleanup removes blobs older than the retention and returns the count.
func (s *Server) Cleanup(ctx context.Context) int {
	l := applog.WithOperation(s.log, "cleanup")
	n, err := blobstore.Cleanup(ctx, s.blobs, s.opt.Retention, s.opt.Now())
	metrics.AddCleanupRemoved(n)
	if err != nil {
		l.Warn("cleanup failed", slog.Int("removed", n), slog.Any("err", err))
		return n
	}
	if n > 0 {
		l.Info("removed expired photos", slog.Int("removed", n), slog.Duration("retention", s.opt.Retention))
	}
	return n
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.StartCleanup(ctx); err != nil {
		return err
	}
	defer s.StopCleanup()

	srv := &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("photo server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
