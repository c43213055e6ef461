/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage events and crash reports.
// Nothing is sent unless the user opted in and an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fanzine/internal/config"
	applog "fanzine/internal/log"
	"fanzine/internal/version"
)

// Event names.
const (
	EventExportCompleted = "export_completed"
	EventExportFailed    = "export_failed"
	EventPhotosAdded     = "photos_added"
)

// Config for the client.
//
// Environment (read by FromEnv):
// - FZ_TELEMETRY_OPT_IN: 1/true/yes/on
// - FZ_TELEMETRY_URL: endpoint receiving JSON events
// - FZ_CRASH_UPLOAD_URL: endpoint receiving crash reports
// - FZ_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
// - FZ_TELEMETRY_DEBUG: log send attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("FZ_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("FZ_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("FZ_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("FZ_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("FZ_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

// FromAppConfig starts from the environment and lets the saved opt-in turn telemetry on.
func FromAppConfig(app config.AppConfig) Config {
	cfg := FromEnv()
	if app.General.TelemetryOptIn {
		cfg.OptIn = true
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client queues events and sends them from one goroutine. Send errors are dropped.
type Client struct {
	cfg       Config
	log       *slog.Logger
	cli       *http.Client
	installID string
	q         chan map[string]any
	once      sync.Once
	closed    chan struct{}
}

var (
	defaultClient *Client
	defaultMu     sync.Mutex
)

// Default returns the process client, creating it from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

func New(cfg Config) *Client {
	c := &Client{
		cfg:       cfg,
		log:       applog.WithComponent("telemetry"),
		cli:       &http.Client{Timeout: cfg.Timeout},
		installID: uuid.NewString(),
		q:         make(chan map[string]any, 64),
		closed:    make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a JSON event. props must not contain personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":        name,
		"distinct_id": c.installID,
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"version":     version.String(),
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	select {
	case c.q <- payload:
	default:
	}
}

// ExportCompleted reports a finished export.
func (c *Client) ExportCompleted(format string, photos, texts int, guides bool, dur time.Duration) {
	c.Event(EventExportCompleted, map[string]any{
		"format":      format,
		"photo_count": photos,
		"text_count":  texts,
		"guides":      guides,
		"duration_ms": dur.Milliseconds(),
	})
}

// ExportFailed reports the stage an export stopped at.
func (c *Client) ExportFailed(format, stage string) {
	c.Event(EventExportFailed, map[string]any{"format": format, "stage": stage})
}

// Flush waits up to 500ms for queued events to go out.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(c.q) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item), "telemetry event")
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug(what+" failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug(what+" sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report in the background when opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", append([]byte(nil), report...), "crash upload")
}
