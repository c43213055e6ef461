/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// memStore is an in-memory TokenStore for tests.
type memStore map[string]string

func (m memStore) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (m memStore) Set(service, key, value string) error { m[service+"/"+key] = value; return nil }
func (m memStore) Delete(service, key string) error     { delete(m, service+"/"+key); return nil }

func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	old := tokenStore
	tokenStore = memStore{}
	t.Cleanup(func() { tokenStore = old })
	return p
}

func TestEnvOverridesRemoteURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRemoteURL, "https://photos.example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Remote.BaseURL, "https://photos.example.test:8443"; got != want {
		t.Fatalf("Remote.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/fz.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/fz.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeClampsJPEGQuality(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Export: ExportConfig{JPEGQuality: 400}}
	mergeInto(&dst, &src)
	if dst.Export.JPEGQuality != 100 {
		t.Fatalf("quality = %d, want 100", dst.Export.JPEGQuality)
	}
	if dst.Export.Filename != "fanzine.pdf" {
		t.Fatalf("empty filename should keep default, got %q", dst.Export.Filename)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/fz.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/fz.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.General.Locale = "de"
	cfg.Server.Blob = "s3"
	cfg.Server.Bucket = "zines"
	if err := Save(cfg, "secret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "secret" {
		t.Fatalf("token = %q", tok)
	}
	if got.General.Locale != "de" || got.Server.Blob != "s3" || got.Server.Bucket != "zines" {
		t.Fatalf("unexpected config: %#v", got)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, tok, _ = Load(); tok != "" {
		t.Fatalf("token still present after delete: %q", tok)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvStorageDriver, "postgres")
	if env, ok := EnvOverrideFor("storage.driver"); !ok || env != EnvStorageDriver {
		t.Fatalf("EnvOverrideFor = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("server.addr"); ok {
		t.Fatalf("server.addr should not be overridden")
	}
}

func TestDurations(t *testing.T) {
	if d := (RemoteConfig{}).Timeout(); d != 15*time.Second {
		t.Fatalf("default timeout = %v", d)
	}
	if d := (ServerConfig{RetentionDays: 2}).Retention(); d != 48*time.Hour {
		t.Fatalf("retention = %v", d)
	}
}
