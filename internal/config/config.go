/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables (and a .env file in the working directory) are read-only overrides.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Locale         string `yaml:"locale"` // BCP 47 tag used for canvas labels, e.g. "en", "de"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	// DSN is only used by the postgres driver; sqlite lives inside the project directory.
	DSN string `yaml:"dsn"`
}

type ExportConfig struct {
	Filename    string `yaml:"filename"`
	JPEGQuality int    `yaml:"jpeg_quality"`
	Guides      bool   `yaml:"guides"`
	FontsDir    string `yaml:"fonts_dir"` // optional directory with the display TTFs
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	Blob          string `yaml:"blob"` // "fs" | "s3"
	DataDir       string `yaml:"data_dir"`
	Bucket        string `yaml:"bucket"`
	RetentionDays int    `yaml:"retention_days"`
}

type RemoteConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
	Storage       StorageConfig `yaml:"storage"`
	Export        ExportConfig  `yaml:"export"`
	Server        ServerConfig  `yaml:"server"`
	Remote        RemoteConfig  `yaml:"remote"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Locale: "en"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Storage:       StorageConfig{Driver: "sqlite"},
		Export:        ExportConfig{Filename: "fanzine.pdf", JPEGQuality: 95, Guides: true},
		Server:        ServerConfig{Addr: ":8080", Blob: "fs", DataDir: "photos-data", RetentionDays: 30},
		Remote:        RemoteConfig{TimeoutMs: 15000},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "FZ_CONFIG"
	EnvTelemetryOptIn = "FZ_TELEMETRY_OPT_IN"
	EnvLocale         = "FZ_LOCALE"
	EnvStorageDriver  = "FZ_STORAGE_DRIVER"
	EnvStorageDSN     = "FZ_STORAGE_DSN"
	EnvExportQuality  = "FZ_EXPORT_JPEG_QUALITY"
	EnvFontsDir       = "FZ_FONTS_DIR"
	EnvServerAddr     = "FZ_SERVER_ADDR"
	EnvServerBlob     = "FZ_SERVER_BLOB"
	EnvServerBucket   = "FZ_SERVER_BUCKET"
	EnvServerDataDir  = "FZ_SERVER_DATA_DIR"
	EnvRemoteURL      = "FZ_REMOTE_URL"
	EnvRemoteTimeout  = "FZ_REMOTE_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "FZ_LOG_LEVEL"
	EnvLogFormat = "FZ_LOG_FORMAT"
	EnvLogSource = "FZ_LOG_SOURCE"
	EnvLogFile   = "FZ_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Fanzine")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Fanzine")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "fanzine")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, loads a .env file from the
// working directory (never overriding variables that are already set) and merges environment
// overrides. The remote photo server token is read from the keyring and returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	_ = godotenv.Load()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if v := strings.TrimSpace(src.General.Locale); v != "" {
		dst.General.Locale = v
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if v := strings.ToLower(strings.TrimSpace(src.Storage.Driver)); v != "" {
		dst.Storage.Driver = v
	}
	if v := strings.TrimSpace(src.Storage.DSN); v != "" {
		dst.Storage.DSN = v
	}
	if v := strings.TrimSpace(src.Export.Filename); v != "" {
		dst.Export.Filename = v
	}
	if src.Export.JPEGQuality > 0 {
		dst.Export.JPEGQuality = clampQuality(src.Export.JPEGQuality)
	}
	dst.Export.Guides = src.Export.Guides
	if v := strings.TrimSpace(src.Export.FontsDir); v != "" {
		dst.Export.FontsDir = v
	}
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.Server.Blob)); v != "" {
		dst.Server.Blob = v
	}
	if v := strings.TrimSpace(src.Server.DataDir); v != "" {
		dst.Server.DataDir = v
	}
	if v := strings.TrimSpace(src.Server.Bucket); v != "" {
		dst.Server.Bucket = v
	}
	if src.Server.RetentionDays > 0 {
		dst.Server.RetentionDays = src.Server.RetentionDays
	}
	if v := strings.TrimSpace(src.Remote.BaseURL); v != "" {
		dst.Remote.BaseURL = v
	}
	if src.Remote.TimeoutMs > 0 {
		dst.Remote.TimeoutMs = src.Remote.TimeoutMs
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLocale)); v != "" {
		cfg.General.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportQuality)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.JPEGQuality = clampQuality(n)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontsDir)); v != "" {
		cfg.Export.FontsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerBlob)); v != "" {
		cfg.Server.Blob = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerBucket)); v != "" {
		cfg.Server.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerDataDir)); v != "" {
		cfg.Server.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRemoteURL)); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRemoteTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Remote.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.locale":           EnvLocale,
	"storage.driver":           EnvStorageDriver,
	"storage.dsn":              EnvStorageDSN,
	"export.jpeg_quality":      EnvExportQuality,
	"export.fonts_dir":         EnvFontsDir,
	"server.addr":              EnvServerAddr,
	"server.blob":              EnvServerBlob,
	"server.bucket":            EnvServerBucket,
	"server.data_dir":          EnvServerDataDir,
	"remote.base_url":          EnvRemoteURL,
	"remote.timeout_ms":        EnvRemoteTimeout,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// Timeout returns the remote request timeout, falling back to the default for non-positive values.
func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutMs <= 0 {
		return time.Duration(Defaults().Remote.TimeoutMs) * time.Millisecond
	}
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Retention returns the blob retention window of the photo server.
func (s ServerConfig) Retention() time.Duration {
	days := s.RetentionDays
	if days <= 0 {
		days = Defaults().Server.RetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
