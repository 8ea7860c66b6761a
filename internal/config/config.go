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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// RatePerSecond limits mutating requests; negative disables the limiter.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// EditorConfig tunes the editing session.
type EditorConfig struct {
	PollIntervalMs       int    `yaml:"poll_interval_ms"`
	LayoutSettleMs       int    `yaml:"layout_settle_ms"`
	BalloonSettleMs      int    `yaml:"balloon_settle_ms"`
	MaxCompletionRetries int    `yaml:"max_completion_retries"`
	PageFormat           string `yaml:"page_format"`
	// DisableJournal turns the local edit journal off.
	DisableJournal bool `yaml:"disable_journal"`
}

// EditorDurations is EditorConfig with the millisecond fields converted.
type EditorDurations struct {
	PollInterval  time.Duration
	LayoutSettle  time.Duration
	BalloonSettle time.Duration
}

// Durations converts the millisecond settings. Non-positive values yield zero, which the
// editor treats as its default.
func (e EditorConfig) Durations() EditorDurations {
	ms := func(n int) time.Duration {
		if n <= 0 {
			return 0
		}
		return time.Duration(n) * time.Millisecond
	}
	return EditorDurations{
		PollInterval:  ms(e.PollIntervalMs),
		LayoutSettle:  ms(e.LayoutSettleMs),
		BalloonSettle: ms(e.BalloonSettleMs),
	}
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
	Editor        EditorConfig  `yaml:"editor"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Backend:       BackendConfig{BaseURL: "http://localhost:8000", TimeoutMs: 15000, RatePerSecond: 5},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Editor: EditorConfig{
			PollIntervalMs:       3000,
			LayoutSettleMs:       1000,
			BalloonSettleMs:      1500,
			MaxCompletionRetries: 10,
			PageFormat:           "A4",
		},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile       = "GCL_CONFIG"
	EnvBackendURL       = "GCL_BACKEND_URL"
	EnvBackendTimeoutMs = "GCL_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "GCL_TLS_INSECURE"
	EnvBackendToken     = "GCL_BACKEND_TOKEN"
	EnvPollIntervalMs   = "GCL_POLL_INTERVAL_MS"
	EnvPageFormat       = "GCL_PAGE_FORMAT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCL_LOG_LEVEL"
	EnvLogFormat = "GCL_LOG_FORMAT"
	EnvLogSource = "GCL_LOG_SOURCE"
	EnvLogFile   = "GCL_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "GoComicLayout"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// ConfigPath returns the per-user config file path. GCL_CONFIG points elsewhere.
func ConfigPath() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigFile)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoComicLayout")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoComicLayout")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocomiclayout")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
// GCL_BACKEND_TOKEN takes precedence over the keyring.
func Load() (AppConfig, string, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	if tok := strings.TrimSpace(os.Getenv(EnvBackendToken)); tok != "" {
		return cfg, tok, nil
	}
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// loadFile returns the defaults merged with the config file, without env overrides.
func loadFile() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	return cfg, nil
}

// Login stores token in the keyring and, when baseURL is set, points the config file at
// that server. Environment overrides in effect are not written to the file.
func Login(baseURL, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	cfg, err := loadFile()
	if err != nil {
		return err
	}
	if u := strings.TrimSpace(baseURL); u != "" {
		cfg.Backend.BaseURL = u
	}
	return Save(cfg, strings.TrimSpace(token))
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
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

// ClearToken removes the backend token from the keyring.
func ClearToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	if src.Backend.RatePerSecond != 0 {
		dst.Backend.RatePerSecond = src.Backend.RatePerSecond
	}
	// logging
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
	// editor
	if src.Editor.PollIntervalMs > 0 {
		dst.Editor.PollIntervalMs = src.Editor.PollIntervalMs
	}
	if src.Editor.LayoutSettleMs > 0 {
		dst.Editor.LayoutSettleMs = src.Editor.LayoutSettleMs
	}
	if src.Editor.BalloonSettleMs > 0 {
		dst.Editor.BalloonSettleMs = src.Editor.BalloonSettleMs
	}
	if src.Editor.MaxCompletionRetries > 0 {
		dst.Editor.MaxCompletionRetries = src.Editor.MaxCompletionRetries
	}
	if strings.TrimSpace(src.Editor.PageFormat) != "" {
		dst.Editor.PageFormat = strings.TrimSpace(src.Editor.PageFormat)
	}
	dst.Editor.DisableJournal = src.Editor.DisableJournal
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPollIntervalMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.PollIntervalMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageFormat)); v != "" {
		cfg.Editor.PageFormat = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var overrideEnv = map[string]string{
	"backend.base_url":        EnvBackendURL,
	"backend.timeout_ms":      EnvBackendTimeoutMs,
	"backend.tls_insecure":    EnvBackendTLSInsec,
	"editor.poll_interval_ms": EnvPollIntervalMs,
	"editor.page_format":      EnvPageFormat,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := overrideEnv[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}
