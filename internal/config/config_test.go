/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config file into a temp dir and swaps the keyring for a map.
func isolate(t *testing.T) (string, memTokens) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvBackendToken, "")
	toks := memTokens{}
	old := tokenStore
	tokenStore = toks
	t.Cleanup(func() { tokenStore = old })
	return path, toks
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q,%v", name, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file is not overridden")
	}
}

func TestEnvOverridesEditor(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPollIntervalMs, "500")
	t.Setenv(EnvPageFormat, "Widescreen")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.PollIntervalMs != 500 || cfg.Editor.PageFormat != "Widescreen" {
		t.Fatalf("editor overrides not applied: %#v", cfg.Editor)
	}
	if d := cfg.Editor.Durations(); d.PollInterval != 500*time.Millisecond || d.LayoutSettle != time.Second {
		t.Fatalf("unexpected durations: %#v", d)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gcl.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gcl.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsEditorDefaults(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	src.Editor.BalloonSettleMs = 2000
	mergeInto(&dst, &src)
	if dst.Editor.BalloonSettleMs != 2000 {
		t.Fatalf("balloon settle not merged: %d", dst.Editor.BalloonSettleMs)
	}
	if dst.Editor.LayoutSettleMs != 1000 || dst.Editor.MaxCompletionRetries != 10 || dst.Editor.PageFormat != "A4" {
		t.Fatalf("unset editor fields should keep defaults: %#v", dst.Editor)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gcl.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gcl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	path, toks := isolate(t)
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://comics.example.test"
	cfg.Editor.DisableJournal = true
	if err := Save(cfg, "secret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Backend.BaseURL != cfg.Backend.BaseURL || !got.Editor.DisableJournal {
		t.Fatalf("loaded config differs: %#v", got)
	}
	if tok != "secret" {
		t.Fatalf("token = %q", tok)
	}

	t.Setenv(EnvBackendToken, "from-env")
	if _, tok, _ := Load(); tok != "from-env" {
		t.Fatalf("env token should win, got %q", tok)
	}

	if err := ClearToken(); err != nil {
		t.Fatal(err)
	}
	if len(toks) != 0 {
		t.Fatalf("token not cleared: %v", toks)
	}
}

func TestLoginKeepsEnvOverridesOutOfFile(t *testing.T) {
	path, toks := isolate(t)
	t.Setenv(EnvPollIntervalMs, "250")
	if err := Login("https://comics.example.test", "  tok-1 "); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if toks[keyringService+"/"+keyringToken] != "tok-1" {
		t.Fatalf("token not stored: %v", toks)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if strings.Contains(string(data), "250") {
		t.Fatalf("env override leaked into the file:\n%s", data)
	}
	cfg, tok, err := Load()
	if err != nil || tok != "tok-1" || cfg.Backend.BaseURL != "https://comics.example.test" {
		t.Fatalf("Load() = %+v, %q, %v", cfg.Backend, tok, err)
	}
	if err := Login("", " "); err == nil {
		t.Fatalf("expected an error for an empty token")
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}
