/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

// TestFileLogCarriesStaticAndScopeAttrs checks the rotated JSON file next to a
// console handler: both receive the record and the file sees every attribute.
func TestFileLogCarriesStaticAndScopeAttrs(t *testing.T) {
	// os.TempDir rather than t.TempDir: the rotating writer keeps its handle open
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gcl_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() { _ = os.Remove(fpath) })
	var console bytes.Buffer

	Init(Options{Level: "debug", File: fpath, Out: &console})
	ctx := ContextWithPanel(ContextWithProject(context.Background(), "p-7"), 12)
	WithOperation(WithComponent("editor"), "move_panel").InfoContext(ctx, "layout persisted", slog.Float64("x", 12.5))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSONLine(t, b)
	want := map[string]any{
		"app": "gocomiclayout", "component": "editor", "op": "move_panel",
		"project": "p-7", "panel": float64(12), "x": 12.5, "msg": "layout persisted",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s = %v, want %v (record %v)", k, m[k], v, m)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if !strings.Contains(console.String(), "layout persisted") || !strings.Contains(console.String(), "panel=12") {
		t.Fatalf("console output missing record: %q", console.String())
	}
}

func TestInitJSONFormatWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Options{Level: "warn", Format: "JSON", Out: &buf})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info record passed a warn logger: %q", buf.String())
	}
	if m := lastJSONLine(t, buf.Bytes()); m["msg"] != "shown" || m["level"] != "WARN" {
		t.Fatalf("unexpected record: %v", m)
	}
	if slog.Default() != l || L() != l {
		t.Fatalf("Init did not install the logger")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GCL_LOG_LEVEL", "warn")
	t.Setenv("GCL_LOG_FORMAT", "json")
	t.Setenv("GCL_LOG_SOURCE", "TRUE")
	t.Setenv("GCL_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	t.Setenv("GCL_LOG_LEVEL", "")
	t.Setenv("GCL_LOG_FORMAT", "")
	if opts := FromEnv(); opts.Level != "info" || opts.Format != "console" {
		t.Fatalf("FromEnv defaults: %+v", opts)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFanoutSkipsDisabledHandlers(t *testing.T) {
	var quiet, loud bytes.Buffer
	f := fanout{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	l := slog.New(f).WithGroup("g").With(slog.Int("n", 1))
	l.Info("tick")
	if quiet.Len() != 0 {
		t.Fatalf("error-level handler received an info record: %q", quiet.String())
	}
	if !strings.Contains(loud.String(), "g.n=1") {
		t.Fatalf("group or attrs lost in fan-out: %q", loud.String())
	}
}
