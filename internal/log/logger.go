/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the process-wide slog logger of the layout engine: a console
// handler for people, an optional rotated JSON file for later inspection, and a
// scope handler that stamps records with the project and panel from the context.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gocomiclayout/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of the JSON log file.
const (
	rotateMaxMB      = 10
	rotateMaxBackups = 3
	rotateMaxDays    = 28
)

// Options configures Init. FromEnv reads them from GCL_LOG_LEVEL, GCL_LOG_FORMAT,
// GCL_LOG_SOURCE and GCL_LOG_FILE; the config file can override them later.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // console or json
	AddSource bool
	File      string // rotated JSON log; empty disables it
	// Out receives console output; nil means stderr.
	Out io.Writer
}

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// L returns the process logger. It is initialised from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		l = Init(FromEnv())
	}
	return l
}

// Init replaces the process logger (and slog's default) and returns it.
func Init(opts Options) *slog.Logger {
	lvl := parseLevel(opts.Level)
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var primary slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		primary = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		primary = newConsoleHandler(out, lvl, opts.AddSource)
	}
	hs := fanout{primary}
	if f := strings.TrimSpace(opts.File); f != "" {
		w := &lj.Logger{Filename: f, MaxSize: rotateMaxMB, MaxBackups: rotateMaxBackups, MaxAge: rotateMaxDays, Compress: true}
		hs = append(hs, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}
	var h slog.Handler = hs
	if len(hs) == 1 {
		h = hs[0]
	}

	l := slog.New(scoped(h)).With(
		slog.String("app", "gocomiclayout"),
		slog.String("ver", version.String()),
	)
	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// FromEnv builds Options from the GCL_LOG_* environment variables.
func FromEnv() Options {
	o := Options{Level: "info", Format: "console", File: os.Getenv("GCL_LOG_FILE")}
	if v := os.Getenv("GCL_LOG_LEVEL"); v != "" {
		o.Level = v
	}
	if v := os.Getenv("GCL_LOG_FORMAT"); v != "" {
		o.Format = v
	}
	o.AddSource = strings.EqualFold(os.Getenv("GCL_LOG_SOURCE"), "true")
	return o
}

// WithComponent returns the process logger tagged with a component name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// fanout hands every record to each of its handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
