/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, slog.LevelDebug, false))
	l = l.With(slog.String("component", "poller")).WithGroup("poll")

	l.Warn("fetch failed",
		slog.Int("retry", 2),
		slog.Duration("wait", 1500*time.Millisecond),
		slog.Any("err", errors.New("connection refused")),
		slog.Group("page", slog.Int("number", 3)),
	)

	out := buf.String()
	for _, want := range []string{
		"WRN fetch failed",
		" component=poller",
		" poll.retry=2",
		" poll.wait=1.5s",
		` poll.err="connection refused"`,
		" poll.page.number=3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("want exactly one line: %q", out)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)
	h := newConsoleHandler(&bytes.Buffer{}, &lvl, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	lvl.Set(slog.LevelDebug)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("level changes should apply to an existing handler")
	}
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newConsoleHandler(&buf, slog.LevelInfo, true)).Info("here")
	if !strings.Contains(buf.String(), " src=console_test.go:") {
		t.Fatalf("source location missing: %q", buf.String())
	}
}

func TestConsoleValueFormatting(t *testing.T) {
	cases := []struct {
		v    slog.Value
		want string
	}{
		{slog.StringValue("plain"), "plain"},
		{slog.StringValue(""), `""`},
		{slog.StringValue("a=b"), `"a=b"`},
		{slog.Float64Value(0.25), "0.25"},
		{slog.Float64Value(3), "3"},
		{slog.BoolValue(true), "true"},
	}
	for _, c := range cases {
		if got := quoteIfNeeded(valueString(c.v)); got != c.want {
			t.Fatalf("format %v = %q, want %q", c.v, got, c.want)
		}
	}
	if levelTag(slog.LevelDebug-4) != "DBG" || levelTag(slog.LevelError+4) != "ERR" {
		t.Fatalf("levels outside the named ones should map to the nearest tag")
	}
}
