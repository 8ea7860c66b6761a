/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"gocomiclayout/internal/backend"
	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/editor"
	"gocomiclayout/internal/vector"
)

func TestParseMoveArgs(t *testing.T) {
	mv, err := parseMoveArgs([]string{"12", "40.5", "100"})
	if err != nil {
		t.Fatalf("parseMoveArgs: %v", err)
	}
	if mv.panelID != 12 || mv.to.X != 40.5 || mv.to.Y != 100 {
		t.Fatalf("unexpected result: %+v", mv)
	}
	for _, bad := range [][]string{{"x", "1", "2"}, {"1", "a", "2"}, {"1", "2", "b"}, {"1", "2"}} {
		if _, err := parseMoveArgs(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestWrapIndented(t *testing.T) {
	got := wrapIndented("It was  a dark\nand stormy night", 10, "> ")
	want := "> It was a\n> dark and\n> stormy\n> night"
	if got != want {
		t.Fatalf("wrapIndented = %q, want %q", got, want)
	}
	if wrapIndented("   ", 10, "> ") != "" {
		t.Fatalf("blank text must produce no lines")
	}
}

func TestMoveSummary(t *testing.T) {
	st := editor.State{Project: domain.Project{Pages: []domain.Page{{PageNumber: 1, Panels: []domain.Panel{
		{ID: 4, Layout: domain.Layout{X: 10, Y: 20, W: 30, H: 40}},
	}}}}}
	got := moveSummary(st, 4, vector.R(112, 244, 216, 408))
	want := "panel 4 now at x=112.0 y=244.0 w=216.0 h=408.0  (layout 10.00% 20.00% 30.00% 40.00%)"
	if got != want {
		t.Fatalf("moveSummary = %q, want %q", got, want)
	}
	if got := moveSummary(st, 9, vector.R(0, 0, 1, 1)); got != "panel 9 now at x=0.0 y=0.0 w=1.0 h=1.0" {
		t.Fatalf("unknown panel summary = %q", got)
	}
}

func TestExplainNotFound(t *testing.T) {
	nf := fmt.Errorf("load project p9: %w", &backend.StatusError{Method: "GET", Path: "/api/projects/p9/", Code: http.StatusNotFound})
	if got := explain(nf); !strings.Contains(got, "gocomiclayout projects") {
		t.Fatalf("missing hint: %q", got)
	}
	if got := explain(errors.New("boom")); got != "Error: boom" {
		t.Fatalf("explain = %q", got)
	}
}
