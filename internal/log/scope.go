/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
)

type (
	projectKey struct{}
	panelKey   struct{}
)

// ContextWithProject tags ctx with a project id. Records logged with that context
// carry a project attribute.
func ContextWithProject(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectKey{}, projectID)
}

// ContextWithPanel tags ctx with the panel an operation works on. Zero leaves ctx as is.
func ContextWithPanel(ctx context.Context, panelID int64) context.Context {
	if panelID == 0 {
		return ctx
	}
	return context.WithValue(ctx, panelKey{}, panelID)
}

// ProjectFrom returns the project id stored by ContextWithProject.
func ProjectFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(projectKey{}).(string)
	return id, ok && id != ""
}

// PanelFrom returns the panel id stored by ContextWithPanel.
func PanelFrom(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(panelKey{}).(int64)
	return id, ok
}

// scopeHandler copies the context's project and panel onto each record.
type scopeHandler struct {
	next slog.Handler
}

func scoped(h slog.Handler) slog.Handler { return scopeHandler{next: h} }

func (s scopeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s scopeHandler) Handle(ctx context.Context, r slog.Record) error {
	project, hasProject := ProjectFrom(ctx)
	panel, hasPanel := PanelFrom(ctx)
	if hasProject || hasPanel {
		r = r.Clone()
		if hasProject {
			r.AddAttrs(slog.String("project", project))
		}
		if hasPanel {
			r.AddAttrs(slog.Int64("panel", panel))
		}
	}
	return s.next.Handle(ctx, r)
}

func (s scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scopeHandler{next: s.next.WithAttrs(attrs)}
}

func (s scopeHandler) WithGroup(name string) slog.Handler {
	return scopeHandler{next: s.next.WithGroup(name)}
}
