/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"log/slog"
	"time"

	"gocomiclayout/internal/domain"
	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/storage"
)

// edit is one optimistic change: a local mutation plus the server call that persists it.
type edit struct {
	kind    string
	panelID int64
	settle  time.Duration
	payload any
	// apply mutates the local project and reports whether anything changed.
	apply  func(p *domain.Project) bool
	remote func(ctx context.Context) error
}

// commit is the single place where local edits meet the server. The local state is
// updated first and stays authoritative: the remote call runs in the background and a
// failure is only logged and journaled, never rolled back. The edit lock keeps poll
// results away until the server has had time to settle.
//
// Must be called with s.mu held. The call is only queued here; unlock hands it to the
// outbox once the mutex is released.
func (s *Session) commit(e edit) bool {
	if s.closed || !e.apply(&s.project) {
		return false
	}
	s.dirty = true
	s.lock.Engage(e.settle)
	s.unsent = append(s.unsent, s.persist(e))
	return true
}

// persist builds the background task of an edit: journal entry, server call, outcome.
func (s *Session) persist(e edit) func() error {
	ctx := applog.ContextWithPanel(s.ctx, e.panelID)
	return func() error {
		// journal writes outlive a closed session so every outcome is recorded
		jctx := context.WithoutCancel(ctx)
		var entry int64
		if s.journal != nil {
			id, err := s.journal.Record(jctx, storage.Entry{ProjectID: s.projectID, PanelID: e.panelID, Kind: e.kind, Payload: e.payload})
			if err != nil {
				s.log.WarnContext(ctx, "journal record failed", slog.Any("err", err))
			} else {
				entry = id
			}
		}
		err := e.remote(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "persisting edit failed", slog.String("kind", e.kind), slog.Any("err", err))
		}
		if entry != 0 {
			if jerr := s.journal.Resolve(jctx, entry, err); jerr != nil {
				s.log.WarnContext(ctx, "journal resolve failed", slog.Any("err", jerr))
			}
		}
		return nil
	}
}
