/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/reconcile"
)

var _ reconcile.Sink = (*Session)(nil)

// Completed applies a finished server snapshot. It is refused while a local edit is
// settling; the poller then keeps going and retries on its next tick.
func (s *Session) Completed(p domain.Project) bool {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || s.lock.IsEngaged() {
		return false
	}
	s.applySnapshotLocked(p)
	s.loading = false
	s.generating = false
	s.regen = 0
	s.errMsg = ""
	s.dirty = true
	s.log.InfoContext(s.ctx, "snapshot applied", slog.Int("panels", p.CountPanels()))
	return true
}

// Failed surfaces a terminal generation error.
func (s *Session) Failed(msg string) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	if msg == "" {
		msg = "generation failed"
	}
	s.errMsg = msg
	s.loading = false
	s.generating = false
	s.regen = 0
	s.project.Status = domain.StatusFailed
	s.dirty = true
}

// Progress records a non-terminal server status.
func (s *Session) Progress(st domain.Status) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || s.project.Status == st {
		return
	}
	s.project.Status = st
	s.dirty = true
}
