/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package reconcile keeps local edits and the server's view of a project consistent.
//
// An EditLock marks the window after a local edit during which server snapshots must not
// be merged; a Poller periodically fetches the project and hands usable snapshots to a Sink.
package reconcile

import (
	"sync"
	"time"
)

// EditLock is engaged by every optimistic local edit and releases itself after a settle
// delay. The release deadline only ever moves later while engaged, so a burst of edits
// keeps the lock until every one of them has settled.
type EditLock struct {
	mu      sync.Mutex
	engaged bool
	epoch   uint64
	until   time.Time
	timer   *time.Timer
}

// Engage marks the lock engaged and schedules its release delay from now, or at the
// pending deadline if that is later. A non-positive delay releases on the next scheduler
// turn unless an earlier edit is still settling.
func (l *EditLock) Engage(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	deadline := now.Add(delay)
	if l.engaged && l.until.After(deadline) {
		deadline = l.until
	}
	l.epoch++
	l.engaged = true
	l.until = deadline
	if l.timer != nil {
		l.timer.Stop()
	}
	armed := l.epoch
	l.timer = time.AfterFunc(deadline.Sub(now), func() { l.releaseIf(armed) })
}

// Release disengages the lock immediately and cancels a pending timer.
func (l *EditLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.engaged = false
	l.until = time.Time{}
}

// IsEngaged reports whether a local edit is still settling.
func (l *EditLock) IsEngaged() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engaged
}

// Epoch increases with every Engage. Comparing epochs across a fetch tells whether an
// edit happened while the request was in flight, even if the lock already released.
func (l *EditLock) Epoch() uint64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

func (l *EditLock) releaseIf(epoch uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// a stale timer that fired while being replaced must not release a newer engagement
	if l.epoch != epoch {
		return
	}
	l.engaged = false
	l.timer = nil
}
