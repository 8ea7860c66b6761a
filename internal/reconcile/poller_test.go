/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gocomiclayout/internal/domain"
)

type recSink struct {
	mu        sync.Mutex
	completed []domain.Project
	failed    []string
	progress  []domain.Status
	reject    bool
}

func (s *recSink) Completed(p domain.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.completed = append(s.completed, p)
	return true
}

func (s *recSink) Failed(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, msg)
}

func (s *recSink) Progress(st domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, st)
}

// script replays a fixed sequence of snapshots; the last one repeats.
type script struct {
	mu    sync.Mutex
	steps []domain.Project
	calls int
}

func (s *script) fetch(context.Context) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i], nil
}

func (s *script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func withPanels(st domain.Status, n int) domain.Project {
	p := domain.Project{ID: "p1", Status: st, Pages: []domain.Page{{PageNumber: 1}}}
	for i := 0; i < n; i++ {
		p.Pages[0].Panels = append(p.Pages[0].Panels, domain.Panel{ID: int64(i + 1), PageNumber: 1, Layout: domain.Layout{W: 50, H: 50}})
	}
	return p
}

func TestTickQueuedProcessingCompleted(t *testing.T) {
	sc := &script{steps: []domain.Project{
		withPanels(domain.StatusQueued, 0),
		withPanels(domain.StatusProcessing, 0),
		withPanels(domain.StatusCompleted, 3),
	}}
	sink := &recSink{}
	p := NewPoller(sc.fetch, &EditLock{}, sink, Options{})
	ctx := context.Background()

	want := []Outcome{OutcomeProgress, OutcomeProgress, OutcomeCompleted}
	for i, w := range want {
		if got := p.Tick(ctx); got != w {
			t.Fatalf("tick %d = %v, want %v", i, got, w)
		}
	}
	if len(sink.progress) != 2 || sink.progress[0] != domain.StatusQueued || sink.progress[1] != domain.StatusProcessing {
		t.Fatalf("progress = %v", sink.progress)
	}
	if len(sink.completed) != 1 || sink.completed[0].CountPanels() != 3 {
		t.Fatalf("completed = %v", sink.completed)
	}
}

func TestTickFailedSurfacesLastError(t *testing.T) {
	fail := withPanels(domain.StatusFailed, 0)
	fail.LastError = "image backend unreachable"
	sc := &script{steps: []domain.Project{fail}}
	sink := &recSink{}
	p := NewPoller(sc.fetch, nil, sink, Options{})
	if got := p.Tick(context.Background()); got != OutcomeFailed {
		t.Fatalf("tick = %v", got)
	}
	if len(sink.failed) != 1 || sink.failed[0] != "image backend unreachable" {
		t.Fatalf("failed = %v", sink.failed)
	}
}

func TestTickEmptyCompletionStallsAfterRetries(t *testing.T) {
	sc := &script{steps: []domain.Project{withPanels(domain.StatusCompleted, 0)}}
	sink := &recSink{}
	p := NewPoller(sc.fetch, nil, sink, Options{})
	ctx := context.Background()
	for i := 0; i < DefaultMaxRetries; i++ {
		if got := p.Tick(ctx); got != OutcomeRetry {
			t.Fatalf("read %d = %v, want retry", i+1, got)
		}
	}
	if len(sink.failed) != 0 {
		t.Fatalf("failed too early: %v", sink.failed)
	}
	if got := p.Tick(ctx); got != OutcomeStalled {
		t.Fatalf("11th read = %v, want stalled", got)
	}
	if len(sink.failed) != 1 || sink.failed[0] != ErrStalledCompletion.Error() {
		t.Fatalf("failed = %v", sink.failed)
	}
}

func TestTickSkipsWhileLocked(t *testing.T) {
	sc := &script{steps: []domain.Project{withPanels(domain.StatusCompleted, 1)}}
	sink := &recSink{}
	lock := &EditLock{}
	p := NewPoller(sc.fetch, lock, sink, Options{})

	lock.Engage(50 * time.Millisecond)
	if got := p.Tick(context.Background()); got != OutcomeSkipped {
		t.Fatalf("tick under lock = %v", got)
	}
	if sc.Calls() != 0 {
		t.Fatalf("fetch must not run while locked")
	}
	require.Eventually(t, func() bool { return !lock.IsEngaged() }, time.Second, 5*time.Millisecond)
	if got := p.Tick(context.Background()); got != OutcomeCompleted {
		t.Fatalf("tick after settle = %v", got)
	}
}

func TestTickDiscardsSnapshotWhenEditRacesFetch(t *testing.T) {
	lock := &EditLock{}
	sink := &recSink{}
	fetch := func(context.Context) (domain.Project, error) {
		// the user edits while the request is in flight; the edit settles immediately
		lock.Engage(0)
		lock.Release()
		return withPanels(domain.StatusCompleted, 2), nil
	}
	p := NewPoller(fetch, lock, sink, Options{})
	if got := p.Tick(context.Background()); got != OutcomeSkipped {
		t.Fatalf("tick = %v, want skipped", got)
	}
	if len(sink.completed) != 0 {
		t.Fatalf("stale snapshot applied")
	}
}

func TestTickFetchErrorKeepsPolling(t *testing.T) {
	sink := &recSink{}
	fetch := func(context.Context) (domain.Project, error) { return domain.Project{}, errors.New("connection refused") }
	p := NewPoller(fetch, nil, sink, Options{})
	if got := p.Tick(context.Background()); got != OutcomeFetchError || got.Terminal() {
		t.Fatalf("tick = %v", got)
	}
}

func TestTickRejectedCompletionContinues(t *testing.T) {
	sc := &script{steps: []domain.Project{withPanels(domain.StatusCompleted, 1)}}
	sink := &recSink{reject: true}
	p := NewPoller(sc.fetch, nil, sink, Options{})
	if got := p.Tick(context.Background()); got != OutcomeSkipped {
		t.Fatalf("tick = %v", got)
	}
}

func TestStartRunsUntilTerminal(t *testing.T) {
	sc := &script{steps: []domain.Project{
		withPanels(domain.StatusProcessing, 0),
		withPanels(domain.StatusCompleted, 2),
	}}
	sink := &recSink{}
	p := NewPoller(sc.fetch, nil, sink, Options{Interval: 10 * time.Millisecond})
	p.Start(context.Background())
	require.Eventually(t, func() bool { return !p.Running() }, 2*time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.completed, 1)
	require.Equal(t, 2, sc.Calls())
}

func TestStartReplacesRunningLoop(t *testing.T) {
	sc := &script{steps: []domain.Project{withPanels(domain.StatusCompleted, 0)}}
	sink := &recSink{}
	p := NewPoller(sc.fetch, nil, sink, Options{Interval: 20 * time.Millisecond})
	ctx := context.Background()

	p.Start(ctx)
	require.Eventually(t, func() bool { return p.Retries() >= 3 }, 2*time.Second, time.Millisecond)
	p.Start(ctx)
	// restarting resets the counter, so the new loop needs a full set of retries again
	require.Eventually(t, func() bool { return !p.Running() }, 3*time.Second, 5*time.Millisecond)
	require.GreaterOrEqual(t, sc.Calls(), 3+DefaultMaxRetries+1)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.failed, 1)
}

func TestStopCancelsLoop(t *testing.T) {
	sc := &script{steps: []domain.Project{withPanels(domain.StatusProcessing, 0)}}
	p := NewPoller(sc.fetch, nil, &recSink{}, Options{Interval: 5 * time.Millisecond})
	p.Start(context.Background())
	require.True(t, p.Running())
	p.Stop()
	require.False(t, p.Running())
	n := sc.Calls()
	time.Sleep(30 * time.Millisecond)
	require.LessOrEqual(t, sc.Calls(), n+1)
}
