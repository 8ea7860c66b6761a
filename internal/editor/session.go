/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor holds the interactive editing session of one comic project.
//
// A Session owns the local project state, the selection, the edit lock and the poll
// loop. Every reaction (gesture, poll result, network answer) runs under one mutex, so
// the state is only ever changed by one of them at a time.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocomiclayout/internal/domain"
	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/reconcile"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/storage"
	"gocomiclayout/internal/vector"
)

var (
	ErrUnknownPanel   = errors.New("unknown panel")
	ErrUnknownBalloon = errors.New("unknown balloon")
	ErrClosed         = errors.New("session closed")
)

// Persistence is the server API the editor needs.
type Persistence interface {
	FetchProject(ctx context.Context, projectID string) (domain.Project, error)
	PatchPanelLayout(ctx context.Context, panelID int64, l domain.Layout) error
	PatchPanel(ctx context.Context, panelID int64, patch domain.PanelPatch) error
	DeletePanel(ctx context.Context, panelID int64) error
	StartGeneration(ctx context.Context, projectID string, cfg domain.GenerationConfig) (domain.GenerationResult, error)
	RegeneratePanel(ctx context.Context, panelID int64, req domain.RegenerateRequest) error
}

// Journal records optimistic edits and their outcome. *storage.Journal implements it.
type Journal interface {
	Record(ctx context.Context, e storage.Entry) (int64, error)
	Resolve(ctx context.Context, id int64, cause error) error
}

// Default settle delays after a local edit.
const (
	DefaultLayoutSettle  = 1000 * time.Millisecond
	DefaultBalloonSettle = 1500 * time.Millisecond
	defaultMaxInFlight   = 8
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	PageFormat    string
	LayoutSettle  time.Duration
	BalloonSettle time.Duration
	PollInterval  time.Duration
	MaxRetries    int
	// MaxInFlight bounds concurrent background persistence calls.
	MaxInFlight int
	Journal     Journal
	Logger      *slog.Logger
	// OnChange receives a state snapshot after every change. It runs outside the
	// session mutex and may call back into the session.
	OnChange func(State)
	// OnPoll receives the outcome of every background poll tick.
	OnPoll func(reconcile.Outcome)
}

// State is a read-only snapshot of the session.
type State struct {
	Project           domain.Project
	Page              int
	PageFormat        string
	PageSize          vector.Size
	Selection         selection.Selection
	Loading           bool
	Generating        bool
	RegeneratingPanel int64
	Status            domain.Status
	Error             string
	Locked            bool
	Polling           bool
}

// CurrentPage returns the displayed page, or nil if it has no data yet.
func (st State) CurrentPage() *domain.Page { return st.Project.Page(st.Page) }

// Session is the editing session of one project.
type Session struct {
	store     Persistence
	journal   Journal
	projectID string
	opts      Options
	log       *slog.Logger

	lock   *reconcile.EditLock
	poller *reconcile.Poller

	ctx    context.Context
	cancel context.CancelFunc
	out    *outbox

	mu         sync.Mutex
	project    domain.Project
	page       int
	format     string
	size       vector.Size
	sel        selection.Selection
	loading    bool
	generating bool
	regen      int64
	errMsg     string
	closed     bool
	dirty      bool
	unsent     []func() error
}

// New creates a session for projectID. Call Load before using the state.
func New(store Persistence, projectID string, opts Options) *Session {
	if opts.LayoutSettle <= 0 {
		opts.LayoutSettle = DefaultLayoutSettle
	}
	if opts.BalloonSettle <= 0 {
		opts.BalloonSettle = DefaultBalloonSettle
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("editor")
	}
	ctx, cancel := context.WithCancel(applog.ContextWithProject(context.Background(), projectID))
	s := &Session{
		store:     store,
		journal:   opts.Journal,
		projectID: projectID,
		opts:      opts,
		log:       l,
		lock:      &reconcile.EditLock{},
		ctx:       ctx,
		cancel:    cancel,
		out:       newOutbox(opts.MaxInFlight),
		project:   domain.Project{ID: projectID},
		page:      1,
		sel:       selection.None{},
	}
	s.format = vector.CanonicalFormat(opts.PageFormat)
	s.size = vector.PageSize(s.format)
	s.poller = reconcile.NewPoller(s.fetch, s.lock, s, reconcile.Options{
		Interval:   opts.PollInterval,
		MaxRetries: opts.MaxRetries,
		OnTick:     opts.OnPoll,
	})
	return s
}

func (s *Session) fetch(ctx context.Context) (domain.Project, error) {
	return s.store.FetchProject(ctx, s.projectID)
}

// unlock releases the mutex, hands queued edits to the outbox and publishes the state
// if something changed.
func (s *Session) unlock() {
	var st *State
	if s.dirty && s.opts.OnChange != nil {
		v := s.stateLocked()
		st = &v
	}
	s.dirty = false
	unsent := s.unsent
	s.unsent = nil
	s.mu.Unlock()
	s.out.push(unsent...)
	if st != nil {
		s.opts.OnChange(*st)
	}
}

// ProjectID returns the id of the edited project.
func (s *Session) ProjectID() string { return s.projectID }

// Lock exposes the edit lock, mainly for callers that want to wait for edits to settle.
func (s *Session) Lock() *reconcile.EditLock { return s.lock }

// State returns a deep snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Project:           s.project.Clone(),
		Page:              s.page,
		PageFormat:        s.format,
		PageSize:          s.size,
		Selection:         s.sel,
		Loading:           s.loading,
		Generating:        s.generating,
		RegeneratingPanel: s.regen,
		Status:            s.project.Status,
		Error:             s.errMsg,
		Locked:            s.lock.IsEngaged(),
		Polling:           s.poller.Running(),
	}
}

// Load performs the seed fetch. The session state is only meaningful after it succeeded.
func (s *Session) Load(ctx context.Context) error {
	p, err := s.store.FetchProject(applog.ContextWithProject(ctx, s.projectID), s.projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", s.projectID, err)
	}
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	s.applySnapshotLocked(p)
	return nil
}

// applySnapshotLocked replaces the local pages with the server's and re-validates
// everything that refers to them.
func (s *Session) applySnapshotLocked(p domain.Project) {
	p.SortPages()
	if !s.generating && !p.Status.Busy() {
		s.project.MaxPages = p.MaxPages
		s.project.MaxPanels = p.MaxPanels
		s.project.MaxPanelsPerPage = p.MaxPanelsPerPage
		s.project.LayoutStyle = p.LayoutStyle
	}
	s.project.ID = p.ID
	s.project.Name = p.Name
	s.project.Status = p.Status
	s.project.LastError = p.LastError
	s.project.Pages = p.Pages
	s.page = s.clampPageLocked(s.page)
	s.sel = s.resolveSelectionLocked()
	s.dirty = true
}

func (s *Session) lastPageLocked() int {
	n := s.project.MaxPages
	for _, pg := range s.project.Pages {
		if pg.PageNumber > n {
			n = pg.PageNumber
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Session) clampPageLocked(n int) int {
	if n < 1 {
		return 1
	}
	if last := s.lastPageLocked(); n > last {
		return last
	}
	return n
}

// SetPage switches the displayed page, clamped to the project's page range. A balloon
// selection is demoted to its panel.
func (s *Session) SetPage(n int) int {
	s.mu.Lock()
	defer s.unlock()
	s.page = s.clampPageLocked(n)
	s.sel = selection.SwitchPage(s.sel)
	s.dirty = true
	return s.page
}

// SetPageFormat changes the pixel size of pages. Stored percent layouts are untouched.
func (s *Session) SetPageFormat(format string) vector.Size {
	s.mu.Lock()
	defer s.unlock()
	s.format = vector.CanonicalFormat(format)
	s.size = vector.PageSize(s.format)
	s.dirty = true
	return s.size
}

// ClickEmpty clears the selection.
func (s *Session) ClickEmpty() {
	s.mu.Lock()
	defer s.unlock()
	s.sel = selection.ClickEmpty(s.sel)
	s.dirty = true
}

// ClickPanel selects a panel body.
func (s *Session) ClickPanel(panelID int64) error {
	s.mu.Lock()
	defer s.unlock()
	if s.project.FindPanel(panelID) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownPanel, panelID)
	}
	s.sel = selection.ClickPanel(s.sel, panelID)
	s.dirty = true
	return nil
}

// ClickBalloon selects a balloon of a panel.
func (s *Session) ClickBalloon(panelID int64, index int) error {
	s.mu.Lock()
	defer s.unlock()
	if _, err := s.balloonLocked(panelID, index); err != nil {
		return err
	}
	s.sel = selection.ClickBalloon(s.sel, panelID, index)
	s.dirty = true
	return nil
}

// Focus tells HandleKey where keyboard focus is.
type Focus int

const (
	FocusCanvas Focus = iota
	FocusTextInput
)

// HandleKey reacts to a key press and reports whether it was consumed. Delete keys
// remove the selection unless the user is typing in a text field.
func (s *Session) HandleKey(key string, focus Focus) bool {
	switch key {
	case "Delete", "Backspace", "BackSpace":
	default:
		return false
	}
	if focus == FocusTextInput {
		return false
	}
	return s.DeleteSelected()
}

// StartPolling starts the reconcile loop without submitting a job, e.g. to follow a
// generation started elsewhere.
func (s *Session) StartPolling() {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	s.poller.Start(s.ctx)
	s.dirty = true
}

// Flush waits until all background persistence calls have finished.
func (s *Session) Flush() {
	s.out.wait()
}

// Close stops polling, cancels in-flight persistence calls and waits for them.
// The session must not be used afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.poller.Stop()
	s.lock.Release()
	s.mu.Unlock()

	s.cancel()
	s.out.wait()
	return nil
}
