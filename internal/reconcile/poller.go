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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocomiclayout/internal/domain"
	applog "gocomiclayout/internal/log"
)

// Defaults for the poll loop.
const (
	DefaultInterval   = 3 * time.Second
	DefaultMaxRetries = 10
)

// ErrStalledCompletion is reported when the server keeps answering "completed" without
// any panels. The job most likely finished without output and needs a manual regeneration.
var ErrStalledCompletion = errors.New("generation completed but produced no panels; try regenerating")

// Fetcher loads the current server snapshot of a project.
type Fetcher func(ctx context.Context) (domain.Project, error)

// Sink receives the results of the poll loop.
type Sink interface {
	// Completed applies a finished snapshot. Returning false rejects it (for example
	// because a local edit started in the meantime) and keeps the loop running.
	Completed(p domain.Project) bool
	// Failed reports a terminal error message to surface to the user.
	Failed(msg string)
	// Progress reports a non-terminal status.
	Progress(status domain.Status)
}

// Outcome describes what a single Tick did.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeFetchError
	OutcomeProgress
	OutcomeRetry
	OutcomeCompleted
	OutcomeFailed
	OutcomeStalled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFetchError:
		return "fetch-error"
	case OutcomeProgress:
		return "progress"
	case OutcomeRetry:
		return "retry"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeStalled:
		return "stalled"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Terminal reports whether the loop stops after this outcome.
func (o Outcome) Terminal() bool {
	return o == OutcomeCompleted || o == OutcomeFailed || o == OutcomeStalled
}

// Options configures a Poller. Zero values select the defaults.
type Options struct {
	Interval   time.Duration
	MaxRetries int
	Logger     *slog.Logger
	// OnTick, if set, is called after every tick of the background loop.
	OnTick func(Outcome)
}

// Poller runs at most one background poll loop at a time.
type Poller struct {
	fetch    Fetcher
	lock     *EditLock
	sink     Sink
	interval time.Duration
	maxRetry int
	log      *slog.Logger
	onTick   func(Outcome)

	mu      sync.Mutex
	cancel  context.CancelFunc
	loop    uint64
	retries int
}

// NewPoller creates an idle poller. lock may be nil when no local edits happen.
func NewPoller(fetch Fetcher, lock *EditLock, sink Sink, opts Options) *Poller {
	p := &Poller{
		fetch:    fetch,
		lock:     lock,
		sink:     sink,
		interval: opts.Interval,
		maxRetry: opts.MaxRetries,
		log:      opts.Logger,
		onTick:   opts.OnTick,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.maxRetry <= 0 {
		p.maxRetry = DefaultMaxRetries
	}
	if p.log == nil {
		p.log = applog.WithComponent("reconcile")
	}
	return p
}

// Start cancels a running loop, resets the retry counter and starts a new loop that
// ticks immediately and then every interval until a terminal outcome or Stop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.stopLocked()
	p.retries = 0
	p.loop++
	id := p.loop
	lctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(lctx, id)
}

// Stop cancels the running loop, if any. It does not wait for an in-flight fetch; a
// cancelled loop never hands its result to the sink.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// Running reports whether a loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context, id uint64) {
	defer func() {
		p.mu.Lock()
		if p.loop == id {
			p.stopLocked()
		}
		p.mu.Unlock()
	}()

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		out := p.Tick(ctx)
		if p.onTick != nil && ctx.Err() == nil {
			p.onTick(out)
		}
		if out.Terminal() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Tick performs one poll step. The background loop calls it on every interval; it is
// exported so callers can drive the reconciler deterministically.
func (p *Poller) Tick(ctx context.Context) Outcome {
	if p.lock.IsEngaged() {
		return OutcomeSkipped
	}
	epoch := p.lock.Epoch()

	proj, err := p.fetch(ctx)
	if ctx.Err() != nil {
		return OutcomeSkipped
	}
	if err != nil {
		p.log.WarnContext(ctx, "poll fetch failed", slog.Any("err", err))
		return OutcomeFetchError
	}
	// an edit that started during the request makes this snapshot stale
	if p.lock.IsEngaged() || p.lock.Epoch() != epoch {
		p.log.DebugContext(ctx, "discarding snapshot fetched during local edit")
		return OutcomeSkipped
	}

	switch proj.Status {
	case domain.StatusFailed:
		p.log.InfoContext(ctx, "generation failed", slog.String("error", proj.LastError))
		p.sink.Failed(proj.LastError)
		return OutcomeFailed
	case domain.StatusCompleted:
		if proj.CountPanels() > 0 {
			if !p.sink.Completed(proj) {
				return OutcomeSkipped
			}
			p.log.InfoContext(ctx, "generation completed", slog.Int("panels", proj.CountPanels()))
			return OutcomeCompleted
		}
		p.mu.Lock()
		stalled := p.retries >= p.maxRetry
		if !stalled {
			p.retries++
		}
		n := p.retries
		p.mu.Unlock()
		if stalled {
			p.log.WarnContext(ctx, "completed without panels, giving up", slog.Int("retries", n))
			p.sink.Failed(ErrStalledCompletion.Error())
			return OutcomeStalled
		}
		p.log.DebugContext(ctx, "completed without panels yet", slog.Int("retry", n))
		return OutcomeRetry
	default:
		p.sink.Progress(proj.Status)
		return OutcomeProgress
	}
}

// Retries returns the current empty-completion retry count.
func (p *Poller) Retries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retries
}
