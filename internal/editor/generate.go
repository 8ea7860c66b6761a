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
	"fmt"
	"log/slog"
	"slices"

	"gocomiclayout/internal/domain"
	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/storage"
)

// PanelEdits are the text fields of a panel edited in the side form. Nil fields stay
// unchanged; a nil Balloons slice keeps the balloons.
type PanelEdits struct {
	Prompt           *string
	SceneDescription *string
	PanelStyle       *string
	Balloons         []domain.Balloon
}

// SavePanelEdits stores edited panel text optimistically.
func (s *Session) SavePanelEdits(panelID int64, e PanelEdits) error {
	s.mu.Lock()
	defer s.unlock()
	if s.project.FindPanel(panelID) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownPanel, panelID)
	}
	patch := domain.PanelPatch{Prompt: e.Prompt, SceneDescription: e.SceneDescription, PanelStyle: e.PanelStyle}
	if e.Balloons != nil {
		patch.Balloons = cloneBalloons(e.Balloons)
	}
	s.commit(edit{
		kind:    storage.KindPanel,
		panelID: panelID,
		settle:  s.opts.BalloonSettle,
		payload: patch,
		apply: func(p *domain.Project) bool {
			pn := p.FindPanel(panelID)
			if pn == nil {
				return false
			}
			if patch.Prompt != nil {
				pn.Prompt = *patch.Prompt
			}
			if patch.SceneDescription != nil {
				pn.SceneDescription = *patch.SceneDescription
			}
			if patch.PanelStyle != nil {
				pn.PanelStyle = *patch.PanelStyle
			}
			if patch.Balloons != nil {
				pn.Balloons = cloneBalloons(patch.Balloons)
			}
			return true
		},
		remote: func(ctx context.Context) error { return s.store.PatchPanel(ctx, panelID, patch) },
	})
	s.sel = s.resolveSelectionLocked()
	return nil
}

// AddBalloon appends an empty dialogue balloon anchored top-left and returns its index.
func (s *Session) AddBalloon(panelID int64) (int, error) {
	s.mu.Lock()
	defer s.unlock()
	pn := s.project.FindPanel(panelID)
	if pn == nil {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPanel, panelID)
	}
	idx := len(pn.Balloons)
	s.commitBalloonsLocked(panelID, func(bs []domain.Balloon) []domain.Balloon {
		return append(bs, domain.Balloon{Type: domain.BalloonDialogue, PositionHint: domain.HintTopLeft})
	})
	return idx, nil
}

// UpdateBalloon changes the text and type of a balloon. An empty type keeps the old one.
func (s *Session) UpdateBalloon(panelID int64, index int, text string, typ domain.BalloonType) error {
	s.mu.Lock()
	defer s.unlock()
	if _, err := s.balloonLocked(panelID, index); err != nil {
		return err
	}
	s.commitBalloonsLocked(panelID, func(bs []domain.Balloon) []domain.Balloon {
		bs[index].Text = text
		if typ != "" {
			bs[index].Type = typ
		}
		return bs
	})
	return nil
}

// DeleteSelected removes the selected balloon or panel and reports whether anything was
// deleted. Deleting a balloon leaves its panel selected.
func (s *Session) DeleteSelected() bool {
	s.mu.Lock()
	defer s.unlock()
	switch sel := s.sel.(type) {
	case selection.Balloon:
		if _, err := s.balloonLocked(sel.PanelID, sel.Index); err != nil {
			return false
		}
		s.commitBalloonsLocked(sel.PanelID, func(bs []domain.Balloon) []domain.Balloon {
			return slices.Delete(bs, sel.Index, sel.Index+1)
		})
		s.sel = selection.AfterDeleteBalloon(s.sel)
		return true
	case selection.Panel:
		id := sel.PanelID
		ok := s.commit(edit{
			kind:    storage.KindDelete,
			panelID: id,
			settle:  s.opts.LayoutSettle,
			apply:   func(p *domain.Project) bool { return p.RemovePanel(id) },
			remote:  func(ctx context.Context) error { return s.store.DeletePanel(ctx, id) },
		})
		if ok {
			s.sel = selection.AfterDeletePanel(s.sel)
		}
		return ok
	}
	return false
}

func (s *Session) resolveSelectionLocked() selection.Selection {
	return selection.Resolve(s.sel, func(id int64) (int, bool) {
		pn := s.project.FindPanel(id)
		if pn == nil {
			return 0, false
		}
		return len(pn.Balloons), true
	})
}

// GenerateSettings are the options of a generation run. Zero numeric and string fields
// keep the project's current values.
type GenerateSettings struct {
	MaxPages         int
	MaxPanels        int
	MaxPanelsPerPage int
	LayoutStyle      string
	PlanOnly         bool
	PageNumber       int
	// SkipAgent only re-syncs settings locally; no job is submitted.
	SkipAgent bool
	// SkipCleaning keeps the existing panels and passes them to the generator.
	SkipCleaning bool
}

// Generate submits a generation job and follows it with the poll loop. A job the
// server finished synchronously is fetched right away instead.
func (s *Session) Generate(ctx context.Context, set GenerateSettings) error {
	ctx = s.contextFor(ctx)
	s.mu.Lock()
	if s.closed {
		s.unlock()
		return ErrClosed
	}
	s.loading = true
	s.errMsg = ""
	s.dirty = true

	seeds := make([]domain.PanelSeed, 0)
	if set.SkipAgent || set.SkipCleaning {
		for _, pg := range s.project.Pages {
			for _, pn := range pg.Panels {
				seeds = append(seeds, domain.PanelSeed{
					ID:               pn.ID,
					PageNumber:       pg.PageNumber,
					OrderInPage:      pn.Order,
					Layout:           pn.Layout,
					Prompt:           pn.Prompt,
					SceneDescription: pn.SceneDescription,
				})
			}
		}
	} else {
		s.project.Pages = nil
		s.sel = selection.None{}
	}

	if set.MaxPages > 0 {
		s.project.MaxPages = set.MaxPages
	}
	if set.MaxPanels > 0 {
		s.project.MaxPanels = set.MaxPanels
	}
	if set.MaxPanelsPerPage > 0 {
		s.project.MaxPanelsPerPage = set.MaxPanelsPerPage
	}
	if set.LayoutStyle != "" {
		s.project.LayoutStyle = set.LayoutStyle
	}
	cfg := domain.GenerationConfig{
		MaxPages:         s.project.MaxPages,
		MaxPanels:        s.project.MaxPanels,
		MaxPanelsPerPage: s.project.MaxPanelsPerPage,
		LayoutStyle:      s.project.LayoutStyle,
		PlanOnly:         set.PlanOnly,
		PageNumber:       set.PageNumber,
		Panels:           seeds,
	}
	if set.SkipAgent {
		s.loading = false
		s.unlock()
		return nil
	}
	s.generating = true
	s.unlock()

	res, err := s.store.StartGeneration(ctx, s.projectID, cfg)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.generating = false
		s.errMsg = "failed to start generation"
		s.dirty = true
		s.unlock()
		s.log.ErrorContext(ctx, "start generation failed", slog.Any("err", err))
		return fmt.Errorf("start generation: %w", err)
	}
	s.log.InfoContext(ctx, "generation submitted", slog.String("status", string(res.Status)), slog.Bool("plan_only", set.PlanOnly))

	if res.Status == domain.StatusCompleted {
		p, ferr := s.store.FetchProject(ctx, s.projectID)
		s.mu.Lock()
		defer s.unlock()
		if s.closed {
			return ErrClosed
		}
		if ferr == nil && s.lock.IsEngaged() {
			// an edit made meanwhile is still settling; the poller adopts the result
			// once it has
			s.project.Status = domain.StatusProcessing
			s.poller.Start(s.ctx)
			s.dirty = true
			return nil
		}
		s.generating = false
		s.loading = false
		s.dirty = true
		if ferr != nil {
			s.errMsg = "generation finished but the project could not be loaded"
			return fmt.Errorf("fetch generated project: %w", ferr)
		}
		s.applySnapshotLocked(p)
		return nil
	}

	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	if res.Status != "" {
		s.project.Status = res.Status
	} else {
		s.project.Status = domain.StatusQueued
	}
	s.poller.Start(s.ctx)
	s.dirty = true
	return nil
}

// RegeneratePanel asks the server to redraw one panel from its current text and follows
// the job with the poll loop.
func (s *Session) RegeneratePanel(ctx context.Context, panelID int64, instructions string, useCurrentAsBase bool) error {
	ctx = s.contextFor(ctx)
	s.mu.Lock()
	pn := s.project.FindPanel(panelID)
	if pn == nil {
		s.unlock()
		return fmt.Errorf("%w: %d", ErrUnknownPanel, panelID)
	}
	req := domain.RegenerateRequest{
		Prompt:           pn.Prompt,
		SceneDescription: pn.SceneDescription,
		Balloons:         nonNil(cloneBalloons(pn.Balloons)),
		PanelStyle:       pn.PanelStyle,
		Instructions:     instructions,
		UseCurrentAsBase: useCurrentAsBase,
	}
	s.regen = panelID
	s.errMsg = ""
	s.dirty = true
	s.unlock()

	if err := s.store.RegeneratePanel(ctx, panelID, req); err != nil {
		s.mu.Lock()
		s.regen = 0
		s.errMsg = "failed to regenerate panel"
		s.dirty = true
		s.unlock()
		s.log.ErrorContext(ctx, "regenerate panel failed", slog.Int64("panel", panelID), slog.Any("err", err))
		return fmt.Errorf("regenerate panel %d: %w", panelID, err)
	}

	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	s.poller.Start(s.ctx)
	s.dirty = true
	return nil
}

func (s *Session) contextFor(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return applog.ContextWithProject(ctx, s.projectID)
}
