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
	"math"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/storage"
	"gocomiclayout/internal/vector"
)

// Minimum sizes in page pixels; smaller results are ignored.
const (
	MinPanelSize     = 50
	MinBalloonWidth  = 80
	MinBalloonHeight = 40
)

// layoutEpsilon is the percent difference below which two layouts are the same.
const layoutEpsilon = 1e-6

// PanelTransform is the state of a panel's transform handles at the end of a gesture:
// the node's top-left position, its unscaled size and the scale the handles applied.
// A zero scale is treated as 1.
type PanelTransform struct {
	X, Y          float64
	Width, Height float64
	ScaleX        float64
	ScaleY        float64
}

// Applied is the result of a transform gesture. Rect is the geometry the renderer should
// show, always with identity scale; Applied is false when the gesture was ignored.
type Applied struct {
	Rect    vector.Rect
	Applied bool
}

// placed is a panel together with its effective geometry.
type placed struct {
	panel  *domain.Panel
	layout domain.Layout
	rect   vector.Rect
}

// panelGeometryLocked returns the panel and its pixel rectangle on the current page format.
func (s *Session) panelGeometryLocked(panelID int64) (placed, error) {
	for i := range s.project.Pages {
		pg := &s.project.Pages[i]
		for j := range pg.Panels {
			if pg.Panels[j].ID == panelID {
				l := vector.PanelLayout(pg.Panels[j], j)
				return placed{
					panel:  &pg.Panels[j],
					layout: l,
					rect:   vector.ToPixels(l, s.size.W, s.size.H, vector.Margin),
				}, nil
			}
		}
	}
	return placed{}, fmt.Errorf("%w: %d", ErrUnknownPanel, panelID)
}

// PanelRect returns the current pixel rectangle of a panel.
func (s *Session) PanelRect(panelID int64) (vector.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, err := s.panelGeometryLocked(panelID)
	return pl.rect, err
}

func (s *Session) commitLayoutLocked(panelID int64, l domain.Layout) {
	s.commit(edit{
		kind:    storage.KindLayout,
		panelID: panelID,
		settle:  s.opts.LayoutSettle,
		payload: l,
		apply: func(p *domain.Project) bool {
			pn := p.FindPanel(panelID)
			// a gesture that ends where it started is not an edit
			if pn == nil || vector.NearlyEqual(pn.Layout, l, layoutEpsilon) {
				return false
			}
			pn.Layout = l
			return true
		},
		remote: func(ctx context.Context) error { return s.store.PatchPanelLayout(ctx, panelID, l) },
	})
}

// MovePanel moves a panel so its top-left corner sits at topLeft (page pixels). The
// percent size is carried over unchanged.
func (s *Session) MovePanel(panelID int64, topLeft vector.Pt) error {
	s.mu.Lock()
	defer s.unlock()
	pl, err := s.panelGeometryLocked(panelID)
	if err != nil {
		return err
	}
	l := vector.ToPercent(vector.R(topLeft.X, topLeft.Y, pl.rect.W, pl.rect.H), s.size.W, s.size.H, vector.Margin)
	l.W, l.H = pl.layout.W, pl.layout.H
	s.commitLayoutLocked(panelID, l)
	return nil
}

// TransformPanel bakes the handle scale into the panel size and stores the result.
// Results narrower or shorter than MinPanelSize are ignored and the current geometry is
// returned so the renderer can snap back.
func (s *Session) TransformPanel(panelID int64, t PanelTransform) (Applied, error) {
	s.mu.Lock()
	defer s.unlock()
	pl, err := s.panelGeometryLocked(panelID)
	if err != nil {
		return Applied{}, err
	}
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	r := vector.ScaleAbout(vector.R(t.X, t.Y, t.Width, t.Height), sx, sy)
	if r.W < MinPanelSize || r.H < MinPanelSize {
		return Applied{Rect: pl.rect}, nil
	}
	s.commitLayoutLocked(panelID, vector.ToPercent(r, s.size.W, s.size.H, vector.Margin))
	return Applied{Rect: r, Applied: true}, nil
}

// balloonLocked returns the resolved box of a balloon inside its panel.
func (s *Session) balloonLocked(panelID int64, index int) (vector.BalloonBox, error) {
	pl, err := s.panelGeometryLocked(panelID)
	if err != nil {
		return vector.BalloonBox{}, err
	}
	if index < 0 || index >= len(pl.panel.Balloons) {
		return vector.BalloonBox{}, fmt.Errorf("%w: panel %d index %d", ErrUnknownBalloon, panelID, index)
	}
	return vector.ResolvePosition(pl.panel.Balloons[index], index, pl.rect.W, pl.rect.H), nil
}

// BalloonBox returns the effective placement of a balloon relative to its panel.
func (s *Session) BalloonBox(panelID int64, index int) (vector.BalloonBox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balloonLocked(panelID, index)
}

// commitBalloonsLocked replaces one balloon and persists the panel's balloon list.
func (s *Session) commitBalloonsLocked(panelID int64, mutate func(bs []domain.Balloon) []domain.Balloon) {
	pn := s.project.FindPanel(panelID)
	if pn == nil {
		return
	}
	next := mutate(cloneBalloons(pn.Balloons))
	s.commit(edit{
		kind:    storage.KindPanel,
		panelID: panelID,
		settle:  s.opts.BalloonSettle,
		payload: domain.PanelPatch{Balloons: next},
		apply: func(p *domain.Project) bool {
			pn := p.FindPanel(panelID)
			if pn == nil {
				return false
			}
			pn.Balloons = next
			return true
		},
		remote: func(ctx context.Context) error {
			return s.store.PatchPanel(ctx, panelID, domain.PanelPatch{Balloons: nonNil(next)})
		},
	})
}

// MoveBalloon pins a balloon at x,y relative to its panel. The resolved size and font
// size become explicit too, so the balloon no longer follows its position hint.
func (s *Session) MoveBalloon(panelID int64, index int, x, y float64) error {
	s.mu.Lock()
	defer s.unlock()
	box, err := s.balloonLocked(panelID, index)
	if err != nil {
		return err
	}
	s.commitBalloonsLocked(panelID, func(bs []domain.Balloon) []domain.Balloon {
		b := &bs[index]
		b.X, b.Y = domain.F(x), domain.F(y)
		b.Width, b.Height, b.FontSize = domain.F(box.Width), domain.F(box.Height), domain.F(box.FontSize)
		return bs
	})
	return nil
}

// ResizeBalloon handles a drag of the balloon's resize handle to handleX,handleY (panel
// pixels). The size changes by the handle's distance from its rest position, the
// bottom-right corner of the balloon. It returns the rest position the handle should snap
// to and whether the resize was applied; sizes under the minimum are ignored.
func (s *Session) ResizeBalloon(panelID int64, index int, handleX, handleY float64) (vector.Pt, bool, error) {
	s.mu.Lock()
	defer s.unlock()
	box, err := s.balloonLocked(panelID, index)
	if err != nil {
		return vector.Pt{}, false, err
	}
	rest := box.HandleRest()
	w := box.Width + (handleX - rest.X)
	h := box.Height + (handleY - rest.Y)
	if w < MinBalloonWidth || h < MinBalloonHeight || math.IsNaN(w) || math.IsNaN(h) {
		return rest, false, nil
	}
	s.commitBalloonsLocked(panelID, func(bs []domain.Balloon) []domain.Balloon {
		b := &bs[index]
		b.X, b.Y = domain.F(box.X), domain.F(box.Y)
		b.Width, b.Height, b.FontSize = domain.F(w), domain.F(h), domain.F(box.FontSize)
		return bs
	})
	return vector.Pt{X: box.X + w, Y: box.Y + h}, true, nil
}

func cloneBalloons(bs []domain.Balloon) []domain.Balloon {
	out := make([]domain.Balloon, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}

// nonNil makes an emptied balloon list serialize as [] so the server clears it.
func nonNil(bs []domain.Balloon) []domain.Balloon {
	if bs == nil {
		return []domain.Balloon{}
	}
	return bs
}
