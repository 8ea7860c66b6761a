/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "sort"

// This file defines the data model shared by the editor engine and the persistence client.
// Field names follow the server wire format so snapshots decode without an adapter layer.

// Status is the generation lifecycle state reported by the server for a project.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether polling should stop once this status is observed.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Busy reports whether a generation job is running server-side.
func (s Status) Busy() bool { return s == StatusQueued || s == StatusProcessing }

// Project is the authoritative server snapshot of a comic project.
type Project struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Status           Status `json:"status"`
	LastError        string `json:"last_error,omitempty"`
	MaxPages         int    `json:"max_pages"`
	MaxPanels        int    `json:"max_panels"`
	MaxPanelsPerPage int    `json:"max_panels_per_page,omitempty"`
	LayoutStyle      string `json:"layout_style"`
	Pages            []Page `json:"pages"`
}

// Page is one sheet of the comic. Pages are ordered by PageNumber ascending.
type Page struct {
	PageNumber     int     `json:"page_number"`
	Panels         []Panel `json:"panels"`
	MergedImageURL string  `json:"merged_image_url,omitempty"`
}

// Layout is a rectangle in percent of the page content area.
// W and H must be positive; X+W and Y+H are deliberately not clamped to 100.
type Layout struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Valid reports whether the layout has a usable size.
func (l Layout) Valid() bool { return l.W > 0 && l.H > 0 }

// Panel is a rectangular region of a page holding artwork and balloons.
type Panel struct {
	ID               int64     `json:"id"`
	PageNumber       int       `json:"page_number"`
	Order            int       `json:"order"`
	Layout           Layout    `json:"layout"`
	ImageURL         string    `json:"image_url,omitempty"` // empty means not rendered yet
	Prompt           string    `json:"prompt"`
	SceneDescription string    `json:"scene_description"`
	PanelStyle       string    `json:"panel_style,omitempty"`
	Status           string    `json:"status,omitempty"`
	Balloons         []Balloon `json:"balloons"`
}

// BalloonType selects the lettering style of a balloon.
type BalloonType string

const (
	BalloonDialogue  BalloonType = "dialogue"
	BalloonNarration BalloonType = "narration"
	BalloonThought   BalloonType = "thought"
)

// PositionHint is a named anchor used until a balloon is placed interactively.
type PositionHint string

const (
	HintTopLeft      PositionHint = "top-left"
	HintTopCenter    PositionHint = "top-center"
	HintTopRight     PositionHint = "top-right"
	HintMiddleLeft   PositionHint = "middle-left"
	HintMiddleRight  PositionHint = "middle-right"
	HintBottomLeft   PositionHint = "bottom-left"
	HintBottomCenter PositionHint = "bottom-center"
	HintBottomRight  PositionHint = "bottom-right"
)

// Balloon is a text element owned by exactly one panel.
// X/Y/Width/Height/FontSize are panel-relative pixels written by the last interactive
// placement; nil means "never set".
type Balloon struct {
	Text         string       `json:"text"`
	Type         BalloonType  `json:"type"`
	Character    string       `json:"character,omitempty"`
	PositionHint PositionHint `json:"position_hint,omitempty"`
	X            *float64     `json:"x,omitempty"`
	Y            *float64     `json:"y,omitempty"`
	Width        *float64     `json:"width,omitempty"`
	Height       *float64     `json:"height,omitempty"`
	FontSize     *float64     `json:"fontSize,omitempty"`
}

// HasExplicitPosition reports whether the balloon was ever dragged or resized.
// Once true, the position hint is ignored.
func (b Balloon) HasExplicitPosition() bool { return b.X != nil && b.Y != nil }

// Clone returns a deep copy, duplicating the coordinate pointers.
func (b Balloon) Clone() Balloon {
	c := b
	c.X = cloneFloat(b.X)
	c.Y = cloneFloat(b.Y)
	c.Width = cloneFloat(b.Width)
	c.Height = cloneFloat(b.Height)
	c.FontSize = cloneFloat(b.FontSize)
	return c
}

// F returns a pointer to v; convenient for explicit balloon coordinates.
func F(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of the panel including its balloons.
func (p Panel) Clone() Panel {
	c := p
	if p.Balloons != nil {
		c.Balloons = make([]Balloon, len(p.Balloons))
		for i, b := range p.Balloons {
			c.Balloons[i] = b.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	c := p
	if p.Pages != nil {
		c.Pages = make([]Page, len(p.Pages))
		for i, pg := range p.Pages {
			cp := pg
			if pg.Panels != nil {
				cp.Panels = make([]Panel, len(pg.Panels))
				for j, pn := range pg.Panels {
					cp.Panels[j] = pn.Clone()
				}
			}
			c.Pages[i] = cp
		}
	}
	return c
}

// SortPages orders pages by page number and panels by draft order.
func (p *Project) SortPages() {
	sort.SliceStable(p.Pages, func(i, j int) bool { return p.Pages[i].PageNumber < p.Pages[j].PageNumber })
	for i := range p.Pages {
		pns := p.Pages[i].Panels
		sort.SliceStable(pns, func(a, b int) bool { return pns[a].Order < pns[b].Order })
	}
}

// Panels flattens all panels in page order.
func (p Project) Panels() []Panel {
	var out []Panel
	for _, pg := range p.Pages {
		out = append(out, pg.Panels...)
	}
	return out
}

// CountPanels returns the number of panels across all pages.
func (p Project) CountPanels() int {
	n := 0
	for _, pg := range p.Pages {
		n += len(pg.Panels)
	}
	return n
}

// FindPanel returns a pointer into p.Pages for the panel with the given id, or nil.
func (p *Project) FindPanel(id int64) *Panel {
	for i := range p.Pages {
		for j := range p.Pages[i].Panels {
			if p.Pages[i].Panels[j].ID == id {
				return &p.Pages[i].Panels[j]
			}
		}
	}
	return nil
}

// Page returns the page with the given number, or nil.
func (p *Project) Page(number int) *Page {
	for i := range p.Pages {
		if p.Pages[i].PageNumber == number {
			return &p.Pages[i]
		}
	}
	return nil
}

// RemovePanel deletes the panel (and with it all of its balloons). It reports whether
// a panel was removed.
func (p *Project) RemovePanel(id int64) bool {
	for i := range p.Pages {
		pns := p.Pages[i].Panels
		for j := range pns {
			if pns[j].ID == id {
				p.Pages[i].Panels = append(pns[:j:j], pns[j+1:]...)
				return true
			}
		}
	}
	return false
}
