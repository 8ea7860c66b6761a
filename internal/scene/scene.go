/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene turns a page of the project into an ordered display list and hit-tests
// pointer positions against it. Toolkit adapters draw the list through Renderer.
package scene

import (
	"fmt"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/vector"
)

// Kind identifies what an item belongs to.
type Kind uint8

const (
	KindPanel Kind = iota
	KindBalloon
	// KindPanelHandle is the resize handle at the bottom-right corner of the selected panel.
	KindPanelHandle
	// KindBalloonHandle is the resize handle of the selected balloon.
	KindBalloonHandle
	// KindMerged is the merged artwork of a whole page.
	KindMerged
)

func (k Kind) String() string {
	switch k {
	case KindPanel:
		return "panel"
	case KindBalloon:
		return "balloon"
	case KindPanelHandle:
		return "panel-handle"
	case KindBalloonHandle:
		return "balloon-handle"
	case KindMerged:
		return "merged"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Key addresses the model element an item was built from. Balloon is the balloon index
// and only meaningful for balloon kinds.
type Key struct {
	Kind    Kind
	PanelID int64
	Balloon int
}

// Shape selects the Renderer call for an item.
type Shape uint8

const (
	ShapeRect Shape = iota
	ShapeImage
	ShapeText
)

// HandleSize is the edge length of a resize handle in page pixels.
const HandleSize = 12

// Item is one entry of the display list. Rect is in page pixels.
type Item struct {
	Key    Key
	Shape  Shape
	Rect   vector.Rect
	Radius float64
	Fill   vector.Fill
	Stroke vector.Stroke

	ImageURL string

	Text      string
	FontSize  float64
	TextColor vector.Color
	Centered  bool
}

// Build returns the display list of page in paint order: every panel with its label
// first, then all balloons so they stay above neighbouring panels, then the handles of
// the selection. A nil page yields an empty list.
func Build(page *domain.Page, pageW, pageH, margin float64, sel selection.Selection) []Item {
	if page == nil {
		return nil
	}
	var panels, balloons, handles []Item
	for i, pn := range page.Panels {
		r := vector.ToPixels(vector.PanelLayout(pn, i), pageW, pageH, margin)
		key := Key{Kind: KindPanel, PanelID: pn.ID}
		selected := isPanelSelected(sel, pn.ID)

		outline := vector.Line(vector.Black, 3)
		if selected {
			outline = vector.Line(vector.Accent, 4)
		}
		if pn.ImageURL != "" {
			panels = append(panels,
				Item{Key: key, Shape: ShapeImage, Rect: r, ImageURL: pn.ImageURL},
				Item{Key: key, Shape: ShapeRect, Rect: r, Stroke: outline},
			)
		} else {
			panels = append(panels,
				Item{Key: key, Shape: ShapeRect, Rect: r, Fill: vector.Solid(vector.Placeholder), Stroke: outline},
				Item{Key: key, Shape: ShapeText, Rect: r, Text: placeholderText(pn), FontSize: 14, TextColor: vector.Muted, Centered: true},
			)
		}
		panels = append(panels, Item{
			Key: key, Shape: ShapeText, Rect: vector.R(r.X+6, r.Y+4, 60, 16),
			Text: fmt.Sprintf("#%d", i+1), FontSize: 11, TextColor: vector.Muted,
		})
		if selected {
			handles = append(handles, handleItem(Key{Kind: KindPanelHandle, PanelID: pn.ID}, r.Max()))
		}

		for j, b := range pn.Balloons {
			box := vector.ResolvePosition(b, j, r.W, r.H)
			abs := box.Rect().Translate(r.X, r.Y)
			bkey := Key{Kind: KindBalloon, PanelID: pn.ID, Balloon: j}
			bsel := isBalloonSelected(sel, pn.ID, j)
			balloons = append(balloons, balloonItems(bkey, b, abs, box.FontSize, bsel)...)
			if bsel {
				handles = append(handles, handleItem(Key{Kind: KindBalloonHandle, PanelID: pn.ID, Balloon: j}, abs.Max()))
			}
		}
	}
	out := make([]Item, 0, len(panels)+len(balloons)+len(handles))
	out = append(out, panels...)
	out = append(out, balloons...)
	return append(out, handles...)
}

// BuildMerged returns the display list of a page's merged artwork: the server-rendered
// image covering the whole page, or a placeholder while the final render is pending.
func BuildMerged(page *domain.Page, pageW, pageH float64) []Item {
	if page == nil {
		return nil
	}
	key := Key{Kind: KindMerged}
	r := vector.R(0, 0, pageW, pageH)
	label := Item{
		Key: key, Shape: ShapeText, Rect: vector.R(8, 6, pageW-16, 18),
		Text: fmt.Sprintf("Page %d: merged art", page.PageNumber), FontSize: 12, TextColor: vector.Muted,
	}
	if page.MergedImageURL == "" {
		return []Item{
			{Key: key, Shape: ShapeRect, Rect: r, Fill: vector.Solid(vector.Placeholder), Stroke: vector.Line(vector.Muted, 2)},
			{Key: key, Shape: ShapeText, Rect: r, Text: "Final render in progress", FontSize: 16, TextColor: vector.Muted, Centered: true},
			label,
		}
	}
	return []Item{
		{Key: key, Shape: ShapeImage, Rect: r, ImageURL: page.MergedImageURL},
		label,
	}
}

func placeholderText(pn domain.Panel) string {
	if pn.Status != "" {
		return pn.Status
	}
	return "No image yet"
}

func balloonItems(key Key, b domain.Balloon, r vector.Rect, fontSize float64, selected bool) []Item {
	box := Item{Key: key, Shape: ShapeRect, Rect: r, Fill: vector.Solid(vector.White), Stroke: vector.Line(vector.Black, 2)}
	switch b.Type {
	case domain.BalloonNarration:
		box.Fill = vector.Solid(vector.Caption)
	case domain.BalloonThought:
		box.Radius = r.H / 2
		box.Stroke.Dashed = true
	default:
		box.Radius = 20
	}
	if selected {
		box.Stroke = vector.Line(vector.Accent, 3)
	}
	text := b.Text
	if b.Character != "" && b.Type == domain.BalloonDialogue {
		text = b.Character + ": " + text
	}
	return []Item{
		box,
		{Key: key, Shape: ShapeText, Rect: r.Inset(8, 6), Text: text, FontSize: fontSize, TextColor: vector.Black, Centered: true},
	}
}

func handleItem(key Key, at vector.Pt) Item {
	return Item{
		Key:    key,
		Shape:  ShapeRect,
		Rect:   vector.R(at.X-HandleSize/2, at.Y-HandleSize/2, HandleSize, HandleSize),
		Fill:   vector.Solid(vector.Accent),
		Stroke: vector.Line(vector.White, 1),
	}
}

// isPanelSelected is also true for the owner of a selected balloon.
func isPanelSelected(sel selection.Selection, panelID int64) bool {
	id, ok := selection.PanelID(sel)
	return ok && id == panelID
}

func isBalloonSelected(sel selection.Selection, panelID int64, index int) bool {
	i, ok := selection.BalloonOf(sel, panelID)
	return ok && i == index
}

// Renderer draws display list items. Coordinates are page pixels; adapters map them to
// the screen.
type Renderer interface {
	DrawImage(url string, r vector.Rect)
	DrawRect(r vector.Rect, radius float64, fill vector.Fill, stroke vector.Stroke)
	DrawText(text string, r vector.Rect, size float64, c vector.Color, centered bool)
}

// Render draws items in order.
func Render(r Renderer, items []Item) {
	for _, it := range items {
		switch it.Shape {
		case ShapeImage:
			r.DrawImage(it.ImageURL, it.Rect)
		case ShapeRect:
			r.DrawRect(it.Rect, it.Radius, it.Fill, it.Stroke)
		case ShapeText:
			r.DrawText(it.Text, it.Rect, it.FontSize, it.TextColor, it.Centered)
		}
	}
}

// HitTest returns the key of the top-most item containing pt. Items are scanned in
// reverse paint order so handles win over balloons and balloons over panels.
func HitTest(items []Item, pt vector.Pt) (Key, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Rect.Contains(pt) {
			return items[i].Key, true
		}
	}
	return Key{}, false
}

// Bounds returns the rectangle of the first shape item for key, which is the panel or
// balloon frame itself.
func Bounds(items []Item, key Key) (vector.Rect, bool) {
	for _, it := range items {
		if it.Key == key && it.Shape != ShapeText {
			return it.Rect, true
		}
	}
	return vector.Rect{}, false
}
