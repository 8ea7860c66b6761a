/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"testing"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/vector"
)

func testPage() *domain.Page {
	return &domain.Page{
		PageNumber: 1,
		Panels: []domain.Panel{
			{
				ID: 1, PageNumber: 1, Layout: domain.Layout{X: 0, Y: 0, W: 50, H: 50},
				ImageURL: "http://example.test/1.png",
				Balloons: []domain.Balloon{{Text: "Hi", Type: domain.BalloonDialogue, PositionHint: domain.HintTopLeft}},
			},
			{ID: 2, PageNumber: 1, Layout: domain.Layout{X: 50, Y: 0, W: 50, H: 50}},
		},
	}
}

func TestBuildNilPage(t *testing.T) {
	if items := Build(nil, 800, 1100, vector.Margin, selection.None{}); len(items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(items))
	}
}

func TestBuildOrdersBalloonsAfterPanels(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.None{})
	firstBalloon := -1
	lastPanel := -1
	for i, it := range items {
		switch it.Key.Kind {
		case KindPanel:
			lastPanel = i
		case KindBalloon:
			if firstBalloon < 0 {
				firstBalloon = i
			}
		}
	}
	if firstBalloon < 0 || lastPanel < 0 || firstBalloon < lastPanel {
		t.Fatalf("balloons must follow every panel item: firstBalloon=%d lastPanel=%d", firstBalloon, lastPanel)
	}
}

func TestBuildPlacesBalloonInPanelSpace(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.None{})
	r, ok := Bounds(items, Key{Kind: KindBalloon, PanelID: 1, Balloon: 0})
	if !ok {
		t.Fatal("balloon frame missing")
	}
	// Panel 1 starts at the margin; the top-left hint adds the inset.
	want := vector.R(40+15, 40+15, 180, 70)
	if r != want {
		t.Fatalf("balloon rect: got %+v want %+v", r, want)
	}
	pr, ok := Bounds(items, Key{Kind: KindPanel, PanelID: 2})
	if !ok || pr != vector.R(400, 40, 360, 510) {
		t.Fatalf("panel 2 rect: got %+v ok=%v", pr, ok)
	}
}

func TestBuildPlaceholderWithoutImage(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.None{})
	var images, placeholders int
	for _, it := range items {
		if it.Shape == ShapeImage {
			images++
		}
		if it.Shape == ShapeRect && it.Key.PanelID == 2 && it.Fill.Enabled {
			placeholders++
		}
	}
	if images != 1 || placeholders != 1 {
		t.Fatalf("images=%d placeholders=%d", images, placeholders)
	}
}

func TestHitTestTopMost(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.None{})
	cases := []struct {
		pt   vector.Pt
		want Key
		ok   bool
	}{
		{vector.Pt{X: 60, Y: 60}, Key{Kind: KindBalloon, PanelID: 1}, true},
		{vector.Pt{X: 300, Y: 400}, Key{Kind: KindPanel, PanelID: 1}, true},
		{vector.Pt{X: 500, Y: 100}, Key{Kind: KindPanel, PanelID: 2}, true},
		{vector.Pt{X: 5, Y: 5}, Key{}, false},
	}
	for _, c := range cases {
		got, ok := HitTest(items, c.pt)
		if ok != c.ok || got != c.want {
			t.Fatalf("HitTest(%v): got %+v,%v want %+v,%v", c.pt, got, ok, c.want, c.ok)
		}
	}
}

func TestHandlesFollowSelection(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.Balloon{PanelID: 1, Index: 0})
	got, ok := HitTest(items, vector.Pt{X: 55 + 180, Y: 55 + 70})
	if !ok || got != (Key{Kind: KindBalloonHandle, PanelID: 1}) {
		t.Fatalf("expected balloon handle, got %+v ok=%v", got, ok)
	}

	items = Build(testPage(), 800, 1100, vector.Margin, selection.Panel{PanelID: 2})
	got, ok = HitTest(items, vector.Pt{X: 760, Y: 550})
	if !ok || got != (Key{Kind: KindPanelHandle, PanelID: 2}) {
		t.Fatalf("expected panel handle, got %+v ok=%v", got, ok)
	}
	for _, it := range items {
		if it.Key.Kind == KindBalloonHandle {
			t.Fatalf("no balloon handle expected for a panel selection")
		}
	}
}

func TestBalloonSelectionSelectsOwningPanel(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.Balloon{PanelID: 1, Index: 0})
	frame, ok := Bounds(items, Key{Kind: KindPanel, PanelID: 1})
	if !ok {
		t.Fatalf("panel 1 missing")
	}
	if _, ok := Bounds(items, Key{Kind: KindPanelHandle, PanelID: 1}); !ok {
		t.Fatalf("owning panel has no resize handle")
	}
	for _, it := range items {
		if it.Key == (Key{Kind: KindPanel, PanelID: 1}) && it.Shape == ShapeRect && it.Stroke.Color != vector.Accent {
			t.Fatalf("owning panel outline not highlighted: %+v", it.Stroke)
		}
		if it.Key == (Key{Kind: KindPanel, PanelID: 2}) && it.Shape == ShapeRect && it.Stroke.Color == vector.Accent {
			t.Fatalf("unrelated panel highlighted")
		}
	}
	if got, ok := HitTest(items, frame.Max()); !ok || got.Kind != KindPanelHandle {
		t.Fatalf("panel handle not hit at %+v: %+v", frame.Max(), got)
	}
}

func TestBuildMerged(t *testing.T) {
	if BuildMerged(nil, 800, 1100) != nil {
		t.Fatalf("nil page must build nothing")
	}
	pg := testPage()
	items := BuildMerged(pg, 800, 1100)
	if len(items) != 3 || items[0].Shape != ShapeRect || items[1].Text != "Final render in progress" {
		t.Fatalf("pending merged page = %+v", items)
	}
	pg.MergedImageURL = "https://cdn.test/merged-1.png"
	items = BuildMerged(pg, 800, 1100)
	if len(items) != 2 || items[0].Shape != ShapeImage || items[0].ImageURL != pg.MergedImageURL || items[0].Rect != vector.R(0, 0, 800, 1100) {
		t.Fatalf("merged page = %+v", items)
	}
	if got, ok := HitTest(items, vector.Pt{X: 400, Y: 500}); !ok || got.Kind != KindMerged {
		t.Fatalf("HitTest on merged art = %+v,%v", got, ok)
	}
}

type recRenderer struct{ calls []string }

func (r *recRenderer) DrawImage(url string, _ vector.Rect) { r.calls = append(r.calls, "image:"+url) }
func (r *recRenderer) DrawRect(vector.Rect, float64, vector.Fill, vector.Stroke) {
	r.calls = append(r.calls, "rect")
}
func (r *recRenderer) DrawText(text string, _ vector.Rect, _ float64, _ vector.Color, _ bool) {
	r.calls = append(r.calls, "text:"+text)
}

func TestRenderDispatchesByShape(t *testing.T) {
	items := Build(testPage(), 800, 1100, vector.Margin, selection.None{})
	var r recRenderer
	Render(&r, items)
	if len(r.calls) != len(items) {
		t.Fatalf("expected %d draw calls, got %d", len(items), len(r.calls))
	}
	if r.calls[0] != "image:http://example.test/1.png" {
		t.Fatalf("first call should draw panel 1 artwork, got %q", r.calls[0])
	}
	if last := r.calls[len(r.calls)-1]; last != "text:Hi" {
		t.Fatalf("balloon text should be painted last, got %q", last)
	}
}
