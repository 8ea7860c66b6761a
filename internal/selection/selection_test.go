/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import "testing"

func TestTransitions(t *testing.T) {
	var s Selection = None{}
	s = ClickPanel(s, 7)
	if s != (Panel{PanelID: 7}) {
		t.Fatalf("click panel -> %v", s)
	}
	s = ClickBalloon(s, 7, 2)
	if id, ok := PanelID(s); !ok || id != 7 {
		t.Fatalf("balloon selection must imply panel 7, got %v", s)
	}
	if i, ok := BalloonOf(s, 7); !ok || i != 2 {
		t.Fatalf("BalloonOf = %d,%v", i, ok)
	}
	if _, ok := BalloonOf(s, 8); ok {
		t.Fatalf("balloon of other panel reported selected")
	}
	s = AfterDeleteBalloon(s)
	if s != (Panel{PanelID: 7}) {
		t.Fatalf("delete balloon -> %v", s)
	}
	s = AfterDeletePanel(s)
	if s != (None{}) {
		t.Fatalf("delete panel -> %v", s)
	}
	if _, ok := PanelID(s); ok {
		t.Fatalf("none must not target a panel")
	}
}

func TestClickEmptyClearsEverything(t *testing.T) {
	if ClickEmpty(Balloon{PanelID: 1, Index: 0}) != (None{}) {
		t.Fatalf("expected none")
	}
}

func TestSwitchPageDemotesBalloon(t *testing.T) {
	if got := SwitchPage(Balloon{PanelID: 3, Index: 1}); got != (Panel{PanelID: 3}) {
		t.Fatalf("switch page -> %v", got)
	}
	if got := SwitchPage(Panel{PanelID: 3}); got != (Panel{PanelID: 3}) {
		t.Fatalf("panel selection should survive page switch, got %v", got)
	}
}

func TestResolveAgainstNewPanels(t *testing.T) {
	counts := map[int64]int{1: 2}
	lookup := func(id int64) (int, bool) { n, ok := counts[id]; return n, ok }

	if got := Resolve(Panel{PanelID: 9}, lookup); got != (None{}) {
		t.Fatalf("missing panel should resolve to none, got %v", got)
	}
	if got := Resolve(Balloon{PanelID: 1, Index: 5}, lookup); got != (Panel{PanelID: 1}) {
		t.Fatalf("out of range balloon should fall back to its panel, got %v", got)
	}
	if got := Resolve(Balloon{PanelID: 1, Index: 1}, lookup); got != (Balloon{PanelID: 1, Index: 1}) {
		t.Fatalf("valid balloon changed: %v", got)
	}
	if got := Resolve(nil, lookup); got != (None{}) {
		t.Fatalf("nil selection should normalize to none, got %v", got)
	}
}

func TestString(t *testing.T) {
	if (Balloon{PanelID: 4, Index: 1}).String() != "balloon(4#1)" || (None{}).String() != "none" {
		t.Fatalf("unexpected string forms")
	}
}
