/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection models what the editor's transform and delete input applies to.
//
// A Selection is one of None, Panel or Balloon. A balloon selection always names its
// owning panel, so "balloon selected while its panel is not" cannot be represented.
package selection

import "fmt"

// Selection is a closed sum type; the unexported method keeps other packages from
// adding variants.
type Selection interface {
	isSelection()
	String() string
}

// None means nothing is selected.
type None struct{}

// Panel selects a panel body.
type Panel struct{ PanelID int64 }

// Balloon selects one balloon of a panel by index; the panel counts as selected too.
type Balloon struct {
	PanelID int64
	Index   int
}

func (None) isSelection()    {}
func (Panel) isSelection()   {}
func (Balloon) isSelection() {}

func (None) String() string      { return "none" }
func (s Panel) String() string   { return fmt.Sprintf("panel(%d)", s.PanelID) }
func (s Balloon) String() string { return fmt.Sprintf("balloon(%d#%d)", s.PanelID, s.Index) }

// PanelID returns the panel targeted by transforms, if any.
func PanelID(s Selection) (int64, bool) {
	switch v := s.(type) {
	case Panel:
		return v.PanelID, true
	case Balloon:
		return v.PanelID, true
	}
	return 0, false
}

// BalloonOf returns the selected balloon of panelID, if any.
func BalloonOf(s Selection, panelID int64) (int, bool) {
	if b, ok := s.(Balloon); ok && b.PanelID == panelID {
		return b.Index, true
	}
	return 0, false
}

// ClickEmpty handles a click on empty canvas space.
func ClickEmpty(Selection) Selection { return None{} }

// ClickPanel handles a click on a panel body.
func ClickPanel(_ Selection, panelID int64) Selection { return Panel{PanelID: panelID} }

// ClickBalloon handles a click on a balloon.
func ClickBalloon(_ Selection, panelID int64, index int) Selection {
	return Balloon{PanelID: panelID, Index: index}
}

// AfterDeleteBalloon is the state after the selected balloon was removed.
func AfterDeleteBalloon(s Selection) Selection {
	if b, ok := s.(Balloon); ok {
		return Panel{PanelID: b.PanelID}
	}
	return s
}

// AfterDeletePanel is the state after the selected panel was removed.
func AfterDeletePanel(Selection) Selection { return None{} }

// SwitchPage clears the balloon part of a selection; the panel part survives.
func SwitchPage(s Selection) Selection {
	if b, ok := s.(Balloon); ok {
		return Panel{PanelID: b.PanelID}
	}
	return s
}

// Resolve re-validates s against a new panel set after a server merge. balloonCount
// reports the number of balloons of a panel and whether the panel exists.
func Resolve(s Selection, balloonCount func(panelID int64) (int, bool)) Selection {
	switch v := s.(type) {
	case Panel:
		if _, ok := balloonCount(v.PanelID); !ok {
			return None{}
		}
	case Balloon:
		n, ok := balloonCount(v.PanelID)
		if !ok {
			return None{}
		}
		if v.Index < 0 || v.Index >= n {
			return Panel{PanelID: v.PanelID}
		}
	case nil:
		return None{}
	}
	return s
}
