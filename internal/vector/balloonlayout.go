/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "gocomiclayout/internal/domain"

// Balloon placement defaults, in panel pixels.
const (
	DefaultBalloonWidth    = 180
	DefaultBalloonHeight   = 70
	DefaultBalloonFontSize = 13

	// HintInset is the clearance between a hinted balloon and the panel edges.
	HintInset = 15
	// BottomInset is the distance from the panel bottom to a bottom-anchored balloon's top.
	BottomInset = 85
	// StackStep separates balloons that share the same hint.
	StackStep = 80

	fallbackX = 20
	fallbackY = 20
)

// BalloonBox is the effective placement of a balloon relative to its panel.
type BalloonBox struct {
	X, Y          float64
	Width, Height float64
	FontSize      float64
}

// Rect returns the box geometry as a Rect.
func (b BalloonBox) Rect() Rect { return R(b.X, b.Y, b.Width, b.Height) }

// HandleRest returns the nominal position of the resize handle: the bottom-right corner.
func (b BalloonBox) HandleRest() Pt { return Pt{b.X + b.Width, b.Y + b.Height} }

// ResolvePosition computes where a balloon sits inside a panel of the given pixel size.
//
// Explicit coordinates win whenever they exist; only missing size fields are defaulted.
// Otherwise the position hint picks an anchor and index stacks balloons sharing it, so
// the result must be recomputed whenever the panel pixel size changes.
func ResolvePosition(b domain.Balloon, index int, panelW, panelH float64) BalloonBox {
	box := BalloonBox{
		Width:    valueOr(b.Width, DefaultBalloonWidth),
		Height:   valueOr(b.Height, DefaultBalloonHeight),
		FontSize: valueOr(b.FontSize, DefaultBalloonFontSize),
	}
	if b.HasExplicitPosition() {
		box.X, box.Y = *b.X, *b.Y
		return box
	}

	// Hint anchors are computed for the default size so a hinted balloon never moves
	// because of a partially stored size.
	w, h := float64(DefaultBalloonWidth), float64(DefaultBalloonHeight)
	stack := float64(index * StackStep)
	left := float64(HintInset)
	center := panelW/2 - w/2
	right := panelW - w - HintInset
	top := float64(HintInset)
	middle := panelH/2 - h/2
	bottom := panelH - BottomInset

	switch b.PositionHint {
	case domain.HintTopLeft:
		box.X, box.Y = left, top+stack
	case domain.HintTopCenter:
		box.X, box.Y = center, top+stack
	case domain.HintTopRight:
		box.X, box.Y = right, top+stack
	case domain.HintMiddleLeft:
		box.X, box.Y = left, middle+stack
	case domain.HintMiddleRight:
		box.X, box.Y = right, middle+stack
	case domain.HintBottomLeft:
		box.X, box.Y = left, bottom-stack
	case domain.HintBottomCenter:
		box.X, box.Y = center, bottom-stack
	case domain.HintBottomRight:
		box.X, box.Y = right, bottom-stack
	default:
		box.X, box.Y = fallbackX, fallbackY+stack
	}
	return box
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
