/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Page geometry: conversion between the persisted percent layout and the interactive
// pixel space of a page. Percent values are relative to the page content area, which is
// the page inset by Margin on all sides, so they survive a change of page format.

import (
	"math"
	"strings"

	"gocomiclayout/internal/domain"
)

// Margin is the fixed content inset in pixels shared by every call site.
const Margin = 40

// Pt is a 2D point in page pixels.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Translate returns r moved by dx,dy.
func (r Rect) Translate(dx, dy float64) Rect { return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H} }

// Page formats offered by the editor.
const (
	FormatA4         = "A4"
	FormatSquare     = "Square"
	FormatWidescreen = "Widescreen"
)

// PageSize returns the pixel dimensions of a page format. Unknown formats fall back to A4.
func PageSize(format string) Size {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "square":
		return Size{W: 800, H: 800}
	case "widescreen":
		return Size{W: 1000, H: 600}
	default:
		return Size{W: 800, H: 1100}
	}
}

// CanonicalFormat returns the display name of a page format, defaulting to A4.
func CanonicalFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "square":
		return FormatSquare
	case "widescreen":
		return FormatWidescreen
	default:
		return FormatA4
	}
}

// ContentArea returns the page rectangle available to panels.
func ContentArea(pageW, pageH, margin float64) Rect {
	return R(0, 0, pageW, pageH).Inset(margin, margin)
}

// ToPixels maps a percent layout to page pixels.
func ToPixels(l domain.Layout, pageW, pageH, margin float64) Rect {
	c := ContentArea(pageW, pageH, margin)
	return Rect{
		X: c.X + l.X/100*c.W,
		Y: c.Y + l.Y/100*c.H,
		W: l.W / 100 * c.W,
		H: l.H / 100 * c.H,
	}
}

// ToPercent maps a page pixel rectangle back to a percent layout. A degenerate content
// area yields a zero layout rather than NaN.
func ToPercent(r Rect, pageW, pageH, margin float64) domain.Layout {
	c := ContentArea(pageW, pageH, margin)
	if c.W <= 0 || c.H <= 0 {
		return domain.Layout{}
	}
	return domain.Layout{
		X: (r.X - c.X) / c.W * 100,
		Y: (r.Y - c.Y) / c.H * 100,
		W: r.W / c.W * 100,
		H: r.H / c.H * 100,
	}
}

// FallbackLayout places a panel without a stored layout on a two-column grid by its
// position in the page.
func FallbackLayout(index int) domain.Layout {
	const rowH = 100.0 / 3
	return domain.Layout{
		X: float64(index%2) * 50,
		Y: float64(index/2) * rowH,
		W: 50,
		H: rowH,
	}
}

// PanelLayout returns the stored layout of a panel, or the grid fallback for its
// position in the page when nothing usable was stored.
func PanelLayout(p domain.Panel, index int) domain.Layout {
	if p.Layout.Valid() {
		return p.Layout
	}
	return FallbackLayout(index)
}

// ScaleAbout returns r scaled by sx,sy keeping the top-left corner fixed, which is how
// the canvas applies transient handle scaling before it is baked into the size.
func ScaleAbout(r Rect, sx, sy float64) Rect {
	return Rect{X: r.X, Y: r.Y, W: r.W * math.Abs(sx), H: r.H * math.Abs(sy)}
}

// NearlyEqual compares two layouts within eps on every component.
func NearlyEqual(a, b domain.Layout, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.W-b.W) <= eps && math.Abs(a.H-b.H) <= eps
}
