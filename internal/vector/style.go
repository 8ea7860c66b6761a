/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "image/color"

// Paint definitions shared by the scene builder and the canvas adapters.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}

	// Accent marks the current selection.
	Accent = Color{0, 170, 255, 255}
	// Placeholder fills panels whose artwork is not rendered yet.
	Placeholder = Color{229, 231, 235, 255}
	// Muted is used for secondary labels.
	Muted = Color{107, 114, 128, 255}
	// Caption fills narration boxes.
	Caption = Color{255, 249, 196, 255}
)

// NRGBA converts c for use with image/color based toolkits.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

type Fill struct {
	Color   Color
	Enabled bool
}

// Solid returns an enabled fill of the given color.
func Solid(c Color) Fill { return Fill{Color: c, Enabled: true} }

type Stroke struct {
	Color   Color
	Width   float64
	Dashed  bool
	Enabled bool
}

// Line returns an enabled solid stroke.
func Line(c Color, width float64) Stroke { return Stroke{Color: c, Width: width, Enabled: true} }
