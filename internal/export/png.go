/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gocomiclayout/internal/scene"
	"gocomiclayout/internal/vector"
)

// artworkTint stands in for panel artwork, which a draft preview does not download.
var artworkTint = color.RGBA{R: 203, G: 213, B: 225, A: 255}

// pngRenderer implements scene.Renderer on an RGBA image. Corners are drawn square and
// text uses a fixed bitmap face.
type pngRenderer struct {
	img   *image.RGBA
	scale float64
}

func (p *pngRenderer) px(r vector.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Round(r.X * p.scale))
	y0 = int(math.Round(r.Y * p.scale))
	x1 = int(math.Round((r.X+r.W)*p.scale)) - 1
	y1 = int(math.Round((r.Y+r.H)*p.scale)) - 1
	return
}

func (p *pngRenderer) DrawImage(_ string, r vector.Rect) {
	x0, y0, x1, y1 := p.px(r)
	fillRect(p.img, x0, y0, x1, y1, artworkTint)
}

func (p *pngRenderer) DrawRect(r vector.Rect, _ float64, fill vector.Fill, stroke vector.Stroke) {
	x0, y0, x1, y1 := p.px(r)
	if fill.Enabled {
		fillRect(p.img, x0, y0, x1, y1, toRGBA(fill.Color))
	}
	if stroke.Enabled {
		w := max(int(math.Round(stroke.Width*p.scale)), 1)
		for i := 0; i < w; i++ {
			strokeRect(p.img, x0+i, y0+i, x1-i, y1-i, toRGBA(stroke.Color))
		}
	}
}

func (p *pngRenderer) DrawText(text string, r vector.Rect, _ float64, c vector.Color, centered bool) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: p.img, Src: image.NewUniform(toRGBA(c)), Face: face}
	x0, y0, x1, y1 := p.px(r)
	x := x0
	y := y0 + face.Ascent
	if centered {
		x = x0 + ((x1-x0)-d.MeasureString(text).Round())/2
		y = y0 + (y1-y0)/2 + face.Ascent/2
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

// WritePNG rasterizes the page with the given items. scale <= 0 means 1.
func WritePNG(w io.Writer, size vector.Size, items []scene.Item, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	pixW := int(math.Round(size.W * scale))
	pixH := int(math.Round(size.H * scale))
	if pixW <= 0 || pixH <= 0 {
		return fmt.Errorf("empty page size %gx%g", size.W, size.H)
	}
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	// Background white
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	scene.Render(&pngRenderer{img: img, scale: scale}, items)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func toRGBA(c vector.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 || y1 < y0 {
		return
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// fillRect fills the inclusive rectangle, clipped to the image.
func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1).Intersect(img.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Over)
}
