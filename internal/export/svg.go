/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"gocomiclayout/internal/scene"
	"gocomiclayout/internal/vector"
)

// svgRenderer implements scene.Renderer by emitting SVG elements. Artwork is linked,
// not embedded.
type svgRenderer struct {
	buf  bytes.Buffer
	werr error
}

func (s *svgRenderer) wf(format string, args ...any) {
	if s.werr != nil {
		return
	}
	_, s.werr = fmt.Fprintf(&s.buf, format, args...)
}

func (s *svgRenderer) DrawImage(url string, r vector.Rect) {
	s.wf("  <image href=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\"/>\n", esc(url), r.X, r.Y, r.W, r.H)
}

func (s *svgRenderer) DrawRect(r vector.Rect, radius float64, fill vector.Fill, stroke vector.Stroke) {
	fc := "none"
	if fill.Enabled {
		fc = svgColor(fill.Color)
	}
	s.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"", r.X, r.Y, r.W, r.H)
	if radius > 0 {
		s.wf(" rx=\"%g\" ry=\"%g\"", radius, radius)
	}
	s.wf(" fill=\"%s\"", fc)
	if stroke.Enabled {
		s.wf(" stroke=\"%s\" stroke-width=\"%g\"", svgColor(stroke.Color), stroke.Width)
		if stroke.Dashed {
			s.wf(" stroke-dasharray=\"6 4\"")
		}
	}
	s.wf("/>\n")
}

func (s *svgRenderer) DrawText(text string, r vector.Rect, size float64, c vector.Color, centered bool) {
	// We don't embed fonts here; the font family is a hint only.
	x, anchor := r.X, "start"
	if centered {
		x, anchor = r.X+r.W/2, "middle"
	}
	y := r.Y + size
	if centered {
		y = r.Y + r.H/2 + size/3
	}
	s.wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" text-anchor=\"%s\" fill=\"%s\">%s</text>\n",
		x, y, size, anchor, svgColor(c), esc(text))
}

// WriteSVG writes a standalone SVG document of the page with the given items.
func WriteSVG(w io.Writer, size vector.Size, items []scene.Item) error {
	s := &svgRenderer{}
	s.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	s.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n", size.W, size.H, size.W, size.H)
	s.wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", size.W, size.H)
	scene.Render(s, items)
	s.wf("</svg>\n")
	if s.werr != nil {
		return fmt.Errorf("build svg: %w", s.werr)
	}
	if _, err := w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c vector.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
