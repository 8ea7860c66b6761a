/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes draft previews of a page as SVG or PNG by rendering the same
// display list the editor canvas draws.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/scene"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/vector"
)

// Format is an output file format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// FormatFor picks the format from a file name extension.
func FormatFor(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg":
		return FormatSVG, nil
	case ".png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want .svg or .png)", filepath.Ext(name))
}

// Options controls a page preview. Zero values select A4 at scale 1.
type Options struct {
	PageFormat string
	// Scale multiplies the page pixel size of PNG output.
	Scale float64
}

// Page renders page number n of p to w.
func Page(w io.Writer, f Format, p domain.Project, n int, opt Options) error {
	pg := p.Page(n)
	if pg == nil {
		return fmt.Errorf("project %s has no page %d", p.ID, n)
	}
	size := vector.PageSize(opt.PageFormat)
	items := scene.Build(pg, size.W, size.H, vector.Margin, selection.None{})
	switch f {
	case FormatSVG:
		return WriteSVG(w, size, items)
	case FormatPNG:
		return WritePNG(w, size, items, opt.Scale)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Digest fingerprints everything a rendering of page n depends on, for use as a cache key.
func Digest(p domain.Project, n int, f Format, opt Options) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(struct {
		Page       *domain.Page
		Format     Format
		PageFormat string
		Scale      float64
	}{p.Page(n), f, vector.CanonicalFormat(opt.PageFormat), opt.Scale})
	return hex.EncodeToString(h.Sum(nil))
}
