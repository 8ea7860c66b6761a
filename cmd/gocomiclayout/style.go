/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"gocomiclayout/internal/domain"
)

// Terminal styling for the listing commands. lipgloss drops colors on its own when
// stdout is not a terminal, so piped output stays plain.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	pageStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
)

// balloonWrap is the column at which balloon text is wrapped in listings.
const balloonWrap = 60

func statusLabel(s domain.Status) string {
	switch {
	case s == domain.StatusFailed:
		return errorStyle.Render(string(s))
	case s == domain.StatusCompleted:
		return okStyle.Render(string(s))
	case s.Busy():
		return busyStyle.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}

// wrapIndented word-wraps text at width and prefixes every line with indent.
func wrapIndented(text string, width int, indent string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	lines := strings.Split(wordwrap.String(text, width), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
