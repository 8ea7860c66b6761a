/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Request payloads sent to the persistence service.

// PanelPatch carries the optional panel fields of a partial update. Nil fields are omitted.
type PanelPatch struct {
	Prompt           *string   `json:"prompt,omitempty"`
	SceneDescription *string   `json:"scene_description,omitempty"`
	Balloons         []Balloon `json:"balloons,omitzero"`
	Layout           *Layout   `json:"layout,omitempty"`
	PanelStyle       *string   `json:"panel_style,omitempty"`
}

// PanelSeed describes an existing panel passed back to the generator when the agent
// step is skipped or local panels must survive a regeneration.
type PanelSeed struct {
	ID               int64  `json:"id"`
	PageNumber       int    `json:"page_number"`
	OrderInPage      int    `json:"order_in_page"`
	Layout           Layout `json:"layout"`
	Prompt           string `json:"prompt"`
	SceneDescription string `json:"scene_description"`
}

// GenerationConfig is the body of a generation request.
type GenerationConfig struct {
	MaxPages         int         `json:"max_pages"`
	MaxPanels        int         `json:"max_panels"`
	MaxPanelsPerPage int         `json:"max_panels_per_page"`
	LayoutStyle      string      `json:"layout_style"`
	PlanOnly         bool        `json:"plan_only"`
	PageNumber       int         `json:"page_number,omitempty"`
	Panels           []PanelSeed `json:"panels"`
}

// GenerationResult is the server's answer to a generation request. A completed status
// means the job ran synchronously and the project can be fetched right away.
type GenerationResult struct {
	Status Status `json:"status"`
}

// RegenerateRequest asks the server to re-render a single panel.
type RegenerateRequest struct {
	Prompt           string    `json:"prompt"`
	SceneDescription string    `json:"scene_description"`
	Balloons         []Balloon `json:"balloons"`
	PanelStyle       string    `json:"panel_style,omitempty"`
	Instructions     string    `json:"instructions,omitempty"`
	UseCurrentAsBase bool      `json:"use_current_as_base"`
}

// ProjectSummary is the list projection of a project.
type ProjectSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}
