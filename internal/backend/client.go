/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend is the HTTP client for the comic project service.
//
// Reads return decoded domain values; writes are partial updates keyed by panel id. The
// editor treats every write as fire-and-forget and only logs failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"gocomiclayout/internal/domain"
	applog "gocomiclayout/internal/log"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRate     = 5
	listCacheTTL    = 30 * time.Second
	listCacheKey    = "projects"
	maxErrorBodyLen = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string // "error" field of the response body, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	// RatePerSecond limits mutating requests; a negative value disables limiting.
	RatePerSecond float64
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to the project service under <BaseURL>/api.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	limiter *rate.Limiter
	lists   *cache.Cache
	log     *slog.Logger
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL, token string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		to := opts.Timeout
		if to <= 0 {
			to = defaultTimeout
		}
		hc = &http.Client{Timeout: to}
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	switch {
	case opts.RatePerSecond > 0:
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	case opts.RatePerSecond == 0:
		lim = rate.NewLimiter(rate.Limit(defaultRate), defaultRate)
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("backend")
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  hc,
		limiter: lim,
		lists:   cache.New(listCacheTTL, 2*listCacheTTL),
		log:     l,
	}
}

// do sends a request with an optional JSON body and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit %s %s: %w", method, u.Path, err)
		}
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, u.Path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, u.Path, err)
	}
	c.log.DebugContext(ctx, "request", slog.String("method", method), slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode), slog.String("request_id", reqID), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var env struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLen {
		s = s[:maxErrorBodyLen]
	}
	return s
}

// FetchProject returns the validated server snapshot of a project with pages and panels
// in display order.
func (c *Client) FetchProject(ctx context.Context, projectID string) (domain.Project, error) {
	path := fmt.Sprintf("/api/projects/%s/", url.PathEscape(projectID))
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Project{}, err
	}
	if err := ValidateProject(data); err != nil {
		return domain.Project{}, err
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", projectID, err)
	}
	p.SortPages()
	return p, nil
}

// PatchPanelLayout stores a panel's percent layout.
func (c *Client) PatchPanelLayout(ctx context.Context, panelID int64, l domain.Layout) error {
	body := struct {
		Layout domain.Layout `json:"layout"`
	}{l}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/panels/%d/update-layout/", panelID), body, nil)
}

// PatchPanel applies a partial panel update.
func (c *Client) PatchPanel(ctx context.Context, panelID int64, patch domain.PanelPatch) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/panels/%d/update/", panelID), patch, nil)
}

// DeletePanel removes a panel and its balloons.
func (c *Client) DeletePanel(ctx context.Context, panelID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/panels/%d/", panelID), nil, nil)
}

// StartGeneration submits a generation job.
func (c *Client) StartGeneration(ctx context.Context, projectID string, cfg domain.GenerationConfig) (domain.GenerationResult, error) {
	var res domain.GenerationResult
	path := fmt.Sprintf("/api/projects/%s/generate/", url.PathEscape(projectID))
	if err := c.doJSON(ctx, http.MethodPost, path, cfg, &res); err != nil {
		return domain.GenerationResult{}, err
	}
	c.lists.Delete(listCacheKey)
	return res, nil
}

// RegeneratePanel asks the server to re-render a single panel.
func (c *Client) RegeneratePanel(ctx context.Context, panelID int64, req domain.RegenerateRequest) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/panels/%d/regenerate/", panelID), req, nil)
}

// RegenerateMerge re-composes the merged page images of a project.
func (c *Client) RegenerateMerge(ctx context.Context, projectID, instructions string) error {
	body := struct {
		Instructions string `json:"instructions,omitempty"`
	}{instructions}
	path := fmt.Sprintf("/api/projects/%s/regenerate-merge/", url.PathEscape(projectID))
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return err
	}
	c.lists.Delete(listCacheKey)
	return nil
}

// ListProjects returns the available projects. Results are cached briefly.
func (c *Client) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	if v, ok := c.lists.Get(listCacheKey); ok {
		return append([]domain.ProjectSummary(nil), v.([]domain.ProjectSummary)...), nil
	}
	var list []domain.ProjectSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/", nil, &list); err != nil {
		return nil, err
	}
	c.lists.SetDefault(listCacheKey, list)
	return append([]domain.ProjectSummary(nil), list...), nil
}
