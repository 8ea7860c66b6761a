/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gocomiclayout/internal/backend"
	"gocomiclayout/internal/config"
	"gocomiclayout/internal/crash"
	"gocomiclayout/internal/editor"
	"gocomiclayout/internal/export"
	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/reconcile"
	"gocomiclayout/internal/storage"
	"gocomiclayout/internal/ui"
	"gocomiclayout/internal/vector"
	"gocomiclayout/internal/version"
)

func usage() {
	fmt.Println("Go Comic Layout: panel and balloon layout editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gocomiclayout version|-v|--version              Show version")
	fmt.Println("  gocomiclayout login <token> [url]               Store the backend token (and server URL)")
	fmt.Println("  gocomiclayout logout                            Remove the stored backend token")
	fmt.Println("  gocomiclayout projects                          List projects")
	fmt.Println("  gocomiclayout show <project>                    Print pages, panels and balloons in page pixels")
	fmt.Println("  gocomiclayout watch <project>                   Follow a running generation until it ends")
	fmt.Println("  gocomiclayout generate <project> [plan]         Start a generation and follow it")
	fmt.Println("  gocomiclayout move <project> <panel> <x> <y>    Move a panel's top-left corner to x,y (page pixels)")
	fmt.Println("  gocomiclayout journal <project> [failed]        Show recent local edits")
	fmt.Println("  gocomiclayout export <project> <page> <file>    Write a draft preview of a page (.svg or .png)")
	fmt.Println("  gocomiclayout ui <project>                      Launch the editor (build with -tags fyne)")
}

// app bundles what every command needs.
type app struct {
	cfg     config.AppConfig
	client  *backend.Client
	journal *storage.Journal
	log     *slog.Logger
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	args := os.Args
	scope := crash.Scope{}
	if len(args) > 2 {
		scope.ProjectID = args[2]
	}
	if dir, err := storage.DefaultDir(); err == nil {
		scope.StateDir = dir
	}
	defer crash.Recover(scope)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Go Comic Layout")
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	case "login":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		url := ""
		if len(args) > 3 {
			url = args[3]
		}
		if err := config.Login(url, args[2]); err != nil {
			fail(l, "login", err)
		}
		fmt.Println("Token stored.")
		return
	case "logout":
		if err := config.ClearToken(); err != nil {
			fail(l, "logout", err)
		}
		fmt.Println("Token removed.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := setup()
	if err != nil {
		fail(l, "setup", err)
	}
	defer a.close()

	need := func(n int, what string) {
		if len(args) < n {
			fmt.Println(args[1], "requires", what)
			usage()
			os.Exit(2)
		}
	}

	switch args[1] {
	case "projects":
		err = a.projects(ctx)
	case "show":
		need(3, "<project>")
		err = a.show(ctx, args[2])
	case "watch":
		need(3, "<project>")
		err = a.watch(ctx, args[2])
	case "generate":
		need(3, "<project>")
		err = a.generate(ctx, args[2], len(args) > 3 && args[3] == "plan")
	case "move":
		need(6, "<project> <panel> <x> <y>")
		var mv moveArgs
		if mv, err = parseMoveArgs(args[3:6]); err == nil {
			err = a.move(ctx, args[2], mv)
		}
	case "journal":
		need(3, "<project>")
		err = a.printJournal(ctx, args[2], len(args) > 3 && args[3] == "failed")
	case "export":
		need(5, "<project> <page> <file>")
		err = a.exportPage(ctx, args[2], args[3], args[4])
	case "ui":
		need(3, "<project>")
		err = ui.Run(ctx, a.client, args[2], a.sessionOptions(nil))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		a.close()
		fail(l, args[1], err)
	}
}

func fail(l *slog.Logger, op string, err error) {
	l.Error("command failed", slog.String("op", op), slog.Any("err", err))
	fmt.Println(explain(err))
	os.Exit(1)
}

// explain turns a command error into the message shown to the user.
func explain(err error) string {
	msg := "Error: " + err.Error()
	if backend.IsNotFound(err) {
		msg += "\nThe server does not know this project or panel; 'gocomiclayout projects' lists what exists."
	}
	return msg
}

func setup() (*app, error) {
	cfg, token, err := config.Load()
	if err != nil {
		return nil, err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	a := &app{cfg: cfg, log: applog.WithComponent("cli")}

	opts := backend.Options{Timeout: cfg.Backend.Timeout(), RatePerSecond: cfg.Backend.RatePerSecond}
	if cfg.Backend.TLSInsecure {
		a.log.Warn("TLS verification disabled for backend")
		opts.HTTPClient = &http.Client{
			Timeout:   cfg.Backend.Timeout(),
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}, //nolint:gosec // opt-in
		}
	}
	a.client = backend.NewClient(cfg.Backend.BaseURL, token, opts)

	if !cfg.Editor.DisableJournal {
		dir, err := storage.DefaultDir()
		if err == nil {
			a.journal, err = storage.OpenJournal(dir)
		}
		if err != nil {
			// The editor works without a journal; failures are still logged.
			a.log.Warn("edit journal unavailable", slog.Any("err", err))
			a.journal = nil
		}
	}
	return a, nil
}

func (a *app) close() {
	if a == nil || a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warn("closing journal", slog.Any("err", err))
	}
	a.journal = nil
}

func (a *app) sessionOptions(onPoll func(reconcile.Outcome)) editor.Options {
	d := a.cfg.Editor.Durations()
	opts := editor.Options{
		PageFormat:    a.cfg.Editor.PageFormat,
		LayoutSettle:  d.LayoutSettle,
		BalloonSettle: d.BalloonSettle,
		PollInterval:  d.PollInterval,
		MaxRetries:    a.cfg.Editor.MaxCompletionRetries,
		OnPoll:        onPoll,
	}
	if a.journal != nil {
		opts.Journal = a.journal
	}
	return opts
}

func (a *app) projects(ctx context.Context) error {
	list, err := a.client.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range list {
		fmt.Printf("%s  %-10s  %s\n", p.ID, statusLabel(p.Status), p.Name)
	}
	return nil
}

func (a *app) show(ctx context.Context, projectID string) error {
	p, err := a.client.FetchProject(ctx, projectID)
	if err != nil {
		return err
	}
	format := vector.CanonicalFormat(a.cfg.Editor.PageFormat)
	size := vector.PageSize(format)
	fmt.Printf("%s (%s)\n", headingStyle.Render(p.Name), statusLabel(p.Status))
	if p.LastError != "" {
		fmt.Println(errorStyle.Render("Last error:"), p.LastError)
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Format: %s %.0fx%.0f, %d page(s), %d panel(s)", format, size.W, size.H, len(p.Pages), p.CountPanels())))
	for _, pg := range p.Pages {
		fmt.Println(pageStyle.Render(fmt.Sprintf("Page %d", pg.PageNumber)))
		if pg.MergedImageURL != "" {
			fmt.Println(mutedStyle.Render("  merged art: " + pg.MergedImageURL))
		}
		for i, pn := range pg.Panels {
			r := vector.ToPixels(vector.PanelLayout(pn, i), size.W, size.H, vector.Margin)
			fmt.Printf("  panel %d  x=%.1f y=%.1f w=%.1f h=%.1f", pn.ID, r.X, r.Y, r.W, r.H)
			if pn.ImageURL == "" {
				fmt.Print(mutedStyle.Render("  (no image)"))
			}
			fmt.Println()
			for j, b := range pn.Balloons {
				box := vector.ResolvePosition(b, j, r.W, r.H)
				fmt.Printf("    balloon %d %-9s x=%.1f y=%.1f w=%.1f h=%.1f\n", j, b.Type, box.X, box.Y, box.Width, box.Height)
				if txt := wrapIndented(b.Text, balloonWrap, "      "); txt != "" {
					fmt.Println(txt)
				}
			}
		}
	}
	return nil
}

// follow blocks until the session's poll loop reports a terminal outcome or ctx ends.
func (a *app) follow(ctx context.Context, sess *editor.Session, done <-chan reconcile.Outcome) error {
	if !sess.State().Polling {
		return a.report(sess)
	}
	select {
	case <-done:
		return a.report(sess)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) report(sess *editor.Session) error {
	st := sess.State()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	fmt.Printf("Status: %s, %d page(s), %d panel(s)\n", st.Status, len(st.Project.Pages), st.Project.CountPanels())
	return nil
}

func (a *app) openSession(ctx context.Context, projectID string) (*editor.Session, <-chan reconcile.Outcome, error) {
	done := make(chan reconcile.Outcome, 1)
	sess := editor.New(a.client, projectID, a.sessionOptions(func(o reconcile.Outcome) {
		if o != reconcile.OutcomeSkipped {
			fmt.Println("poll:", o)
		}
		if o.Terminal() {
			select {
			case done <- o:
			default:
			}
		}
	}))
	if err := sess.Load(ctx); err != nil {
		_ = sess.Close()
		return nil, nil, err
	}
	return sess, done, nil
}

func (a *app) watch(ctx context.Context, projectID string) error {
	sess, done, err := a.openSession(ctx, projectID)
	if err != nil {
		return err
	}
	defer sess.Close()
	if !sess.State().Status.Busy() {
		return a.report(sess)
	}
	sess.StartPolling()
	return a.follow(ctx, sess, done)
}

func (a *app) generate(ctx context.Context, projectID string, planOnly bool) error {
	sess, done, err := a.openSession(ctx, projectID)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.Generate(ctx, editor.GenerateSettings{PlanOnly: planOnly}); err != nil {
		return err
	}
	return a.follow(ctx, sess, done)
}

type moveArgs struct {
	panelID int64
	to      vector.Pt
}

func parseMoveArgs(args []string) (moveArgs, error) {
	if len(args) != 3 {
		return moveArgs{}, fmt.Errorf("expected <panel> <x> <y>, got %d argument(s)", len(args))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return moveArgs{}, fmt.Errorf("panel id %q: %w", args[0], err)
	}
	x, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return moveArgs{}, fmt.Errorf("x %q: %w", args[1], err)
	}
	y, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return moveArgs{}, fmt.Errorf("y %q: %w", args[2], err)
	}
	return moveArgs{panelID: id, to: vector.Pt{X: x, Y: y}}, nil
}

func (a *app) move(ctx context.Context, projectID string, mv moveArgs) error {
	sess, _, err := a.openSession(ctx, projectID)
	if err != nil {
		return err
	}
	if err := sess.MovePanel(mv.panelID, mv.to); err != nil {
		_ = sess.Close()
		return err
	}
	sess.Flush()
	r, err := sess.PanelRect(mv.panelID)
	if err != nil {
		_ = sess.Close()
		return err
	}
	fmt.Println(moveSummary(sess.State(), mv.panelID, r))
	if err := sess.Close(); err != nil {
		return err
	}
	if a.journal != nil {
		if recs, err := a.journal.Recent(ctx, projectID, 1); err == nil && len(recs) == 1 && recs[0].Outcome == storage.OutcomeFailed {
			return fmt.Errorf("saving layout failed: %s", recs[0].Error)
		}
	}
	return nil
}

// moveSummary describes where a moved panel ended up, in pixels and stored percent.
func moveSummary(st editor.State, panelID int64, r vector.Rect) string {
	out := fmt.Sprintf("panel %d now at x=%.1f y=%.1f w=%.1f h=%.1f", panelID, r.X, r.Y, r.W, r.H)
	if pn := st.Project.FindPanel(panelID); pn != nil {
		out += fmt.Sprintf("  (layout %.2f%% %.2f%% %.2f%% %.2f%%)", pn.Layout.X, pn.Layout.Y, pn.Layout.W, pn.Layout.H)
	}
	return out
}

func (a *app) printJournal(ctx context.Context, projectID string, failedOnly bool) error {
	if a.journal == nil {
		return errors.New("edit journal is disabled")
	}
	get := a.journal.Recent
	if failedOnly {
		get = a.journal.Failures
	}
	recs, err := get(ctx, projectID, 50)
	if err != nil {
		return err
	}
	for _, r := range recs {
		line := fmt.Sprintf("%s  #%d  %-6s panel=%d  %-7s %s", r.At.Local().Format(time.DateTime), r.ID, r.Kind, r.PanelID, r.Outcome, r.Payload)
		if r.Error != "" {
			line += "  " + errorStyle.Render("error: "+r.Error)
		}
		fmt.Println(line)
	}
	if len(recs) == 0 {
		fmt.Println("No journal entries.")
	}
	return nil
}

func (a *app) exportPage(ctx context.Context, projectID, pageArg, path string) error {
	n, err := strconv.Atoi(pageArg)
	if err != nil {
		return fmt.Errorf("page %q: %w", pageArg, err)
	}
	f, err := export.FormatFor(path)
	if err != nil {
		return err
	}
	p, err := a.client.FetchProject(ctx, projectID)
	if err != nil {
		return err
	}
	opt := export.Options{PageFormat: a.cfg.Editor.PageFormat}
	gen := func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := export.Page(&buf, f, p, n, opt); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var data []byte
	if a.journal != nil {
		key := storage.PreviewKey{ProjectID: projectID, PageNumber: n, Format: string(f), Digest: export.Digest(p, n, f, opt)}
		data, err = a.journal.GetOrCreatePreview(ctx, key, gen)
	} else {
		data, err = gen(ctx)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote page %d to %s\n", n, path)
	return nil
}

// Compile-time check that the HTTP client satisfies the editor's persistence needs.
var _ editor.Persistence = (*backend.Client)(nil)
