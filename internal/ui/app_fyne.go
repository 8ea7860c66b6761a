//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"gocomiclayout/internal/domain"
	"gocomiclayout/internal/editor"
	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/scene"
	"gocomiclayout/internal/selection"
	"gocomiclayout/internal/vector"
	"gocomiclayout/internal/version"
)

// Run opens the layout editor for projectID and blocks until the window is closed.
// opts.OnChange, if set, is still called after the window has been updated.
func Run(ctx context.Context, store editor.Persistence, projectID string, opts editor.Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("project", projectID))

	fyneApp := app.NewWithID("gocomiclayout")
	w := fyneApp.NewWindow("Go Comic Layout " + version.String())
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback("window.width", 1280), 800)),
		float32(max(prefs.IntWithFallback("window.height", 860), 600)),
	))

	status := widget.NewLabel("Loading…")
	pageLabel := widget.NewLabel("Page 1")
	pc := NewPageCanvas()

	var sess *editor.Session
	var apply func(editor.State)
	userOnChange := opts.OnChange
	opts.OnChange = func(st editor.State) {
		fyne.Do(func() { apply(st) })
		if userOnChange != nil {
			userOnChange(st)
		}
	}
	sess = editor.New(store, projectID, opts)
	pc.sess = sess
	pc.log = l

	// Side form for the selected panel or balloon.
	prompt := widget.NewMultiLineEntry()
	prompt.SetPlaceHolder("Prompt")
	sceneDesc := widget.NewMultiLineEntry()
	sceneDesc.SetPlaceHolder("Scene description")
	style := widget.NewEntry()
	style.SetPlaceHolder("Panel style")
	balloonText := widget.NewMultiLineEntry()
	balloonText.SetPlaceHolder("Balloon text")
	balloonType := widget.NewSelect([]string{
		string(domain.BalloonDialogue), string(domain.BalloonNarration), string(domain.BalloonThought),
	}, nil)
	instructions := widget.NewEntry()
	instructions.SetPlaceHolder("Regeneration instructions")
	useBase := widget.NewCheck("Use current image as base", nil)

	report := func(op string, err error) {
		if err == nil {
			return
		}
		l.Warn("ui action failed", slog.String("op", op), slog.Any("err", err))
		dialog.ShowError(err, w)
	}

	savePanel := widget.NewButton("Save panel", func() {
		id, ok := selection.PanelID(sess.State().Selection)
		if !ok {
			return
		}
		p, d, s := prompt.Text, sceneDesc.Text, style.Text
		report("save panel", sess.SavePanelEdits(id, editor.PanelEdits{Prompt: &p, SceneDescription: &d, PanelStyle: &s}))
	})
	addBalloon := widget.NewButton("Add balloon", func() {
		id, ok := selection.PanelID(sess.State().Selection)
		if !ok {
			return
		}
		_, err := sess.AddBalloon(id)
		report("add balloon", err)
	})
	saveBalloon := widget.NewButton("Apply text", func() {
		sel, ok := sess.State().Selection.(selection.Balloon)
		if !ok {
			return
		}
		report("update balloon", sess.UpdateBalloon(sel.PanelID, sel.Index, balloonText.Text, domain.BalloonType(balloonType.Selected)))
	})
	deleteBtn := widget.NewButton("Delete", func() { sess.DeleteSelected() })
	regenBtn := widget.NewButton("Regenerate panel", func() {
		id, ok := selection.PanelID(sess.State().Selection)
		if !ok {
			return
		}
		go func() {
			err := sess.RegeneratePanel(ctx, id, instructions.Text, useBase.Checked)
			fyne.Do(func() { report("regenerate panel", err) })
		}()
	})
	regenMerge := widget.NewButton("Regenerate merge", func() {
		rm, ok := store.(interface {
			RegenerateMerge(ctx context.Context, projectID, instructions string) error
		})
		if !ok {
			return
		}
		go func() {
			err := rm.RegenerateMerge(ctx, projectID, instructions.Text)
			fyne.Do(func() { report("regenerate merge", err) })
		}()
	})

	panelForm := container.NewVBox(
		widget.NewLabelWithStyle("Panel", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prompt, sceneDesc, style, savePanel, addBalloon,
		widget.NewSeparator(),
		instructions, useBase, regenBtn, regenMerge,
	)
	balloonForm := container.NewVBox(
		widget.NewLabelWithStyle("Balloon", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		balloonText, balloonType, saveBalloon,
	)
	sidebar := container.NewVBox(panelForm, balloonForm, widget.NewSeparator(), deleteBtn)

	// Toolbar.
	updatingFormat := false
	formatSel := widget.NewSelect([]string{vector.FormatA4, vector.FormatSquare, vector.FormatWidescreen}, func(f string) {
		if updatingFormat {
			return
		}
		sess.SetPageFormat(f)
	})
	prev := widget.NewButton("◀", func() { sess.SetPage(sess.State().Page - 1) })
	next := widget.NewButton("▶", func() { sess.SetPage(sess.State().Page + 1) })
	generate := widget.NewButton("Generate…", func() { showGenerateDialog(ctx, w, sess, report) })
	view := widget.NewRadioGroup([]string{viewPanels, viewMerged}, func(v string) {
		pc.SetMerged(v == viewMerged)
		if v == viewMerged {
			sidebar.Hide()
		} else {
			sidebar.Show()
		}
	})
	view.Horizontal = true
	view.Required = true
	view.SetSelected(viewPanels)
	toolbar := container.NewHBox(view, widget.NewSeparator(), prev, pageLabel, next, widget.NewSeparator(), formatSel, generate)

	// Form fields are only rewritten when the selected element changes so typing is
	// not interrupted by poll updates.
	var shown selection.Selection = selection.None{}
	apply = func(st editor.State) {
		pc.SetState(st)
		pageLabel.SetText(fmt.Sprintf("Page %d", st.Page))
		updatingFormat = true
		formatSel.SetSelected(st.PageFormat)
		updatingFormat = false
		status.SetText(statusText(st))

		if st.Selection != shown {
			shown = st.Selection
			fillForms(st, prompt, sceneDesc, style, balloonText, balloonType)
		}
		if _, ok := selection.PanelID(st.Selection); ok {
			panelForm.Show()
		} else {
			panelForm.Hide()
		}
		if _, ok := st.Selection.(selection.Balloon); ok {
			balloonForm.Show()
		} else {
			balloonForm.Hide()
		}
	}
	apply(sess.State())

	split := container.NewHSplit(pc, container.NewVScroll(sidebar))
	split.Offset = 0.72
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, split))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if err := sess.Close(); err != nil {
			l.Warn("closing session", slog.Any("err", err))
		}
	})

	go func() {
		if err := sess.Load(ctx); err != nil {
			l.Error("initial load failed", slog.Any("err", err))
			fyne.Do(func() { status.SetText("Load failed: " + err.Error()) })
			return
		}
		if sess.State().Status.Busy() {
			sess.StartPolling()
		}
	}()

	w.ShowAndRun()
	return nil
}

func statusText(st editor.State) string {
	switch {
	case st.Error != "":
		return "Error: " + st.Error
	case st.RegeneratingPanel != 0:
		return fmt.Sprintf("Regenerating panel %d…", st.RegeneratingPanel)
	case st.Loading || st.Generating:
		return "Generating (" + string(st.Status) + ")…"
	}
	parts := []string{st.Project.Name, string(st.Status)}
	if st.Locked {
		parts = append(parts, "saving")
	}
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), " · ")
}

func fillForms(st editor.State, prompt, sceneDesc, style, balloonText *widget.Entry, balloonType *widget.Select) {
	id, ok := selection.PanelID(st.Selection)
	if !ok {
		return
	}
	pn := st.Project.FindPanel(id)
	if pn == nil {
		return
	}
	prompt.SetText(pn.Prompt)
	sceneDesc.SetText(pn.SceneDescription)
	style.SetText(pn.PanelStyle)
	if i, ok := selection.BalloonOf(st.Selection, id); ok && i < len(pn.Balloons) {
		balloonText.SetText(pn.Balloons[i].Text)
		balloonType.SetSelected(string(pn.Balloons[i].Type))
	}
}

func showGenerateDialog(ctx context.Context, w fyne.Window, sess *editor.Session, report func(string, error)) {
	st := sess.State()
	maxPages := widget.NewEntry()
	maxPages.SetText(strconv.Itoa(max(st.Project.MaxPages, 1)))
	maxPanels := widget.NewEntry()
	maxPanels.SetText(strconv.Itoa(max(st.Project.MaxPanels, 1)))
	perPage := widget.NewEntry()
	perPage.SetText(strconv.Itoa(st.Project.MaxPanelsPerPage))
	layoutStyle := widget.NewSelect([]string{"dynamic", "grid", "vertical"}, nil)
	layoutStyle.SetSelected(cmpOr(st.Project.LayoutStyle, "dynamic"))
	planOnly := widget.NewCheck("", nil)
	skipAgent := widget.NewCheck("", nil)
	skipCleaning := widget.NewCheck("", nil)

	items := []*widget.FormItem{
		widget.NewFormItem("Max pages", maxPages),
		widget.NewFormItem("Max panels", maxPanels),
		widget.NewFormItem("Panels per page", perPage),
		widget.NewFormItem("Layout", layoutStyle),
		widget.NewFormItem("Plan only", planOnly),
		widget.NewFormItem("Keep settings only", skipAgent),
		widget.NewFormItem("Keep existing panels", skipCleaning),
	}
	dialog.ShowForm("Generate", "Start", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		set := editor.GenerateSettings{
			MaxPages:         atoi(maxPages.Text),
			MaxPanels:        atoi(maxPanels.Text),
			MaxPanelsPerPage: atoi(perPage.Text),
			LayoutStyle:      layoutStyle.Selected,
			PlanOnly:         planOnly.Checked,
			SkipAgent:        skipAgent.Checked,
			SkipCleaning:     skipCleaning.Checked,
		}
		go func() {
			err := sess.Generate(ctx, set)
			fyne.Do(func() { report("generate", err) })
		}()
	}, w)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func cmpOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// PageCanvas draws the current page of a session and turns taps, drags and key presses
// into session calls. The wheel zooms; dragging the background pans.
type PageCanvas struct {
	widget.BaseWidget

	sess *editor.Session
	log  *slog.Logger

	zoom    float32
	offsetX float32
	offsetY float32

	st    editor.State
	items []scene.Item
	// merged shows the server's merged page art instead of the editable panels.
	merged bool

	drag *dragState
}

// View modes of the toolbar toggle.
const (
	viewPanels = "Panels"
	viewMerged = "Merged"
)

type dragMode int

const (
	dragPan dragMode = iota
	dragMove
	dragResize
)

// dragState is the gesture in progress. The model is only touched on DragEnd; until
// then the dragged items are drawn at their preview position.
type dragState struct {
	mode  dragMode
	key   scene.Key
	start vector.Pt
	delta vector.Pt
	// frame is the rectangle a resize handle belongs to, as drawn when the drag began.
	frame vector.Rect
}

// resized is the frame with the current handle offset applied.
func (d *dragState) resized() vector.Rect {
	r := d.frame
	r.W = max(r.W+d.delta.X, 1)
	r.H = max(r.H+d.delta.Y, 1)
	return r
}

func NewPageCanvas() *PageCanvas {
	pc := &PageCanvas{
		zoom: 0.6,
		st:   editor.State{PageSize: vector.PageSize(vector.FormatA4), Selection: selection.None{}},
		log:  applog.WithComponent("ui"),
	}
	pc.ExtendBaseWidget(pc)
	return pc
}

// SetState replaces the displayed state and rebuilds the display list.
func (p *PageCanvas) SetState(st editor.State) {
	p.st = st
	p.rebuild()
	p.Refresh()
}

// SetMerged switches between the editable panel view and the merged page art, which is
// read-only.
func (p *PageCanvas) SetMerged(on bool) {
	if p.merged == on {
		return
	}
	p.merged = on
	p.drag = nil
	p.rebuild()
	p.Refresh()
}

func (p *PageCanvas) rebuild() {
	if p.merged {
		p.items = scene.BuildMerged(p.st.CurrentPage(), p.st.PageSize.W, p.st.PageSize.H)
		return
	}
	sel := p.st.Selection
	if sel == nil {
		sel = selection.None{}
	}
	p.items = scene.Build(p.st.CurrentPage(), p.st.PageSize.W, p.st.PageSize.H, vector.Margin, sel)
}

// preview returns the display list with the current drag applied.
func (p *PageCanvas) preview() []scene.Item {
	d := p.drag
	if d == nil || d.mode == dragPan {
		return p.items
	}
	out := make([]scene.Item, len(p.items))
	copy(out, p.items)
	var grown vector.Rect
	if d.mode == dragResize {
		grown = d.resized()
	}
	for i := range out {
		k := out[i].Key
		switch {
		case d.mode == dragMove && d.key.Kind == scene.KindPanel && k.PanelID == d.key.PanelID:
			out[i].Rect = out[i].Rect.Translate(d.delta.X, d.delta.Y)
		case d.mode == dragMove && k.PanelID == d.key.PanelID && k.Balloon == d.key.Balloon &&
			(k.Kind == scene.KindBalloon || k.Kind == scene.KindBalloonHandle):
			out[i].Rect = out[i].Rect.Translate(d.delta.X, d.delta.Y)
		case d.mode == dragResize && k == d.key:
			// the handle stays on the corner even when the frame stops at 1px
			out[i].Rect = out[i].Rect.Translate(grown.W-d.frame.W, grown.H-d.frame.H)
		case d.mode == dragResize && k == frameKey(d.key) && out[i].Shape != scene.ShapeText:
			out[i].Rect.W, out[i].Rect.H = grown.W, grown.H
		}
	}
	return out
}

// frameKey maps a handle to the element it resizes.
func frameKey(k scene.Key) scene.Key {
	switch k.Kind {
	case scene.KindPanelHandle:
		return scene.Key{Kind: scene.KindPanel, PanelID: k.PanelID}
	case scene.KindBalloonHandle:
		return scene.Key{Kind: scene.KindBalloon, PanelID: k.PanelID, Balloon: k.Balloon}
	}
	return k
}

func (p *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &pageCanvasRenderer{
		pc:     p,
		bg:     canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255}),
		page:   canvas.NewRectangle(color.White),
		images: map[string]*canvas.Image{},
	}
	r.Layout(p.Size())
	return r
}

func (p *PageCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

// Coordinate helpers: page <-> screen mapping.
func (p *PageCanvas) pageOriginAndScale() (cx, cy, scale float32) {
	size := p.Size()
	cx = size.Width/2 - float32(p.st.PageSize.W)*p.zoom/2 + p.offsetX
	cy = size.Height/2 - float32(p.st.PageSize.H)*p.zoom/2 + p.offsetY
	return cx, cy, p.zoom
}

func (p *PageCanvas) toScreen(pt vector.Pt) fyne.Position {
	cx, cy, s := p.pageOriginAndScale()
	return fyne.NewPos(cx+float32(pt.X)*s, cy+float32(pt.Y)*s)
}

func (p *PageCanvas) toPage(pos fyne.Position) vector.Pt {
	cx, cy, s := p.pageOriginAndScale()
	return vector.Pt{X: float64((pos.X - cx) / s), Y: float64((pos.Y - cy) / s)}
}

func (p *PageCanvas) Tapped(e *fyne.PointEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(p); c != nil {
		c.Focus(p)
	}
	if p.sess == nil || p.merged {
		return
	}
	key, ok := scene.HitTest(p.items, p.toPage(e.Position))
	if !ok {
		p.sess.ClickEmpty()
		return
	}
	var err error
	switch key.Kind {
	case scene.KindPanel, scene.KindPanelHandle:
		err = p.sess.ClickPanel(key.PanelID)
	case scene.KindBalloon, scene.KindBalloonHandle:
		err = p.sess.ClickBalloon(key.PanelID, key.Balloon)
	}
	if err != nil {
		p.log.Warn("select failed", slog.Any("err", err))
	}
}

func (p *PageCanvas) Dragged(e *fyne.DragEvent) {
	if p.drag == nil {
		startPos := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		start := p.toPage(startPos)
		d := &dragState{mode: dragPan, start: start}
		if key, ok := scene.HitTest(p.items, start); ok && !p.merged {
			d.key = key
			switch key.Kind {
			case scene.KindPanel, scene.KindBalloon:
				d.mode = dragMove
			default:
				d.mode = dragResize
				if r, ok := scene.Bounds(p.items, frameKey(key)); ok {
					d.frame = r
				} else {
					d.mode = dragPan
				}
			}
		}
		p.drag = d
	}
	if p.drag.mode == dragPan {
		p.offsetX += e.Dragged.DX
		p.offsetY += e.Dragged.DY
	} else {
		cur := p.toPage(e.Position)
		p.drag.delta = vector.Pt{X: cur.X - p.drag.start.X, Y: cur.Y - p.drag.start.Y}
	}
	p.Refresh()
}

// DragEnd commits the gesture through the session. Invalid resizes snap back because
// the next state rebuilds the display list from the model.
func (p *PageCanvas) DragEnd() {
	d := p.drag
	p.drag = nil
	if d == nil || d.mode == dragPan || p.sess == nil {
		p.Refresh()
		return
	}
	if err := p.commitDrag(d); err != nil {
		p.log.Warn("drag failed", slog.String("target", d.key.Kind.String()), slog.Any("err", err))
	}
	p.Refresh()
}

func (p *PageCanvas) commitDrag(d *dragState) error {
	k := d.key
	switch k.Kind {
	case scene.KindPanel:
		r, err := p.sess.PanelRect(k.PanelID)
		if err != nil {
			return err
		}
		return p.sess.MovePanel(k.PanelID, vector.Pt{X: r.X + d.delta.X, Y: r.Y + d.delta.Y})
	case scene.KindPanelHandle:
		r, err := p.sess.PanelRect(k.PanelID)
		if err != nil {
			return err
		}
		_, err = p.sess.TransformPanel(k.PanelID, editor.PanelTransform{
			X: r.X, Y: r.Y, Width: r.W, Height: r.H,
			ScaleX: (r.W + d.delta.X) / r.W,
			ScaleY: (r.H + d.delta.Y) / r.H,
		})
		return err
	case scene.KindBalloon:
		box, err := p.sess.BalloonBox(k.PanelID, k.Balloon)
		if err != nil {
			return err
		}
		return p.sess.MoveBalloon(k.PanelID, k.Balloon, box.X+d.delta.X, box.Y+d.delta.Y)
	case scene.KindBalloonHandle:
		box, err := p.sess.BalloonBox(k.PanelID, k.Balloon)
		if err != nil {
			return err
		}
		rest := box.HandleRest()
		_, _, err = p.sess.ResizeBalloon(k.PanelID, k.Balloon, rest.X+d.delta.X, rest.Y+d.delta.Y)
		return err
	}
	return nil
}

// Scrolled zooms the page.
func (p *PageCanvas) Scrolled(e *fyne.ScrollEvent) {
	p.zoom = min(max(p.zoom+e.Scrolled.DY*0.05, 0.1), 4)
	p.Refresh()
}

func (p *PageCanvas) FocusGained() {}
func (p *PageCanvas) FocusLost()   {}
func (p *PageCanvas) TypedRune(rune) {}

// TypedKey only sees keys while the canvas has focus; text entries keep theirs.
func (p *PageCanvas) TypedKey(ev *fyne.KeyEvent) {
	if p.sess != nil {
		p.sess.HandleKey(string(ev.Name), editor.FocusCanvas)
	}
}

// pageCanvasRenderer re-creates the scene objects on every refresh and keeps image
// objects cached by URL so artwork is not reloaded.
type pageCanvasRenderer struct {
	pc       *PageCanvas
	bg, page *canvas.Rectangle
	objects  []fyne.CanvasObject
	images   map[string]*canvas.Image
}

func (r *pageCanvasRenderer) Destroy()                     {}
func (r *pageCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *pageCanvasRenderer) MinSize() fyne.Size           { return r.pc.PreferredSize() }
func (r *pageCanvasRenderer) Refresh()                     { r.Layout(r.pc.Size()); canvas.Refresh(r.pc) }

func (r *pageCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	pc := r.pc
	r.page.Move(pc.toScreen(vector.Pt{}))
	r.page.Resize(fyne.NewSize(float32(pc.st.PageSize.W)*pc.zoom, float32(pc.st.PageSize.H)*pc.zoom))

	d := &fyneDrawer{r: r, objs: []fyne.CanvasObject{r.bg, r.page}}
	scene.Render(d, pc.preview())
	r.objects = d.objs
}

// fyneDrawer implements scene.Renderer with fyne canvas objects.
type fyneDrawer struct {
	r    *pageCanvasRenderer
	objs []fyne.CanvasObject
}

func (d *fyneDrawer) place(o fyne.CanvasObject, rc vector.Rect) {
	z := d.r.pc.zoom
	o.Move(d.r.pc.toScreen(rc.Min()))
	o.Resize(fyne.NewSize(float32(rc.W)*z, float32(rc.H)*z))
	d.objs = append(d.objs, o)
}

func (d *fyneDrawer) DrawImage(url string, rc vector.Rect) {
	img, ok := d.r.images[url]
	if !ok {
		uri, err := fstorage.ParseURI(url)
		if err != nil {
			d.DrawRect(rc, 0, vector.Solid(vector.Placeholder), vector.Stroke{})
			return
		}
		img = canvas.NewImageFromURI(uri)
		img.FillMode = canvas.ImageFillStretch
		d.r.images[url] = img
	}
	d.place(img, rc)
}

func (d *fyneDrawer) DrawRect(rc vector.Rect, radius float64, fill vector.Fill, stroke vector.Stroke) {
	z := d.r.pc.zoom
	rect := canvas.NewRectangle(color.Transparent)
	if fill.Enabled {
		rect.FillColor = fill.Color.NRGBA()
	}
	if stroke.Enabled {
		sc := stroke.Color.NRGBA()
		if stroke.Dashed {
			sc.A /= 2
		}
		rect.StrokeColor = sc
		rect.StrokeWidth = float32(stroke.Width) * z
	}
	rect.CornerRadius = float32(radius) * z
	d.place(rect, rc)
}

func (d *fyneDrawer) DrawText(text string, rc vector.Rect, size float64, c vector.Color, centered bool) {
	t := canvas.NewText(text, c.NRGBA())
	t.TextSize = float32(size) * d.r.pc.zoom
	if centered {
		t.Alignment = fyne.TextAlignCenter
	}
	d.place(t, rc)
}
