package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/editor"
	"github.com/mongsil1012/opendir/internal/gotopath"
	"github.com/mongsil1012/opendir/internal/handler"
	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
	"github.com/mongsil1012/opendir/internal/vfs"
)

// filePanelScreen is the FilePanel root screen (§4.3): it owns every
// panel's Panel Engine state side by side and dispatches keys against
// the panel at index active. switch_panel advances active and keeps each
// Panel.Active flag in step with it.
type filePanelScreen struct {
	app    *application
	panels []*panel.Panel
	active int
}

func (s *filePanelScreen) current() *panel.Panel {
	return s.panels[s.active]
}

func (s *filePanelScreen) Context() binding.Context {
	return binding.ContextFilePanel
}

func (s *filePanelScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	colWidth := width / len(s.panels)
	for i, p := range s.panels {
		cx0 := x0 + i*colWidth
		cw := colWidth
		if i == len(s.panels)-1 {
			cw = width - i*colWidth
		}
		s.drawPanel(scr, th, p, i == s.active, cx0, y0, cw, height)
	}
}

func (s *filePanelScreen) drawPanel(scr tcell.Screen, th *theme.Theme, p *panel.Panel, active bool, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, p.Path, headerStyle)

	entries := p.Entries()
	cursor := p.Cursor()
	scroll := p.Scroll()

	panelStyle := render.StyleOf(th.Panel)
	if active {
		panelStyle = render.StyleOf(th.PanelActive)
	}
	selectedStyle := render.StyleOf(th.PanelSelected)

	row := y0 + 1
	for i := scroll; i < len(entries) && row < y0+height; i++ {
		e := entries[i]
		st := panelStyle
		if p.Selection.Has(e.Name) {
			st = selectedStyle
		}
		if active && i == cursor {
			st = st.Reverse(true)
		}
		label := e.Name
		if e.IsDir {
			label += "/"
		}
		drawText(scr, x0, row, width, label, st)
		row++
	}

	statusStyle := render.StyleOf(th.StatusBar)
	status := fmt.Sprintf("%d item(s) — %s/%s", len(entries), p.SortKey, p.SortOrder)
	drawText(scr, x0, y0+height-1, width, status, statusStyle)
}

func drawText(scr tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if col+w > x+maxWidth {
			break
		}
		scr.SetContent(col, y, r, nil, style)
		col += w
	}
	for ; col < x+maxWidth; col++ {
		scr.SetContent(col, y, ' ', nil, style)
	}
}

func (s *filePanelScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	p := s.current()
	switch action {
	case "quit":
		return app.CloseScreen
	case "move_up":
		p.Move(-1)
	case "move_down":
		p.Move(1)
	case "page_up":
		p.Move(-10)
	case "page_down":
		p.Move(10)
	case "go_top":
		p.Jump(false)
	case "go_bottom":
		p.Jump(true)
	case "enter":
		if e, ok := p.CurrentEntry(); ok {
			if e.IsDir {
				_ = p.Enter(e)
			} else {
				s.app.openEntry(p, e)
			}
		}
	case "go_parent":
		_ = p.Parent()
	case "toggle_select":
		p.ToggleSelect()
	case "select_all":
		p.SelectAll()
	case "switch_panel":
		s.panels[s.active].Active = false
		s.active = (s.active + 1) % len(s.panels)
		s.panels[s.active].Active = true
	case "toggle_hidden":
		p.ShowHidden = !p.ShowHidden
		_ = p.Refresh()
	case "sort_name":
		p.SortBy(panel.SortByName)
	case "sort_size":
		p.SortBy(panel.SortBySize)
	case "sort_date":
		p.SortBy(panel.SortByDate)
	case "sort_type":
		p.SortBy(panel.SortByType)
	case "go_to_path":
		s.app.openGoToPath(p)
	case "open_viewer":
		s.app.openViewer(p)
	case "open_editor":
		s.app.openEditor(p)
	case "copy":
		s.app.startCopyOrMove(p, s.other(), false)
	case "move":
		s.app.startCopyOrMove(p, s.other(), true)
	case "mkdir":
		s.app.startMkdir(p)
	case "delete":
		s.app.startDelete(p)
	case "diff":
		s.app.openDiff(s.panels)
	case "process_manager":
		s.app.openProcessManager()
	case "help":
		s.app.openHelp()
	case "settings":
		s.app.openSettings()
	case "select_by_ext":
		s.app.loop.Stack().Push(newFormScreen("Select by extension", []string{"Extension"}, nil, func(values []string) {
			p.SelectByExtension(values[0])
		}))
	case "cycle_order":
		p.CycleOrder()
	case "toggle_bookmark":
		updated, _ := p.ToggleBookmark(s.app.settings.Bookmarks)
		s.app.settings.Bookmarks = updated
	case "pack":
		s.app.startPack(p)
	case "unpack":
		s.app.startUnpack(p)
	case "git_status":
		s.app.openGitStatus(p.Path)
	case "ai":
		s.app.openAIPrompt(p.Path)
	default:
		return app.PassThrough
	}
	return app.Consumed
}

// other returns the panel that is not the currently active one, the
// conventional copy/move destination.
func (s *filePanelScreen) other() *panel.Panel {
	return s.panels[(s.active+1)%len(s.panels)]
}

// openEntry implements the Extension Handler Router's dispatch (§4.5):
// look up a configured handler for e's extension and run it, falling
// back to a built-in viewer/editor/image-view action when none is
// configured. Failures surface on the status bar rather than a
// dedicated error dialog, matching openViewer's existing scope.
func (a *application) openEntry(p *panel.Panel, e vfs.Entry) {
	path := p.FS.Join(p.Path, e.Name)
	ext := extensionOf(e.Name)

	if templates, ok := a.router.Lookup(ext); ok {
		go func() {
			if err := handler.Open(path, templates, bridgeSuspender{a.bridge}); err != nil {
				a.hub.SendStatusMsg(context.Background(), "handler failed: "+err.Error(), 5*time.Second)
			}
		}()
		return
	}

	switch ext {
	case "png", "jpg", "jpeg", "gif":
		if scr := openImageView(path); scr != nil {
			a.loop.Stack().Push(scr)
			return
		}
	}

	if buf, err := editor.Load(p.FS, path); err == nil {
		a.loop.Stack().Push(&editorScreen{app: a, p: p, path: path, buf: buf})
		return
	}
	a.openViewer(p)
}

func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// gotoScreen wraps internal/gotopath.Dialog as a Screen, per §4.4.
type gotoScreen struct {
	app    *application
	dlg    *gotopath.Dialog
	target *panel.Panel
}

func (s *gotoScreen) Context() binding.Context {
	return binding.ContextDialog
}

func (s *gotoScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	dialogStyle := render.StyleOf(th.Dialog)
	y := y0 + height/2 - 2
	drawText(scr, x0+2, y, width-4, "Go to path: "+s.dlg.Input(), dialogStyle)
	if s.dlg.ListVisible() {
		row := y + 1
		for i, c := range s.dlg.Candidates() {
			st := dialogStyle
			if i == s.dlg.Selected() {
				st = st.Reverse(true)
			}
			drawText(scr, x0+2, row, width-4, c.Display, st)
			row++
		}
	}
}

func (s *gotoScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch {
	case ev.Key() == tcell.KeyEscape:
		act := s.dlg.Escape()
		if act.Kind == gotopath.ActionClose {
			return app.CloseScreen
		}
		return app.Consumed
	case ev.Key() == tcell.KeyEnter:
		act := s.dlg.Enter(s.app.fs, s.app.homeDir)
		s.app.applyGoToPathAction(act, s.target)
		return app.CloseScreen
	case ev.Key() == tcell.KeyTab:
		if s.dlg.Mode() == gotopath.ModeBookmark {
			act := s.dlg.Enter(s.app.fs, s.app.homeDir)
			s.app.applyGoToPathAction(act, s.target)
			return app.CloseScreen
		}
		s.dlg.Tab(s.app.fs, s.app.homeDir)
		return app.Consumed
	case ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2:
		s.dlg.Backspace()
		s.refreshCandidates()
		return app.Consumed
	case ev.Key() == tcell.KeyUp:
		s.dlg.MoveSelection(-1)
		return app.Consumed
	case ev.Key() == tcell.KeyDown:
		s.dlg.MoveSelection(1)
		return app.Consumed
	case ev.Key() == tcell.KeyCtrlD:
		act := s.dlg.DeleteSelected(s.app.settings)
		s.app.applyGoToPathAction(act, s.target)
		s.refreshCandidates()
		return app.Consumed
	case ev.Key() == tcell.KeyCtrlE:
		act := s.dlg.EditSelected()
		s.app.applyGoToPathAction(act, s.target)
		return app.Consumed
	case ev.Key() == tcell.KeyRune && ev.Rune() == '\'':
		act := s.dlg.ToggleCurrentPath(s.target.Path)
		s.app.applyGoToPathAction(act, s.target)
		return app.Consumed
	case ev.Key() == tcell.KeyRune:
		s.dlg.InsertRune(ev.Rune())
		s.refreshCandidates()
		return app.Consumed
	}
	return app.Consumed
}

func (s *gotoScreen) refreshCandidates() {
	if s.dlg.Mode() == gotopath.ModeBookmark {
		s.dlg.RefreshBookmarkCandidates(s.app.settings)
	} else {
		s.dlg.RefreshPathCandidates(s.app.fs, s.app.homeDir)
	}
}
