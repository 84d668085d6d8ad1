package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/editor"
	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// editorScreen wraps internal/editor.Buffer as a Screen (§4.6), bound to
// the file panel's F4 action.
type editorScreen struct {
	app  *application
	p    *panel.Panel
	path string
	buf  *editor.Buffer
}

// openEditor loads the entry under p's cursor into the built-in editor.
// Load failures (permission, the 50MiB size cap) are reported on the
// status bar rather than a dedicated error dialog, matching openViewer's
// existing scope-bounded approach.
func (a *application) openEditor(p *panel.Panel) {
	e, ok := p.CurrentEntry()
	if !ok || e.IsDir {
		return
	}
	path := p.FS.Join(p.Path, e.Name)
	buf, err := editor.Load(p.FS, path)
	if err != nil {
		a.hub.SendStatusMsg(context.Background(), "open failed: "+err.Error(), 5*time.Second)
		return
	}
	a.loop.Stack().Push(&editorScreen{app: a, p: p, path: path, buf: buf})
}

func (s *editorScreen) Context() binding.Context { return binding.ContextFileEditor }

func (s *editorScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	title := s.path
	if s.buf.Dirty() {
		title += " [modified]"
	}
	drawText(scr, x0, y0, width, title, headerStyle)

	bodyStyle := render.StyleOf(th.Editor)
	lines := s.buf.VisualLines(width)
	cursor := s.buf.Cursor()
	row := y0 + 1
	for i := 0; i < len(lines) && row < y0+height-1; i++ {
		drawText(scr, x0, row, width, lines[i], bodyStyle)
		row++
	}

	statusStyle := render.StyleOf(th.StatusBar)
	status := fmt.Sprintf("line %d, col %d — %d lines", cursor.Line+1, cursor.Col+1, s.buf.LineCount())
	if label := s.buf.MatchLabel(); label != "" {
		status += " — " + label
	}
	drawText(scr, x0, y0+height-1, width, status, statusStyle)
}

func (s *editorScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "save":
		_ = s.buf.Save(s.p.FS, s.path)
		return app.Consumed
	case "close":
		return app.CloseScreen
	case "undo":
		s.buf.Undo()
		return app.Consumed
	case "redo":
		s.buf.Redo()
		return app.Consumed
	case "cut":
		s.buf.Cut()
		return app.Consumed
	case "copy":
		s.buf.Copy()
		return app.Consumed
	case "paste":
		s.buf.Paste()
		return app.Consumed
	case "select_all":
		s.buf.SelectAll()
		return app.Consumed
	case "toggle_wrap":
		s.buf.ToggleWordWrap()
		return app.Consumed
	case "find":
		s.app.loop.Stack().Push(newFormScreen("Find", []string{"Query"}, nil, func(values []string) {
			_ = s.buf.SetFind(values[0], false, false, false)
		}))
		return app.Consumed
	case "find_next":
		s.buf.FindNext()
		return app.Consumed
	case "find_prev":
		s.buf.FindPrev()
		return app.Consumed
	case "go_to_line":
		s.app.loop.Stack().Push(newFormScreen("Go to line", []string{"Line"}, nil, func(values []string) {
			var n int
			fmt.Sscanf(values[0], "%d", &n)
			s.buf.GoToLine(n)
		}))
		return app.Consumed
	}

	switch ev.Key() {
	case tcell.KeyUp:
		c := s.buf.Cursor()
		s.buf.MoveCursor(editor.Position{Line: c.Line - 1, Col: c.Col})
	case tcell.KeyDown:
		c := s.buf.Cursor()
		s.buf.MoveCursor(editor.Position{Line: c.Line + 1, Col: c.Col})
	case tcell.KeyLeft:
		c := s.buf.Cursor()
		s.buf.MoveCursor(editor.Position{Line: c.Line, Col: c.Col - 1})
	case tcell.KeyRight:
		c := s.buf.Cursor()
		s.buf.MoveCursor(editor.Position{Line: c.Line, Col: c.Col + 1})
	case tcell.KeyEnter:
		s.buf.InsertNewline()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.buf.DeleteBackward()
	case tcell.KeyDelete:
		s.buf.DeleteForward()
	case tcell.KeyRune:
		s.buf.InsertRune(ev.Rune())
	default:
		return app.PassThrough
	}
	return app.Consumed
}
