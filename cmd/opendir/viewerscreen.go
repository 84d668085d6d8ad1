package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
	"github.com/mongsil1012/opendir/internal/viewer"
)

// viewerScreen wraps internal/viewer.Viewer as a read-only Screen (§4's
// Viewer: the file panel's F3 action opens one over the current entry).
type viewerScreen struct {
	app  *application
	path string
	v    *viewer.Viewer
}

func (s *viewerScreen) Context() binding.Context {
	return binding.ContextFileInfo
}

func (s *viewerScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, s.path, headerStyle)

	bodyStyle := render.StyleOf(th.Viewer)
	lines := s.v.VisualLines(width)
	row := y0 + 1
	for i := s.v.Scroll(); i < len(lines) && row < y0+height-1; i++ {
		drawText(scr, x0, row, width, lines[i], bodyStyle)
		row++
	}

	statusStyle := render.StyleOf(th.StatusBar)
	mode := "text"
	if s.v.HexMode() {
		mode = "hex"
	}
	status := fmt.Sprintf("%d/%d lines — %s", s.v.Scroll()+1, s.v.LineCount(), mode)
	drawText(scr, x0, y0+height-1, width, status, statusStyle)
}

func (s *viewerScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	case "find":
		s.app.loop.Stack().Push(newFormScreen("Find", []string{"Query"}, nil, func(values []string) {
			s.v.SetFind(values[0])
		}))
		return app.Consumed
	case "find_next":
		s.v.FindNext()
		return app.Consumed
	case "find_prev":
		s.v.FindPrev()
		return app.Consumed
	case "toggle_bookmark":
		s.v.ToggleBookmark(s.v.Scroll())
		return app.Consumed
	case "next_bookmark":
		s.v.NextBookmark()
		return app.Consumed
	case "prev_bookmark":
		s.v.PrevBookmark()
		return app.Consumed
	}
	switch ev.Key() {
	case tcell.KeyUp:
		s.v.ScrollBy(-1)
	case tcell.KeyDown:
		s.v.ScrollBy(1)
	case tcell.KeyPgUp:
		s.v.ScrollBy(-10)
	case tcell.KeyPgDn:
		s.v.ScrollBy(10)
	case tcell.KeyHome:
		s.v.ScrollTo(0)
	case tcell.KeyEnd:
		s.v.ScrollTo(s.v.LineCount())
	default:
		switch ev.Rune() {
		case 'x':
			s.v.ToggleHexMode()
		case 'w':
			s.v.ToggleWordWrap()
		default:
			return app.PassThrough
		}
	}
	return app.Consumed
}
