package main

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// settingsScreen displays and edits the Settings Store's top-level
// scalar fields (§4.2), bound to the file panel's F2 action. It covers
// the fields simple enough for a one-line list-and-edit UI; bookmarks,
// remote profiles and keybinding overrides are edited through their own
// flows (Go-to-Path, this module's connection dialog, a hand-edited
// settings file) rather than duplicated here.
type settingsScreen struct {
	app    *application
	cursor int
}

func (a *application) openSettings() {
	a.loop.Stack().Push(&settingsScreen{app: a})
}

func (s *settingsScreen) rows() []string {
	st := s.app.settings
	return []string{
		"theme: " + st.Theme.Name,
		"active panel: " + st.ActivePanel,
		"left panel show hidden: " + boolStr(st.LeftPanel.ShowHidden),
		"right panel show hidden: " + boolStr(st.RightPanel.ShowHidden),
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (s *settingsScreen) Context() binding.Context { return binding.ContextSettings }

func (s *settingsScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, "Settings (enter to edit, esc to close)", headerStyle)

	bodyStyle := render.StyleOf(th.Panel)
	row := y0 + 1
	for i, r := range s.rows() {
		st := bodyStyle
		if i == s.cursor {
			st = st.Reverse(true)
		}
		drawText(scr, x0, row, width, r, st)
		row++
	}
}

func (s *settingsScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	}
	switch ev.Key() {
	case tcell.KeyUp:
		if s.cursor > 0 {
			s.cursor--
		}
		return app.Consumed
	case tcell.KeyDown:
		if s.cursor < len(s.rows())-1 {
			s.cursor++
		}
		return app.Consumed
	case tcell.KeyEnter:
		s.editCursor()
		return app.Consumed
	}
	return app.PassThrough
}

func (s *settingsScreen) editCursor() {
	st := s.app.settings
	switch s.cursor {
	case 0:
		s.app.loop.Stack().Push(newFormScreen("Theme name", []string{"Name"}, nil, func(values []string) {
			if values[0] != "" {
				st.Theme.Name = values[0]
			}
		}))
	case 2:
		st.LeftPanel.ShowHidden = !st.LeftPanel.ShowHidden
	case 3:
		st.RightPanel.ShowHidden = !st.RightPanel.ShowHidden
	}
}
