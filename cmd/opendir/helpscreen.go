package main

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// helpScreen lists the active keybindings for every context currently
// on the Screen Stack (§4's Help screen), bound to the file panel's F1
// action.
type helpScreen struct {
	lines  []string
	scroll int
}

// openHelp snapshots the binding map for every screen on the stack at
// the moment F1 is pressed, below this screen itself.
func (a *application) openHelp() {
	seen := make(map[binding.Context]bool)
	var lines []string
	for _, scr := range a.loop.Stack().Screens() {
		ctx := scr.Context()
		if seen[ctx] {
			continue
		}
		seen[ctx] = true
		m, ok := a.bindings[ctx]
		if !ok {
			continue
		}
		lines = append(lines, "["+string(ctx)+"]")
		for _, action := range m.Actions() {
			lines = append(lines, "  "+action+"  "+m.KeysJoined(action, ", "))
		}
	}
	a.loop.Stack().Push(&helpScreen{lines: lines})
}

func (s *helpScreen) Context() binding.Context { return binding.ContextHelp }

func (s *helpScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, "Help (esc to close)", headerStyle)

	bodyStyle := render.StyleOf(th.Panel)
	row := y0 + 1
	for i := s.scroll; i < len(s.lines) && row < y0+height; i++ {
		drawText(scr, x0, row, width, s.lines[i], bodyStyle)
		row++
	}
}

func (s *helpScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	}
	switch ev.Key() {
	case tcell.KeyUp:
		if s.scroll > 0 {
			s.scroll--
		}
	case tcell.KeyDown:
		s.scroll++
	default:
		return app.PassThrough
	}
	return app.Consumed
}
