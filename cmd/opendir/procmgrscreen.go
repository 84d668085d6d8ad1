package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/procmgr"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// procMgrScreen wraps internal/procmgr as a Screen (§4's Process
// Manager), bound to the file panel's F11 action.
type procMgrScreen struct {
	app    *application
	all    []procmgr.Info
	query  string
	cursor int
}

// openProcessManager lists the host's processes and pushes the Process
// Manager screen over them.
func (a *application) openProcessManager() {
	infos, err := procmgr.List()
	if err != nil {
		a.hub.SendStatusMsg(context.Background(), "process list failed: "+err.Error(), 5*time.Second)
		return
	}
	a.loop.Stack().Push(&procMgrScreen{app: a, all: infos})
}

func (s *procMgrScreen) visible() []procmgr.Info {
	return procmgr.Filter(s.all, s.query)
}

func (s *procMgrScreen) Context() binding.Context { return binding.ContextProcessManager }

func (s *procMgrScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.ProcessManager)
	drawText(scr, x0, y0, width, "Process Manager — filter: "+s.query, headerStyle)

	bodyStyle := render.StyleOf(th.ProcessManager)
	procs := s.visible()
	row := y0 + 1
	for i := 0; i < len(procs) && row < y0+height; i++ {
		p := procs[i]
		st := bodyStyle
		if i == s.cursor {
			st = st.Reverse(true)
		}
		line := fmt.Sprintf("%6d  %6.1f%%  %8dK  %s", p.PID, p.CPUPct, p.RSSKb, p.Name)
		drawText(scr, x0, row, width, line, st)
		row++
	}
}

func (s *procMgrScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	procs := s.visible()
	switch action {
	case "close":
		return app.CloseScreen
	case "move_up":
		if s.cursor > 0 {
			s.cursor--
		}
		return app.Consumed
	case "move_down":
		if s.cursor < len(procs)-1 {
			s.cursor++
		}
		return app.Consumed
	case "kill":
		if s.cursor < len(procs) {
			if err := procmgr.Kill(procs[s.cursor].PID); err != nil {
				s.app.hub.SendStatusMsg(context.Background(), "kill failed: "+err.Error(), 4*time.Second)
			} else if all, err := procmgr.List(); err == nil {
				s.all = all
			}
		}
		return app.Consumed
	}

	switch ev.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(s.query); n > 0 {
			s.query = s.query[:n-1]
			s.cursor = 0
		}
	case tcell.KeyRune:
		s.query += string(ev.Rune())
		s.cursor = 0
	default:
		return app.PassThrough
	}
	return app.Consumed
}
