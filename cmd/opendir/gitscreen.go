package main

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/gitstatus"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// gitScreen surfaces internal/gitstatus (porcelain status plus recent
// log) for a panel's current directory, bound to the file panel's F12
// action. gitstatus shells out to the git binary on the local
// filesystem, so this is only meaningful for a local panel.
type gitScreen struct {
	dir      string
	statuses []gitstatus.FileStatus
	log      []gitstatus.LogEntry
	cursor   int
}

// openGitStatus pushes a gitScreen over dir, or reports on the status
// bar if dir isn't inside a git repository.
func (a *application) openGitStatus(dir string) {
	ctx := context.Background()
	if !gitstatus.IsRepo(ctx, dir) {
		a.hub.SendStatusMsg(ctx, dir+" is not a git repository", 4*time.Second)
		return
	}
	statuses, _ := gitstatus.Status(ctx, dir)
	log, _ := gitstatus.Log(ctx, dir, 20)
	a.loop.Stack().Push(&gitScreen{dir: dir, statuses: statuses, log: log})
}

func (s *gitScreen) Context() binding.Context { return binding.ContextGit }

func (s *gitScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, "git status — "+s.dir, headerStyle)

	bodyStyle := render.StyleOf(th.Panel)
	half := height / 2

	row := y0 + 1
	for i := 0; i < len(s.statuses) && row < y0+1+half; i++ {
		st := s.statuses[i]
		line := st.Code + " " + st.Path
		lst := bodyStyle
		if i == s.cursor {
			lst = lst.Reverse(true)
		}
		drawText(scr, x0, row, width, line, lst)
		row++
	}

	row = y0 + 1 + half
	drawText(scr, x0, row, width, "recent commits", headerStyle)
	row++
	for i := 0; i < len(s.log) && row < y0+height; i++ {
		e := s.log[i]
		drawText(scr, x0, row, width, e.Hash+" "+e.Subject, bodyStyle)
		row++
	}
}

func (s *gitScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	}
	switch ev.Key() {
	case tcell.KeyUp:
		if s.cursor > 0 {
			s.cursor--
		}
	case tcell.KeyDown:
		if s.cursor < len(s.statuses)-1 {
			s.cursor++
		}
	default:
		return app.PassThrough
	}
	return app.Consumed
}
