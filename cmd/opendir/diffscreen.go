package main

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/diffengine"
	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
	"github.com/mongsil1012/opendir/internal/vfs"
)

// dirDiffScreen wraps internal/diffengine.DiffDirs as a Screen (§4.8),
// bound to the file panel's F9 action: comparing the two panels' current
// directories.
type dirDiffScreen struct {
	app     *application
	left    *panel.Panel
	right   *panel.Panel
	entries []diffengine.DirEntry
	cursor  int
}

// openDiff runs a recursive directory diff between panels[0] and
// panels[1]'s current paths.
func (a *application) openDiff(panels []*panel.Panel) {
	if len(panels) < 2 {
		return
	}
	left, right := panels[0], panels[1]
	entries, err := diffengine.DiffDirs(left.FS, left.Path, right.FS, right.Path)
	if err != nil {
		a.hub.SendStatusMsg(context.Background(), "diff failed: "+err.Error(), 5*time.Second)
		return
	}
	a.loop.Stack().Push(&dirDiffScreen{app: a, left: left, right: right, entries: entries})
}

func (s *dirDiffScreen) Context() binding.Context { return binding.ContextDiffScreen }

func (s *dirDiffScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, s.left.Path+"  vs  "+s.right.Path, headerStyle)

	bodyStyle := render.StyleOf(th.Panel)
	row := y0 + 1
	for i := 0; i < len(s.entries) && row < y0+height-1; i++ {
		e := s.entries[i]
		st := bodyStyle
		if i == s.cursor {
			st = st.Reverse(true)
		}
		drawText(scr, x0, row, width, fmt.Sprintf("[%s] %s", e.Class, e.Path), st)
		row++
	}
}

func (s *dirDiffScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	case "move_up":
		if s.cursor > 0 {
			s.cursor--
		}
		return app.Consumed
	case "move_down":
		if s.cursor < len(s.entries)-1 {
			s.cursor++
		}
		return app.Consumed
	case "open":
		if s.cursor < len(s.entries) {
			s.openFileDiff(s.entries[s.cursor])
		}
		return app.Consumed
	}
	return app.PassThrough
}

func (s *dirDiffScreen) openFileDiff(e diffengine.DirEntry) {
	if e.IsDir || e.Class == diffengine.Identical {
		return
	}
	leftLines, _ := readLines(s.left.FS, s.left.FS.Join(s.left.Path, e.Path))
	rightLines, _ := readLines(s.right.FS, s.right.FS.Join(s.right.Path, e.Path))
	spans := diffengine.DiffLines(leftLines, rightLines)
	rows := diffengine.SideBySide(spans)
	s.app.loop.Stack().Push(&fileDiffScreen{path: e.Path, rows: rows})
}

func readLines(fs vfs.Filesystem, path string) ([]string, error) {
	r, err := fs.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// fileDiffScreen is the line-level side-by-side view (§4.8) pushed when
// entering a modified file from dirDiffScreen.
type fileDiffScreen struct {
	path   string
	rows   []diffengine.Row
	scroll int
}

func (s *fileDiffScreen) Context() binding.Context { return binding.ContextDiffFileView }

func (s *fileDiffScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, s.path, headerStyle)

	half := width / 2
	plain := render.StyleOf(th.Panel)
	changed := render.StyleOf(th.PanelSelected)

	row := y0 + 1
	for i := s.scroll; i < len(s.rows) && row < y0+height; i++ {
		r := s.rows[i]
		leftStyle, rightStyle := plain, plain
		if r.LeftChanged {
			leftStyle = changed
		}
		if r.RightChanged {
			rightStyle = changed
		}
		drawText(scr, x0, row, half, r.Left, leftStyle)
		drawText(scr, x0+half, row, width-half, r.Right, rightStyle)
		row++
	}
}

func (s *fileDiffScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	case "move_up":
		if s.scroll > 0 {
			s.scroll--
		}
		return app.Consumed
	case "move_down":
		if s.scroll < len(s.rows)-1 {
			s.scroll++
		}
		return app.Consumed
	}
	return app.PassThrough
}
