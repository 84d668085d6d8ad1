package main

import (
	"context"

	"github.com/gdamore/tcell/v2"

	termimg "github.com/blacktop/go-termimg"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/imageview"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// imageViewScreen wraps internal/imageview.Viewer as a Screen (§4's
// Image Viewer), opened from the file panel's Enter-on-image fallback.
// It hardcodes termimg.Kitty rather than reimplementing terminal
// capability detection, which is documented in DESIGN.md as belonging
// to the go-termimg collaborator, not this package.
type imageViewScreen struct {
	path   string
	v      *imageview.Viewer
	scroll int
}

func openImageView(path string) *imageViewScreen {
	v, err := imageview.Load(path)
	if err != nil {
		return nil
	}
	return &imageViewScreen{path: path, v: v}
}

func (s *imageViewScreen) Context() binding.Context { return binding.ContextImageViewer }

func (s *imageViewScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.Header)
	drawText(scr, x0, y0, width, s.path, headerStyle)

	rendered, err := s.v.Render(termimg.Kitty, width, height-1)
	bodyStyle := render.StyleOf(th.Viewer)
	if err != nil {
		drawText(scr, x0, y0+1, width, "failed to render image: "+err.Error(), bodyStyle)
		return
	}
	row := y0 + 1
	for _, line := range splitLines(rendered) {
		if row >= y0+height {
			break
		}
		drawText(scr, x0, row, width, line, bodyStyle)
		row++
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func (s *imageViewScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch action {
	case "close":
		return app.CloseScreen
	case "scroll_up":
		if s.scroll > 0 {
			s.scroll--
			s.v.InvalidateCache()
		}
		return app.Consumed
	case "scroll_down":
		s.scroll++
		s.v.InvalidateCache()
		return app.Consumed
	}
	return app.PassThrough
}
