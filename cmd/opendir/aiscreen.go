package main

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/ai"
	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// aiScreen displays the most recent internal/ai.Ask response for a
// panel's directory, bound to the file panel's F10 action.
type aiScreen struct {
	dir      string
	prompt   string
	response string
	scroll   int
}

// openAIPrompt prompts for a question and runs it against the
// configured AI assistant command with dir as the working directory.
func (a *application) openAIPrompt(dir string) {
	form := newFormScreen("Ask AI", []string{"Prompt"}, nil, func(values []string) {
		scr := &aiScreen{dir: dir, prompt: values[0]}
		a.loop.Stack().Push(scr)
		go func() {
			command := ""
			if cfg, ok := a.settings.ExtensionHandler["ai_command"]; ok && len(cfg.Commands) > 0 {
				command = cfg.Commands[0]
			}
			out, err := ai.Ask(context.Background(), command, dir, values[0])
			if err != nil {
				a.hub.SendStatusMsg(context.Background(), "ai request failed: "+err.Error(), 5*time.Second)
				return
			}
			scr.response = out
			a.hub.SendDraw(context.Background(), nil)
		}()
	})
	a.loop.Stack().Push(form)
}

func (s *aiScreen) Context() binding.Context { return binding.ContextAI }

func (s *aiScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	headerStyle := render.StyleOf(th.AIScreen)
	drawText(scr, x0, y0, width, "ai: "+s.prompt, headerStyle)

	bodyStyle := render.StyleOf(th.AIScreen)
	lines := splitLines(s.response)
	row := y0 + 1
	for i := s.scroll; i < len(lines) && row < y0+height; i++ {
		drawText(scr, x0, row, width, lines[i], bodyStyle)
		row++
	}
}

func (s *aiScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
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
