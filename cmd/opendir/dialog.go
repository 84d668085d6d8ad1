package main

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
	"github.com/mongsil1012/opendir/query"
)

// formField is one labeled single-line input of a formScreen.
type formField struct {
	label  string
	input  *query.Query
	masked bool // password-style: displayed as asterisks
}

// formScreen is the generic modal Dialog (§4's Dialog screen): one or
// more labeled text fields, Tab/Shift+Tab moving focus between them,
// Enter submitting every field's current text, Esc cancelling. mkdir's
// name prompt, pack/unpack's destination and password prompts, and the
// remote-connect password prompt all drive one of these rather than
// each screen growing its own caret-editing code.
type formScreen struct {
	title  string
	fields []formField
	focus  int

	onSubmit func(values []string)
}

// newFormScreen builds a form with one query.Query-backed field per
// label. masked, if non-nil, marks the corresponding fields as
// password-style; a shorter or nil masked slice leaves the rest
// unmasked.
func newFormScreen(title string, labels []string, masked []bool, onSubmit func(values []string)) *formScreen {
	fields := make([]formField, len(labels))
	for i, l := range labels {
		m := false
		if i < len(masked) {
			m = masked[i]
		}
		fields[i] = formField{label: l, input: query.New(), masked: m}
	}
	return &formScreen{title: title, fields: fields, onSubmit: onSubmit}
}

func (s *formScreen) Context() binding.Context { return binding.ContextDialog }

func (s *formScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	dialogStyle := render.StyleOf(th.Dialog)
	y := y0 + height/2 - len(s.fields)
	drawText(scr, x0+2, y, width-4, s.title, dialogStyle)
	y++
	for i, f := range s.fields {
		text := f.input.String()
		if f.masked {
			text = maskString(text)
		}
		st := dialogStyle
		if i == s.focus {
			st = st.Reverse(true)
		}
		drawText(scr, x0+2, y, width-4, f.label+": "+text, st)
		y++
	}
}

func maskString(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i := range out {
		out[i] = '*'
	}
	return string(out)
}

func (s *formScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	switch ev.Key() {
	case tcell.KeyEscape:
		return app.CloseScreen
	case tcell.KeyEnter:
		values := make([]string, len(s.fields))
		for i, f := range s.fields {
			values[i] = f.input.String()
		}
		if s.onSubmit != nil {
			s.onSubmit(values)
		}
		return app.CloseScreen
	case tcell.KeyTab:
		s.focus = (s.focus + 1) % len(s.fields)
		return app.Consumed
	case tcell.KeyBacktab:
		s.focus = (s.focus - 1 + len(s.fields)) % len(s.fields)
		return app.Consumed
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		f := &s.fields[s.focus]
		if n := f.input.Len(); n > 0 {
			f.input.DeleteRange(n-1, n)
		}
		return app.Consumed
	case tcell.KeyRune:
		f := &s.fields[s.focus]
		f.input.InsertAt(ev.Rune(), f.input.Len())
		return app.Consumed
	}
	return app.Consumed
}

// confirmScreen is a generic modal yes/no overlay, for delete
// confirmation and other destructive prompts.
type confirmScreen struct {
	prompt string
	onYes  func()
}

func (s *confirmScreen) Context() binding.Context { return binding.ContextDialog }

func (s *confirmScreen) Draw(scr tcell.Screen, th *theme.Theme, x0, y0, width, height int) {
	dialogStyle := render.StyleOf(th.Dialog)
	drawText(scr, x0+2, y0+height/2, width-4, s.prompt+" (y/n)", dialogStyle)
}

func (s *confirmScreen) HandleKey(ctx context.Context, ev *tcell.EventKey, action string) app.Result {
	if ev.Key() == tcell.KeyEnter || ev.Rune() == 'y' || ev.Rune() == 'Y' {
		if s.onYes != nil {
			s.onYes()
		}
		return app.CloseScreen
	}
	return app.CloseScreen
}
