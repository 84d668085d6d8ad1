// Package app implements the Input Loop & Screen Stack (§4.9): a
// single-threaded cooperative main loop that polls terminal events with
// a short effective timeout (by draining whatever's queued before each
// repaint), dispatches keys to the top of a screen stack, and folds in
// worker-thread progress/completion messages and periodic timer ticks.
package app

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mongsil1012/opendir/hub"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

// Result is a screen's disposition of a dispatched key.
type Result int

const (
	Consumed    Result = iota // the screen handled it; stop dispatching
	PassThrough                // the screen ignored it; offer it to the screen below
	CloseScreen                 // the screen is done; pop it and stop dispatching
)

// Screen is one entry in the Screen Stack. Every screen also paints
// itself via render.Drawable.
type Screen interface {
	render.Drawable

	// Context identifies which binding.Map resolves keys for this
	// screen; the Loop looks up the action name before calling
	// HandleKey so the same binding grammar (§4.1) governs every screen.
	Context() binding.Context

	// HandleKey applies ev to the screen. action is the name resolved
	// from the screen's binding map, or "" if ev has no binding — in
	// which case a text-entry screen (Editor, GoToPath, find/replace
	// prompts) still gets the raw event to insert a printable rune.
	HandleKey(ctx context.Context, ev *tcell.EventKey, action string) Result
}

// Stack is the ordered screen stack; the FilePanel is conventionally
// pushed first and never popped.
type Stack struct {
	screens []Screen
}

// NewStack creates a Stack with root as its first (bottom) screen.
func NewStack(root Screen) *Stack {
	return &Stack{screens: []Screen{root}}
}

// Push adds a screen on top of the stack.
func (s *Stack) Push(sc Screen) {
	s.screens = append(s.screens, sc)
}

// Pop removes and returns the top screen. It is a no-op returning nil
// once only the root screen remains, since the root is never popped.
func (s *Stack) Pop() Screen {
	if len(s.screens) <= 1 {
		return nil
	}
	top := s.screens[len(s.screens)-1]
	s.screens = s.screens[:len(s.screens)-1]
	return top
}

// Top returns the topmost screen.
func (s *Stack) Top() Screen {
	return s.screens[len(s.screens)-1]
}

// Len returns the number of screens on the stack.
func (s *Stack) Len() int {
	return len(s.screens)
}

// Screens returns the stack bottom-to-top, for the Renderer Bridge to
// paint in order.
func (s *Stack) Screens() []Screen {
	return s.screens
}

// Drawables returns the stack bottom-to-top as render.Drawable, for
// render.Bridge.Paint.
func (s *Stack) Drawables() []render.Drawable {
	out := make([]render.Drawable, len(s.screens))
	for i, sc := range s.screens {
		out[i] = sc
	}
	return out
}

// Loop is the cooperative Input Loop driving one Screen Stack.
type Loop struct {
	bridge   *render.Bridge
	hub      *hub.Hub
	stack    *Stack
	bindings map[binding.Context]*binding.Map
	theme    *theme.Theme

	tickInterval time.Duration

	statusMsg     string
	statusExpires time.Time

	// OnWorkerEvent, when set, is called for every hub.WorkerEvent the
	// loop receives, before the next repaint — e.g. to fold a completed
	// diff/listing job's result into the active screen.
	OnWorkerEvent func(ctx context.Context, ev hub.WorkerEvent)
}

// New creates a Loop over stack, dispatching with bindings and painting
// via bridge using th.
func New(bridge *render.Bridge, h *hub.Hub, stack *Stack, bindings map[binding.Context]*binding.Map, th *theme.Theme) *Loop {
	return &Loop{
		bridge:       bridge,
		hub:          h,
		stack:        stack,
		bindings:     bindings,
		theme:        th,
		tickInterval: 500 * time.Millisecond,
	}
}

// Stack returns the Loop's Screen Stack, so callers can push/pop screens
// from outside the Loop (e.g. in response to a GoToPath Navigate action).
func (lp *Loop) Stack() *Stack {
	return lp.stack
}

// Run drives the loop until ctx is cancelled, the screen stack closes
// (root screen returns CloseScreen), or the terminal event source closes.
func (lp *Loop) Run(ctx context.Context) error {
	evCh := lp.bridge.PollEvents(ctx)
	ticker := time.NewTicker(lp.tickInterval)
	defer ticker.Stop()

	lp.repaint()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-evCh:
			if !ok {
				return nil
			}
			lp.handleTermEvent(ctx, ev)
			lp.drainPendingEvents(ctx, evCh)
			if lp.stack.Len() == 0 {
				return nil
			}
			lp.repaint()

		case p, ok := <-lp.hub.WorkerCh():
			if !ok {
				continue
			}
			ev := p.Data()
			if lp.OnWorkerEvent != nil {
				lp.OnWorkerEvent(ctx, ev)
			}
			p.Done()
			lp.repaint()

		case p, ok := <-lp.hub.DrawCh():
			if !ok {
				continue
			}
			p.Done()
			lp.repaint()

		case p, ok := <-lp.hub.StatusMsgCh():
			if !ok {
				continue
			}
			msg := p.Data()
			lp.statusMsg = msg.Message()
			if d := msg.Delay(); d > 0 {
				lp.statusExpires = time.Now().Add(d)
			} else {
				lp.statusExpires = time.Time{}
			}
			p.Done()
			lp.repaint()

		case <-ticker.C:
			if !lp.statusExpires.IsZero() && time.Now().After(lp.statusExpires) {
				lp.statusMsg = ""
				lp.statusExpires = time.Time{}
			}
			lp.repaint()
		}
	}
}

// drainPendingEvents processes every terminal event already queued,
// without blocking, so a burst of input (e.g. paste, key repeat) is
// fully applied before the single resulting repaint — "inputs are
// drained before a repaint" (§4.9).
func (lp *Loop) drainPendingEvents(ctx context.Context, evCh <-chan tcell.Event) {
	for {
		select {
		case ev, ok := <-evCh:
			if !ok {
				return
			}
			lp.handleTermEvent(ctx, ev)
		default:
			return
		}
	}
}

func (lp *Loop) handleTermEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		lp.dispatch(ctx, ev)
	case *tcell.EventResize:
		// render.Bridge already recalculated height/yOffset; nothing
		// further to do before the next repaint.
	}
}

// dispatch resolves ev against the top screen's binding map and walks
// down the stack until a screen consumes it, closes, or the stack is
// exhausted.
func (lp *Loop) dispatch(ctx context.Context, ev *tcell.EventKey) {
	screens := lp.stack.screens
	for i := len(screens) - 1; i >= 0; i-- {
		scr := screens[i]

		action := ""
		if m, ok := lp.bindings[scr.Context()]; ok {
			if a, found := m.Lookup(ev.Key(), ev.Rune(), ev.Modifiers()); found {
				action = a
			}
		}

		switch scr.HandleKey(ctx, ev, action) {
		case Consumed:
			return
		case CloseScreen:
			lp.stack.screens = append(screens[:i:i], screens[i+1:]...)
			return
		case PassThrough:
			continue
		}
	}
}

// StatusMessage returns the currently displayed status-bar text.
func (lp *Loop) StatusMessage() string {
	return lp.statusMsg
}

func (lp *Loop) repaint() {
	lp.bridge.Paint(lp.stack.Drawables(), lp.theme)
}
