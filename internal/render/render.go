// Package render implements the Renderer Bridge: painting the active
// Screen Stack onto a tcell.Screen, constrained either to the full
// alternate screen buffer or to a bottom region of the normal screen
// (so scrollback above it survives), per the resolved height spec.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/mongsil1012/opendir/config"
	"github.com/mongsil1012/opendir/internal/theme"
)

// Drawable is implemented by every screen in the stack so the bridge can
// paint it without knowing its concrete type.
type Drawable interface {
	Draw(s tcell.Screen, th *theme.Theme, x0, y0, width, height int)
}

// Bridge owns the tcell.Screen and the inline-vs-alt-screen height
// constraint. It also satisfies internal/handler's Suspender interface,
// so an extension handler's foreground program can take over the
// terminal and hand it back.
type Bridge struct {
	mutex sync.Mutex

	screen     tcell.Screen
	heightSpec config.HeightSpec
	inline     bool
	height     int // resolved line count
	yOffset    int // physical row where the region starts

	savedAltscreen string
	errWriter      io.Writer
}

// New creates a Bridge. When inline is true, the bridge renders into a
// fixed-height region at the bottom of the terminal, preserving
// scrollback above it; otherwise it uses the full alternate screen.
func New(spec config.HeightSpec, inline bool) *Bridge {
	return &Bridge{heightSpec: spec, inline: inline, errWriter: os.Stderr}
}

// Init creates and initializes the underlying tcell.Screen.
func (b *Bridge) Init() error {
	if b.inline {
		b.savedAltscreen = os.Getenv("TCELL_ALTSCREEN")
		os.Setenv("TCELL_ALTSCREEN", "disable")
	}

	scr, err := tcell.NewScreen()
	if err != nil {
		if b.inline {
			os.Setenv("TCELL_ALTSCREEN", b.savedAltscreen)
		}
		return errors.Wrap(err, "failed to create tcell screen")
	}
	if err := scr.Init(); err != nil {
		if b.inline {
			os.Setenv("TCELL_ALTSCREEN", b.savedAltscreen)
		}
		return errors.Wrap(err, "failed to initialize tcell screen")
	}

	b.mutex.Lock()
	b.screen = scr
	b.resize()
	b.mutex.Unlock()

	if b.inline {
		w, _ := scr.Size()
		if tty, ok := scr.Tty(); ok {
			buf := make([]byte, b.height)
			for i := range buf {
				buf[i] = '\n'
			}
			_, _ = tty.Write(buf)
			fmt.Fprintf(tty, "\033[%dA", b.height)
		}
		scr.LockRegion(0, 0, w, b.yOffset, true)
	}

	scr.Clear()
	scr.Show()
	return nil
}

// resize recomputes height/yOffset from the current terminal size.
// Callers must hold mutex.
func (b *Bridge) resize() {
	if b.screen == nil {
		return
	}
	_, h := b.screen.Size()
	if b.inline {
		b.height = b.heightSpec.Resolve(h)
		b.yOffset = h - b.height
	} else {
		b.height = h
		b.yOffset = 0
	}
}

// Size returns the bridge's usable (width, height) for the current layout.
func (b *Bridge) Size() (int, int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.screen == nil {
		return 0, 0
	}
	w, _ := b.screen.Size()
	return w, b.height
}

// Close tears down the screen permanently (process exit).
func (b *Bridge) Close() error {
	b.mutex.Lock()
	scr := b.screen
	b.screen = nil
	b.mutex.Unlock()

	if scr == nil {
		return nil
	}
	if b.inline {
		if tty, ok := scr.Tty(); ok {
			fmt.Fprintf(tty, "\033[%d;1H", b.yOffset+1)
			_, _ = tty.Write([]byte("\033[J"))
		}
	}
	scr.Fini()

	if b.inline {
		if b.savedAltscreen == "" {
			os.Unsetenv("TCELL_ALTSCREEN")
		} else {
			os.Setenv("TCELL_ALTSCREEN", b.savedAltscreen)
		}
	}
	return nil
}

// Suspend tears down the terminal screen so a foreground child process
// can take over stdio. Satisfies internal/handler.Suspender.
func (b *Bridge) Suspend() {
	b.mutex.Lock()
	scr := b.screen
	b.mutex.Unlock()
	if scr != nil {
		scr.Fini()
	}
}

// Resume re-initializes the terminal screen after Suspend. Satisfies
// internal/handler.Suspender.
func (b *Bridge) Resume() {
	_ = b.Init()
}

// PollEvents streams terminal events until ctx is done or the screen
// closes. Resize events update the resolved height/yOffset in place
// before being forwarded.
func (b *Bridge) PollEvents(ctx context.Context) <-chan tcell.Event {
	out := make(chan tcell.Event)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(b.errWriter, "opendir: panic in PollEvents: %v\n%s", r, debug.Stack())
			}
			close(out)
		}()

		for {
			b.mutex.Lock()
			scr := b.screen
			b.mutex.Unlock()
			if scr == nil {
				return
			}

			ev := scr.PollEvent()
			if ev == nil {
				return
			}

			if _, ok := ev.(*tcell.EventResize); ok {
				b.mutex.Lock()
				b.resize()
				if b.inline && b.screen != nil {
					w, _ := b.screen.Size()
					b.screen.LockRegion(0, 0, w, b.yOffset, true)
				}
				b.mutex.Unlock()
			}

			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out
}

// Paint clears the bridge's region and draws the stack bottom-to-top
// using th, so screens further up the stack paint over their parents
// (e.g. a modal Dialog over the FilePanel).
func (b *Bridge) Paint(stack []Drawable, th *theme.Theme) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.screen == nil {
		return
	}

	w, _ := b.screen.Size()
	blank := styleOf(th.Panel)
	for y := 0; y < b.height; y++ {
		for x := 0; x < w; x++ {
			b.screen.SetContent(x, b.yOffset+y, ' ', nil, blank)
		}
	}

	for _, d := range stack {
		d.Draw(b.screen, th, 0, b.yOffset, w, b.height)
	}
	b.screen.Show()
}

// styleOf converts a theme.Style into a tcell.Style.
func styleOf(s theme.Style) tcell.Style {
	style := tcell.StyleDefault
	if s.Fg != theme.ColorDefault {
		style = style.Foreground(tcell.PaletteColor(int(s.Fg)))
	}
	if s.Bg != theme.ColorDefault {
		style = style.Background(tcell.PaletteColor(int(s.Bg)))
	}
	if s.Bold {
		style = style.Bold(true)
	}
	if s.Underline {
		style = style.Underline(true)
	}
	if s.Reverse {
		style = style.Reverse(true)
	}
	return style
}

// StyleOf exposes styleOf for screens that paint their own content and
// need the same theme.Style -> tcell.Style conversion the bridge uses.
func StyleOf(s theme.Style) tcell.Style {
	return styleOf(s)
}
