// Package binding implements the key-binding dispatcher: parsing textual
// key descriptors into (code, modifier-mask) pairs and resolving a key
// event to an action per screen context.
package binding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

// Context is one of the closed screen contexts a Map is built for.
type Context string

const (
	ContextFilePanel      Context = "file_panel"
	ContextFileEditor     Context = "file_editor"
	ContextFileInfo       Context = "file_info"
	ContextSystemInfo     Context = "system_info"
	ContextSearchResult   Context = "search_result"
	ContextAdvancedSearch Context = "advanced_search"
	ContextDiffScreen     Context = "diff_screen"
	ContextDiffFileView   Context = "diff_file_view"
	ContextImageViewer    Context = "image_viewer"
	ContextProcessManager Context = "process_manager"
	ContextDialog         Context = "dialog"
	ContextHelp           Context = "help"
	ContextSettings       Context = "settings"
	ContextAI             Context = "ai"
	ContextGit            Context = "git"
)

// Binding is a (key code, modifier mask) pair the dispatcher resolves to
// an action. Two bindings are equal iff Key, Ch and Mod are equal
// (normalize zeroes Ch for non-rune keys).
type Binding struct {
	Key tcell.Key
	Ch  rune // valid only when Key == tcell.KeyRune
	Mod tcell.ModMask
}

func (b Binding) normalize() Binding {
	if b.Key != tcell.KeyRune {
		b.Ch = 0
	}
	return b
}

// Map is a reverse-lookup binding map over action names for one screen
// context: Binding -> action, plus the inverse action -> ordered display
// strings, built from defaults merged with user overrides.
type Map struct {
	ctx        Context
	byBinding  map[Binding]string
	byAction   map[string][]string // action -> ordered keystrings (post-filter, for display)
}

// Build produces a Map where for every action a, its effective keystring
// list is overrides[a] if present else defaults[a]. Strings beginning with
// "//" are discarded as comments.
func Build(ctx Context, defaults, overrides map[string][]string) (*Map, error) {
	if pdebug.Enabled {
		g := pdebug.Marker("binding.Build %s", ctx)
		defer g.End()
	}

	m := &Map{
		ctx:       ctx,
		byBinding: make(map[Binding]string),
		byAction:  make(map[string][]string),
	}

	effective := make(map[string][]string, len(defaults))
	for action, keys := range defaults {
		effective[action] = keys
	}
	for action, keys := range overrides {
		effective[action] = keys
	}

	// Deterministic compile order regardless of map iteration.
	actions := make([]string, 0, len(effective))
	for action := range effective {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	for _, action := range actions {
		var display []string
		for _, raw := range effective[action] {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			if strings.HasPrefix(s, "//") {
				continue
			}
			bindings, err := parseKeystring(s)
			if err != nil {
				// Malformed keystrings are logged and ignored; the action
				// is still registered from any remaining valid strings.
				if pdebug.Enabled {
					pdebug.Printf("binding: ignoring malformed keystring %q for action %q: %s", s, action, err)
				}
				continue
			}
			for _, b := range bindings {
				m.byBinding[b.normalize()] = action
			}
			display = append(display, s)
		}
		m.byAction[action] = display
	}

	return m, nil
}

// Lookup returns the action for the exact (code, mask) binding; if none
// and code is a rune, retries with mask stripped of Shift.
func (m *Map) Lookup(key tcell.Key, ch rune, mod tcell.ModMask) (string, bool) {
	b := Binding{Key: key, Ch: ch, Mod: mod}.normalize()
	if action, ok := m.byBinding[b]; ok {
		return action, true
	}
	if key == tcell.KeyRune && mod&tcell.ModShift != 0 {
		stripped := Binding{Key: key, Ch: ch, Mod: mod &^ tcell.ModShift}.normalize()
		if action, ok := m.byBinding[stripped]; ok {
			return action, true
		}
	}
	return "", false
}

// Keys returns the display strings registered for an action, in the
// order they were configured.
func (m *Map) Keys(action string) []string {
	return m.byAction[action]
}

// Actions returns every action registered in m, sorted, for the Help
// screen's keybinding listing.
func (m *Map) Actions() []string {
	actions := make([]string, 0, len(m.byAction))
	for a := range m.byAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// FirstKey returns the first display string for an action, or "" if none.
func (m *Map) FirstKey(action string) string {
	keys := m.byAction[action]
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// KeysJoined returns the display strings for an action joined by sep.
func (m *Map) KeysJoined(action, sep string) string {
	return strings.Join(m.byAction[action], sep)
}

var namedKeys = map[string]tcell.Key{
	"up": tcell.KeyUp, "down": tcell.KeyDown, "left": tcell.KeyLeft, "right": tcell.KeyRight,
	"home": tcell.KeyHome, "end": tcell.KeyEnd,
	"pageup": tcell.KeyPgUp, "pagedown": tcell.KeyPgDn,
	"enter": tcell.KeyEnter, "return": tcell.KeyEnter,
	"esc": tcell.KeyEscape, "escape": tcell.KeyEscape,
	"tab": tcell.KeyTab,
	"space": tcell.KeyRune, // handled specially below, Ch=' '
	"backspace": tcell.KeyBackspace2,
	"delete": tcell.KeyDelete, "del": tcell.KeyDelete,
	"f1": tcell.KeyF1, "f2": tcell.KeyF2, "f3": tcell.KeyF3, "f4": tcell.KeyF4,
	"f5": tcell.KeyF5, "f6": tcell.KeyF6, "f7": tcell.KeyF7, "f8": tcell.KeyF8,
	"f9": tcell.KeyF9, "f10": tcell.KeyF10, "f11": tcell.KeyF11, "f12": tcell.KeyF12,
}

// parseKeystring parses "[modifier+]* KEY", case-insensitive, per the
// grammar in §4.1. An alphabetic KEY expands into two Bindings (lowercase
// and uppercase).
func parseKeystring(s string) ([]Binding, error) {
	parts := strings.Split(s, "+")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return nil, errors.Errorf("empty key descriptor in %q", s)
	}

	var mod tcell.ModMask
	key := parts[len(parts)-1]
	for _, mname := range parts[:len(parts)-1] {
		switch mname {
		case "ctrl", "control":
			mod |= tcell.ModCtrl
		case "shift":
			mod |= tcell.ModShift
		case "alt":
			mod |= tcell.ModAlt
		default:
			return nil, errors.Errorf("unknown modifier %q in %q", mname, s)
		}
	}

	if key == "space" {
		return []Binding{{Key: tcell.KeyRune, Ch: ' ', Mod: mod}}, nil
	}
	if tk, ok := namedKeys[key]; ok {
		return []Binding{{Key: tk, Mod: mod}}, nil
	}
	if len(key) == 1 {
		r := rune(key[0])
		if r >= 'a' && r <= 'z' {
			return []Binding{
				{Key: tcell.KeyRune, Ch: r, Mod: mod},
				{Key: tcell.KeyRune, Ch: r - 'a' + 'A', Mod: mod},
			}, nil
		}
		return []Binding{{Key: tcell.KeyRune, Ch: r, Mod: mod}}, nil
	}
	runes := []rune(key)
	if len(runes) == 1 {
		return []Binding{{Key: tcell.KeyRune, Ch: runes[0], Mod: mod}}, nil
	}

	return nil, errors.Errorf("unrecognized key %q in %q", key, s)
}

// FromEvent converts a tcell key event into the (key, ch, mod) triple
// Lookup expects.
func FromEvent(ev *tcell.EventKey) (tcell.Key, rune, tcell.ModMask) {
	return ev.Key(), ev.Rune(), ev.Modifiers()
}

// String renders a Binding back to its canonical keystring form, used in
// help screens and error messages.
func (b Binding) String() string {
	var parts []string
	if b.Mod&tcell.ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if b.Mod&tcell.ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if b.Mod&tcell.ModShift != 0 {
		parts = append(parts, "shift")
	}
	switch b.Key {
	case tcell.KeyRune:
		if b.Ch == ' ' {
			parts = append(parts, "space")
		} else {
			parts = append(parts, string(b.Ch))
		}
	default:
		parts = append(parts, keyName(b.Key))
	}
	return strings.Join(parts, "+")
}

func keyName(k tcell.Key) string {
	for name, tk := range namedKeys {
		if tk == k && name != "space" {
			return name
		}
	}
	return fmt.Sprintf("key(%d)", k)
}
