// Package theme implements the Theme Store: named theme files of indexed
// 256-color values for every UI zone, resolved by name, tolerant of
// missing fields via defaults.
package theme

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mongsil1012/opendir/internal/config"
)

// Color is a 256-indexed terminal color. -1 means "use the terminal's
// default color for this slot".
type Color int

const ColorDefault Color = -1

// Style is a foreground/background color pair for one UI zone, with
// optional bold/underline/reverse attributes.
type Style struct {
	Fg        Color `json:"fg"`
	Bg        Color `json:"bg"`
	Bold      bool  `json:"bold,omitempty"`
	Underline bool  `json:"underline,omitempty"`
	Reverse   bool  `json:"reverse,omitempty"`
}

// zones is the fixed field-name space per §4.12: "palette", "panel",
// "panel_active", "panel_selected", "header", "status_bar", "dialog",
// "editor", "viewer", "syntax", "process_manager", "ai_screen".
type zones struct {
	Palette        Style `json:"palette"`
	Panel          Style `json:"panel"`
	PanelActive    Style `json:"panel_active"`
	PanelSelected  Style `json:"panel_selected"`
	Header         Style `json:"header"`
	StatusBar      Style `json:"status_bar"`
	Dialog         Style `json:"dialog"`
	Editor         Style `json:"editor"`
	Viewer         Style `json:"viewer"`
	Syntax         Style `json:"syntax"`
	ProcessManager Style `json:"process_manager"`
	AIScreen       Style `json:"ai_screen"`
}

// Theme is a named collection of zone palettes.
type Theme struct {
	Name string `json:"-"`
	zones
}

// defaultStyle is the fallback used for every zone at Init and whenever
// a loaded file is missing a field.
var defaultStyle = Style{Fg: ColorDefault, Bg: ColorDefault}

var builtin = map[string]zones{
	"dark": {
		Palette:        Style{Fg: 7, Bg: 0},
		Panel:          Style{Fg: 7, Bg: 0},
		PanelActive:    Style{Fg: 15, Bg: 0, Bold: true},
		PanelSelected:  Style{Fg: 0, Bg: 6},
		Header:         Style{Fg: 0, Bg: 6},
		StatusBar:      Style{Fg: 15, Bg: 4},
		Dialog:         Style{Fg: 15, Bg: 17},
		Editor:         Style{Fg: 7, Bg: 0},
		Viewer:         Style{Fg: 7, Bg: 0},
		Syntax:         Style{Fg: 2, Bg: 0},
		ProcessManager: Style{Fg: 7, Bg: 0},
		AIScreen:       Style{Fg: 7, Bg: 0},
	},
	"light": {
		Palette:        Style{Fg: 0, Bg: 15},
		Panel:          Style{Fg: 0, Bg: 15},
		PanelActive:    Style{Fg: 0, Bg: 15, Bold: true},
		PanelSelected:  Style{Fg: 15, Bg: 4},
		Header:         Style{Fg: 15, Bg: 4},
		StatusBar:      Style{Fg: 15, Bg: 4},
		Dialog:         Style{Fg: 0, Bg: 252},
		Editor:         Style{Fg: 0, Bg: 15},
		Viewer:         Style{Fg: 0, Bg: 15},
		Syntax:         Style{Fg: 22, Bg: 15},
		ProcessManager: Style{Fg: 0, Bg: 15},
		AIScreen:       Style{Fg: 0, Bg: 15},
	},
}

// New returns a built-in theme by name, falling back to "dark" if the
// name is unknown.
func New(name string) *Theme {
	z, ok := builtin[name]
	if !ok {
		name = "dark"
		z = builtin["dark"]
	}
	return &Theme{Name: name, zones: z}
}

// zoneField maps a zone's JSON key to its struct field, for the
// present-key check applyDefaults needs.
func (t *Theme) zoneField(key string) *Style {
	switch key {
	case "palette":
		return &t.Palette
	case "panel":
		return &t.Panel
	case "panel_active":
		return &t.PanelActive
	case "panel_selected":
		return &t.PanelSelected
	case "header":
		return &t.Header
	case "status_bar":
		return &t.StatusBar
	case "dialog":
		return &t.Dialog
	case "editor":
		return &t.Editor
	case "viewer":
		return &t.Viewer
	case "syntax":
		return &t.Syntax
	case "process_manager":
		return &t.ProcessManager
	case "ai_screen":
		return &t.AIScreen
	default:
		return nil
	}
}

var allZoneKeys = []string{
	"palette", "panel", "panel_active", "panel_selected", "header",
	"status_bar", "dialog", "editor", "viewer", "syntax",
	"process_manager", "ai_screen",
}

// applyDefaults fills any zone absent from present (the set of JSON keys
// actually found in the loaded file) with defaultStyle — the
// "unknown/missing fields fall back to defaults" rule in §3/§4.12.
func (t *Theme) applyDefaults(present map[string]struct{}) {
	for _, key := range allZoneKeys {
		if _, ok := present[key]; ok {
			continue
		}
		if f := t.zoneField(key); f != nil {
			*f = defaultStyle
		}
	}
}

// ThemesDir returns $HOME/.<app>/themes.
func ThemesDir(app string) (string, error) {
	dir, err := config.AppDir(app)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

// EnsureBuiltins regenerates missing "light.json"/"dark.json" files in
// the themes directory from the built-in defaults at startup, per §4.12.
func EnsureBuiltins(app string) error {
	dir, err := ThemesDir(app)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create themes directory %s", dir)
	}
	for _, name := range []string{"light", "dark"} {
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat theme file %s", path)
		}
		t := New(name)
		if err := writeTheme(path, t); err != nil {
			return err
		}
	}
	return nil
}

func writeTheme(path string, t *Theme) error {
	data, err := json.MarshalIndent(t.zones, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode theme JSON")
	}
	return os.WriteFile(path, data, 0o644)
}

// Load resolves a theme by name from the themes directory, falling back
// to the compiled-in default for that name if the file is absent, and
// applying field-level defaults for anything the file omits.
func Load(app, name string) (*Theme, error) {
	dir, err := ThemesDir(app)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(name), nil
		}
		return nil, errors.Wrapf(err, "failed to read theme file %s", path)
	}

	t := &Theme{Name: name}
	if err := json.Unmarshal(data, &t.zones); err != nil {
		return nil, errors.Wrapf(err, "failed to decode theme file %s", path)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to decode theme file %s", path)
	}
	present := make(map[string]struct{}, len(raw))
	for k := range raw {
		present[k] = struct{}{}
	}
	t.applyDefaults(present)
	return t, nil
}
