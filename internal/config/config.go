// Package config implements the Settings Store: loads and persists the
// JSON configuration file holding per-panel preferences, theme selection,
// keybinding overrides, extension handlers, bookmarks and remote-server
// profiles.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"

	"github.com/mongsil1012/opendir/internal/util"
)

// SortKey is a panel's sort key, one of {name, size, date, type}.
type SortKey string

const (
	SortByName SortKey = "name"
	SortBySize SortKey = "size"
	SortByDate SortKey = "date"
	SortByType SortKey = "type"
)

// SortOrder is a panel's sort order, one of {asc, desc}.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PanelDefaults holds the persisted defaults for one panel (left or right).
type PanelDefaults struct {
	Path      string    `json:"path"`
	SortKey   SortKey   `json:"sort_key"`
	SortOrder SortOrder `json:"sort_order"`
	ShowHidden bool     `json:"show_hidden"`
}

func (p *PanelDefaults) applyDefaults() {
	if p.SortKey == "" {
		p.SortKey = SortByName
	}
	if p.SortOrder == "" {
		p.SortOrder = SortAsc
	}
	if p.Path == "" {
		p.Path = "."
	}
}

// AuthMode is a RemoteProfile's authentication mode.
type AuthMode string

const (
	AuthPassword AuthMode = "password"
	AuthKeyFile  AuthMode = "keyfile"
)

// RemoteProfile is a saved remote connection configuration (§3).
type RemoteProfile struct {
	Name       string   `json:"name"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	User       string   `json:"user"`
	Auth       AuthMode `json:"auth"`
	KeyPath    string   `json:"key_path,omitempty"`
	CredsRef   string   `json:"creds_ref,omitempty"`
}

func (p *RemoteProfile) applyDefaults() {
	if p.Port == 0 {
		p.Port = 22
	}
	if p.Auth == "" {
		p.Auth = AuthPassword
	}
}

// ExtensionHandlerConfig maps a pipe-delimited, case-insensitive extension
// pattern to an ordered list of command templates.
type ExtensionHandlerConfig struct {
	Commands []string `json:"commands"`
}

// ThemeConfig selects the active theme by name.
type ThemeConfig struct {
	Name string `json:"name"`
}

func (t *ThemeConfig) applyDefaults() {
	if t.Name == "" {
		t.Name = "dark"
	}
}

// Settings holds all data persisted in the Settings Store (§4.2, §6).
//
// Any field absent in the file takes a typed default. Unknown top-level
// keys are preserved on round-trip via extra.
type Settings struct {
	LeftPanel        PanelDefaults                     `json:"left_panel"`
	RightPanel       PanelDefaults                     `json:"right_panel"`
	ActivePanel      string                             `json:"active_panel"`
	Theme            ThemeConfig                        `json:"theme"`
	ExtensionHandler map[string]ExtensionHandlerConfig  `json:"extension_handler"`
	Bookmarks        []string                           `json:"bookmarks"`
	RemoteProfiles   []RemoteProfile                    `json:"remote_profiles"`
	Keybindings      map[string]map[string][]string     `json:"keybindings"`

	extra map[string]json.RawMessage
}

// known top-level keys, used to separate recognized fields from the
// pass-through "extra" bag on decode/encode.
var knownKeys = map[string]struct{}{
	"left_panel": {}, "right_panel": {}, "active_panel": {}, "theme": {},
	"extension_handler": {}, "bookmarks": {}, "remote_profiles": {}, "keybindings": {},
}

// New returns Settings with all typed defaults applied.
func New() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	s.LeftPanel.applyDefaults()
	s.RightPanel.applyDefaults()
	if s.ActivePanel == "" {
		s.ActivePanel = "left"
	}
	s.Theme.applyDefaults()
	if s.ExtensionHandler == nil {
		s.ExtensionHandler = map[string]ExtensionHandlerConfig{}
	}
	if s.Keybindings == nil {
		s.Keybindings = map[string]map[string][]string{}
	}
	for i := range s.RemoteProfiles {
		s.RemoteProfiles[i].applyDefaults()
	}
}

// UnmarshalJSON decodes known fields via the default struct tags and
// preserves unrecognized top-level keys verbatim for round-tripping.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type alias Settings
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return errors.Wrap(err, "failed to decode settings JSON")
	}
	*s = Settings(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to decode settings JSON")
	}
	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		extra[k] = v
	}
	s.extra = extra
	s.applyDefaults()
	return nil
}

// MarshalJSON encodes known fields plus any preserved unrecognized keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	type alias Settings
	known, err := json.Marshal(alias(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.extra {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte("{")
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, merged[k]...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ReadFilename loads Settings from filename, dispatching on extension
// (".yaml"/".yml" via go-yaml, everything else as JSON), mirroring the
// teacher's Config.ReadFilename.
func ReadFilename(filename string) (*Settings, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open settings file %s", filename)
	}
	defer f.Close()

	s := &Settings{}
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(s); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings YAML")
		}
		s.applyDefaults()
	default:
		if err := json.NewDecoder(f).Decode(s); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings JSON")
		}
	}
	return s, nil
}

// WriteFilename persists Settings to filename atomically (write to a
// temp file in the same directory, then rename), per §3's
// "writes serialize to disk atomically" invariant.
func WriteFilename(filename string, s *Settings) (err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("config.WriteFilename %s", filename)
		defer g.End()
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create settings directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp settings file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err = enc.Encode(s); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to encode settings JSON")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp settings file")
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return errors.Wrapf(err, "failed to rename temp settings file to %s", filename)
	}
	return nil
}

// AppDir returns $HOME/.<app>, the settings/themes/lastdir root from §6.
func AppDir(app string) (string, error) {
	home, err := util.Homedir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, "."+app), nil
}

// SettingsPath returns $HOME/.<app>/settings.json.
func SettingsPath(app string) (string, error) {
	dir, err := AppDir(app)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// LastDirPath returns $HOME/.<app>/lastdir.
func LastDirPath(app string) (string, error) {
	dir, err := AppDir(app)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lastdir"), nil
}

// Load reads settings.json for app, returning New() defaults if the file
// does not exist.
func Load(app string) (*Settings, error) {
	path, err := SettingsPath(app)
	if err != nil {
		return nil, err
	}
	s, err := ReadFilename(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return New(), nil
		}
		return nil, err
	}
	return s, nil
}

// Save persists settings to $HOME/.<app>/settings.json atomically.
func Save(app string, s *Settings) error {
	path, err := SettingsPath(app)
	if err != nil {
		return err
	}
	return WriteFilename(path, s)
}

// WriteLastDir records the last active panel's path for the shell
// wrapper described in §6.
func WriteLastDir(app, path string) error {
	file, err := LastDirPath(app)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create app directory for %s", file)
	}
	return os.WriteFile(file, []byte(path), 0o644)
}
