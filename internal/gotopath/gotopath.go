// Package gotopath implements the Go-to-Path Dialog (§4.4): a dual-mode
// input overlay that autocompletes filesystem paths or filters saved
// bookmarks and remote profiles, depending on what the user has typed.
package gotopath

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mongsil1012/opendir/internal/config"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/mongsil1012/opendir/query"
)

// Mode is which half of the dual-mode dialog is active, decided purely
// by the leading character of the typed input and re-evaluated on every
// keystroke.
type Mode int

const (
	ModeBookmark Mode = iota
	ModePath
)

// DetectMode implements the mode-selection rule: input starting with
// "/" or "~" is path mode, everything else is bookmark mode.
func DetectMode(input string) Mode {
	if strings.HasPrefix(input, "/") || strings.HasPrefix(input, "~") {
		return ModePath
	}
	return ModeBookmark
}

// Candidate is one row of the autocomplete/filter list, covering both
// path-mode directory entries and bookmark-mode bookmarks/profiles.
type Candidate struct {
	Display string
	Path    string
	IsDir   bool
	Profile *config.RemoteProfile
}

// ActionKind is what the caller (the Input Loop) must do in response to
// Enter, Tab, or a dialog hotkey.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionNavigate
	ActionOpenConnectionDialog
	ActionDeleteBookmark
	ActionDeleteProfile
	ActionEditProfile
	ActionToggleBookmark
)

// Action is the result of feeding a key to the Dialog; the caller
// interprets Kind and the relevant fields.
type Action struct {
	Kind       ActionKind
	Path       string // ActionNavigate, ActionToggleBookmark
	CursorName string // ActionNavigate: entry to focus after opening Path
	Profile    *config.RemoteProfile
	Index      int // ActionDeleteBookmark / ActionDeleteProfile: index in the source slice
}

// Dialog is the Go-to-Path overlay's state: the typed input, caret
// position, and the most recently computed candidate list.
type Dialog struct {
	input       *query.Query
	caret       int
	candidates  []Candidate
	listVisible bool
	selected    int
}

// New returns an empty Go-to-Path dialog.
func New() *Dialog {
	return &Dialog{input: query.New()}
}

// Mode reports the dialog's current mode, derived from the typed input.
func (d *Dialog) Mode() Mode {
	return DetectMode(d.input.String())
}

// Input returns the text typed so far.
func (d *Dialog) Input() string {
	return d.input.String()
}

// InsertRune inserts r at the caret and invalidates the candidate list.
func (d *Dialog) InsertRune(r rune) {
	d.input.InsertAt(r, d.caret)
	d.caret++
	d.listVisible = false
}

// Backspace deletes the rune before the caret, if any.
func (d *Dialog) Backspace() {
	if d.caret == 0 {
		return
	}
	d.input.DeleteRange(d.caret-1, d.caret)
	d.caret--
	d.listVisible = false
}

// Reset clears the dialog back to its initial empty state.
func (d *Dialog) Reset() {
	d.input.Reset()
	d.caret = 0
	d.candidates = nil
	d.listVisible = false
	d.selected = 0
}

// Candidates returns the most recently computed list (populated by
// RefreshPathCandidates / RefreshBookmarkCandidates).
func (d *Dialog) Candidates() []Candidate {
	return d.candidates
}

// ListVisible reports whether the autocomplete/filter list is currently
// shown, distinct from the dialog itself being open (used by Esc).
func (d *Dialog) ListVisible() bool {
	return d.listVisible
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// splitPathInput separates the typed path input into the directory to
// list and the prefix/substring already typed for the entry being
// completed, expanding a leading "~" to home.
func splitPathInput(input, home string) (dir, typed string) {
	expanded := input
	if expanded == "~" {
		expanded = home
	} else if strings.HasPrefix(expanded, "~/") {
		expanded = home + expanded[1:]
	}

	if strings.HasSuffix(expanded, "/") {
		return filepath.Clean(expanded), ""
	}
	dir = filepath.Dir(expanded)
	typed = filepath.Base(expanded)
	if expanded == "" || expanded == "." {
		dir, typed = "/", ""
	}
	return dir, typed
}

// RefreshPathCandidates lists the directory implied by the current
// input and filters it by case-insensitive substring, per path-mode.
func (d *Dialog) RefreshPathCandidates(fs vfs.Filesystem, home string) error {
	dir, typed := splitPathInput(d.input.String(), home)
	entries, err := fs.List(dir)
	if err != nil {
		d.candidates = nil
		return err
	}

	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if typed != "" && !containsFold(e.Name, typed) {
			continue
		}
		out = append(out, Candidate{
			Display: e.Name,
			Path:    fs.Join(dir, e.Name),
			IsDir:   e.IsDir,
		})
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Display) < strings.ToLower(out[j].Display) })

	d.candidates = out
	d.listVisible = len(out) > 0
	d.selected = 0
	return nil
}

// RefreshBookmarkCandidates filters saved bookmarks and remote profiles
// by substring on their display string, per bookmark-mode.
func (d *Dialog) RefreshBookmarkCandidates(settings *config.Settings) {
	typed := d.input.String()
	out := make([]Candidate, 0, len(settings.Bookmarks)+len(settings.RemoteProfiles))

	for _, b := range settings.Bookmarks {
		if typed != "" && !containsFold(b, typed) {
			continue
		}
		out = append(out, Candidate{Display: b, Path: b})
	}
	for i := range settings.RemoteProfiles {
		p := &settings.RemoteProfiles[i]
		display := p.User + "@" + p.Host
		if typed != "" && !containsFold(display, typed) {
			continue
		}
		out = append(out, Candidate{Display: display, Profile: p})
	}

	d.candidates = out
	d.listVisible = len(out) > 0
	d.selected = 0
}

// longestCommonPrefix returns the longest byte-wise prefix shared by all
// of names; empty if names is empty.
func longestCommonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, n := range names[1:] {
		i := 0
		for i < len(prefix) && i < len(n) && prefix[i] == n[i] {
			i++
		}
		prefix = prefix[:i]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// Tab applies the selected completion in path mode: a single match is
// filled in fully, multiple matches are completed to their longest
// common prefix and the list stays visible. Bookmark mode has no
// separate Tab behavior; the caller should treat it identically to
// Enter for that mode (§4.4).
func (d *Dialog) Tab(fs vfs.Filesystem, home string) error {
	if d.Mode() != ModePath {
		return nil
	}
	if err := d.RefreshPathCandidates(fs, home); err != nil {
		return err
	}
	if len(d.candidates) == 0 {
		return nil
	}

	dir, _ := splitPathInput(d.input.String(), home)
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.Display
	}

	var completed string
	if len(names) == 1 {
		completed = names[0]
	} else {
		completed = longestCommonPrefix(names)
	}

	newInput := fs.Join(dir, completed)
	if len(names) == 1 && d.candidates[0].IsDir {
		newInput += "/"
	}
	d.input.Set(newInput)
	d.caret = d.input.Len()
	return nil
}

// Enter resolves the current selection into an Action for the caller to
// execute, per the path-mode and bookmark-mode Enter contracts in §4.4.
func (d *Dialog) Enter(fs vfs.Filesystem, home string) Action {
	switch d.Mode() {
	case ModePath:
		return d.enterPath(fs, home)
	default:
		return d.enterBookmark()
	}
}

func (d *Dialog) enterPath(fs vfs.Filesystem, home string) Action {
	target := d.input.String()
	if target == "~" {
		target = home
	} else if strings.HasPrefix(target, "~/") {
		target = home + target[1:]
	}
	if d.selected < len(d.candidates) && d.listVisible {
		target = d.candidates[d.selected].Path
	}

	entry, err := fs.Stat(target)
	if err != nil {
		return Action{Kind: ActionNone}
	}
	if entry.IsDir {
		return Action{Kind: ActionNavigate, Path: target}
	}
	return Action{Kind: ActionNavigate, Path: filepath.Dir(target), CursorName: filepath.Base(target)}
}

func (d *Dialog) enterBookmark() Action {
	if d.selected >= len(d.candidates) {
		return Action{Kind: ActionNone}
	}
	c := d.candidates[d.selected]
	if c.Profile != nil {
		return Action{Kind: ActionOpenConnectionDialog, Profile: c.Profile}
	}
	return Action{Kind: ActionNavigate, Path: c.Path}
}

// DeleteSelected implements Ctrl+D in bookmark mode: delete the selected
// bookmark or remote profile. The caller is responsible for actually
// mutating the Settings Store and persisting it; this only identifies
// what to delete.
func (d *Dialog) DeleteSelected(settings *config.Settings) Action {
	if d.Mode() != ModeBookmark || d.selected >= len(d.candidates) {
		return Action{Kind: ActionNone}
	}
	c := d.candidates[d.selected]
	if c.Profile != nil {
		for i := range settings.RemoteProfiles {
			if &settings.RemoteProfiles[i] == c.Profile {
				return Action{Kind: ActionDeleteProfile, Index: i}
			}
		}
		return Action{Kind: ActionNone}
	}
	for i, b := range settings.Bookmarks {
		if b == c.Path {
			return Action{Kind: ActionDeleteBookmark, Index: i}
		}
	}
	return Action{Kind: ActionNone}
}

// EditSelected implements Ctrl+E: edit the selected remote profile.
func (d *Dialog) EditSelected() Action {
	if d.Mode() != ModeBookmark || d.selected >= len(d.candidates) {
		return Action{Kind: ActionNone}
	}
	c := d.candidates[d.selected]
	if c.Profile == nil {
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionEditProfile, Profile: c.Profile}
}

// ToggleCurrentPath implements the "'" hotkey: toggle whether panelPath
// is bookmarked.
func (d *Dialog) ToggleCurrentPath(panelPath string) Action {
	return Action{Kind: ActionToggleBookmark, Path: panelPath}
}

// Escape implements the termination rule: hide the list if visible,
// otherwise signal the dialog should close.
func (d *Dialog) Escape() Action {
	if d.listVisible {
		d.listVisible = false
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionClose}
}

// MoveSelection moves the highlighted candidate by delta, clamped to
// the candidate list bounds.
func (d *Dialog) MoveSelection(delta int) {
	if len(d.candidates) == 0 {
		return
	}
	d.selected += delta
	if d.selected < 0 {
		d.selected = 0
	}
	if d.selected >= len(d.candidates) {
		d.selected = len(d.candidates) - 1
	}
}

// Selected returns the index of the currently highlighted candidate.
func (d *Dialog) Selected() int {
	return d.selected
}
