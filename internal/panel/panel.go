// Package panel implements the Panel Engine: one or more independent
// file-listing viewports, each with its own path, cached listing, sort
// state, cursor, selection and scroll offset (§4.3).
package panel

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mongsil1012/opendir/internal/config"
	"github.com/mongsil1012/opendir/internal/vfs"
)

// SortKey and SortOrder reuse the Settings Store's vocabulary so a
// panel's live state and its persisted defaults share one type.
type SortKey = config.SortKey
type SortOrder = config.SortOrder

const (
	SortByName = config.SortByName
	SortBySize = config.SortBySize
	SortByDate = config.SortByDate
	SortByType = config.SortByType

	SortAsc  = config.SortAsc
	SortDesc = config.SortDesc
)

// Panel is one independent file-listing viewport (§3).
type Panel struct {
	mutex sync.Mutex

	ID     string
	FS     vfs.Filesystem
	Path   string
	Active bool

	entries   []vfs.Entry
	SortKey   SortKey
	SortOrder SortOrder

	cursor int
	scroll int

	Selection *Selection

	// ShowHidden controls whether dotfiles are included in the listing.
	// Per §4.3, hiding entirely is allowed but the default is to include
	// them.
	ShowHidden bool
}

// New returns a Panel rooted at path on fs, with name/asc defaults.
func New(id string, fs vfs.Filesystem, path string) *Panel {
	return &Panel{
		ID:         id,
		FS:         fs,
		Path:       path,
		SortKey:    SortByName,
		SortOrder:  SortAsc,
		Selection:  NewSelection(),
		ShowHidden: true,
	}
}

// Entries returns the current cached listing, already sorted.
func (p *Panel) Entries() []vfs.Entry {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]vfs.Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Cursor returns the current cursor index, always in [0, max(1,len)).
func (p *Panel) Cursor() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cursor
}

// Scroll returns the current scroll offset.
func (p *Panel) Scroll() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.scroll
}

func (p *Panel) clampCursorLocked() {
	max := len(p.entries)
	if p.cursor >= max {
		p.cursor = max - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// CurrentEntry returns the entry under the cursor, or the zero Entry and
// false if the panel is empty.
func (p *Panel) CurrentEntry() (vfs.Entry, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if len(p.entries) == 0 {
		return vfs.Entry{}, false
	}
	return p.entries[p.cursor], true
}

// Refresh re-lists Path, preserving the cursor on the previously focused
// entry name if it still exists, else clamping (§4.3 navigation
// invariants). Non-readable directories surface the error and leave the
// cache unchanged.
func (p *Panel) Refresh() error {
	entries, err := p.FS.List(p.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to refresh %s", p.Path)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	var focusedName string
	if len(p.entries) > 0 && p.cursor < len(p.entries) {
		focusedName = p.entries[p.cursor].Name
	}

	if !p.ShowHidden {
		filtered := entries[:0:0]
		for _, e := range entries {
			if strings.HasPrefix(e.Name, ".") {
				continue
			}
			filtered = append(filtered, e)
		}
		entries = filtered
	}

	sortEntries(entries, p.SortKey, p.SortOrder)
	p.entries = entries

	if focusedName != "" {
		for i, e := range p.entries {
			if e.Name == focusedName {
				p.cursor = i
				p.clampCursorLocked()
				return nil
			}
		}
	}
	p.clampCursorLocked()
	return nil
}

// compareKey returns -1/0/1 comparing a and b by key, ascending.
func compareKey(a, b vfs.Entry, key SortKey) int {
	switch key {
	case SortBySize:
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	case SortByDate:
		switch {
		case a.Mtime.Before(b.Mtime):
			return -1
		case a.Mtime.After(b.Mtime):
			return 1
		}
		return 0
	case SortByType:
		return strings.Compare(strings.ToLower(extOf(a.Name)), strings.ToLower(extOf(b.Name)))
	default: // SortByName
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

// sortEntries performs a stable sort by key/order; ties break on
// case-insensitive name. Directories group before files when key is
// name or type (§4.3).
func sortEntries(entries []vfs.Entry, key SortKey, order SortOrder) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (key == SortByName || key == SortByType) && a.IsDir != b.IsDir {
			return a.IsDir
		}
		cmp := compareKey(a, b, key)
		if cmp == 0 && key != SortByName {
			cmp = compareKey(a, b, SortByName)
		}
		if order == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

// Enter descends into a directory entry: the panel's path becomes
// Path/entry.Name, and per §4.3 "after enter on a directory the cursor
// resets to 0 and scroll offset to 0".
func (p *Panel) Enter(entry vfs.Entry) error {
	if !entry.IsDir {
		return errors.Errorf("%s is not a directory", entry.Name)
	}
	newPath := p.FS.Join(p.Path, entry.Name)
	if err := p.Goto(newPath); err != nil {
		return err
	}
	p.mutex.Lock()
	p.cursor = 0
	p.scroll = 0
	p.mutex.Unlock()
	return nil
}

// Parent navigates to the parent directory; per §4.3 "after parent the
// cursor is positioned on the directory just left".
func (p *Panel) Parent() error {
	p.mutex.Lock()
	current := p.Path
	p.mutex.Unlock()

	idx := strings.LastIndexByte(strings.TrimRight(current, "/"), '/')
	var parent string
	if idx <= 0 {
		parent = "/"
	} else {
		parent = current[:idx]
	}
	leftName := strings.TrimPrefix(strings.TrimRight(current, "/"), parent)
	leftName = strings.TrimPrefix(leftName, "/")

	if err := p.Goto(parent); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	for i, e := range p.entries {
		if e.Name == leftName {
			p.cursor = i
			break
		}
	}
	p.clampCursorLocked()
	return nil
}

// Goto sets the panel's path and refreshes it. Selection is reset since
// it is scoped to one directory's listing.
func (p *Panel) Goto(path string) error {
	p.mutex.Lock()
	p.Path = path
	p.mutex.Unlock()

	p.Selection.Reset()
	return p.Refresh()
}

// Move shifts the cursor by delta, clamped to the valid range.
func (p *Panel) Move(delta int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cursor += delta
	p.clampCursorLocked()
}

// Jump moves the cursor to the first or last entry.
func (p *Panel) Jump(last bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if last {
		p.cursor = len(p.entries) - 1
	} else {
		p.cursor = 0
	}
	p.clampCursorLocked()
}

// ToggleSelect toggles selection of the entry under the cursor.
func (p *Panel) ToggleSelect() {
	entry, ok := p.CurrentEntry()
	if !ok {
		return
	}
	p.Selection.Toggle(entry.Name)
}

// SelectAll selects every entry currently listed, hidden entries
// included per the Open Question decision in DESIGN.md.
func (p *Panel) SelectAll() {
	for _, e := range p.Entries() {
		p.Selection.Add(e.Name)
	}
}

// SelectByExtension selects every entry whose extension matches ext
// (case-insensitive, without the leading dot).
func (p *Panel) SelectByExtension(ext string) {
	ext = strings.ToLower(ext)
	for _, e := range p.Entries() {
		if !e.IsDir && strings.ToLower(extOf(e.Name)) == ext {
			p.Selection.Add(e.Name)
		}
	}
}

// SortBy changes the sort key and re-sorts the cached listing in place
// (no re-read from the filesystem).
func (p *Panel) SortBy(key SortKey) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.SortKey = key
	sortEntries(p.entries, p.SortKey, p.SortOrder)
}

// CycleOrder flips between ascending and descending order and re-sorts.
func (p *Panel) CycleOrder() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.SortOrder == SortAsc {
		p.SortOrder = SortDesc
	} else {
		p.SortOrder = SortAsc
	}
	sortEntries(p.entries, p.SortKey, p.SortOrder)
}

// ToggleBookmark reports whether Path should be added to or removed from
// the bookmark list; the caller (Input Loop / Settings Store) owns the
// actual persisted list.
func (p *Panel) ToggleBookmark(bookmarks []string) (updated []string, added bool) {
	for i, b := range bookmarks {
		if b == p.Path {
			return append(append([]string{}, bookmarks[:i]...), bookmarks[i+1:]...), false
		}
	}
	return append(append([]string{}, bookmarks...), p.Path), true
}
