// Package viewer implements the read-only scrolling pager (§4.7): text
// and hex modes, incremental search, word-wrap, and per-file bookmarked
// lines. Hand-off to the Editor ("E") is a screen-stack decision made by
// the Input Loop, not by the Viewer itself.
package viewer

import (
	"fmt"
	"sort"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/pkg/errors"
)

// BytesPerHexRow is the fixed row width of hex mode (§4.7).
const BytesPerHexRow = 16

// Viewer is one open, read-only file: its raw bytes, the text lines
// derived from them, and the pager's cursor/search/bookmark state.
type Viewer struct {
	Path string

	raw   []byte
	lines []string

	scroll   int
	hexMode  bool
	wordWrap bool

	bookmarks map[int]struct{}

	findQuery string
	matches   []int
	matchIdx  int
}

// Load reads path through fs into a new Viewer.
func Load(fs vfs.Filesystem, path string) (*Viewer, error) {
	r, err := fs.OpenRead(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer r.Close()

	var sb strings.Builder
	chunk := make([]byte, 64*1024)
	var raw []byte
	for {
		n, rerr := r.Read(chunk)
		raw = append(raw, chunk[:n]...)
		sb.Write(chunk[:n])
		if rerr != nil {
			break
		}
	}

	text := strings.TrimSuffix(sb.String(), "\n")
	return &Viewer{
		Path:      path,
		raw:       raw,
		lines:     strings.Split(text, "\n"),
		bookmarks: make(map[int]struct{}),
	}, nil
}

// LineCount returns the number of text-mode lines.
func (v *Viewer) LineCount() int { return len(v.lines) }

// Line returns text-mode line n (0-based).
func (v *Viewer) Line(n int) string { return v.lines[n] }

// Scroll returns the current scroll offset (line index or hex row).
func (v *Viewer) Scroll() int { return v.scroll }

// ScrollBy moves the scroll offset by delta, clamped to the document.
func (v *Viewer) ScrollBy(delta int) {
	v.scroll += delta
	max := v.maxScroll()
	if v.scroll > max {
		v.scroll = max
	}
	if v.scroll < 0 {
		v.scroll = 0
	}
}

// ScrollTo jumps directly to line/row n, clamped.
func (v *Viewer) ScrollTo(n int) {
	v.scroll = 0
	v.ScrollBy(n)
}

func (v *Viewer) maxScroll() int {
	if v.hexMode {
		rows := (len(v.raw) + BytesPerHexRow - 1) / BytesPerHexRow
		if rows == 0 {
			return 0
		}
		return rows - 1
	}
	if len(v.lines) == 0 {
		return 0
	}
	return len(v.lines) - 1
}

// ToggleHexMode switches between text and hex rendering.
func (v *Viewer) ToggleHexMode() {
	v.hexMode = !v.hexMode
	v.scroll = 0
}

// HexMode reports whether hex mode is active.
func (v *Viewer) HexMode() bool { return v.hexMode }

// ToggleWordWrap flips word-wrap rendering for text mode.
func (v *Viewer) ToggleWordWrap() {
	v.wordWrap = !v.wordWrap
}

// WordWrap reports whether word-wrap rendering is enabled.
func (v *Viewer) WordWrap() bool { return v.wordWrap }

// VisualLines returns the text-mode lines to render for a viewport of
// the given column width, wrapping at rune-width boundaries when
// word-wrap is enabled.
func (v *Viewer) VisualLines(width int) []string {
	if !v.wordWrap || width <= 0 {
		return v.lines
	}
	var out []string
	for _, l := range v.lines {
		s := l
		for {
			if runewidth.StringWidth(s) <= width {
				out = append(out, s)
				break
			}
			cut, acc := 0, 0
			for i, r := range s {
				rw := runewidth.RuneWidth(r)
				if acc+rw > width {
					break
				}
				acc += rw
				cut = i + len(string(r))
			}
			if cut == 0 {
				cut = len(s)
			}
			out = append(out, s[:cut])
			s = s[cut:]
			if s == "" {
				break
			}
		}
	}
	return out
}

// HexRow renders hex-mode row n as "offset  hex bytes  |ascii|", 16
// bytes per row with a printable-ASCII column.
func (v *Viewer) HexRow(n int) string {
	start := n * BytesPerHexRow
	if start >= len(v.raw) {
		return ""
	}
	end := start + BytesPerHexRow
	if end > len(v.raw) {
		end = len(v.raw)
	}
	row := v.raw[start:end]

	var hexPart strings.Builder
	var asciiPart strings.Builder
	for i := 0; i < BytesPerHexRow; i++ {
		if i < len(row) {
			fmt.Fprintf(&hexPart, "%02x ", row[i])
			if row[i] >= 0x20 && row[i] < 0x7f {
				asciiPart.WriteByte(row[i])
			} else {
				asciiPart.WriteByte('.')
			}
		} else {
			hexPart.WriteString("   ")
		}
	}
	return fmt.Sprintf("%08x  %s |%s|", start, hexPart.String(), asciiPart.String())
}

// HexRowCount returns the number of hex-mode rows for the whole file.
func (v *Viewer) HexRowCount() int {
	if len(v.raw) == 0 {
		return 0
	}
	return (len(v.raw) + BytesPerHexRow - 1) / BytesPerHexRow
}

// SetFind recomputes the incremental, case-insensitive substring search
// over text lines and jumps to the first match at or after the current
// scroll position.
func (v *Viewer) SetFind(query string) {
	v.findQuery = query
	v.matches = nil
	v.matchIdx = 0
	if query == "" {
		return
	}
	needle := strings.ToLower(query)
	for i, l := range v.lines {
		if strings.Contains(strings.ToLower(l), needle) {
			v.matches = append(v.matches, i)
		}
	}
	if len(v.matches) == 0 {
		return
	}
	for i, m := range v.matches {
		if m >= v.scroll {
			v.matchIdx = i
			v.ScrollTo(m)
			return
		}
	}
	v.matchIdx = 0
	v.ScrollTo(v.matches[0])
}

// Matches returns the line numbers of the current search's matches.
func (v *Viewer) Matches() []int { return v.matches }

// FindNext scrolls to the next match, wrapping around.
func (v *Viewer) FindNext() (int, bool) {
	if len(v.matches) == 0 {
		return 0, false
	}
	v.matchIdx = (v.matchIdx + 1) % len(v.matches)
	v.ScrollTo(v.matches[v.matchIdx])
	return v.matches[v.matchIdx], true
}

// FindPrev scrolls to the previous match, wrapping around.
func (v *Viewer) FindPrev() (int, bool) {
	if len(v.matches) == 0 {
		return 0, false
	}
	v.matchIdx = (v.matchIdx - 1 + len(v.matches)) % len(v.matches)
	v.ScrollTo(v.matches[v.matchIdx])
	return v.matches[v.matchIdx], true
}

// ToggleBookmark toggles whether line n is bookmarked.
func (v *Viewer) ToggleBookmark(n int) {
	if _, ok := v.bookmarks[n]; ok {
		delete(v.bookmarks, n)
		return
	}
	v.bookmarks[n] = struct{}{}
}

// IsBookmarked reports whether line n is bookmarked.
func (v *Viewer) IsBookmarked(n int) bool {
	_, ok := v.bookmarks[n]
	return ok
}

// sortedBookmarks returns bookmarked line numbers in ascending order.
func (v *Viewer) sortedBookmarks() []int {
	out := make([]int, 0, len(v.bookmarks))
	for n := range v.bookmarks {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// NextBookmark scrolls to the nearest bookmark after the current
// position, wrapping around.
func (v *Viewer) NextBookmark() (int, bool) {
	marks := v.sortedBookmarks()
	if len(marks) == 0 {
		return 0, false
	}
	for _, m := range marks {
		if m > v.scroll {
			v.ScrollTo(m)
			return m, true
		}
	}
	v.ScrollTo(marks[0])
	return marks[0], true
}

// PrevBookmark scrolls to the nearest bookmark before the current
// position, wrapping around.
func (v *Viewer) PrevBookmark() (int, bool) {
	marks := v.sortedBookmarks()
	if len(marks) == 0 {
		return 0, false
	}
	for i := len(marks) - 1; i >= 0; i-- {
		if marks[i] < v.scroll {
			v.ScrollTo(marks[i])
			return marks[i], true
		}
	}
	v.ScrollTo(marks[len(marks)-1])
	return marks[len(marks)-1], true
}
