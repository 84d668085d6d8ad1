// Package editor implements the built-in text editor (§4.6): a
// line-sequence buffer with undo/redo, selection, find/replace, line
// operations, word selection, and word-wrap toggling for rendering. The
// buffer has no word-wise cursor motion.
package editor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/pkg/errors"
)

// MaxFileSize is the hard load cap (§3 EditorBuffer, §4.6 Failure).
const MaxFileSize = 50 * 1024 * 1024

// Position addresses a cursor location by logical line and column, both
// counted in Unicode scalar values (runes), never bytes.
type Position struct {
	Line, Col int
}

// Less reports whether p sorts before o in document order.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

// Selection is an anchor/cursor pair; Normalized returns it in document
// order regardless of which end the cursor is on.
type Selection struct {
	Anchor, Cursor Position
}

func (s Selection) Normalized() (start, end Position) {
	if s.Anchor.Less(s.Cursor) {
		return s.Anchor, s.Cursor
	}
	return s.Cursor, s.Anchor
}

// change is one reversible delta: replacing the text in [Start,End) with
// Inserted, remembering Removed so the edit can be undone. Any mutation
// of the buffer is expressed as exactly one change.
type change struct {
	Start, End       Position
	Removed, Inserted string
}

// Match is one find-result span, in the same (line, col) rune
// coordinates as Position.
type Match struct {
	Start, End Position
}

// Buffer is the editor's in-memory document: a sequence of lines, a
// cursor, an optional selection, and undo/redo stacks of inverse
// deltas, mirroring the teacher's append-and-invalidate buffer
// discipline but made mutable and reversible.
type Buffer struct {
	Path string

	lines     [][]rune
	cursor    Position
	selection *Selection
	clipboard string
	dirty     bool
	wordWrap  bool

	undo []change
	redo []change

	findQuery      string
	findCaseSens   bool
	findRegex      bool
	findWholeWord  bool
	matches        []Match
	matchIndex     int
}

// New returns an empty single-line buffer, as when creating a new file.
func New() *Buffer {
	return &Buffer{lines: [][]rune{{}}}
}

// Load reads path through fs into a fresh Buffer, refusing files over
// MaxFileSize (§4.6 Failure).
func Load(fs vfs.Filesystem, path string) (*Buffer, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.Size > MaxFileSize {
		return nil, errors.Errorf("%s is %d bytes, over the %d byte editor limit", path, info.Size, MaxFileSize)
	}

	r, err := fs.OpenRead(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer r.Close()

	var buf strings.Builder
	chunk := make([]byte, 64*1024)
	for {
		n, rerr := r.Read(chunk)
		buf.Write(chunk[:n])
		if rerr != nil {
			break
		}
	}

	text := strings.TrimSuffix(buf.String(), "\n")
	rawLines := strings.Split(text, "\n")
	lines := make([][]rune, len(rawLines))
	for i, l := range rawLines {
		lines[i] = []rune(l)
	}

	return &Buffer{Path: path, lines: lines}, nil
}

// Save writes the buffer to path atomically (temp file + rename) and
// clears the dirty flag.
func (b *Buffer) Save(fs vfs.Filesystem, path string) error {
	tmp := path + ".tmp"
	w, err := fs.OpenWrite(tmp)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s for writing", tmp)
	}
	if _, err := w.Write([]byte(b.Text())); err != nil {
		w.Close()
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to rename %s to %s", tmp, path)
	}
	b.Path = path
	b.dirty = false
	return nil
}

// Text returns the full document as a single newline-joined string.
func (b *Buffer) Text() string {
	lines := make([]string, len(b.lines))
	for i, l := range b.lines {
		lines[i] = string(l)
	}
	return strings.Join(lines, "\n")
}

// LineCount returns the number of logical lines.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the text of logical line n (0-based).
func (b *Buffer) Line(n int) string { return string(b.lines[n]) }

// Cursor returns the current cursor position.
func (b *Buffer) Cursor() Position { return b.cursor }

// Dirty reports whether the buffer has unsaved changes.
func (b *Buffer) Dirty() bool { return b.dirty }

// SelectionRange returns the active selection, or nil if there is none.
func (b *Buffer) SelectionRange() *Selection { return b.selection }

// clampPosition keeps a position within the current document bounds.
func (b *Buffer) clampPosition(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Col > len(b.lines[p.Line]) {
		p.Col = len(b.lines[p.Line])
	}
	return p
}

// textBetween extracts the document text in [start,end) as a single
// newline-joined string.
func (b *Buffer) textBetween(start, end Position) string {
	if start.Line == end.Line {
		return string(b.lines[start.Line][start.Col:end.Col])
	}
	var sb strings.Builder
	sb.WriteString(string(b.lines[start.Line][start.Col:]))
	for l := start.Line + 1; l < end.Line; l++ {
		sb.WriteByte('\n')
		sb.WriteString(string(b.lines[l]))
	}
	sb.WriteByte('\n')
	sb.WriteString(string(b.lines[end.Line][:end.Col]))
	return sb.String()
}

// endAfterInsert returns the position immediately after inserting text
// at start.
func endAfterInsert(start Position, text string) Position {
	segments := strings.Split(text, "\n")
	if len(segments) == 1 {
		return Position{Line: start.Line, Col: start.Col + len([]rune(segments[0]))}
	}
	return Position{Line: start.Line + len(segments) - 1, Col: len([]rune(segments[len(segments)-1]))}
}

// spliceRaw replaces the document text in [start,end) with newText,
// without touching undo/redo or the dirty flag; it is the one primitive
// every higher-level mutation (and undo/redo itself) goes through.
func (b *Buffer) spliceRaw(start, end Position, newText string) {
	before := b.lines[start.Line][:start.Col]
	after := b.lines[end.Line][end.Col:]

	inserted := strings.Split(newText, "\n")
	newLines := make([][]rune, len(inserted))
	for i, s := range inserted {
		newLines[i] = []rune(s)
	}
	newLines[0] = append(append([]rune{}, before...), newLines[0]...)
	last := len(newLines) - 1
	newLines[last] = append(newLines[last], after...)

	tail := append([][]rune{}, b.lines[end.Line+1:]...)
	b.lines = append(b.lines[:start.Line], append(newLines, tail...)...)
}

// apply performs a reversible edit: replace [start,end) with newText,
// push the inverse onto undo, clear redo, move the cursor to the end of
// the inserted text, and mark the buffer dirty.
func (b *Buffer) apply(start, end Position, newText string) {
	removed := b.textBetween(start, end)
	b.spliceRaw(start, end, newText)
	b.undo = append(b.undo, change{Start: start, End: end, Removed: removed, Inserted: newText})
	b.redo = nil
	b.dirty = true
	b.selection = nil
	b.cursor = endAfterInsert(start, newText)
}

// Undo reverts the most recent change, if any.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	c := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]

	insertedEnd := endAfterInsert(c.Start, c.Inserted)
	b.spliceRaw(c.Start, insertedEnd, c.Removed)
	b.redo = append(b.redo, c)
	b.cursor = c.Start
	b.dirty = len(b.undo) > 0
	return true
}

// Redo re-applies the most recently undone change, if any.
func (b *Buffer) Redo() bool {
	if len(b.redo) == 0 {
		return false
	}
	c := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]

	removedEnd := endAfterInsert(c.Start, c.Removed)
	b.spliceRaw(c.Start, removedEnd, c.Inserted)
	b.undo = append(b.undo, c)
	b.cursor = endAfterInsert(c.Start, c.Inserted)
	b.dirty = true
	return true
}

// InsertRune inserts r at the cursor, or replaces the selection with it
// if one is active.
func (b *Buffer) InsertRune(r rune) {
	start, end := b.deleteTarget()
	b.apply(start, end, string(r))
}

// InsertNewline splits the current line at the cursor.
func (b *Buffer) InsertNewline() {
	start, end := b.deleteTarget()
	b.apply(start, end, "\n")
}

// deleteTarget returns the range a single-character mutation should
// replace: the active selection if any, else the zero-width cursor.
func (b *Buffer) deleteTarget() (Position, Position) {
	if b.selection != nil {
		return b.selection.Normalized()
	}
	return b.cursor, b.cursor
}

// DeleteBackward deletes the selection, or one rune before the cursor.
func (b *Buffer) DeleteBackward() {
	if b.selection != nil {
		start, end := b.selection.Normalized()
		b.apply(start, end, "")
		return
	}
	if b.cursor.Col > 0 {
		start := Position{Line: b.cursor.Line, Col: b.cursor.Col - 1}
		b.apply(start, b.cursor, "")
		return
	}
	if b.cursor.Line > 0 {
		start := Position{Line: b.cursor.Line - 1, Col: len(b.lines[b.cursor.Line-1])}
		b.apply(start, b.cursor, "")
	}
}

// DeleteForward deletes the selection, or one rune after the cursor.
func (b *Buffer) DeleteForward() {
	if b.selection != nil {
		start, end := b.selection.Normalized()
		b.apply(start, end, "")
		return
	}
	if b.cursor.Col < len(b.lines[b.cursor.Line]) {
		end := Position{Line: b.cursor.Line, Col: b.cursor.Col + 1}
		b.apply(b.cursor, end, "")
		return
	}
	if b.cursor.Line < len(b.lines)-1 {
		end := Position{Line: b.cursor.Line + 1, Col: 0}
		b.apply(b.cursor, end, "")
	}
}

// MoveCursor repositions the cursor, clamping to document bounds, and
// drops any active selection (use ExtendSelection to keep one).
func (b *Buffer) MoveCursor(p Position) {
	b.cursor = b.clampPosition(p)
	b.selection = nil
}

// ExtendSelection moves the cursor to p while keeping (or starting) a
// selection anchored at the current cursor, for Shift+motion.
func (b *Buffer) ExtendSelection(p Position) {
	if b.selection == nil {
		b.selection = &Selection{Anchor: b.cursor}
	}
	b.cursor = b.clampPosition(p)
	b.selection.Cursor = b.cursor
}

// isWordRune reports whether r is part of a word, per §4.6's
// "non-alphanumeric"-bounded word definition.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// SelectWord selects the word (or run of non-word characters)
// containing the cursor.
func (b *Buffer) SelectWord() {
	line := b.lines[b.cursor.Line]
	col := b.cursor.Col
	if col >= len(line) {
		col = len(line) - 1
	}
	if col < 0 {
		return
	}
	word := isWordRune(line[col])
	start, end := col, col+1
	for start > 0 && isWordRune(line[start-1]) == word {
		start--
	}
	for end < len(line) && isWordRune(line[end]) == word {
		end++
	}
	b.selection = &Selection{Anchor: Position{Line: b.cursor.Line, Col: start}, Cursor: Position{Line: b.cursor.Line, Col: end}}
	b.cursor = b.selection.Cursor
}

// SelectLine selects the cursor's current logical line, including its
// trailing newline (unless it's the last line).
func (b *Buffer) SelectLine() {
	end := Position{Line: b.cursor.Line + 1, Col: 0}
	if b.cursor.Line == len(b.lines)-1 {
		end = Position{Line: b.cursor.Line, Col: len(b.lines[b.cursor.Line])}
	}
	b.selection = &Selection{Anchor: Position{Line: b.cursor.Line, Col: 0}, Cursor: end}
	b.cursor = end
}

// SelectAll selects the whole document.
func (b *Buffer) SelectAll() {
	last := len(b.lines) - 1
	b.selection = &Selection{Anchor: Position{Line: 0, Col: 0}, Cursor: Position{Line: last, Col: len(b.lines[last])}}
	b.cursor = b.selection.Cursor
}

// Copy copies the selection (or the current line, if no selection) to
// the clipboard without mutating the buffer.
func (b *Buffer) Copy() {
	if b.selection != nil {
		start, end := b.selection.Normalized()
		b.clipboard = b.textBetween(start, end)
		return
	}
	b.clipboard = b.Line(b.cursor.Line)
}

// Cut copies then deletes the selection (or current line when empty).
func (b *Buffer) Cut() {
	if b.selection != nil {
		start, end := b.selection.Normalized()
		b.clipboard = b.textBetween(start, end)
		b.apply(start, end, "")
		return
	}
	start := Position{Line: b.cursor.Line, Col: 0}
	end := Position{Line: b.cursor.Line, Col: len(b.lines[b.cursor.Line])}
	if b.cursor.Line < len(b.lines)-1 {
		end = Position{Line: b.cursor.Line + 1, Col: 0}
	}
	b.clipboard = b.textBetween(start, end)
	b.apply(start, end, "")
}

// Paste inserts the clipboard contents at the cursor (replacing the
// selection, if any).
func (b *Buffer) Paste() {
	start, end := b.deleteTarget()
	b.apply(start, end, b.clipboard)
}

// Line operations (§4.6).

// DeleteLine removes the cursor's current line entirely.
func (b *Buffer) DeleteLine() {
	if len(b.lines) == 1 {
		b.apply(Position{0, 0}, Position{0, len(b.lines[0])}, "")
		return
	}
	start := Position{Line: b.cursor.Line, Col: 0}
	end := Position{Line: b.cursor.Line + 1, Col: 0}
	if b.cursor.Line == len(b.lines)-1 {
		start = Position{Line: b.cursor.Line - 1, Col: len(b.lines[b.cursor.Line-1])}
		end = Position{Line: b.cursor.Line, Col: len(b.lines[b.cursor.Line])}
	}
	b.apply(start, end, "")
}

// DuplicateLine inserts a copy of the cursor's line directly below it.
func (b *Buffer) DuplicateLine() {
	text := b.Line(b.cursor.Line)
	end := Position{Line: b.cursor.Line, Col: len(b.lines[b.cursor.Line])}
	b.apply(end, end, "\n"+text)
}

// MoveLineUp swaps the cursor's line with the one above it.
func (b *Buffer) MoveLineUp() {
	if b.cursor.Line == 0 {
		return
	}
	b.swapLines(b.cursor.Line-1, b.cursor.Line)
	b.cursor.Line--
}

// MoveLineDown swaps the cursor's line with the one below it.
func (b *Buffer) MoveLineDown() {
	if b.cursor.Line >= len(b.lines)-1 {
		return
	}
	b.swapLines(b.cursor.Line, b.cursor.Line+1)
	b.cursor.Line++
}

func (b *Buffer) swapLines(i, j int) {
	start := Position{Line: i, Col: 0}
	end := Position{Line: j, Col: len(b.lines[j])}
	combined := b.Line(j) + "\n" + b.Line(i)
	b.apply(start, end, combined)
}

// InsertBlankAbove inserts an empty line above the cursor's line.
func (b *Buffer) InsertBlankAbove() {
	start := Position{Line: b.cursor.Line, Col: 0}
	b.apply(start, start, "\n")
	b.cursor.Line--
}

// InsertBlankBelow inserts an empty line below the cursor's line.
func (b *Buffer) InsertBlankBelow() {
	end := Position{Line: b.cursor.Line, Col: len(b.lines[b.cursor.Line])}
	b.apply(end, end, "\n")
}

// GoToLine moves the cursor to the start of the given 1-based line
// number, clamped to the document.
func (b *Buffer) GoToLine(n int) {
	b.cursor = b.clampPosition(Position{Line: n - 1, Col: 0})
	b.selection = nil
}

// ToggleWordWrap flips the word-wrap rendering flag; logical lines are
// never affected, only VisualLines' output.
func (b *Buffer) ToggleWordWrap() {
	b.wordWrap = !b.wordWrap
}

// WordWrap reports whether word-wrap rendering is enabled.
func (b *Buffer) WordWrap() bool { return b.wordWrap }

// VisualLines returns the lines to render for a viewport of the given
// column width: the logical lines unchanged if word-wrap is off, or
// each logical line broken at rune-width boundaries if it's on.
func (b *Buffer) VisualLines(width int) []string {
	if !b.wordWrap || width <= 0 {
		out := make([]string, len(b.lines))
		for i, l := range b.lines {
			out[i] = string(l)
		}
		return out
	}

	var out []string
	for _, l := range b.lines {
		s := string(l)
		for {
			w := runewidth.StringWidth(s)
			if w <= width {
				out = append(out, s)
				break
			}
			cut := 0
			acc := 0
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

// Find (§4.6): case-sensitive, regex, and whole-word toggles, with
// matches highlighted and a "n/N" current-index readout.

// SetFind recomputes the match list for query under the given mode
// flags. No match is current until FindNext or FindPrev is called.
func (b *Buffer) SetFind(query string, caseSensitive, useRegex, wholeWord bool) error {
	b.findQuery, b.findCaseSens, b.findRegex, b.findWholeWord = query, caseSensitive, useRegex, wholeWord
	b.matches = nil
	b.matchIndex = -1
	if query == "" {
		return nil
	}

	var re *regexp.Regexp
	var err error
	pattern := query
	if !useRegex {
		pattern = regexp.QuoteMeta(query)
	}
	if wholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err = regexp.Compile(pattern)
	if err != nil {
		return errors.Wrapf(err, "invalid find pattern %q", query)
	}

	for lineNo, l := range b.lines {
		s := string(l)
		for _, loc := range re.FindAllStringIndex(s, -1) {
			startCol := len([]rune(s[:loc[0]]))
			endCol := len([]rune(s[:loc[1]]))
			b.matches = append(b.matches, Match{
				Start: Position{Line: lineNo, Col: startCol},
				End:   Position{Line: lineNo, Col: endCol},
			})
		}
	}
	return nil
}

// Matches returns the current find results.
func (b *Buffer) Matches() []Match { return b.matches }

// FindNext advances to and returns the next match, wrapping around.
func (b *Buffer) FindNext() (Match, bool) {
	if len(b.matches) == 0 {
		return Match{}, false
	}
	b.matchIndex = (b.matchIndex + 1) % len(b.matches)
	m := b.matches[b.matchIndex]
	b.cursor = m.Start
	return m, true
}

// FindPrev moves to and returns the previous match, wrapping around.
func (b *Buffer) FindPrev() (Match, bool) {
	if len(b.matches) == 0 {
		return Match{}, false
	}
	if b.matchIndex < 0 {
		b.matchIndex = 0
	}
	b.matchIndex = (b.matchIndex - 1 + len(b.matches)) % len(b.matches)
	m := b.matches[b.matchIndex]
	b.cursor = m.Start
	return m, true
}

// MatchLabel renders the current match position as "n/N", or "0/0"
// when there are no matches or no match is current yet.
func (b *Buffer) MatchLabel() string {
	if len(b.matches) == 0 || b.matchIndex < 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", b.matchIndex+1, len(b.matches))
}

// ReplaceCurrent replaces the currently selected match with text and
// recomputes the match list over the whole buffer; no match is current
// afterwards. It does nothing when no match is current.
func (b *Buffer) ReplaceCurrent(text string) {
	if len(b.matches) == 0 || b.matchIndex < 0 {
		return
	}
	m := b.matches[b.matchIndex]
	b.apply(m.Start, m.End, text)
	b.SetFind(b.findQuery, b.findCaseSens, b.findRegex, b.findWholeWord)
}

// ReplaceAll replaces every match with text, processing matches in
// reverse document order so earlier offsets stay valid.
func (b *Buffer) ReplaceAll(text string) int {
	n := len(b.matches)
	for i := n - 1; i >= 0; i-- {
		m := b.matches[i]
		b.apply(m.Start, m.End, text)
	}
	b.SetFind("", false, false, false)
	return n
}
