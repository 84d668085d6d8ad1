// Package diffengine implements the Diff Engine (§4.8): recursive
// directory comparison and line-level LCS file diffing with
// side-by-side hunk alignment.
package diffengine

import (
	"crypto/sha256"
	"io"
	"strings"

	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/pkg/errors"
)

// EntryClass is a directory-diff path's classification (§4.8).
type EntryClass int

const (
	LeftOnly EntryClass = iota
	RightOnly
	Identical
	Modified
)

func (c EntryClass) String() string {
	switch c {
	case LeftOnly:
		return "left-only"
	case RightOnly:
		return "right-only"
	case Identical:
		return "identical"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// DirEntry is one path's comparison result.
type DirEntry struct {
	Path  string
	IsDir bool
	Class EntryClass
}

// collectRelative walks root on fs, returning every entry keyed by its
// path relative to root (the root itself is excluded).
func collectRelative(fs vfs.Filesystem, root string) (map[string]vfs.Entry, error) {
	out := make(map[string]vfs.Entry)
	err := fs.Walk(root, func(p string, entry vfs.Entry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := strings.TrimPrefix(p, root)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return nil
		}
		out[rel] = entry
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}
	return out, nil
}

// contentHash returns the sha256 digest of path's full content,
// streamed rather than buffered, to decide "modified" for two
// equal-size files without holding both in memory.
func contentHash(fs vfs.Filesystem, path string) ([]byte, error) {
	r, err := fs.OpenRead(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, errors.Wrapf(err, "failed to hash %s", path)
	}
	return h.Sum(nil), nil
}

// DiffDirs recursively compares leftRoot on leftFS with rightRoot on
// rightFS, classifying every path found on either side. Filesystems may
// differ (e.g. local vs remote), and neither side is assumed to be the
// "canonical" one.
func DiffDirs(leftFS vfs.Filesystem, leftRoot string, rightFS vfs.Filesystem, rightRoot string) ([]DirEntry, error) {
	left, err := collectRelative(leftFS, leftRoot)
	if err != nil {
		return nil, err
	}
	right, err := collectRelative(rightFS, rightRoot)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]struct{}, len(left)+len(right))
	for p := range left {
		paths[p] = struct{}{}
	}
	for p := range right {
		paths[p] = struct{}{}
	}

	out := make([]DirEntry, 0, len(paths))
	for p := range paths {
		le, lok := left[p]
		re, rok := right[p]

		switch {
		case lok && !rok:
			out = append(out, DirEntry{Path: p, IsDir: le.IsDir, Class: LeftOnly})
		case rok && !lok:
			out = append(out, DirEntry{Path: p, IsDir: re.IsDir, Class: RightOnly})
		case le.IsDir && re.IsDir:
			out = append(out, DirEntry{Path: p, IsDir: true, Class: Identical})
		case le.IsDir != re.IsDir:
			out = append(out, DirEntry{Path: p, IsDir: le.IsDir, Class: Modified})
		case le.Size != re.Size:
			out = append(out, DirEntry{Path: p, Class: Modified})
		default:
			lh, err := contentHash(leftFS, leftFS.Join(leftRoot, p))
			if err != nil {
				return nil, err
			}
			rh, err := contentHash(rightFS, rightFS.Join(rightRoot, p))
			if err != nil {
				return nil, err
			}
			class := Identical
			if string(lh) != string(rh) {
				class = Modified
			}
			out = append(out, DirEntry{Path: p, Class: class})
		}
	}
	return out, nil
}

// SpanKind is one line-diff operation's role in the edit script.
type SpanKind int

const (
	SpanEqual SpanKind = iota
	SpanDelete
	SpanInsert
)

// Span is one line of a file diff's edit script: an unchanged line, a
// line present only on the left (deleted), or only on the right
// (inserted).
type Span struct {
	Kind SpanKind
	Text string
}

// DiffLines computes the line-level LCS edit script turning left into
// right, as a sequence of equal/delete/insert spans (§4.8).
func DiffLines(left, right []string) []Span {
	n, m := len(left), len(right)
	// lcsLen[i][j] = length of the LCS of left[i:] and right[j:].
	lcsLen := make([][]int, n+1)
	for i := range lcsLen {
		lcsLen[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if left[i] == right[j] {
				lcsLen[i][j] = lcsLen[i+1][j+1] + 1
			} else if lcsLen[i+1][j] >= lcsLen[i][j+1] {
				lcsLen[i][j] = lcsLen[i+1][j]
			} else {
				lcsLen[i][j] = lcsLen[i][j+1]
			}
		}
	}

	var spans []Span
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case left[i] == right[j]:
			spans = append(spans, Span{Kind: SpanEqual, Text: left[i]})
			i++
			j++
		case lcsLen[i+1][j] >= lcsLen[i][j+1]:
			spans = append(spans, Span{Kind: SpanDelete, Text: left[i]})
			i++
		default:
			spans = append(spans, Span{Kind: SpanInsert, Text: right[j]})
			j++
		}
	}
	for ; i < n; i++ {
		spans = append(spans, Span{Kind: SpanDelete, Text: left[i]})
	}
	for ; j < m; j++ {
		spans = append(spans, Span{Kind: SpanInsert, Text: right[j]})
	}
	return spans
}

// Row is one line of a side-by-side diff view: matching content on
// both sides for equal spans, or one side blank for a pure
// insert/delete, or both sides populated for a paired modify (a
// consecutive delete immediately followed by an insert).
type Row struct {
	Left, Right           string
	LeftChanged, RightChanged bool
}

// SideBySide aligns an edit script into rows for a two-column view,
// pairing adjacent delete/insert runs hunk-by-hunk so a one-line edit
// reads as a single changed row instead of a delete row plus an insert
// row.
func SideBySide(spans []Span) []Row {
	var rows []Row
	i := 0
	for i < len(spans) {
		if spans[i].Kind == SpanEqual {
			rows = append(rows, Row{Left: spans[i].Text, Right: spans[i].Text})
			i++
			continue
		}

		var deletes, inserts []string
		for i < len(spans) && spans[i].Kind == SpanDelete {
			deletes = append(deletes, spans[i].Text)
			i++
		}
		for i < len(spans) && spans[i].Kind == SpanInsert {
			inserts = append(inserts, spans[i].Text)
			i++
		}

		max := len(deletes)
		if len(inserts) > max {
			max = len(inserts)
		}
		for k := 0; k < max; k++ {
			row := Row{}
			if k < len(deletes) {
				row.Left = deletes[k]
				row.LeftChanged = true
			}
			if k < len(inserts) {
				row.Right = inserts[k]
				row.RightChanged = true
			}
			rows = append(rows, row)
		}
	}
	return rows
}
