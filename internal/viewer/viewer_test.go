package viewer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mongsil1012/opendir/internal/viewer"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, content string) *viewer.Viewer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	v, err := viewer.Load(vfs.Local{}, path)
	require.NoError(t, err)
	return v
}

func TestLoadSplitsIntoLines(t *testing.T) {
	v := load(t, "one\ntwo\nthree")
	require.Equal(t, 3, v.LineCount())
	assert.Equal(t, "two", v.Line(1))
}

func TestScrollByClampsToDocumentBounds(t *testing.T) {
	v := load(t, "a\nb\nc")
	v.ScrollBy(-5)
	assert.Equal(t, 0, v.Scroll())
	v.ScrollBy(100)
	assert.Equal(t, 2, v.Scroll())
}

func TestHexModeRendersSixteenBytesPerRowWithAsciiColumn(t *testing.T) {
	v := load(t, "ABCDEFGHIJKLMNOPQ")
	v.ToggleHexMode()
	require.True(t, v.HexMode())
	require.Equal(t, 2, v.HexRowCount())

	row0 := v.HexRow(0)
	assert.Contains(t, row0, "41 42 43 44")
	assert.Contains(t, row0, "|ABCDEFGHIJKLMNOP|")

	row1 := v.HexRow(1)
	assert.Contains(t, row1, "|Q|")
}

func TestIncrementalSearchFindsMatchesCaseInsensitively(t *testing.T) {
	v := load(t, "alpha\nBeta\ngamma\nBETA")
	v.SetFind("beta")
	assert.Equal(t, []int{1, 3}, v.Matches())
}

func TestFindNextAndPrevWrapAround(t *testing.T) {
	v := load(t, "x\nhit\ny\nhit\nz")
	v.SetFind("hit")

	n, ok := v.FindNext()
	require.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = v.FindNext()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = v.FindPrev()
	require.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestBookmarkToggleAndNavigation(t *testing.T) {
	v := load(t, "a\nb\nc\nd\ne")
	v.ToggleBookmark(1)
	v.ToggleBookmark(3)
	assert.True(t, v.IsBookmarked(1))
	assert.False(t, v.IsBookmarked(2))

	n, ok := v.NextBookmark()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = v.NextBookmark()
	require.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = v.NextBookmark()
	require.True(t, ok)
	assert.Equal(t, 1, n, "wraps around to the first bookmark")

	v.ToggleBookmark(1)
	assert.False(t, v.IsBookmarked(1))
}

func TestWordWrapWrapsAtRuneWidthBoundary(t *testing.T) {
	v := load(t, "abcdefghij")
	assert.Equal(t, []string{"abcdefghij"}, v.VisualLines(5))

	v.ToggleWordWrap()
	assert.Equal(t, []string{"abcde", "fghij"}, v.VisualLines(5))
}
