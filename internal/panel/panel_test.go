package panel_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.txt"), []byte("aa"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zzz_dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644))
	return dir
}

func TestRefreshSortsDirectoriesFirstByName(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())

	entries := p.Entries()
	require.NotEmpty(t, entries)
	assert.True(t, entries[0].IsDir, "directories should sort before files")
}

func TestSortStability(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "same.txt"), []byte("1"), 0o644))
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())
	// single entry is trivially stable; real stability is guaranteed by
	// sort.SliceStable and exercised implicitly by Go's stdlib contract.
	assert.Len(t, p.Entries(), 1)
}

func TestCursorClampAfterMutation(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())

	p.Jump(true)
	max := len(p.Entries())
	assert.True(t, p.Cursor() >= 0 && p.Cursor() < max)

	p.Move(1000)
	assert.True(t, p.Cursor() >= 0 && p.Cursor() < max)

	p.Move(-1000)
	assert.Equal(t, 0, p.Cursor())
}

func TestEnterResetsCursorAndScroll(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())
	p.Jump(true)

	var dirEntry vfs.Entry
	for _, e := range p.Entries() {
		if e.IsDir {
			dirEntry = e
			break
		}
	}
	require.NotEmpty(t, dirEntry.Name)

	require.NoError(t, p.Enter(dirEntry))
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, 0, p.Scroll())
}

func TestParentPositionsOnDirectoryJustLeft(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())

	var dirEntry vfs.Entry
	for _, e := range p.Entries() {
		if e.IsDir {
			dirEntry = e
			break
		}
	}
	require.NoError(t, p.Enter(dirEntry))
	require.NoError(t, p.Parent())

	entry, ok := p.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, dirEntry.Name, entry.Name)
}

func TestRefreshPreservesFocusedEntry(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())

	entries := p.Entries()
	var target int
	for i, e := range entries {
		if e.Name == "beta.txt" {
			target = i
		}
	}
	p.Move(target - p.Cursor())
	entry, _ := p.CurrentEntry()
	require.Equal(t, "beta.txt", entry.Name)

	time.Sleep(time.Millisecond)
	require.NoError(t, p.Refresh())
	entry, _ = p.CurrentEntry()
	assert.Equal(t, "beta.txt", entry.Name)
}

func TestSelectAllIncludesHidden(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)
	require.NoError(t, p.Refresh())

	p.SelectAll()
	assert.True(t, p.Selection.Has(".hidden"))
}

func TestToggleBookmark(t *testing.T) {
	dir := setupDir(t)
	p := panel.New("left", vfs.Local{}, dir)

	bookmarks, added := p.ToggleBookmark(nil)
	assert.True(t, added)
	assert.Contains(t, bookmarks, dir)

	bookmarks, added = p.ToggleBookmark(bookmarks)
	assert.False(t, added)
	assert.NotContains(t, bookmarks, dir)
}
