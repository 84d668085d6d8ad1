package gotopath_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mongsil1012/opendir/internal/config"
	"github.com/mongsil1012/opendir/internal/gotopath"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectModeSwitchesOnLeadingCharacter(t *testing.T) {
	assert.Equal(t, gotopath.ModePath, gotopath.DetectMode("/etc"))
	assert.Equal(t, gotopath.ModePath, gotopath.DetectMode("~/proj"))
	assert.Equal(t, gotopath.ModeBookmark, gotopath.DetectMode("docs"))
	assert.Equal(t, gotopath.ModeBookmark, gotopath.DetectMode(""))
}

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Projects"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Pictures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	return dir
}

func TestRefreshPathCandidatesFiltersBySubstring(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range dir + "/Pro" {
		d.InsertRune(r)
	}

	require.NoError(t, d.RefreshPathCandidates(vfs.Local{}, "/home/x"))
	names := displayNames(d.Candidates())
	assert.ElementsMatch(t, []string{"Projects"}, names)
}

func TestRefreshPathCandidatesListsWholeDirWhenNothingTyped(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range dir + "/" {
		d.InsertRune(r)
	}

	require.NoError(t, d.RefreshPathCandidates(vfs.Local{}, "/home/x"))
	names := displayNames(d.Candidates())
	assert.ElementsMatch(t, []string{"Projects", "Pictures", "notes.txt"}, names)
}

func TestTabFillsSingleMatchCompletely(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range dir + "/Proj" {
		d.InsertRune(r)
	}

	require.NoError(t, d.Tab(vfs.Local{}, "/home/x"))
	assert.Equal(t, filepath.Join(dir, "Projects")+"/", d.Input())
}

func TestTabFillsLongestCommonPrefixOnMultipleMatches(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range dir + "/P" {
		d.InsertRune(r)
	}

	require.NoError(t, d.Tab(vfs.Local{}, "/home/x"))
	assert.Equal(t, filepath.Join(dir, "P"), d.Input())
	assert.True(t, d.ListVisible())
}

func TestEnterOnDirectoryNavigatesThere(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range filepath.Join(dir, "Projects") {
		d.InsertRune(r)
	}

	action := d.Enter(vfs.Local{}, "/home/x")
	assert.Equal(t, gotopath.ActionNavigate, action.Kind)
	assert.Equal(t, filepath.Join(dir, "Projects"), action.Path)
	assert.Empty(t, action.CursorName)
}

func TestEnterOnFileOpensParentWithCursorOnFile(t *testing.T) {
	dir := setupDir(t)
	d := gotopath.New()
	for _, r := range filepath.Join(dir, "notes.txt") {
		d.InsertRune(r)
	}

	action := d.Enter(vfs.Local{}, "/home/x")
	assert.Equal(t, gotopath.ActionNavigate, action.Kind)
	assert.Equal(t, dir, action.Path)
	assert.Equal(t, "notes.txt", action.CursorName)
}

func TestBookmarkModeFiltersBySubstringAndEnterNavigates(t *testing.T) {
	settings := &config.Settings{Bookmarks: []string{"/home/me/work", "/var/log"}}
	d := gotopath.New()
	for _, r := range "work" {
		d.InsertRune(r)
	}
	d.RefreshBookmarkCandidates(settings)
	require.Len(t, d.Candidates(), 1)

	action := d.Enter(vfs.Local{}, "/home/x")
	assert.Equal(t, gotopath.ActionNavigate, action.Kind)
	assert.Equal(t, "/home/me/work", action.Path)
}

func TestBookmarkModeSelectingProfileOpensConnectionDialog(t *testing.T) {
	settings := &config.Settings{
		RemoteProfiles: []config.RemoteProfile{{Name: "box", Host: "example.com", User: "me"}},
	}
	d := gotopath.New()
	d.RefreshBookmarkCandidates(settings)
	require.Len(t, d.Candidates(), 1)

	action := d.Enter(vfs.Local{}, "/home/x")
	assert.Equal(t, gotopath.ActionOpenConnectionDialog, action.Kind)
	require.NotNil(t, action.Profile)
	assert.Equal(t, "example.com", action.Profile.Host)
}

func TestDeleteSelectedIdentifiesBookmarkIndex(t *testing.T) {
	settings := &config.Settings{Bookmarks: []string{"/a", "/b"}}
	d := gotopath.New()
	// filter to the second bookmark
	d.InsertRune('b')
	d.RefreshBookmarkCandidates(settings)

	action := d.DeleteSelected(settings)
	assert.Equal(t, gotopath.ActionDeleteBookmark, action.Kind)
	assert.Equal(t, 1, action.Index)
}

func TestEscapeHidesListBeforeClosingDialog(t *testing.T) {
	settings := &config.Settings{Bookmarks: []string{"/a"}}
	d := gotopath.New()
	d.RefreshBookmarkCandidates(settings)
	require.True(t, d.ListVisible())

	action := d.Escape()
	assert.Equal(t, gotopath.ActionNone, action.Kind)
	assert.False(t, d.ListVisible())

	action = d.Escape()
	assert.Equal(t, gotopath.ActionClose, action.Kind)
}

func TestToggleCurrentPathReturnsToggleAction(t *testing.T) {
	d := gotopath.New()
	action := d.ToggleCurrentPath("/some/panel/path")
	assert.Equal(t, gotopath.ActionToggleBookmark, action.Kind)
	assert.Equal(t, "/some/panel/path", action.Path)
}

func displayNames(cs []gotopath.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Display
	}
	return out
}
