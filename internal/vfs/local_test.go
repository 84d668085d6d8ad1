package vfs_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalListAndStat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	fs := vfs.Local{}
	entries, err := fs.List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := map[string]vfs.Entry{}
	for _, e := range entries {
		names[e.Name] = e
	}
	assert.False(t, names["a.txt"].IsDir)
	assert.Equal(t, int64(2), names["a.txt"].Size)
	assert.True(t, names["sub"].IsDir)
}

func TestLocalCopyAndMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	fs := vfs.Local{}
	dst := filepath.Join(dir, "dst.txt")
	var lastWritten int64
	require.NoError(t, vfs.Copy(fs, src, fs, dst, func(w, total int64) { lastWritten = w }))
	assert.EqualValues(t, 7, lastWritten)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	moved := filepath.Join(dir, "moved.txt")
	require.NoError(t, vfs.Move(fs, dst, fs, moved, nil))
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
	data, err = os.ReadFile(moved)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalWalkSkipDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "skip", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip", "nested", "f.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keep"), 0o755))

	fs := vfs.Local{}
	var visited []string
	err := fs.Walk(dir, func(path string, entry vfs.Entry, err error) error {
		require.NoError(t, err)
		if entry.Name == "skip" {
			return vfs.SkipDir
		}
		visited = append(visited, entry.Name)
		return nil
	})
	require.NoError(t, err)

	for _, name := range visited {
		assert.NotEqual(t, "nested", name)
		assert.NotEqual(t, "f.txt", name)
	}
}

func TestLocalOpenWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	fs := vfs.Local{}
	path := filepath.Join(dir, "written.txt")

	w, err := fs.OpenWrite(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.OpenRead(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
