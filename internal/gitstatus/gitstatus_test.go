package gitstatus_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mongsil1012/opendir/internal/gitstatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	return dir
}

func TestIsRepo(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	assert.True(t, gitstatus.IsRepo(context.Background(), dir))

	other := t.TempDir()
	assert.False(t, gitstatus.IsRepo(context.Background(), other))
}

func TestStatusReportsUntrackedFile(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	statuses, err := gitstatus.Status(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "??", statuses[0].Code)
	assert.Equal(t, "a.txt", statuses[0].Path)
}
