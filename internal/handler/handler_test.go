package handler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mongsil1012/opendir/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateDetectsBackgroundPrefix(t *testing.T) {
	tpl := handler.ParseTemplate("@mpv {{FILEPATH}}")
	assert.True(t, tpl.Background)
	assert.Equal(t, "mpv {{FILEPATH}}", tpl.Command)

	tpl = handler.ParseTemplate("vim {{FILEPATH}}")
	assert.False(t, tpl.Background)
	assert.Equal(t, "vim {{FILEPATH}}", tpl.Command)
}

func TestRouterLookupIsCaseInsensitiveAndPipeDelimited(t *testing.T) {
	r := handler.NewRouter(map[string][]string{
		"jpg|jpeg|png": {"@feh {{FILEPATH}}"},
		"MP4":          {"@mpv {{FILEPATH}}"},
	})

	templates, ok := r.Lookup("JPG")
	require.True(t, ok)
	require.Len(t, templates, 1)
	assert.True(t, templates[0].Background)

	templates, ok = r.Lookup("mp4")
	require.True(t, ok)
	assert.Equal(t, "mpv {{FILEPATH}}", templates[0].Command)

	_, ok = r.Lookup("txt")
	assert.False(t, ok)
}

func TestOpenRunsForegroundCommandAndSucceeds(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	tpl := handler.Template{Command: "touch " + marker}

	err := handler.Open(marker, []handler.Template{tpl}, nil)
	require.NoError(t, err)

	_, err = os.Stat(marker)
	assert.NoError(t, err)
}

func TestOpenFallsBackThroughSequentialTemplates(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "second-ran")

	templates := []handler.Template{
		{Command: "false"},
		{Command: "touch " + marker},
	}

	err := handler.Open(marker, templates, nil)
	require.NoError(t, err)

	_, err = os.Stat(marker)
	assert.NoError(t, err)
}

func TestOpenReturnsErrorWhenAllTemplatesFail(t *testing.T) {
	err := handler.Open("/dev/null", []handler.Template{{Command: "false"}, {Command: "false"}}, nil)
	assert.Error(t, err)
}

func TestOpenReturnsErrorWhenNoTemplatesConfigured(t *testing.T) {
	err := handler.Open("/dev/null", nil, nil)
	assert.Error(t, err)
}

type fakeSuspender struct {
	suspended, resumed bool
}

func (f *fakeSuspender) Suspend() error {
	f.suspended = true
	return nil
}

func (f *fakeSuspender) Resume() error {
	f.resumed = true
	return nil
}

func TestOpenSuspendsAndResumesUIForForegroundCommands(t *testing.T) {
	sus := &fakeSuspender{}
	err := handler.Open("/dev/null", []handler.Template{{Command: "true"}}, sus)
	require.NoError(t, err)
	assert.True(t, sus.suspended)
	assert.True(t, sus.resumed)
}

func TestOpenDoesNotSuspendUIForBackgroundCommands(t *testing.T) {
	sus := &fakeSuspender{}
	err := handler.Open("/dev/null", []handler.Template{{Command: "true", Background: true}}, sus)
	require.NoError(t, err)
	assert.False(t, sus.suspended)
}

func TestSubstituteQuotesFilepathAgainstInjection(t *testing.T) {
	tpl := handler.ParseTemplate("rm -rf {{FILEPATH}}")
	// exercised indirectly through Open/runForeground; verify via a path
	// containing a single quote doesn't break out of the shell command.
	dir := t.TempDir()
	evil := filepath.Join(dir, "a'; touch pwned; echo '")
	require.NoError(t, os.WriteFile(evil, []byte("x"), 0o644))

	err := handler.Open(evil, []handler.Template{{Command: "cat {{FILEPATH}} > /dev/null"}}, nil)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "pwned"))
	assert.True(t, os.IsNotExist(statErr))
	_ = tpl
}
