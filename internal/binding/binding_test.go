package binding_test

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommentsIgnored(t *testing.T) {
	defaults := map[string][]string{
		"quit": {"q", "//ctrl+q"},
	}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"q"}, m.Keys("quit"))
}

func TestCaseExpansion(t *testing.T) {
	defaults := map[string][]string{"quit": {"q"}}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)

	lower, ok := m.Lookup(tcell.KeyRune, 'q', tcell.ModNone)
	require.True(t, ok)
	upper, ok := m.Lookup(tcell.KeyRune, 'Q', tcell.ModNone)
	require.True(t, ok)
	shifted, ok := m.Lookup(tcell.KeyRune, 'Q', tcell.ModShift)
	require.True(t, ok)

	assert.Equal(t, "quit", lower)
	assert.Equal(t, lower, upper)
	assert.Equal(t, lower, shifted)
}

func TestShiftFallback(t *testing.T) {
	defaults := map[string][]string{"help": {"/"}}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)

	action, ok := m.Lookup(tcell.KeyRune, '/', tcell.ModShift)
	require.True(t, ok)
	assert.Equal(t, "help", action)
}

func TestOverrideFullyReplacesDefault(t *testing.T) {
	defaults := map[string][]string{"quit": {"q"}}
	overrides := map[string][]string{"quit": {"ctrl+q"}}
	m, err := binding.Build(binding.ContextFilePanel, defaults, overrides)
	require.NoError(t, err)

	_, ok := m.Lookup(tcell.KeyRune, 'q', tcell.ModNone)
	assert.False(t, ok)

	action, ok := m.Lookup(tcell.KeyRune, 'q', tcell.ModCtrl)
	require.True(t, ok)
	assert.Equal(t, "quit", action)
}

func TestMalformedKeystringIsIgnoredNotFatal(t *testing.T) {
	defaults := map[string][]string{
		"quit": {"ctrl+bogus+modifier+q", "q"},
	}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)

	action, ok := m.Lookup(tcell.KeyRune, 'q', tcell.ModNone)
	require.True(t, ok)
	assert.Equal(t, "quit", action)
}

func TestNamedKeys(t *testing.T) {
	defaults := map[string][]string{
		"move_down": {"down"},
		"move_up":   {"up"},
		"confirm":   {"enter"},
	}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)

	a, ok := m.Lookup(tcell.KeyDown, 0, tcell.ModNone)
	require.True(t, ok)
	assert.Equal(t, "move_down", a)

	a, ok = m.Lookup(tcell.KeyEnter, 0, tcell.ModNone)
	require.True(t, ok)
	assert.Equal(t, "confirm", a)
}

func TestUnreachableActionIsNotAnError(t *testing.T) {
	defaults := map[string][]string{"noop": {"//disabled"}}
	m, err := binding.Build(binding.ContextFilePanel, defaults, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Keys("noop"))
}
