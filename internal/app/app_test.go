package app

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
)

type fakeScreen struct {
	ctx     binding.Context
	result  Result
	calls   []string
	actions []string
}

func (f *fakeScreen) Context() binding.Context { return f.ctx }

func (f *fakeScreen) HandleKey(_ context.Context, _ *tcell.EventKey, action string) Result {
	f.calls = append(f.calls, "handled")
	f.actions = append(f.actions, action)
	return f.result
}

func (f *fakeScreen) Draw(tcell.Screen, *theme.Theme, int, int, int, int) {}

func testLoop(t *testing.T, root Screen, bindings map[binding.Context]*binding.Map) *Loop {
	t.Helper()
	th := theme.New("dark")
	return &Loop{
		stack:    NewStack(root),
		bindings: bindings,
		theme:    th,
	}
}

func buildMap(t *testing.T, ctx binding.Context, action string, keys ...string) *binding.Map {
	t.Helper()
	m, err := binding.Build(ctx, map[string][]string{action: keys}, nil)
	require.NoError(t, err)
	return m
}

func TestStackPushPopTop(t *testing.T) {
	root := &fakeScreen{ctx: binding.ContextFilePanel}
	s := NewStack(root)
	assert.Equal(t, 1, s.Len())
	assert.Same(t, Screen(root), s.Top())

	child := &fakeScreen{ctx: binding.ContextFileEditor}
	s.Push(child)
	assert.Equal(t, 2, s.Len())
	assert.Same(t, Screen(child), s.Top())

	popped := s.Pop()
	assert.Same(t, Screen(child), popped)
	assert.Equal(t, 1, s.Len())

	assert.Nil(t, s.Pop(), "popping the root screen is a no-op")
	assert.Equal(t, 1, s.Len())
}

func TestDispatchConsumedStopsAtTopScreen(t *testing.T) {
	root := &fakeScreen{ctx: binding.ContextFilePanel, result: Consumed}
	top := &fakeScreen{ctx: binding.ContextFileEditor, result: Consumed}

	bindings := map[binding.Context]*binding.Map{
		binding.ContextFileEditor: buildMap(t, binding.ContextFileEditor, "save", "ctrl+s"),
	}
	lp := testLoop(t, root, bindings)
	lp.stack.Push(top)

	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModCtrl)
	lp.dispatch(context.Background(), ev)

	assert.Equal(t, []string{"save"}, top.actions)
	assert.Empty(t, root.calls, "root screen should never see a key the top screen consumed")
}

func TestDispatchPassThroughFallsToScreenBelow(t *testing.T) {
	root := &fakeScreen{ctx: binding.ContextFilePanel, result: Consumed}
	top := &fakeScreen{ctx: binding.ContextFileEditor, result: PassThrough}

	bindings := map[binding.Context]*binding.Map{
		binding.ContextFilePanel: buildMap(t, binding.ContextFilePanel, "quit", "q"),
	}
	lp := testLoop(t, root, bindings)
	lp.stack.Push(top)

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	lp.dispatch(context.Background(), ev)

	assert.Len(t, top.calls, 1)
	assert.Len(t, root.calls, 1)
	assert.Equal(t, []string{"quit"}, root.actions)
}

func TestDispatchCloseScreenPopsTopScreen(t *testing.T) {
	root := &fakeScreen{ctx: binding.ContextFilePanel, result: Consumed}
	top := &fakeScreen{ctx: binding.ContextDiffScreen, result: CloseScreen}

	lp := testLoop(t, root, nil)
	lp.stack.Push(top)
	require.Equal(t, 2, lp.stack.Len())

	ev := tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)
	lp.dispatch(context.Background(), ev)

	assert.Equal(t, 1, lp.stack.Len())
	assert.Same(t, Screen(root), lp.stack.Top())
	assert.Empty(t, root.calls, "closing the top screen stops dispatch for that key")
}

func TestDispatchUnboundKeyStillReachesScreenForTextEntry(t *testing.T) {
	root := &fakeScreen{ctx: binding.ContextFilePanel, result: Consumed}

	lp := testLoop(t, root, map[binding.Context]*binding.Map{})

	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	lp.dispatch(context.Background(), ev)

	require.Len(t, root.actions, 1)
	assert.Equal(t, "", root.actions[0], "no binding matched, so the raw event is offered with an empty action")
}
