package runtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/simterm/internal/catalog"
	"github.com/user/simterm/internal/projects"
	"github.com/user/simterm/internal/state"
	"github.com/user/simterm/internal/types"
)

type recordSink struct {
	mu       sync.Mutex
	lines    []types.TerminalLine
	clears   int
	previews chan string
}

func newRecordSink() *recordSink {
	return &recordSink{previews: make(chan string, 1024)}
}

func (s *recordSink) Write(text string, lineType types.LineType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, types.TerminalLine{Type: lineType, Content: text})
}

func (s *recordSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.lines = nil
}

func (s *recordSink) Preview(text string) {
	select {
	case s.previews <- text:
	default:
	}
}

func (s *recordSink) written() []types.TerminalLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.TerminalLine(nil), s.lines...)
}

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *recordSink) {
	t.Helper()
	lib, err := projects.Load("")
	require.NoError(t, err)
	sink := newRecordSink()
	return New(lib, state.NewStore(), sink, opts...), sink
}

func noSleep(context.Context, time.Duration) error { return nil }

func lineTypes(lines []types.TerminalLine) []types.LineType {
	out := make([]types.LineType, len(lines))
	for i, l := range lines {
		out[i] = l.Type
	}
	return out
}

func TestInitSessionWritesWelcome(t *testing.T) {
	rt, sink := newTestRuntime(t)

	id, err := rt.InitSession("todo-api")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, ok := rt.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "todo-api", snap.ProjectID)
	assert.Equal(t, "~/todo-api", snap.CurrentDirectory)
	require.Len(t, snap.Output, 1)
	assert.Equal(t, types.LineSystem, snap.Output[0].Type)
	assert.Contains(t, snap.Output[0].Content, "Todo API")
	assert.Equal(t, 1, sink.clears)
	assert.Len(t, sink.written(), 1)
}

func TestInitSessionUnknownProject(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_, err := rt.InitSession("nope")
	assert.True(t, errors.Is(err, projects.ErrUnknownProject))
	_, ok := rt.Snapshot()
	assert.False(t, ok)
}

func TestProcessTurnWithoutSession(t *testing.T) {
	rt, sink := newTestRuntime(t)
	err := rt.ProcessTurn(context.Background(), "ls")
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.Empty(t, sink.written())
}

func TestDescribeTodoAPI(t *testing.T) {
	rt, sink := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), `claude "describe this project"`))

	snap, _ := rt.Snapshot()
	assert.Equal(t, []string{`claude "describe this project"`}, snap.History)
	assert.Equal(t, []types.LineType{types.LineSystem, types.LineInput, types.LineAIResponse}, lineTypes(snap.Output))

	reply := snap.Output[2].Content
	assert.Contains(t, reply, "Todo API")
	assert.Contains(t, reply, "index.js")
	assert.Contains(t, reply, "JSON body parser")
	assert.False(t, snap.Typing)

	written := sink.written()
	require.Len(t, written, 3)
	assert.Equal(t, reply, written[2].Content)
}

func TestUnknownCommandIsError(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), "foo"))
	snap, _ := rt.Snapshot()
	last := snap.Output[len(snap.Output)-1]
	assert.Equal(t, types.LineError, last.Type)
	assert.Contains(t, last.Content, "command not found: foo")
}

func TestBlankInputIsLoggedButNotRemembered(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), "   "))
	snap, _ := rt.Snapshot()
	assert.Empty(t, snap.History)
	assert.Equal(t, []types.LineType{types.LineSystem, types.LineInput}, lineTypes(snap.Output))
}

func TestMultiStepRunsInOrder(t *testing.T) {
	var delays []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	rt, _ := newTestRuntime(t, WithSleep(sleep))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), `claude "fix the bug in index.js"`))

	lib, _ := projects.Load("")
	p, _ := lib.Get("todo-api")
	want := catalog.FixBug("index.js", p)
	require.Equal(t, types.ResponseMultiStep, want.Type)

	snap, _ := rt.Snapshot()
	steps := snap.Output[2:]
	require.Len(t, steps, len(want.Steps))
	for i, step := range want.Steps {
		assert.Equal(t, types.LineOutput, steps[i].Type)
		assert.Equal(t, step.Content, steps[i].Content)
		assert.Equal(t, step.Delay, delays[i])
	}
	assert.False(t, snap.Typing)
}

func TestSpeedScaleShortensDelays(t *testing.T) {
	var delays []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	rt, _ := newTestRuntime(t, WithSleep(sleep), WithSpeedScale(0.5))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), `claude "refactor this code"`))
	want := catalog.Refactor()
	require.Len(t, delays, len(want.Steps))
	for i, step := range want.Steps {
		assert.Equal(t, step.Delay/2, delays[i])
	}
}

func TestMultiStepStopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}
	rt, _ := newTestRuntime(t, WithSleep(sleep))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	err = rt.ProcessTurn(ctx, `claude "fix the bug in index.js"`)
	assert.True(t, errors.Is(err, context.Canceled))

	snap, _ := rt.Snapshot()
	assert.Len(t, snap.Output, 3)
	assert.False(t, snap.Typing)
}

func TestClearKeepsLog(t *testing.T) {
	rt, sink := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), "ls"))
	require.NoError(t, rt.ProcessTurn(context.Background(), "clear"))

	assert.Equal(t, 2, sink.clears)
	assert.Empty(t, sink.written())

	snap, _ := rt.Snapshot()
	assert.Equal(t, []string{"ls", "clear"}, snap.History)
	assert.Equal(t, []types.LineType{types.LineSystem, types.LineInput, types.LineOutput, types.LineInput}, lineTypes(snap.Output))
}

func TestChangeDirectory(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	require.NoError(t, rt.ProcessTurn(context.Background(), "cd routes"))
	require.NoError(t, rt.ProcessTurn(context.Background(), "pwd"))

	snap, _ := rt.Snapshot()
	assert.Equal(t, "~/todo-api/routes", snap.CurrentDirectory)
	assert.Equal(t, "~/todo-api/routes", snap.Output[len(snap.Output)-1].Content)
}

func TestInterruptFlushesAnimation(t *testing.T) {
	// 12ms per rune scaled to over a second per rune.
	rt, sink := newTestRuntime(t, WithSpeedScale(100))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- rt.ProcessTurn(context.Background(), `claude "describe this project"`)
	}()

	select {
	case <-sink.previews:
	case <-time.After(5 * time.Second):
		t.Fatal("animation never started")
	}
	assert.True(t, rt.Busy())
	assert.True(t, rt.Interrupt())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not finish after interrupt")
	}

	p, _ := rt.Project()
	full := catalog.Describe(p).Content
	written := sink.written()
	assert.Equal(t, full, written[len(written)-1].Content)
	assert.False(t, rt.Busy())
	assert.False(t, rt.Interrupt())
}

func TestNextTurnFlushesAndOrders(t *testing.T) {
	rt, _ := newTestRuntime(t, WithSpeedScale(100))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- rt.ProcessTurn(context.Background(), `claude "describe this project"`)
	}()
	sink := rt.sink.(*recordSink)
	select {
	case <-sink.previews:
	case <-time.After(5 * time.Second):
		t.Fatal("animation never started")
	}

	require.NoError(t, rt.ProcessTurn(context.Background(), "pwd"))
	require.NoError(t, <-done)

	snap, _ := rt.Snapshot()
	assert.Equal(t, []types.LineType{
		types.LineSystem,
		types.LineInput, types.LineAIResponse,
		types.LineInput, types.LineOutput,
	}, lineTypes(snap.Output))
	assert.Contains(t, snap.Output[2].Content, "JSON body parser")
	assert.Equal(t, "pwd", snap.Output[3].Content)
}

func TestResetAndSwitchProject(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	first, err := rt.InitSession("todo-api")
	require.NoError(t, err)
	require.NoError(t, rt.ProcessTurn(context.Background(), "ls"))

	second, err := rt.ResetSession()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	snap, _ := rt.Snapshot()
	assert.Empty(t, snap.History)
	assert.Len(t, snap.Output, 1)

	third, err := rt.SetCurrentProject("calculator")
	require.NoError(t, err)
	assert.NotEqual(t, second, third)
	p, ok := rt.Project()
	require.True(t, ok)
	assert.Equal(t, "calculator", p.ID)
}

func TestResetWithoutSession(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_, err := rt.ResetSession()
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestHistoryNavigation(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.InitSession("todo-api")
	require.NoError(t, err)
	for _, cmd := range []string{"ls", "pwd"} {
		require.NoError(t, rt.ProcessTurn(context.Background(), cmd))
	}

	assert.Equal(t, "pwd", rt.NavigateHistory(state.Up))
	assert.Equal(t, "ls", rt.NavigateHistory(state.Up))
	assert.Equal(t, "pwd", rt.NavigateHistory(state.Down))
	assert.Equal(t, "", rt.NavigateHistory(state.Down))
}

func TestTranscript(t *testing.T) {
	rt, _ := newTestRuntime(t, WithInstantTyping(true))
	_, err := rt.Transcript()
	assert.True(t, errors.Is(err, ErrNoSession))

	_, err = rt.InitSession("todo-api")
	require.NoError(t, err)
	require.NoError(t, rt.ProcessTurn(context.Background(), "ls"))

	out, err := rt.Transcript()
	require.NoError(t, err)
	assert.Contains(t, out, "Todo API (todo-api)")
	assert.True(t, strings.Contains(out, "$ ls"))
}
