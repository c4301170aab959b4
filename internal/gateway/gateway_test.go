package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/simterm/internal/projects"
	"github.com/user/simterm/internal/runtime"
	"github.com/user/simterm/internal/state"
	"github.com/user/simterm/internal/types"
)

type fakeProcessor struct {
	mu         sync.Mutex
	calls      []string
	interrupts int
	superseded func() bool
	err        error
}

func (f *fakeProcessor) ProcessTurn(_ context.Context, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "turn:"+raw)
	return f.err
}

func (f *fakeProcessor) ResetSession() (types.SessionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "reset")
	return "s", nil
}

func (f *fakeProcessor) SetCurrentProject(id string) (types.SessionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "project:"+id)
	return "s", nil
}

func (f *fakeProcessor) Interrupt() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupts++
	return false
}

func (f *fakeProcessor) SetSuperseded(fn func() bool) { f.superseded = fn }

func waitTurn(t *testing.T, turn *Turn) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-turn.Done():
		return turn.Err()
	case <-ctx.Done():
		t.Fatalf("turn %s did not finish", turn.ID)
		return nil
	}
}

func TestGatewayDispatchesTurnKinds(t *testing.T) {
	proc := &fakeProcessor{}
	gw := New(proc)
	gw.Start(context.Background())
	defer gw.Stop()

	if proc.superseded == nil {
		t.Fatal("gateway did not register a superseded check")
	}

	a, err := gw.Submit("test", "ls")
	if err != nil {
		t.Fatal(err)
	}
	b, err := gw.Reset("test")
	if err != nil {
		t.Fatal(err)
	}
	c, err := gw.SwitchProject("test", "calculator")
	if err != nil {
		t.Fatal(err)
	}
	for _, turn := range []*Turn{a, b, c} {
		if err := waitTurn(t, turn); err != nil {
			t.Fatal(err)
		}
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	want := []string{"turn:ls", "reset", "project:calculator"}
	if len(proc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", proc.calls, want)
	}
	for i := range want {
		if proc.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, proc.calls[i], want[i])
		}
	}
	if proc.interrupts != 3 {
		t.Errorf("interrupts = %d, want 3", proc.interrupts)
	}
}

func TestGatewayReportsNoSession(t *testing.T) {
	proc := &fakeProcessor{err: runtime.ErrNoSession}
	gw := New(proc)
	gw.Start(context.Background())
	defer gw.Stop()

	turn, err := gw.Submit("test", "ls")
	if err != nil {
		t.Fatal(err)
	}
	if err := waitTurn(t, turn); !errors.Is(err, runtime.ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestGatewaySubmitAfterStop(t *testing.T) {
	gw := New(&fakeProcessor{})
	gw.Start(context.Background())
	gw.Stop()

	if _, err := gw.Submit("test", "ls"); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

type previewSink struct {
	mu       sync.Mutex
	lines    []types.TerminalLine
	previews chan string
}

func (s *previewSink) Write(text string, lineType types.LineType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, types.TerminalLine{Type: lineType, Content: text})
}

func (s *previewSink) Preview(text string) {
	select {
	case s.previews <- text:
	default:
	}
}

func newSlowRuntime(t *testing.T) (*runtime.Runtime, *previewSink) {
	t.Helper()
	lib, err := projects.Load("")
	if err != nil {
		t.Fatal(err)
	}
	sink := &previewSink{previews: make(chan string, 1024)}
	// Roughly a second per rune; only an interrupt can finish a reply in time.
	rt := runtime.New(lib, state.NewStore(), sink, runtime.WithSpeedScale(100))
	if _, err := rt.InitSession("todo-api"); err != nil {
		t.Fatal(err)
	}
	return rt, sink
}

func TestGatewayNewInputFlushesAnimation(t *testing.T) {
	rt, sink := newSlowRuntime(t)
	gw := New(rt)
	gw.Start(context.Background())
	defer gw.Stop()

	first, err := gw.Submit("test", `claude "describe this project"`)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-sink.previews:
	case <-time.After(5 * time.Second):
		t.Fatal("animation never started")
	}

	second, err := gw.Submit("test", "pwd")
	if err != nil {
		t.Fatal(err)
	}
	if err := waitTurn(t, first); err != nil {
		t.Fatal(err)
	}
	if err := waitTurn(t, second); err != nil {
		t.Fatal(err)
	}

	snap, _ := rt.Snapshot()
	var got []types.LineType
	for _, line := range snap.Output {
		got = append(got, line.Type)
	}
	want := []types.LineType{
		types.LineSystem,
		types.LineInput, types.LineAIResponse,
		types.LineInput, types.LineOutput,
	}
	if len(got) != len(want) {
		t.Fatalf("log types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if snap.Output[4].Content != "~/todo-api" {
		t.Errorf("pwd output = %q", snap.Output[4].Content)
	}
}

func TestGatewayBurstCompletesPromptly(t *testing.T) {
	rt, _ := newSlowRuntime(t)
	gw := New(rt)
	gw.Start(context.Background())
	defer gw.Stop()

	var turns []*Turn
	for _, in := range []string{`claude "describe this project"`, `claude "explain index.js"`, "ls"} {
		turn, err := gw.Submit("test", in)
		if err != nil {
			t.Fatal(err)
		}
		turns = append(turns, turn)
	}

	// The last reply is not animated, and each earlier one is flushed by
	// the input queued behind it.
	for _, turn := range turns {
		if err := waitTurn(t, turn); err != nil {
			t.Fatal(err)
		}
	}
	snap, _ := rt.Snapshot()
	if n := len(snap.History); n != 3 {
		t.Errorf("history length = %d, want 3", n)
	}
}

type recordObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordObserver) TurnStarted(id types.TurnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "start:"+string(id))
}

func (o *recordObserver) TurnFinished(id types.TurnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "finish:"+string(id))
}

func TestGatewayNotifiesObservers(t *testing.T) {
	g := New(&fakeProcessor{})
	obs := &recordObserver{}
	g.Observe(obs)
	g.Start(context.Background())
	defer g.Stop()

	first, err := g.Submit("test", "ls")
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Reset("test")
	if err != nil {
		t.Fatal(err)
	}
	if err := waitTurn(t, second); err != nil {
		t.Fatal(err)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []string{
		"start:" + string(first.ID), "finish:" + string(first.ID),
		"start:" + string(second.ID), "finish:" + string(second.ID),
	}
	if len(obs.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, obs.events)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], obs.events[i])
		}
	}
}
