// internal/state/session_test.go
package state

import (
	"errors"
	"testing"
	"time"

	"github.com/user/simterm/internal/types"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewStore()

	if _, _, ok := store.Active(); ok {
		t.Fatal("expected no active session")
	}

	id := store.InitSession("todo-api", "~/todo-api")
	if id == "" {
		t.Error("expected non-empty session ID")
	}
	gotID, project, ok := store.Active()
	if !ok || gotID != id || project != "todo-api" {
		t.Errorf("unexpected active session: %s %s %v", gotID, project, ok)
	}

	if err := store.AddCommand(id, "ls"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddOutput(id, types.LineInput, "ls"); err != nil {
		t.Fatal(err)
	}

	// Replacing the session discards history and log.
	id2 := store.InitSession("calculator", "~/calculator")
	if id2 == id {
		t.Error("expected a new session ID")
	}
	snap, _ := store.Snapshot()
	if len(snap.History) != 0 || len(snap.Output) != 0 {
		t.Errorf("expected empty session after re-init, got %+v", snap)
	}

	if err := store.AddOutput(id, types.LineOutput, "late"); !errors.Is(err, ErrStaleSession) {
		t.Errorf("expected ErrStaleSession, got %v", err)
	}
}

func TestNoSession(t *testing.T) {
	store := NewStore()
	if err := store.AddCommand("nope", "ls"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if got := store.NavigateHistory(Up); got != "" {
		t.Errorf("expected empty recall, got %q", got)
	}
}

func TestNavigateHistory(t *testing.T) {
	store := NewStore()
	id := store.InitSession("todo-api", "~")
	for _, cmd := range []string{"ls", "pwd", "cat x"} {
		if err := store.AddCommand(id, cmd); err != nil {
			t.Fatal(err)
		}
	}

	steps := []struct {
		dir  Direction
		want string
	}{
		{Up, "cat x"},
		{Up, "pwd"},
		{Down, "cat x"},
		{Down, ""},
		{Down, ""},
		{Up, "cat x"},
		{Up, "pwd"},
		{Up, "ls"},
		{Up, "ls"},
	}
	for i, step := range steps {
		if got := store.NavigateHistory(step.dir); got != step.want {
			t.Errorf("step %d: expected %q, got %q", i, step.want, got)
		}
	}

	snap, _ := store.Snapshot()
	if len(snap.History) != 3 {
		t.Errorf("recall must not modify history, got %v", snap.History)
	}
}

func TestAddCommandResetsCursor(t *testing.T) {
	store := NewStore()
	id := store.InitSession("todo-api", "~")
	store.AddCommand(id, "ls")
	store.AddCommand(id, "pwd")

	store.NavigateHistory(Up)
	store.NavigateHistory(Up)
	if store.Cursor() != 0 {
		t.Fatalf("expected cursor 0, got %d", store.Cursor())
	}
	store.AddCommand(id, "help")
	if store.Cursor() != -1 {
		t.Errorf("expected cursor reset to -1, got %d", store.Cursor())
	}
	if got := store.NavigateHistory(Up); got != "help" {
		t.Errorf("expected newest command, got %q", got)
	}

	store.InitSession("todo-api", "~")
	if store.Cursor() != -1 {
		t.Errorf("expected cursor reset on init, got %d", store.Cursor())
	}
}

func TestBlankCommandNotRemembered(t *testing.T) {
	store := NewStore()
	id := store.InitSession("todo-api", "~")
	store.AddCommand(id, "")
	snap, _ := store.Snapshot()
	if len(snap.History) != 0 {
		t.Errorf("expected blank line to be skipped, got %v", snap.History)
	}
}

func TestOutputLogIsAppendOnly(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	id := store.InitSession("todo-api", "~")

	store.AddOutput(id, types.LineInput, "ls")
	store.AddOutput(id, types.LineOutput, "index.js")

	lines := store.Lines(0)
	lines[0].Content = "tampered"

	again := store.Lines(0)
	if again[0].Content != "ls" {
		t.Error("Lines must return a copy")
	}
	if !again[1].Timestamp.Equal(fixed) {
		t.Errorf("unexpected timestamp %v", again[1].Timestamp)
	}
	if tail := store.Lines(1); len(tail) != 1 || tail[0].Content != "index.js" {
		t.Errorf("unexpected tail %+v", tail)
	}
	if store.Lines(5) != nil {
		t.Error("expected nil past the end")
	}
}

func TestSetTypingAndDirectory(t *testing.T) {
	store := NewStore()
	id := store.InitSession("todo-api", "~")
	store.SetTyping(id, true)
	store.SetDirectory(id, "~/routes")
	snap, _ := store.Snapshot()
	if !snap.Typing || snap.CurrentDirectory != "~/routes" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
