package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/simterm/internal/runtime"
	"github.com/user/simterm/internal/types"
)

// Processor is the part of the session runtime the gateway drives.
type Processor interface {
	ProcessTurn(ctx context.Context, raw string) error
	ResetSession() (types.SessionID, error)
	SetCurrentProject(projectID string) (types.SessionID, error)
	Interrupt() bool
	SetSuperseded(fn func() bool)
}

// TurnObserver is told when the queue begins and ends processing a turn.
// Calls come from the queue goroutine, so anything the runtime writes in
// between belongs to that turn.
type TurnObserver interface {
	TurnStarted(id types.TurnID)
	TurnFinished(id types.TurnID)
}

// Gateway accepts input from every front end and feeds it to the runtime
// one turn at a time.
type Gateway struct {
	runtime Processor
	Queue   *Queue

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu        sync.Mutex
	observers []TurnObserver
}

// New creates a Gateway driving rt.
func New(rt Processor) *Gateway {
	g := &Gateway{
		runtime: rt,
		Queue:   NewQueue(),
	}
	g.Queue.SetProcessor(g.process)
	rt.SetSuperseded(func() bool { return g.Queue.Pending() > 0 })
	return g
}

// Observe registers o for every turn processed from now on.
func (g *Gateway) Observe(o TurnObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, o)
}

func (g *Gateway) snapshotObservers() []TurnObserver {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]TurnObserver(nil), g.observers...)
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context and stops the queue.
func (g *Gateway) Stop() {
	g.once.Do(func() {
		if g.cancel != nil {
			g.cancel()
		}
		g.runtime.Interrupt()
		g.Queue.Stop()
	})
}

// Submit enqueues terminal input. Any animation still running is flushed so
// the new input is handled promptly.
func (g *Gateway) Submit(source, input string) (*Turn, error) {
	turn := NewTurn(TurnInput, source)
	turn.Input = input
	return g.enqueue(turn)
}

// Reset enqueues a session reset for the current project.
func (g *Gateway) Reset(source string) (*Turn, error) {
	return g.enqueue(NewTurn(TurnReset, source))
}

// SwitchProject enqueues a switch to projectID.
func (g *Gateway) SwitchProject(source, projectID string) (*Turn, error) {
	turn := NewTurn(TurnSwitchProject, source)
	turn.ProjectID = projectID
	return g.enqueue(turn)
}

func (g *Gateway) enqueue(turn *Turn) (*Turn, error) {
	if err := g.Queue.Enqueue(turn); err != nil {
		return nil, fmt.Errorf("enqueue %s turn: %w", turn.Kind, err)
	}
	g.runtime.Interrupt()
	return turn, nil
}

func (g *Gateway) process(ctx context.Context, turn *Turn) error {
	slog.Debug("processing turn", "turn_id", string(turn.ID), "kind", string(turn.Kind), "source", turn.Source)

	observers := g.snapshotObservers()
	for _, o := range observers {
		o.TurnStarted(turn.ID)
	}
	defer func() {
		for _, o := range observers {
			o.TurnFinished(turn.ID)
		}
	}()

	switch turn.Kind {
	case TurnInput:
		err := g.runtime.ProcessTurn(ctx, turn.Input)
		if errors.Is(err, runtime.ErrNoSession) {
			slog.Warn("input dropped, no active session", "source", turn.Source)
		}
		return err
	case TurnReset:
		_, err := g.runtime.ResetSession()
		return err
	case TurnSwitchProject:
		_, err := g.runtime.SetCurrentProject(turn.ProjectID)
		return err
	default:
		return fmt.Errorf("unknown turn kind %q", turn.Kind)
	}
}
