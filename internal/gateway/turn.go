package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/user/simterm/internal/types"
)

// TurnKind selects what the processor does with a turn.
type TurnKind string

const (
	TurnInput         TurnKind = "input"
	TurnReset         TurnKind = "reset"
	TurnSwitchProject TurnKind = "switch-project"
)

// TurnStatus represents the lifecycle state of a Turn.
type TurnStatus string

const (
	TurnStatusQueued   TurnStatus = "queued"
	TurnStatusRunning  TurnStatus = "running"
	TurnStatusComplete TurnStatus = "complete"
	TurnStatusFailed   TurnStatus = "failed"
)

// Turn tracks one submitted unit of work from a front end.
type Turn struct {
	ID        types.TurnID
	Kind      TurnKind
	Source    string
	Input     string
	ProjectID string
	CreatedAt time.Time

	mu        sync.Mutex
	status    TurnStatus
	startedAt time.Time
	endedAt   time.Time
	err       error
	done      chan struct{}
}

// NewTurn creates a Turn in the queued state.
func NewTurn(kind TurnKind, source string) *Turn {
	return &Turn{
		ID:        types.NewTurnID(),
		Kind:      kind,
		Source:    source,
		CreatedAt: time.Now(),
		status:    TurnStatusQueued,
		done:      make(chan struct{}),
	}
}

func (t *Turn) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TurnStatusRunning
	t.startedAt = time.Now()
}

func (t *Turn) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.done:
		return
	default:
	}
	t.err = err
	t.endedAt = time.Now()
	if err != nil {
		t.status = TurnStatusFailed
	} else {
		t.status = TurnStatusComplete
	}
	close(t.done)
}

// Status returns the current lifecycle state.
func (t *Turn) Status() TurnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the processing error once the turn is done.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Duration is the processing time, zero until the turn is done.
func (t *Turn) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() || t.endedAt.IsZero() {
		return 0
	}
	return t.endedAt.Sub(t.startedAt)
}

// Done is closed when the turn has been processed or abandoned.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn is done and returns its error.
func (t *Turn) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
