package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueFull is returned when the lane buffer has no room.
	ErrQueueFull = errors.New("queue full")
	// ErrStopped is returned for turns submitted to, or left in, a stopped queue.
	ErrStopped = errors.New("queue stopped")
)

const laneSize = 100

// Queue is a single FIFO lane drained by one goroutine, so turns never
// overlap and complete in submission order.
type Queue struct {
	lane      chan *Turn
	processor func(context.Context, *Turn) error
	pending   atomic.Int64
	active    atomic.Int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewQueue creates an idle queue.
func NewQueue() *Queue {
	return &Queue{lane: make(chan *Turn, laneSize)}
}

// Start launches the lane goroutine. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.processLane()
}

// Stop cancels the queue context, waits for the running turn, and abandons
// whatever is still queued with ErrStopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	if q.cancel != nil {
		q.cancel()
	}
	close(q.lane)
	q.mu.Unlock()

	q.wg.Wait()
	for turn := range q.lane {
		q.pending.Add(-1)
		turn.finish(ErrStopped)
	}
}

// Enqueue appends a turn to the lane.
func (q *Queue) Enqueue(turn *Turn) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || !q.started {
		return ErrStopped
	}

	q.pending.Add(1)
	select {
	case q.lane <- turn:
		return nil
	default:
		q.pending.Add(-1)
		return fmt.Errorf("%w: %d turns waiting", ErrQueueFull, laneSize)
	}
}

func (q *Queue) processLane() {
	defer q.wg.Done()
	for {
		select {
		case turn, ok := <-q.lane:
			if !ok {
				return
			}
			q.pending.Add(-1)
			if q.ctx.Err() != nil {
				turn.finish(ErrStopped)
				continue
			}
			q.run(turn)
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) run(turn *Turn) {
	if q.processor == nil {
		turn.finish(nil)
		return
	}
	q.active.Add(1)
	defer q.active.Add(-1)

	turn.start()
	err := q.processor(q.ctx, turn)
	if err != nil {
		slog.Error("turn failed", "turn_id", string(turn.ID), "kind", string(turn.Kind), "source", turn.Source, "error", err)
	}
	turn.finish(err)
}

// Pending is the number of turns waiting behind the running one.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// WaitIdle blocks until nothing is queued or running, or the timeout
// expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 && q.pending.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// SetProcessor sets the function invoked for each dequeued turn.
func (q *Queue) SetProcessor(fn func(context.Context, *Turn) error) {
	q.processor = fn
}
