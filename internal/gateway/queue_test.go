package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueProcessesInOrder(t *testing.T) {
	queue := NewQueue()
	queue.Start(context.Background())
	defer queue.Stop()

	var mu sync.Mutex
	var seen []string
	queue.SetProcessor(func(_ context.Context, turn *Turn) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen = append(seen, turn.Input)
		mu.Unlock()
		return nil
	})

	var turns []*Turn
	for _, in := range []string{"a", "b", "c", "d"} {
		turn := NewTurn(TurnInput, "test")
		turn.Input = in
		if err := queue.Enqueue(turn); err != nil {
			t.Fatal(err)
		}
		turns = append(turns, turn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, turn := range turns {
		if err := turn.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
		if turn.Status() != TurnStatusComplete {
			t.Errorf("status = %s, want complete", turn.Status())
		}
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("order = %v, want %v", seen, want)
		}
	}
}

func TestQueueNeverOverlaps(t *testing.T) {
	queue := NewQueue()
	queue.Start(context.Background())
	defer queue.Stop()

	var mu sync.Mutex
	running, maxSeen := 0, 0
	queue.SetProcessor(func(context.Context, *Turn) error {
		mu.Lock()
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		if err := queue.Enqueue(NewTurn(TurnInput, "test")); err != nil {
			t.Fatal(err)
		}
	}
	if !queue.WaitIdle(5 * time.Second) {
		t.Fatal("queue never went idle")
	}

	mu.Lock()
	defer mu.Unlock()
	if maxSeen != 1 {
		t.Errorf("max concurrent = %d, want 1", maxSeen)
	}
}

func TestQueuePendingCountsWaitingTurns(t *testing.T) {
	queue := NewQueue()
	queue.Start(context.Background())
	defer queue.Stop()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	queue.SetProcessor(func(context.Context, *Turn) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	first := NewTurn(TurnInput, "test")
	if err := queue.Enqueue(first); err != nil {
		t.Fatal(err)
	}
	<-started
	if got := queue.Pending(); got != 0 {
		t.Errorf("pending while first runs = %d, want 0", got)
	}

	second := NewTurn(TurnInput, "test")
	if err := queue.Enqueue(second); err != nil {
		t.Fatal(err)
	}
	if got := queue.Pending(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}

	close(release)
	if !queue.WaitIdle(5 * time.Second) {
		t.Fatal("queue never went idle")
	}
	if got := queue.Pending(); got != 0 {
		t.Errorf("pending after drain = %d, want 0", got)
	}
}

func TestQueueProcessorError(t *testing.T) {
	queue := NewQueue()
	queue.Start(context.Background())
	defer queue.Stop()

	boom := errors.New("boom")
	queue.SetProcessor(func(context.Context, *Turn) error { return boom })

	turn := NewTurn(TurnInput, "test")
	if err := queue.Enqueue(turn); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := turn.Wait(ctx); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if turn.Status() != TurnStatusFailed {
		t.Errorf("status = %s, want failed", turn.Status())
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue()
	if err := queue.Enqueue(NewTurn(TurnInput, "test")); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestQueueStopAbandonsQueuedTurns(t *testing.T) {
	queue := NewQueue()
	queue.Start(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	queue.SetProcessor(func(ctx context.Context, turn *Turn) error {
		if turn.Input == "first" {
			close(started)
			<-release
		}
		return nil
	})

	first := NewTurn(TurnInput, "test")
	first.Input = "first"
	second := NewTurn(TurnInput, "test")
	if err := queue.Enqueue(first); err != nil {
		t.Fatal(err)
	}
	if err := queue.Enqueue(second); err != nil {
		t.Fatal(err)
	}
	<-started

	stopped := make(chan struct{})
	go func() {
		queue.Stop()
		close(stopped)
	}()
	close(release)
	<-stopped

	if err := first.Err(); err != nil {
		t.Errorf("first err = %v, want nil", err)
	}
	select {
	case <-second.Done():
	default:
		t.Fatal("queued turn was not finished on stop")
	}
	if !errors.Is(second.Err(), ErrStopped) {
		t.Errorf("second err = %v, want ErrStopped", second.Err())
	}
	if err := queue.Enqueue(NewTurn(TurnInput, "test")); !errors.Is(err, ErrStopped) {
		t.Errorf("enqueue after stop = %v, want ErrStopped", err)
	}
}
