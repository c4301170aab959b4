// Package animator reveals text one rune at a time to simulate generation
// latency. Every animation can be flushed to completion at any moment.
package animator

import (
	"context"
	"sync"
	"time"
)

// UpdateFunc receives the cumulative revealed text and the part revealed by
// this update. It is called from the animation goroutine or from Cancel and
// must not call Cancel itself.
type UpdateFunc func(text, delta string)

// Options controls pacing. Speed is the delay between runes.
type Options struct {
	Speed   time.Duration
	Instant bool

	// OnComplete, if set, fires exactly once with the full text.
	OnComplete func(text string)
}

// Animation is a handle on one running reveal.
type Animation struct {
	mu       sync.Mutex
	runes    []rune
	pos      int
	finished bool
	onUpdate UpdateFunc

	stop       chan struct{}
	done       chan struct{}
	once       sync.Once
	onComplete func(string)
	full       string
}

// Animate starts revealing text. With Instant set or a zero Speed the whole
// text is delivered synchronously before Animate returns.
func Animate(text string, onUpdate UpdateFunc, opts Options) *Animation {
	if onUpdate == nil {
		onUpdate = func(string, string) {}
	}
	a := &Animation{
		runes:      []rune(text),
		onUpdate:   onUpdate,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		onComplete: opts.OnComplete,
		full:       text,
	}

	if len(a.runes) == 0 {
		a.finished = true
		a.complete()
		return a
	}
	if opts.Instant || opts.Speed <= 0 {
		a.Cancel()
		return a
	}

	go a.run(opts.Speed)
	return a
}

func (a *Animation) run(speed time.Duration) {
	ticker := time.NewTicker(speed)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if a.tick() {
				return
			}
		}
	}
}

// tick reveals one rune and reports whether the animation is over.
func (a *Animation) tick() bool {
	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return true
	}
	r := a.runes[a.pos]
	a.pos++
	last := a.pos == len(a.runes)
	if last {
		a.finished = true
	}
	a.onUpdate(string(a.runes[:a.pos]), string(r))
	a.mu.Unlock()

	if last {
		a.complete()
	}
	return last
}

// Cancel stops the reveal and flushes whatever is left in one update.
// Calling it after completion does nothing.
func (a *Animation) Cancel() {
	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return
	}
	a.finished = true
	close(a.stop)
	rest := string(a.runes[a.pos:])
	a.pos = len(a.runes)
	a.onUpdate(a.full, rest)
	a.mu.Unlock()

	a.complete()
}

func (a *Animation) complete() {
	a.once.Do(func() {
		close(a.done)
		if a.onComplete != nil {
			a.onComplete(a.full)
		}
	})
}

// Done is closed once the full text has been delivered.
func (a *Animation) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the animation completes and returns the final text.
func (a *Animation) Wait(ctx context.Context) (string, error) {
	select {
	case <-a.done:
		return a.full, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Text returns the full text the animation resolves to.
func (a *Animation) Text() string {
	return a.full
}
