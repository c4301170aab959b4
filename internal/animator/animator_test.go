package animator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	texts  []string
	deltas []string
}

func (r *recorder) update(text, delta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	r.deltas = append(r.deltas, delta)
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...), append([]string(nil), r.deltas...)
}

func waitText(t *testing.T, a *Animation) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	text, err := a.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return text
}

func TestAnimateCumulativeUpdates(t *testing.T) {
	rec := &recorder{}
	completions := 0
	var mu sync.Mutex
	a := Animate("hello", rec.update, Options{
		Speed: time.Millisecond,
		OnComplete: func(string) {
			mu.Lock()
			completions++
			mu.Unlock()
		},
	})

	if got := waitText(t, a); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}

	texts, deltas := rec.snapshot()
	if diff := cmp.Diff([]string{"h", "he", "hel", "hell", "hello"}, texts); diff != "" {
		t.Errorf("cumulative updates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"h", "e", "l", "l", "o"}, deltas); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}

	a.Cancel()
	mu.Lock()
	defer mu.Unlock()
	if completions != 1 {
		t.Errorf("expected 1 completion, got %d", completions)
	}
}

func TestCancelBeforeFirstTick(t *testing.T) {
	rec := &recorder{}
	completions := 0
	a := Animate("hello", rec.update, Options{
		Speed:      time.Hour,
		OnComplete: func(string) { completions++ },
	})
	a.Cancel()
	a.Cancel()

	if got := waitText(t, a); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	texts, deltas := rec.snapshot()
	if diff := cmp.Diff([]string{"hello"}, texts); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hello"}, deltas); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
	if completions != 1 {
		t.Errorf("expected exactly 1 completion, got %d", completions)
	}
}

func TestCancelMidFlight(t *testing.T) {
	first := make(chan struct{})
	var once sync.Once
	rec := &recorder{}
	text := "the quick brown fox jumps over the lazy dog"
	a := Animate(text, func(s, d string) {
		rec.update(s, d)
		once.Do(func() { close(first) })
	}, Options{Speed: 5 * time.Millisecond})

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within 2s")
	}
	a.Cancel()

	if got := waitText(t, a); got != text {
		t.Errorf("expected full text, got %q", got)
	}
	texts, deltas := rec.snapshot()
	if texts[len(texts)-1] != text {
		t.Errorf("last update should be the full text, got %q", texts[len(texts)-1])
	}
	if joined := strings.Join(deltas, ""); joined != text {
		t.Errorf("deltas should reassemble the text, got %q", joined)
	}
}

func TestInstantDeliversSynchronously(t *testing.T) {
	rec := &recorder{}
	a := Animate("hello", rec.update, Options{Speed: time.Second, Instant: true})

	select {
	case <-a.Done():
	default:
		t.Fatal("instant animation should be done on return")
	}
	texts, _ := rec.snapshot()
	if diff := cmp.Diff([]string{"hello"}, texts); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroSpeedIsInstant(t *testing.T) {
	rec := &recorder{}
	a := Animate("abc", rec.update, Options{})
	if got := waitText(t, a); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if texts, _ := rec.snapshot(); len(texts) != 1 {
		t.Errorf("expected one update, got %d", len(texts))
	}
}

func TestEmptyTextCompletesImmediately(t *testing.T) {
	rec := &recorder{}
	completed := false
	a := Animate("", rec.update, Options{Speed: time.Hour, OnComplete: func(string) { completed = true }})

	select {
	case <-a.Done():
	default:
		t.Fatal("empty animation should be done on return")
	}
	if !completed {
		t.Error("expected completion callback")
	}
	if texts, _ := rec.snapshot(); len(texts) != 0 {
		t.Errorf("expected no updates, got %v", texts)
	}
}

func TestRevealsRunesNotBytes(t *testing.T) {
	rec := &recorder{}
	a := Animate("안녕", rec.update, Options{Speed: time.Millisecond})
	waitText(t, a)
	texts, _ := rec.snapshot()
	if diff := cmp.Diff([]string{"안", "안녕"}, texts); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	a := Animate("slow", nil, Options{Speed: time.Hour})
	defer a.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := a.Wait(ctx); err == nil {
		t.Error("expected context error")
	}
}
