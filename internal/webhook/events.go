package webhook

import (
	"sync"
	"time"

	"github.com/user/simterm/internal/types"
)

// EventKind distinguishes written lines from view clears.
type EventKind string

const (
	EventLine  EventKind = "line"
	EventClear EventKind = "clear"
)

// Event is one thing the terminal view did, numbered so clients can poll
// with ?since=.
type Event struct {
	Seq      int            `json:"seq"`
	TurnID   types.TurnID   `json:"turn_id,omitempty"`
	Kind     EventKind      `json:"kind"`
	LineType types.LineType `json:"line_type,omitempty"`
	Content  string         `json:"content,omitempty"`
	Time     time.Time      `json:"time"`
}

const defaultEventCapacity = 1000

// EventBuffer is a terminal sink that keeps the most recent events for
// HTTP clients. Older events are dropped once capacity is reached. As a
// gateway turn observer it stamps each event with the turn that wrote it.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	seq      int
	turn     types.TurnID
	capacity int
	now      func() time.Time
}

// NewEventBuffer creates a buffer holding up to capacity events; zero
// means the default.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &EventBuffer{capacity: capacity, now: time.Now}
}

func (b *EventBuffer) Write(text string, lineType types.LineType) {
	b.append(Event{Kind: EventLine, LineType: lineType, Content: text})
}

func (b *EventBuffer) Clear() {
	b.append(Event{Kind: EventClear})
}

func (b *EventBuffer) append(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	ev.Seq = b.seq
	ev.TurnID = b.turn
	ev.Time = b.now()
	b.events = append(b.events, ev)
	if over := len(b.events) - b.capacity; over > 0 {
		b.events = append(b.events[:0:0], b.events[over:]...)
	}
}

func (b *EventBuffer) TurnStarted(id types.TurnID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turn = id
}

func (b *EventBuffer) TurnFinished(id types.TurnID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.turn == id {
		b.turn = ""
	}
}

// ForTurn returns the retained events written while turn id ran.
func (b *EventBuffer) ForTurn(id types.TurnID) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []Event{}
	for _, ev := range b.events {
		if ev.TurnID == id {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the sequence number of the newest event, 0 if none.
func (b *EventBuffer) Last() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Since returns retained events with Seq > seq, oldest first.
func (b *EventBuffer) Since(seq int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []Event{}
	for _, ev := range b.events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}
