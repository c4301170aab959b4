package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/simterm/internal/types"
)

type lineMsg struct {
	text     string
	lineType types.LineType
}

type previewMsg string

type clearMsg struct{}

// Sink forwards terminal output to a running bubbletea program. Messages
// are queued and delivered in order by a separate goroutine, so writes
// never block, not even from inside the program's own Update. Output
// arriving while no program is attached is dropped.
type Sink struct {
	mu      sync.Mutex
	program *tea.Program
	queue   []tea.Msg
	wake    chan struct{}
	done    chan struct{}
}

// NewSink creates a detached sink.
func NewSink() *Sink {
	return &Sink{}
}

// Attach starts forwarding to p.
func (s *Sink) Attach(p *tea.Program) {
	s.Detach()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
	s.wake = make(chan struct{}, 1)
	s.done = make(chan struct{})
	go s.forward(p, s.wake, s.done)
}

// Detach stops forwarding and drops anything not yet delivered.
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.program = nil
	s.queue = nil
}

func (s *Sink) forward(p *tea.Program, wake, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-wake:
		}
		for {
			msg, ok := s.next(done)
			if !ok {
				break
			}
			p.Send(msg)
		}
	}
}

func (s *Sink) next(done chan struct{}) (tea.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done || len(s.queue) == 0 {
		return nil, false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}
	s.queue = append(s.queue, msg)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sink) Write(text string, lineType types.LineType) {
	s.send(lineMsg{text: text, lineType: lineType})
}

func (s *Sink) Clear() {
	s.send(clearMsg{})
}

func (s *Sink) Preview(text string) {
	s.send(previewMsg(text))
}
