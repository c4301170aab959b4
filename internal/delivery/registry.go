// internal/delivery/registry.go
package delivery

import (
	"log/slog"
	"sync"

	"github.com/user/simterm/internal/types"
)

type entry struct {
	name string
	sink types.TerminalSink
}

// Registry fans terminal output out to every attached front end (TUI, HTTP
// event buffer, Telegram chat). It is itself a sink, clearer and previewer,
// so the runtime sees a single output.
type Registry struct {
	mu    sync.RWMutex
	sinks []entry
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register attaches sink under name, replacing any sink of the same name.
func (r *Registry) Register(name string, sink types.TerminalSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.sinks {
		if e.name == name {
			r.sinks[i].sink = sink
			return
		}
	}
	r.sinks = append(r.sinks, entry{name: name, sink: sink})
	slog.Debug("sink registered", "name", name)
}

// Unregister detaches the named sink.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.sinks {
		if e.name == name {
			r.sinks = append(r.sinks[:i], r.sinks[i+1:]...)
			return
		}
	}
}

// Names lists attached sinks in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.sinks))
	for i, e := range r.sinks {
		names[i] = e.name
	}
	return names
}

func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entry(nil), r.sinks...)
}

// Write forwards a completed line to every sink.
func (r *Registry) Write(text string, lineType types.LineType) {
	for _, e := range r.snapshot() {
		e.sink.Write(text, lineType)
	}
}

// Clear forwards to sinks that keep a view.
func (r *Registry) Clear() {
	for _, e := range r.snapshot() {
		if c, ok := e.sink.(types.Clearer); ok {
			c.Clear()
		}
	}
}

// Preview forwards partial reveals to sinks that can show them.
func (r *Registry) Preview(text string) {
	for _, e := range r.snapshot() {
		if p, ok := e.sink.(types.Previewer); ok {
			p.Preview(text)
		}
	}
}
