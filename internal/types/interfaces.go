// internal/types/interfaces.go
package types

// TerminalSink is the output capability a terminal view registers with the
// orchestrator.
type TerminalSink interface {
	Write(text string, lineType LineType)
}

// Clearer is implemented by sinks that can wipe their visible output.
type Clearer interface {
	Clear()
}

// Previewer is implemented by sinks that show intermediate typing reveals.
// Previews are never logged.
type Previewer interface {
	Preview(text string)
}

// ProjectSource supplies project snapshots by id.
type ProjectSource interface {
	Get(id string) (*Project, bool)
	List() []*Project
}
