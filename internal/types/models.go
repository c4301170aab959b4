// internal/types/models.go
package types

import (
	"time"
)

// ProjectFile is one file of a sample project. Content is never executed.
type ProjectFile struct {
	Path           string `json:"path" yaml:"path"`
	Name           string `json:"name" yaml:"name"`
	Language       string `json:"language" yaml:"language"`
	Content        string `json:"content" yaml:"content"`
	HasBug         bool   `json:"has_bug,omitempty" yaml:"has_bug,omitempty"`
	BugDescription string `json:"bug_description,omitempty" yaml:"bug_description,omitempty"`
}

// Project is a read-only snapshot supplied by the project data module.
type Project struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Difficulty  string        `json:"difficulty" yaml:"difficulty"`
	Files       []ProjectFile `json:"files" yaml:"files"`
	DefaultFile string        `json:"default_file" yaml:"default_file"`
}

// File returns the file stored at exactly path.
func (p *Project) File(path string) (*ProjectFile, bool) {
	for i := range p.Files {
		if p.Files[i].Path == path {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// BuggedFiles returns the files flagged with a bug, in project order.
func (p *Project) BuggedFiles() []*ProjectFile {
	var out []*ProjectFile
	for i := range p.Files {
		if p.Files[i].HasBug {
			out = append(out, &p.Files[i])
		}
	}
	return out
}

// Paths returns every file path in project order.
func (p *Project) Paths() []string {
	out := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, f.Path)
	}
	return out
}

type LineType string

const (
	LineInput      LineType = "input"
	LineOutput     LineType = "output"
	LineError      LineType = "error"
	LineSystem     LineType = "system"
	LineAIResponse LineType = "ai-response"
)

// TerminalLine is an immutable entry of the session output log.
type TerminalLine struct {
	Type      LineType  `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a copy of the live session record. Mutations go through
// state.Store only.
type Session struct {
	ID               SessionID      `json:"id"`
	ProjectID        string         `json:"project_id"`
	History          []string       `json:"history"`
	Output           []TerminalLine `json:"output"`
	CurrentDirectory string         `json:"current_directory"`
	Typing           bool           `json:"typing"`
	StartedAt        time.Time      `json:"started_at"`
}
