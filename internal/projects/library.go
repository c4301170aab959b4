// Package projects supplies the read-only project snapshots the simulation
// runs against: the bundled samples or a YAML file, optionally hot-reloaded.
package projects

import (
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/user/simterm/internal/types"
)

var (
	// ErrUnknownProject is returned for an id the library does not hold.
	ErrUnknownProject = errors.New("unknown project")
	// ErrInvalidProject wraps every validation failure.
	ErrInvalidProject = errors.New("invalid project")
)

// Library is an ordered, swappable set of projects.
type Library struct {
	mu       sync.RWMutex
	projects []*types.Project
	byID     map[string]*types.Project
}

// NewLibrary validates projects and indexes them by id.
func NewLibrary(projects []*types.Project) (*Library, error) {
	l := &Library{}
	if err := l.Replace(projects); err != nil {
		return nil, err
	}
	return l, nil
}

// Replace swaps the library contents after validating the new set. On
// error the old contents are kept.
func (l *Library) Replace(projects []*types.Project) error {
	if len(projects) == 0 {
		return fmt.Errorf("%w: no projects", ErrInvalidProject)
	}
	byID := make(map[string]*types.Project, len(projects))
	for _, p := range projects {
		normalize(p)
		if err := Validate(p); err != nil {
			return err
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("%w: duplicate project id %q", ErrInvalidProject, p.ID)
		}
		byID[p.ID] = p
	}

	l.mu.Lock()
	l.projects = projects
	l.byID = byID
	l.mu.Unlock()
	return nil
}

// Get returns the project with id.
func (l *Library) Get(id string) (*types.Project, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.byID[id]
	return p, ok
}

// List returns the projects in file order.
func (l *Library) List() []*types.Project {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*types.Project(nil), l.projects...)
}

// Default returns the first project.
func (l *Library) Default() *types.Project {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.projects[0]
}

// Validate checks a snapshot: id present, files non-empty, paths unique,
// default file present.
func Validate(p *types.Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProject)
	}
	if len(p.Files) == 0 {
		return fmt.Errorf("%w: project %q has no files", ErrInvalidProject, p.ID)
	}
	seen := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		if f.Path == "" {
			return fmt.Errorf("%w: project %q has a file without a path", ErrInvalidProject, p.ID)
		}
		if seen[f.Path] {
			return fmt.Errorf("%w: project %q has duplicate path %q", ErrInvalidProject, p.ID, f.Path)
		}
		seen[f.Path] = true
	}
	if !seen[p.DefaultFile] {
		return fmt.Errorf("%w: project %q default file %q does not exist", ErrInvalidProject, p.ID, p.DefaultFile)
	}
	return nil
}

// normalize fills derived fields: leaf names and a missing display name.
func normalize(p *types.Project) {
	if p.Name == "" {
		p.Name = p.ID
	}
	for i := range p.Files {
		if p.Files[i].Name == "" {
			p.Files[i].Name = path.Base(p.Files[i].Path)
		}
	}
	if p.DefaultFile == "" && len(p.Files) > 0 {
		p.DefaultFile = p.Files[0].Path
	}
}
