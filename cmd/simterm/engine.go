package main

import (
	"fmt"

	"github.com/user/simterm/internal/config"
	"github.com/user/simterm/internal/delivery"
	"github.com/user/simterm/internal/gateway"
	"github.com/user/simterm/internal/projects"
	"github.com/user/simterm/internal/runtime"
	"github.com/user/simterm/internal/state"
)

// engine is the wiring shared by every command that runs a session.
type engine struct {
	library *projects.Library
	sinks   *delivery.Registry
	runtime *runtime.Runtime
	gateway *gateway.Gateway
}

func newEngine(cfg *config.Config, forceInstant bool) (*engine, error) {
	library, err := projects.Load(cfg.ProjectsFile)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	sinks := delivery.NewRegistry()
	rt := runtime.New(library, state.NewStore(), sinks,
		runtime.WithInstantTyping(cfg.Typing.Instant || forceInstant),
		runtime.WithSpeedScale(cfg.Typing.SpeedScale),
	)

	return &engine{
		library: library,
		sinks:   sinks,
		runtime: rt,
		gateway: gateway.New(rt),
	}, nil
}

// startProject resolves the project to open: the flag, then the config
// default, then the first project in the library.
func (e *engine) startProject(flagValue string, cfg *config.Config) (string, error) {
	id := flagValue
	if id == "" {
		id = cfg.DefaultProject
	}
	if id == "" {
		return e.library.Default().ID, nil
	}
	if _, ok := e.library.Get(id); !ok {
		return "", fmt.Errorf("%w: %s", projects.ErrUnknownProject, id)
	}
	return id, nil
}

func (e *engine) projectIDs() []string {
	return libraryIDs(e.library)
}
