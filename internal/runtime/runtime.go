package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/simterm/internal/animator"
	"github.com/user/simterm/internal/projects"
	"github.com/user/simterm/internal/router"
	"github.com/user/simterm/internal/state"
	"github.com/user/simterm/internal/transcript"
	"github.com/user/simterm/internal/types"
)

// ErrNoSession is returned when a turn arrives with no live session. The
// turn is dropped and nothing is logged.
var ErrNoSession = errors.New("no active session")

// Runtime implements the terminal turn loop. It is the only component that
// mutates the session.
//
// Turns are serialized: a turn that arrives while another is running first
// cancels the running animation, then waits for that turn to finish logging.
// Multi-step sequences cannot be cancelled and are waited out.
type Runtime struct {
	projects types.ProjectSource
	store    *state.Store
	router   *router.Router
	sink     types.TerminalSink

	sleep      func(context.Context, time.Duration) error
	instant    bool
	speedScale float64
	now        func() time.Time

	turnMu  sync.Mutex
	pending atomic.Int32

	mu         sync.Mutex
	inflight   *animator.Animation
	superseded func() bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSleep replaces the delay used between multi-step entries.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(rt *Runtime) { rt.sleep = fn }
}

// WithInstantTyping disables the typing animation; responses are written
// whole.
func WithInstantTyping(instant bool) Option {
	return func(rt *Runtime) { rt.instant = instant }
}

// WithSpeedScale multiplies every typing speed and step delay.
func WithSpeedScale(scale float64) Option {
	return func(rt *Runtime) {
		if scale >= 0 {
			rt.speedScale = scale
		}
	}
}

// WithRouter replaces the default router.
func WithRouter(r *router.Router) Option {
	return func(rt *Runtime) { rt.router = r }
}

// New creates a Runtime writing to sink.
func New(projects types.ProjectSource, store *state.Store, sink types.TerminalSink, opts ...Option) *Runtime {
	rt := &Runtime{
		projects:   projects,
		store:      store,
		router:     router.New(),
		sink:       sink,
		sleep:      sleepContext,
		speedScale: 1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// SetSuperseded registers a check for input waiting behind the current
// turn. When it reports true, animations are flushed at once.
func (rt *Runtime) SetSuperseded(fn func() bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.superseded = fn
}

// InitSession replaces the live session with a fresh one for projectID.
func (rt *Runtime) InitSession(projectID string) (types.SessionID, error) {
	p, ok := rt.projects.Get(projectID)
	if !ok {
		return "", fmt.Errorf("%w: %s", projects.ErrUnknownProject, projectID)
	}

	rt.enter()
	defer rt.turnMu.Unlock()

	id := rt.store.InitSession(p.ID, "~/"+p.ID)
	if c, ok := rt.sink.(types.Clearer); ok {
		c.Clear()
	}
	rt.emit(id, fmt.Sprintf("Welcome to %s. Type 'help' to get started, or try: claude \"describe this project\"", p.Name), types.LineSystem)
	slog.Info("session started", "session_id", string(id), "project", p.ID)
	return id, nil
}

// ResetSession re-initializes the session for the current project.
func (rt *Runtime) ResetSession() (types.SessionID, error) {
	_, projectID, ok := rt.store.Active()
	if !ok {
		return "", ErrNoSession
	}
	return rt.InitSession(projectID)
}

// SetCurrentProject switches projects. History and log are discarded.
func (rt *Runtime) SetCurrentProject(projectID string) (types.SessionID, error) {
	return rt.InitSession(projectID)
}

// Interrupt flushes the in-flight animation, if any, to completion.
func (rt *Runtime) Interrupt() bool {
	rt.mu.Lock()
	a := rt.inflight
	rt.mu.Unlock()
	if a == nil {
		return false
	}
	a.Cancel()
	return true
}

// enter cancels whatever animation is running and takes the turn lock.
func (rt *Runtime) enter() {
	rt.pending.Add(1)
	rt.Interrupt()
	rt.turnMu.Lock()
	rt.pending.Add(-1)
}

// ProcessTurn runs one full turn for raw input.
func (rt *Runtime) ProcessTurn(ctx context.Context, raw string) error {
	id, projectID, ok := rt.store.Active()
	if !ok {
		return ErrNoSession
	}
	p, ok := rt.projects.Get(projectID)
	if !ok {
		return fmt.Errorf("%w: project %s is gone", ErrNoSession, projectID)
	}

	rt.enter()
	defer rt.turnMu.Unlock()

	line := strings.TrimSpace(raw)
	if err := rt.store.AddCommand(id, line); err != nil {
		return fmt.Errorf("add command: %w", err)
	}
	rt.emit(id, line, types.LineInput)

	snap, _ := rt.store.Snapshot()
	res := rt.router.Route(line, router.Context{Project: p, CurrentDirectory: snap.CurrentDirectory})
	resp := res.Response
	slog.Debug("turn routed", "session_id", string(id), "input", line, "type", string(resp.Type))

	if res.Directory != "" {
		if err := rt.store.SetDirectory(id, res.Directory); err != nil {
			return fmt.Errorf("set directory: %w", err)
		}
	}
	if res.ClearTerminal {
		if c, ok := rt.sink.(types.Clearer); ok {
			c.Clear()
		}
		return nil
	}

	switch {
	case resp.Type == types.ResponseMultiStep:
		return rt.runSteps(ctx, id, resp.Steps)
	case resp.Animated():
		return rt.animate(ctx, id, resp)
	case resp.Content != "":
		rt.emit(id, resp.Content, resp.LineType())
	}
	return nil
}

// runSteps reveals steps strictly in order. Once started the sequence runs
// to completion; only shutdown (ctx) stops it.
func (rt *Runtime) runSteps(ctx context.Context, id types.SessionID, steps []types.SimulationStep) error {
	if err := rt.store.SetTyping(id, true); err != nil {
		return err
	}
	defer rt.store.SetTyping(id, false)

	for _, step := range steps {
		if err := rt.sleep(ctx, rt.scale(step.Delay)); err != nil {
			return fmt.Errorf("step %s: %w", step.Label, err)
		}
		if !rt.emit(id, step.Content, types.LineOutput) {
			return state.ErrStaleSession
		}
	}
	return nil
}

func (rt *Runtime) animate(ctx context.Context, id types.SessionID, resp types.CommandResponse) error {
	rt.mu.Lock()
	if rt.instant || rt.pending.Load() > 0 || (rt.superseded != nil && rt.superseded()) {
		rt.mu.Unlock()
		rt.emit(id, resp.Content, resp.LineType())
		return nil
	}
	if err := rt.store.SetTyping(id, true); err != nil {
		rt.mu.Unlock()
		return err
	}
	a := animator.Animate(resp.Content, rt.previewer(), animator.Options{Speed: rt.scale(resp.TypingSpeed)})
	rt.inflight = a
	rt.mu.Unlock()

	text, err := a.Wait(ctx)
	if err != nil {
		a.Cancel()
		text = a.Text()
	}

	rt.mu.Lock()
	if rt.inflight == a {
		rt.inflight = nil
	}
	rt.mu.Unlock()

	rt.emit(id, text, resp.LineType())
	rt.store.SetTyping(id, false)
	return nil
}

func (rt *Runtime) previewer() animator.UpdateFunc {
	pv, ok := rt.sink.(types.Previewer)
	if !ok {
		return nil
	}
	return func(text, _ string) { pv.Preview(text) }
}

// emit logs a line and, if the session is still live, writes it to the sink.
func (rt *Runtime) emit(id types.SessionID, text string, lineType types.LineType) bool {
	if err := rt.store.AddOutput(id, lineType, text); err != nil {
		slog.Debug("dropping output for replaced session", "session_id", string(id), "error", err)
		return false
	}
	rt.sink.Write(text, lineType)
	return true
}

func (rt *Runtime) scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) * rt.speedScale)
}

// NavigateHistory recalls a previous command.
func (rt *Runtime) NavigateHistory(dir state.Direction) string {
	return rt.store.NavigateHistory(dir)
}

// Snapshot returns a copy of the live session.
func (rt *Runtime) Snapshot() (types.Session, bool) {
	return rt.store.Snapshot()
}

// Project returns the live session's project.
func (rt *Runtime) Project() (*types.Project, bool) {
	_, projectID, ok := rt.store.Active()
	if !ok {
		return nil, false
	}
	return rt.projects.Get(projectID)
}

// Busy reports whether an animation or step sequence is running.
func (rt *Runtime) Busy() bool {
	snap, ok := rt.store.Snapshot()
	return ok && snap.Typing
}

// Transcript renders the live session's log.
func (rt *Runtime) Transcript() (string, error) {
	snap, ok := rt.store.Snapshot()
	if !ok {
		return "", ErrNoSession
	}
	p, _ := rt.projects.Get(snap.ProjectID)
	return transcript.Export(snap, p, rt.now()), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
