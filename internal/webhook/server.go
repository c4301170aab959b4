// internal/webhook/server.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/user/simterm/internal/gateway"
	"github.com/user/simterm/internal/runtime"
	"github.com/user/simterm/internal/state"
	"github.com/user/simterm/internal/types"
)

// Submitter enqueues work for the session runtime.
type Submitter interface {
	Submit(source, input string) (*gateway.Turn, error)
	Reset(source string) (*gateway.Turn, error)
	SwitchProject(source, projectID string) (*gateway.Turn, error)
}

// SessionView is the read side of the session runtime.
type SessionView interface {
	Snapshot() (types.Session, bool)
	NavigateHistory(dir state.Direction) string
	Transcript() (string, error)
}

const source = "http"

// Server is the HTTP front end of the simulated terminal.
type Server struct {
	gateway  Submitter
	session  SessionView
	projects types.ProjectSource
	events   *EventBuffer
	mux      *http.ServeMux
}

// NewServer creates a Server. events must be registered both as an output
// sink and as a gateway turn observer so that POST /api/command can report
// what its own turn printed.
func NewServer(gw Submitter, session SessionView, projects types.ProjectSource, events *EventBuffer) *Server {
	s := &Server{
		gateway:  gw,
		session:  session,
		projects: projects,
		events:   events,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/projects", s.handleProjects)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/session/reset", s.handleReset)
	s.mux.HandleFunc("POST /api/session/project", s.handleSwitchProject)
	s.mux.HandleFunc("POST /api/command", s.handleCommand)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type projectResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty,omitempty"`
	DefaultFile string   `json:"default_file"`
	Files       []string `json:"files"`
	Bugs        int      `json:"bugs"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	list := s.projects.List()
	result := make([]projectResponse, 0, len(list))
	for _, p := range list {
		result = append(result, projectResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Difficulty:  p.Difficulty,
			DefaultFile: p.DefaultFile,
			Files:       p.Paths(),
			Bugs:        len(p.BuggedFiles()),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.session.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	turn, err := s.gateway.Reset(source)
	if !s.await(w, r.Context(), turn, err) {
		return
	}
	s.handleSession(w, r)
}

type switchProjectRequest struct {
	ProjectID string `json:"project_id"`
}

func (s *Server) handleSwitchProject(w http.ResponseWriter, r *http.Request) {
	var req switchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	if _, ok := s.projects.Get(req.ProjectID); !ok {
		writeError(w, http.StatusNotFound, "unknown project")
		return
	}

	turn, err := s.gateway.SwitchProject(source, req.ProjectID)
	if !s.await(w, r.Context(), turn, err) {
		return
	}
	s.handleSession(w, r)
}

type commandRequest struct {
	Input string `json:"input"`
}

type commandResponse struct {
	TurnID string  `json:"turn_id"`
	Events []Event `json:"events"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	turn, err := s.gateway.Submit(source, req.Input)
	if !s.await(w, r.Context(), turn, err) {
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{
		TurnID: string(turn.ID),
		Events: s.events.ForTurn(turn.ID),
	})
}

// await waits for turn and writes an error response if it failed. It
// reports whether the caller should go on to write a success response.
func (s *Server) await(w http.ResponseWriter, ctx context.Context, turn *gateway.Turn, err error) bool {
	if err != nil {
		slog.Error("enqueue turn failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "terminal is busy")
		return false
	}
	err = turn.Wait(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, runtime.ErrNoSession):
		writeError(w, http.StatusConflict, "no active session")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	default:
		slog.Error("turn failed", "turn_id", string(turn.ID), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
	return false
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if q := r.URL.Query().Get("since"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"last":   s.events.Last(),
		"events": s.events.Since(since),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var dir state.Direction
	switch r.URL.Query().Get("direction") {
	case "up", "":
		dir = state.Up
	case "down":
		dir = state.Down
	default:
		writeError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"command": s.session.NavigateHistory(dir)})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Transcript()
	if errors.Is(err, runtime.ErrNoSession) {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	if err != nil {
		slog.Error("transcript failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}
