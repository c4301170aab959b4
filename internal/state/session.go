// internal/state/session.go
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/user/simterm/internal/types"
)

var (
	// ErrNoSession is returned when no session has been initialized.
	ErrNoSession = errors.New("no active session")
	// ErrStaleSession is returned when a write targets a session that has
	// since been replaced.
	ErrStaleSession = errors.New("session has been replaced")
)

// Direction selects which way NavigateHistory moves.
type Direction int

const (
	Up Direction = iota
	Down
)

// notBrowsing is the cursor value outside of history recall.
const notBrowsing = -1

// Store holds the single live session. Only the orchestrator mutates it;
// the lock exists so front ends can read snapshots from other goroutines.
//
// Every mutation names the session it targets so a turn that outlives its
// session cannot write into the replacement.
type Store struct {
	mu      sync.RWMutex
	session *types.Session
	cursor  int
	now     func() time.Time
}

// NewStore creates an empty Store with no active session.
func NewStore() *Store {
	return &Store{cursor: notBrowsing, now: time.Now}
}

// InitSession discards any existing session and starts a fresh one.
func (s *Store) InitSession(projectID, dir string) types.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = &types.Session{
		ID:               types.NewSessionID(),
		ProjectID:        projectID,
		CurrentDirectory: dir,
		StartedAt:        s.now(),
	}
	s.cursor = notBrowsing
	return s.session.ID
}

// Active returns the live session's ID and project.
func (s *Store) Active() (types.SessionID, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return "", "", false
	}
	return s.session.ID, s.session.ProjectID, true
}

// lookup returns the live session if it is id. Caller holds the lock.
func (s *Store) lookup(id types.SessionID) (*types.Session, error) {
	if s.session == nil {
		return nil, ErrNoSession
	}
	if s.session.ID != id {
		return nil, ErrStaleSession
	}
	return s.session, nil
}

// AddCommand appends cmd to the command history and stops history browsing.
// Blank lines are not remembered.
func (s *Store) AddCommand(id types.SessionID, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	if cmd != "" {
		sess.History = append(sess.History, cmd)
	}
	s.cursor = notBrowsing
	return nil
}

// AddOutput appends one line to the output log.
func (s *Store) AddOutput(id types.SessionID, lineType types.LineType, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.Output = append(sess.Output, types.TerminalLine{
		Type:      lineType,
		Content:   content,
		Timestamp: s.now(),
	})
	return nil
}

// SetTyping flips the busy flag.
func (s *Store) SetTyping(id types.SessionID, typing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.Typing = typing
	return nil
}

// SetDirectory records the cosmetic working directory.
func (s *Store) SetDirectory(id types.SessionID, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.CurrentDirectory = dir
	return nil
}

// NavigateHistory moves the recall cursor and returns the recalled command.
// Up stops at the oldest entry; Down past the newest returns "" and leaves
// browsing mode. History itself is never modified.
func (s *Store) NavigateHistory(dir Direction) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || len(s.session.History) == 0 {
		return ""
	}
	history := s.session.History

	switch dir {
	case Up:
		if s.cursor == notBrowsing {
			s.cursor = len(history) - 1
		} else if s.cursor > 0 {
			s.cursor--
		}
		return history[s.cursor]
	case Down:
		if s.cursor == notBrowsing {
			return ""
		}
		if s.cursor < len(history)-1 {
			s.cursor++
			return history[s.cursor]
		}
		s.cursor = notBrowsing
		return ""
	}
	return ""
}

// Cursor returns the history recall index, -1 when not browsing.
func (s *Store) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Snapshot returns a copy of the live session.
func (s *Store) Snapshot() (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return types.Session{}, false
	}
	cp := *s.session
	cp.History = append([]string(nil), s.session.History...)
	cp.Output = append([]types.TerminalLine(nil), s.session.Output...)
	return cp, true
}

// Lines returns the log entries from index since onward.
func (s *Store) Lines(since int) []types.TerminalLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil || since >= len(s.session.Output) {
		return nil
	}
	if since < 0 {
		since = 0
	}
	return append([]types.TerminalLine(nil), s.session.Output[since:]...)
}
