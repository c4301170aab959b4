// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/simterm/internal/gateway"
)

const source = "scheduler"

// Submitter enqueues work for the session runtime.
type Submitter interface {
	Submit(source, input string) (*gateway.Turn, error)
	Reset(source string) (*gateway.Turn, error)
}

// Entry is one scheduled action. An empty Command resets the session.
type Entry struct {
	Name     string
	Schedule string
	Command  string
}

// Scheduler drives kiosk mode: it resets the session and types demo
// commands on cron schedules.
type Scheduler struct {
	gateway Submitter
	entries []Entry
	cron    *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler for entries.
func New(gw Submitter, entries []Entry) *Scheduler {
	return &Scheduler{
		gateway: gw,
		entries: entries,
		cron:    cron.New(cron.WithParser(cronParser)),
	}
}

// Validate checks every schedule expression. Empty schedules are disabled
// entries and pass.
func Validate(entries []Entry) error {
	for _, e := range entries {
		if e.Schedule == "" {
			continue
		}
		if _, err := cronParser.Parse(e.Schedule); err != nil {
			return fmt.Errorf("entry %s: invalid schedule %q: %w", e.Name, e.Schedule, err)
		}
	}
	return nil
}

// Start registers the entries and starts the cron ticker. Entries with an
// invalid schedule are logged and skipped. It returns the number of
// entries registered.
func (s *Scheduler) Start() int {
	registered := 0
	for _, e := range s.entries {
		if e.Schedule == "" {
			continue
		}
		e := e
		_, err := s.cron.AddFunc(e.Schedule, func() { s.fire(e) })
		if err != nil {
			slog.Error("invalid cron schedule", "name", e.Name, "schedule", e.Schedule, "error", err)
			continue
		}
		registered++
		slog.Info("scheduled entry", "name", e.Name, "schedule", e.Schedule)
	}
	s.cron.Start()
	return registered
}

func (s *Scheduler) fire(e Entry) {
	slog.Info("cron firing entry", "name", e.Name)
	var err error
	if e.Command == "" {
		_, err = s.gateway.Reset(source)
	} else {
		_, err = s.gateway.Submit(source, e.Command)
	}
	if err != nil {
		slog.Error("scheduled entry failed", "name", e.Name, "error", err)
	}
}

// Stop stops the cron ticker and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
