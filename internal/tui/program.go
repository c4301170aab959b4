package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive terminal and blocks until the user quits or
// ctx is cancelled. sink must already be registered as a runtime output.
func Run(ctx context.Context, m Model, sink *Sink) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)
	defer sink.Detach()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
