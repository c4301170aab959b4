package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/user/simterm/internal/gateway"
	"github.com/user/simterm/internal/runtime"
	"github.com/user/simterm/internal/state"
	"github.com/user/simterm/internal/types"
)

const source = "tui"

// Submitter enqueues work for the session runtime.
type Submitter interface {
	Submit(source, input string) (*gateway.Turn, error)
	SwitchProject(source, projectID string) (*gateway.Turn, error)
}

// Session is the read side of the runtime plus interrupt.
type Session interface {
	Snapshot() (types.Session, bool)
	NavigateHistory(dir state.Direction) string
	Interrupt() bool
}

type turnDoneMsg struct{ err error }

type line struct {
	text     string
	lineType types.LineType
}

// Model is the Bubble Tea model for the simulated terminal.
type Model struct {
	keys     keyMap
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	gateway  Submitter
	session  Session
	projects []string
	project  int

	lines   []line
	preview string
	pending int
	width   int
	ready   bool
	err     error
}

// New creates the model. projectIDs lists the projects ctrl+p cycles
// through; start is the one opened on launch.
func New(gw Submitter, session Session, projectIDs []string, start string) Model {
	ti := textinput.New()
	ti.Placeholder = `try: claude "describe this project"`
	ti.Prompt = ""
	ti.CharLimit = 1024
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = aiStyle

	project := 0
	for i, id := range projectIDs {
		if id == start {
			project = i
		}
	}

	return Model{
		keys:     newKeyMap(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		renderer: newRenderer(80),
		gateway:  gw,
		session:  session,
		projects: projectIDs,
		project:  project,
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	if len(m.projects) == 0 {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.switchProject(m.projects[m.project]))
}

func (m Model) switchProject(id string) tea.Cmd {
	turn, err := m.gateway.SwitchProject(source, id)
	if err != nil {
		return func() tea.Msg { return turnDoneMsg{err: err} }
	}
	return waitTurn(turn)
}

func waitTurn(turn *gateway.Turn) tea.Cmd {
	return func() tea.Msg {
		<-turn.Done()
		return turnDoneMsg{err: turn.Err()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			text := m.input.Value()
			m.input.Reset()
			turn, err := m.gateway.Submit(source, text)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.pending++
			return m, tea.Batch(waitTurn(turn), m.spinner.Tick)
		case key.Matches(msg, m.keys.Up):
			m.recall(state.Up)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.recall(state.Down)
			return m, nil
		case key.Matches(msg, m.keys.Interrupt):
			m.session.Interrupt()
			return m, nil
		case key.Matches(msg, m.keys.NextProj):
			if len(m.projects) > 1 {
				m.project = (m.project + 1) % len(m.projects)
				m.pending++
				return m, tea.Batch(m.switchProject(m.projects[m.project]), m.spinner.Tick)
			}
			return m, nil
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight, footerHeight := 2, 3
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(max(msg.Width-4, 20))
		m.ready = true
		m.refresh()

	case lineMsg:
		m.preview = ""
		m.lines = append(m.lines, line{text: msg.text, lineType: msg.lineType})
		m.refresh()

	case previewMsg:
		m.preview = string(msg)
		m.refresh()

	case clearMsg:
		m.lines = nil
		m.preview = ""
		m.refresh()

	case turnDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, runtime.ErrNoSession) {
			m.err = msg.err
		}

	case spinner.TickMsg:
		if m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) recall(dir state.Direction) {
	m.input.SetValue(m.session.NavigateHistory(dir))
	m.input.CursorEnd()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLines())
	m.viewport.GotoBottom()
}

func (m Model) renderLines() string {
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(m.renderLine(l))
		b.WriteString("\n")
	}
	if m.preview != "" {
		b.WriteString(aiStyle.Render(m.preview))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderLine(l line) string {
	switch l.lineType {
	case types.LineInput:
		return promptStyle.Render("$ ") + inputStyle.Render(l.text)
	case types.LineError:
		return errorStyle.Render(l.text)
	case types.LineSystem:
		return systemStyle.Render(l.text)
	case types.LineAIResponse:
		return m.renderMarkdown(l.text)
	default:
		return l.text
	}
}

// renderMarkdown falls back to styled plain text when glamour fails.
func (m Model) renderMarkdown(text string) (out string) {
	if m.renderer == nil {
		return aiStyle.Render(text)
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("markdown render panicked", "panic", r)
			out = aiStyle.Render(text)
		}
	}()
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return aiStyle.Render(text)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m Model) View() string {
	var b strings.Builder

	title := "simterm"
	cwd := "~"
	if snap, ok := m.session.Snapshot(); ok {
		title = fmt.Sprintf("simterm · %s", snap.ProjectID)
		cwd = snap.CurrentDirectory
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	status := ""
	switch {
	case m.pending > 0:
		status = m.spinner.View() + " working…"
	case m.err != nil:
		status = errorStyle.Render(m.err.Error())
	}
	b.WriteString(status)
	b.WriteString("\n")

	b.WriteString(promptStyle.Render(cwd+" $ ") + m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: run • ↑/↓: history • esc: skip typing • ctrl+p: next project • ctrl+c: quit"))
	return b.String()
}
