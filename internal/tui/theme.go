package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors that work on both light and dark terminal backgrounds.
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "57", Dark: "99"})
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	inputStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"})
	systemStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "63"})
	aiStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "128", Dark: "170"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "247", Dark: "241"})
	helpStyle   = dimStyle
)
