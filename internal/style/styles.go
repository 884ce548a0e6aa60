package style

import "github.com/charmbracelet/lipgloss"

// Base text styles shared by the CLI and the feed TUI.
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)

	colorActive = lipgloss.Color("2")  // green
	colorIdle   = lipgloss.Color("3")  // yellow
	colorAway   = lipgloss.Color("8")  // gray
	colorStuck  = lipgloss.Color("1")  // red

	Active = lipgloss.NewStyle().Foreground(colorActive)
	Idle   = lipgloss.NewStyle().Foreground(colorIdle)
	Away   = lipgloss.NewStyle().Foreground(colorAway)
	Stuck  = lipgloss.NewStyle().Foreground(colorStuck).Bold(true)
)

// StatusStyle returns the style for a presence status string, falling
// back to the unstyled default for anything unrecognized.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "active":
		return Active
	case "idle":
		return Idle
	case "away":
		return Away
	case "stuck":
		return Stuck
	default:
		return lipgloss.NewStyle()
	}
}
