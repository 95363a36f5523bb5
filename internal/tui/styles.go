package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Main application styles
	App = lipgloss.NewStyle().
		Padding(0, 1)

	// Title style for components
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Path line under the title
	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#81A1C1"))

	// Status style for info messages
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	// Warning style for validation messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EBCB8B"))

	// Error style for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	// Success style for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	// Label in front of an input
	LabelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(lipgloss.Color("#CCCCCC"))

	// Focused label
	FocusedLabelStyle = LabelStyle.
				Foreground(lipgloss.Color("#73F59F")).
				Bold(true)

	// Prompt asking to confirm a destructive action
	ConfirmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#BF616A")).
			Padding(0, 1)

	// Box around the tag table
	TableBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4F4FB7")).
		Bold(false)
	return s
}
