package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Pane chrome. The focused pane carries a heavy border in the counter
// accent color; unfocused panes recede to a thin dim frame.
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("81"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("238"))
)

// Event styles
var (
	StyleSpawned = lipgloss.NewStyle().
			Foreground(lipgloss.Color("yellow"))

	StyleCompleted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("green")).
			Bold(true)

	StyleCounter = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")).
			Padding(0, 2)

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)
