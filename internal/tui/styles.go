package tui

import "github.com/charmbracelet/lipgloss"

// Palette follows the habit card lavender used for default categories.
var (
	accent = lipgloss.AdaptiveColor{Light: "#6d4aff", Dark: "#b9a6ff"}
	muted  = lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#5c5c5c"}
	danger = lipgloss.AdaptiveColor{Light: "#c4122f", Dark: "#ff5f6d"}
	warn   = lipgloss.AdaptiveColor{Light: "#b35c00", Dark: "#ffaf5f"}
	ok     = lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#5fd787"}
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(accent).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(accent).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(muted).
				Padding(0, 1)

	dangerStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warn).Italic(true)
	statusStyle  = lipgloss.NewStyle().Foreground(ok).Padding(0, 1)
	docStyle     = lipgloss.NewStyle().Padding(1, 2)
)
