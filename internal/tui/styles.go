package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorAccent = lipgloss.Color("#2E86DE")
	ColorRed    = lipgloss.Color("#E74C3C")
	ColorGray   = lipgloss.Color("#666666")
	ColorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorAccent).
			Padding(0, 1)

	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	AssistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGray)

	FailureStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)
)
