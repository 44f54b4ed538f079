package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorReel    = "#E8590C"
	colorDone    = "#2F9E44"
	colorFailed  = "#E03131"
	colorMuted   = "#868E96"
	colorPath    = "#1C7ED6"
	colorOnReel  = "#FFF9DB"
	colorOutline = "#F08C00"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorReel)).
			MarginTop(1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDone))

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorFailed))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted))

	PathStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color(colorPath))

	// BoxStyle frames the outputs of a finished job
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(colorOutline)).
			Padding(0, 2)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorOnReel)).
			Background(lipgloss.Color(colorReel)).
			Padding(0, 1)
)
