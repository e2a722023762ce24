package tui

import "charm.land/lipgloss/v2"

var (
	colorPrimary = lipgloss.Color("#1976D2")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
	colorBorder  = lipgloss.Color("#334155")
	colorFill    = lipgloss.Color("#14B8A6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	wordStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	correctStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	statStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	progressFilled = lipgloss.NewStyle().Foreground(colorFill)
	progressEmpty  = lipgloss.NewStyle().Foreground(colorBorder)
)
