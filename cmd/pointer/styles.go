package main

import "github.com/charmbracelet/lipgloss"

// Brand palette shared by the chat and status commands.
var (
	colorPrimary = lipgloss.Color("#6C7FF2") // indigo
	colorAccent  = lipgloss.Color("#8BC34A") // lime green
	colorWarn    = lipgloss.Color("#FFC107") // yellow
	colorErr     = lipgloss.Color("#E53935") // red
	colorMuted   = lipgloss.Color("243")     // grey
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	agentLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)

	errStyle = lipgloss.NewStyle().
			Foreground(colorErr)

	okStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)
)
