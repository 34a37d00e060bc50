package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.Color("204")).
		Background(lipgloss.Color("235")).
		Render

	paragraph = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2).
			Render

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render
)
