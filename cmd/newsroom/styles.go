package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorError  = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#F25D94"}

	headingStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

func heading(s string) string {
	return headingStyle.Render(s)
}

func dim(s string) string {
	return dimStyle.Render(s)
}
