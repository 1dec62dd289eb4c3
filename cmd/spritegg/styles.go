package main

import "github.com/charmbracelet/lipgloss"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
)

// field renders an aligned "label: value" line.
func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
