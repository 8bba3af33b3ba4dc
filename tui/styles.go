// ABOUTME: Defines lipgloss style constants for the TUI layout panels, status colors, and the status bar.
// ABOUTME: Provides StyleForStatus and StatusIcon to map execution outcomes to display styles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/spoor/trail"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("170"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Run list rows
	RowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57")).
				Bold(true)
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Execution status colors
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	SkippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	NoticeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1)
)

// StyleForStatus returns the appropriate lipgloss style for a block execution status.
func StyleForStatus(status trail.BlockStatus) lipgloss.Style {
	switch status {
	case trail.StatusSuccess:
		return SuccessStyle
	case trail.StatusFail:
		return FailStyle
	case trail.StatusSkipped:
		return SkippedStyle
	default:
		return SkippedStyle
	}
}

// StatusIcon returns a bracket-style marker for a block execution status.
func StatusIcon(status trail.BlockStatus) string {
	switch status {
	case trail.StatusSuccess:
		return "[*]"
	case trail.StatusFail:
		return "[!]"
	case trail.StatusSkipped:
		return "[-]"
	default:
		return "[?]"
	}
}
