// ABOUTME: Implements a single-line status bar for the bottom of the TUI.
// ABOUTME: Shows the workspace root, run count, key hints, and any transient load error.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// StatusBarModel displays workspace status and key hints in a single line.
type StatusBarModel struct {
	root     string
	runCount int
	notice   string
	width    int
}

// NewStatusBarModel creates a status bar for the given workspace root.
func NewStatusBarModel(root string) StatusBarModel {
	return StatusBarModel{root: root}
}

// SetRunCount updates the displayed run count.
func (m *StatusBarModel) SetRunCount(n int) {
	m.runCount = n
}

// SetNotice sets a transient message shown instead of the key hints.
func (m *StatusBarModel) SetNotice(notice string) {
	m.notice = notice
}

// ClearNotice removes the transient message.
func (m *StatusBarModel) ClearNotice() {
	m.notice = ""
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	style := StatusBarStyle.Width(m.width)
	tail := "enter view | tab focus | r refresh | q quit"
	if m.notice != "" {
		style = NoticeStyle.Width(m.width)
		tail = m.notice
	}

	content := fmt.Sprintf("%s | %d runs | %s", m.root, m.runCount, tail)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
