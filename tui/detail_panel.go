// ABOUTME: Implements a scrollable run report panel using the bubbles viewport component.
// ABOUTME: Displays the rendered text report for the run selected in the list panel.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// RunDetailModel is a scrollable panel showing one run's rendered report.
type RunDetailModel struct {
	runID    string
	content  string
	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewRunDetailModel creates an empty detail panel.
func NewRunDetailModel() RunDetailModel {
	vp := viewport.New(80, 10)
	return RunDetailModel{viewport: vp}
}

// SetRun replaces the displayed report and scrolls back to the top.
func (m *RunDetailModel) SetRun(runID, content string) {
	m.runID = runID
	m.content = content
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// Clear removes the displayed run.
func (m *RunDetailModel) Clear() {
	m.runID = ""
	m.content = ""
	m.viewport.SetContent("")
}

// RunID returns the id of the displayed run, or "" when empty.
func (m RunDetailModel) RunID() string {
	return m.runID
}

// SetFocused sets whether this panel accepts keyboard input.
func (m *RunDetailModel) SetFocused(focused bool) {
	m.focused = focused
}

// IsFocused returns whether the panel is focused.
func (m RunDetailModel) IsFocused() bool {
	return m.focused
}

// SetSize sets the available dimensions and updates the viewport.
func (m *RunDetailModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Reserve space for the border (2 lines top/bottom) and title (1 line)
	vpWidth := w - 2
	vpHeight := h - 3
	if vpWidth < 1 {
		vpWidth = 1
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

// Update forwards scroll keys to the viewport when the panel is focused.
func (m RunDetailModel) Update(msg tea.Msg) (RunDetailModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail panel.
func (m RunDetailModel) View() string {
	title := "RUN DETAIL"
	if m.runID != "" {
		title = "RUN " + m.runID
	}

	var content string
	if m.content == "" {
		content = DimStyle.Render("Select a run and press enter")
	} else {
		content = m.viewport.View()
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(content)

	border := BorderStyle
	if m.focused {
		border = FocusedBorderStyle
	}
	return border.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}
