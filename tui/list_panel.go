// ABOUTME: Bubble Tea sub-model for the selectable run list with cursor navigation and scroll windowing.
// ABOUTME: Renders one row per stored run showing the run id, start time, and block count.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/spoor/render"
)

// RunRow is one entry in the run list.
type RunRow struct {
	RunID     string
	AppHash   string
	StartTime uint64
	Blocks    int
}

// RunListModel displays stored runs with a movable cursor.
type RunListModel struct {
	rows    []RunRow
	cursor  int
	focused bool
	width   int
	height  int
}

// NewRunListModel creates an empty run list.
func NewRunListModel() RunListModel {
	return RunListModel{focused: true}
}

// SetRows replaces the listing, clamping the cursor into range.
func (m *RunListModel) SetRows(rows []RunRow) {
	m.rows = rows
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Len returns the number of rows.
func (m RunListModel) Len() int {
	return len(m.rows)
}

// Selected returns the row under the cursor, or false when the list is empty.
func (m RunListModel) Selected() (RunRow, bool) {
	if len(m.rows) == 0 {
		return RunRow{}, false
	}
	return m.rows[m.cursor], true
}

// CursorUp moves the cursor one row up, stopping at the top.
func (m *RunListModel) CursorUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// CursorDown moves the cursor one row down, stopping at the bottom.
func (m *RunListModel) CursorDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
}

// SetFocused sets whether this panel accepts keyboard input.
func (m *RunListModel) SetFocused(focused bool) {
	m.focused = focused
}

// IsFocused returns whether the panel is focused.
func (m RunListModel) IsFocused() bool {
	return m.focused
}

// SetSize sets the available dimensions.
func (m *RunListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// visibleRows returns the number of rows that fit below the title inside the border.
func (m RunListModel) visibleRows() int {
	// Border takes 2 lines, title 1.
	n := m.height - 3
	if n < 1 {
		n = 1
	}
	return n
}

// window returns the half-open row range currently in view, keeping the
// cursor visible.
func (m RunListModel) window() (int, int) {
	visible := m.visibleRows()
	if len(m.rows) <= visible {
		return 0, len(m.rows)
	}
	first := m.cursor - visible/2
	if first < 0 {
		first = 0
	}
	if first > len(m.rows)-visible {
		first = len(m.rows) - visible
	}
	return first, first + visible
}

// rowLabel formats one run row for display.
func rowLabel(row RunRow) string {
	return fmt.Sprintf("%s  %s  (%d blocks)", row.RunID, render.FormatStartTime(row.StartTime), row.Blocks)
}

// truncateRow clips a row to the given width, appending "..." when clipped.
func truncateRow(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// View renders the run list panel.
func (m RunListModel) View() string {
	title := fmt.Sprintf("RUNS (%d)", len(m.rows))
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(DimStyle.Render("No runs stored yet"))
	} else {
		innerWidth := m.width - 4
		first, last := m.window()
		for i := first; i < last; i++ {
			label := truncateRow(rowLabel(m.rows[i]), innerWidth-2)
			if i == m.cursor {
				b.WriteString(SelectedRowStyle.Render("> " + label))
			} else {
				b.WriteString(RowStyle.Render("  " + label))
			}
			if i < last-1 {
				b.WriteString("\n")
			}
		}
	}

	border := BorderStyle
	if m.focused {
		border = FocusedBorderStyle
	}
	return border.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}
