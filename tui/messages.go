// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps the result of a store load for the tea.Msg interface (which is interface{}).
package tui

// RunsLoadedMsg carries the freshly scanned run listing.
type RunsLoadedMsg struct {
	Rows []RunRow
}

// RunDetailMsg carries the rendered report for a single run.
type RunDetailMsg struct {
	RunID   string
	Content string
}

// LoadFailedMsg signals that a store load failed.
type LoadFailedMsg struct {
	Err error
}
