// ABOUTME: Top-level Bubble Tea AppModel that composes the run list, detail, and status bar panels.
// ABOUTME: Implements tea.Model (Init, Update, View) and routes load results and key presses between panels.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/spoor/trail"
)

// FocusTarget indicates which panel currently has keyboard focus.
type FocusTarget int

const (
	FocusList FocusTarget = iota
	FocusDetail
)

// AppModel is the top-level Bubble Tea model for the run browser. It composes
// the list, detail, and status bar sub-panels and routes messages between them.
type AppModel struct {
	list      RunListModel
	detail    RunDetailModel
	statusBar StatusBarModel

	store *trail.Store

	focus   FocusTarget
	loading bool
	width   int
	height  int
}

// NewAppModel creates an AppModel browsing the given store.
func NewAppModel(store *trail.Store) AppModel {
	detail := NewRunDetailModel()
	detail.SetFocused(false)
	return AppModel{
		list:      NewRunListModel(),
		detail:    detail,
		statusBar: NewStatusBarModel(store.Root()),
		store:     store,
		focus:     FocusList,
		loading:   true,
	}
}

// Init implements tea.Model. Kicks off the initial run listing scan.
func (m AppModel) Init() tea.Cmd {
	return LoadRunsCmd(m.store)
}

// Update implements tea.Model. Routes incoming messages to the appropriate
// sub-panel and returns the updated model with any follow-up commands.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case RunsLoadedMsg:
		return m.handleRunsLoaded(msg)

	case RunDetailMsg:
		return m.handleRunDetail(msg)

	case LoadFailedMsg:
		return m.handleLoadFailed(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Everything else (e.g. mouse wheel) goes to the detail viewport.
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// View implements tea.Model. Renders the list and detail panels side by side
// with the status bar underneath.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Minimum terminal size guard to prevent layout overflow
	if m.width < 40 || m.height < 10 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x10.", m.width, m.height)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.detail.View())
	statusView := m.statusBar.View()

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(statusView)

	return b.String()
}

// handleWindowSize updates dimensions on all panels.
func (m AppModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	statusBarHeight := 1
	panelHeight := m.height - statusBarHeight
	if panelHeight < 3 {
		panelHeight = 3
	}

	listWidth := m.width * 40 / 100
	if listWidth < 10 {
		listWidth = 10
	}
	detailWidth := m.width - listWidth
	if detailWidth < 10 {
		detailWidth = 10
	}

	m.list.SetSize(listWidth, panelHeight)
	m.detail.SetSize(detailWidth, panelHeight)
	m.statusBar.SetWidth(m.width)
	return m, nil
}

// handleRunsLoaded installs a fresh listing into the list panel.
func (m AppModel) handleRunsLoaded(msg RunsLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.list.SetRows(msg.Rows)
	m.statusBar.SetRunCount(len(msg.Rows))
	return m, nil
}

// handleRunDetail installs a rendered report and moves focus to the detail panel.
func (m AppModel) handleRunDetail(msg RunDetailMsg) (tea.Model, tea.Cmd) {
	m.detail.SetRun(msg.RunID, msg.Content)
	m.setFocus(FocusDetail)
	return m, nil
}

// handleLoadFailed surfaces a load error in the status bar.
func (m AppModel) handleLoadFailed(msg LoadFailedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.statusBar.SetNotice(msg.Err.Error())
	return m, nil
}

// handleKeyMsg processes keyboard input, routing to the focused panel or
// app-level shortcuts.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.setFocus(m.nextFocus())
		return m, nil
	case "r":
		m.loading = true
		m.statusBar.ClearNotice()
		return m, LoadRunsCmd(m.store)
	case "esc":
		m.setFocus(FocusList)
		return m, nil
	}

	if m.focus == FocusList {
		switch msg.String() {
		case "up", "k":
			m.list.CursorUp()
		case "down", "j":
			m.list.CursorDown()
		case "enter":
			if row, ok := m.list.Selected(); ok {
				m.statusBar.ClearNotice()
				return m, LoadRunDetailCmd(m.store, row.RunID)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// setFocus moves keyboard focus to the given panel.
func (m *AppModel) setFocus(f FocusTarget) {
	m.focus = f
	m.list.SetFocused(f == FocusList)
	m.detail.SetFocused(f == FocusDetail)
}

// nextFocus cycles the focus target between the list and detail panels.
func (m AppModel) nextFocus() FocusTarget {
	switch m.focus {
	case FocusList:
		return FocusDetail
	case FocusDetail:
		return FocusList
	default:
		return FocusList
	}
}
