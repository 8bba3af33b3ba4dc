// ABOUTME: Command constructors that load run data from the store off the Bubble Tea event loop.
// ABOUTME: Each returns a tea.Cmd whose message is routed back through AppModel.Update.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/spoor/render"
	"github.com/2389-research/spoor/trail"
)

// LoadRunsCmd scans the store and returns a RunsLoadedMsg with one row per
// run, newest first. Scan failures surface as LoadFailedMsg.
func LoadRunsCmd(store *trail.Store) tea.Cmd {
	return func() tea.Msg {
		summaries, err := store.ListRuns()
		if err != nil {
			return LoadFailedMsg{Err: err}
		}
		rows := make([]RunRow, 0, len(summaries))
		for _, s := range summaries {
			idents, err := store.BlockIdents(s.RunID)
			if err != nil {
				return LoadFailedMsg{Err: err}
			}
			rows = append(rows, RunRow{
				RunID:     s.RunID,
				AppHash:   s.Config.AppHash,
				StartTime: s.Config.StartTime,
				Blocks:    len(idents),
			})
		}
		return RunsLoadedMsg{Rows: rows}
	}
}

// LoadRunDetailCmd reads one run with its traces and renders the styled report.
func LoadRunDetailCmd(store *trail.Store, runID string) tea.Cmd {
	return func() tea.Msg {
		run, err := store.LoadRunWithTraces(runID)
		if err != nil {
			return LoadFailedMsg{Err: err}
		}
		return RunDetailMsg{RunID: runID, Content: runDetailContent(run)}
	}
}

// runDetailContent renders a run for the detail viewport: the header and
// trace layout of render.RunText, with every outcome line carrying its
// status icon and color.
func runDetailContent(run *trail.Run) string {
	var b strings.Builder
	cfg := run.Config()
	fmt.Fprintf(&b, "Run: %s\n", run.ID())
	fmt.Fprintf(&b, "  app_hash:   %s\n", cfg.AppHash)
	fmt.Fprintf(&b, "  start_time: %s\n", render.FormatStartTime(cfg.StartTime))
	fmt.Fprintf(&b, "  blocks:     %d\n", len(run.Traces))
	for i, tr := range run.Traces {
		fmt.Fprintf(&b, "block %d %s\n", i, tr.Block)
		for inputIdx, branches := range tr.Inputs {
			fmt.Fprintf(&b, "  input %d\n", inputIdx)
			if len(branches) == 0 {
				b.WriteString(DimStyle.Render("    (no executions)"))
				b.WriteByte('\n')
				continue
			}
			for j, exec := range branches {
				status := exec.Status()
				line := fmt.Sprintf("%s %s", StatusIcon(status), render.ExecutionText(exec))
				fmt.Fprintf(&b, "    branch %d: %s\n", j, StyleForStatus(status).Render(line))
			}
		}
	}
	return b.String()
}
