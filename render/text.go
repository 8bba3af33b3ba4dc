// ABOUTME: Plain-text rendering of runs, traces, and executions for CLI output.
// ABOUTME: Provides the one-line listing format plus indented block and run detail views.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2389-research/spoor/trail"
)

// FormatStartTime renders an epoch-seconds start time as a UTC timestamp.
func FormatStartTime(startTime uint64) string {
	return time.Unix(int64(startTime), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// RunLine renders the one-line listing entry for a stored run.
func RunLine(s trail.Summary) string {
	return fmt.Sprintf("Run: %s app_hash=%s start_time=%s",
		s.RunID, s.Config.AppHash, FormatStartTime(s.Config.StartTime))
}

// RunList renders the full listing, one line per run in the order given.
func RunList(summaries []trail.Summary) string {
	var b strings.Builder
	for _, s := range summaries {
		b.WriteString(RunLine(s))
		b.WriteByte('\n')
	}
	return b.String()
}

// RunText renders a full run record as indented text: header lines
// followed by every block trace in pipeline order.
func RunText(run *trail.Run) string {
	var b strings.Builder
	cfg := run.Config()
	fmt.Fprintf(&b, "Run: %s\n", run.ID())
	fmt.Fprintf(&b, "  app_hash:   %s\n", cfg.AppHash)
	fmt.Fprintf(&b, "  start_time: %s\n", FormatStartTime(cfg.StartTime))
	fmt.Fprintf(&b, "  blocks:     %d\n", len(run.Traces))
	for i, tr := range run.Traces {
		b.WriteString(TraceText(i, tr))
	}
	return b.String()
}

// ConfigText renders a run's configuration without touching its traces.
// Block configs print sorted by name for stable output.
func ConfigText(run *trail.Run) string {
	var b strings.Builder
	cfg := run.Config()
	fmt.Fprintf(&b, "Run: %s\n", run.ID())
	fmt.Fprintf(&b, "  app_hash:   %s\n", cfg.AppHash)
	fmt.Fprintf(&b, "  start_time: %s\n", FormatStartTime(cfg.StartTime))
	fmt.Fprintf(&b, "  block configs: %d\n", len(cfg.Blocks))

	names := make([]string, 0, len(cfg.Blocks))
	for name := range cfg.Blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "    %s: %s\n", name, compactJSON(cfg.Blocks[name]))
	}
	return b.String()
}

// TraceText renders one block trace with its per-input, per-branch outcomes.
func TraceText(index int, tr trail.Trace) string {
	var b strings.Builder
	fmt.Fprintf(&b, "block %d %s\n", index, tr.Block)
	for i, branches := range tr.Inputs {
		fmt.Fprintf(&b, "  input %d\n", i)
		if len(branches) == 0 {
			b.WriteString("    (no executions)\n")
			continue
		}
		for j, exec := range branches {
			fmt.Fprintf(&b, "    branch %d: %s\n", j, ExecutionText(exec))
		}
	}
	return b.String()
}

// BlockText renders a single block read-back including its pipeline position.
func BlockText(bt *trail.BlockTrace) string {
	return TraceText(bt.Index, trail.Trace{Block: bt.Block, Inputs: bt.Inputs})
}

// ExecutionText renders a single outcome as one line.
func ExecutionText(exec trail.BlockExecution) string {
	switch exec.Status() {
	case trail.StatusSuccess:
		value, _ := exec.Value()
		return "success " + compactJSON(value)
	case trail.StatusFail:
		msg, _ := exec.FailureMessage()
		return fmt.Sprintf("fail %q", msg)
	default:
		return "skipped"
	}
}

// compactJSON re-compacts raw JSON for single-line display. Stored files
// are indented, so values read back carry internal whitespace.
func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
