// ABOUTME: Markdown report rendering for stored runs.
// ABOUTME: Produces CommonMark (headings and lists only) so it converts cleanly to HTML.
package render

import (
	"fmt"
	"strings"

	"github.com/2389-research/spoor/trail"
)

// valueDisplayLimit caps inline value snippets in the report so one huge
// block output does not swamp the page. Full values stay available via
// export and the block API.
const valueDisplayLimit = 200

// RunMarkdown renders a run as a markdown report: a header section with
// the run metadata, then one section per block with per-input outcomes.
func RunMarkdown(run *trail.Run) string {
	var b strings.Builder
	cfg := run.Config()
	fmt.Fprintf(&b, "# Run %s\n\n", run.ID())
	fmt.Fprintf(&b, "- app hash: `%s`\n", cfg.AppHash)
	fmt.Fprintf(&b, "- started: %s\n", FormatStartTime(cfg.StartTime))
	fmt.Fprintf(&b, "- blocks: %d\n\n", len(run.Traces))

	for i, tr := range run.Traces {
		fmt.Fprintf(&b, "## Block %d: %s\n\n", i, tr.Block)
		if raw, ok := cfg.ConfigForBlock(tr.Block.Name); ok {
			fmt.Fprintf(&b, "Config: `%s`\n\n", truncate(compactJSON(raw), valueDisplayLimit))
		}
		if len(tr.Inputs) == 0 {
			b.WriteString("No inputs recorded.\n\n")
			continue
		}
		for inputIdx, branches := range tr.Inputs {
			fmt.Fprintf(&b, "- input %d\n", inputIdx)
			if len(branches) == 0 {
				b.WriteString("  - no executions\n")
				continue
			}
			for branchIdx, exec := range branches {
				fmt.Fprintf(&b, "  - branch %d: %s\n", branchIdx, executionMarkdown(exec))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func executionMarkdown(exec trail.BlockExecution) string {
	switch exec.Status() {
	case trail.StatusSuccess:
		value, _ := exec.Value()
		return fmt.Sprintf("**success** `%s`", truncate(escapeBackticks(compactJSON(value)), valueDisplayLimit))
	case trail.StatusFail:
		msg, _ := exec.FailureMessage()
		return fmt.Sprintf("**fail** %s", escapeMarkdown(msg))
	default:
		return "skipped"
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func escapeBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// escapeMarkdown neutralizes characters that would change the report
// structure when a failure message contains markdown syntax.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"*", `\*`,
		"_", `\_`,
		"`", `\`+"`",
		"#", `\#`,
		"[", `\[`,
		"]", `\]`,
	)
	return replacer.Replace(s)
}
