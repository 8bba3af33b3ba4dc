// ABOUTME: Help display for the spoor CLI with grouped subcommands, examples, and environment status.
// ABOUTME: Provides printHelp for polished usage output and envStatus for workspace override detection.
package main

import (
	"fmt"
	"io"
	"os"
)

const spoorASCII = `
      o o o
     ( ... )               o o o
      '---'               ( ... )
                 o o o     '---'
                ( ... )               o o o
                 '---'               ( ... )
                            .  .      '---'
`

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, environment status, and a docs link.
func printHelp(w io.Writer, ver string) {
	fmt.Fprint(w, spoorASCII)
	fmt.Fprintf(w, "spoor %s — run records for block pipelines\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spoor init                          Initialize a workspace (.spoor + .runs)")
	fmt.Fprintln(w, "  spoor list                          List stored runs, most recent first")
	fmt.Fprintln(w, "  spoor show <run_id>                 Show a run's config (add -traces for results)")
	fmt.Fprintln(w, "  spoor inspect <run_id> <block>      Show one block's stored executions")
	fmt.Fprintln(w, "  spoor export <run_id>               Export a full run document")
	fmt.Fprintln(w, "  spoor serve                         Start the HTTP API and report pages")
	fmt.Fprintln(w, "  spoor browse                        Browse runs in the terminal UI")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Common Flags:")
	fmt.Fprintln(w, "  -workspace <dir>      Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up, else cwd)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Subcommand Flags:")
	fmt.Fprintln(w, "  init    -name <name>          Workspace display name (default: directory name)")
	fmt.Fprintln(w, "  show    -traces               Include per-input execution results")
	fmt.Fprintln(w, "  export  -format <yaml|json>   Document format (default: yaml)")
	fmt.Fprintln(w, "  export  -o <file>             Write to a file instead of stdout")
	fmt.Fprintln(w, "  serve   -port <port>          Server port (default: 2399)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  spoor version         Print version and exit")
	fmt.Fprintln(w, "  spoor help            Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  spoor init -name myapp")
	fmt.Fprintln(w, "  spoor list")
	fmt.Fprintln(w, "  spoor inspect 01JF8M2Q4Y5T6W7X8Z9A0B1C2D summarize")
	fmt.Fprintln(w, "  spoor export 01JF8M2Q4Y5T6W7X8Z9A0B1C2D -format json -o run.json")
	fmt.Fprintln(w, "  spoor serve -port 8080")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  SPOOR_WORKSPACE       %s\n", envStatus("SPOOR_WORKSPACE"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/spoor")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
