// ABOUTME: Implements the "spoor export" subcommand emitting a full run document as YAML or JSON.
// ABOUTME: Writes to stdout by default or to a file with -o.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/spoor/render"
)

// exportConfig holds configuration for the "spoor export" subcommand.
type exportConfig struct {
	workspace string
	format    string
	outFile   string
	runID     string
}

// parseExportArgs checks whether args starts with the "export" subcommand
// and, if so, parses export-specific flags and the run ID. Returns the
// config and true if "export" was detected, or a zero value and false
// otherwise.
func parseExportArgs(args []string) (exportConfig, bool) {
	if len(args) == 0 || args[0] != "export" {
		return exportConfig{}, false
	}

	var cfg exportConfig
	fs := flag.NewFlagSet("spoor export", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")
	fs.StringVar(&cfg.format, "format", "yaml", "Document format: yaml or json")
	fs.StringVar(&cfg.outFile, "o", "", "Write to a file instead of stdout")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor export [flags] <run_id>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Export a full run document including configs and executions.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.runID = fs.Arg(0)
	}

	return cfg, true
}

// runExport renders and writes the run document.
func runExport(cfg exportConfig, stdout, stderr io.Writer) int {
	if cfg.runID == "" {
		fmt.Fprintln(stderr, "error: run ID required (use spoor export <run_id>)")
		return 2
	}
	if cfg.format != "yaml" && cfg.format != "json" {
		fmt.Fprintf(stderr, "error: unknown format %q (want yaml or json)\n", cfg.format)
		return 2
	}

	store, _, err := resolveStore(cfg.workspace)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	run, err := store.LoadRunWithTraces(cfg.runID)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	var data []byte
	switch cfg.format {
	case "json":
		data, err = render.ExportJSON(run)
	default:
		data, err = render.ExportYAML(run)
	}
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if cfg.outFile != "" {
		if err := os.WriteFile(cfg.outFile, data, 0o644); err != nil {
			printError(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", cfg.outFile)
		return 0
	}

	if _, err := stdout.Write(data); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}
